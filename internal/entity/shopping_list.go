package entity

import (
	"time"
)

// ShoppingList is the one cumulative list a family owns. Keys of StoreItems
// are normalized store names; each value is an ordered, case-insensitively
// unique set of item names.
type ShoppingList struct {
	ID          string              `json:"id"` // equals the family id
	FamilyID    string              `json:"family_id"`
	UserID      string              `json:"user_id"`
	StoreItems  map[string][]string `json:"store_items"`
	Version     int64               `json:"version"`
	CreatedAt   time.Time           `json:"created_at"`
	LastUpdated time.Time           `json:"last_updated"`
}

// NewShoppingList returns an empty list keyed by family id.
func NewShoppingList(familyID, userID string, now time.Time) *ShoppingList {
	return &ShoppingList{
		ID:          familyID,
		FamilyID:    familyID,
		UserID:      userID,
		StoreItems:  make(map[string][]string),
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// TotalItems counts items across all stores.
func (l *ShoppingList) TotalItems() int {
	n := 0
	for _, items := range l.StoreItems {
		n += len(items)
	}
	return n
}
