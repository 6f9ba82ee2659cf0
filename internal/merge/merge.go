// Package merge folds newly extracted items into a family's shopping list.
// Pure in-memory combination: no I/O, inputs are never mutated.
package merge

import (
	"sort"
	"strings"
	"time"

	"github.com/famcart/receipt-analyzer/internal/entity"
	"github.com/famcart/receipt-analyzer/internal/stores"
)

// Lists returns a new list combining existing with byStore (raw store name ->
// item names). Store keys are normalized; a new extraction folds into an
// existing key when the normalized name matches exactly or fuzzily. Items are
// append-only and unique per store under case-insensitive comparison, with
// first-appearance order preserved. LastUpdated is stamped as the final step.
func Lists(existing *entity.ShoppingList, byStore map[string][]string) *entity.ShoppingList {
	merged := &entity.ShoppingList{
		ID:         existing.ID,
		FamilyID:   existing.FamilyID,
		UserID:     existing.UserID,
		Version:    existing.Version,
		CreatedAt:  existing.CreatedAt,
		StoreItems: make(map[string][]string, len(existing.StoreItems)),
	}
	for store, items := range existing.StoreItems {
		merged.StoreItems[store] = append([]string(nil), items...)
	}

	// Deterministic fold order; the extraction map carries no order of its own.
	rawNames := make([]string, 0, len(byStore))
	for raw := range byStore {
		rawNames = append(rawNames, raw)
	}
	sort.Strings(rawNames)

	for _, raw := range rawNames {
		key := resolveStoreKey(merged.StoreItems, stores.Normalize(raw))
		if _, ok := merged.StoreItems[key]; !ok {
			merged.StoreItems[key] = []string{}
		}

		seen := make(map[string]bool, len(merged.StoreItems[key]))
		for _, have := range merged.StoreItems[key] {
			seen[strings.ToLower(have)] = true
		}
		for _, item := range byStore[raw] {
			folded := strings.ToLower(item)
			if strings.TrimSpace(item) == "" || seen[folded] {
				continue
			}
			merged.StoreItems[key] = append(merged.StoreItems[key], item)
			seen[folded] = true
		}
	}

	merged.LastUpdated = time.Now().UTC()
	return merged
}

// resolveStoreKey prefers a direct normalized-name hit; the fuzzy scan only
// exists to absorb near-duplicate variants (trailing location qualifiers and
// the like) into one bucket.
func resolveStoreKey(storeItems map[string][]string, normalized string) string {
	if _, ok := storeItems[normalized]; ok {
		return normalized
	}

	keys := make([]string, 0, len(storeItems))
	for k := range storeItems {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if stores.Similar(k, normalized) {
			return k
		}
	}
	return normalized
}
