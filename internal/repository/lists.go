package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/famcart/receipt-analyzer/internal/common"
	"github.com/famcart/receipt-analyzer/internal/entity"
)

// ListRepository stores the one cumulative shopping list per family.
type ListRepository interface {
	Get(ctx context.Context, familyID string) (*entity.ShoppingList, error)
	GetOrCreate(ctx context.Context, familyID, userID string) (*entity.ShoppingList, error)
	Save(ctx context.Context, list *entity.ShoppingList) error
}

type listRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewListRepository(pool *pgxpool.Pool, logger *slog.Logger) ListRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &listRepository{pool: pool, logger: logger}
}

func (r *listRepository) Get(ctx context.Context, familyID string) (*entity.ShoppingList, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, family_id, user_id, store_items, version, created_at, last_updated
		FROM shopping_lists
		WHERE id = $1`,
		familyID,
	)

	var list entity.ShoppingList
	var storeItems []byte
	err := row.Scan(&list.ID, &list.FamilyID, &list.UserID, &storeItems,
		&list.Version, &list.CreatedAt, &list.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("shopping list %s: %w", familyID, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to load shopping list", "family_id", familyID, "error", err)
		return nil, fmt.Errorf("load shopping list: %w", err)
	}

	list.StoreItems = make(map[string][]string)
	if len(storeItems) > 0 {
		if err := json.Unmarshal(storeItems, &list.StoreItems); err != nil {
			return nil, fmt.Errorf("decode store items: %w", err)
		}
	}
	return &list, nil
}

// GetOrCreate fetches the family's list, lazily creating an empty one keyed
// by family id on first analysis.
func (r *listRepository) GetOrCreate(ctx context.Context, familyID, userID string) (*entity.ShoppingList, error) {
	list, err := r.Get(ctx, familyID)
	if err == nil {
		return list, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	// Concurrent creators are resolved by the primary key; losing the insert
	// race is fine, the re-read below picks up the winner's row.
	_, err = r.pool.Exec(ctx, `
		INSERT INTO shopping_lists (id, family_id, user_id, store_items, version, created_at, last_updated)
		VALUES ($1, $1, $2, '{}'::jsonb, 0, $3, $3)
		ON CONFLICT (id) DO NOTHING`,
		familyID, userID, now,
	)
	if err != nil {
		r.logger.Error("failed to create shopping list", "family_id", familyID, "error", err)
		return nil, fmt.Errorf("create shopping list: %w", err)
	}
	return r.Get(ctx, familyID)
}

// Save persists the merged list under optimistic concurrency: the write only
// lands if nobody advanced the version since this run read it.
func (r *listRepository) Save(ctx context.Context, list *entity.ShoppingList) error {
	storeItems, err := json.Marshal(list.StoreItems)
	if err != nil {
		return fmt.Errorf("encode store items: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE shopping_lists
		SET store_items = $2, last_updated = $3, version = version + 1
		WHERE id = $1 AND version = $4`,
		list.ID, storeItems, list.LastUpdated, list.Version,
	)
	if err != nil {
		r.logger.Error("failed to save shopping list", "list_id", list.ID, "error", err)
		return fmt.Errorf("save shopping list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("shopping list save lost optimistic race", "list_id", list.ID, "version", list.Version)
		return fmt.Errorf("save shopping list %s: %w", list.ID, common.ErrVersionConflict)
	}
	list.Version++
	return nil
}
