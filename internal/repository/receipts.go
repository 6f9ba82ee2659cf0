package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/famcart/receipt-analyzer/internal/entity"
)

// ReceiptRepository stores uploaded receipt text and its extraction results.
type ReceiptRepository interface {
	Create(ctx context.Context, rec *entity.ReceiptRecord) error
	ListUnprocessed(ctx context.Context, familyID string) ([]*entity.ReceiptRecord, error)
	ListProcessed(ctx context.Context, familyID string) ([]*entity.ReceiptRecord, error)
	MarkProcessed(ctx context.Context, rec *entity.ReceiptRecord) error
}

type receiptRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewReceiptRepository(pool *pgxpool.Pool, logger *slog.Logger) ReceiptRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &receiptRepository{pool: pool, logger: logger}
}

func (r *receiptRepository) Create(ctx context.Context, rec *entity.ReceiptRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.UploadDate.IsZero() {
		rec.UploadDate = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO receipts (id, family_id, user_email, ocr_text, source_ref, processed, upload_date)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)`,
		rec.ID, rec.FamilyID, rec.UserEmail, rec.OCRText, rec.SourceRef, rec.UploadDate,
	)
	if err != nil {
		r.logger.Error("failed to create receipt", "family_id", rec.FamilyID, "error", err)
		return fmt.Errorf("create receipt: %w", err)
	}
	return nil
}

func (r *receiptRepository) ListUnprocessed(ctx context.Context, familyID string) ([]*entity.ReceiptRecord, error) {
	return r.list(ctx, familyID, false)
}

func (r *receiptRepository) ListProcessed(ctx context.Context, familyID string) ([]*entity.ReceiptRecord, error) {
	return r.list(ctx, familyID, true)
}

func (r *receiptRepository) list(ctx context.Context, familyID string, processed bool) ([]*entity.ReceiptRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, family_id, user_email, ocr_text, source_ref, processed,
		       store_name, store_items, raw_extraction, purchase_date, upload_date
		FROM receipts
		WHERE family_id = $1 AND processed = $2
		ORDER BY upload_date`,
		familyID, processed,
	)
	if err != nil {
		r.logger.Error("failed to list receipts", "family_id", familyID, "error", err)
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var out []*entity.ReceiptRecord
	for rows.Next() {
		var rec entity.ReceiptRecord
		var storeItems []byte
		if err := rows.Scan(
			&rec.ID, &rec.FamilyID, &rec.UserEmail, &rec.OCRText, &rec.SourceRef,
			&rec.Processed, &rec.StoreName, &storeItems, &rec.RawExtraction,
			&rec.PurchaseDate, &rec.UploadDate,
		); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		if len(storeItems) > 0 {
			if err := json.Unmarshal(storeItems, &rec.StoreItems); err != nil {
				r.logger.Warn("receipt store_items unreadable", "receipt_id", rec.ID, "error", err)
			}
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// MarkProcessed flags the receipt done and attaches the extraction results.
func (r *receiptRepository) MarkProcessed(ctx context.Context, rec *entity.ReceiptRecord) error {
	storeItems, err := json.Marshal(rec.StoreItems)
	if err != nil {
		return fmt.Errorf("encode store items: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE receipts
		SET processed = TRUE, store_name = $2, store_items = $3,
		    raw_extraction = $4, purchase_date = $5
		WHERE id = $1`,
		rec.ID, rec.StoreName, storeItems, rec.RawExtraction, rec.PurchaseDate,
	)
	if err != nil {
		r.logger.Error("failed to mark receipt processed", "receipt_id", rec.ID, "error", err)
		return fmt.Errorf("mark receipt processed: %w", err)
	}
	return nil
}
