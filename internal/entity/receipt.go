package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReceiptRecord represents one uploaded receipt for data transfer between layers.
// Created when OCR text is saved; annotated and marked processed by an
// analysis run. Never deleted here (retention is external).
type ReceiptRecord struct {
	ID            uuid.UUID           `json:"id"`
	FamilyID      string              `json:"family_id"`
	UserEmail     string              `json:"user_email"`
	OCRText       string              `json:"ocr_text"`
	SourceRef     string              `json:"source_ref,omitempty"`
	Processed     bool                `json:"processed"`
	StoreName     string              `json:"store_name,omitempty"`
	StoreItems    map[string][]string `json:"store_items,omitempty"`
	RawExtraction string              `json:"raw_extraction,omitempty"`
	PurchaseDate  *time.Time          `json:"purchase_date,omitempty"`
	UploadDate    time.Time           `json:"upload_date"`
}
