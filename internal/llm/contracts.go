package llm

import "context"

// ExtractRequest carries one analysis run's concatenated receipt text plus
// hints the prompt builder uses.
type ExtractRequest struct {
	FamilyID     string
	ReceiptText  string // concatenated raw OCR text of all unprocessed receipts
	ReceiptCount int
}

// Extractor is the collaborator the orchestrator depends on. It returns the
// model's raw response text; repairing and decoding it is the caller's
// concern.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (string, error)
}
