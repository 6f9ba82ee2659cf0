package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/famcart/receipt-analyzer/internal/decode"
	"github.com/famcart/receipt-analyzer/internal/entity"
	"github.com/famcart/receipt-analyzer/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	lists    repository.ListRepository
	receipts repository.ReceiptRepository
	logger   *slog.Logger
}

func NewService(lists repository.ListRepository, receipts repository.ReceiptRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{lists: lists, receipts: receipts, logger: logger}
}

const (
	listSheet    = "Shopping List"
	historySheet = "Price History"
)

// ExportListXLSX returns an XLSX workbook (as bytes) for the family: the
// cumulative shopping list on one sheet, the price history replayed from the
// processed receipts' raw extractions on the other.
func (s *Service) ExportListXLSX(ctx context.Context, familyID string) ([]byte, error) {
	start := time.Now()

	list, err := s.lists.Get(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("query shopping list: %w", err)
	}
	processed, err := s.receipts.ListProcessed(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("query processed receipts: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", listSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(listSheet)
	f.SetActiveSheet(activeIndex)

	listRows := s.writeListSheet(f, list)
	historyRows := s.writeHistorySheet(f, processed)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"family_id", familyID,
		"list_rows", listRows,
		"history_rows", historyRows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeListSheet(f *excelize.File, list *entity.ShoppingList) int {
	headers := []string{"Store", "Item"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(listSheet, cell, h)
	}

	names := make([]string, 0, len(list.StoreItems))
	for name := range list.StoreItems {
		names = append(names, name)
	}
	sort.Strings(names)

	row := 2
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(listSheet, cell, v)
	}
	for _, name := range names {
		for _, item := range list.StoreItems[name] {
			write(1, name)
			write(2, item)
			row++
		}
	}

	_ = f.SetColWidth(listSheet, "A", "A", 24)
	_ = f.SetColWidth(listSheet, "B", "B", 40)
	return row - 2
}

func (s *Service) writeHistorySheet(f *excelize.File, processed []*entity.ReceiptRecord) int {
	headers := []string{"Date", "Store", "Item", "Price", "Transaction"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(historySheet, cell, h)
	}

	// Receipts sharing one extraction carry the same raw payload; replay each
	// payload once.
	seen := make(map[string]bool)
	row := 2
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(historySheet, cell, v)
	}
	for _, rec := range processed {
		if rec.RawExtraction == "" || seen[rec.RawExtraction] {
			continue
		}
		seen[rec.RawExtraction] = true

		for _, p := range decode.PricePoints(rec.RawExtraction, s.logger) {
			if p.Timestamp != nil {
				write(1, p.Timestamp.Format("2006-01-02"))
			} else {
				write(1, "")
			}
			write(2, p.Store)
			write(3, p.Item)
			write(4, p.Price)
			write(5, p.TransactionID)
			row++
		}
	}

	_ = f.SetColWidth(historySheet, "A", "A", 14)
	_ = f.SetColWidth(historySheet, "B", "B", 24)
	_ = f.SetColWidth(historySheet, "C", "C", 40)
	_ = f.SetColWidth(historySheet, "D", "D", 12)
	_ = f.SetColWidth(historySheet, "E", "E", 28)
	return row - 2
}
