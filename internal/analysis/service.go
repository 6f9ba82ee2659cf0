// Package analysis orchestrates one pipeline run: pull unprocessed receipts,
// extract structured stores from their text, fold the result into the
// family's cumulative shopping list, then persist and notify.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/famcart/receipt-analyzer/constants"
	"github.com/famcart/receipt-analyzer/internal/common"
	"github.com/famcart/receipt-analyzer/internal/decode"
	"github.com/famcart/receipt-analyzer/internal/entity"
	"github.com/famcart/receipt-analyzer/internal/llm"
	"github.com/famcart/receipt-analyzer/internal/merge"
	"github.com/famcart/receipt-analyzer/internal/notify"
	"github.com/famcart/receipt-analyzer/internal/repository"
	"github.com/famcart/receipt-analyzer/internal/stores"
)

// Service runs the receipt-analysis pipeline for one family at a time.
type Service struct {
	receipts  repository.ReceiptRepository
	lists     repository.ListRepository
	extractor llm.Extractor
	notifier  notify.Notifier
	locks     *familyLocks
	logger    *slog.Logger
}

func NewService(
	receipts repository.ReceiptRepository,
	lists repository.ListRepository,
	extractor llm.Extractor,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.Nop{Logger: logger}
	}
	return &Service{
		receipts:  receipts,
		lists:     lists,
		extractor: extractor,
		notifier:  notifier,
		locks:     newFamilyLocks(),
		logger:    logger,
	}
}

// Run processes every unprocessed receipt for the request's family. Runs for
// the same family are serialized; a run that finds no pending receipts is a
// successful no-op. On success the merged list is saved, the consumed
// receipts are marked processed, and a notification is emitted. Those three
// finalize steps run concurrently and are not rolled back if one fails.
func (s *Service) Run(ctx context.Context, req entity.AnalysisRequest) error {
	familyID := strings.TrimSpace(req.FamilyID)
	if familyID == "" {
		return common.ErrMissingFamilyID
	}

	release := s.locks.acquire(familyID)
	defer release()

	reqID := uuid.New().String()
	ctx = common.WithRequestID(common.WithFamilyID(ctx, familyID), reqID)
	logger := s.logger.With("req_id", reqID, "family_id", familyID)
	start := time.Now()
	logger.Info("analysis.run.start")

	pending, err := s.receipts.ListUnprocessed(ctx, familyID)
	if err != nil {
		return fmt.Errorf("fetch unprocessed receipts: %w", err)
	}
	if len(pending) == 0 {
		logger.Info("analysis.run.no_receipts")
		return nil
	}

	texts := make([]string, 0, len(pending))
	for _, rec := range pending {
		texts = append(texts, rec.OCRText)
	}

	raw, err := s.extractor.Extract(ctx, llm.ExtractRequest{
		FamilyID:     familyID,
		ReceiptText:  strings.Join(texts, "\n\n"),
		ReceiptCount: len(pending),
	})
	if err != nil {
		logger.Error("analysis.run.extract_failed", "error", err)
		return fmt.Errorf("extract receipts: %w", err)
	}

	bundles := decode.Stores(raw, logger)
	if len(bundles) == 0 {
		logger.Error("analysis.run.empty_extraction", "raw_len", len(raw))
		return fmt.Errorf("analysis for family %s: %w", familyID, common.ErrExtractionEmpty)
	}

	list, err := s.lists.GetOrCreate(ctx, familyID, req.UserEmail)
	if err != nil {
		return fmt.Errorf("load shopping list: %w", err)
	}
	priorItems := list.TotalItems()

	byStore := make(map[string][]string, len(bundles))
	for name, b := range bundles {
		byStore[name] = b.Items
	}
	merged := merge.Lists(list, byStore)
	newItems := merged.TotalItems() - priorItems

	storeName, purchaseDate := primaryStore(bundles)
	event := buildEvent(req, merged, bundles, newItems)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.lists.Save(gctx, merged); err != nil {
			return fmt.Errorf("save merged list: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		for _, rec := range pending {
			rec.StoreName = storeName
			rec.StoreItems = byStore
			rec.RawExtraction = raw
			rec.PurchaseDate = purchaseDate
			if err := s.receipts.MarkProcessed(gctx, rec); err != nil {
				return fmt.Errorf("mark receipt %s processed: %w", rec.ID, err)
			}
		}
		return nil
	})
	g.Go(func() error {
		if err := s.notifier.Send(gctx, event); err != nil {
			return fmt.Errorf("send notification: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("analysis.run.finalize_failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return err
	}

	logger.Info("analysis.run.ok",
		"receipts", len(pending),
		"stores", len(bundles),
		"new_items", newItems,
		"list_version", merged.Version,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// primaryStore picks the bundle with the most items to label the consumed
// receipts with. Ties break on the lexically smaller raw name so the choice
// is stable across runs.
func primaryStore(bundles map[string]entity.StoreBundle) (string, *time.Time) {
	var bestName string
	var best entity.StoreBundle
	for name, b := range bundles {
		if bestName == "" || len(b.Items) > len(best.Items) ||
			(len(b.Items) == len(best.Items) && name < bestName) {
			bestName, best = name, b
		}
	}
	if bestName == "" {
		return "", nil
	}
	return stores.Normalize(best.StoreName), decode.ParsePurchaseDate(best.PurchaseDate)
}

func buildEvent(req entity.AnalysisRequest, merged *entity.ShoppingList, bundles map[string]entity.StoreBundle, newItems int) entity.NotificationEvent {
	title := fmt.Sprintf("%d stores", len(bundles))
	if len(bundles) == 1 {
		for _, b := range bundles {
			title = stores.Normalize(b.StoreName)
		}
	}
	return entity.NotificationEvent{
		UserEmail: req.UserEmail,
		Title:     title,
		Body:      fmt.Sprintf("Added %d new item(s) across %d store(s) to your shopping list", newItems, len(bundles)),
		Data: entity.NotificationData{
			Type:   constants.EventShoppingListUpdate,
			ListID: merged.ID,
		},
	}
}
