// Package decode turns raw model responses into typed per-store bundles.
// It is tolerant by contract: structural problems degrade to an empty map,
// never an error. Whether an empty map is fatal is the orchestrator's call.
package decode

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/famcart/receipt-analyzer/internal/entity"
	"github.com/famcart/receipt-analyzer/internal/repair"
)

// storeFields mirrors one store entry. encoding/json matches member names
// case-insensitively, which covers the model's casing drift for free.
type storeFields struct {
	Items         []string   `json:"items"`
	Prices        []*float64 `json:"prices"`
	PurchaseDate  string     `json:"purchase_date"`
	TransactionID string     `json:"transaction_id"`
}

// Stores decodes a model response into raw-store-name -> bundle. The input
// may be a bare payload or a chat-completions envelope; the payload may be a
// flat store map or wrapped in a single "stores" member.
func Stores(modelResponse string, logger *slog.Logger) map[string]entity.StoreBundle {
	if logger == nil {
		logger = slog.Default()
	}

	payload := unwrapEnvelope(modelResponse)
	text := repair.JSON(payload)

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &top); err != nil {
		logger.Warn("decode.stores.unmarshal_failed", "error", err, "bytes", len(text))
		return map[string]entity.StoreBundle{}
	}
	top = unwrapStores(top)

	out := make(map[string]entity.StoreBundle, len(top))
	for name, raw := range top {
		var f storeFields
		if err := json.Unmarshal(raw, &f); err != nil {
			lenient, ok := tolerantFields(raw)
			if !ok {
				logger.Warn("decode.stores.entry_skipped", "store", name, "error", err)
				continue
			}
			logger.Warn("decode.stores.lenient_entry", "store", name)
			f = lenient
		}
		out[name] = entity.StoreBundle{
			StoreName:     name,
			Items:         f.Items,
			Prices:        f.Prices,
			PurchaseDate:  f.PurchaseDate,
			TransactionID: f.TransactionID,
		}
	}
	return out
}

// unwrapEnvelope extracts choices[0].message.content when the input is a
// model-API envelope; otherwise the input is already the payload.
func unwrapEnvelope(s string) string {
	var env struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(s), &env); err == nil && len(env.Choices) > 0 {
		if content := strings.TrimSpace(env.Choices[0].Message.Content); content != "" {
			return content
		}
	}
	return s
}

// unwrapStores peels a single nesting "stores" wrapper when present.
func unwrapStores(top map[string]json.RawMessage) map[string]json.RawMessage {
	if len(top) != 1 {
		return top
	}
	for key, raw := range top {
		if !strings.EqualFold(key, "stores") {
			return top
		}
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(raw, &inner); err != nil {
			return top
		}
		return inner
	}
	return top
}

// tolerantFields is the last-resort parse for one store entry: unknown
// members are ignored and per-member type errors are suppressed rather than
// aborting the whole object.
func tolerantFields(raw json.RawMessage) (storeFields, bool) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return storeFields{}, false
	}

	var f storeFields
	for key, val := range m {
		switch strings.ToLower(key) {
		case "items":
			if list, ok := val.([]any); ok {
				for _, it := range list {
					if s, ok := it.(string); ok {
						f.Items = append(f.Items, s)
					}
				}
			}
		case "prices":
			if list, ok := val.([]any); ok {
				for _, p := range list {
					f.Prices = append(f.Prices, coercePrice(p))
				}
			}
		case "purchase_date":
			if s, ok := val.(string); ok {
				f.PurchaseDate = s
			}
		case "transaction_id":
			if s, ok := val.(string); ok {
				f.TransactionID = s
			}
		}
	}
	return f, true
}

func coercePrice(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return &parsed
		}
	}
	return nil
}
