package llm

import (
	"fmt"
	"strings"

	"github.com/famcart/receipt-analyzer/constants"
)

// BuildSystemPrompt composes the system message: output shape, store-name
// canonicalization rules, item-name expansion rules, and the JSON-only
// directive.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a receipts parser. Return ONLY a JSON object, no prose and no markdown fences.",
		"Group purchases by store. The output object maps each store name to an object with these members:",
		`'items' (array of item name strings), 'prices' (array of numbers or null, parallel to items),`,
		`'purchase_date' (YYYY-MM-DD string or null), 'transaction_id' (string or null).`,

		// store-name canonicalization:
		"Use the store's common brand name without location qualifiers, store numbers, or addresses (e.g. 'Walmart', not 'WAL-MART #2054 SUPERCENTER').",

		// item-name expansion:
		"Expand abbreviated item names on the receipt into plain product names (e.g. 'GV WHL MLK 1GAL' becomes 'Whole Milk').",
		"Keep one entry per distinct product; do not repeat an item because it appears on multiple lines.",

		// formatting hygiene:
		"Use double quotes for all strings. Never wrap the JSON in ``` fences. If a field is unknown, use null rather than inventing a value.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the concatenated receipt text, truncated so one
// oversized batch can't blow the request.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if req.ReceiptCount > 0 {
		b.WriteString(fmt.Sprintf("The following text was OCR'd from %d receipt(s):\n\n", req.ReceiptCount))
	} else {
		b.WriteString("The following text was OCR'd from store receipts:\n\n")
	}

	text := strings.TrimSpace(req.ReceiptText)
	if len(text) > constants.MaxPromptChars {
		b.WriteString(text[:constants.MaxPromptChars])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}
