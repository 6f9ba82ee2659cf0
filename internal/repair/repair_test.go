package repair

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONPassThroughValidInput(t *testing.T) {
	valid := []string{
		`{}`,
		`{"items": ["Milk", "Eggs"]}`,
		`{"Kroger": {"items": ["Milk"], "prices": [4.49]}}`,
		`{"stores": {"Walmart": {"items": [], "prices": [], "purchase_date": "2025-03-26", "transaction_id": null}}}`,
		`{"nested": {"a": {"b": [1, 2.5, true, null]}}}`,
		// A value ending in a comma must not trip the unterminated-string fix.
		`{"a": "x,","b":1}`,
		// Legitimate escaped quotes inside a valid value stay escaped.
		`{"store": "Trader Joe\"s", "items": ["Milk"]}`,
	}
	for _, in := range valid {
		assert.Equal(t, in, JSON(in), "valid JSON must pass through unchanged")
	}
}

func TestJSONIdempotent(t *testing.T) {
	inputs := []string{
		"```json\n{\"a\": [\"x\"]}\n```",
		`Sure! Here is the list: {"a": "b"} Hope that helps.`,
		`{"Sam\"s Club": ["Paper Towels"]}`,
		`{"a": "unfinished, "b": "ok"}`,
		`{'items': ['Milk', 'Eggs']}`,
		`no braces at all`,
	}
	for _, in := range inputs {
		once := JSON(in)
		assert.Equal(t, once, JSON(once), "repair must be a no-op on its own output")
	}
}

func TestJSONReturnsEmptyObjectWithoutBraces(t *testing.T) {
	for _, in := range []string{"", "nothing here", "]][[", "only { open", "only } close reversed {"} {
		// "only { open" has no closing brace; the last case closes before it opens.
		assert.Equal(t, "{}", JSON(in))
	}
}

func TestJSONStripsMarkdownFences(t *testing.T) {
	in := "```json\n{\"items\": [\"Milk\"]}\n```"
	assert.Equal(t, `{"items": ["Milk"]}`, JSON(in))

	in = "```\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, JSON(in))
}

func TestJSONSlicesSurroundingCommentary(t *testing.T) {
	in := `Here is the extracted data you asked for: {"Kroger": {"items": ["Milk"]}} Let me know if you need anything else!`
	assert.Equal(t, `{"Kroger": {"items": ["Milk"]}}`, JSON(in))
}

func TestJSONEscapedQuotesBecomeApostrophes(t *testing.T) {
	// Escaped quotes only get rewritten when the text is broken to begin
	// with, here by single-quoted delimiters.
	in := `{'store': 'Trader Joe\"s', 'items': ['Lowe\"s brand caulk']}`
	out := JSON(in)
	assert.Equal(t, `{"store": "Trader Joe's", "items": ["Lowe's brand caulk"]}`, out)
	assert.True(t, json.Valid([]byte(out)))
}

func TestJSONReassemblesPossessiveKeys(t *testing.T) {
	in := `{"Sam"s Club": ["Paper Towels"]}`
	out := JSON(in)
	assert.Equal(t, `{"Sam's Club": ["Paper Towels"]}`, out)
	assert.True(t, json.Valid([]byte(out)))
}

func TestJSONClosesUnterminatedStrings(t *testing.T) {
	in := `{"first": "got cut off, "second": "fine"}`
	out := JSON(in)
	assert.Equal(t, `{"first": "got cut off", "second": "fine"}`, out)
	assert.True(t, json.Valid([]byte(out)))
}

func TestJSONConvertsSingleQuotedJSON(t *testing.T) {
	in := `{'items': ['Milk', 'Eggs'], 'purchase_date': '2025-03-26'}`
	out := JSON(in)
	require.True(t, json.Valid([]byte(out)), "converted output must be valid JSON: %s", out)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, []any{"Milk", "Eggs"}, m["items"])
	assert.Equal(t, "2025-03-26", m["purchase_date"])
}

func TestJSONKeepsInteriorApostrophes(t *testing.T) {
	// An apostrophe produced from an escaped quote must survive the final
	// quote pass.
	in := `{'store': 'Sam\"s Club', 'items': ['Milk']}`
	out := JSON(in)
	assert.Contains(t, out, "Sam's Club")
	assert.True(t, json.Valid([]byte(out)))
}
