package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoresDecodesWrappedShape(t *testing.T) {
	in := `{"stores":{"Kroger":{"items":["Milk"],"prices":[4.49],"purchase_date":"2025-03-26","transaction_id":null}}}`

	bundles := Stores(in, nil)
	require.Len(t, bundles, 1)

	b, ok := bundles["Kroger"]
	require.True(t, ok)
	assert.Equal(t, "Kroger", b.StoreName)
	assert.Equal(t, []string{"Milk"}, b.Items)
	require.Len(t, b.Prices, 1)
	require.NotNil(t, b.Prices[0])
	assert.InDelta(t, 4.49, *b.Prices[0], 0.0001)
	assert.Equal(t, "2025-03-26", b.PurchaseDate)
	assert.Empty(t, b.TransactionID)
}

func TestStoresDecodesFlatShape(t *testing.T) {
	in := `{"Walmart":{"items":["Bread","Butter"],"prices":[2.5,3.0]},"Kroger":{"items":["Milk"],"prices":[4.49]}}`

	bundles := Stores(in, nil)
	require.Len(t, bundles, 2)
	assert.Equal(t, []string{"Bread", "Butter"}, bundles["Walmart"].Items)
	assert.Equal(t, []string{"Milk"}, bundles["Kroger"].Items)
}

func TestStoresUnwrapsChatCompletionEnvelope(t *testing.T) {
	in := `{"choices":[{"message":{"content":"{\"Kroger\":{\"items\":[\"Milk\"],\"prices\":[4.49]}}"}}]}`

	bundles := Stores(in, nil)
	require.Len(t, bundles, 1)
	assert.Equal(t, []string{"Milk"}, bundles["Kroger"].Items)
}

func TestStoresRepairsFencedPayload(t *testing.T) {
	in := "```json\n{\"Kroger\": {\"items\": [\"Milk\"]}}\n```"

	bundles := Stores(in, nil)
	require.Len(t, bundles, 1)
	assert.Equal(t, []string{"Milk"}, bundles["Kroger"].Items)
}

func TestStoresMatchesFieldNamesCaseInsensitively(t *testing.T) {
	in := `{"Kroger":{"Items":["Milk"],"PRICES":[4.49],"Purchase_Date":"2025-03-26","Transaction_ID":"tx-1"}}`

	bundles := Stores(in, nil)
	require.Len(t, bundles, 1)
	b := bundles["Kroger"]
	assert.Equal(t, []string{"Milk"}, b.Items)
	assert.Equal(t, "2025-03-26", b.PurchaseDate)
	assert.Equal(t, "tx-1", b.TransactionID)
}

func TestStoresTolerantEntryFallback(t *testing.T) {
	// items mixes strings and garbage; prices mixes numbers, numeric strings
	// and null. The strict decode fails, the lenient one keeps what it can.
	in := `{"Kroger":{"items":["Milk",7,"Eggs"],"prices":[4.49,"2.99",null],"purchase_date":"2025-03-26","unknown_member":true}}`

	bundles := Stores(in, nil)
	require.Len(t, bundles, 1)
	b := bundles["Kroger"]
	assert.Equal(t, []string{"Milk", "Eggs"}, b.Items)
	require.Len(t, b.Prices, 3)
	assert.InDelta(t, 4.49, *b.Prices[0], 0.0001)
	assert.InDelta(t, 2.99, *b.Prices[1], 0.0001)
	assert.Nil(t, b.Prices[2])
	assert.Equal(t, "2025-03-26", b.PurchaseDate)
}

func TestStoresIgnoresUnknownKeys(t *testing.T) {
	in := `{"Kroger":{"items":["Milk"],"confidence":0.9,"notes":"ignore me"}}`

	bundles := Stores(in, nil)
	require.Len(t, bundles, 1)
	assert.Equal(t, []string{"Milk"}, bundles["Kroger"].Items)
}

func TestStoresEmptyOnGarbage(t *testing.T) {
	for _, in := range []string{"", "not json at all", "[1,2,3]", `{"a": [}`} {
		assert.Empty(t, Stores(in, nil), "input %q must decode to an empty map", in)
	}
}

func TestStoresKeepsNonStoresSingleKey(t *testing.T) {
	// A single top-level key that is not "stores" is a store, not a wrapper.
	in := `{"Costco":{"items":["Rotisserie Chicken"]}}`

	bundles := Stores(in, nil)
	require.Len(t, bundles, 1)
	assert.Contains(t, bundles, "Costco")
}
