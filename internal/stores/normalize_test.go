package stores

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/famcart/receipt-analyzer/constants"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", constants.UnknownStore},
		{"   ", constants.UnknownStore},
		{"!!!***", constants.UnknownStore},
		{"  Sam's   Club!! ", "Sams Club"},
		{"WALMART", "Walmart"},
		{"trader joe's #152", "Trader Joes 152"},
		{"H-E-B", "Heb"},
		{"costco   wholesale", "Costco Wholesale"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "Normalize(%q)", tc.in)
	}
}

func TestSimilarExactAndContainment(t *testing.T) {
	assert.True(t, Similar("Walmart", "Walmart"))
	assert.True(t, Similar("walmart", "  WALMART "))
	assert.True(t, Similar("Walmart Supercenter", "Walmart"))
	assert.True(t, Similar("Kroger", "Kroger Fuel Center"))
}

func TestSimilarEditDistance(t *testing.T) {
	// one substitution over eight characters: similarity 0.875
	assert.True(t, Similar("Walgreens", "Walgreen"))
	assert.True(t, Similar("Safeway", "Safewey"))

	assert.False(t, Similar("Kroger", "Walmart"))
	assert.False(t, Similar("Aldi", "Lidl"))
}

func TestSimilarEmptyNames(t *testing.T) {
	assert.True(t, Similar("", ""))
	assert.False(t, Similar("", "Walmart"))
	assert.False(t, Similar("Walmart", "   "))
}
