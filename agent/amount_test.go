package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"$1,450.00", 1450},
		{"under $2,000", 2000},
		{"about 800 dollars", 800},
		{"AUD 1200", 1200},
		{"$999.99", 999.99},
		{"$1,000 - $2,000", 1000},
		{"between 500 and 800", 500},
	}

	for _, tt := range tests {
		v, err := ParseAmount(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.InDelta(t, tt.expected, v, 0.001, "input %q", tt.input)
	}
}

func TestParseAmount_NoDigits(t *testing.T) {
	_, err := ParseAmount("price not specified")
	assert.Error(t, err)

	_, err = ParseAmount("")
	assert.Error(t, err)
}

func TestParseAmount_RangeTakesLowerBound(t *testing.T) {
	// A range budget parses to its first amount, not a digit concatenation.
	v, err := ParseAmount("$1,000 - $2,000")
	assert.NoError(t, err)
	assert.InDelta(t, 1000, v, 0.001)
}
