package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingFields(t *testing.T) {
	tests := []struct {
		name     string
		request  Request
		expected []string
	}{
		{
			name:     "empty request",
			request:  Request{},
			expected: []string{"product_type", "quantity", "budget"},
		},
		{
			name:     "complete request",
			request:  Request{ProductType: "laptop", Quantity: 2, Budget: "under $2,000"},
			expected: nil,
		},
		{
			name:     "whitespace does not count",
			request:  Request{ProductType: "  ", Quantity: 1, Budget: "$500"},
			expected: []string{"product_type"},
		},
		{
			name:     "zero quantity is missing",
			request:  Request{ProductType: "monitor", Quantity: 0, Budget: "$500"},
			expected: []string{"quantity"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.request.MissingFields())
		})
	}
}

func TestMerge(t *testing.T) {
	base := Request{
		RawText:             "need monitors",
		ProductType:         "monitor",
		Quantity:            2,
		SpecialRequirements: []string{"27 inch"},
	}

	base.Merge(&Request{
		Budget:              "under $800",
		Urgency:             "urgent",
		Location:            "Melbourne",
		SpecialRequirements: []string{"4K"},
		PreferredSuppliers:  []string{"TechBay"},
	})

	assert.Equal(t, "monitor", base.ProductType)
	assert.Equal(t, 2, base.Quantity)
	assert.Equal(t, "under $800", base.Budget)
	assert.Equal(t, "urgent", base.Urgency)
	assert.Equal(t, "Melbourne", base.Location)
	assert.Equal(t, []string{"27 inch", "4K"}, base.SpecialRequirements)
	assert.Equal(t, []string{"TechBay"}, base.PreferredSuppliers)
}

func TestMerge_KeepsExistingOverEmpty(t *testing.T) {
	base := Request{ProductType: "monitor", Quantity: 2, Budget: "$800"}

	base.Merge(&Request{ProductType: " ", Quantity: 0, Budget: ""})

	assert.Equal(t, "monitor", base.ProductType)
	assert.Equal(t, 2, base.Quantity)
	assert.Equal(t, "$800", base.Budget)
}

func TestMerge_OverwritesWithNewerValues(t *testing.T) {
	base := Request{ProductType: "monitor", Quantity: 2}

	base.Merge(&Request{Quantity: 5})

	assert.Equal(t, 5, base.Quantity)
}

func TestMerge_NilIsNoop(t *testing.T) {
	base := Request{ProductType: "monitor"}
	base.Merge(nil)
	assert.Equal(t, "monitor", base.ProductType)
}

func TestIsUrgent(t *testing.T) {
	tests := []struct {
		urgency  string
		expected bool
	}{
		{"urgent", true},
		{"URGENT", true},
		{" asap ", true},
		{"high", true},
		{"immediate", true},
		{"normal", false},
		{"low", false},
		{"", false},
	}

	for _, tt := range tests {
		r := Request{Urgency: tt.urgency}
		assert.Equal(t, tt.expected, r.IsUrgent(), "urgency %q", tt.urgency)
	}
}
