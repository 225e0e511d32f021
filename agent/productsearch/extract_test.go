package productsearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/procura-labs/procura/agent/core/search"
)

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"dollar sign", "Great laptop for $1,299.99 today", "$1,299.99"},
		{"aud prefix", "AUD $2,499 with free shipping", "$2,499"},
		{"price label", "Price: 849.50 in stock", "$849.50"},
		{"cost label", "Cost: $120", "$120"},
		{"from prefix", "From $599 at participating stores", "$599"},
		{"starting at", "Starting at 1,050.00", "$1,050.00"},
		{"no price", "Contact us for a quote", PriceNotSpecified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPrice(tt.text))
		})
	}
}

func TestExtractSpecs(t *testing.T) {
	description := "Brand: Dell\nModel: XPS 15\nWarranty: 2 years\nGreat machine."
	specs := extractSpecs(description)

	assert.Equal(t, "Dell", specs["brand"])
	assert.Equal(t, "XPS 15", specs["model"])
	assert.Equal(t, "2 years", specs["warranty"])

	assert.Nil(t, extractSpecs("nothing structured here"))
}

func TestExtractDeliveryTime(t *testing.T) {
	assert.Equal(t, "ships in 3-5 days", extractDeliveryTime("In stock, Ships in 3-5 days"))
	assert.Equal(t, "free shipping", extractDeliveryTime("Free Shipping on all orders"))
	assert.Equal(t, deliveryNotSpecified, extractDeliveryTime("pickup only"))
}

func TestExtractWithRules(t *testing.T) {
	r := search.Result{
		Title:       "Dell XPS 15 Laptop 16GB RAM",
		URL:         "https://shop.example.com/p/dell-xps-15",
		Description: "Brand: Dell\nPrice: $1,899.00 with next day delivery",
		Source:      "shop.example.com",
	}

	c := extractWithRules(r)
	assert.Equal(t, r.Title, c.Name)
	assert.Equal(t, "$1,899.00", c.Price)
	assert.Equal(t, r.URL, c.URL)
	assert.Equal(t, "Dell", c.KeySpecs["brand"])
	assert.Equal(t, "next day delivery", c.DeliveryTime)
}

func TestExtractAll_SkipsEmptyListings(t *testing.T) {
	e := newExtractor(nil, false)
	results := []search.Result{
		{Title: "Dell XPS 15", URL: "https://shop.example.com/p/1"},
		{Title: "", URL: "https://shop.example.com/p/2"},
		{Title: "HP Spectre", URL: ""},
	}

	candidates := e.extractAll(context.Background(), results)
	assert.Len(t, candidates, 1)
	assert.Equal(t, "Dell XPS 15", candidates[0].Name)
}
