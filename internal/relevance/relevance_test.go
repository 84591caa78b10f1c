package relevance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		product string
		min     float64
		max     float64
	}{
		{
			name:    "exact product match",
			query:   "iPhone 15 Pro",
			product: "Apple iPhone 15 Pro 256GB",
			min:     1.0, max: 1.0,
		},
		{
			name:    "case accessory penalized",
			query:   "iPhone 15 Pro",
			product: "iPhone 15 Pro üçün silikon çexol",
			min:     0.0, max: 0.05,
		},
		{
			name:    "accessory query not penalized",
			query:   "iPhone 15 üçün çexol",
			product: "iPhone 15 üçün çexol qara",
			min:     0.9, max: 1.0,
		},
		{
			name:    "unrelated product",
			query:   "iPhone 15 Pro",
			product: "Samsung Galaxy S24 Ultra",
			min:     0.0, max: 0.05,
		},
		{
			name:    "partial match",
			query:   "iPhone 15 Pro Max",
			product: "Apple iPhone 15 satilir",
			min:     0.4, max: 0.6,
		},
		{
			name:    "empty query",
			query:   "",
			product: "anything",
			min:     0.0, max: 0.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.query, tt.product)
			assert.GreaterOrEqual(t, score, tt.min)
			assert.LessOrEqual(t, score, tt.max)
		})
	}
}

func TestFilter(t *testing.T) {
	listings := []model.Listing{
		{ProductName: "Apple iPhone 15 Pro 256GB", Price: decimal.NewFromInt(2899)},
		{ProductName: "iPhone 15 Pro üçün qoruyucu şüşə", Price: decimal.NewFromInt(15)},
		{ProductName: "Apple iPhone 15 Pro Max", Price: decimal.NewFromInt(3299)},
		{ProductName: "Noutbuk çantası", Price: decimal.NewFromInt(45)},
	}

	filtered := Filter(listings, "iPhone 15 Pro", DefaultMinScore)
	assert.Len(t, filtered, 2)
	assert.Equal(t, "Apple iPhone 15 Pro 256GB", filtered[0].ProductName)
	assert.Equal(t, "Apple iPhone 15 Pro Max", filtered[1].ProductName)
}

func TestFilterKeepsOrderAndHandlesEmpty(t *testing.T) {
	assert.Empty(t, Filter(nil, "iPhone", DefaultMinScore))

	listings := []model.Listing{
		{ProductName: "iPhone 15"},
		{ProductName: "iPhone 15 Pro"},
	}
	filtered := Filter(listings, "iPhone 15", DefaultMinScore)
	assert.Equal(t, listings, filtered)
}
