package model

import "github.com/shopspring/decimal"

// Listing is a single scraped search result. Listings are ephemeral:
// they only exist for the duration of a search, except for the lowest
// price snapshot kept on an Alert.
type Listing struct {
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	ProductURL  string          `json:"product_url"`
	StoreSlug   string          `json:"store_slug"`
	StoreName   string          `json:"store_name"`
	ImageURL    string          `json:"image_url"`
	InStock     bool            `json:"in_stock"`
}
