package model

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PriceRecord is one store's observed price for an alert's query during
// one evaluation. Records accumulate into the per-alert price history
// and are pruned after the retention window.
type PriceRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	AlertID     primitive.ObjectID `bson:"alert_id"`
	StoreSlug   string             `bson:"store_slug"`
	ProductName string             `bson:"product_name"`
	Price       decimal.Decimal    `bson:"price"`
	ProductURL  string             `bson:"product_url"`
	ScrapedAt   time.Time          `bson:"scraped_at"`
}

// PriceRecordsFromListings snapshots one evaluation's listings for the
// alert's history, all stamped with the same evaluation time.
func PriceRecordsFromListings(alertID primitive.ObjectID, listings []Listing, now time.Time) []PriceRecord {
	recs := make([]PriceRecord, 0, len(listings))
	for _, l := range listings {
		recs = append(recs, PriceRecord{
			AlertID:     alertID,
			StoreSlug:   l.StoreSlug,
			ProductName: l.ProductName,
			Price:       l.Price,
			ProductURL:  l.ProductURL,
			ScrapedAt:   now,
		})
	}
	return recs
}
