package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ruhidibadli/ucuzbot/internal/client"
)

// The dashboard's price chart reads at most this many history rows.
const priceHistoryLimit = 100

func (s Server) priceHistory() http.HandlerFunc {
	type recordItem struct {
		ID          string          `json:"id"`
		StoreSlug   string          `json:"store_slug"`
		ProductName string          `json:"product_name"`
		Price       decimal.Decimal `json:"price"`
		ProductURL  string          `json:"product_url"`
		ScrapedAt   time.Time       `json:"scraped_at"`
	}
	type response struct {
		AlertID string       `json:"alert_id"`
		Records []recordItem `json:"records"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		alertID := mux.Vars(r)["alertID"]
		objID, err := primitive.ObjectIDFromHex(alertID)
		if err != nil {
			s.Logger.Debugf("priceHistory: Invalid Alert ID: %s, err: %v", alertID, err)
			s.writeError(w, "Alert not found", http.StatusNotFound)
			return
		}

		recs, err := s.DB.PriceRecordsFindByAlertID(r.Context(), objID, priceHistoryLimit)
		if err != nil {
			s.Logger.Errorf("priceHistory: Error finding PriceRecords, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		items := make([]recordItem, 0, len(recs))
		for _, rec := range recs {
			items = append(items, recordItem{
				ID:          rec.ID.Hex(),
				StoreSlug:   rec.StoreSlug,
				ProductName: rec.ProductName,
				Price:       rec.Price,
				ProductURL:  rec.ProductURL,
				ScrapedAt:   rec.ScrapedAt,
			})
		}
		s.writeJsonResponse(w, response{AlertID: alertID, Records: items}, http.StatusOK)
	}
}

func (s Server) storesList() http.HandlerFunc {
	type storeItem struct {
		Slug    string `json:"slug"`
		Name    string `json:"name"`
		BaseURL string `json:"base_url"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		items := make([]storeItem, 0, len(client.StoreTable))
		for _, si := range client.StoreTable {
			items = append(items, storeItem{Slug: si.Slug, Name: si.Name, BaseURL: si.BaseURL})
		}
		s.writeJsonResponse(w, items, http.StatusOK)
	}
}
