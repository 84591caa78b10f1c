package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/ruhidibadli/ucuzbot/internal/client"
	"github.com/ruhidibadli/ucuzbot/internal/model"
)

const maxSearchQueryLen = 500

func (s Server) alertsListMine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("alertsListMine: Error getting userContext, err: %v", err)
			s.writeError(w, "Not authenticated", http.StatusUnauthorized)
			return
		}

		as, err := s.DB.AlertsFindByUserID(r.Context(), uc.user.ID)
		if err != nil {
			s.Logger.Errorf("alertsListMine: Error finding Alerts, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if as == nil {
			as = []model.Alert{}
		}
		s.writeJsonResponse(w, as, http.StatusOK)
	}
}

func (s Server) alertsListByPush() http.HandlerFunc {
	type request struct {
		Endpoint string `json:"endpoint"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("alertsListByPush: Error decoding JSON, err: %v", err)
			s.writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Endpoint == "" {
			s.writeError(w, "endpoint is required", http.StatusBadRequest)
			return
		}

		as, err := s.DB.AlertsFindByPushEndpoint(r.Context(), req.Endpoint)
		if err != nil {
			s.Logger.Errorf("alertsListByPush: Error finding Alerts, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if as == nil {
			as = []model.Alert{}
		}
		s.writeJsonResponse(w, as, http.StatusOK)
	}
}

func (s Server) alertCreate() http.HandlerFunc {
	type request struct {
		SearchQuery  string          `json:"search_query"`
		TargetPrice  decimal.Decimal `json:"target_price"`
		StoreSlugs   []string        `json:"store_slugs"`
		PushEndpoint string          `json:"push_endpoint"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("alertCreate: Error decoding JSON, err: %v", err)
			s.writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		query := strings.TrimSpace(req.SearchQuery)
		if query == "" || len(query) > maxSearchQueryLen {
			s.writeError(w, "search_query is required", http.StatusBadRequest)
			return
		}
		if !req.TargetPrice.IsPositive() {
			s.writeError(w, "target_price must be greater than 0", http.StatusBadRequest)
			return
		}
		if len(req.StoreSlugs) == 0 {
			s.writeError(w, "store_slugs must not be empty", http.StatusBadRequest)
			return
		}
		for _, slug := range req.StoreSlugs {
			if !client.ValidStoreSlug(slug) {
				s.writeError(w, fmt.Sprintf("Invalid store slug: %s", slug), http.StatusBadRequest)
				return
			}
		}

		a := model.Alert{
			SearchQuery: query,
			TargetPrice: req.TargetPrice.Round(2),
			StoreSlugs:  req.StoreSlugs,
		}

		user := optionalUser(r.Context())
		switch {
		case user != nil && req.PushEndpoint == "":
			n, err := s.DB.AlertCountActiveForUser(r.Context(), user.ID)
			if err != nil {
				s.Logger.Errorf("alertCreate: Error counting Alerts, err: %v", err)
				s.writeError(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if n >= int64(user.MaxAlerts()) {
				s.writeError(w, fmt.Sprintf("Alert limit reached (%d)", user.MaxAlerts()), http.StatusBadRequest)
				return
			}
			a.UserID = &user.ID
		case req.PushEndpoint != "":
			sub, err := s.DB.PushSubscriptionFindByEndpoint(r.Context(), req.PushEndpoint)
			if err != nil || !sub.IsActive {
				s.Logger.Debugf("alertCreate: Push subscription not found or inactive, endpoint: %s, err: %v",
					req.PushEndpoint, err)
				s.writeError(w, "Push subscription not found. Subscribe to push notifications first.", http.StatusBadRequest)
				return
			}
			if sub.UserID != nil {
				u, err := s.DB.UserFindByID(r.Context(), sub.UserID.Hex())
				if err != nil {
					s.Logger.Errorf("alertCreate: Error finding User of push subscription, err: %v", err)
					s.writeError(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				n, err := s.DB.AlertCountActiveForUser(r.Context(), u.ID)
				if err != nil {
					s.Logger.Errorf("alertCreate: Error counting Alerts, err: %v", err)
					s.writeError(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				if n >= int64(u.MaxAlerts()) {
					s.writeError(w, fmt.Sprintf("Alert limit reached (%d)", u.MaxAlerts()), http.StatusBadRequest)
					return
				}
			} else {
				n, err := s.DB.AlertCountActiveForPushEndpoint(r.Context(), req.PushEndpoint)
				if err != nil {
					s.Logger.Errorf("alertCreate: Error counting Alerts, err: %v", err)
					s.writeError(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				if n >= model.FreeTierMaxAlerts {
					s.writeError(w, fmt.Sprintf("Alert limit reached (%d)", model.FreeTierMaxAlerts), http.StatusBadRequest)
					return
				}
			}
			a.UserID = sub.UserID
			a.PushEndpoint = req.PushEndpoint
		default:
			s.writeError(w, "Either an account or push_endpoint is required", http.StatusBadRequest)
			return
		}

		id, err := s.DB.AlertInsert(r.Context(), a)
		if err != nil {
			s.Logger.Errorf("alertCreate: Error inserting Alert, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		a, err = s.DB.AlertFindByID(r.Context(), id)
		if err != nil {
			s.Logger.Errorf("alertCreate: Error finding inserted Alert, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if err = s.DB.ActivityInsert(r.Context(), model.Activity{
			UserID: a.UserID,
			Action: model.ActivityAlertCreate,
			Detail: a.SearchQuery,
		}); err != nil {
			s.Logger.Errorf("alertCreate: Error inserting Activity, err: %v", err)
		}

		// Give the new alert its first evaluation right away instead of
		// waiting for the sweep.
		go s.EvaluateAlert(context.Background(), a)

		s.writeJsonResponse(w, a, http.StatusCreated)
	}
}

func (s Server) alertDelete() http.HandlerFunc {
	type response struct {
		Status string `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.DB.AlertFindByID(r.Context(), mux.Vars(r)["alertID"])
		if err != nil {
			s.Logger.Debugf("alertDelete: Error finding Alert, err: %v", err)
			s.writeError(w, "Alert not found", http.StatusNotFound)
			return
		}

		if user := optionalUser(r.Context()); user != nil {
			if a.UserID == nil || *a.UserID != user.ID {
				s.writeError(w, "Not your alert", http.StatusForbidden)
				return
			}
		}

		if err = s.DB.AlertDeactivate(r.Context(), a.ID); err != nil {
			s.Logger.Errorf("alertDelete: Error deactivating Alert, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if err = s.DB.ActivityInsert(r.Context(), model.Activity{
			UserID: a.UserID,
			Action: model.ActivityAlertDelete,
			Detail: a.SearchQuery,
		}); err != nil {
			s.Logger.Errorf("alertDelete: Error inserting Activity, err: %v", err)
		}
		s.writeJsonResponse(w, response{Status: "deleted"}, http.StatusOK)
	}
}

func (s Server) alertCheckNow() http.HandlerFunc {
	type response struct {
		Status  string `json:"status"`
		AlertID string `json:"alert_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.DB.AlertFindByID(r.Context(), mux.Vars(r)["alertID"])
		if err != nil {
			s.Logger.Debugf("alertCheckNow: Error finding Alert, err: %v", err)
			s.writeError(w, "Alert not found", http.StatusNotFound)
			return
		}
		if !a.IsActive {
			s.writeError(w, "Alert is not active", http.StatusBadRequest)
			return
		}
		if user := optionalUser(r.Context()); user != nil {
			if a.UserID == nil || *a.UserID != user.ID {
				s.writeError(w, "Not your alert", http.StatusForbidden)
				return
			}
		}

		// Fire and forget: the dashboard polls the alert for the outcome.
		go s.EvaluateAlert(context.Background(), a)

		s.writeJsonResponse(w, response{Status: "checking", AlertID: a.ID.Hex()}, http.StatusOK)
	}
}
