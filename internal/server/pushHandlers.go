package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ruhidibadli/ucuzbot/internal/database"
	"github.com/ruhidibadli/ucuzbot/internal/model"
)

func (s Server) pushVAPIDKey() http.HandlerFunc {
	type response struct {
		PublicKey string `json:"public_key"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Client.VAPIDPublicKey == "" {
			s.writeError(w, "Push notifications not configured", http.StatusServiceUnavailable)
			return
		}
		s.writeJsonResponse(w, response{PublicKey: s.Client.VAPIDPublicKey}, http.StatusOK)
	}
}

func (s Server) pushSubscribe() http.HandlerFunc {
	type request struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256DH string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
		UserID string `json:"user_id"`
	}
	type response struct {
		ID        string    `json:"id"`
		Endpoint  string    `json:"endpoint"`
		IsActive  bool      `json:"is_active"`
		CreatedAt time.Time `json:"created_at"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("pushSubscribe: Error decoding JSON, err: %v", err)
			s.writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Endpoint == "" || req.Keys.P256DH == "" || req.Keys.Auth == "" {
			s.writeError(w, "endpoint and keys are required", http.StatusBadRequest)
			return
		}

		sub := model.PushSubscription{
			Endpoint: req.Endpoint,
			P256DH:   req.Keys.P256DH,
			Auth:     req.Keys.Auth,
		}
		if user := optionalUser(r.Context()); user != nil {
			sub.UserID = &user.ID
		} else if req.UserID != "" {
			objID, err := primitive.ObjectIDFromHex(req.UserID)
			if err != nil {
				s.writeError(w, "Invalid user_id", http.StatusBadRequest)
				return
			}
			sub.UserID = &objID
		}

		if err := s.DB.PushSubscriptionUpsert(r.Context(), sub); err != nil {
			s.Logger.Errorf("pushSubscribe: Error upserting PushSubscription, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		sub, err := s.DB.PushSubscriptionFindByEndpoint(r.Context(), req.Endpoint)
		if err != nil {
			s.Logger.Errorf("pushSubscribe: Error finding upserted PushSubscription, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		s.writeJsonResponse(w, response{
			ID:        sub.ID.Hex(),
			Endpoint:  sub.Endpoint,
			IsActive:  sub.IsActive,
			CreatedAt: sub.CreatedAt,
		}, http.StatusCreated)
	}
}

func (s Server) pushUnsubscribe() http.HandlerFunc {
	type request struct {
		Endpoint string `json:"endpoint"`
	}
	type response struct {
		Status string `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("pushUnsubscribe: Error decoding JSON, err: %v", err)
			s.writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := s.DB.PushSubscriptionDeactivate(r.Context(), req.Endpoint); err != nil {
			if errors.Is(err, database.ErrNoDocumentsModified) {
				s.writeError(w, "Subscription not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("pushUnsubscribe: Error deactivating PushSubscription, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Status: "unsubscribed"}, http.StatusOK)
	}
}
