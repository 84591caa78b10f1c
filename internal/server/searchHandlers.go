package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ruhidibadli/ucuzbot/internal/aggregator"
	"github.com/ruhidibadli/ucuzbot/internal/misc"
	"github.com/ruhidibadli/ucuzbot/internal/model"
)

func (s Server) search() http.HandlerFunc {
	type response struct {
		Query        string          `json:"query"`
		TotalResults int             `json:"total_results"`
		Results      []model.Listing `json:"results"`
		Errors       []string        `json:"errors"`
		SearchedAt   time.Time       `json:"searched_at"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if len(q) < 2 || len(q) > 200 {
			s.writeError(w, "Query must be between 2 and 200 characters", http.StatusBadRequest)
			return
		}

		listings, err := s.Engine.Search(r.Context(), q, nil, true)
		if err != nil {
			if errors.Is(err, aggregator.ErrAllSourcesUnavailable) {
				s.Logger.Warnf("search: All stores unavailable for query: %s, err: %v", misc.StringLimit(q, 50), err)
				s.writeError(w, "All stores are currently unavailable", http.StatusServiceUnavailable)
				return
			}
			s.Logger.Errorf("search: Error searching stores for query: %s, err: %v", misc.StringLimit(q, 50), err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if listings == nil {
			listings = []model.Listing{}
		}

		if err = s.DB.ActivityInsert(r.Context(), model.Activity{
			UserID: userIDOf(optionalUser(r.Context())),
			Action: model.ActivitySearch,
			Detail: q,
		}); err != nil {
			s.Logger.Errorf("search: Error inserting Activity, err: %v", err)
		}

		s.writeJsonResponse(w, response{
			Query:        q,
			TotalResults: len(listings),
			Results:      listings,
			Errors:       []string{},
			SearchedAt:   time.Now().UTC(),
		}, http.StatusOK)
	}
}

func userIDOf(u *model.User) *primitive.ObjectID {
	if u == nil {
		return nil
	}
	return &u.ID
}
