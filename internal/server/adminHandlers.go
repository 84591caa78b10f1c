package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ruhidibadli/ucuzbot/internal/database"
	"github.com/ruhidibadli/ucuzbot/internal/model"
)

func parsePagination(r *http.Request) (page int, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func (s Server) adminStats() http.HandlerFunc {
	type response struct {
		TotalUsers         int64            `json:"total_users"`
		TotalAlerts        int64            `json:"total_alerts"`
		ActiveAlerts       int64            `json:"active_alerts"`
		TriggeredAlerts    int64            `json:"triggered_alerts"`
		InactiveAlerts     int64            `json:"inactive_alerts"`
		AlertsByStore      map[string]int64 `json:"alerts_by_store"`
		RecentTriggered24h int64            `json:"recent_triggered_count_24h"`
		RecentTriggered7d  int64            `json:"recent_triggered_count_7d"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.DB.AlertStats(r.Context())
		if err != nil {
			s.Logger.Errorf("adminStats: Error getting Alert stats, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		userCount, err := s.DB.UserCount(r.Context())
		if err != nil {
			s.Logger.Errorf("adminStats: Error counting Users, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		s.writeJsonResponse(w, response{
			TotalUsers:         userCount,
			TotalAlerts:        stats.TotalAlerts,
			ActiveAlerts:       stats.ActiveAlerts,
			TriggeredAlerts:    stats.TriggeredAlerts,
			InactiveAlerts:     stats.InactiveAlerts,
			AlertsByStore:      stats.AlertsByStore,
			RecentTriggered24h: stats.RecentTriggered24h,
			RecentTriggered7d:  stats.RecentTriggered7d,
		}, http.StatusOK)
	}
}

func (s Server) adminUsers() http.HandlerFunc {
	type userItem struct {
		ID                  string    `json:"id"`
		Email               string    `json:"email"`
		TelegramID          *int64    `json:"telegram_id"`
		FirstName           string    `json:"first_name"`
		SubscriptionTier    string    `json:"subscription_tier"`
		AlertCount          int64     `json:"alert_count"`
		ActiveAlertCount    int64     `json:"active_alert_count"`
		TriggeredAlertCount int64     `json:"triggered_alert_count"`
		IsActive            bool      `json:"is_active"`
		CreatedAt           time.Time `json:"created_at"`
	}
	type response struct {
		Users    []userItem `json:"users"`
		Total    int64      `json:"total"`
		Page     int        `json:"page"`
		PageSize int        `json:"page_size"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		page, pageSize := parsePagination(r)
		search := strings.TrimSpace(r.URL.Query().Get("search"))

		us, total, err := s.DB.UsersFindAdmin(r.Context(), search, page, pageSize)
		if err != nil {
			s.Logger.Errorf("adminUsers: Error finding Users, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		userIDs := make([]primitive.ObjectID, 0, len(us))
		for _, u := range us {
			userIDs = append(userIDs, u.ID)
		}
		counts, err := s.DB.AlertCountsForUsers(r.Context(), userIDs)
		if err != nil {
			s.Logger.Errorf("adminUsers: Error counting Alerts per User, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		items := make([]userItem, 0, len(us))
		for _, u := range us {
			c := counts[u.ID]
			items = append(items, userItem{
				ID:                  u.ID.Hex(),
				Email:               u.Email,
				TelegramID:          u.TelegramID,
				FirstName:           u.FirstName,
				SubscriptionTier:    u.SubscriptionTier,
				AlertCount:          c.Total,
				ActiveAlertCount:    c.Active,
				TriggeredAlertCount: c.Triggered,
				IsActive:            u.IsActive,
				CreatedAt:           u.CreatedAt,
			})
		}
		s.writeJsonResponse(w, response{Users: items, Total: total, Page: page, PageSize: pageSize}, http.StatusOK)
	}
}

func (s Server) adminAlerts() http.HandlerFunc {
	type alertItem struct {
		ID               string           `json:"id"`
		UserID           *string          `json:"user_id"`
		UserEmail        *string          `json:"user_email"`
		UserFirstName    *string          `json:"user_first_name"`
		SearchQuery      string           `json:"search_query"`
		TargetPrice      decimal.Decimal  `json:"target_price"`
		StoreSlugs       []string         `json:"store_slugs"`
		IsActive         bool             `json:"is_active"`
		IsTriggered      bool             `json:"is_triggered"`
		TriggeredAt      *time.Time       `json:"triggered_at"`
		LastCheckedAt    *time.Time       `json:"last_checked_at"`
		LowestPriceFound *decimal.Decimal `json:"lowest_price_found"`
		LowestPriceStore *string          `json:"lowest_price_store"`
		LowestPriceURL   *string          `json:"lowest_price_url"`
		CreatedAt        time.Time        `json:"created_at"`
	}
	type response struct {
		Alerts   []alertItem `json:"alerts"`
		Total    int64       `json:"total"`
		Page     int         `json:"page"`
		PageSize int         `json:"page_size"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		page, pageSize := parsePagination(r)
		q := database.AlertAdminQuery{
			StatusFilter: r.URL.Query().Get("status_filter"),
			StoreSlug:    strings.TrimSpace(r.URL.Query().Get("store_slug")),
			Page:         page,
			PageSize:     pageSize,
		}

		as, total, err := s.DB.AlertsFindAdmin(r.Context(), q)
		if err != nil {
			s.Logger.Errorf("adminAlerts: Error finding Alerts, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		users, err := s.usersByIDs(r, ownerIDsOfAlerts(as))
		if err != nil {
			s.Logger.Errorf("adminAlerts: Error finding Alert owners, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		items := make([]alertItem, 0, len(as))
		for _, a := range as {
			item := alertItem{
				ID:               a.ID.Hex(),
				SearchQuery:      a.SearchQuery,
				TargetPrice:      a.TargetPrice,
				StoreSlugs:       a.StoreSlugs,
				IsActive:         a.IsActive,
				IsTriggered:      a.IsTriggered,
				TriggeredAt:      a.TriggeredAt,
				LastCheckedAt:    a.LastCheckedAt,
				LowestPriceFound: a.LowestPriceFound,
				LowestPriceStore: a.LowestPriceStore,
				LowestPriceURL:   a.LowestPriceURL,
				CreatedAt:        a.CreatedAt,
			}
			if a.UserID != nil {
				id := a.UserID.Hex()
				item.UserID = &id
				if u, ok := users[*a.UserID]; ok {
					email, firstName := u.Email, u.FirstName
					item.UserEmail = &email
					item.UserFirstName = &firstName
				}
			}
			items = append(items, item)
		}
		s.writeJsonResponse(w, response{Alerts: items, Total: total, Page: page, PageSize: pageSize}, http.StatusOK)
	}
}

func (s Server) adminActivity() http.HandlerFunc {
	type activityItem struct {
		ID            string    `json:"id"`
		UserID        *string   `json:"user_id"`
		TelegramID    *int64    `json:"telegram_id"`
		UserEmail     *string   `json:"user_email"`
		UserFirstName *string   `json:"user_first_name"`
		Action        string    `json:"action"`
		Detail        string    `json:"detail"`
		CreatedAt     time.Time `json:"created_at"`
	}
	type response struct {
		Activities []activityItem `json:"activities"`
		Total      int64          `json:"total"`
		Page       int            `json:"page"`
		PageSize   int            `json:"page_size"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		page, pageSize := parsePagination(r)
		actionFilter := r.URL.Query().Get("action_filter")

		acts, total, err := s.DB.ActivitiesFindAdmin(r.Context(), actionFilter, page, pageSize)
		if err != nil {
			s.Logger.Errorf("adminActivity: Error finding Activities, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		var ownerIDs []primitive.ObjectID
		for _, a := range acts {
			if a.UserID != nil {
				ownerIDs = append(ownerIDs, *a.UserID)
			}
		}
		users, err := s.usersByIDs(r, ownerIDs)
		if err != nil {
			s.Logger.Errorf("adminActivity: Error finding Activity owners, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		items := make([]activityItem, 0, len(acts))
		for _, a := range acts {
			item := activityItem{
				ID:         a.ID.Hex(),
				TelegramID: a.TelegramID,
				Action:     a.Action,
				Detail:     a.Detail,
				CreatedAt:  a.CreatedAt,
			}
			if a.UserID != nil {
				id := a.UserID.Hex()
				item.UserID = &id
				if u, ok := users[*a.UserID]; ok {
					email, firstName := u.Email, u.FirstName
					item.UserEmail = &email
					item.UserFirstName = &firstName
				}
			}
			items = append(items, item)
		}
		s.writeJsonResponse(w, response{Activities: items, Total: total, Page: page, PageSize: pageSize}, http.StatusOK)
	}
}

func (s Server) usersByIDs(r *http.Request, ids []primitive.ObjectID) (map[primitive.ObjectID]model.User, error) {
	us, err := s.DB.UsersFindByIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}
	m := make(map[primitive.ObjectID]model.User, len(us))
	for _, u := range us {
		m[u.ID] = u
	}
	return m, nil
}

func ownerIDsOfAlerts(as []model.Alert) []primitive.ObjectID {
	var ids []primitive.ObjectID
	for _, a := range as {
		if a.UserID != nil {
			ids = append(ids, *a.UserID)
		}
	}
	return ids
}
