package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMw, s.maxBytesMw)
	r.NotFoundHandler = s.loggingMw(s.notFoundHandler())

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.health()).Methods(http.MethodGet)

	api.HandleFunc("/auth/register", s.authRegister()).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.authLogin()).Methods(http.MethodPost)
	api.Handle("/auth/me", s.authMw(s.authMe())).Methods(http.MethodGet)

	api.Handle("/alerts/me", s.authMw(s.alertsListMine())).Methods(http.MethodGet)
	api.HandleFunc("/alerts/by-push", s.alertsListByPush()).Methods(http.MethodPost)
	api.Handle("/alerts", s.optionalAuthMw(s.alertCreate())).Methods(http.MethodPost)
	api.Handle("/alerts/{alertID}", s.optionalAuthMw(s.alertDelete())).Methods(http.MethodDelete)
	api.Handle("/alerts/{alertID}/check", s.optionalAuthMw(s.alertCheckNow())).Methods(http.MethodPost)

	api.HandleFunc("/search", s.search()).Methods(http.MethodGet)

	api.HandleFunc("/prices/{alertID}", s.priceHistory()).Methods(http.MethodGet)
	api.HandleFunc("/stores", s.storesList()).Methods(http.MethodGet)

	api.HandleFunc("/push/vapid-key", s.pushVAPIDKey()).Methods(http.MethodGet)
	api.Handle("/push/subscribe", s.optionalAuthMw(s.pushSubscribe())).Methods(http.MethodPost)
	api.HandleFunc("/push/unsubscribe", s.pushUnsubscribe()).Methods(http.MethodPost)

	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.Use(s.authMw, s.adminMw)
	adminAPI.HandleFunc("/stats", s.adminStats()).Methods(http.MethodGet)
	adminAPI.HandleFunc("/users", s.adminUsers()).Methods(http.MethodGet)
	adminAPI.HandleFunc("/alerts", s.adminAlerts()).Methods(http.MethodGet)
	adminAPI.HandleFunc("/activity", s.adminActivity()).Methods(http.MethodGet)
	adminAPI.HandleFunc("/bot-activity", s.adminActivity()).Methods(http.MethodGet)

	return r
}
