package server

import (
	"encoding/json"
	"net/http"
)

func (s Server) writeJsonResponse(w http.ResponseWriter, response any, statusCode int) {
	if resp, err := json.Marshal(response); err != nil {
		s.Logger.Errorf("Error encoding response: %+v, err: %v", response, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	} else {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(statusCode)
		if _, err = w.Write(resp); err != nil {
			s.Logger.Errorf("Error writing JSON response: %s, err: %v", resp, err)
		}
	}
}

// writeError emits {"detail": "..."}, the error shape the dashboard
// reads from every non-2xx response.
func (s Server) writeError(w http.ResponseWriter, detail string, statusCode int) {
	type errorResponse struct {
		Detail string `json:"detail"`
	}
	s.writeJsonResponse(w, errorResponse{Detail: detail}, statusCode)
}

func (s Server) notFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		s.Logger.Debugf("notFoundHandler: Requested resource not found: %s %s, TraceID: %s",
			r.Method, r.URL.Path, tc.traceID)
		s.writeError(w, "Not Found", http.StatusNotFound)
	}
}

func (s Server) health() http.HandlerFunc {
	type response struct {
		Status string `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJsonResponse(w, response{Status: "ok"}, http.StatusOK)
	}
}
