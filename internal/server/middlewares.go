package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

type userContextKey struct{}
type userContext struct {
	user model.User
}

type traceContextKey struct{}
type traceContext struct {
	traceID string
}

func setUserContext(ctx context.Context, uc userContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, uc)
}
func getUserContext(ctx context.Context) (userContext, error) {
	uc, ok := ctx.Value(userContextKey{}).(userContext)
	if !ok {
		return uc, errors.New("failed to get UserContext")
	}
	return uc, nil
}

// optionalUser returns the authenticated user or nil when the request
// is anonymous.
func optionalUser(ctx context.Context) *model.User {
	uc, ok := ctx.Value(userContextKey{}).(userContext)
	if !ok {
		return nil
	}
	return &uc.user
}

func setTraceContext(ctx context.Context, tc traceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}
func getTraceContext(ctx context.Context) traceContext {
	tc, _ := ctx.Value(traceContextKey{}).(traceContext)
	return tc
}

func (s Server) maxBytesMw(next http.Handler) http.Handler {
	return http.MaxBytesHandler(next, 4096)
}

func (s Server) loggingMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		traceID := uuid.NewString()
		s.Logger.Debugf("loggingMw: New incoming request %s %s from %s, UA: %s, Host: %#v, TraceID: %s",
			r.Method, r.URL.Path, r.RemoteAddr, r.UserAgent(), r.Host, traceID)

		defer func() {
			if re := recover(); re != nil {
				s.Logger.Errorf("loggingMw: Handler crashed, err: %v, TraceID: %s, stack trace:\n%s", re, traceID, debug.Stack())
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()

		tc := traceContext{traceID: traceID}
		next.ServeHTTP(w, r.WithContext(setTraceContext(r.Context(), tc)))

		s.Logger.Tracef("loggingMw: Incoming request %s %s took %dms, TraceID: %s",
			r.Method, r.URL.Path, time.Since(start).Milliseconds(), traceID)
	})
}

// userFromBearerToken validates the Authorization header and loads the
// corresponding active user.
func (s Server) userFromBearerToken(r *http.Request) (model.User, error) {
	var u model.User
	at := r.Header.Get("Authorization")
	if !strings.HasPrefix(at, "Bearer ") {
		return u, errors.New("no bearer token")
	}
	at = strings.TrimPrefix(at, "Bearer ")

	token, err := jwt.Parse([]byte(at), jwt.WithKey(jwa.HS256, s.AuthSecretKey), jwt.WithValidate(true))
	if err != nil {
		return u, errors.Wrap(err, "failed to validate access token")
	}

	u, err = s.DB.UserFindByID(r.Context(), token.Subject())
	if err != nil {
		return u, errors.Wrap(err, "error finding User from access token")
	}
	if !u.IsActive {
		return u, errors.Errorf("User is disabled, ID: %s", u.ID.Hex())
	}
	return u, nil
}

func (s Server) authMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		u, err := s.userFromBearerToken(r)
		if err != nil {
			s.Logger.Debugf("authMw: %v, TraceID: %s", err, tid)
			s.writeError(w, "Not authenticated", http.StatusUnauthorized)
			return
		}
		s.Logger.Debugf("authMw: UserID: %s, TraceID: %s", u.ID.Hex(), tid)
		next.ServeHTTP(w, r.WithContext(setUserContext(r.Context(), userContext{user: u})))
	})
}

// optionalAuthMw attaches the user when a valid bearer token is
// present and lets the request through anonymously otherwise.
func (s Server) optionalAuthMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			if u, err := s.userFromBearerToken(r); err == nil {
				next.ServeHTTP(w, r.WithContext(setUserContext(r.Context(), userContext{user: u})))
				return
			} else {
				s.Logger.Debugf("optionalAuthMw: Ignoring invalid bearer token, err: %v, TraceID: %s",
					err, getTraceContext(r.Context()).traceID)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s Server) adminMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("adminMw: Error getting userContext, err: %v", err)
			s.writeError(w, "Not authenticated", http.StatusUnauthorized)
			return
		}
		if !s.isAdmin(uc.user) {
			s.Logger.Debugf("adminMw: Non-admin access attempt by UserID: %s", uc.user.ID.Hex())
			s.writeError(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s Server) isAdmin(u model.User) bool {
	adminEmail := strings.ToLower(strings.TrimSpace(s.AdminEmail))
	return adminEmail != "" && strings.ToLower(u.Email) == adminEmail
}
