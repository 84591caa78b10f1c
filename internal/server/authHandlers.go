package server

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

const accessTokenLifetime = 72 * time.Hour

type userProfile struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LanguageCode     string    `json:"language_code"`
	SubscriptionTier string    `json:"subscription_tier"`
	MaxAlerts        int       `json:"max_alerts"`
	IsAdmin          bool      `json:"is_admin"`
	CreatedAt        time.Time `json:"created_at"`
}

type authResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        userProfile `json:"user"`
}

func (s Server) userProfile(u model.User) userProfile {
	return userProfile{
		ID:               u.ID.Hex(),
		Email:            u.Email,
		FirstName:        u.FirstName,
		LanguageCode:     u.LanguageCode,
		SubscriptionTier: u.SubscriptionTier,
		MaxAlerts:        u.MaxAlerts(),
		IsAdmin:          s.isAdmin(u),
		CreatedAt:        u.CreatedAt,
	}
}

func (s Server) authRegister() http.HandlerFunc {
	type request struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("authRegister: Error decoding JSON, err: %v", err)
			s.writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			s.Logger.Debugf("authRegister: Invalid email, err: %v", err)
			s.writeError(w, "Invalid email", http.StatusBadRequest)
			return
		}
		if len(req.Password) < 6 || len(req.Password) > 128 {
			s.writeError(w, "Password must be between 6 and 128 characters", http.StatusBadRequest)
			return
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.Logger.Errorf("authRegister: Error generating bcrypt from password, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		u := model.User{
			Email:            email,
			PasswordHash:     passwordHash,
			FirstName:        strings.TrimSpace(req.FirstName),
			LanguageCode:     "az",
			SubscriptionTier: model.TierFree,
		}
		id, err := s.DB.UserInsert(r.Context(), u)
		if err != nil {
			if mongo.IsDuplicateKeyError(errors.Cause(err)) {
				s.Logger.Debugf("authRegister: Duplicate email: %s", email)
				s.writeError(w, "Email already registered", http.StatusConflict)
				return
			}
			s.Logger.Errorf("authRegister: Error inserting User, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		u, err = s.DB.UserFindByID(r.Context(), id)
		if err != nil {
			s.Logger.Errorf("authRegister: Error finding inserted User, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		at, err := s.createAccessToken(id)
		if err != nil {
			s.Logger.Errorf("authRegister: Error creating access token, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, authResponse{
			AccessToken: at,
			TokenType:   "bearer",
			User:        s.userProfile(u),
		}, http.StatusCreated)
	}
}

func (s Server) authLogin() http.HandlerFunc {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("authLogin: Error decoding JSON, err: %v", err)
			s.writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		u, err := s.DB.UserFindByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
		if err != nil {
			s.Logger.Debugf("authLogin: Error finding User, err: %v", err)
			s.writeError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		if err = bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)); err != nil {
			s.Logger.Debugf("authLogin: Error comparing hash and password for User with email: %s, err: %v", u.Email, err)
			s.writeError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		if !u.IsActive {
			s.writeError(w, "Account is disabled", http.StatusForbidden)
			return
		}

		at, err := s.createAccessToken(u.ID.Hex())
		if err != nil {
			s.Logger.Errorf("authLogin: Error creating access token, err: %v", err)
			s.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, authResponse{
			AccessToken: at,
			TokenType:   "bearer",
			User:        s.userProfile(u),
		}, http.StatusOK)
	}
}

func (s Server) authMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("authMe: Error getting userContext, err: %v", err)
			s.writeError(w, "Not authenticated", http.StatusUnauthorized)
			return
		}
		s.writeJsonResponse(w, s.userProfile(uc.user), http.StatusOK)
	}
}

func (s Server) createAccessToken(userID string) (string, error) {
	t, err := jwt.NewBuilder().
		Subject(userID).
		Issuer("ucuzbot").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(accessTokenLifetime)).
		Build()
	if err != nil {
		return "", errors.Wrapf(err, "error creating access token for UserID: %s", userID)
	}
	at, err := jwt.Sign(t, jwt.WithKey(jwa.HS256, s.AuthSecretKey))
	if err != nil {
		return "", errors.Wrapf(err, "error signing access token for UserID: %s", userID)
	}
	return string(at), nil
}
