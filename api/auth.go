/*
auth.go - Session authentication

Login exchanges username/password for a signed JWT carried in an
HttpOnly cookie. The middleware guards every route except /healthz and
/api/login; handlers read the acting username from the request context
for audit fields (loan CreatedBy, amortization user).
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/hr-backend/store"
)

const sessionCookie = "hr_session"

type contextKey string

const userContextKey contextKey = "user"

type sessionClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Auth issues and verifies session tokens.
type Auth struct {
	users  store.UserRepository
	secret []byte
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewAuth(users store.UserRepository, secret string, ttl time.Duration, log logrus.FieldLogger) *Auth {
	return &Auth{users: users, secret: []byte(secret), ttl: ttl, log: log}
}

func (a *Auth) generateToken(u *store.User) (string, time.Time, error) {
	exp := time.Now().Add(a.ttl)
	claims := &sessionClaims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   u.Username,
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(a.secret)
	return s, exp, err
}

func (a *Auth) parseToken(tokenStr string) (*sessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Login verifies credentials and sets the session cookie.
// POST /api/login
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := a.users.GetByUsername(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	if user == nil || !user.Active {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		a.log.WithField("username", req.Username).Warn("failed login attempt")
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, exp, err := a.generateToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"username": user.Username, "expires_at": exp.Format(time.RFC3339)})
}

// Logout clears the session cookie.
// POST /api/logout
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Middleware rejects requests without a valid session cookie and puts
// the username in the request context.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		claims, err := a.parseToken(cookie.Value)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired session", nil)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated username, empty outside the
// middleware.
func currentUser(r *http.Request) string {
	if u, ok := r.Context().Value(userContextKey).(string); ok {
		return u
	}
	return ""
}
