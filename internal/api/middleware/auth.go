package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/models"
	"github.com/xzo-x0zxk1d/rxx-AI/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

// AuthMiddleware resolves bearer API keys to users for owner-scoped routes.
type AuthMiddleware struct {
	db store.ChatStore
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(db store.ChatStore) *AuthMiddleware {
	return &AuthMiddleware{db: db}
}

// HashAPIKey returns the hex SHA-256 digest stored for an API key.
// Keys are random, so a plain digest is enough for lookup.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// RequireAuth verifies the Authorization bearer key and attaches the
// owning user to the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		key, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || key == "" {
			jsonError(w, http.StatusUnauthorized, "missing API key")
			return
		}

		user, err := m.db.GetUserByKeyHash(r.Context(), HashAPIKey(key))
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "database error")
			return
		}
		if user == nil {
			jsonError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		ctx := WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the authenticated user, or nil.
func GetUserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
