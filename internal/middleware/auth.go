package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/service"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	EmailKey  contextKey = "email"
)

type AuthMiddleware struct {
	auth service.Authenticator
	log  *logger.Logger
}

func NewAuthMiddleware(auth service.Authenticator, log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
		log:  log,
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// RequireAuth rejects requests without a valid bearer token and stores the token
// subject in the request context.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}

		claims, err := m.auth.VerifyToken(r.Context(), token)
		if err != nil {
			m.log.Debug("rejected token: %v", err)
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, EmailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}
