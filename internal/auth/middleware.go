package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/medscan-health/medscan-api/internal/httputil"
	"github.com/medscan-health/medscan-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	// CurrentUserContextKey holds the resolved *user.User for the request
	CurrentUserContextKey ContextKey = "current_user"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	service *Service
}

func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireAuth validates the bearer token and resolves it to a user.
// A token whose subject no longer exists is indistinguishable from an
// invalid token.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}
		token := parts[1]

		current, err := m.service.CurrentUser(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), CurrentUserContextKey, current)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCurrentUser extracts the authenticated user from the request context
func GetCurrentUser(ctx context.Context) (*user.User, bool) {
	current, ok := ctx.Value(CurrentUserContextKey).(*user.User)
	return current, ok
}
