package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/listenupapp/readlist/internal/auth"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/session"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	userIDKey      ctxKey = "userID"
	displayNameKey ctxKey = "displayName"
)

// GetUserID returns the authenticated user ID from context.
// Returns an Unauthenticated error if there is none.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", domainerrors.Unauthenticated("authentication required")
	}
	return userID, nil
}

// optionalUserID returns the user ID, or "" for anonymous visitors.
func optionalUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func displayName(ctx context.Context) string {
	name, _ := ctx.Value(displayNameKey).(string)
	return name
}

func setClaims(ctx context.Context, claims *auth.AccessClaims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, claims.UserID)
	return context.WithValue(ctx, displayNameKey, claims.DisplayName)
}

// authMiddleware validates Bearer tokens and stores the user in context.
// Missing or invalid tokens continue anonymously; handlers use GetUserID to
// reject them where authentication is required.
func authMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if tokens == nil || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.VerifyAccessToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(setClaims(r.Context(), claims)))
		})
	}
}

// RequireSession returns the caller's session, loading it on first use.
func (s *Server) RequireSession(ctx context.Context) (*session.Session, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return s.services.Sessions.Get(ctx, userID)
}
