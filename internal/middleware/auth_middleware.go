package middleware

import (
	"context"
	"net/http"
	"strings"

	"sim-sync/pkg/jwt"
	"sim-sync/pkg/response"
)

type contextKey string

const UserIDKey contextKey = "userID"

// AuthMiddleware requires a valid access token as a bearer token. Any
// failure is a 401 so clients take their refresh path.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwt.ValidateTokenOfType(token, jwtSecret, jwt.TypeAccess)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

type userSinkKey struct{}

func withUserSink(ctx context.Context, userID *string) context.Context {
	return context.WithValue(ctx, userSinkKey{}, userID)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	if sink, ok := ctx.Value(userSinkKey{}).(*string); ok {
		*sink = userID
	}
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
