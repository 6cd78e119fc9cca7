package middlewares

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v4"

	"github.com/suresportpicks/picks-service/internal/models"
	"github.com/suresportpicks/picks-service/internal/redis"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	RoleKey   contextKey = "role"
)

func AuthMiddleware(jwtSecret string, memStorage redis.MemStorage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
			// Retrieve the "Authorization" token
			tokenString := request.Header.Get("Authorization")

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(responseWriter, "Invalid token", http.StatusUnauthorized)

				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok {
				http.Error(responseWriter, "Invalid token claims", http.StatusUnauthorized)

				return
			}

			role, ok := claims["role"].(string)
			if !ok {
				role = models.RoleUser
			}

			// Check if the token exists in Redis and match with User ID
			result, err := memStorage.Get(request.Context(), tokenString)
			if result != userID || err != nil {
				http.Error(responseWriter, "Invalid or expired token", http.StatusUnauthorized)

				return
			}

			ctx := context.WithValue(request.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, RoleKey, role)
			next.ServeHTTP(responseWriter, request.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user id set by AuthMiddleware.
func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)

	return userID, ok
}

// AdminMiddleware rejects callers whose token does not carry the admin role.
// It must sit behind AuthMiddleware in the chain.
func AdminMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
			role, ok := request.Context().Value(RoleKey).(string)
			if !ok || role != models.RoleAdmin {
				http.Error(responseWriter, "Admin access required", http.StatusForbidden)

				return
			}

			next.ServeHTTP(responseWriter, request)
		})
	}
}
