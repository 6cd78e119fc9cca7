package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"

	"github.com/suresportpicks/picks-service/internal/middlewares"
	"github.com/suresportpicks/picks-service/internal/models"
	testutils "github.com/suresportpicks/picks-service/internal/test_utils"
)

const jwtSecret = "test-secret"

func generateJWT(userID string, role string, secret string, expiration time.Duration) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(expiration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, _ := token.SignedString([]byte(secret))

	return signedToken
}

func TestAuthMiddleware(t *testing.T) {
	mockRedis := testutils.NewMockRedis()
	userID := "user123"
	validToken := generateJWT(userID, models.RoleUser, jwtSecret, time.Minute)
	expiredToken := generateJWT(userID, models.RoleUser, jwtSecret, -time.Minute)

	// Set valid token in Redis
	_ = mockRedis.Set(context.Background(), validToken, userID, time.Minute)

	// Handler to test
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := middlewares.UserID(r.Context())
		assert.True(t, ok)
		assert.Equal(t, userID, user, "Expected userID in context")
		w.WriteHeader(http.StatusOK)
	})

	// Middleware with mock Redis
	middleware := middlewares.AuthMiddleware(jwtSecret, mockRedis)

	t.Run("Valid Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", validToken)
		rec := httptest.NewRecorder()

		middleware(testHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "Valid token should pass")
	})

	t.Run("Invalid Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "invalid-token")
		rec := httptest.NewRecorder()

		middleware(testHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "Invalid token should be rejected")
		assert.Contains(t, rec.Body.String(), "Invalid token")
	})

	t.Run("Expired Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", expiredToken)
		rec := httptest.NewRecorder()

		middleware(testHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "Expired token should be rejected")
		assert.Contains(t, rec.Body.String(), "Invalid token")
	})

	t.Run("Token Not in Redis", func(t *testing.T) {
		tokenNotInRedis := generateJWT("user456", models.RoleUser, jwtSecret, time.Minute)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", tokenNotInRedis)
		rec := httptest.NewRecorder()

		middleware(testHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "Token not in Redis should be rejected")
		assert.Contains(t, rec.Body.String(), "Invalid or expired token")
	})

	t.Run("Redis Token Mismatch", func(t *testing.T) {
		mismatchedToken := generateJWT("user456", models.RoleUser, jwtSecret, time.Minute)
		_ = mockRedis.Set(context.Background(), mismatchedToken, "differentUser", time.Minute)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", mismatchedToken)
		rec := httptest.NewRecorder()

		middleware(testHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "Mismatched Redis token should be rejected")
		assert.Contains(t, rec.Body.String(), "Invalid or expired token")
	})
}

func TestAdminMiddleware(t *testing.T) {
	mockRedis := testutils.NewMockRedis()

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	chain := middlewares.AuthMiddleware(jwtSecret, mockRedis)(middlewares.AdminMiddleware()(testHandler))

	t.Run("Admin Role", func(t *testing.T) {
		adminToken := generateJWT("admin1", models.RoleAdmin, jwtSecret, time.Minute)
		_ = mockRedis.Set(context.Background(), adminToken, "admin1", time.Minute)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", adminToken)
		rec := httptest.NewRecorder()

		chain.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "Admin token should pass")
	})

	t.Run("User Role", func(t *testing.T) {
		userToken := generateJWT("user1", models.RoleUser, jwtSecret, time.Minute)
		_ = mockRedis.Set(context.Background(), userToken, "user1", time.Minute)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", userToken)
		rec := httptest.NewRecorder()

		chain.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code, "Regular user should be rejected")
		assert.Contains(t, rec.Body.String(), "Admin access required")
	})

	t.Run("No Role Claim Defaults To User", func(t *testing.T) {
		claims := jwt.MapClaims{
			"user_id": "user2",
			"exp":     time.Now().Add(time.Minute).Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signedToken, _ := token.SignedString([]byte(jwtSecret))
		_ = mockRedis.Set(context.Background(), signedToken, "user2", time.Minute)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", signedToken)
		rec := httptest.NewRecorder()

		chain.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
