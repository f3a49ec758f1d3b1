package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID int64, role string, secret string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetUserRole(c)})
	})
	router.GET("/admin", AuthMiddleware(testSecret), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doAuth(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	router := newAuthRouter()

	rec := doAuth(router, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doAuth(router, "/me", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doAuth(router, "/me", signToken(t, 42, "customer", "wrong-secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doAuth(router, "/me", signToken(t, 42, "customer", testSecret))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":42`)
	assert.Contains(t, rec.Body.String(), `"role":"customer"`)
}

func TestAdminOnly(t *testing.T) {
	router := newAuthRouter()

	rec := doAuth(router, "/admin", signToken(t, 1, "customer", testSecret))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doAuth(router, "/admin", signToken(t, 1, "admin", testSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
}
