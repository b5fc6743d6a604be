package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizan-erp/backend/internal/infrastructure/auth"
	"github.com/mizan-erp/backend/internal/infrastructure/config"
)

func testAuthService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-with-enough-length",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "mizan-erp",
	})
}

func TestJWTAuth_ValidToken(t *testing.T) {
	svc := testAuthService()
	tenantID := uuid.New()
	userID := uuid.New()

	pair, err := svc.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: tenantID,
		UserID:   userID,
		Username: "owner",
	})
	require.NoError(t, err)

	router := gin.New()
	router.Use(JWTAuth(svc, JWTMiddlewareConfig{}))
	var gotTenant, gotUser string
	router.GET("/resource", func(c *gin.Context) {
		gotTenant = c.GetString(ContextKeyJWTTenantID)
		gotUser = c.GetString(ContextKeyJWTUserID)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/resource", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID.String(), gotTenant)
	assert.Equal(t, userID.String(), gotUser)
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuth(testAuthService(), JWTMiddlewareConfig{}))
	router.GET("/resource", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/resource", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
}

func TestJWTAuth_RefreshTokenRejected(t *testing.T) {
	svc := testAuthService()
	pair, err := svc.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: uuid.New(),
		UserID:   uuid.New(),
	})
	require.NoError(t, err)

	router := gin.New()
	router.Use(JWTAuth(svc, JWTMiddlewareConfig{}))
	router.GET("/resource", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/resource", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
}

func TestJWTAuth_SkipPaths(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuth(testAuthService(), JWTMiddlewareConfig{
		SkipPaths:        []string{"/health"},
		SkipPathPrefixes: []string{"/public/"},
	}))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/public/docs", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/health", "/public/docs"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
