package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mizan-erp/backend/internal/infrastructure/auth"
	"github.com/mizan-erp/backend/internal/infrastructure/logger"
	"github.com/mizan-erp/backend/internal/interfaces/http/dto"
)

const (
	// ContextKeyJWTClaims is the gin context key for validated JWT claims
	ContextKeyJWTClaims = "jwt_claims"

	// ContextKeyJWTUserID is the gin context key for the authenticated user ID
	ContextKeyJWTUserID = "jwt_user_id"

	// ContextKeyJWTTenantID is the gin context key for the token's tenant claim
	ContextKeyJWTTenantID = "jwt_tenant_id"
)

// JWTMiddlewareConfig configures the JWT authentication middleware
type JWTMiddlewareConfig struct {
	// SkipPaths are exact paths that bypass authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that bypass authentication
	SkipPathPrefixes []string
}

// JWTAuth validates the Bearer token on each request and exposes its claims
// through the gin context. The tenant claim is NOT trusted as the tenant
// binding on its own; the tenant resolver consumes it as a fallback.
func JWTAuth(jwtService *auth.JWTService, cfg JWTMiddlewareConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		tokenString, ok := extractBearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "missing or malformed Authorization header"))
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			code := dto.ErrCodeTokenInvalid
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrCodeTokenExpired
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(code, "invalid or expired token"))
			return
		}

		c.Set(ContextKeyJWTClaims, claims)
		c.Set(ContextKeyJWTUserID, claims.UserID)
		c.Set(ContextKeyJWTTenantID, claims.TenantID)

		ctx, _ := logger.WithUserID(c.Request.Context(), logger.FromContext(c.Request.Context()), claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func extractBearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetJWTClaims returns the validated claims for the current request
func GetJWTClaims(c *gin.Context) (*auth.Claims, bool) {
	value, ok := c.Get(ContextKeyJWTClaims)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}
