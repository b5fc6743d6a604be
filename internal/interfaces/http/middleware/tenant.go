package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mizan-erp/backend/internal/domain/identity"
	"github.com/mizan-erp/backend/internal/domain/shared"
	"github.com/mizan-erp/backend/internal/infrastructure/config"
	"github.com/mizan-erp/backend/internal/infrastructure/logger"
	"github.com/mizan-erp/backend/internal/infrastructure/session"
	"github.com/mizan-erp/backend/internal/interfaces/http/dto"
)

const (
	// ContextKeyTenantID is the gin context key for the resolved tenant ID
	ContextKeyTenantID = "tenant_id"

	// ContextKeyTenant is the gin context key for the resolved tenant aggregate
	ContextKeyTenant = "tenant"

	// SessionCookieName is the cookie carrying the tenant session token
	SessionCookieName = "erp_session"

	// HeaderTenantID carries an explicit tenant UUID (trusted traffic only)
	HeaderTenantID = "X-Tenant-ID"

	// HeaderTenantCode carries an explicit tenant code (trusted traffic only)
	HeaderTenantCode = "X-Tenant-Code"
)

// TenantLookup loads tenants during resolution. The application-layer tenant
// service satisfies this.
type TenantLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error)
	GetByCode(ctx context.Context, code string) (*identity.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*identity.Tenant, error)
}

// TenantResolverConfig configures the tenant resolution middleware
type TenantResolverConfig struct {
	// Required rejects requests that resolve no tenant
	Required bool
	// HeaderEnabled honors X-Tenant-ID / X-Tenant-Code headers
	HeaderEnabled bool
	// SubscriptionExpiredURL is the redirect target for lapsed subscriptions.
	// Empty means respond with 403 instead of redirecting.
	SubscriptionExpiredURL string
	// SkipPaths are exact paths that bypass resolution
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that bypass resolution
	SkipPathPrefixes []string
}

// ResolverConfigFromTenant builds a resolver config from the app-level
// tenant configuration
func ResolverConfigFromTenant(cfg config.TenantConfig) TenantResolverConfig {
	return TenantResolverConfig{
		Required:               cfg.Required,
		HeaderEnabled:          cfg.HeaderEnabled,
		SubscriptionExpiredURL: cfg.SubscriptionExpiredURL,
	}
}

// TenantResolver resolves the tenant for each request and binds it into the
// request context, where the persistence layer picks it up for row filtering.
//
// Sources are tried in a fixed precedence order; the first one yielding a
// known tenant wins and later sources are not consulted:
//
//  1. subdomain of the Host header
//  2. session cookie
//  3. X-Tenant-ID / X-Tenant-Code headers, when enabled
//  4. tenant claim of a validated JWT
//
// A resolved tenant must be active and have a live subscription before the
// request proceeds.
func TenantResolver(lookup TenantLookup, store session.Store, cfg TenantResolverConfig) gin.HandlerFunc {
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

		tenant, err := resolveTenant(c, lookup, store, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponse(dto.ErrCodeInternal, "tenant resolution failed"))
			return
		}

		if tenant == nil {
			if cfg.Required {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					dto.NewErrorResponse(dto.ErrCodeTenantRequired, "no tenant resolved for request"))
				return
			}
			c.Next()
			return
		}

		if !tenant.IsActive() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeTenantInactive, "tenant is not active"))
			return
		}

		if !tenant.SubscriptionActive(time.Now()) {
			// Never redirect the expired page to itself
			if cfg.SubscriptionExpiredURL != "" && path != cfg.SubscriptionExpiredURL {
				c.Redirect(http.StatusFound, cfg.SubscriptionExpiredURL)
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeSubscriptionExpired, "subscription has expired"))
			return
		}

		c.Set(ContextKeyTenantID, tenant.ID.String())
		c.Set(ContextKeyTenant, tenant)

		ctx, _ := logger.WithTenantID(c.Request.Context(), logger.FromContext(c.Request.Context()), tenant.ID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func resolveTenant(c *gin.Context, lookup TenantLookup, store session.Store, cfg TenantResolverConfig) (*identity.Tenant, error) {
	ctx := c.Request.Context()

	// 1. Subdomain
	if label := identity.ExtractSubdomain(c.Request.Host); label != "" {
		tenant, err := lookup.GetBySubdomain(ctx, label)
		if err == nil {
			return tenant, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	// 2. Session cookie
	if store != nil {
		if token, err := c.Cookie(SessionCookieName); err == nil && token != "" {
			tenantID, err := store.GetTenant(ctx, token)
			if err == nil {
				if id, parseErr := uuid.Parse(tenantID); parseErr == nil {
					tenant, err := lookup.GetByID(ctx, id)
					if err == nil {
						return tenant, nil
					}
					if !errors.Is(err, shared.ErrNotFound) {
						return nil, err
					}
				}
			} else if !errors.Is(err, session.ErrSessionNotFound) {
				return nil, err
			}
		}
	}

	// 3. Explicit headers
	if cfg.HeaderEnabled {
		if raw := c.GetHeader(HeaderTenantID); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				tenant, err := lookup.GetByID(ctx, id)
				if err == nil {
					return tenant, nil
				}
				if !errors.Is(err, shared.ErrNotFound) {
					return nil, err
				}
			}
		}
		if code := c.GetHeader(HeaderTenantCode); code != "" {
			tenant, err := lookup.GetByCode(ctx, code)
			if err == nil {
				return tenant, nil
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
		}
	}

	// 4. JWT tenant claim
	if raw := c.GetString(ContextKeyJWTTenantID); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			tenant, err := lookup.GetByID(ctx, id)
			if err == nil {
				return tenant, nil
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
		}
	}

	return nil, nil
}

// GetTenantUUID returns the resolved tenant ID for the current request
func GetTenantUUID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(ContextKeyTenantID)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// MustGetTenantUUID returns the resolved tenant ID or aborts with 401
func MustGetTenantUUID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := GetTenantUUID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			dto.NewErrorResponse(dto.ErrCodeTenantRequired, "no tenant resolved for request"))
		return uuid.Nil, false
	}
	return id, true
}
