// Package session stores the tenant binding of authenticated browser
// sessions. The tenant middleware consults it when the request host carries
// no tenant subdomain.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when no tenant is bound to a session token
var ErrSessionNotFound = errors.New("session not found")

// Store persists the session-token to tenant-ID binding
type Store interface {
	// GetTenant returns the tenant ID bound to the session token, or
	// ErrSessionNotFound
	GetTenant(ctx context.Context, token string) (string, error)
	// BindTenant binds a tenant ID to a session token for the given TTL
	BindTenant(ctx context.Context, token, tenantID string, ttl time.Duration) error
	// Release removes the binding for a session token
	Release(ctx context.Context, token string) error
	// Close releases store resources
	Close() error
}
