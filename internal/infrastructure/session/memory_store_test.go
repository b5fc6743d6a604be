package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_BindAndGet(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.BindTenant(ctx, "tok-1", "tenant-1", time.Minute))

	tenantID, err := store.GetTenant(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", tenantID)
}

func TestMemoryStore_UnknownToken(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	_, err := store.GetTenant(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_ExpiredBinding(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.BindTenant(ctx, "tok-1", "tenant-1", -time.Second))

	_, err := store.GetTenant(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_Release(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.BindTenant(ctx, "tok-1", "tenant-1", time.Minute))
	require.NoError(t, store.Release(ctx, "tok-1"))

	_, err := store.GetTenant(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_RebindOverwrites(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.BindTenant(ctx, "tok-1", "tenant-1", time.Minute))
	require.NoError(t, store.BindTenant(ctx, "tok-1", "tenant-2", time.Minute))

	tenantID, err := store.GetTenant(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "tenant-2", tenantID)
}
