package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"authcore/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.BlacklistedToken{}))
	return db
}

func TestDBStore_AddAndLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewDBStore(newTestDB(t))

	exp := time.Now().Add(time.Hour).UnixMilli()
	require.NoError(t, store.Add(ctx, "token-a", exp))

	revoked, err := store.IsBlacklisted(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsBlacklisted(ctx, "token-b")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestDBStore_PurgeExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewDBStore(newTestDB(t))

	expired := time.Now().Add(-time.Minute).UnixMilli()
	live := time.Now().Add(time.Hour).UnixMilli()
	require.NoError(t, store.Add(ctx, "expired-token", expired))
	require.NoError(t, store.Add(ctx, "live-token", live))

	require.NoError(t, store.PurgeExpired(ctx))

	revoked, err := store.IsBlacklisted(ctx, "expired-token")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = store.IsBlacklisted(ctx, "live-token")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestNone_NeverRevokes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := None{}

	require.NoError(t, store.Add(ctx, "token", time.Now().Add(time.Hour).UnixMilli()))

	revoked, err := store.IsBlacklisted(ctx, "token")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.NoError(t, store.PurgeExpired(ctx))
}

func TestNew_SelectsBackend(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	store, err := New("none", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, None{}, store)

	store, err = New("", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, None{}, store)

	store, err = New("db", db, nil)
	require.NoError(t, err)
	assert.IsType(t, &DBStore{}, store)

	_, err = New("db", nil, nil)
	assert.Error(t, err)

	_, err = New("redis", nil, nil)
	assert.Error(t, err)

	_, err = New("bogus", db, nil)
	assert.Error(t, err)
}
