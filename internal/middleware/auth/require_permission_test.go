package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"authcore/internal/blacklist"
	"authcore/internal/models"
	"authcore/internal/tokens"
)

var testSecret = []byte("test-jwt-secret")

func newTestGuard(t *testing.T) (*Guard, blacklist.Strategy) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.BlacklistedToken{}))

	store := blacklist.NewDBStore(db)
	return &Guard{JWTSecret: testSecret, Blacklist: store}, store
}

func doRequest(guard *Guard, permission, authHeader string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := guard.RequirePermission(permission)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return rec, handler(c)
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func signAccess(t *testing.T, permissions ...string) string {
	t.Helper()

	token, err := tokens.SignAccess(testSecret, "user-1", "alice", permissions, time.Now().Add(15*time.Minute))
	require.NoError(t, err)
	return token
}

func TestRequirePermission_MissingOrMalformedHeader(t *testing.T) {
	t.Parallel()

	guard, _ := newTestGuard(t)

	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer "} {
		_, err := doRequest(guard, "Users.Read", header)
		assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err), "header %q", header)
	}
}

func TestRequirePermission_InvalidToken(t *testing.T) {
	t.Parallel()

	guard, _ := newTestGuard(t)

	_, err := doRequest(guard, "Users.Read", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestRequirePermission_ExpiredToken(t *testing.T) {
	t.Parallel()

	guard, _ := newTestGuard(t)

	token, err := tokens.SignAccess(testSecret, "user-1", "alice", nil, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = doRequest(guard, "", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestRequirePermission_RefreshTokenAsBearer(t *testing.T) {
	t.Parallel()

	guard, _ := newTestGuard(t)

	refresh, err := tokens.SignRefresh(testSecret, "user-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = doRequest(guard, "", "Bearer "+refresh)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestRequirePermission_PublicRouteNeedsOnlyValidToken(t *testing.T) {
	t.Parallel()

	guard, _ := newTestGuard(t)

	rec, err := doRequest(guard, "", "Bearer "+signAccess(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermission_MembershipCheck(t *testing.T) {
	t.Parallel()

	guard, _ := newTestGuard(t)
	token := signAccess(t, "Users.Read")

	rec, err := doRequest(guard, "Users.Read", "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = doRequest(guard, "Users.Create", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, httpStatus(t, err))
}

func TestRequirePermission_RevokedToken(t *testing.T) {
	t.Parallel()

	guard, store := newTestGuard(t)
	token := signAccess(t, "Users.Read")

	require.NoError(t, store.Add(context.Background(), token, time.Now().Add(time.Hour).UnixMilli()))

	// Revocation denies repeatedly, not just once.
	for i := 0; i < 3; i++ {
		_, err := doRequest(guard, "Users.Read", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
	}
}

type failingBlacklist struct{}

func (failingBlacklist) Add(ctx context.Context, token string, expiresAt int64) error { return nil }

func (failingBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return false, errors.New("backend unreachable")
}

func (failingBlacklist) PurgeExpired(ctx context.Context) error { return nil }

func TestRequirePermission_FailsClosedOnBlacklistError(t *testing.T) {
	t.Parallel()

	guard := &Guard{JWTSecret: testSecret, Blacklist: failingBlacklist{}}

	_, err := doRequest(guard, "", "Bearer "+signAccess(t, "Users.Read"))
	assert.Equal(t, http.StatusUnauthorized, httpStatus(t, err))
}

func TestRequirePermission_AttachesClaimsToContext(t *testing.T) {
	t.Parallel()

	guard, _ := newTestGuard(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signAccess(t, "Users.Read"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := guard.RequirePermission("Users.Read")(func(c echo.Context) error {
		assert.Equal(t, "user-1", c.Get("userID"))
		assert.Equal(t, "alice", c.Get("username"))
		assert.Equal(t, []string{"Users.Read"}, c.Get("permissions"))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
