package tokens

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret")

func TestSignAccess_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	userID := uuid.NewString()
	exp := time.Now().Add(15 * time.Minute).UTC()
	perms := []string{"Users.Read", "Users.Create"}

	token, err := SignAccess(testSecret, userID, "alice", perms, exp)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAccess(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, perms, claims.Permissions)
	assert.Equal(t, TypeAccess, claims.TokenType)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestSignRefresh_CarriesOnlySubject(t *testing.T) {
	t.Parallel()

	userID := uuid.NewString()
	token, err := SignRefresh(testSecret, userID, time.Now().Add(7*24*time.Hour))
	require.NoError(t, err)

	claims, err := ParseRefresh(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, TypeRefresh, claims.TokenType)
}

func TestParseAccess_RejectsRefreshToken(t *testing.T) {
	t.Parallel()

	token, err := SignRefresh(testSecret, uuid.NewString(), time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = ParseAccess(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestParseRefresh_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	token, err := SignAccess(testSecret, uuid.NewString(), "bob", nil, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = ParseRefresh(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestParseAccess_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := SignAccess(testSecret, uuid.NewString(), "bob", nil, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = ParseAccess(token, []byte("other-secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccess_RejectsExpired(t *testing.T) {
	t.Parallel()

	token, err := SignAccess(testSecret, uuid.NewString(), "bob", nil, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = ParseAccess(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiryMillis_WorksOnExpiredTokens(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(-time.Hour)
	token, err := SignAccess(testSecret, uuid.NewString(), "bob", nil, exp)
	require.NoError(t, err)

	millis, err := ExpiryMillis(token, testSecret)
	require.NoError(t, err)
	assert.InDelta(t, exp.UnixMilli(), millis, 1000)
}

func TestExpiryMillis_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := SignAccess(testSecret, uuid.NewString(), "bob", nil, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = ExpiryMillis(token, []byte("other-secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}
