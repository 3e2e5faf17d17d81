package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	encoded, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	assert.True(t, CheckPassword(encoded, "correct horse battery staple"))
	assert.False(t, CheckPassword(encoded, "wrong password"))
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("password")
	require.NoError(t, err)
	second, err := HashPassword("password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, CheckPassword(first, "password"))
	assert.True(t, CheckPassword(second, "password"))
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "empty", encoded: ""},
		{name: "not argon", encoded: "$bcrypt$whatever"},
		{name: "missing sections", encoded: "$argon2id$v=19$m=65536"},
		{name: "bad base64 salt", encoded: "$argon2id$v=19$m=65536,t=2,p=1$!!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, CheckPassword(tt.encoded, "password"))
		})
	}
}
