package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "alice", secret, time.Minute)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, AccessToken, claims.Type)
}

func TestValidateAccessTokenRejects(t *testing.T) {
	good, err := GenerateAccessToken(1, "bob", secret, time.Minute)
	require.NoError(t, err)

	expired, err := GenerateAccessToken(1, "bob", secret, -time.Minute)
	require.NoError(t, err)

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1, Username: "bob", Type: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1, Type: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", good, "other"},
		{"expired", expired, secret},
		{"refresh type", refresh, secret},
		{"no username", anonymous, secret},
		{"garbage", "not-a-token", secret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAccessToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestSubjectFallback(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 9, Type: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "carol",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "carol", claims.Username)
}
