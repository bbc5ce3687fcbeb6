package remote

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	expired := signedToken(t, jwt.MapClaims{"exp": now.Add(-time.Hour).Unix()})
	assert.True(t, TokenExpired(expired, now))

	valid := signedToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	assert.False(t, TokenExpired(valid, now))
}

func TestTokenExpired_NoExpClaim(t *testing.T) {
	now := time.Now()
	tok := signedToken(t, jwt.MapClaims{"sub": "user-1"})
	assert.False(t, TokenExpired(tok, now), "tokens without exp are sent as-is")
}

func TestTokenExpired_Garbage(t *testing.T) {
	assert.False(t, TokenExpired("not-a-jwt", time.Now()))
	assert.False(t, TokenExpired(fmt.Sprintf("%s.%s", "a", "b"), time.Now()))
}
