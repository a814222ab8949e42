package jwtware

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyfuncOptionsRefreshErrorHandlerIsSafe(t *testing.T) {
	opts := keyfuncOptions(nil)
	require.NotNil(t, opts.RefreshErrorHandler)
	require.NotPanics(t, func() {
		opts.RefreshErrorHandler(errors.New("refresh failed"))
	})

	require.Equal(t, time.Hour, opts.RefreshInterval)
	require.Equal(t, 5*time.Minute, opts.RefreshRateLimit)
	require.Equal(t, 10*time.Second, opts.RefreshTimeout)
	require.True(t, opts.RefreshUnknownKID)
}

func TestTokenClaims_AccountIDFallsBackToSubject(t *testing.T) {
	claims := &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-1"},
	}
	assert.Equal(t, "sub-1", claims.AccountID())

	claims.UID = "uid-1"
	assert.Equal(t, "uid-1", claims.AccountID())
}

func TestTokenClaims_RoleChecks(t *testing.T) {
	claims := &tokenClaims{AccountRole: "admin"}

	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("user"))

	assert.True(t, claims.IsAtLeast("user"))
	assert.True(t, claims.IsAtLeast("admin"))

	claims.AccountRole = "user"
	assert.True(t, claims.IsAtLeast("user"))
	assert.False(t, claims.IsAtLeast("admin"))

	claims.AccountRole = "unknown"
	assert.False(t, claims.IsAtLeast("user"))
}

func TestKeyfuncValidator_RejectsTamperedToken(t *testing.T) {
	key := []byte("test-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		AccountRole: "user",
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	v := keyfuncValidator{keyFunc: signingKeyFunc(SigningKey{
		Key:    key,
		JWTAlg: jwt.SigningMethodHS256.Alg(),
	})}

	claims, err := v.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID())
	assert.Equal(t, "user", claims.Role())

	_, err = v.Validate(signed + "tampered")
	require.Error(t, err)
}
