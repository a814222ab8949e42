package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	accounts "github.com/vessko/go-accounts"
)

// MockIdentity implements accounts.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

// MockLogger implements accounts.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

func TestNewTokenService(t *testing.T) {
	signingKey := []byte("test-signing-key")
	tokenExpiration := 24
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	t.Run("creates token service with logger", func(t *testing.T) {
		service := accounts.NewTokenService(signingKey, tokenExpiration, issuer, audience, testLogger{})

		assert.NotNil(t, service)
	})

	t.Run("creates token service with nil logger", func(t *testing.T) {
		service := accounts.NewTokenService(signingKey, tokenExpiration, issuer, audience, nil)

		assert.NotNil(t, service)
	})
}

func TestTokenService_Generate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	tokenExpiration := 24
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	service := accounts.NewTokenService(signingKey, tokenExpiration, issuer, audience, testLogger{})

	t.Run("generates valid JWT token", func(t *testing.T) {
		identity := &MockIdentity{}
		identity.On("ID").Return("acc-123")
		identity.On("Role").Return("admin")

		tokenString, err := service.Generate(identity)

		assert.NoError(t, err)
		assert.NotEmpty(t, tokenString)

		// Parse the token to verify structure
		token, err := jwt.ParseWithClaims(tokenString, &accounts.JWTClaims{}, func(token *jwt.Token) (any, error) {
			return signingKey, nil
		})

		assert.NoError(t, err)
		assert.True(t, token.Valid)

		claims, ok := token.Claims.(*accounts.JWTClaims)
		assert.True(t, ok)
		assert.Equal(t, "acc-123", claims.Subject())
		assert.Equal(t, "acc-123", claims.AccountID())
		assert.Equal(t, "admin", claims.Role())
		assert.Equal(t, issuer, claims.Issuer)
		assert.Equal(t, audience, claims.Audience)
		assert.NotNil(t, claims.RegisteredClaims.IssuedAt)
		assert.NotNil(t, claims.RegisteredClaims.ExpiresAt)
		assert.NotEmpty(t, claims.RegisteredClaims.ID)

		identity.AssertExpectations(t)
	})

	t.Run("sets correct expiration time", func(t *testing.T) {
		identity := &MockIdentity{}
		identity.On("ID").Return("acc-123")
		identity.On("Role").Return("user")

		beforeGenerate := time.Now()
		tokenString, err := service.Generate(identity)
		afterGenerate := time.Now()

		assert.NoError(t, err)

		token, err := jwt.ParseWithClaims(tokenString, &accounts.JWTClaims{}, func(token *jwt.Token) (any, error) {
			return signingKey, nil
		})

		assert.NoError(t, err)
		claims := token.Claims.(*accounts.JWTClaims)

		expectedExpiry := beforeGenerate.Add(time.Duration(tokenExpiration) * time.Hour)
		actualExpiry := claims.RegisteredClaims.ExpiresAt.Time

		// small margin for timing
		assert.True(t, actualExpiry.After(expectedExpiry.Add(-time.Second)))
		assert.True(t, actualExpiry.Before(afterGenerate.Add(time.Duration(tokenExpiration)*time.Hour+time.Second)))

		identity.AssertExpectations(t)
	})
}

func TestTokenService_SignClaims(t *testing.T) {
	signingKey := []byte("test-signing-key")
	service := accounts.NewTokenService(signingKey, 24, "test-issuer", nil, testLogger{})

	t.Run("signs explicit claims", func(t *testing.T) {
		now := time.Now()
		claims := &accounts.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "acc-999",
				Issuer:    "test-issuer",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			UID:         "acc-999",
			AccountRole: "user",
		}

		tokenString, err := service.SignClaims(claims)
		assert.NoError(t, err)
		assert.NotEmpty(t, tokenString)

		parsed, err := service.Validate(tokenString)
		assert.NoError(t, err)
		assert.Equal(t, "acc-999", parsed.AccountID())
	})

	t.Run("rejects nil claims", func(t *testing.T) {
		tokenString, err := service.SignClaims(nil)
		assert.Error(t, err)
		assert.Empty(t, tokenString)
	})
}

func TestTokenService_Validate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	tokenExpiration := 24
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	service := accounts.NewTokenService(signingKey, tokenExpiration, issuer, audience, testLogger{})

	t.Run("validates structured JWT token", func(t *testing.T) {
		identity := &MockIdentity{}
		identity.On("ID").Return("acc-123")
		identity.On("Role").Return("admin")

		tokenString, err := service.Generate(identity)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)

		assert.NoError(t, err)
		assert.NotNil(t, claims)
		assert.Equal(t, "acc-123", claims.Subject())
		assert.Equal(t, "acc-123", claims.AccountID())
		assert.Equal(t, "admin", claims.Role())

		identity.AssertExpectations(t)
	})

	t.Run("returns error for expired token", func(t *testing.T) {
		now := time.Now()
		expiredClaims := jwt.MapClaims{
			"iss": issuer,
			"sub": "acc-expired",
			"aud": audience,
			"iat": jwt.NewNumericDate(now.Add(-25 * time.Hour)),
			"exp": jwt.NewNumericDate(now.Add(-1 * time.Hour)),
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims)
		tokenString, err := token.SignedString(signingKey)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)

		assert.Error(t, err)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, accounts.ErrTokenExpired)
	})

	t.Run("expires against the injected clock", func(t *testing.T) {
		ttl := 1 // hours
		frozen := time.Now()

		minting := accounts.NewTokenService(signingKey, ttl, issuer, audience, testLogger{},
			accounts.WithTokenClock(func() time.Time { return frozen }))

		identity := &MockIdentity{}
		identity.On("ID").Return("acc-clock")
		identity.On("Role").Return("user")

		tokenString, err := minting.Generate(identity)
		assert.NoError(t, err)

		// still valid one second before expiry
		checking := accounts.NewTokenService(signingKey, ttl, issuer, audience, testLogger{},
			accounts.WithTokenClock(func() time.Time { return frozen.Add(time.Hour - time.Second) }))
		_, err = checking.Validate(tokenString)
		assert.NoError(t, err)

		// expired one second after
		checking = accounts.NewTokenService(signingKey, ttl, issuer, audience, testLogger{},
			accounts.WithTokenClock(func() time.Time { return frozen.Add(time.Hour + time.Second) }))
		_, err = checking.Validate(tokenString)
		assert.ErrorIs(t, err, accounts.ErrTokenExpired)
	})

	t.Run("returns error for malformed token", func(t *testing.T) {
		malformedToken := "not.a.valid.jwt.token"

		claims, err := service.Validate(malformedToken)

		assert.Error(t, err)
		assert.Nil(t, claims)
		assert.Contains(t, err.Error(), "malformed")
	})

	t.Run("returns error for tampered token", func(t *testing.T) {
		identity := &MockIdentity{}
		identity.On("ID").Return("acc-123")
		identity.On("Role").Return("user")

		tokenString, err := service.Generate(identity)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString + "tampered")

		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("returns error for token with wrong signing key", func(t *testing.T) {
		wrongKey := []byte("wrong-signing-key")
		claims := jwt.MapClaims{
			"iss": issuer,
			"sub": "acc-123",
			"aud": audience,
			"iat": jwt.NewNumericDate(time.Now()),
			"exp": jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString(wrongKey)
		assert.NoError(t, err)

		validatedClaims, err := service.Validate(tokenString)

		assert.Error(t, err)
		assert.Nil(t, validatedClaims)
	})

	t.Run("returns error for wrong issuer", func(t *testing.T) {
		claims := jwt.MapClaims{
			"iss": "some-other-issuer",
			"sub": "acc-123",
			"aud": audience,
			"iat": jwt.NewNumericDate(time.Now()),
			"exp": jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString(signingKey)
		assert.NoError(t, err)

		validatedClaims, err := service.Validate(tokenString)

		assert.Error(t, err)
		assert.Nil(t, validatedClaims)
	})

	t.Run("returns error for wrong audience", func(t *testing.T) {
		claims := jwt.MapClaims{
			"iss": issuer,
			"sub": "acc-123",
			"aud": jwt.ClaimStrings{"some-other-audience"},
			"iat": jwt.NewNumericDate(time.Now()),
			"exp": jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString(signingKey)
		assert.NoError(t, err)

		validatedClaims, err := service.Validate(tokenString)

		assert.Error(t, err)
		assert.Nil(t, validatedClaims)
	})
}

func TestTokenService_Integration(t *testing.T) {
	signingKey := []byte("integration-test-key")
	tokenExpiration := 1
	issuer := "integration-issuer"
	audience := jwt.ClaimStrings{"integration-audience"}

	service := accounts.NewTokenService(signingKey, tokenExpiration, issuer, audience, testLogger{})

	t.Run("full generate and validate cycle", func(t *testing.T) {
		identity := &MockIdentity{}
		identity.On("ID").Return("integration-account")
		identity.On("Role").Return("admin")

		tokenString, err := service.Generate(identity)
		assert.NoError(t, err)
		assert.NotEmpty(t, tokenString)

		claims, err := service.Validate(tokenString)
		assert.NoError(t, err)
		assert.NotNil(t, claims)

		assert.Equal(t, identity.ID(), claims.Subject())
		assert.Equal(t, identity.ID(), claims.AccountID())
		assert.Equal(t, identity.Role(), claims.Role())

		assert.True(t, claims.HasRole("admin"))
		assert.False(t, claims.HasRole("user"))
		assert.True(t, claims.IsAtLeast("user"))
		assert.True(t, claims.IsAtLeast("admin"))

		identity.AssertExpectations(t)
	})
}
