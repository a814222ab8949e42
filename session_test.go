package accounts_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accounts "github.com/vessko/go-accounts"
)

func TestSessionObject(t *testing.T) {
	accountID := uuid.New().String()
	now := time.Now()
	sessionData := map[string]any{
		"role": "admin",
	}

	session := &accounts.SessionObject{
		AccountID:      accountID,
		Audience:       []string{"app:user"},
		Issuer:         "test-issuer",
		IssuedAt:       &now,
		ExpirationDate: &now,
		Data:           sessionData,
	}

	assert.Equal(t, accountID, session.GetAccountID())

	accountUUID, err := session.GetAccountUUID()
	assert.NoError(t, err)
	assert.Equal(t, accountID, accountUUID.String())

	assert.Equal(t, []string{"app:user"}, session.GetAudience())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, &now, session.GetIssuedAt())
	assert.Equal(t, &now, session.GetExpiration())
	assert.Equal(t, sessionData, session.GetData())

	stringRep := session.String()
	assert.Contains(t, stringRep, accountID)
	assert.Contains(t, stringRep, "app:user")
	assert.Contains(t, stringRep, "test-issuer")
}

func TestSessionObjectGetAccountUUIDInvalid(t *testing.T) {
	session := &accounts.SessionObject{AccountID: "not-a-uuid"}

	_, err := session.GetAccountUUID()
	assert.Error(t, err)
}

func TestSessionObjectGetRole(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]any
		expected accounts.AccountRole
	}{
		{
			name:     "valid admin role",
			data:     map[string]any{"role": "admin"},
			expected: accounts.RoleAdmin,
		},
		{
			name:     "valid user role",
			data:     map[string]any{"role": "user"},
			expected: accounts.RoleUser,
		},
		{
			name:     "unknown role falls back to user",
			data:     map[string]any{"role": "owner"},
			expected: accounts.RoleUser,
		},
		{
			name:     "missing role falls back to user",
			data:     map[string]any{},
			expected: accounts.RoleUser,
		},
		{
			name:     "nil data falls back to user",
			data:     nil,
			expected: accounts.RoleUser,
		},
		{
			name:     "non-string role falls back to user",
			data:     map[string]any{"role": 42},
			expected: accounts.RoleUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &accounts.SessionObject{Data: tt.data}
			assert.Equal(t, tt.expected, session.GetRole())
		})
	}
}

func TestSessionRoundTripThroughToken(t *testing.T) {
	provider := new(MockIdentityProvider)
	config := newMockConfig()

	authenticator := accounts.NewAuthenticator(provider, config)

	accountID := uuid.New().String()
	identity := TestIdentity{id: accountID, role: "admin"}

	token, err := authenticator.TokenService().Generate(identity)
	require.NoError(t, err)

	session, err := authenticator.SessionFromToken(token)
	require.NoError(t, err)

	assert.Equal(t, accountID, session.GetAccountID())
	assert.Equal(t, []string{"test:audience"}, session.GetAudience())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.NotNil(t, session.GetIssuedAt())
	assert.NotNil(t, session.GetExpiration())
	assert.Equal(t, "admin", session.GetData()["role"])
}
