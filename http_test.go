package accounts_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accounts "github.com/vessko/go-accounts"
)

func TestMakeClientRouteAuthErrorHandler(t *testing.T) {
	cfg := new(MockConfig)
	cfg.On("GetTokenExpiration").Return(24)

	httpAuth, err := accounts.NewHTTPAuthenticator(nil, cfg)
	require.NoError(t, err)
	httpAuth.Logger = testLogger{}

	t.Run("unrecognized failure carries the unauthenticated sentinel", func(t *testing.T) {
		var captured error
		httpAuth.AuthErrorHandler = func(c router.Context, err error) error {
			captured = err
			return nil
		}

		handler := httpAuth.MakeClientRouteAuthErrorHandler(false)

		ctx := router.NewMockContext()
		require.NoError(t, handler(ctx, errors.New("no token in request")))

		assert.ErrorIs(t, captured, accounts.ErrUnauthenticated)
	})

	t.Run("expired token keeps its own sentinel", func(t *testing.T) {
		var captured error
		httpAuth.AuthErrorHandler = func(c router.Context, err error) error {
			captured = err
			return nil
		}

		handler := httpAuth.MakeClientRouteAuthErrorHandler(false)

		ctx := router.NewMockContext()
		require.NoError(t, handler(ctx, errors.New("token is expired by 1h")))

		assert.ErrorIs(t, captured, accounts.ErrTokenExpired)
		assert.NotErrorIs(t, captured, accounts.ErrUnauthenticated)
	})
}
