package accounts_test

import (
	"context"
	"database/sql"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accounts "github.com/vessko/go-accounts"
)

func TestVerifyAccountHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("successful verification", func(t *testing.T) {
		store := new(MockAccounts)
		repo := new(MockRepositoryManager)
		sink := new(MockActivitySink)

		token := "pending-token"
		account := &accounts.Account{
			ID:                uuid.New(),
			Email:             "pending@example.com",
			VerificationToken: &token,
		}

		repo.On("Accounts").Return(store)
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil).Once()

		store.On("GetByVerificationTokenTx", mock.Anything, mock.Anything, "pending-token").
			Return(account, nil).Once()
		store.On("MarkVerifiedTx", mock.Anything, mock.Anything, account.ID, "pending-token").
			Return(nil).Once()

		sink.On("Record", mock.Anything, mock.MatchedBy(func(evt accounts.ActivityEvent) bool {
			return evt.EventType == accounts.ActivityEventAccountVerified &&
				evt.Actor.ID == account.ID.String() &&
				evt.Actor.Type == "account" &&
				evt.AccountID == account.ID.String()
		})).Return(nil).Once()

		handler := accounts.NewVerifyAccountHandler(repo,
			accounts.WithVerifyActivitySink(sink),
			accounts.WithVerifyLogger(testLogger{}),
		)

		var resp *accounts.VerifyAccountResponse
		err := handler.Execute(ctx, accounts.VerifyAccountMessage{
			Token: "pending-token",
			OnResponse: func(r *accounts.VerifyAccountResponse) {
				resp = r
			},
		})

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Success)
		assert.True(t, resp.Account.IsVerified)
		assert.Nil(t, resp.Account.VerificationToken)

		store.AssertExpectations(t)
		sink.AssertExpectations(t)
	})

	t.Run("unknown token", func(t *testing.T) {
		store := new(MockAccounts)
		repo := new(MockRepositoryManager)
		sink := new(MockActivitySink)

		repo.On("Accounts").Return(store)
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil).Once()

		store.On("GetByVerificationTokenTx", mock.Anything, mock.Anything, "bogus").
			Return(nil, repository.NewRecordNotFound()).Once()

		handler := accounts.NewVerifyAccountHandler(repo,
			accounts.WithVerifyActivitySink(sink),
			accounts.WithVerifyLogger(testLogger{}),
		)

		err := handler.Execute(ctx, accounts.VerifyAccountMessage{Token: "bogus"})

		assert.ErrorIs(t, err, accounts.ErrInvalidToken)
		store.AssertNotCalled(t, "MarkVerifiedTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		sink.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("token consumed by concurrent verify", func(t *testing.T) {
		store := new(MockAccounts)
		repo := new(MockRepositoryManager)
		sink := new(MockActivitySink)

		token := "racing-token"
		account := &accounts.Account{
			ID:                uuid.New(),
			Email:             "racer@example.com",
			VerificationToken: &token,
		}

		repo.On("Accounts").Return(store)
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil).Once()

		store.On("GetByVerificationTokenTx", mock.Anything, mock.Anything, "racing-token").
			Return(account, nil).Once()
		store.On("MarkVerifiedTx", mock.Anything, mock.Anything, account.ID, "racing-token").
			Return(repository.NewRecordNotFound()).Once()

		handler := accounts.NewVerifyAccountHandler(repo,
			accounts.WithVerifyActivitySink(sink),
			accounts.WithVerifyLogger(testLogger{}),
		)

		err := handler.Execute(ctx, accounts.VerifyAccountMessage{Token: "racing-token"})

		assert.ErrorIs(t, err, accounts.ErrInvalidToken)
		sink.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("store timeout surfaces as unavailable", func(t *testing.T) {
		repo := new(MockRepositoryManager)

		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
			Return(context.DeadlineExceeded).Once()

		handler := accounts.NewVerifyAccountHandler(repo,
			accounts.WithVerifyLogger(testLogger{}),
		)

		err := handler.Execute(ctx, accounts.VerifyAccountMessage{Token: "any"})

		assert.ErrorIs(t, err, accounts.ErrStoreUnavailable)

		var richErr *goerrors.Error
		require.ErrorAs(t, err, &richErr)
		assert.Equal(t, accounts.TextCodeStoreUnavailable, richErr.TextCode)
	})

	t.Run("already verified account", func(t *testing.T) {
		store := new(MockAccounts)
		repo := new(MockRepositoryManager)

		account := &accounts.Account{
			ID:         uuid.New(),
			Email:      "done@example.com",
			IsVerified: true,
		}

		repo.On("Accounts").Return(store)
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil).Once()

		store.On("GetByVerificationTokenTx", mock.Anything, mock.Anything, "replayed").
			Return(account, nil).Once()

		handler := accounts.NewVerifyAccountHandler(repo,
			accounts.WithVerifyLogger(testLogger{}),
		)

		err := handler.Execute(ctx, accounts.VerifyAccountMessage{Token: "replayed"})

		assert.ErrorIs(t, err, accounts.ErrInvalidToken)
		store.AssertNotCalled(t, "MarkVerifiedTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := new(MockRepositoryManager)
		handler := accounts.NewVerifyAccountHandler(repo)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := handler.Execute(cancelled, accounts.VerifyAccountMessage{Token: "any"})

		require.Error(t, err)
		repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
	})
}
