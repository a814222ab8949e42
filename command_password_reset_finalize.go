package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token      string `json:"token"`
	Password   string `json:"password"`
	OnResponse func(resp *FinalizePasswordResetResponse)
}

func (p FinalizePasswordResetMessage) Type() string { return "account.password_reset.finalize" }

type FinalizePasswordResetResponse struct {
	Account *Account
	Success bool
}

// FinalizePasswordResetHandler completes the reset flow: it matches the
// opaque token, checks the expiry window, and swaps in the new password
// hash while clearing both reset fields in one statement. Expired and
// unknown tokens are indistinguishable to the caller.
type FinalizePasswordResetHandler struct {
	repo      RepositoryManager
	lifecycle *AccountLifecycle
	activity  ActivitySink
	logger    Logger
}

type FinalizePasswordResetOption func(*FinalizePasswordResetHandler)

func NewFinalizePasswordResetHandler(repo RepositoryManager, opts ...FinalizePasswordResetOption) *FinalizePasswordResetHandler {
	h := &FinalizePasswordResetHandler{
		repo:      repo,
		lifecycle: NewAccountLifecycle(),
		activity:  noopActivitySink{},
		logger:    defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h
}

func WithResetFinalizeLifecycle(lifecycle *AccountLifecycle) FinalizePasswordResetOption {
	return func(h *FinalizePasswordResetHandler) {
		if lifecycle != nil {
			h.lifecycle = lifecycle
		}
	}
}

func WithResetFinalizeActivitySink(s ActivitySink) FinalizePasswordResetOption {
	return func(h *FinalizePasswordResetHandler) {
		h.activity = normalizeActivitySink(s)
	}
}

func WithResetFinalizeLogger(l Logger) FinalizePasswordResetOption {
	return func(h *FinalizePasswordResetHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	account := &Account{}
	resp := &FinalizePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		account, err = h.repo.Accounts().GetByResetTokenTx(ctx, tx, event.Token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrInvalidOrExpiredToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up reset token")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		if err := h.lifecycle.CompletePasswordReset(account, hash); err != nil {
			return err
		}

		if err := h.repo.Accounts().ResetPasswordTx(ctx, tx, account.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist new password")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		if IsTransientStoreError(err) {
			return ErrStoreUnavailable
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset transaction failed")
	}

	if err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventPasswordResetSuccess,
		Actor:      ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID:  account.ID.String(),
		Email:      account.Email,
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("failed to record password reset activity: %v", err)
	}

	resp.Account = account
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
