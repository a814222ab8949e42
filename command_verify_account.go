package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type VerifyAccountMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *VerifyAccountResponse)
}

func (e VerifyAccountMessage) Type() string { return "account.verify" }

type VerifyAccountResponse struct {
	Account *Account
	Success bool
}

// VerifyAccountHandler consumes a verification token. Tokens are single use:
// completing the flow clears the stored token, so a replay no longer matches
// any record and fails the same way as a bogus token.
type VerifyAccountHandler struct {
	repo      RepositoryManager
	lifecycle *AccountLifecycle
	activity  ActivitySink
	logger    Logger
}

type VerifyAccountOption func(*VerifyAccountHandler)

func NewVerifyAccountHandler(repo RepositoryManager, opts ...VerifyAccountOption) *VerifyAccountHandler {
	h := &VerifyAccountHandler{
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

func WithVerifyActivitySink(s ActivitySink) VerifyAccountOption {
	return func(h *VerifyAccountHandler) {
		h.activity = normalizeActivitySink(s)
	}
}

func WithVerifyLogger(l Logger) VerifyAccountOption {
	return func(h *VerifyAccountHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func (h *VerifyAccountHandler) Execute(ctx context.Context, event VerifyAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyAccountHandler) execute(ctx context.Context, event VerifyAccountMessage) error {
	account := &Account{}
	resp := &VerifyAccountResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		account, err = h.repo.Accounts().GetByVerificationTokenTx(ctx, tx, event.Token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrInvalidToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up verification token")
		}

		if err := h.lifecycle.CompleteVerification(account); err != nil {
			return err
		}

		if err := h.repo.Accounts().MarkVerifiedTx(ctx, tx, account.ID, event.Token); err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrInvalidToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark account verified")
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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account verification transaction failed")
	}

	if err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventAccountVerified,
		Actor:      ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID:  account.ID.String(),
		Email:      account.Email,
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("failed to record verification activity: %v", err)
	}

	resp.Account = account
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
