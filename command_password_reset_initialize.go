package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "account.password_reset.init" }

type InitializePasswordResetResponse struct {
	Success bool
}

// InitializePasswordResetHandler starts the forgot-password flow. Unknown
// emails succeed silently so the endpoint cannot be used to probe which
// addresses have accounts. A repeat request replaces the previous token.
type InitializePasswordResetHandler struct {
	repo      RepositoryManager
	lifecycle *AccountLifecycle
	notifier  Notifier
	activity  ActivitySink
	logger    Logger
	resetURL  string
}

type InitializePasswordResetOption func(*InitializePasswordResetHandler)

func NewInitializePasswordResetHandler(repo RepositoryManager, opts ...InitializePasswordResetOption) *InitializePasswordResetHandler {
	h := &InitializePasswordResetHandler{
		repo:      repo,
		lifecycle: NewAccountLifecycle(),
		notifier:  LogNotifier{},
		activity:  noopActivitySink{},
		logger:    defLogger{},
		resetURL:  "/reset-password",
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h
}

func WithResetInitLifecycle(lifecycle *AccountLifecycle) InitializePasswordResetOption {
	return func(h *InitializePasswordResetHandler) {
		if lifecycle != nil {
			h.lifecycle = lifecycle
		}
	}
}

func WithResetInitNotifier(n Notifier) InitializePasswordResetOption {
	return func(h *InitializePasswordResetHandler) {
		h.notifier = normalizeNotifier(n)
	}
}

func WithResetInitActivitySink(s ActivitySink) InitializePasswordResetOption {
	return func(h *InitializePasswordResetHandler) {
		h.activity = normalizeActivitySink(s)
	}
}

func WithResetInitLogger(l Logger) InitializePasswordResetOption {
	return func(h *InitializePasswordResetHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithResetInitURL(url string) InitializePasswordResetOption {
	return func(h *InitializePasswordResetHandler) {
		if url != "" {
			h.resetURL = url
		}
	}
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	account := &Account{}
	resp := &InitializePasswordResetResponse{}
	rawToken := ""
	known := true

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		account, err = h.repo.Accounts().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				known = false
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
		}

		if rawToken, err = h.lifecycle.BeginPasswordReset(account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint reset token")
		}

		criteria := []repository.UpdateCriteria{
			repository.UpdateByID(account.ID.String()),
		}

		if _, err := h.repo.Accounts().UpdateTx(ctx, tx, account, criteria...); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset token")
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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if known {
		subject, body := PasswordResetEmail(h.resetURL, rawToken)
		if err := h.notifier.Send(ctx, account.Email, subject, body); err != nil {
			h.logger.Error("failed to send password reset email: %v", err)
		}

		if err := h.activity.Record(ctx, ActivityEvent{
			EventType:  ActivityEventPasswordResetRequest,
			Actor:      ActorRef{Type: "anonymous"},
			AccountID:  account.ID.String(),
			Email:      account.Email,
			OccurredAt: time.Now(),
		}); err != nil {
			h.logger.Warn("failed to record reset request activity: %v", err)
		}
	}

	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
