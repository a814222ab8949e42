package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	UseHashid  bool
	OnResponse func(resp *RegisterAccountResponse)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

type RegisterAccountResponse struct {
	Account *Account
	Success bool
}

// RegisterAccountHandler creates a new unverified account and sends the
// verification email. The email goes out after the transaction commits so a
// failed insert never leaks a token.
type RegisterAccountHandler struct {
	repo      RepositoryManager
	lifecycle *AccountLifecycle
	notifier  Notifier
	activity  ActivitySink
	logger    Logger
	verifyURL string
}

type RegisterAccountOption func(*RegisterAccountHandler)

func NewRegisterAccountHandler(repo RepositoryManager, opts ...RegisterAccountOption) *RegisterAccountHandler {
	h := &RegisterAccountHandler{
		repo:      repo,
		lifecycle: NewAccountLifecycle(),
		notifier:  LogNotifier{},
		activity:  noopActivitySink{},
		logger:    defLogger{},
		verifyURL: "/verify",
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h
}

func WithRegisterLifecycle(lifecycle *AccountLifecycle) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		if lifecycle != nil {
			h.lifecycle = lifecycle
		}
	}
}

func WithRegisterNotifier(n Notifier) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		h.notifier = normalizeNotifier(n)
	}
}

func WithRegisterActivitySink(s ActivitySink) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		h.activity = normalizeActivitySink(s)
	}
}

func WithRegisterLogger(l Logger) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithRegisterVerifyURL(url string) RegisterAccountOption {
	return func(h *RegisterAccountHandler) {
		if url != "" {
			h.verifyURL = url
		}
	}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	account := &Account{}
	resp := &RegisterAccountResponse{}
	rawToken := ""

	role := RoleUser
	if event.Role != "" {
		parsed, ok := ParseRole(event.Role)
		if !ok {
			return goerrors.New("invalid account role requested", goerrors.CategoryValidation).
				WithTextCode("INVALID_ROLE").
				WithCode(goerrors.CodeBadRequest).
				WithMetadata(map[string]any{"role": event.Role})
		}
		role = parsed
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		account.PasswordHash = hash
		account.Name = event.Name
		account.Email = event.Email
		account.Role = role
		if event.UseHashid {
			if id, err := hashid.NewUUID(NormalizeEmail(event.Email)); err == nil {
				account.ID = id
			}
		}

		if rawToken, err = h.lifecycle.BeginVerification(account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint verification token")
		}

		if account, err = h.repo.Accounts().CreateTx(ctx, tx, account); err != nil {
			if IsDuplicateEmail(err) {
				return ErrDuplicateEmail
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
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

		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	subject, body := VerificationEmail(h.verifyURL, rawToken)
	if err := h.notifier.Send(ctx, account.Email, subject, body); err != nil {
		h.logger.Error("failed to send verification email: %v", err)
	}

	if err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventAccountRegistered,
		Actor:      ActorRef{Type: "anonymous"},
		AccountID:  account.ID.String(),
		Email:      account.Email,
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("failed to record registration activity: %v", err)
	}

	resp.Account = account
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
