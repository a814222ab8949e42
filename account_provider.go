package accounts

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// AccountTracker is the store slice the provider needs to authenticate
type AccountTracker interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*Account, error)
	TrackAttemptedLogin(ctx context.Context, account *Account) error
	TrackSuccessfulLogin(ctx context.Context, account *Account) error
}

// MaxLoginAttempts is the maximum number of attempts an account gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the window in which we enforce a cool down
var CoolDownPeriod = 24 * time.Hour

// AccountProvider resolves identities against the account store. Failed
// lookups and failed password checks produce the same error so callers
// cannot tell registered emails from unknown ones.
type AccountProvider struct {
	store     AccountTracker
	Validator func(*Account) error
	logger    Logger
}

// NewAccountProvider will create a new AccountProvider
func NewAccountProvider(store AccountTracker) *AccountProvider {
	return &AccountProvider{
		store:     store,
		logger:    defLogger{},
		Validator: defaultAccountValidator,
	}
}

func (p *AccountProvider) WithLogger(l Logger) *AccountProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

func (p *AccountProvider) validate(account *Account) error {
	if p.Validator != nil {
		return p.Validator(account)
	}
	return defaultAccountValidator(account)
}

// VerifyIdentity will find the account, compare to the password, and return
// the identity. A bcrypt compare runs even when the email is unknown so both
// failure paths cost about the same.
func (p AccountProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, error) {
	account, err := p.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.IsNotFound(err) {
			_ = ComparePasswordAndHash(password, RandomPasswordHash())
			return nil, ErrInvalidCredentials
		}
		if IsTransientStoreError(err) {
			return nil, ErrStoreUnavailable
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account during verification")
	}

	if account == nil {
		return nil, ErrIdentityNotFound
	}

	if account.LoginAttemptAt != nil {
		if IsOutsideThresholdPeriod(*account.LoginAttemptAt, CoolDownPeriod) {
			account.LoginAttempts = 0
		}
	}

	// too many attempts in the given window, cool off
	if account.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		if err2 := p.store.TrackAttemptedLogin(ctx, account); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrInvalidCredentials
	}

	if !account.IsVerified {
		return nil, ErrEmailNotVerified
	}

	if err := p.store.TrackSuccessfulLogin(ctx, account); err != nil {
		p.logger.Error("failed to track successful login: %v", err)
	}

	if err := p.validate(account); err != nil {
		return nil, err
	}

	return identityFromAccount(account), nil
}

// FindIdentityByIdentifier resolves a session subject back to an identity.
// The identifier can be the account UUID or the email.
func (p AccountProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	account, err := p.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if account == nil {
		return nil, ErrIdentityNotFound
	}

	if err := p.validate(account); err != nil {
		return nil, err
	}

	return identityFromAccount(account), nil
}

type authIdentity struct {
	id    string
	name  string
	email string
	role  string
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Name() string {
	return a.name
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Role() string {
	return a.role
}

var _ Identity = authIdentity{}

func identityFromAccount(account *Account) authIdentity {
	return authIdentity{
		id:    account.ID.String(),
		name:  account.Name,
		email: account.Email,
		role:  string(account.Role),
	}
}

func defaultAccountValidator(a *Account) error {
	switch a.Role {
	case RoleAdmin, RoleUser:
		return nil
	default:
		return errors.New("account has an unknown or invalid role", errors.CategoryAuth).
			WithTextCode("INVALID_ROLE").
			WithMetadata(map[string]any{"role": a.Role, "account_id": a.ID.String()})
	}
}
