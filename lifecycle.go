package accounts

import (
	"strings"
	"time"
)

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = 10 * time.Minute

// AccountLifecycle governs the legal transitions of an account's
// verification and password-reset fields. The two token classes never share
// a column and are invalidated independently. The lifecycle mutates records
// in memory only; persisting the result is the caller's job.
type AccountLifecycle struct {
	tokens TokenSource
	now    func() time.Time
}

// LifecycleOption customizes lifecycle construction.
type LifecycleOption func(*AccountLifecycle)

// WithLifecycleClock injects a custom clock (useful for tests).
func WithLifecycleClock(clock func() time.Time) LifecycleOption {
	return func(l *AccountLifecycle) {
		if clock != nil {
			l.now = clock
		}
	}
}

// WithLifecycleTokenSource overrides how opaque tokens are minted. A nil
// source keeps the default.
func WithLifecycleTokenSource(src TokenSource) LifecycleOption {
	return func(l *AccountLifecycle) {
		l.tokens = resolveTokenSource(src)
	}
}

// NewAccountLifecycle returns the default lifecycle.
func NewAccountLifecycle(opts ...LifecycleOption) *AccountLifecycle {
	l := &AccountLifecycle{
		tokens: resolveTokenSource(nil),
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// BeginVerification stamps a fresh verification token on an unverified
// account and returns the raw token for the outbound notification. The raw
// value is never logged and never returned across the HTTP boundary.
func (l *AccountLifecycle) BeginVerification(account *Account) (string, error) {
	if account == nil {
		return "", ErrAccountNotFound
	}
	if account.IsVerified {
		return "", ErrInvalidToken
	}

	raw, err := l.tokens()
	if err != nil {
		return "", err
	}

	account.IsVerified = false
	account.VerificationToken = &raw

	return raw, nil
}

// CompleteVerification consumes the pending verification token. Tokens are
// single use: once cleared, replaying the same token must fail upstream
// because the lookup no longer matches any record.
func (l *AccountLifecycle) CompleteVerification(account *Account) error {
	if account == nil || !account.VerificationPending() {
		return ErrInvalidToken
	}

	account.IsVerified = true
	account.VerificationToken = nil

	return nil
}

// BeginPasswordReset stamps a fresh reset token plus expiry and returns the
// raw token. A repeat request replaces the previous pair wholesale, keeping
// the set-together invariant.
func (l *AccountLifecycle) BeginPasswordReset(account *Account) (string, error) {
	if account == nil {
		return "", ErrAccountNotFound
	}

	raw, err := l.tokens()
	if err != nil {
		return "", err
	}

	expires := l.now().Add(ResetTokenTTL)
	account.ResetPasswordToken = &raw
	account.ResetPasswordExpires = &expires

	return raw, nil
}

// CompletePasswordReset swaps in the new password hash and clears both reset
// fields. It fails if no reset is pending or the token is past its expiry.
func (l *AccountLifecycle) CompletePasswordReset(account *Account, passwordHash string) error {
	if account == nil || !account.ResetPending() {
		return ErrInvalidOrExpiredToken
	}

	if l.ResetExpired(account) {
		return ErrInvalidOrExpiredToken
	}

	account.PasswordHash = passwordHash
	account.ResetPasswordToken = nil
	account.ResetPasswordExpires = nil

	return nil
}

// ResetExpired reports whether the pending reset is past its expiry.
func (l *AccountLifecycle) ResetExpired(account *Account) bool {
	if account == nil || account.ResetPasswordExpires == nil {
		return true
	}
	return !account.ResetPasswordExpires.After(l.now())
}

// NormalizeEmail fixes the email case policy at creation: lowercased and
// trimmed, matching the unique index on the store.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
