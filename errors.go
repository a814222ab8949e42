package accounts

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeDuplicateEmail        = "DUPLICATE_EMAIL"
	TextCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	TextCodeEmailNotVerified      = "EMAIL_NOT_VERIFIED"
	TextCodeInvalidToken          = "INVALID_TOKEN"
	TextCodeInvalidOrExpiredToken = "INVALID_OR_EXPIRED_TOKEN"
	TextCodeUnauthenticated       = "UNAUTHENTICATED"
	TextCodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	TextCodeStoreUnavailable      = "STORE_UNAVAILABLE"
	TextCodeTokenExpired          = "TOKEN_EXPIRED"
	TextCodeTokenMalformed        = "TOKEN_MALFORMED"
	TextCodeTooManyLoginAttempts  = "TOO_MANY_LOGIN_ATTEMPTS"
)

// ErrDuplicateEmail is returned when registration hits the email uniqueness constraint.
var ErrDuplicateEmail = goerrors.New("an account with that email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is the uniform login failure: the caller cannot tell
// whether the email or the password was wrong.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailNotVerified is returned when credentials check out but the account
// has not completed email verification.
var ErrEmailNotVerified = goerrors.New("email address has not been verified", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(goerrors.CodeForbidden)

// ErrInvalidToken is returned for unknown or already consumed verification tokens.
var ErrInvalidToken = goerrors.New("invalid verification token", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidOrExpiredToken is returned for unknown, consumed, or expired
// password reset tokens; the three cases are indistinguishable to the caller.
var ErrInvalidOrExpiredToken = goerrors.New("invalid or expired password reset token", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidOrExpiredToken).
	WithCode(goerrors.CodeBadRequest)

// ErrUnauthenticated is the uniform session failure surfaced to end callers.
var ErrUnauthenticated = goerrors.New("authentication failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountNotFound covers the stale-session case: a valid token whose
// subject no longer exists.
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrStoreUnavailable marks transient record store failures; callers may
// retry, this package never does.
var ErrStoreUnavailable = goerrors.New("record store unavailable", goerrors.CategoryOperation).
	WithTextCode(TextCodeStoreUnavailable).
	WithCode(goerrors.CodeInternal)

// ErrTokenExpired is returned when a session token is past its expiry.
var ErrTokenExpired = goerrors.New("session token has expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail structural or signature checks.
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned once the attempt counter passes
// MaxLoginAttempts within the cooldown window.
var ErrTooManyLoginAttempts = goerrors.New("too many failed login attempts", goerrors.CategoryAuth).
	WithTextCode(TextCodeTooManyLoginAttempts).
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch; the provider
// folds it into ErrInvalidCredentials before it reaches a caller.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match hash", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// ErrIdentityNotFound is the internal miss for identity lookups.
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims")

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data")

// IsTransientStoreError reports whether err is a transient store failure: a
// deadline hit, a closed connection, or a driver-level bad connection. These
// surface to callers as ErrStoreUnavailable.
func IsTransientStoreError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, sql.ErrTxDone) ||
		errors.Is(err, driver.ErrBadConn)
}

// IsTokenExpiredError will check for expired tokens, including third party
// JWT errors that only expose a message.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
