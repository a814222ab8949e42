package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the identity record. Password hashes and token columns never
// serialize to JSON; callers hand out PublicProfile instead.
//
// Invariants the lifecycle enforces:
//   - VerificationToken is present only while verification is pending and is
//     cleared the moment IsVerified flips to true.
//   - ResetPasswordToken and ResetPasswordExpires are both set or both absent.
type Account struct {
	bun.BaseModel        `bun:"table:accounts,alias:acc"`
	ID                   uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role                 AccountRole `bun:"role,notnull" json:"role,omitempty"`
	Name                 string      `bun:"name,notnull" json:"name,omitempty"`
	Email                string      `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash         string      `bun:"password_hash" json:"-"`
	IsVerified           bool        `bun:"is_verified" json:"is_verified,omitempty"`
	VerificationToken    *string     `bun:"verification_token,nullzero" json:"-"`
	ResetPasswordToken   *string     `bun:"reset_password_token,nullzero" json:"-"`
	ResetPasswordExpires *time.Time  `bun:"reset_password_expires,nullzero" json:"-"`
	LoginAttempts        int         `bun:"login_attempts" json:"-"`
	LoginAttemptAt       *time.Time  `bun:"login_attempt_at" json:"-"`
	LoggedInAt           *time.Time  `bun:"loggedin_at" json:"-"`
	CreatedAt            *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt            *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt            *time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// VerificationPending reports whether the account still holds an unconsumed
// verification token.
func (a *Account) VerificationPending() bool {
	return !a.IsVerified && a.VerificationToken != nil && *a.VerificationToken != ""
}

// ResetPending reports whether a password reset token is outstanding.
// Both reset fields must be present, a half-set pair is treated as absent.
func (a *Account) ResetPending() bool {
	return a.ResetPasswordToken != nil && *a.ResetPasswordToken != "" &&
		a.ResetPasswordExpires != nil
}

// PublicProfile is the caller-safe projection of an Account.
type PublicProfile struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       AccountRole `json:"role"`
	IsVerified bool        `json:"is_verified"`
}

// Profile returns the caller-safe projection of the account.
func (a *Account) Profile() *PublicProfile {
	return &PublicProfile{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		Role:       a.Role,
		IsVerified: a.IsVerified,
	}
}
