package accounts

import (
	"context"
	"fmt"
)

// Notifier delivers account emails: verification links and password reset
// links. Delivery failures never roll back the transaction that minted the
// token; callers log and move on, the account can re-request.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, to, subject, body string) error

// Send implements Notifier.
func (f NotifierFunc) Send(ctx context.Context, to, subject, body string) error {
	if f == nil {
		return nil
	}
	return f(ctx, to, subject, body)
}

// LogNotifier writes outbound messages to the logger instead of delivering
// them. Meant for development and tests. Token-bearing bodies go to Debug so
// production log levels never capture raw tokens by accident.
type LogNotifier struct {
	Logger Logger
}

func (n LogNotifier) Send(_ context.Context, to, subject, body string) error {
	logger := n.Logger
	if logger == nil {
		logger = defLogger{}
	}
	logger.Info("notify to=%s subject=%q", to, subject)
	logger.Debug("notify body: %s", body)
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return NotifierFunc(nil)
	}
	return n
}

// VerificationEmail builds the subject and body for an account verification
// message. The base URL should point at the host application's verify route.
func VerificationEmail(baseURL, token string) (subject, body string) {
	subject = "Verify your account"
	body = fmt.Sprintf("Welcome! Confirm your email by visiting: %s/%s", baseURL, token)
	return subject, body
}

// PasswordResetEmail builds the subject and body for a password reset
// message. The link stops working once the reset window lapses.
func PasswordResetEmail(baseURL, token string) (subject, body string) {
	subject = "Reset your password"
	body = fmt.Sprintf("A password reset was requested for your account. Follow this link to choose a new password: %s/%s\n\nThe link expires in %s. If you did not request this, you can ignore this message.", baseURL, token, ResetTokenTTL)
	return subject, body
}
