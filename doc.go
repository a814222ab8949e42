// Package accounts provides the credential and token lifecycle for an
// account-authentication subsystem: bcrypt password hashing, opaque
// email-verification and password-reset tokens, signed stateless session
// tokens, and the command handlers that orchestrate registration, email
// verification, login, and password recovery.
//
// Collaborators are injected, never reached through globals:
//   - RepositoryManager is the record store for Account rows (bun backed).
//   - Notifier delivers verification and reset messages; a send failure is
//     logged and never rolls back committed account state.
//   - Config carries the signing secret and token parameters; it is read
//     once at construction and the secret is never logged.
//
// Sessions are stateless: validity is a function of signature and expiry
// alone, so logout only clears the client cookie. ActivitySink receives
// best-effort audit events (login success/failure, verification, password
// reset) without blocking authentication.
package accounts
