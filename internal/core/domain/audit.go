package domain

import "time"

// AuthEventKind labels a security-relevant action in the identity flows.
type AuthEventKind string

const (
	AuditOTPRequested    AuthEventKind = "otp_requested"
	AuditSignupCompleted AuthEventKind = "signup_completed"
	AuditLoginSucceeded  AuthEventKind = "login_succeeded"
	AuditLoginFailed     AuthEventKind = "login_failed"
	AuditResetRequested  AuthEventKind = "reset_requested"
	AuditPasswordChanged AuthEventKind = "password_changed"
)

// AuthEvent is one entry in the auth audit trail. Events are recorded
// best-effort: a failed insert never fails the user-facing request.
type AuthEvent struct {
	Email string
	Kind  AuthEventKind
	At    time.Time
}
