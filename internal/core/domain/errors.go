package domain

import "errors"

// Sentinel errors shared by the service layer, the repositories, and the
// HTTP error handler. Client-facing wording lives in the API layer.
var (
	// ErrFieldsRequired rejects a signup request missing name or email.
	ErrFieldsRequired = errors.New("name and email are required")

	// ErrInvalidInput rejects any other request with missing fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOTPExpired covers both "no live code" and "wrong code". The two
	// cases are deliberately indistinguishable to the caller.
	ErrOTPExpired = errors.New("otp expired or invalid")

	// ErrTaken signals that the username or email was claimed between the
	// OTP request and its confirmation. The pending code is kept so the
	// caller can retry with a different name.
	ErrTaken = errors.New("username or email already taken")

	// ErrInvalidCredentials covers both unknown email and wrong password
	// on login; the two are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnknownEmail rejects a password reset for an unregistered address.
	ErrUnknownEmail = errors.New("unknown email address")

	// ErrDeliveryFailed signals that the OTP email could not be sent.
	ErrDeliveryFailed = errors.New("otp delivery failed")

	// ErrUserNotFound is the repository-level absence signal.
	ErrUserNotFound = errors.New("user not found")

	// ErrCodeNotFound is the ephemeral store's absence signal. Expired,
	// deleted, and never-set keys all report it.
	ErrCodeNotFound = errors.New("verification code not found")
)

// SignupConflictError reports which uniqueness checks failed during a
// signup request. Both flags may be set at once; they are surfaced
// independently to the client.
type SignupConflictError struct {
	NameTaken  bool
	EmailTaken bool
}

func (e *SignupConflictError) Error() string {
	switch {
	case e.NameTaken && e.EmailTaken:
		return "username and email already taken"
	case e.NameTaken:
		return "username already taken"
	case e.EmailTaken:
		return "email already taken"
	}
	return "signup conflict"
}

// Conflict reports whether any uniqueness check failed.
func (e *SignupConflictError) Conflict() bool {
	return e.NameTaken || e.EmailTaken
}

var _ error = (*SignupConflictError)(nil)
