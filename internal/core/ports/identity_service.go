package ports

import "context"

// IdentityService orchestrates the OTP-gated signup, login, and
// password-reset flows. All flows are keyed by email; at most one live OTP
// exists per email at any time.
type IdentityService interface {
	// RequestSignup checks username/email availability, then generates,
	// delivers, and stores an OTP. Nothing is stored if delivery fails.
	RequestSignup(ctx context.Context, name, email string) error

	// ConfirmSignup consumes a matching OTP and creates the account. A
	// wrong or missing code reports domain.ErrOTPExpired; a name or email
	// claimed since the request reports domain.ErrTaken and keeps the OTP
	// alive for a retry.
	ConfirmSignup(ctx context.Context, name, email, password, otp string) error

	// Login verifies credentials and returns a signed bearer token.
	// Unknown email and wrong password are indistinguishable.
	Login(ctx context.Context, email, password string) (string, error)

	// RequestReset generates, delivers, and stores an OTP for a known
	// email address.
	RequestReset(ctx context.Context, email string) error

	// VerifyResetOTP is a pure read; it does not consume the code.
	VerifyResetOTP(ctx context.Context, email, otp string) error

	// ApplyNewPassword re-validates the OTP, overwrites the password
	// hash, and consumes the code.
	ApplyNewPassword(ctx context.Context, email, otp, password string) error
}
