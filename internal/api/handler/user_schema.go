package handler

type signUpRequest struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required"`
}

type verifyRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
	OTP      string `json:"otp"      validate:"required"`
}

type logInRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type resetPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type verifyResetOTPRequest struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp"   validate:"required"`
}

// The new-password field is named "pass" on the wire, a quirk the frontend
// depends on.
type newPasswordRequest struct {
	Email    string `json:"email" validate:"required"`
	OTP      string `json:"otp"   validate:"required"`
	Password string `json:"pass"  validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// signupConflictResponse reports which uniqueness checks failed; only the
// fields that apply are present.
type signupConflictResponse struct {
	NameStatus  string `json:"nameStatus,omitempty"`
	EmailStatus string `json:"emailStatus,omitempty"`
}

type accountResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
