package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/webwaymark/identity-service/internal/core/domain"
	"github.com/webwaymark/identity-service/internal/core/ports"
)

// UserHandler exposes the signup, login, and password-reset flows. Error
// wording is part of the contract with the frontend; anything not mapped
// here falls through to the central error handler.
type UserHandler struct {
	identity ports.IdentityService
}

func NewUserHandler(identity ports.IdentityService) *UserHandler {
	return &UserHandler{identity: identity}
}

// SignUp requests a signup OTP.
//
// @Summary      Request a signup OTP
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Display name and email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  signupConflictResponse
// @Failure      500   {object}  map[string]string
// @Router       /users/sign-up [post]
func (h *UserHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Name and email are required.")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Name and email are required.")
	}

	if err := h.identity.RequestSignup(c.Request().Context(), req.Name, req.Email); err != nil {
		var conflict *domain.SignupConflictError
		if errors.As(err, &conflict) {
			resp := signupConflictResponse{}
			if conflict.NameTaken {
				resp.NameStatus = "Username already taken."
			}
			if conflict.EmailTaken {
				resp.EmailStatus = "Email already taken."
			}
			return c.JSON(http.StatusConflict, resp)
		}
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "OTP sent to email."})
}

// Verify confirms a signup OTP and creates the account.
//
// @Summary      Confirm signup with the emailed OTP
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      verifyRequest  true  "Signup confirmation"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /users/verify [post]
func (h *UserHandler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials!")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials!")
	}

	if err := h.identity.ConfirmSignup(c.Request().Context(), req.Name, req.Email, req.Password, req.OTP); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Signup successful."})
}

// LogIn authenticates a user and returns a bearer token.
//
// @Summary      Log in
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      logInRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /users/log-in [post]
func (h *UserHandler) LogIn(c echo.Context) error {
	var req logInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials!")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials!")
	}

	token, err := h.identity.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// ResetPassword requests a password-reset OTP.
//
// @Summary      Request a password-reset OTP
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /users/reset-password [post]
func (h *UserHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials!")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials!")
	}

	if err := h.identity.RequestReset(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "OTP sent to email."})
}

// VerifyResetOTP checks a reset OTP without consuming it.
//
// @Summary      Check a password-reset OTP
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      verifyResetOTPRequest  true  "Email and OTP"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /users/verify-reset-otp [post]
func (h *UserHandler) VerifyResetOTP(c echo.Context) error {
	var req verifyResetOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials!")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials!")
	}

	if err := h.identity.VerifyResetOTP(c.Request().Context(), req.Email, req.OTP); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Otp matched."})
}

// NewPassword re-validates the reset OTP and overwrites the password.
//
// @Summary      Set a new password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      newPasswordRequest  true  "Email, OTP, new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /users/new-password [post]
func (h *UserHandler) NewPassword(c echo.Context) error {
	var req newPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials!")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials!")
	}

	err := h.identity.ApplyNewPassword(c.Request().Context(), req.Email, req.OTP, req.Password)
	if err != nil {
		// This step keeps its own historical wording for OTP failures.
		if errors.Is(err, domain.ErrOTPExpired) || errors.Is(err, domain.ErrUnknownEmail) {
			return echo.NewHTTPError(http.StatusBadRequest, "Something went wrong!")
		}
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Password changed."})
}

// Account returns the authenticated user's profile.
//
// @Summary      Current account
// @Tags         users
// @Produce      json
// @Security     PrefixAuth
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  map[string]string
// @Router       /users/account [get]
func (h *UserHandler) Account(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		// Valid token, but the subject no longer resolves to a record.
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token!")
	}

	return c.JSON(http.StatusOK, accountResponse{
		Name:  user.Username,
		Email: user.Email,
	})
}
