package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/webwaymark/identity-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes and
//     the exact wording the frontend expects.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (handler-raised HTTPErrors, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors get a deterministic status + message. Several
	// distinct causes share one message; the wording is part of the
	// frontend contract.
	switch {
	case errors.Is(err, domain.ErrFieldsRequired):
		return http.StatusBadRequest, "Name and email are required."
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid credentials!"
	case errors.Is(err, domain.ErrOTPExpired):
		return http.StatusBadRequest, "Timeout or invalid OTP."
	case errors.Is(err, domain.ErrTaken):
		return http.StatusBadRequest, "Please check username and email again."
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials!"
	case errors.Is(err, domain.ErrUnknownEmail):
		return http.StatusBadRequest, "Please check your email address."
	case errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusInternalServerError, "Failed to send OTP."
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusUnauthorized, "Invalid token!"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
