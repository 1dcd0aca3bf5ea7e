package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/webwaymark/identity-service/internal/auth"
	"github.com/webwaymark/identity-service/internal/core/domain"
	"github.com/webwaymark/identity-service/internal/core/ports"
)

// RequireAuth guards routes that need an authenticated caller. The header
// must be exactly "<prefix> <token>"; the prefix is a deployment constant
// shared with the trusted frontend, and a wrong prefix is answered exactly
// like a missing token.
//
// On success the resolved user is stored under "current_user". A valid
// token whose subject no longer resolves to a record is passed through with
// a nil user; handlers answer for themselves.
func RequireAuth(tokens ports.TokenIssuer, users ports.UserRepository, prefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token is missing!")
			}

			var token string
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && parts[0] == prefix {
				token = parts[1]
			}
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token is missing!")
			}

			subject, err := tokens.Validate(token)
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				return echo.NewHTTPError(http.StatusUnauthorized, "Token has expired!")
			case err != nil:
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token!")
			}

			user, err := users.FindByID(c.Request().Context(), subject)
			if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
				return err
			}

			c.Set("current_user", user)
			return next(c)
		}
	}
}
