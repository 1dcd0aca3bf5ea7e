package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AnonymousOnly guards routes reserved for unauthenticated callers. The
// mere presence of an Authorization header is the trigger; the token's
// validity is never examined.
func AnonymousOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(c.Request().Header.Values("Authorization")) > 0 {
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden response!")
			}
			return next(c)
		}
	}
}
