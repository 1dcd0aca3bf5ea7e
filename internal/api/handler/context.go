package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/webwaymark/identity-service/internal/core/domain"
)

// currentUser returns the account resolved by the RequireAuth middleware.
// It is nil when the token was valid but its subject no longer resolves to
// a record (deleted after issuance).
func currentUser(c echo.Context) *domain.User {
	user, _ := c.Get("current_user").(*domain.User)
	return user
}
