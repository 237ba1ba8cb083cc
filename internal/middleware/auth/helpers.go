package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/campolibero/campo_market/internal/models"
)

// CurrentUser returns the user attached by RequireLogin, or nil.
func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}
