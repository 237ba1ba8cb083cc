package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campolibero/campo_market/internal/models"
)

// RequireGestore is the single place the role tag is compared. It must run
// behind RequireLogin.
func (g *Gate) RequireGestore(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}
		if user.Role != models.RoleGestore {
			return echo.NewHTTPError(http.StatusForbidden, "gestore role required")
		}
		return next(c)
	}
}
