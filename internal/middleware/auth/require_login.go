package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campolibero/campo_market/internal/repo"
	"github.com/campolibero/campo_market/internal/service/token"
)

const userContextKey = "user"

// Gate verifies the bearer access token on every request and attaches the
// resolved user to the echo context. Verification is stateless; only the
// identity load touches the store.
type Gate struct {
	Tokens *token.Service
	Repo   *repo.GormRepo
}

func (g *Gate) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		userID, err := g.Tokens.VerifyAccess(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		// Token may outlive the account it was minted for.
		user, err := g.Repo.FindUserByID(c.Request().Context(), userID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}
