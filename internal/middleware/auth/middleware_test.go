package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campolibero/campo_market/internal/models"
	"github.com/campolibero/campo_market/internal/repo"
	"github.com/campolibero/campo_market/internal/service/token"
)

func newTestGate(t *testing.T) (*Gate, *models.User) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))

	r := repo.New(db)
	user := &models.User{
		Username:     "ana",
		Email:        "ana@x.com",
		PasswordHash: "x",
		Role:         models.RoleGestore,
	}
	require.NoError(t, r.CreateUser(context.Background(), user))

	return &Gate{
		Tokens: token.New(r, []byte("access"), []byte("refresh")),
		Repo:   r,
	}, user
}

func run(g *Gate, header string, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return rec, h(c)
}

func TestRequireLoginMissingHeader(t *testing.T) {
	g, _ := newTestGate(t)

	for _, header := range []string{"", "Basic abc", "token-without-scheme"} {
		_, err := run(g, header, g.RequireLogin)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		require.Equal(t, http.StatusUnauthorized, he.Code)
	}
}

func TestRequireLoginBadToken(t *testing.T) {
	g, _ := newTestGate(t)

	_, err := run(g, "Bearer not-a-jwt", g.RequireLogin)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLoginAttachesUser(t *testing.T) {
	g, user := newTestGate(t)

	pair, err := g.Tokens.IssuePair(context.Background(), user.ID)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.Access)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err = g.RequireLogin(func(c echo.Context) error {
		called = true
		got := CurrentUser(c)
		require.NotNil(t, got)
		require.Equal(t, user.ID, got.ID)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	require.True(t, called)
}

func TestRequireLoginDeletedUser(t *testing.T) {
	g, user := newTestGate(t)

	pair, err := g.Tokens.IssuePair(context.Background(), user.ID)
	require.NoError(t, err)

	// Token can outlive the account.
	require.NoError(t, g.Repo.DB.Delete(&models.User{}, "id = ?", user.ID).Error)

	_, err = run(g, "Bearer "+pair.Access, g.RequireLogin)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireGestore(t *testing.T) {
	g, user := newTestGate(t)

	pair, err := g.Tokens.IssuePair(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = run(g, "Bearer "+pair.Access, g.RequireLogin, g.RequireGestore)
	require.NoError(t, err)

	// Demote and retry: the gate must answer 403.
	require.NoError(t, g.Repo.DB.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("role", models.RoleUser).Error)

	_, err = run(g, "Bearer "+pair.Access, g.RequireLogin, g.RequireGestore)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}
