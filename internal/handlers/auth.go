package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campolibero/campo_market/internal/apperr"
	"github.com/campolibero/campo_market/internal/events"
	"github.com/campolibero/campo_market/internal/hash"
	"github.com/campolibero/campo_market/internal/logging"
	mwauth "github.com/campolibero/campo_market/internal/middleware/auth"
	"github.com/campolibero/campo_market/internal/models"
	"github.com/campolibero/campo_market/internal/repo"
	"github.com/campolibero/campo_market/internal/service/token"
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type AuthHandler struct {
	Repo     *repo.GormRepo
	Tokens   *token.Service
	Producer *events.Producer
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func publicUser(u *models.User) userResponse {
	return userResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if len(req.Username) < 3 {
		return echo.NewHTTPError(http.StatusBadRequest, "username must be at least 3 characters")
	}
	if !emailRe.MatchString(req.Email) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(req.Password) < 6 {
		return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 6 characters")
	}

	role := models.RoleUser
	if req.Role == models.RoleGestore {
		role = models.RoleGestore
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("hash password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := h.Repo.CreateUser(c.Request().Context(), &user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return echo.NewHTTPError(http.StatusBadRequest, "email or username already registered")
		}
		logging.FromContext(c.Request().Context()).Error("create user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}

	pair, err := h.Tokens.IssuePair(c.Request().Context(), user.ID)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("issue token pair", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}

	publishEvent(c, h.Producer, events.TopicUserEvents, user.ID.String(), map[string]interface{}{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"token":        pair.Access,
		"refreshToken": pair.Refresh,
		"user":         publicUser(&user),
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	// Unknown email and wrong password must be indistinguishable.
	user, err := h.Repo.FindUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		logging.FromContext(c.Request().Context()).Error("find user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	pair, err := h.Tokens.IssuePair(c.Request().Context(), user.ID)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("issue token pair", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	publishEvent(c, h.Producer, events.TopicUserEvents, user.ID.String(), map[string]interface{}{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"token":        pair.Access,
		"refreshToken": pair.Refresh,
		"user":         publicUser(user),
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": publicUser(user)})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	pair, err := h.Tokens.Rotate(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired refresh token")
		}
		logging.FromContext(c.Request().Context()).Error("rotate refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "refresh failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token":        pair.Access,
		"refreshToken": pair.Refresh,
	})
}

// Logout is idempotent: revoking an unknown or already-deleted token still
// answers 200.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		if err := h.Tokens.Revoke(c.Request().Context(), req.RefreshToken); err != nil {
			logging.FromContext(c.Request().Context()).Error("revoke refresh token", "error", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
