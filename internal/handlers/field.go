package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/campolibero/campo_market/internal/apperr"
	"github.com/campolibero/campo_market/internal/events"
	"github.com/campolibero/campo_market/internal/logging"
	mwauth "github.com/campolibero/campo_market/internal/middleware/auth"
	"github.com/campolibero/campo_market/internal/models"
	"github.com/campolibero/campo_market/internal/repo"
	"github.com/campolibero/campo_market/internal/util"
)

const defaultFieldImage = "https://www.sporteimpianti.it/wp-content/uploads/2022/03/futsal-banner-mast-pero.jpg"

type FieldHandler struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
}

type gestoreResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type fieldResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	City        string           `json:"city"`
	Address     string           `json:"address"`
	Price       float64          `json:"price"`
	Image       string           `json:"image"`
	Gestore     *gestoreResponse `json:"gestore,omitempty"`
	Likes       []string         `json:"likes,omitempty"`
	LikesCount  int              `json:"likes_count"`
	CreatedAt   string           `json:"created_at"`
}

func (h *FieldHandler) fieldWithOwner(c echo.Context, f *models.Field) fieldResponse {
	resp := fieldResponse{
		ID:          f.ID.String(),
		Name:        f.Name,
		Description: f.Description,
		City:        f.City,
		Address:     f.Address,
		Price:       f.Price,
		Image:       f.Image,
		CreatedAt:   f.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if owner, err := h.Repo.FindUserByID(c.Request().Context(), f.GestoreID); err == nil {
		resp.Gestore = &gestoreResponse{
			ID:       owner.ID.String(),
			Username: owner.Username,
			Email:    owner.Email,
		}
	}
	return resp
}

func (h *FieldHandler) fieldWithLikes(c echo.Context, f *models.Field) fieldResponse {
	resp := h.fieldWithOwner(c, f)
	if likers, err := h.Repo.FieldLikers(c.Request().Context(), f.ID); err == nil {
		names := make([]string, len(likers))
		for i, u := range likers {
			names[i] = u.Username
		}
		resp.Likes = names
		resp.LikesCount = len(names)
	}
	return resp
}

func parseFieldID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid field id")
	}
	return id, nil
}

func (h *FieldHandler) GetFields(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	items, total, err := h.Repo.ListFields(c.Request().Context(), offset, limit)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("list fields", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load fields")
	}

	resp := make([]fieldResponse, len(items))
	for i := range items {
		resp[i] = h.fieldWithOwner(c, &items[i])
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count":  total,
		"fields": resp,
		"meta": echo.Map{
			"page":     page,
			"size":     limit,
			"has_next": int64(offset+limit) < total,
		},
	})
}

func (h *FieldHandler) GetField(c echo.Context) error {
	id, err := parseFieldID(c)
	if err != nil {
		return err
	}

	field, err := h.Repo.FindFieldByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "field not found")
		}
		logging.FromContext(c.Request().Context()).Error("find field", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load field")
	}

	return c.JSON(http.StatusOK, h.fieldWithLikes(c, field))
}

func (h *FieldHandler) CreateField(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		City        string  `json:"city"`
		Address     string  `json:"address"`
		Price       float64 `json:"price"`
		Image       string  `json:"image"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Name == "" || req.City == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and city are required")
	}
	if len(req.Description) > 500 {
		return echo.NewHTTPError(http.StatusBadRequest, "description too long, at most 500 characters")
	}
	if req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price cannot be negative")
	}
	if req.Image == "" {
		req.Image = defaultFieldImage
	}

	field := models.Field{
		Name:        req.Name,
		Description: req.Description,
		City:        req.City,
		Address:     req.Address,
		Price:       req.Price,
		Image:       req.Image,
		GestoreID:   user.ID,
	}
	if err := h.Repo.CreateField(c.Request().Context(), &field); err != nil {
		logging.FromContext(c.Request().Context()).Error("create field", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create field")
	}

	publishEvent(c, h.Producer, events.TopicFieldEvents, field.ID.String(), map[string]interface{}{
		"type":     "field_created",
		"field_id": field.ID,
		"user_id":  user.ID,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "field created",
		"field":   h.fieldWithOwner(c, &field),
	})
}

func (h *FieldHandler) UpdateField(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	id, err := parseFieldID(c)
	if err != nil {
		return err
	}

	field, err := h.Repo.FindFieldByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "field not found")
		}
		logging.FromContext(c.Request().Context()).Error("find field", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load field")
	}
	if field.GestoreID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "you cannot modify this field")
	}

	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		City        string  `json:"city"`
		Address     string  `json:"address"`
		Price       float64 `json:"price"`
		Image       string  `json:"image"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if len(req.Description) > 500 {
		return echo.NewHTTPError(http.StatusBadRequest, "description too long, at most 500 characters")
	}
	if req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price cannot be negative")
	}

	// Empty values keep the stored ones.
	if req.Name != "" {
		field.Name = req.Name
	}
	if req.Description != "" {
		field.Description = req.Description
	}
	if req.City != "" {
		field.City = req.City
	}
	if req.Address != "" {
		field.Address = req.Address
	}
	if req.Price != 0 {
		field.Price = req.Price
	}
	if req.Image != "" {
		field.Image = req.Image
	}
	if field.Image == "" {
		field.Image = defaultFieldImage
	}

	if err := h.Repo.UpdateField(c.Request().Context(), field); err != nil {
		logging.FromContext(c.Request().Context()).Error("update field", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update field")
	}

	publishEvent(c, h.Producer, events.TopicFieldEvents, field.ID.String(), map[string]interface{}{
		"type":     "field_updated",
		"field_id": field.ID,
		"user_id":  user.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "field updated",
		"field":   h.fieldWithOwner(c, field),
	})
}

func (h *FieldHandler) DeleteField(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	id, err := parseFieldID(c)
	if err != nil {
		return err
	}

	field, err := h.Repo.FindFieldByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "field not found")
		}
		logging.FromContext(c.Request().Context()).Error("find field", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load field")
	}
	if field.GestoreID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "you cannot delete this field")
	}

	if err := h.Repo.DeleteField(c.Request().Context(), id); err != nil {
		logging.FromContext(c.Request().Context()).Error("delete field", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete field")
	}

	publishEvent(c, h.Producer, events.TopicFieldEvents, id.String(), map[string]interface{}{
		"type":     "field_deleted",
		"field_id": id,
		"user_id":  user.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "field deleted"})
}

func (h *FieldHandler) LikeField(c echo.Context) error {
	user := mwauth.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	id, err := parseFieldID(c)
	if err != nil {
		return err
	}

	field, err := h.Repo.FindFieldByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "field not found")
		}
		logging.FromContext(c.Request().Context()).Error("find field", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load field")
	}

	liked, count, err := h.Repo.ToggleLike(c.Request().Context(), id, user.ID)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("toggle like", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update like")
	}

	publishEvent(c, h.Producer, events.TopicFieldEvents, id.String(), map[string]interface{}{
		"type":     "field_like_toggled",
		"field_id": id,
		"user_id":  user.ID,
		"liked":    liked,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message":    "like toggled",
		"liked":      liked,
		"likesCount": count,
		"field":      h.fieldWithLikes(c, field),
	})
}
