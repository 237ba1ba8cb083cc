package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/campolibero/campo_market/internal/handlers"
	mwauth "github.com/campolibero/campo_market/internal/middleware/auth"
)

type Deps struct {
	AuthHandler   *handlers.AuthHandler
	FieldHandler  *handlers.FieldHandler
	SearchHandler *handlers.SearchHandler
	Gate          *mwauth.Gate
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, d.Gate.RequireLogin)

	fields := v1.Group("/fields")
	fields.GET("", d.FieldHandler.GetFields)
	fields.GET("/:id", d.FieldHandler.GetField)
	fields.POST("", d.FieldHandler.CreateField, d.Gate.RequireLogin, d.Gate.RequireGestore)
	fields.PUT("/:id", d.FieldHandler.UpdateField, d.Gate.RequireLogin)
	fields.DELETE("/:id", d.FieldHandler.DeleteField, d.Gate.RequireLogin)
	fields.POST("/:id/like", d.FieldHandler.LikeField, d.Gate.RequireLogin)

	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}
}
