package router // package router defines how HTTP routes are registered for the API

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airport-service/internal/apidocs"
	"github.com/iliyamo/airport-service/internal/handler"
	"github.com/iliyamo/airport-service/internal/middleware"
)

// RegisterRoutes registers the routes that need no authentication: the
// health check, the API docs and the uploaded media.
func RegisterRoutes(e *echo.Echo, health *handler.HealthHandler, mediaURL, mediaRoot string) {
	e.GET("/healthz", health.Health)
	apidocs.Register(e)
	if prefix := strings.TrimSuffix(mediaURL, "/"); prefix != "" && mediaRoot != "" {
		e.Static(prefix, mediaRoot)
	}
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// profile endpoint under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	auth := e.Group("/v1/auth")
	auth.POST("/register", a.Register)
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)
	auth.POST("/refresh-access", a.RefreshAccess)
	// logout reads the bearer itself so an expired access token can still
	// revoke a refresh token
	auth.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}
