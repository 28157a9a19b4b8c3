package handler // handler defines the HTTP handlers of the /v1 API

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airport-service/internal/booking"
	"github.com/iliyamo/airport-service/internal/middleware"
	"github.com/iliyamo/airport-service/internal/model"
	"github.com/iliyamo/airport-service/internal/repository"
)

var (
	errNoUser = errors.New("invalid user_id in context")
	errBadID  = errors.New("invalid id")
)

// getUserID returns the caller id stored by middleware.JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.CtxUserID).(type) {
	case uint64:
		if t > 0 {
			return t, nil
		}
	case float64:
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, errNoUser
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get(middleware.CtxRole).(string)
	return role == model.RoleAdmin
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func badID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
}

func fieldErrors(c echo.Context, fe booking.FieldErrors) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fe})
}

// respondError maps repository and validation errors onto the API's error
// payloads.  resource names the entity in 404 messages ("flight not found").
func respondError(c echo.Context, err error, resource string) error {
	if fe, ok := booking.AsFieldErrors(err); ok {
		return fieldErrors(c, fe)
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": resource + " not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	log.Printf("[HTTP] %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
