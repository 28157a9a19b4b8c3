// Package apidocs serves the OpenAPI description of the /v1 API and a
// Swagger UI for it.
package apidocs

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SpecPath is where the raw document is served.
const SpecPath = "/v1/openapi.yaml"

//go:embed openapi.yaml
var Spec []byte

// Register mounts the document at SpecPath and the UI under /docs/.
func Register(e *echo.Echo) {
	e.GET(SpecPath, func(c echo.Context) error {
		return c.Blob(http.StatusOK, "application/yaml", Spec)
	})
	ui := echo.WrapHandler(httpSwagger.Handler(httpSwagger.URL(SpecPath)))
	e.GET("/docs", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	e.GET("/docs/*", ui)
}
