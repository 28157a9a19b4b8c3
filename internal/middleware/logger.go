package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger prints one line per request in the same "[TAG] key=value"
// format the rest of the service logs with.  It expects the request id
// middleware to run first.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			log.Printf("[HTTP] request_id=%s method=%s uri=%s status=%d latency_ms=%d",
				res.Header().Get(echo.HeaderXRequestID), req.Method, req.RequestURI,
				res.Status, time.Since(start).Milliseconds())
			return nil
		}
	}
}
