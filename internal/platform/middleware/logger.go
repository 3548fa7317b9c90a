package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
)

// Logger emits one access line per request, leveled by outcome.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			began := time.Now()
			err := next(c)

			status := responseStatus(c, err)
			var evt *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				evt = logger.Error().Err(err)
			case status >= http.StatusBadRequest:
				evt = logger.Warn()
			default:
				evt = logger.Info()
			}

			req := c.Request()
			rid, _ := c.Get("request_id").(string)
			evt.Str("request_id", rid).
				Str("method", req.Method).
				Str("route", c.Path()).
				Str("uri", req.RequestURI).
				Int("status", status).
				Int64("bytes_out", c.Response().Size).
				Int64("latency_ms", time.Since(began).Milliseconds()).
				Str("remote_ip", c.RealIP()).
				Msg("http request")
			return err
		}
	}
}

// responseStatus is the status the error handler will write for err when the
// handler has not committed a response itself.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	if he, ok := apperr.HTTP(err).(*echo.HTTPError); ok {
		return he.Code
	}
	return http.StatusInternalServerError
}
