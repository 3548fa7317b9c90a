package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// NewSkipper returns a skipper for JWTMiddleware that lets the public
// routes through: registration, login and the infrastructure endpoints.
func NewSkipper(apiPrefix string) func(c echo.Context) bool {
	prefix := strings.TrimRight(apiPrefix, "/")
	public := map[string]bool{
		"/health":                 true,
		"/health/db":              true,
		"/metrics":                true,
		prefix + "/auth/register": true,
		prefix + "/auth/login":    true,
	}
	return func(c echo.Context) bool {
		path := c.Path()
		if path == "" {
			path = c.Request().URL.Path
		}
		return public[path]
	}
}
