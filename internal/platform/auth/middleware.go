package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
)

type JWTConfig struct {
	Issuer *TokenIssuer
	// Skipper lets public routes through without a token.
	Skipper func(c echo.Context) bool
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", apperr.Unauthorized("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", apperr.Unauthorized("invalid authorization format")
	}
	return strings.TrimSpace(token), nil
}

// JWTMiddleware verifies the bearer token and stores its claims on the
// request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			token, err := BearerToken(c)
			if err != nil {
				return apperr.HTTP(err)
			}
			claims, err := cfg.Issuer.Verify(c.Request().Context(), token)
			if err != nil {
				return apperr.HTTP(err)
			}

			c.Set(string(ClaimsKey), claims)
			c.SetRequest(c.Request().WithContext(WithClaims(c.Request().Context(), claims)))
			return next(c)
		}
	}
}
