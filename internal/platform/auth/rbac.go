package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
)

// RolePredicate decides whether a role claim may proceed.
type RolePredicate func(role string) bool

func HasRole(role string) RolePredicate {
	return func(r string) bool { return r == role }
}

func HasAnyRole(roles ...string) RolePredicate {
	return func(r string) bool {
		for _, want := range roles {
			if r == want {
				return true
			}
		}
		return false
	}
}

// Gate is the single capability check every protected handler calls first.
// It reads only the embedded claims: Unauthorized without verified claims,
// Forbidden when allow rejects the role. There is no implicit admin bypass.
func Gate(c echo.Context, allow RolePredicate, requirement string) (*Claims, error) {
	claims := ClaimsFromContext(c.Request().Context())
	if claims == nil {
		return nil, apperr.Unauthorized("authentication required")
	}
	if !allow(claims.Role) {
		return nil, apperr.Forbidden("Unauthorized - %s", requirement)
	}
	return claims, nil
}

func RequireRole(c echo.Context, role string) (*Claims, error) {
	return Gate(c, HasRole(role), role+" only")
}

func RequireAnyRole(c echo.Context, roles ...string) (*Claims, error) {
	return Gate(c, HasAnyRole(roles...), fmt.Sprintf("requires one of [%s]", strings.Join(roles, ", ")))
}

// RequireActor is Gate returning the caller as an Actor.
func RequireActor(c echo.Context, roles ...string) (Actor, error) {
	var (
		claims *Claims
		err    error
	)
	if len(roles) == 0 {
		claims, err = Gate(c, func(string) bool { return true }, "")
	} else {
		claims, err = RequireAnyRole(c, roles...)
	}
	if err != nil {
		return Actor{}, err
	}
	id, err := claims.AccountID()
	if err != nil {
		return Actor{}, apperr.Unauthorized("invalid token subject")
	}
	return Actor{AccountID: id, Role: claims.Role}, nil
}

// AccountKey holds the live account loaded by RequireAuthenticatedAccount.
const AccountKey = "account"

// RequireAuthenticatedAccount loads the live account named by the token
// subject. Unauthorized when the token is absent or its subject malformed,
// NotFound when the account no longer exists, Forbidden when the loaded
// account reports itself inactive.
func RequireAuthenticatedAccount[T any](c echo.Context, load func(ctx context.Context, id uuid.UUID) (T, error)) (T, error) {
	var zero T
	claims := ClaimsFromContext(c.Request().Context())
	if claims == nil {
		return zero, apperr.Unauthorized("authentication required")
	}
	id, err := claims.AccountID()
	if err != nil {
		return zero, apperr.Unauthorized("invalid token")
	}

	acct, err := load(c.Request().Context(), id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return zero, apperr.NotFound("user not found")
		}
		return zero, err
	}
	if a, ok := any(acct).(interface{ Active() bool }); ok && !a.Active() {
		return zero, apperr.Forbidden("account is disabled")
	}

	c.Set(AccountKey, acct)
	return acct, nil
}
