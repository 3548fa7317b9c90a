package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ClaimsKey   contextKey = "claims"
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

// Actor identifies who performs a domain operation.
type Actor struct {
	AccountID uuid.UUID
	Role      string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
	return context.WithValue(ctx, UserRoleKey, claims.Role)
}

func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(ClaimsKey).(*Claims)
	return c
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

// ActorFromContext builds an Actor from verified claims.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return Actor{}, false
	}
	id, err := claims.AccountID()
	if err != nil {
		return Actor{}, false
	}
	return Actor{AccountID: id, Role: claims.Role}, true
}
