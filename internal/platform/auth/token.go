package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
)

const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// ValidRole reports whether role is one of the three account roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleDoctor || role == RolePatient
}

// Claims are embedded at login and trusted for the token's lifetime; role
// and is_active are not re-read from the account row.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
	FullName string `json:"full_name,omitempty"`
	IsActive bool   `json:"is_active"`
}

// AccountID parses the subject claim.
func (c *Claims) AccountID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Subject is the account snapshot a token is minted from.
type Subject struct {
	AccountID uuid.UUID
	Username  string
	Role      string
	FullName  string
	IsActive  bool
}

type TokenIssuer struct {
	secret  []byte
	ttl     time.Duration
	issuer  string
	revoked RevocationStore
	now     func() time.Time
}

// NewTokenIssuer signs HS256 tokens with secret. revoked may be nil, in which
// case logout is stateless and Revoke is a no-op.
func NewTokenIssuer(secret []byte, ttl time.Duration, revoked RevocationStore) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, issuer: "hms", revoked: revoked, now: time.Now}
}

func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

func (i *TokenIssuer) Issue(s Subject) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.AccountID.String(),
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Username: s.Username,
		Role:     s.Role,
		FullName: s.FullName,
		IsActive: s.IsActive,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks signature, expiry and revocation. Every failure is
// Unauthorized.
func (i *TokenIssuer) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, apperr.Unauthorized("missing token")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindUnauthorized, err, "token expired")
		}
		return nil, apperr.Wrap(apperr.KindUnauthorized, err, "invalid token")
	}
	if _, err := claims.AccountID(); err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, err, "invalid token subject")
	}

	if i.revoked != nil && claims.ID != "" {
		revoked, err := i.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperr.Internal(err, "check token revocation")
		}
		if revoked {
			return nil, apperr.Unauthorized("token has been revoked")
		}
	}
	return claims, nil
}

// Revoke records the token's jti until its natural expiry. Without a
// revocation store the call succeeds and the client is expected to discard
// the token.
func (i *TokenIssuer) Revoke(ctx context.Context, claims *Claims) error {
	if i.revoked == nil || claims == nil || claims.ID == "" {
		return nil
	}
	exp := i.now().Add(i.ttl)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return i.revoked.Revoke(ctx, claims.ID, claims.Subject, exp)
}

// Stateless reports whether logout leaves tokens valid until expiry.
func (i *TokenIssuer) Stateless() bool { return i.revoked == nil }
