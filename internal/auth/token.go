package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/NiceGuyIT/psa-sub001/internal/apperr"
)

const issuer = "psa-platform"

// DefaultTokenLifetime is used when the configuration does not override it.
const DefaultTokenLifetime = 24 * time.Hour

// Claims is the signed identity payload carried by every bearer token.
type Claims struct {
	TenantID string `json:"tenant_id,omitempty"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Codec issues and validates signed identity tokens. It is a pure function of
// (token, secret, clock); no I/O.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithClock overrides the time source. Test use.
func WithClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec signing with the operator-supplied secret.
func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	c := &Codec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for the given user. tenantID may be empty for
// super-admin identities. Lifetime must be positive.
func (c *Codec) Issue(userID, tenantID, email string, role Role, lifetime time.Duration) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.New("auth: user id is required")
	}
	if lifetime <= 0 {
		return "", time.Time{}, errors.New("auth: lifetime must be greater than zero")
	}

	now := c.now().UTC()
	expiresAt := now.Add(lifetime)
	claims := Claims{
		TenantID: strings.TrimSpace(tenantID),
		Email:    strings.TrimSpace(strings.ToLower(email)),
		Role:     role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate verifies the signature and decodes the claims. Tampering,
// structural garbage and expiry all surface as the same authentication
// failure class; expiry is checked explicitly after decode so a validly
// signed but stale token is never accepted.
func (c *Codec) Validate(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.AuthenticationFailed("missing token")
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, apperr.AuthenticationFailed("invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperr.AuthenticationFailed("invalid token")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, apperr.AuthenticationFailed("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, apperr.AuthenticationFailed("invalid token")
	}
	if c.now().UTC().After(claims.ExpiresAt.Time) {
		return nil, apperr.AuthenticationFailed("token expired")
	}
	return claims, nil
}
