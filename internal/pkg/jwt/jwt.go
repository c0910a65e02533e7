package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the configured algorithm is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the key is shorter than the algorithm's hash size.
	ErrSigningKeyTooShort = errors.New("JWT signing key is shorter than the algorithm hash size")

	// ErrTokenExpired is returned when the token's exp has passed.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

const (
	// AlgorithmHS256 selects HMAC-SHA256.
	AlgorithmHS256 = "HS256"
	// AlgorithmHS512 selects HMAC-SHA512.
	AlgorithmHS512 = "HS512"
)

// JWT issues and verifies session tokens.
type JWT interface {
	// Issue signs p for validity (the configured default when validity <= 0)
	// and returns the token with its expiry.
	Issue(p Payload, validity time.Duration) (token string, expiresAt time.Time, err error)
	// Verify parses and validates the token and returns its claims.
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Algorithm is HS256 or HS512. Empty means HS256.
	Algorithm string
	// Secret is the HMAC signing key.
	Secret []byte
	// Issuer is written to and required in the iss claim.
	Issuer string
	// Audiences are written to aud and, when non-empty, required on verify.
	Audiences []string
	// Validity is the default token lifetime.
	Validity time.Duration
	// Clock provides the current time source.
	Clock clocker
	// UUID generates token IDs (jti).
	UUID generator
}

// Payload is the session data carried inside a token.
type Payload struct {
	SessionID int64
	UserID    int64
	Phone     string
	Username  string
	FullName  string
	Secret    string
}

// Claims is the registered claim set plus the session payload.
type Claims struct {
	jwt.RegisteredClaims
	SessionID int64  `json:"session_id,string"`
	UserID    int64  `json:"user_id"`
	Phone     string `json:"phone"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Secret    string `json:"secret"`
}

// GetAuth returns the claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
