package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric implements JWT signing and verification using an HMAC secret.
type Symmetric struct {
	method    *libJWT.SigningMethodHMAC
	secret    []byte
	issuer    string
	audiences []string
	validity  time.Duration
	clock     clocker
	uuid      generator
}

// NewSymmetric constructs a Symmetric JWT for cfg.Algorithm.
//
// The key must be at least as long as the algorithm's hash output:
// 32 bytes for HS256 and 64 bytes for HS512.
func NewSymmetric(cfg Config) (*Symmetric, error) {
	var method *libJWT.SigningMethodHMAC
	var minKey int
	switch cfg.Algorithm {
	case "", AlgorithmHS256:
		method, minKey = libJWT.SigningMethodHS256, 32
	case AlgorithmHS512:
		method, minKey = libJWT.SigningMethodHS512, 64
	default:
		return nil, ErrInvalidSigningMethod
	}

	if len(cfg.Secret) < minKey {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{
		method:    method,
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		validity:  cfg.Validity,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
	}, nil
}

// Issue creates a signed token for p.
func (s *Symmetric) Issue(p Payload, validity time.Duration) (string, time.Time, error) {
	if validity <= 0 {
		validity = s.validity
	}

	now := s.clock.Now()
	exp := now.Add(validity)

	token, err := libJWT.NewWithClaims(s.method, Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   strconv.FormatInt(p.UserID, 10),
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(exp),
		},
		SessionID: p.SessionID,
		UserID:    p.UserID,
		Phone:     p.Phone,
		Username:  p.Username,
		FullName:  p.FullName,
		Secret:    p.Secret,
	}).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, exp.Truncate(time.Second), nil
}

// Verify parses and validates a token string.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	opts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{s.method.Alg()}),
		libJWT.WithIssuer(s.issuer),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.clock.Now),
	}
	if len(s.audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(s.audiences...))
	}

	token, err := libJWT.ParseWithClaims(tokenStr, &claims, func(*libJWT.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}

	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
