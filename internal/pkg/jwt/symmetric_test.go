package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

var key256 = []byte(strings.Repeat("k", 32))

func newSigner(t *testing.T, c *clock.Manual) *Symmetric {
	t.Helper()
	s, err := NewSymmetric(Config{
		Secret:   key256,
		Issuer:   "otpauth",
		Validity: 365 * 24 * time.Hour,
		Clock:    c,
		UUID:     fixedID("jti-1"),
	})
	require.NoError(t, err)
	return s
}

func TestNewSymmetric(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "DefaultHS256", cfg: Config{Secret: key256}},
		{name: "HS256ShortKey", cfg: Config{Algorithm: AlgorithmHS256, Secret: key256[:31]}, wantErr: ErrSigningKeyTooShort},
		{name: "HS512ShortKey", cfg: Config{Algorithm: AlgorithmHS512, Secret: key256}, wantErr: ErrSigningKeyTooShort},
		{name: "HS512", cfg: Config{Algorithm: AlgorithmHS512, Secret: []byte(strings.Repeat("k", 64))}},
		{name: "Unsupported", cfg: Config{Algorithm: "RS256", Secret: key256}, wantErr: ErrInvalidSigningMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSymmetric(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSymmetric_IssueVerify(t *testing.T) {
	// Arrange
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := clock.NewManual(now)
	s := newSigner(t, c)
	p := Payload{SessionID: 9001, UserID: 42, Phone: "+15550001", Username: "user42", FullName: "Jane", Secret: "JBSWY3DPEHPK3PXP"}

	// Act
	token, exp, err := s.Issue(p, 0)
	require.NoError(t, err)
	claims, err := s.Verify(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, now.Add(365*24*time.Hour), exp)
	assert.Equal(t, int64(9001), claims.SessionID)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "+15550001", claims.Phone)
	assert.Equal(t, "user42", claims.Username)
	assert.Equal(t, "Jane", claims.FullName)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", claims.Secret)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "jti-1", claims.ID)
}

func TestSymmetric_Verify_FailsClosed(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Expired", func(t *testing.T) {
		c := clock.NewManual(now)
		s := newSigner(t, c)
		token, _, err := s.Issue(Payload{UserID: 1}, time.Minute)
		require.NoError(t, err)

		c.Advance(2 * time.Minute)
		claims, err := s.Verify(token)

		assert.ErrorIs(t, err, ErrTokenExpired)
		assert.Zero(t, claims)
	})

	t.Run("TamperedSignature", func(t *testing.T) {
		s := newSigner(t, clock.NewManual(now))
		token, _, err := s.Issue(Payload{UserID: 1}, 0)
		require.NoError(t, err)

		tampered := token[:len(token)-2] + "xx"
		claims, err := s.Verify(tampered)

		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Zero(t, claims)
	})

	t.Run("OtherKey", func(t *testing.T) {
		c := clock.NewManual(now)
		other, err := NewSymmetric(Config{Secret: []byte(strings.Repeat("x", 32)), Issuer: "otpauth", Validity: time.Hour, Clock: c, UUID: fixedID("j")})
		require.NoError(t, err)
		token, _, err := other.Issue(Payload{UserID: 1}, 0)
		require.NoError(t, err)

		_, err = newSigner(t, c).Verify(token)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongAlgorithm", func(t *testing.T) {
		token, err := libJWT.NewWithClaims(libJWT.SigningMethodHS384, Claims{
			RegisteredClaims: libJWT.RegisteredClaims{
				Issuer:    "otpauth",
				ExpiresAt: libJWT.NewNumericDate(now.Add(time.Hour)),
			},
		}).SignedString(key256)
		require.NoError(t, err)

		_, err = newSigner(t, clock.NewManual(now)).Verify(token)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("MissingExp", func(t *testing.T) {
		token, err := libJWT.NewWithClaims(libJWT.SigningMethodHS256, Claims{
			RegisteredClaims: libJWT.RegisteredClaims{Issuer: "otpauth"},
		}).SignedString(key256)
		require.NoError(t, err)

		_, err = newSigner(t, clock.NewManual(now)).Verify(token)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		token, err := libJWT.NewWithClaims(libJWT.SigningMethodHS256, Claims{
			RegisteredClaims: libJWT.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: libJWT.NewNumericDate(now.Add(time.Hour)),
			},
		}).SignedString(key256)
		require.NoError(t, err)

		_, err = newSigner(t, clock.NewManual(now)).Verify(token)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := newSigner(t, clock.NewManual(now)).Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthContext(t *testing.T) {
	assert.Nil(t, GetAuth(context.Background()))

	ctx := SetAuth(context.Background(), Claims{UserID: 42})
	got := GetAuth(ctx)

	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.UserID)
}
