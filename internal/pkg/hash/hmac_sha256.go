package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 implements Hash with a keyed SHA-256.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a hasher keyed with secret.
func NewHMACSHA256(secret string) (*HMACSHA256, error) {
	if len(secret) < 32 {
		return nil, ErrSecretTooShort
	}
	return &HMACSHA256{secret: []byte(secret)}, nil
}

// Hash returns the hex-encoded HMAC of str.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	mac := hmac.New(sha256.New, s.secret)
	if _, err := mac.Write([]byte(str)); err != nil {
		return nil, err
	}

	sum := mac.Sum(nil)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out, nil
}

// Verify compares in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	expected, err := s.Hash(str)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(hashed), expected)
}
