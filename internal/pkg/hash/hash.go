package hash

import "errors"

// ErrSecretTooShort is returned when an HMAC key is shorter than 32 bytes.
var ErrSecretTooShort = errors.New("hash: secret must be at least 32 bytes")

// Hash computes and checks deterministic digests.
type Hash interface {
	// Hash returns the hex digest of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether hashed is the digest of str.
	Verify(hashed, str string) bool
}
