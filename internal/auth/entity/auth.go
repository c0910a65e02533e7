package entity

import (
	"errors"
	"strconv"
	"time"
)

var (
	// ErrMalformedAuthHeader is returned when the header is not "<scheme> <token>".
	ErrMalformedAuthHeader = errors.New("malformed authorization header")
	// ErrStaleToken is returned when a token verifies but is no longer the
	// session's current token.
	ErrStaleToken = errors.New("stale token")
	// ErrOTPExpiredOrInvalid is returned when an OTP code is unknown or past its TTL.
	ErrOTPExpiredOrInvalid = errors.New("otp expired or invalid")
	// ErrSessionIntegrity is returned when the cache maps a code to a secret
	// that no session holds.
	ErrSessionIntegrity = errors.New("otp secret has no session")
	// ErrCodeSpaceExhausted is returned when every freshly minted code was
	// already held by another user.
	ErrCodeSpaceExhausted = errors.New("could not reserve a unique otp code")
)

// User is a person known to the service by an external chat id.
type User struct {
	ID         int64
	ExternalID int64
	FullName   string
	Phone      string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DefaultUsername is used when the chat platform reports no username.
func DefaultUsername(externalID int64) string {
	return "user" + strconv.FormatInt(externalID, 10)
}

// Session binds a user to the current OTP secret and the current token.
// There is at most one session per user.
type Session struct {
	ID         int64
	UserID     int64
	SecretHash string
	Token      string
	CreatedAt  time.Time
	LastLogin  time.Time
	ExpiresAt  time.Time
}
