package otp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultPeriod is the TOTP step used when none is configured.
	DefaultPeriod = 60
	secretSize    = 20
)

// OTP defines the contract for minting one-time codes.
type OTP interface {
	// NewSecret returns a fresh random base32 secret.
	NewSecret() (string, error)
	// Code returns the code for secret at the given time.
	Code(secret string, at time.Time) (string, error)
	// Period is the length of one code window. A code issued now is live
	// for exactly this long.
	Period() time.Duration
}

// TOTP implements OTP using the Time-based One-Time Password algorithm.
type TOTP struct {
	issuer string
	period uint
	digits otp.Digits
}

// NewTOTP constructs a TOTP instance.
//
// If digits is not 6 or 8, it falls back to 6 digits. If period is 0, it uses
// DefaultPeriod seconds.
func NewTOTP(issuer string, period uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	if period == 0 {
		period = DefaultPeriod
	}

	return &TOTP{
		issuer: issuer,
		period: period,
		digits: digits,
	}
}

// Period returns the length of one code window.
func (o *TOTP) Period() time.Duration {
	return time.Duration(o.period) * time.Second
}

// NewSecret returns a fresh random base32 secret.
func (o *TOTP) NewSecret() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: "session",
		Period:      o.period,
		SecretSize:  secretSize,
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}

	return key.Secret(), nil
}

// Code returns the code for secret at the given time.
func (o *TOTP) Code(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, o.opts())
}

func (o *TOTP) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    o.period,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}
