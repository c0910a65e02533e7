// Package otp mints the secrets and time-based codes behind one-time login
// codes.
//
// A secret is 20 random bytes encoded as base32. The code for a secret is the
// RFC 6238 TOTP value of that secret over a fixed period, so the same secret
// yields the same code for the whole period and a different one afterwards.
package otp
