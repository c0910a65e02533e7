// Package jwt issues and verifies the long-lived session tokens handed out
// when an OTP is redeemed.
//
// Tokens are HMAC signed (HS256 or HS512). Verification fails closed: any
// signature, algorithm, issuer, or shape problem yields ErrInvalidToken and
// an elapsed exp yields ErrTokenExpired. No partial claims are ever returned.
//
// The signing key is read once at startup. Rotating it invalidates every
// outstanding token.
package jwt
