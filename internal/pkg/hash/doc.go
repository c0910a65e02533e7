// Package hash derives keyed digests of secrets.
//
// The OTP secrets kept in the session table are never stored in plaintext:
// rows hold an HMAC-SHA256 of the secret so a row can still be found by exact
// lookup while a database dump alone does not reveal live secrets.
package hash
