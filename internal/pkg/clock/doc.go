// Package clock provides a tiny time abstraction.
//
// Expiry decisions (cache entries, OTP windows, token lifetimes) read time
// through Clocker so tests can swap in a Manual clock and step across
// boundaries without sleeping.
package clock
