// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Business code depends on the Validator interface; the go-playground v10
// implementation adds the "otp" and "phone" rules used by the auth module and
// reports failures keyed by the field's json name.
package validator
