package entity

import "strconv"

// CacheKeyCode is the cache key mapping a live OTP code to its secret.
func CacheKeyCode(code string) string {
	return "otp:code:" + code
}

// CacheKeyUser is the cache key mapping an external user id to its live OTP code.
func CacheKeyUser(externalID int64) string {
	return "otp:user:" + strconv.FormatInt(externalID, 10)
}
