// Package event defines the messages exchanged between modules over the
// messaging layer.
package event

import "time"

// OTPIssuedDestination is the topic a fresh OTP issuance is published to.
const OTPIssuedDestination string = "auth_otp_issued"

// OTPIssuedConsumerAudit is the consumer name (and group) of the audit log.
const OTPIssuedConsumerAudit string = "auth_otp_issued_audit"

// OTPIssuedMessage announces that a user received a new OTP. It never
// carries the code, the secret, or the token.
type OTPIssuedMessage struct {
	UserID    int64     `json:"user_id"`
	SessionID int64     `json:"session_id,string"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
