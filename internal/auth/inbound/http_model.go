package inbound

import "time"

type HealthResponse struct {
	Status string `json:"status"`
}

type LoginRequest struct {
	OTPCode string `json:"otp_code"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (LoginResponse) Message() string {
	return "login successful"
}

type ProfileUser struct {
	FullName   string     `json:"full_name"`
	TelegramID int64      `json:"telegram_id"`
	Username   string     `json:"username"`
	CreatedAt  time.Time  `json:"created_at"`
	LastLogin  *time.Time `json:"last_login"`
}

type ProfileStats struct {
	Active bool `json:"active"`
}

type ProfileResponse struct {
	User  ProfileUser  `json:"user"`
	Stats ProfileStats `json:"stats"`
}

type BotContactRequest struct {
	ExternalID int64  `json:"external_id"`
	Phone      string `json:"phone"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Username   string `json:"username"`
}

type BotContactResponse struct {
	Created   bool       `json:"created"`
	OTPCode   string     `json:"otp_code,omitempty"`
	Reused    bool       `json:"reused"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (r BotContactResponse) Message() string {
	if !r.Created {
		return "contact updated, user already registered"
	}
	return "user registered"
}

type BotOTPRequest struct {
	ExternalID int64 `json:"external_id"`
}

type BotOTPResponse struct {
	OTPCode   string    `json:"otp_code"`
	Reused    bool      `json:"reused"`
	ExpiresAt time.Time `json:"expires_at"`
}
