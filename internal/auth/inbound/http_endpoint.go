package inbound

import (
	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
)

// HTTPEndpoint exposes the session and chat-bot handlers.
type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Health(*router.Request) (any, error) {
	return HealthResponse{Status: "ok"}, nil
}

// Login exchanges a live OTP code for the session token.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Redeem(r.Context(), usecase.RedeemInput{OTPCode: req.OTPCode})
	if err != nil {
		return nil, err
	}

	return LoginResponse{Token: resp.Token}, nil
}

// Verify answers 204 once the authentication middleware has let the request through.
func (h *HTTPEndpoint) Verify(*router.Request) (any, error) {
	return nil, nil
}

func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	out := ProfileResponse{
		User: ProfileUser{
			FullName:   resp.FullName,
			TelegramID: resp.ExternalID,
			Username:   resp.Username,
			CreatedAt:  resp.CreatedAt,
		},
		Stats: ProfileStats{Active: resp.Active},
	}
	if !resp.LastLogin.IsZero() {
		out.User.LastLogin = &resp.LastLogin
	}

	return out, nil
}

// BotContact registers or refreshes the user behind a shared contact.
func (h *HTTPEndpoint) BotContact(r *router.Request) (any, error) {
	var req BotContactRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegisterContact(r.Context(), usecase.RegisterContactInput{
		ExternalID: req.ExternalID,
		Phone:      req.Phone,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Username:   req.Username,
	})
	if err != nil {
		return nil, err
	}

	out := BotContactResponse{
		Created: resp.Created,
		OTPCode: resp.OTPCode,
		Reused:  resp.Reused,
	}
	if resp.Created {
		out.ExpiresAt = &resp.ExpiresAt
	}

	return out, nil
}

// BotOTP issues or reuses the OTP of a registered user.
func (h *HTTPEndpoint) BotOTP(r *router.Request) (any, error) {
	var req BotOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.BotLogin(r.Context(), usecase.BotLoginInput{ExternalID: req.ExternalID})
	if err != nil {
		return nil, err
	}

	return BotOTPResponse{
		OTPCode:   resp.OTPCode,
		Reused:    resp.Reused,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}
