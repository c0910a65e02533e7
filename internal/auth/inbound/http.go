package inbound

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
)

type uc interface {
	Redeem(ctx context.Context, in usecase.RedeemInput) (*usecase.RedeemOutput, error)
	Authenticate(ctx context.Context, header string) (jwt.Claims, error)
	Profile(ctx context.Context) (*usecase.ProfileOutput, error)

	RegisterContact(ctx context.Context, in usecase.RegisterContactInput) (*usecase.RegisterContactOutput, error)
	BotLogin(ctx context.Context, in usecase.BotLoginInput) (*usecase.IssueOrReuseOutput, error)

	ConsumeOTPIssued(ctx context.Context, in usecase.ConsumeOTPIssuedInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, botKey string) {
	end := &HTTPEndpoint{uc: uc}
	authn := router.Authentication(uc)
	bot := router.APIKey(router.HeaderBotKey, botKey)

	r.GET("/", end.Health)
	r.GET("/health", end.Health)

	// Session
	r.POST("/api/v1/auth/login", end.Login)
	r.GET("/api/v1/auth/verify", end.Verify, authn)
	r.GET("/api/v1/auth/me", end.Profile, authn)

	// Chat-bot front end
	r.POST("/api/v1/bot/contacts", end.BotContact, bot)
	r.POST("/api/v1/bot/otp", end.BotOTP, bot)
}
