package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

type RedeemInput struct {
	OTPCode string `validate:"required,otp"`
}

type RedeemOutput struct {
	Token string
}

// Redeem exchanges a live OTP code for the token bound to it. The cache entry
// is left in place, so the same code keeps returning the same token until it
// expires.
func (s *Usecase) Redeem(ctx context.Context, in RedeemInput) (*RedeemOutput, error) {
	ctx, span := s.startSpan(ctx, "Redeem")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	secret, _, found, err := s.cache.Get(ctx, entity.CacheKeyCode(in.OTPCode))
	if err != nil {
		slog.ErrorContext(ctx, "failed to get otp secret from cache", "error", err)
		return nil, goerror.NewServer(err)
	}
	if !found {
		slog.WarnContext(ctx, "otp code unknown or expired")
		return nil, goerror.NewBusinessCause(entity.ErrOTPExpiredOrInvalid, "OTP expired or invalid", goerror.CodeExpired)
	}

	secretHash, err := s.hmac.Hash(secret)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp secret", "error", err)
		return nil, goerror.NewServer(err)
	}

	sess, err := s.repoDB.GetSessionBySecret(ctx, string(secretHash))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "cached otp secret has no session")
		return nil, goerror.NewServer(entity.ErrSessionIntegrity)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session by secret", "error", err)
		return nil, goerror.NewServer(err)
	}
	if sess.Token == "" {
		slog.ErrorContext(ctx, "session holds the otp secret but no token", "session_id", sess.ID)
		return nil, goerror.NewServer(entity.ErrSessionIntegrity)
	}

	return &RedeemOutput{Token: sess.Token}, nil
}
