package usecase

import (
	"context"
	"log/slog"
	"time"
)

type ConsumeOTPIssuedInput struct {
	UserID    int64
	SessionID int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ConsumeOTPIssued writes the audit trail for an issuance event.
func (s *Usecase) ConsumeOTPIssued(ctx context.Context, in ConsumeOTPIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPIssued")
	defer span.End()

	slog.InfoContext(ctx, "audit otp issued",
		"user_id", in.UserID,
		"session_id", in.SessionID,
		"issued_at", in.IssuedAt,
		"expires_at", in.ExpiresAt,
		"lag", s.clock.Now().Sub(in.IssuedAt).String(),
	)
	s.add(ctx, s.otpAudited)

	return nil
}
