package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

type BotLoginInput struct {
	ExternalID int64 `validate:"required,gt=0"`
}

// BotLogin issues (or reuses) an OTP for a user who registered earlier,
// using the phone number on record.
func (s *Usecase) BotLogin(ctx context.Context, in BotLoginInput) (*IssueOrReuseOutput, error) {
	ctx, span := s.startSpan(ctx, "BotLogin")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByExternalID(ctx, in.ExternalID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "login requested by unregistered user", "user_id", in.ExternalID)
		return nil, goerror.NewBusiness("authentication failed", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by external id", "user_id", in.ExternalID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.IssueOrReuse(ctx, IssueOrReuseInput{UserID: user.ExternalID, Phone: user.Phone})
}
