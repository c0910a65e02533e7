package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
)

type ProfileOutput struct {
	FullName   string
	ExternalID int64
	Username   string
	CreatedAt  time.Time
	LastLogin  time.Time
	Active     bool
}

func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByExternalID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user of token not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("authentication failed", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by external id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &ProfileOutput{
		FullName:   user.FullName,
		ExternalID: user.ExternalID,
		Username:   user.Username,
		CreatedAt:  user.CreatedAt,
		Active:     true,
	}

	sess, err := s.repoDB.GetSessionByID(ctx, clm.SessionID)
	switch {
	case errors.Is(err, goerror.ErrNotFound):
	case err != nil:
		slog.ErrorContext(ctx, "failed to repo get session by id", "session_id", clm.SessionID, "error", err)
		return nil, goerror.NewServer(err)
	default:
		out.LastLogin = sess.LastLogin
	}

	return out, nil
}
