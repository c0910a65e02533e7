package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

type RegisterContactInput struct {
	ExternalID int64  `validate:"required,gt=0"`
	Phone      string `validate:"required,phone"`
	FirstName  string `validate:"max=128"`
	LastName   string `validate:"max=128"`
	Username   string `validate:"max=64"`
}

type RegisterContactOutput struct {
	Created   bool
	OTPCode   string
	Reused    bool
	ExpiresAt time.Time
}

// RegisterContact records a shared contact. A first contact creates the user
// and issues an OTP straight away; a repeat contact only refreshes the stored
// details.
func (s *Usecase) RegisterContact(ctx context.Context, in RegisterContactInput) (*RegisterContactOutput, error) {
	ctx, span := s.startSpan(ctx, "RegisterContact")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = entity.DefaultUsername(in.ExternalID)
	}

	now := s.clock.Now()
	user, created, err := s.repoDB.UpsertUserContact(ctx, entity.User{
		ID:         s.uid.Generate(),
		ExternalID: in.ExternalID,
		FullName:   strings.TrimSpace(in.FirstName + " " + in.LastName),
		Phone:      strings.TrimSpace(in.Phone),
		Username:   username,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert user contact", "user_id", in.ExternalID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !created {
		slog.InfoContext(ctx, "contact of registered user updated", "user_id", user.ExternalID)
		return &RegisterContactOutput{Created: false}, nil
	}

	slog.InfoContext(ctx, "user registered from contact", "user_id", user.ExternalID)

	issued, err := s.IssueOrReuse(ctx, IssueOrReuseInput{UserID: user.ExternalID, Phone: user.Phone})
	if err != nil {
		return nil, err
	}

	return &RegisterContactOutput{
		Created:   true,
		OTPCode:   issued.OTPCode,
		Reused:    issued.Reused,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}
