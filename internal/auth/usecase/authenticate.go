package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
)

// Authenticate checks an Authorization header value of the form
// "<scheme> <token>" and returns the token claims when the token is still the
// current token of its session.
func (s *Usecase) Authenticate(ctx context.Context, header string) (jwt.Claims, error) {
	ctx, span := s.startSpan(ctx, "Authenticate")
	defer span.End()

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		slog.WarnContext(ctx, "malformed authorization header")
		return jwt.Claims{}, goerror.NewInvalidFormatCause(entity.ErrMalformedAuthHeader, "invalid authorization format")
	}
	token := parts[1]

	clm, err := s.jwt.Verify(token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		slog.WarnContext(ctx, "session token expired")
		return jwt.Claims{}, goerror.NewBusinessCause(err, "token expired", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.WarnContext(ctx, "session token rejected", "error", err)
		return jwt.Claims{}, goerror.NewBusinessCause(jwt.ErrInvalidToken, "invalid token", goerror.CodeUnauthorized)
	}

	sess, err := s.repoDB.GetSessionByID(ctx, clm.SessionID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "session of token not found", "session_id", clm.SessionID, "user_id", clm.UserID)
		return jwt.Claims{}, goerror.NewBusinessCause(entity.ErrStaleToken, "authentication failed", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session by id", "session_id", clm.SessionID, "error", err)
		return jwt.Claims{}, goerror.NewServer(err)
	}

	if subtle.ConstantTimeCompare([]byte(sess.Token), []byte(token)) != 1 {
		slog.WarnContext(ctx, "token superseded by a newer issuance", "session_id", sess.ID, "user_id", clm.UserID)
		return jwt.Claims{}, goerror.NewBusinessCause(entity.ErrStaleToken, "authentication failed", goerror.CodeUnauthorized)
	}

	return clm, nil
}
