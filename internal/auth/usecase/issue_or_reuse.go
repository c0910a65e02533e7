package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
)

type IssueOrReuseInput struct {
	UserID int64  `validate:"required,gt=0"`
	Phone  string `validate:"required,phone"`
}

type IssueOrReuseOutput struct {
	OTPCode   string
	Token     string
	Reused    bool
	ExpiresAt time.Time
}

// IssueOrReuse hands out the user's live OTP if one exists, otherwise mints a
// new secret, code and token and records them. Calls for the same user are
// serialized from the cache check to the last cache write.
func (s *Usecase) IssueOrReuse(ctx context.Context, in IssueOrReuseInput) (*IssueOrReuseOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueOrReuse")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByExternalID(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user not registered", "user_id", in.UserID)
		return nil, goerror.NewBusiness("authentication failed", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by external id", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	unlock, err := s.locker.Lock(ctx, lockKeyPrefixIssuer+strconv.FormatInt(user.ID, 10))
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire issuance lock", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	defer unlock()

	sess, err := s.repoDB.GetSessionByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get session by user", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out, err := s.reuseLiveOTP(ctx, user, sess)
	if err != nil {
		return nil, err
	}
	if out != nil {
		s.add(ctx, s.otpReused)
		return out, nil
	}

	return s.issueFresh(ctx, user, sess, in.Phone)
}

// reuseLiveOTP returns nil output when there is nothing live to hand back.
func (s *Usecase) reuseLiveOTP(ctx context.Context, user *entity.User, sess *entity.Session) (*IssueOrReuseOutput, error) {
	if sess == nil || sess.Token == "" {
		return nil, nil
	}

	code, expireAt, found, err := s.cache.Get(ctx, entity.CacheKeyUser(user.ExternalID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to get otp code from cache", "user_id", user.ExternalID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !found {
		return nil, nil
	}

	// the reverse mapping may have expired a moment earlier or been lost
	// with a cache restart; a code that cannot be redeemed is not reused
	_, _, found, err = s.cache.Get(ctx, entity.CacheKeyCode(code))
	if err != nil {
		slog.ErrorContext(ctx, "failed to get otp secret from cache", "user_id", user.ExternalID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !found {
		return nil, nil
	}

	slog.InfoContext(ctx, "live otp reused", "user_id", user.ExternalID, "session_id", sess.ID)

	return &IssueOrReuseOutput{
		OTPCode:   code,
		Token:     sess.Token,
		Reused:    true,
		ExpiresAt: expireAt,
	}, nil
}

func (s *Usecase) issueFresh(ctx context.Context, user *entity.User, sess *entity.Session, phone string) (*IssueOrReuseOutput, error) {
	ttl := s.otpTTL()

	sessID := s.uid.Generate()
	if sess != nil {
		sessID = sess.ID
	}

	secret, code, err := s.reserveCode(ctx, user, ttl)
	if err != nil {
		return nil, err
	}
	if code == "" {
		slog.ErrorContext(ctx, "no unique otp code after retries", "user_id", user.ExternalID, "attempts", maxIssueAttempts)
		return nil, goerror.NewServer(entity.ErrCodeSpaceExhausted)
	}

	now := s.clock.Now()
	saved, token, err := s.saveSession(ctx, user, sessID, secret, phone, now)
	if err != nil {
		// the code must not outlive a session write that never happened
		if derr := s.cache.Delete(ctx, entity.CacheKeyCode(code)); derr != nil {
			slog.ErrorContext(ctx, "failed to release otp code", "user_id", user.ExternalID, "error", derr)
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, entity.CacheKeyUser(user.ExternalID), code, ttl); err != nil {
		slog.ErrorContext(ctx, "failed to cache otp code", "user_id", user.ExternalID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.add(ctx, s.otpIssued)
	s.publishIssued(ctx, OTPIssuedEvent{
		UserID:    user.ExternalID,
		SessionID: saved.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	})

	slog.InfoContext(ctx, "otp issued", "user_id", user.ExternalID, "session_id", saved.ID)

	return &IssueOrReuseOutput{
		OTPCode:   code,
		Token:     token,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// reserveCode mints secrets until one yields a code no other session holds
// live, and claims that code. An empty code means every attempt collided;
// nothing has been written to the session row in that case.
func (s *Usecase) reserveCode(ctx context.Context, user *entity.User, ttl time.Duration) (string, string, error) {
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		secret, err := s.totp.NewSecret()
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate otp secret", "user_id", user.ExternalID, "error", err)
			return "", "", goerror.NewServer(err)
		}

		code, err := s.totp.Code(secret, s.clock.Now())
		if err != nil {
			slog.ErrorContext(ctx, "failed to derive otp code", "user_id", user.ExternalID, "error", err)
			return "", "", goerror.NewServer(err)
		}

		reserved, err := s.cache.SetIfAbsent(ctx, entity.CacheKeyCode(code), secret, ttl)
		if err != nil {
			slog.ErrorContext(ctx, "failed to cache otp secret", "user_id", user.ExternalID, "error", err)
			return "", "", goerror.NewServer(err)
		}
		if reserved {
			return secret, code, nil
		}

		slog.WarnContext(ctx, "otp code already live for another session, minting again",
			"user_id", user.ExternalID, "attempt", attempt)
	}

	return "", "", nil
}

// saveSession signs the token for secret and overwrites secret and token of
// the user's session row in one write.
func (s *Usecase) saveSession(
	ctx context.Context,
	user *entity.User,
	sessID int64,
	secret, phone string,
	now time.Time,
) (*entity.Session, string, error) {
	token, tokenExp, err := s.jwt.Issue(jwt.Payload{
		SessionID: sessID,
		UserID:    user.ExternalID,
		Phone:     phone,
		Username:  user.Username,
		FullName:  user.FullName,
		Secret:    secret,
	}, s.tokenValidity())
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue session token", "user_id", user.ExternalID, "error", err)
		return nil, "", goerror.NewServer(err)
	}

	secretHash, err := s.hmac.Hash(secret)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp secret", "user_id", user.ExternalID, "error", err)
		return nil, "", goerror.NewServer(err)
	}

	saved, err := s.repoDB.UpsertSession(ctx, entity.Session{
		ID:         sessID,
		UserID:     user.ID,
		SecretHash: string(secretHash),
		Token:      token,
		CreatedAt:  now,
		LastLogin:  now,
		ExpiresAt:  tokenExp,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert session", "user_id", user.ExternalID, "error", err)
		return nil, "", goerror.NewServer(err)
	}

	return saved, token, nil
}

func (s *Usecase) publishIssued(ctx context.Context, ev OTPIssuedEvent) {
	if s.repoMessaging == nil {
		return
	}

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishOTPIssued(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish otp issued", "user_id", ev.UserID, "error", err)
			return err
		}
		return nil
	})
}
