package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/cache"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/hash"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/locker"
	"github.com/shandysiswandi/otpauth/internal/pkg/otp"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOTPTTL       = 60 * time.Second
	maxIssueAttempts    = 3
	lockKeyPrefixIssuer = "otp:issue:"
)

type OTPIssuedEvent struct {
	UserID    int64
	SessionID int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type repoMessaging interface {
	PublishOTPIssued(ctx context.Context, msg OTPIssuedEvent) error
}

type repoDB interface {
	GetUserByExternalID(ctx context.Context, externalID int64) (*entity.User, error)
	GetSessionByID(ctx context.Context, id int64) (*entity.Session, error)
	GetSessionByUserID(ctx context.Context, userID int64) (*entity.Session, error)
	GetSessionBySecret(ctx context.Context, secretHash string) (*entity.Session, error)

	UpsertUserContact(ctx context.Context, user entity.User) (*entity.User, bool, error)
	UpsertSession(ctx context.Context, sess entity.Session) (*entity.Session, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	cache         cache.Cache[string]
	locker        locker.Locker
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	uid           uid.NumberID
	totp          otp.OTP
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	otpIssued  metric.Int64Counter
	otpReused  metric.Int64Counter
	otpAudited metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Cache         cache.Cache[string]
	Locker        locker.Locker
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	UID           uid.NumberID
	Totp          otp.OTP
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		cache:         dep.Cache,
		locker:        dep.Locker,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		uid:           dep.UID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}

	meter := s.ins.Meter("auth.usecase")
	s.otpIssued = s.counter(meter, "auth.otp.issued", "Fresh OTP issuances")
	s.otpReused = s.counter(meter, "auth.otp.reused", "Issuance requests answered with a live OTP")
	s.otpAudited = s.counter(meter, "auth.otp.audited", "Issuance events seen by the audit consumer")

	return s
}

func (s *Usecase) counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Warn("failed to create counter", "name", name, "error", err)
	}
	return c
}

func (s *Usecase) add(ctx context.Context, c metric.Int64Counter) {
	if c != nil {
		c.Add(ctx, 1)
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

// otpTTL keeps both cache mappings alive for exactly one OTP window.
func (s *Usecase) otpTTL() time.Duration {
	if ttl := s.totp.Period(); ttl > 0 {
		return ttl
	}
	return defaultOTPTTL
}

func (s *Usecase) tokenValidity() time.Duration {
	return s.cfg.GetDay("modules.auth.token_ttl_days")
}
