package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/cache"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/hash"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/locker"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

const testConfig = `
modules:
  auth:
    token_ttl_days: 365
`

type fakeRepo struct {
	mu       sync.Mutex
	users    map[int64]*entity.User
	sessions map[int64]*entity.Session
	failWith error
	// failUpsert makes UpsertSession fail without touching the row.
	failUpsert error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[int64]*entity.User),
		sessions: make(map[int64]*entity.Session),
	}
}

func (r *fakeRepo) addUser(u entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ExternalID] = &u
}

func (r *fakeRepo) GetUserByExternalID(_ context.Context, externalID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	u, ok := r.users[externalID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) findSession(match func(*entity.Session) bool) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if match(s) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (r *fakeRepo) GetSessionByID(_ context.Context, id int64) (*entity.Session, error) {
	return r.findSession(func(s *entity.Session) bool { return s.ID == id })
}

func (r *fakeRepo) GetSessionByUserID(_ context.Context, userID int64) (*entity.Session, error) {
	return r.findSession(func(s *entity.Session) bool { return s.UserID == userID })
}

func (r *fakeRepo) GetSessionBySecret(_ context.Context, secretHash string) (*entity.Session, error) {
	return r.findSession(func(s *entity.Session) bool { return s.SecretHash == secretHash })
}

func (r *fakeRepo) UpsertUserContact(_ context.Context, user entity.User) (*entity.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.users[user.ExternalID]; ok {
		cur.Phone, cur.FullName, cur.Username, cur.UpdatedAt = user.Phone, user.FullName, user.Username, user.UpdatedAt
		cp := *cur
		return &cp, false, nil
	}
	r.users[user.ExternalID] = &user
	cp := user
	return &cp, true, nil
}

func (r *fakeRepo) UpsertSession(_ context.Context, sess entity.Session) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpsert != nil {
		return nil, r.failUpsert
	}
	if cur, ok := r.sessions[sess.UserID]; ok {
		cur.SecretHash, cur.Token, cur.LastLogin, cur.ExpiresAt = sess.SecretHash, sess.Token, sess.LastLogin, sess.ExpiresAt
		cp := *cur
		return &cp, nil
	}
	r.sessions[sess.UserID] = &sess
	cp := sess
	return &cp, nil
}

// fakeOTP hands out codes in order, one per new secret.
type fakeOTP struct {
	mu       sync.Mutex
	codes    []string
	n        int
	bySecret map[string]string
	period   time.Duration
}

func newFakeOTP(codes ...string) *fakeOTP {
	return &fakeOTP{codes: codes, bySecret: make(map[string]string), period: 60 * time.Second}
}

func (f *fakeOTP) NewSecret() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	secret := fmt.Sprintf("SECRET%04d", f.n)
	f.bySecret[secret] = f.codes[(f.n-1)%len(f.codes)]
	return secret, nil
}

func (f *fakeOTP) Code(secret string, _ time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bySecret[secret], nil
}

func (f *fakeOTP) Period() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.period
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []OTPIssuedEvent
}

func (f *fakeMessaging) PublishOTPIssued(_ context.Context, msg OTPIssuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return nil
}

func (f *fakeMessaging) published() []OTPIssuedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]OTPIssuedEvent(nil), f.events...)
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (g *seqID) Generate() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return 1000 + g.n
}

type seqUUID struct {
	mu sync.Mutex
	n  int
}

func (g *seqUUID) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("jti-%d", g.n)
}

type harness struct {
	uc    *Usecase
	repo  *fakeRepo
	cache *cache.Memory[string]
	clock *clock.Manual
	otp   *fakeOTP
	mq    *fakeMessaging
	gm    *goroutine.Manager
	jwt   *jwt.Symmetric
}

func newHarness(t *testing.T, codes ...string) *harness {
	t.Helper()

	if len(codes) == 0 {
		codes = []string{"482913", "117750"}
	}

	clk := clock.NewManual(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	val, err := validator.NewV10Validator()
	require.NoError(t, err)

	hmac, err := hash.NewHMACSHA256("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	signer, err := jwt.NewSymmetric(jwt.Config{
		Secret:   []byte("fedcba9876543210fedcba9876543210"),
		Issuer:   "otpauth",
		Validity: 365 * 24 * time.Hour,
		Clock:    clk,
		UUID:     &seqUUID{},
	})
	require.NoError(t, err)

	h := &harness{
		repo:  newFakeRepo(),
		cache: cache.NewMemory[string](clk, 4),
		clock: clk,
		otp:   newFakeOTP(codes...),
		mq:    &fakeMessaging{},
		gm:    goroutine.NewManager(8),
		jwt:   signer,
	}

	h.uc = New(Dependency{
		RepoDB:        h.repo,
		RepoMessaging: h.mq,
		Cache:         h.cache,
		Locker:        locker.NewMemory(),
		Validator:     val,
		Config:        cfg,
		HMAC:          hmac,
		UID:           &seqID{},
		Totp:          h.otp,
		Clock:         clk,
		JWT:           signer,
		Instrument:    instrument.NewNoop(),
		Goroutine:     h.gm,
	})

	return h
}

func (h *harness) register(externalID int64, phone string) {
	h.repo.addUser(entity.User{
		ID:         externalID * 10,
		ExternalID: externalID,
		FullName:   "Test User",
		Phone:      phone,
		Username:   entity.DefaultUsername(externalID),
		CreatedAt:  h.clock.Now(),
		UpdatedAt:  h.clock.Now(),
	})
}
