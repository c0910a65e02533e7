package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpauth/internal/auth/entity"
)

const sessionColumns = `id, user_id, secret_hash, token, created_at, last_login, expires_at`

const (
	queryGetSessionByID     = `SELECT ` + sessionColumns + ` FROM auth_sessions WHERE id = $1`
	queryGetSessionByUserID = `SELECT ` + sessionColumns + ` FROM auth_sessions WHERE user_id = $1`
	queryGetSessionBySecret = `SELECT ` + sessionColumns + ` FROM auth_sessions WHERE secret_hash = $1`
)

const queryUpsertSession = `
INSERT INTO auth_sessions (id, user_id, secret_hash, token, created_at, last_login, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id) DO UPDATE SET
    secret_hash = EXCLUDED.secret_hash,
    token       = EXCLUDED.token,
    last_login  = EXCLUDED.last_login,
    expires_at  = EXCLUDED.expires_at
RETURNING ` + sessionColumns

func scanSession(row pgx.Row) (*entity.Session, error) {
	var (
		sess      entity.Session
		secret    *string
		token     *string
		expiresAt *time.Time
	)
	if err := row.Scan(&sess.ID, &sess.UserID, &secret, &token, &sess.CreatedAt, &sess.LastLogin, &expiresAt); err != nil {
		return nil, err
	}

	sess.SecretHash = deref(secret)
	sess.Token = deref(token)
	sess.ExpiresAt = deref(expiresAt)

	return &sess, nil
}

func (s *DB) getSession(ctx context.Context, name, query string, arg any) (_ *entity.Session, err error) {
	ctx, span := s.startSpan(ctx, name)
	defer func() { s.endSpan(span, err) }()

	sess, err := scanSession(s.conn.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, s.mapError(err)
	}

	return sess, nil
}

func (s *DB) GetSessionByID(ctx context.Context, id int64) (*entity.Session, error) {
	return s.getSession(ctx, "GetSessionByID", queryGetSessionByID, id)
}

func (s *DB) GetSessionByUserID(ctx context.Context, userID int64) (*entity.Session, error) {
	return s.getSession(ctx, "GetSessionByUserID", queryGetSessionByUserID, userID)
}

func (s *DB) GetSessionBySecret(ctx context.Context, secretHash string) (*entity.Session, error) {
	return s.getSession(ctx, "GetSessionBySecret", queryGetSessionBySecret, secretHash)
}

// UpsertSession writes the user's single session row. On conflict the id and
// created_at of the existing row are kept.
func (s *DB) UpsertSession(ctx context.Context, sess entity.Session) (_ *entity.Session, err error) {
	ctx, span := s.startSpan(ctx, "UpsertSession")
	defer func() { s.endSpan(span, err) }()

	out, err := scanSession(s.conn.QueryRow(ctx, queryUpsertSession,
		sess.ID, sess.UserID, nullString(sess.SecretHash), nullString(sess.Token),
		sess.CreatedAt, sess.LastLogin, nullTime(sess.ExpiresAt),
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return out, nil
}
