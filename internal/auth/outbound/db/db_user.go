package db

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
)

const queryGetUserByExternalID = `
SELECT id, external_id, full_name, phone, username, created_at, updated_at
FROM auth_users
WHERE external_id = $1`

const queryUpsertUserContact = `
INSERT INTO auth_users (id, external_id, full_name, phone, username, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (external_id) DO UPDATE SET
    full_name  = EXCLUDED.full_name,
    phone      = EXCLUDED.phone,
    username   = EXCLUDED.username,
    updated_at = EXCLUDED.updated_at
RETURNING id, external_id, full_name, phone, username, created_at, updated_at, (xmax = 0) AS created`

func (s *DB) GetUserByExternalID(ctx context.Context, externalID int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByExternalID")
	defer func() { s.endSpan(span, err) }()

	var u entity.User
	err = s.conn.QueryRow(ctx, queryGetUserByExternalID, externalID).Scan(
		&u.ID, &u.ExternalID, &u.FullName, &u.Phone, &u.Username, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

// UpsertUserContact inserts the user or, when the external id is known,
// refreshes the contact fields. The flag reports whether a row was inserted.
func (s *DB) UpsertUserContact(ctx context.Context, user entity.User) (_ *entity.User, created bool, err error) {
	ctx, span := s.startSpan(ctx, "UpsertUserContact")
	defer func() { s.endSpan(span, err) }()

	var u entity.User
	err = s.conn.QueryRow(ctx, queryUpsertUserContact,
		user.ID, user.ExternalID, user.FullName, user.Phone, user.Username, user.CreatedAt, user.UpdatedAt,
	).Scan(&u.ID, &u.ExternalID, &u.FullName, &u.Phone, &u.Username, &u.CreatedAt, &u.UpdatedAt, &created)
	if err != nil {
		return nil, false, s.mapError(err)
	}

	return &u, created, nil
}
