package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/cezi/internal/storage"
)

// PutWebSession inserts or replaces one web session keyed by ID.
func (s *Store) PutWebSession(ctx context.Context, session storage.WebSession) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("store is not initialized")
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}

	var revokedAt any
	if session.RevokedAt != nil {
		revokedAt = toMillis(*session.RevokedAt)
	}

	_, err := s.sqlDB.ExecContext(ctx, `INSERT INTO web_sessions (
		id, user_id, created_at, expires_at, revoked_at
	) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		user_id = excluded.user_id,
		expires_at = excluded.expires_at,
		revoked_at = excluded.revoked_at`,
		session.ID,
		session.UserID,
		toMillis(session.CreatedAt),
		toMillis(session.ExpiresAt),
		revokedAt,
	)
	if err != nil {
		return fmt.Errorf("put web session: %w", err)
	}
	return nil
}

// GetWebSession loads one web session by ID.
func (s *Store) GetWebSession(ctx context.Context, sessionID string) (storage.WebSession, error) {
	if s == nil || s.sqlDB == nil {
		return storage.WebSession{}, fmt.Errorf("store is not initialized")
	}
	if strings.TrimSpace(sessionID) == "" {
		return storage.WebSession{}, fmt.Errorf("session id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT id, user_id, created_at, expires_at, revoked_at
		FROM web_sessions WHERE id = ?`, sessionID)

	var session storage.WebSession
	var createdAt, expiresAt int64
	var revokedAt sql.NullInt64
	err := row.Scan(&session.ID, &session.UserID, &createdAt, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.WebSession{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.WebSession{}, fmt.Errorf("scan web session: %w", err)
	}
	session.CreatedAt = fromMillis(createdAt)
	session.ExpiresAt = fromMillis(expiresAt)
	if revokedAt.Valid {
		revoked := fromMillis(revokedAt.Int64)
		session.RevokedAt = &revoked
	}
	return session, nil
}

// RevokeWebSession marks one web session as revoked. Revoking a missing
// session returns storage.ErrNotFound.
func (s *Store) RevokeWebSession(ctx context.Context, sessionID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("store is not initialized")
	}
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `UPDATE web_sessions SET revoked_at = ?
		WHERE id = ? AND revoked_at IS NULL`,
		toMillis(s.nowUTC()), sessionID)
	if err != nil {
		return fmt.Errorf("revoke web session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke web session rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
