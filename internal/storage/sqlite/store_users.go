package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/cezi/internal/storage"
	"github.com/louisbranch/cezi/internal/user"
)

// PutUser inserts or updates one user keyed by ID.
func (s *Store) PutUser(ctx context.Context, record user.User) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("store is not initialized")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("user id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `INSERT INTO users (
		id, email, password_hash, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		email = excluded.email,
		password_hash = excluded.password_hash,
		updated_at = excluded.updated_at`,
		record.ID,
		record.Email,
		record.PasswordHash,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser loads one user by ID. Missing rows map to storage.ErrNotFound.
func (s *Store) GetUser(ctx context.Context, userID string) (user.User, error) {
	if s == nil || s.sqlDB == nil {
		return user.User{}, fmt.Errorf("store is not initialized")
	}
	if strings.TrimSpace(userID) == "" {
		return user.User{}, fmt.Errorf("user id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE id = ?`, userID)
	return scanUser(row)
}

// GetUserByEmail loads one user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	if s == nil || s.sqlDB == nil {
		return user.User{}, fmt.Errorf("store is not initialized")
	}
	normalized := user.NormalizeEmail(email)
	if normalized == "" {
		return user.User{}, fmt.Errorf("email is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE email = ?`, normalized)
	return scanUser(row)
}

func scanUser(row *sql.Row) (user.User, error) {
	var record user.User
	var createdAt, updatedAt int64
	err := row.Scan(&record.ID, &record.Email, &record.PasswordHash, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, storage.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("scan user: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
