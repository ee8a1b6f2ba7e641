package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/cezi/internal/account"
	"github.com/louisbranch/cezi/internal/storage"
)

// GetProfile loads one profile by owner ID. Missing rows map to
// storage.ErrNotFound so callers can branch between insert and update.
func (s *Store) GetProfile(ctx context.Context, ownerID string) (account.Profile, error) {
	if s == nil || s.sqlDB == nil {
		return account.Profile{}, fmt.Errorf("store is not initialized")
	}
	if strings.TrimSpace(ownerID) == "" {
		return account.Profile{}, fmt.Errorf("owner id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT owner_id, display_name, avatar_url, created_at, updated_at
		FROM profiles WHERE owner_id = ?`, ownerID)

	var profile account.Profile
	var createdAt, updatedAt int64
	err := row.Scan(&profile.OwnerID, &profile.DisplayName, &profile.AvatarURL, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return account.Profile{}, storage.ErrNotFound
	}
	if err != nil {
		return account.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	profile.CreatedAt = fromMillis(createdAt)
	profile.UpdatedAt = fromMillis(updatedAt)
	return profile, nil
}

// InsertProfile creates a new profile row. Inserting an existing owner fails.
func (s *Store) InsertProfile(ctx context.Context, profile account.Profile) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("store is not initialized")
	}
	if strings.TrimSpace(profile.OwnerID) == "" {
		return fmt.Errorf("owner id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `INSERT INTO profiles (
		owner_id, display_name, avatar_url, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?)`,
		profile.OwnerID,
		profile.DisplayName,
		profile.AvatarURL,
		toMillis(profile.CreatedAt),
		toMillis(profile.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// UpdateProfile replaces the mutable columns of an existing profile row.
func (s *Store) UpdateProfile(ctx context.Context, profile account.Profile) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("store is not initialized")
	}
	if strings.TrimSpace(profile.OwnerID) == "" {
		return fmt.Errorf("owner id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `UPDATE profiles SET
		display_name = ?,
		avatar_url = ?,
		updated_at = ?
	WHERE owner_id = ?`,
		profile.DisplayName,
		profile.AvatarURL,
		toMillis(profile.UpdatedAt),
		profile.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
