// Package account provides display/profile metadata for user identities.
package account

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/cezi/internal/platform/errors"
)

var (
	// ErrEmptyOwnerID indicates a profile without an owning identity.
	ErrEmptyOwnerID = apperrors.New(apperrors.CodeProfileEmptyOwnerID, "owner id is required")
	// ErrEmptyDisplayName indicates a missing display name.
	ErrEmptyDisplayName = apperrors.New(apperrors.CodeProfileEmptyDisplayName, "display name is required")
)

// Profile captures display metadata for one identity.
//
// The profile id is the owning identity's id; at most one profile exists per
// identity and it may not exist yet for a freshly registered account.
type Profile struct {
	OwnerID     string
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileInput is the mutable payload used to create or update a profile.
//
// Nil fields are left untouched on update so a display-name edit cannot
// clobber an avatar set by an earlier edit, and vice versa.
type ProfileInput struct {
	OwnerID     string
	DisplayName *string
	AvatarURL   *string
}

// NormalizeProfileInput trims strings without dropping intentionally set fields.
func NormalizeProfileInput(input ProfileInput) ProfileInput {
	input.OwnerID = strings.TrimSpace(input.OwnerID)
	if input.DisplayName != nil {
		trimmed := strings.TrimSpace(*input.DisplayName)
		input.DisplayName = &trimmed
	}
	if input.AvatarURL != nil {
		trimmed := strings.TrimSpace(*input.AvatarURL)
		input.AvatarURL = &trimmed
	}
	return input
}

// NewProfile validates and builds a full profile from input.
func NewProfile(input ProfileInput, now func() time.Time) (Profile, error) {
	normalized := NormalizeProfileInput(input)
	if normalized.OwnerID == "" {
		return Profile{}, ErrEmptyOwnerID
	}
	if normalized.DisplayName != nil && *normalized.DisplayName == "" {
		return Profile{}, ErrEmptyDisplayName
	}

	if now == nil {
		now = time.Now
	}
	createdAt := now().UTC()

	profile := Profile{
		OwnerID:   normalized.OwnerID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if normalized.DisplayName != nil {
		profile.DisplayName = *normalized.DisplayName
	}
	if normalized.AvatarURL != nil {
		profile.AvatarURL = *normalized.AvatarURL
	}
	return profile, nil
}

// Merge applies input fields onto an existing profile, leaving nil fields alone.
func Merge(existing Profile, input ProfileInput, now func() time.Time) Profile {
	normalized := NormalizeProfileInput(input)
	if now == nil {
		now = time.Now
	}
	merged := existing
	if normalized.DisplayName != nil {
		merged.DisplayName = *normalized.DisplayName
	}
	if normalized.AvatarURL != nil {
		merged.AvatarURL = *normalized.AvatarURL
	}
	merged.UpdatedAt = now().UTC()
	return merged
}
