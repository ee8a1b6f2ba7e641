package account

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func strPtr(value string) *string {
	return &value
}

func TestNewProfileValidation(t *testing.T) {
	if _, err := NewProfile(ProfileInput{OwnerID: "  "}, nil); !errors.Is(err, ErrEmptyOwnerID) {
		t.Fatalf("expected owner id error, got %v", err)
	}
	if _, err := NewProfile(ProfileInput{OwnerID: "u1", DisplayName: strPtr("   ")}, nil); !errors.Is(err, ErrEmptyDisplayName) {
		t.Fatalf("expected display name error, got %v", err)
	}
}

func TestNewProfileBuildsTimestamps(t *testing.T) {
	fixedTime := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	profile, err := NewProfile(ProfileInput{
		OwnerID:     " u1 ",
		DisplayName: strPtr("  Alice  "),
	}, func() time.Time { return fixedTime })
	if err != nil {
		t.Fatalf("new profile: %v", err)
	}
	if profile.OwnerID != "u1" {
		t.Fatalf("expected trimmed owner id, got %q", profile.OwnerID)
	}
	if profile.DisplayName != "Alice" {
		t.Fatalf("expected trimmed display name, got %q", profile.DisplayName)
	}
	if profile.AvatarURL != "" {
		t.Fatalf("expected empty avatar url, got %q", profile.AvatarURL)
	}
	if !profile.CreatedAt.Equal(fixedTime) || !profile.UpdatedAt.Equal(fixedTime) {
		t.Fatal("expected timestamps to match fixed time")
	}
}

func TestMergeLeavesUnsetFieldsAlone(t *testing.T) {
	fixedTime := time.Date(2026, 4, 3, 9, 30, 0, 0, time.UTC)
	existing := Profile{
		OwnerID:     "u1",
		DisplayName: "Alice",
		AvatarURL:   "https://blobs.example/avatars/u1-abc.png",
		CreatedAt:   fixedTime.Add(-time.Hour),
		UpdatedAt:   fixedTime.Add(-time.Hour),
	}

	merged := Merge(existing, ProfileInput{OwnerID: "u1", DisplayName: strPtr("Bob")}, func() time.Time { return fixedTime })
	if merged.DisplayName != "Bob" {
		t.Fatalf("expected updated display name, got %q", merged.DisplayName)
	}
	if merged.AvatarURL != existing.AvatarURL {
		t.Fatalf("expected untouched avatar url, got %q", merged.AvatarURL)
	}
	if !merged.CreatedAt.Equal(existing.CreatedAt) {
		t.Fatal("expected created at to be preserved")
	}
	if !merged.UpdatedAt.Equal(fixedTime) {
		t.Fatal("expected updated at to advance")
	}
}

func TestAvatarKey(t *testing.T) {
	key, err := AvatarKey("u1", ".PNG", func() (string, error) { return "token123", nil })
	if err != nil {
		t.Fatalf("avatar key: %v", err)
	}
	if key != "avatars/u1-token123.png" {
		t.Fatalf("unexpected key %q", key)
	}

	if _, err := AvatarKey("", ".png", nil); !errors.Is(err, ErrEmptyOwnerID) {
		t.Fatalf("expected owner id error, got %v", err)
	}
	if _, err := AvatarKey("u1", ".exe", nil); !errors.Is(err, ErrAvatarBadExtension) {
		t.Fatalf("expected extension error, got %v", err)
	}

	generated, err := AvatarKey("u1", ".png", nil)
	if err != nil {
		t.Fatalf("avatar key with default token: %v", err)
	}
	if !strings.HasPrefix(generated, "avatars/u1-") || !strings.HasSuffix(generated, ".png") {
		t.Fatalf("unexpected generated key %q", generated)
	}
}

func TestValidateAvatarContent(t *testing.T) {
	if err := ValidateAvatarContent(nil); !errors.Is(err, ErrAvatarEmpty) {
		t.Fatalf("expected empty content error, got %v", err)
	}
	if err := ValidateAvatarContent(make([]byte, MaxAvatarBytes+1)); !errors.Is(err, ErrAvatarTooLarge) {
		t.Fatalf("expected too-large error, got %v", err)
	}
	if err := ValidateAvatarContent([]byte{0x89, 0x50}); err != nil {
		t.Fatalf("expected valid content, got %v", err)
	}
}
