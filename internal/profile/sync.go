// Package profile keeps the current owner's profile in sync with the profile
// store and publishes avatar uploads to blob storage.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/cezi/internal/account"
	"github.com/louisbranch/cezi/internal/auth"
	"github.com/louisbranch/cezi/internal/id"
	"github.com/louisbranch/cezi/internal/storage"
)

// avatarBucket is the blob bucket all avatar uploads land in.
const avatarBucket = "uploads"

// Synchronizer caches the current owner's profile. Edits go through one
// upsert path: read the stored row, then insert when it is missing or update
// when it exists. Any other read failure aborts before a write happens.
type Synchronizer struct {
	store  storage.ProfileStore
	blobs  storage.BlobStore
	logger *log.Logger

	clock          func() time.Time
	tokenGenerator func() (string, error)

	mu         sync.Mutex
	ownerID    string
	hasProfile bool
	profile    account.Profile
}

// Config wires the synchronizer's collaborators.
type Config struct {
	Store          storage.ProfileStore
	Blobs          storage.BlobStore
	Logger         *log.Logger
	Clock          func() time.Time
	TokenGenerator func() (string, error)
}

// NewSynchronizer creates a profile synchronizer.
func NewSynchronizer(cfg Config) (*Synchronizer, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if cfg.Blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.TokenGenerator == nil {
		cfg.TokenGenerator = id.NewID
	}
	return &Synchronizer{
		store:          cfg.Store,
		blobs:          cfg.Blobs,
		logger:         cfg.Logger,
		clock:          cfg.Clock,
		tokenGenerator: cfg.TokenGenerator,
	}, nil
}

// Attach subscribes the synchronizer to auth transitions. The returned
// function detaches the subscription.
func (s *Synchronizer) Attach(tracker *auth.Tracker) func() {
	if s == nil || tracker == nil {
		return func() {}
	}
	return tracker.OnTransition(func(event auth.Event) {
		switch event.Kind {
		case auth.EventSignedIn, auth.EventSessionRestored:
			if event.Identity.ID == "" {
				// A restore that found no session.
				s.Clear()
				return
			}
			if err := s.LoadFor(context.Background(), event.Identity.ID); err != nil {
				s.logger.Printf("profile: load for %s: %v", event.Identity.ID, err)
			}
		case auth.EventSignedOut:
			s.Clear()
		}
	})
}

// LoadFor binds the synchronizer to an owner and loads their stored profile.
// A missing profile is not an error; the owner simply has none yet. The owner
// is rebound and the cache emptied before the store read, so a failed load
// never leaves the previous owner's profile visible.
func (s *Synchronizer) LoadFor(ctx context.Context, ownerID string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("synchronizer is not initialized")
	}
	if ownerID == "" {
		return account.ErrEmptyOwnerID
	}

	s.mu.Lock()
	s.ownerID = ownerID
	s.hasProfile = false
	s.profile = account.Profile{}
	s.mu.Unlock()

	stored, err := s.store.GetProfile(ctx, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	s.mu.Lock()
	if s.ownerID == ownerID {
		s.profile = stored
		s.hasProfile = true
	}
	s.mu.Unlock()
	return nil
}

// Clear drops the cached profile and its owner binding.
func (s *Synchronizer) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.ownerID = ""
	s.hasProfile = false
	s.profile = account.Profile{}
	s.mu.Unlock()
}

// Profile returns the cached profile and whether one exists for the owner.
func (s *Synchronizer) Profile() (account.Profile, bool) {
	if s == nil {
		return account.Profile{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile, s.hasProfile
}

// UpsertDisplayName stores a new display name for the current owner,
// creating the profile when none exists yet.
func (s *Synchronizer) UpsertDisplayName(ctx context.Context, displayName string) (account.Profile, error) {
	if s == nil || s.store == nil {
		return account.Profile{}, fmt.Errorf("synchronizer is not initialized")
	}

	ownerID, err := s.currentOwner()
	if err != nil {
		return account.Profile{}, err
	}

	input := account.NormalizeProfileInput(account.ProfileInput{
		OwnerID:     ownerID,
		DisplayName: &displayName,
	})
	if *input.DisplayName == "" {
		return account.Profile{}, account.ErrEmptyDisplayName
	}
	return s.upsert(ctx, input)
}

// UpsertAvatar uploads avatar content to blob storage and stores the public
// URL on the profile. The upload happens first; a failed upload never touches
// the stored profile.
func (s *Synchronizer) UpsertAvatar(ctx context.Context, content []byte, extension string) (account.Profile, error) {
	if s == nil || s.store == nil || s.blobs == nil {
		return account.Profile{}, fmt.Errorf("synchronizer is not initialized")
	}

	ownerID, err := s.currentOwner()
	if err != nil {
		return account.Profile{}, err
	}

	if err := account.ValidateAvatarContent(content); err != nil {
		return account.Profile{}, err
	}
	key, err := account.AvatarKey(ownerID, extension, s.tokenGenerator)
	if err != nil {
		return account.Profile{}, err
	}

	if err := s.blobs.Upload(ctx, avatarBucket, key, content); err != nil {
		return account.Profile{}, fmt.Errorf("upload avatar: %w", err)
	}
	avatarURL := s.blobs.PublicURL(avatarBucket, key)

	return s.upsert(ctx, account.ProfileInput{
		OwnerID:   ownerID,
		AvatarURL: &avatarURL,
	})
}

func (s *Synchronizer) currentOwner() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownerID == "" {
		return "", auth.ErrNotSignedIn
	}
	return s.ownerID, nil
}

// upsert reads the stored profile and branches three ways: missing rows are
// inserted, existing rows are merged and updated, and every other read error
// aborts the edit.
func (s *Synchronizer) upsert(ctx context.Context, input account.ProfileInput) (account.Profile, error) {
	existing, err := s.store.GetProfile(ctx, input.OwnerID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		created, err := account.NewProfile(input, s.clock)
		if err != nil {
			return account.Profile{}, err
		}
		if err := s.store.InsertProfile(ctx, created); err != nil {
			return account.Profile{}, fmt.Errorf("insert profile: %w", err)
		}
		s.cache(created)
		return created, nil
	case err != nil:
		return account.Profile{}, fmt.Errorf("read profile: %w", err)
	default:
		merged := account.Merge(existing, input, s.clock)
		if err := s.store.UpdateProfile(ctx, merged); err != nil {
			return account.Profile{}, fmt.Errorf("update profile: %w", err)
		}
		s.cache(merged)
		return merged, nil
	}
}

func (s *Synchronizer) cache(profile account.Profile) {
	s.mu.Lock()
	if s.ownerID == profile.OwnerID {
		s.profile = profile
		s.hasProfile = true
	}
	s.mu.Unlock()
}
