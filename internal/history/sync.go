// Package history keeps an owner-scoped cache of past readings in sync with
// the reading store.
package history

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/louisbranch/cezi/internal/auth"
	"github.com/louisbranch/cezi/internal/divination"
	apperrors "github.com/louisbranch/cezi/internal/platform/errors"
	"github.com/louisbranch/cezi/internal/reading"
	"github.com/louisbranch/cezi/internal/storage"
)

// Synchronizer caches the current owner's readings newest first. The cache is
// replaced wholesale on load and only ever grows by prepending records the
// store has confirmed.
type Synchronizer struct {
	store  storage.ReadingStore
	engine divination.Engine
	logger *log.Logger

	mu      sync.Mutex
	ownerID string
	entries []reading.Reading
}

// NewSynchronizer wires a history synchronizer to its store and engine.
func NewSynchronizer(store storage.ReadingStore, engine divination.Engine, logger *log.Logger) (*Synchronizer, error) {
	if store == nil {
		return nil, fmt.Errorf("reading store is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("divination engine is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Synchronizer{store: store, engine: engine, logger: logger}, nil
}

// Attach subscribes the synchronizer to auth transitions. Sign-in and session
// restore load the new owner's history; sign-out drops the cache. The
// returned function detaches the subscription.
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
				s.logger.Printf("history: load for %s: %v", event.Identity.ID, err)
			}
		case auth.EventSignedOut:
			s.Clear()
		}
	})
}

// LoadFor replaces the cache with the owner's stored readings, newest first.
// The owner is rebound and the cache emptied before the store read, so a
// failed load never leaves the previous owner's readings visible.
func (s *Synchronizer) LoadFor(ctx context.Context, ownerID string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("synchronizer is not initialized")
	}
	if ownerID == "" {
		return reading.ErrEmptyOwnerID
	}

	s.mu.Lock()
	s.ownerID = ownerID
	s.entries = nil
	s.mu.Unlock()

	entries, err := s.store.ListReadingsByOwner(ctx, ownerID, nil)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	s.mu.Lock()
	if s.ownerID == ownerID {
		s.entries = entries
	}
	s.mu.Unlock()
	return nil
}

// Clear drops the cache and its owner binding.
func (s *Synchronizer) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.ownerID = ""
	s.entries = nil
	s.mu.Unlock()
}

// Submit interprets a character and records the reading for the current
// owner. Blank input is a no-op returning a zero reading. The cache is only
// updated after the store confirms the insert, so a failed write never
// surfaces a phantom entry.
func (s *Synchronizer) Submit(ctx context.Context, character string) (reading.Reading, error) {
	if s == nil || s.store == nil {
		return reading.Reading{}, fmt.Errorf("synchronizer is not initialized")
	}

	s.mu.Lock()
	ownerID := s.ownerID
	s.mu.Unlock()
	if ownerID == "" {
		return reading.Reading{}, auth.ErrNotSignedIn
	}

	normalized, err := reading.NormalizeCharacter(character)
	if err != nil {
		return reading.Reading{}, err
	}
	if normalized == "" {
		return reading.Reading{}, nil
	}

	interpretation, err := s.engine.Interpret(normalized)
	if err != nil {
		return reading.Reading{}, apperrors.Wrap(apperrors.CodeReadingInterpretationGone, "interpretation is unavailable", err)
	}

	record, err := reading.New(ownerID, normalized, interpretation)
	if err != nil {
		return reading.Reading{}, err
	}

	confirmed, err := s.store.InsertReading(ctx, record)
	if err != nil {
		return reading.Reading{}, fmt.Errorf("store reading: %w", err)
	}

	s.mu.Lock()
	// The owner may have changed while the insert was in flight. Only the
	// owner the reading belongs to gets the prepend.
	if s.ownerID == confirmed.OwnerID {
		s.entries = append([]reading.Reading{confirmed}, s.entries...)
	}
	s.mu.Unlock()
	return confirmed, nil
}

// History returns a copy of the cached readings, newest first.
func (s *Synchronizer) History() []reading.Reading {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return nil
	}
	entries := make([]reading.Reading, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// Search queries the current owner's stored readings with an AIP-160 filter
// expression. Results come straight from the store and leave the cache alone.
func (s *Synchronizer) Search(ctx context.Context, filterStr string) ([]reading.Reading, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("synchronizer is not initialized")
	}

	s.mu.Lock()
	ownerID := s.ownerID
	s.mu.Unlock()
	if ownerID == "" {
		return nil, auth.ErrNotSignedIn
	}

	condition, err := ParseReadingFilter(filterStr)
	if err != nil {
		return nil, err
	}
	return s.store.ListReadingsByOwner(ctx, ownerID, condition)
}
