// Package storage defines the persistence contracts consumed by the sync layer.
package storage

import (
	"context"
	"time"

	"github.com/louisbranch/cezi/internal/account"
	apperrors "github.com/louisbranch/cezi/internal/platform/errors"
	"github.com/louisbranch/cezi/internal/reading"
	"github.com/louisbranch/cezi/internal/user"
)

// ErrNotFound indicates a requested record is missing.
//
// Implementations must return it (wrapped or not) for the missing-record case
// so callers can distinguish absence from genuine query failure.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// Condition is a SQL WHERE fragment with positional parameters, produced by
// the filter translator and consumed by list queries.
type Condition struct {
	Clause string
	Params []any
}

// ReadingStore persists divination readings.
type ReadingStore interface {
	// InsertReading persists an unsaved reading, assigning its ID and
	// CreatedAt, and returns the stored record.
	InsertReading(ctx context.Context, r reading.Reading) (reading.Reading, error)
	// ListReadingsByOwner returns the owner's readings sorted by CreatedAt
	// descending. A nil condition lists everything.
	ListReadingsByOwner(ctx context.Context, ownerID string, condition *Condition) ([]reading.Reading, error)
}

// ProfileStore persists account profiles keyed by owner id.
type ProfileStore interface {
	GetProfile(ctx context.Context, ownerID string) (account.Profile, error)
	InsertProfile(ctx context.Context, profile account.Profile) error
	UpdateProfile(ctx context.Context, profile account.Profile) error
}

// UserStore persists account identity records.
type UserStore interface {
	PutUser(ctx context.Context, u user.User) error
	GetUser(ctx context.Context, userID string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}

// WebSession stores one durable authenticated session.
type WebSession struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// WebSessionStore persists web session records.
type WebSessionStore interface {
	PutWebSession(ctx context.Context, session WebSession) error
	GetWebSession(ctx context.Context, id string) (WebSession, error)
	RevokeWebSession(ctx context.Context, id string) error
}
