// Package auth tracks the signed-in identity and publishes auth transitions
// to the synchronizers that scope their state per owner.
package auth

import "context"

// Identity is the authenticated owner all synced state is scoped to.
type Identity struct {
	ID    string
	Email string
}

// EventKind names an auth transition.
type EventKind string

const (
	// EventSignedIn fires after a credential sign-in or registration.
	EventSignedIn EventKind = "signed_in"
	// EventSignedOut fires after the current session ends.
	EventSignedOut EventKind = "signed_out"
	// EventSessionRestored fires when a persisted session proves valid at
	// startup.
	EventSessionRestored EventKind = "session_restored"
)

// Event describes one auth transition. Identity is zero for sign-out.
type Event struct {
	Kind     EventKind
	Identity Identity
}

// Session pairs a minted session token with the identity it belongs to.
type Session struct {
	Token    string
	Identity Identity
}

// Provider performs credential checks and session persistence. localauth is
// the bundled implementation; remote providers satisfy the same contract.
type Provider interface {
	Register(ctx context.Context, email, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	Restore(ctx context.Context, tokenValue string) (Session, error)
	SignOut(ctx context.Context, tokenValue string) error
}
