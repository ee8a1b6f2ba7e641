package auth

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/louisbranch/cezi/internal/platform/errors"
)

// ErrNotSignedIn is returned when an operation needs a current identity.
var ErrNotSignedIn = apperrors.New(apperrors.CodeAuthNotSignedIn, "no identity is signed in")

type observer struct {
	id int
	fn func(Event)
}

// Tracker owns the current identity and notifies observers of transitions.
//
// Observers run synchronously on the goroutine that performed the transition,
// in registration order, so downstream caches always see transitions in the
// order they happened.
type Tracker struct {
	provider Provider

	mu        sync.Mutex
	current   Identity
	signedIn  bool
	token     string
	nextID    int
	observers []observer
}

// NewTracker wires a tracker to its auth provider.
func NewTracker(provider Provider) (*Tracker, error) {
	if provider == nil {
		return nil, fmt.Errorf("auth provider is required")
	}
	return &Tracker{provider: provider}, nil
}

// Current returns the signed-in identity, if any.
func (t *Tracker) Current() (Identity, bool) {
	if t == nil {
		return Identity{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.signedIn
}

// Token returns the session token for the current identity. Callers persist
// it so the session can be restored on the next start.
func (t *Tracker) Token() string {
	if t == nil {
		return ""
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

// OnTransition registers an observer for auth transitions. The returned
// function removes the observer.
func (t *Tracker) OnTransition(fn func(Event)) func() {
	if t == nil || fn == nil {
		return func() {}
	}
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.observers = append(t.observers, observer{id: id, fn: fn})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, entry := range t.observers {
			if entry.id == id {
				t.observers = append(t.observers[:i], t.observers[i+1:]...)
				return
			}
		}
	}
}

// Register creates an account and signs the new identity in.
func (t *Tracker) Register(ctx context.Context, email, password string) (Identity, error) {
	if t == nil || t.provider == nil {
		return Identity{}, fmt.Errorf("tracker is not initialized")
	}
	session, err := t.provider.Register(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}
	t.transition(EventSignedIn, session)
	return session.Identity, nil
}

// SignIn checks credentials and publishes the signed-in identity.
func (t *Tracker) SignIn(ctx context.Context, email, password string) (Identity, error) {
	if t == nil || t.provider == nil {
		return Identity{}, fmt.Errorf("tracker is not initialized")
	}
	session, err := t.provider.SignIn(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}
	t.transition(EventSignedIn, session)
	return session.Identity, nil
}

// RestoreSession revalidates a persisted session token. A valid token
// publishes the identity as restored rather than freshly signed in. A token
// the provider rejects as invalid or expired still publishes the restore,
// with no identity, so observers reset their caches before the error is
// returned.
func (t *Tracker) RestoreSession(ctx context.Context, tokenValue string) (Identity, error) {
	if t == nil || t.provider == nil {
		return Identity{}, fmt.Errorf("tracker is not initialized")
	}
	session, err := t.provider.Restore(ctx, tokenValue)
	if err != nil {
		switch apperrors.CodeOf(err) {
		case apperrors.CodeAuthSessionInvalid, apperrors.CodeAuthSessionExpired:
			t.transition(EventSessionRestored, Session{})
		}
		return Identity{}, err
	}
	t.transition(EventSessionRestored, session)
	return session.Identity, nil
}

// SignOut ends the current session and publishes the sign-out.
func (t *Tracker) SignOut(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return fmt.Errorf("tracker is not initialized")
	}

	t.mu.Lock()
	if !t.signedIn {
		t.mu.Unlock()
		return ErrNotSignedIn
	}
	tokenValue := t.token
	t.mu.Unlock()

	if err := t.provider.SignOut(ctx, tokenValue); err != nil {
		return err
	}
	t.transition(EventSignedOut, Session{})
	return nil
}

func (t *Tracker) transition(kind EventKind, session Session) {
	t.mu.Lock()
	if kind == EventSignedOut || session.Identity.ID == "" {
		t.current = Identity{}
		t.signedIn = false
		t.token = ""
	} else {
		t.current = session.Identity
		t.signedIn = true
		t.token = session.Token
	}
	observers := make([]observer, len(t.observers))
	copy(observers, t.observers)
	event := Event{Kind: kind, Identity: t.current}
	t.mu.Unlock()

	for _, entry := range observers {
		entry.fn(event)
	}
}
