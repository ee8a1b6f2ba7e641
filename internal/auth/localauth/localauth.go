// Package localauth implements the auth provider against local storage:
// bcrypt credentials, persisted web sessions, and signed session tokens.
package localauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/louisbranch/cezi/internal/auth"
	"github.com/louisbranch/cezi/internal/auth/token"
	apperrors "github.com/louisbranch/cezi/internal/platform/errors"
	"github.com/louisbranch/cezi/internal/storage"
	"github.com/louisbranch/cezi/internal/user"
)

// Provider checks credentials against the user store and persists one web
// session row per sign-in.
type Provider struct {
	users       storage.UserStore
	sessions    storage.WebSessionStore
	tokens      token.Config
	clock       func() time.Time
	idGenerator func() (string, error)
}

// Config wires the provider's collaborators.
type Config struct {
	Users       storage.UserStore
	Sessions    storage.WebSessionStore
	Tokens      token.Config
	Clock       func() time.Time
	IDGenerator func() (string, error)
}

// New creates a local auth provider.
func New(cfg Config) (*Provider, error) {
	if cfg.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("web session store is required")
	}
	if len(cfg.Tokens.Secret) == 0 {
		return nil, fmt.Errorf("session token config is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.IDGenerator == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	return &Provider{
		users:       cfg.Users,
		sessions:    cfg.Sessions,
		tokens:      cfg.Tokens,
		clock:       cfg.Clock,
		idGenerator: cfg.IDGenerator,
	}, nil
}

// Register creates a new account and signs it in. Registering an email that
// already has an account fails without touching the existing record.
func (p *Provider) Register(ctx context.Context, email, password string) (auth.Session, error) {
	if p == nil {
		return auth.Session{}, fmt.Errorf("provider is not initialized")
	}

	normalized := user.NormalizeEmail(email)
	if normalized == "" {
		return auth.Session{}, user.ErrEmptyEmail
	}
	if err := user.ValidatePassword(password); err != nil {
		return auth.Session{}, err
	}

	_, err := p.users.GetUserByEmail(ctx, normalized)
	if err == nil {
		return auth.Session{}, apperrors.WithMetadata(
			apperrors.CodeAuthAlreadyRegistered,
			"email is already registered",
			map[string]string{"Email": normalized},
		)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return auth.Session{}, fmt.Errorf("check existing account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return auth.Session{}, fmt.Errorf("hash password: %w", err)
	}

	record, err := user.CreateUser(user.CreateUserInput{
		Email:        normalized,
		PasswordHash: string(hash),
	}, p.clock, p.idGenerator)
	if err != nil {
		return auth.Session{}, err
	}
	if err := p.users.PutUser(ctx, record); err != nil {
		return auth.Session{}, fmt.Errorf("store account: %w", err)
	}

	return p.openSession(ctx, record)
}

// SignIn verifies credentials and opens a new web session. Unknown emails and
// wrong passwords return the same error so callers cannot probe accounts.
func (p *Provider) SignIn(ctx context.Context, email, password string) (auth.Session, error) {
	if p == nil {
		return auth.Session{}, fmt.Errorf("provider is not initialized")
	}

	invalid := apperrors.New(apperrors.CodeAuthInvalidCredentials, "email or password is incorrect")

	normalized := user.NormalizeEmail(email)
	if normalized == "" || password == "" {
		return auth.Session{}, invalid
	}

	record, err := p.users.GetUserByEmail(ctx, normalized)
	if errors.Is(err, storage.ErrNotFound) {
		return auth.Session{}, invalid
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return auth.Session{}, invalid
	}

	return p.openSession(ctx, record)
}

// Restore validates a persisted session token against the session store.
func (p *Provider) Restore(ctx context.Context, tokenValue string) (auth.Session, error) {
	if p == nil {
		return auth.Session{}, fmt.Errorf("provider is not initialized")
	}

	claims, err := token.Verify(tokenValue, p.tokens)
	if err != nil {
		return auth.Session{}, err
	}

	session, err := p.sessions.GetWebSession(ctx, claims.SessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return auth.Session{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session is unknown")
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("load session: %w", err)
	}
	if session.UserID != claims.UserID {
		return auth.Session{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session does not match token")
	}
	if session.RevokedAt != nil {
		return auth.Session{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session is revoked")
	}

	now := p.clock().UTC()
	if !session.ExpiresAt.After(now) {
		return auth.Session{}, apperrors.New(apperrors.CodeAuthSessionExpired, "session is expired")
	}

	record, err := p.users.GetUser(ctx, session.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return auth.Session{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session owner is unknown")
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("load account: %w", err)
	}

	return auth.Session{
		Token:    tokenValue,
		Identity: auth.Identity{ID: record.ID, Email: record.Email},
	}, nil
}

// SignOut revokes the web session the token points at. Revoking an already
// missing session is treated as success.
func (p *Provider) SignOut(ctx context.Context, tokenValue string) error {
	if p == nil {
		return fmt.Errorf("provider is not initialized")
	}

	claims, err := token.Verify(tokenValue, p.tokens)
	if err != nil {
		return err
	}

	err = p.sessions.RevokeWebSession(ctx, claims.SessionID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (p *Provider) openSession(ctx context.Context, record user.User) (auth.Session, error) {
	sessionID, err := p.idGenerator()
	if err != nil {
		return auth.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	now := p.clock().UTC()
	ttl := p.tokens.TTL
	if ttl <= 0 {
		ttl = token.DefaultTTL
	}

	webSession := storage.WebSession{
		ID:        sessionID,
		UserID:    record.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := p.sessions.PutWebSession(ctx, webSession); err != nil {
		return auth.Session{}, fmt.Errorf("store session: %w", err)
	}

	signed, err := token.Mint(record.ID, sessionID, p.tokens)
	if err != nil {
		return auth.Session{}, err
	}

	return auth.Session{
		Token:    signed,
		Identity: auth.Identity{ID: record.ID, Email: record.Email},
	}, nil
}

var _ auth.Provider = (*Provider)(nil)
