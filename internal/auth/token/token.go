// Package token mints and verifies signed session tokens.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/cezi/internal/platform/errors"
)

// DefaultTTL bounds session tokens when no TTL is configured.
const DefaultTTL = 30 * 24 * time.Hour

// sessionEnv holds raw env values before post-parse validation.
type sessionEnv struct {
	Issuer string        `env:"CEZI_SESSION_TOKEN_ISSUER" envDefault:"cezi"`
	Secret string        `env:"CEZI_SESSION_TOKEN_SECRET"`
	TTL    time.Duration `env:"CEZI_SESSION_TOKEN_TTL"`
}

// Config defines how session tokens are minted and verified.
type Config struct {
	Issuer string
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

// Claims captures validated session token claims.
type Claims struct {
	Issuer    string
	ExpiresAt time.Time
	IssuedAt  time.Time
	UserID    string
	SessionID string
}

// sessionClaims is the internal claims type used for JWT parsing.
type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

// LoadConfigFromEnv reads session token configuration.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw sessionEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse session token env: %w", err)
	}
	secret := strings.TrimSpace(raw.Secret)
	if secret == "" {
		return Config{}, fmt.Errorf("CEZI_SESSION_TOKEN_SECRET is required")
	}
	ttl := raw.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return Config{
		Issuer: strings.TrimSpace(raw.Issuer),
		Secret: []byte(secret),
		TTL:    ttl,
		Now:    now,
	}, nil
}

// Mint signs a session token binding the user to a stored web session.
func Mint(userID, sessionID string, cfg Config) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("session id is required")
	}
	if len(cfg.Secret) == 0 {
		return "", errors.New("session token signer is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := cfg.Now().UTC()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SessionID: sessionID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks a session token signature and temporal claims.
func Verify(tokenValue string, cfg Config) (Claims, error) {
	tokenValue = strings.TrimSpace(tokenValue)
	if tokenValue == "" {
		return Claims{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session token is required")
	}
	if len(cfg.Secret) == 0 {
		return Claims{}, errors.New("session token verifier is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(tokenValue, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if cfg.Issuer != "" && parsed.Issuer != cfg.Issuer {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeAuthSessionInvalid,
			"session token issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Claims{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session token subject is required")
	}
	if strings.TrimSpace(parsed.SessionID) == "" {
		return Claims{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session token session id is required")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeAuthSessionInvalid, "session token exp is required")
	}

	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeAuthSessionExpired, "session token is expired")
	}

	claims := Claims{
		Issuer:    parsed.Issuer,
		ExpiresAt: exp,
		UserID:    parsed.Subject,
		SessionID: parsed.SessionID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return apperrors.New(apperrors.CodeAuthSessionInvalid, "session token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeAuthSessionInvalid, "session token alg is invalid")
	}
	return apperrors.New(apperrors.CodeAuthSessionInvalid, "session token is invalid")
}
