// Package reading provides divination reading records.
package reading

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/louisbranch/cezi/internal/platform/errors"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrEmptyOwnerID indicates a reading without an owning identity.
	ErrEmptyOwnerID = apperrors.New(apperrors.CodeReadingEmptyOwnerID, "owner id is required")
	// ErrEmptyCharacter indicates a missing character.
	ErrEmptyCharacter = apperrors.New(apperrors.CodeReadingCharacterRequired, "character is required")
	// ErrCharacterTooLong indicates input beyond a single character.
	ErrCharacterTooLong = apperrors.New(apperrors.CodeReadingCharacterTooLong, "input must be a single character")
)

// Reading is one submitted character and its interpretation.
//
// ID and CreatedAt are assigned by the store on insert and are empty on an
// unsaved reading.
type Reading struct {
	ID             string
	OwnerID        string
	Character      string
	Interpretation string
	CreatedAt      time.Time
}

// NormalizeCharacter trims and NFC-normalizes a submitted character.
//
// An empty result means the input was blank; callers decide whether blank is
// a no-op or an error. A non-blank result is guaranteed to be exactly one
// character after normalization.
func NormalizeCharacter(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil
	}
	normalized := norm.NFC.String(trimmed)
	if utf8.RuneCountInString(normalized) > 1 {
		return "", ErrCharacterTooLong
	}
	return normalized, nil
}

// New validates and builds an unsaved reading.
func New(ownerID, character, interpretation string) (Reading, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Reading{}, ErrEmptyOwnerID
	}
	normalized, err := NormalizeCharacter(character)
	if err != nil {
		return Reading{}, err
	}
	if normalized == "" {
		return Reading{}, ErrEmptyCharacter
	}
	return Reading{
		OwnerID:        ownerID,
		Character:      normalized,
		Interpretation: interpretation,
	}, nil
}
