package reading

import (
	"errors"
	"testing"
)

func TestNormalizeCharacter(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"han character", "福", "福", nil},
		{"surrounding whitespace", "  福 ", "福", nil},
		{"blank", "   ", "", nil},
		{"empty", "", "", nil},
		{"two characters", "福运", "", ErrCharacterTooLong},
		{"ascii word", "luck", "", ErrCharacterTooLong},
		// e + combining acute collapses to a single rune under NFC.
		{"combining sequence", "é", "é", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeCharacter(tc.input)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize character: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", "福", "text"); !errors.Is(err, ErrEmptyOwnerID) {
		t.Fatalf("expected owner id error, got %v", err)
	}
	if _, err := New("u1", "  ", "text"); !errors.Is(err, ErrEmptyCharacter) {
		t.Fatalf("expected empty character error, got %v", err)
	}
	if _, err := New("u1", "福运", "text"); !errors.Is(err, ErrCharacterTooLong) {
		t.Fatalf("expected too-long error, got %v", err)
	}

	r, err := New(" u1 ", "福", "an interpretation")
	if err != nil {
		t.Fatalf("new reading: %v", err)
	}
	if r.OwnerID != "u1" || r.Character != "福" || r.Interpretation != "an interpretation" {
		t.Fatalf("unexpected reading %+v", r)
	}
	if r.ID != "" || !r.CreatedAt.IsZero() {
		t.Fatal("expected unsaved reading without id or timestamp")
	}
}
