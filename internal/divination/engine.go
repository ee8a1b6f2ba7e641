// Package divination turns a submitted character into interpretation text.
//
// The engine is a replaceable collaborator of the history synchronizer; the
// default implementation is a fixed template and a Lua-scripted engine can be
// swapped in without touching the sync layer.
package divination

import (
	"fmt"
	"strings"
)

// Engine produces interpretation text for one character.
type Engine interface {
	Interpret(character string) (string, error)
}

// TemplateEngine renders the canned interpretation template.
type TemplateEngine struct{}

// NewTemplateEngine creates the default canned-template engine.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{}
}

// Interpret returns the fixed-template interpretation for a character.
func (e *TemplateEngine) Interpret(character string) (string, error) {
	character = strings.TrimSpace(character)
	if character == "" {
		return "", fmt.Errorf("character is required")
	}
	return fmt.Sprintf("The character %q signifies great fortune in your near future. It carries the energy of prosperity and harmony.", character), nil
}

var _ Engine = (*TemplateEngine)(nil)
