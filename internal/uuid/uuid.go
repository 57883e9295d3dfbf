// Package uuid generates and checks the v4 identifiers used for every
// stored record.
package uuid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New generates a new UUID v4 string.
func New() string {
	return uuid.New().String()
}

// Normalize parses s and returns its canonical lowercase hyphenated form.
// Only version 4 identifiers are accepted.
func Normalize(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid id %q: %w", s, err)
	}
	if id.Version() != 4 {
		return "", fmt.Errorf("invalid id %q: expected v4, got v%d", s, id.Version())
	}
	return id.String(), nil
}

// IsValid reports whether s is a canonical UUID v4.
func IsValid(s string) bool {
	n, err := Normalize(s)
	return err == nil && n == s
}
