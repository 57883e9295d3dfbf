// Package models provides data model definitions for FragMind Core.
package models

import (
	"database/sql/driver"
	"fmt"
)

// UUID is a wrapper around string for UUID v4 type safety.
type UUID string

// Value implements driver.Valuer for UUID.
func (u UUID) Value() (driver.Value, error) {
	return string(u), nil
}

// Scan implements sql.Scanner for UUID.
func (u *UUID) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*u = ""
	case string:
		return u.set(v)
	case []byte:
		return u.set(string(v))
	default:
		return fmt.Errorf("models: cannot scan %T into UUID", value)
	}
	return nil
}

// canonicalLength is the length of a hyphenated UUID string.
const canonicalLength = 36

func (u *UUID) set(s string) error {
	if s != "" && len(s) != canonicalLength {
		return fmt.Errorf("models: invalid UUID length %d", len(s))
	}
	*u = UUID(s)
	return nil
}

// String returns the string representation of the UUID.
func (u UUID) String() string {
	return string(u)
}
