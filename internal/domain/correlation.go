package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CorrelationID links a submitted job to the result artifact the device writes back.
type CorrelationID struct {
	id uuid.UUID
}

// NewCorrelationID mints a random (version 4) correlation ID.
func NewCorrelationID() (CorrelationID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return CorrelationID{}, fmt.Errorf("generate correlation ID: %w", err)
	}
	return CorrelationID{id: id}, nil
}

// canonicalLen is the length of the 8-4-4-4-12 hyphenated form.
const canonicalLen = 36

// ParseCorrelationID parses the canonical hyphenated form in either letter
// case. Braced, urn:uuid: and unhyphenated forms are rejected, as is the
// all-zero UUID.
func ParseCorrelationID(text string) (CorrelationID, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) != canonicalLen {
		return CorrelationID{}, fmt.Errorf("%w: %q", ErrInvalidCorrelationID, text)
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return CorrelationID{}, fmt.Errorf("%w: %q", ErrInvalidCorrelationID, text)
	}
	if id == uuid.Nil {
		return CorrelationID{}, fmt.Errorf("%w: zero value", ErrInvalidCorrelationID)
	}
	return CorrelationID{id: id}, nil
}

// String returns the canonical lowercase form.
func (c CorrelationID) String() string {
	return c.id.String()
}

// UUID returns the underlying 128-bit value.
func (c CorrelationID) UUID() uuid.UUID {
	return c.id
}

// IsZero reports whether c is the unset value.
func (c CorrelationID) IsZero() bool {
	return c.id == uuid.Nil
}

// MatchesText compares against text received over a case-insensitive transport.
func (c CorrelationID) MatchesText(text string) bool {
	return strings.EqualFold(c.String(), strings.TrimSpace(text))
}

// MarshalText implements encoding.TextMarshaler.
func (c CorrelationID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CorrelationID) UnmarshalText(text []byte) error {
	parsed, err := ParseCorrelationID(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
