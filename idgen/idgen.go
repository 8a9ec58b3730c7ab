// Package idgen provides pluggable ID generation for the dbgm services.
//
// Constructors across the pipeline accept a Generator, making the ID
// strategy a startup-time decision rather than a compile-time one. The
// default strategy is UUIDv7: time-sortable, globally unique, and never
// derived from document content, so re-processing the same source file
// always yields a fresh document ID.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
// Used for type-scoped identifiers (e.g. "ord_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Default is the service-wide default: UUIDv7.
var Default Generator = UUIDv7()

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// Document produces a document ID of the form "ord_<uuidv7>".
var Document Generator = Prefixed("ord_", UUIDv7())

// Parse validates a UUID string and returns it or an error.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID: %w", err)
	}
	return u.String(), nil
}
