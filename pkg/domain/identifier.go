package domain

import "github.com/google/uuid"

// NewID returns a fresh entity identifier. Identifiers are opaque strings;
// UUIDv4 keeps merge renaming textual-substitution safe because values never
// collide with document syntax.
func NewID() string { return uuid.NewString() }
