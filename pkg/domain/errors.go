package domain

import "fmt"

// DecodeError reports a document that could not be decoded: an unknown or
// unsupported schema version, or a required field missing after the full
// migration chain. It is non-recoverable; the enclosing load or merge fails
// atomically.
type DecodeError struct {
	Kind    string // record kind, e.g. "project", "fit_settings"
	Field   string // offending field, empty for version errors
	Version int    // stored version when relevant
	Reason  string
}

func (e DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode %s: field %q: %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("decode %s: %s", e.Kind, e.Reason)
}

// ReferentialError reports a cross-reference that failed to resolve, e.g. a
// plot series entry pointing at a deleted entity. It is recoverable by
// omission: callers drop the dangling reference instead of failing.
type ReferentialError struct {
	Entity EntityType // empty when the expected type is unknown
	ID     string
}

func (e ReferentialError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("identifier %q does not resolve to an existing entity", e.ID)
	}
	return fmt.Sprintf("%s %q does not resolve to an existing entity", e.Entity, e.ID)
}

// IdentifierCollisionError indicates the merge rename step failed to produce
// globally unique identifiers. It signals a logic defect, not a
// user-correctable condition.
type IdentifierCollisionError struct {
	ID string
}

func (e IdentifierCollisionError) Error() string {
	return fmt.Sprintf("identifier %q assigned to more than one entity after merge", e.ID)
}
