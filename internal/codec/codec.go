// Package codec implements the schema-versioned encode/decode machinery for
// persisted documents. Every persisted record carries an integer "version"
// field; decoding applies an ordered chain of pure migration steps and then
// strictly validates the resulting shape before any typed value is
// constructed. Encoding always emits the current, highest version and is
// never chained.
package codec

import (
	"fmt"
	"math"
	"time"

	"spectracore/pkg/domain"
)

// Document is the raw structured form of a persisted record.
type Document = map[string]any

// Step upgrades a document from one schema shape toward the next. Steps are
// pure and must be idempotent on documents that already satisfy them: the
// chain applies every step whose version is greater than or equal to the
// stored version, so later steps run even when earlier ones were no-ops for
// a particular document.
type Step func(Document) (Document, error)

// Migrator holds the gapless, build-time-checked step table for one record
// kind. Step i (0-based) carries schema version i+1; the current version is
// the table length.
type Migrator struct {
	kind  string
	steps []Step
}

// NewMigrator constructs a migrator for kind. A nil step is a gap in the
// table and a programming error, so construction panics.
func NewMigrator(kind string, steps ...Step) *Migrator {
	if len(steps) == 0 {
		panic(fmt.Sprintf("codec: migrator %q has no steps", kind))
	}
	for i, step := range steps {
		if step == nil {
			panic(fmt.Sprintf("codec: migrator %q has a gap at version %d", kind, i+1))
		}
	}
	return &Migrator{kind: kind, steps: steps}
}

// Kind returns the record kind the migrator serves.
func (m *Migrator) Kind() string { return m.kind }

// Current returns the highest known schema version.
func (m *Migrator) Current() int { return len(m.steps) }

// Upgrade extracts and removes the document's version field, then applies
// every migration step at or above that version in increasing order. A
// stored version below 1 or above the current version is a non-recoverable
// decode failure.
func (m *Migrator) Upgrade(doc Document) (Document, error) {
	version, rest, err := popVersion(m.kind, doc)
	if err != nil {
		return nil, err
	}
	if version < 1 {
		return nil, domain.DecodeError{Kind: m.kind, Version: version, Reason: fmt.Sprintf("version %d is below the oldest supported version", version)}
	}
	if version > len(m.steps) {
		return nil, domain.DecodeError{Kind: m.kind, Version: version, Reason: fmt.Sprintf("version %d exceeds the highest supported version %d", version, len(m.steps))}
	}
	for i := version - 1; i < len(m.steps); i++ {
		rest, err = m.steps[i](rest)
		if err != nil {
			return nil, fmt.Errorf("%s: migration to version %d: %w", m.kind, i+1, err)
		}
	}
	return rest, nil
}

// Stamp copies the document and sets its version field to the current
// version. Used by the encode path.
func (m *Migrator) Stamp(doc Document) Document {
	out := make(Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out["version"] = len(m.steps)
	return out
}

// ProjectVersion is the current whole-project schema version.
func ProjectVersion() int { return projectMigrator.Current() }

// StoredVersion reports the version recorded in a raw document without
// migrating it. The load path uses it to decide whether a backup is due.
func StoredVersion(kind string, doc Document) (int, error) {
	version, _, err := popVersion(kind, doc)
	return version, err
}

func popVersion(kind string, doc Document) (int, Document, error) {
	raw, ok := doc["version"]
	if !ok {
		return 0, nil, domain.DecodeError{Kind: kind, Field: "version", Reason: "missing"}
	}
	version, err := asInt(raw)
	if err != nil {
		return 0, nil, domain.DecodeError{Kind: kind, Field: "version", Reason: err.Error()}
	}
	rest := make(Document, len(doc))
	for k, v := range doc {
		if k != "version" {
			rest[k] = v
		}
	}
	return version, rest, nil
}

func asInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expected integer, got %v", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
}

// Strict shape validation helpers. Each helper reports a DecodeError naming
// the record kind and field so failures are actionable; a missing required
// field marks the document as corrupt rather than silently defaulting.

func requireString(kind string, doc Document, field string) (string, error) {
	raw, ok := doc[field]
	if !ok {
		return "", domain.DecodeError{Kind: kind, Field: field, Reason: "missing"}
	}
	s, ok := raw.(string)
	if !ok {
		return "", domain.DecodeError{Kind: kind, Field: field, Reason: fmt.Sprintf("expected string, got %T", raw)}
	}
	return s, nil
}

func requireFloat(kind string, doc Document, field string) (float64, error) {
	raw, ok := doc[field]
	if !ok {
		return 0, domain.DecodeError{Kind: kind, Field: field, Reason: "missing"}
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, domain.DecodeError{Kind: kind, Field: field, Reason: fmt.Sprintf("expected number, got %T", raw)}
	}
}

func requireInt(kind string, doc Document, field string) (int, error) {
	raw, ok := doc[field]
	if !ok {
		return 0, domain.DecodeError{Kind: kind, Field: field, Reason: "missing"}
	}
	n, err := asInt(raw)
	if err != nil {
		return 0, domain.DecodeError{Kind: kind, Field: field, Reason: err.Error()}
	}
	return n, nil
}

func requireBool(kind string, doc Document, field string) (bool, error) {
	raw, ok := doc[field]
	if !ok {
		return false, domain.DecodeError{Kind: kind, Field: field, Reason: "missing"}
	}
	b, ok := raw.(bool)
	if !ok {
		return false, domain.DecodeError{Kind: kind, Field: field, Reason: fmt.Sprintf("expected bool, got %T", raw)}
	}
	return b, nil
}

func requireList(kind string, doc Document, field string) ([]any, error) {
	raw, ok := doc[field]
	if !ok {
		return nil, domain.DecodeError{Kind: kind, Field: field, Reason: "missing"}
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, domain.DecodeError{Kind: kind, Field: field, Reason: fmt.Sprintf("expected list, got %T", raw)}
	}
	return list, nil
}

func requireMapping(kind string, doc Document, field string) (map[string]any, error) {
	raw, ok := doc[field]
	if !ok {
		return nil, domain.DecodeError{Kind: kind, Field: field, Reason: "missing"}
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, domain.DecodeError{Kind: kind, Field: field, Reason: fmt.Sprintf("expected mapping, got %T", raw)}
	}
	return m, nil
}

func requireFloatList(kind string, doc Document, field string) ([]float64, error) {
	list, err := requireList(kind, doc, field)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(list))
	for i, raw := range list {
		v, ok := raw.(float64)
		if !ok {
			return nil, domain.DecodeError{Kind: kind, Field: field, Reason: fmt.Sprintf("element %d: expected number, got %T", i, raw)}
		}
		out[i] = v
	}
	return out, nil
}

// optionalFloatList accepts an absent field: result arrays reconstructable
// from the source measurement are omitted by the minimal serialization form.
func optionalFloatList(kind string, doc Document, field string) ([]float64, error) {
	if _, ok := doc[field]; !ok {
		return nil, nil
	}
	return requireFloatList(kind, doc, field)
}

func requireTimestamp(kind string, doc Document, field string) (time.Time, error) {
	s, err := requireString(kind, doc, field)
	if err != nil {
		return time.Time{}, err
	}
	t, parseErr := time.Parse(time.RFC3339Nano, s)
	if parseErr != nil {
		return time.Time{}, domain.DecodeError{Kind: kind, Field: field, Reason: parseErr.Error()}
	}
	return t.UTC(), nil
}

func requireMask(kind string, doc Document, field string) (domain.PointMask, error) {
	m, err := requireMapping(kind, doc, field)
	if err != nil {
		return nil, err
	}
	mask := make(domain.PointMask, len(m))
	for key, raw := range m {
		flag, ok := raw.(bool)
		if !ok {
			return nil, domain.DecodeError{Kind: kind, Field: field, Reason: fmt.Sprintf("index %q: expected bool, got %T", key, raw)}
		}
		i, parseErr := domain.ParseMaskIndex(key)
		if parseErr != nil {
			return nil, domain.DecodeError{Kind: kind, Field: field, Reason: parseErr.Error()}
		}
		mask[i] = flag
	}
	return mask, nil
}

func floatsToList(values []float64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func maskToDoc(mask domain.PointMask) map[string]any {
	out := make(map[string]any, len(mask))
	for i, flag := range mask {
		out[fmt.Sprintf("%d", i)] = flag
	}
	return out
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
