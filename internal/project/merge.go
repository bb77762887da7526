package project

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"spectracore/internal/codec"
	"spectracore/pkg/domain"
)

// resultKinds are the top-level mappings from measurement identifier to
// result lists.
var resultKinds = []string{"tests", "zhits", "drts", "fits"}

// Merge combines the source projects into one freshly identified project.
// Every identifier inside each source is replaced by a new one before the
// sources are concatenated, so cross-references internal to a source stay
// consistent while collisions between sources become impossible. The merged
// document is reconstructed through the normal load path so the same
// validation applies to merge results as to file loads.
func (s *Store) Merge(ctx context.Context, sources []*domain.Project) (*domain.Project, error) {
	start := time.Now()
	p, err := s.merge(sources)
	s.metrics.Observe(ctx, "merge", err == nil, time.Since(start))
	return p, err
}

func (s *Store) merge(sources []*domain.Project) (*domain.Project, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("merge: no source projects")
	}

	docs := make([]codec.Document, 0, len(sources))
	for _, src := range sources {
		doc, err := rewriteIdentifiers(src)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	label := "Merged project"
	if len(docs) == 1 {
		if l, ok := docs[0]["label"].(string); ok {
			label = l
		}
	}

	dest := codec.Document{
		"version":     codec.ProjectVersion(),
		"uuid":        domain.NewID(),
		"label":       label,
		"notes":       "",
		"data_sets":   []any{},
		"tests":       map[string]any{},
		"zhits":       map[string]any{},
		"drts":        map[string]any{},
		"fits":        map[string]any{},
		"simulations": []any{},
		"plots":       []any{},
	}

	var notes []string
	for _, doc := range docs {
		if n, ok := doc["notes"].(string); ok && n != "" {
			notes = append(notes, n)
		}
		for _, field := range []string{"data_sets", "simulations", "plots"} {
			src, err := docList(doc, field)
			if err != nil {
				return nil, err
			}
			dest[field] = append(dest[field].([]any), src...)
		}
		for _, kind := range resultKinds {
			src, err := docMapping(doc, kind)
			if err != nil {
				return nil, err
			}
			into := dest[kind].(map[string]any)
			for key, lists := range src {
				into[key] = lists
			}
		}
	}
	dest["notes"] = strings.Join(notes, "\n\n")

	if err := assertUniqueIdentifiers(dest); err != nil {
		return nil, err
	}
	if len(docs) > 1 {
		for _, field := range []string{"data_sets", "plots"} {
			if err := disambiguateLabels(dest[field].([]any)); err != nil {
				return nil, err
			}
		}
	}

	data, err := marshalDocument(dest)
	if err != nil {
		return nil, err
	}
	return Deserialize(data)
}

// rewriteIdentifiers serializes the source project and substitutes a fresh
// identifier for every "uuid" value found anywhere in the document. The
// substitution is textual across the whole serialization, so result-map keys
// and plot series references are renamed together with the entities they
// point at.
func rewriteIdentifiers(src *domain.Project) (codec.Document, error) {
	data, err := Serialize(src, codec.Session)
	if err != nil {
		return nil, err
	}
	doc, err := unmarshalDocument(data)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool)
	collectIdentifiers(doc, ids)
	for old := range ids {
		data = bytes.ReplaceAll(data, []byte(`"`+old+`"`), []byte(`"`+domain.NewID()+`"`))
	}
	return unmarshalDocument(data)
}

// collectIdentifiers gathers the value of every field literally named "uuid"
// at any depth.
func collectIdentifiers(value any, ids map[string]bool) {
	switch v := value.(type) {
	case map[string]any:
		for key, nested := range v {
			if key == "uuid" {
				if id, ok := nested.(string); ok {
					ids[id] = true
				}
				continue
			}
			collectIdentifiers(nested, ids)
		}
	case []any:
		for _, nested := range v {
			collectIdentifiers(nested, ids)
		}
	}
}

// assertUniqueIdentifiers verifies that no two entities in the merged
// document share an identifier. A collision here means the rename step is
// defective and the merge must not proceed. Settings documents embedding an
// owned copy of another result are not entities and are skipped.
func assertUniqueIdentifiers(dest codec.Document) error {
	seen := make(map[string]bool)
	record := func(id string) error {
		if seen[id] {
			return domain.IdentifierCollisionError{ID: id}
		}
		seen[id] = true
		return nil
	}

	if id, ok := dest["uuid"].(string); ok {
		if err := record(id); err != nil {
			return err
		}
	}
	recordList := func(list []any) error {
		for _, raw := range list {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			id, ok := entry["uuid"].(string)
			if !ok {
				continue
			}
			if err := record(id); err != nil {
				return err
			}
		}
		return nil
	}
	for _, field := range []string{"data_sets", "simulations", "plots"} {
		list, err := docList(dest, field)
		if err != nil {
			return err
		}
		if err := recordList(list); err != nil {
			return err
		}
	}
	for _, kind := range resultKinds {
		mapping, err := docMapping(dest, kind)
		if err != nil {
			return err
		}
		for _, raw := range mapping {
			list, ok := raw.([]any)
			if !ok {
				continue
			}
			if err := recordList(list); err != nil {
				return err
			}
		}
	}
	return nil
}

// disambiguateLabels applies the add-time label rule across a whole merged
// list so duplicates spanning three or more sources still end up unique.
func disambiguateLabels(list []any) error {
	taken := make(map[string]bool, len(list))
	for i, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("merge: entry %d: expected mapping, got %T", i, raw)
		}
		label, _ := entry["label"].(string)
		unique := domain.DisambiguateLabel(label, func(l string) bool { return taken[l] })
		entry["label"] = unique
		taken[unique] = true
	}
	return nil
}

func docList(doc codec.Document, field string) ([]any, error) {
	list, ok := doc[field].([]any)
	if !ok {
		return nil, fmt.Errorf("merge: %s: expected list, got %T", field, doc[field])
	}
	return list, nil
}

func docMapping(doc codec.Document, field string) (map[string]any, error) {
	m, ok := doc[field].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("merge: %s: expected mapping, got %T", field, doc[field])
	}
	return m, nil
}
