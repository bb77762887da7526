package project

import (
	"encoding/json"
	"fmt"

	"spectracore/internal/codec"
	"spectracore/pkg/domain"
)

// Serialize encodes the project as a document at the current schema version
// and renders it in the canonical on-disk form. The same rendering is used
// for saves, backups, history snapshots and merge comparisons so that equal
// content always produces equal bytes.
func Serialize(p *domain.Project, mode codec.Mode) ([]byte, error) {
	return marshalDocument(codec.EncodeProject(p.State(), mode))
}

// Deserialize is the inverse of Serialize: it parses the raw bytes, runs the
// full migration and validation chain and materializes a fresh Project.
func Deserialize(data []byte) (*domain.Project, error) {
	doc, err := unmarshalDocument(data)
	if err != nil {
		return nil, err
	}
	state, err := codec.DecodeProject(doc)
	if err != nil {
		return nil, err
	}
	return domain.FromState(state)
}

func marshalDocument(doc codec.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize project document: %w", err)
	}
	return append(data, '\n'), nil
}

func unmarshalDocument(data []byte) (codec.Document, error) {
	var doc codec.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse project document: %w", err)
	}
	return doc, nil
}
