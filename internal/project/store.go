// Package project orchestrates whole-project load, save and merge on top of
// the codec and the domain entity graph. It owns the backup-on-migration
// policy and the collision-free identifier renaming performed during merge.
package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spectracore/internal/blob"
	"spectracore/internal/codec"
	"spectracore/internal/metrics"
	"spectracore/pkg/domain"
)

// Store loads, saves and merges project files.
type Store struct {
	logger  *slog.Logger
	metrics metrics.Recorder
	mirror  blob.Store
}

// Options configures a Store. Every field is optional.
type Options struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
	// Mirror receives a copy of every backup file written, keyed under
	// projects/<uuid>/backups/. Best effort: mirror failures are logged,
	// never surfaced.
	Mirror blob.Store
}

// NewStore constructs a Store from Options.
func NewStore(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var rec metrics.Recorder = metrics.Nop{}
	if opts.Metrics != nil {
		rec = opts.Metrics
	}
	return &Store{logger: logger, metrics: rec, mirror: opts.Mirror}
}

// Load reads a project file, migrates it to the current schema version and
// materializes the entity graph. When the migration actually changed content,
// the pre-migration serialization is preserved as a sibling backup file
// before Load returns.
func (s *Store) Load(ctx context.Context, path string) (*domain.Project, error) {
	start := time.Now()
	p, err := s.load(ctx, path)
	s.metrics.Observe(ctx, "load", err == nil, time.Since(start))
	return p, err
}

func (s *Store) load(ctx context.Context, path string) (*domain.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	doc, err := unmarshalDocument(data)
	if err != nil {
		return nil, err
	}
	storedVersion, err := codec.StoredVersion(codec.KindProject, doc)
	if err != nil {
		return nil, err
	}

	// Capture the canonical pre-migration serialization before any step runs.
	preMigration, err := marshalDocument(doc)
	if err != nil {
		return nil, err
	}

	state, err := codec.DecodeProject(doc)
	if err != nil {
		return nil, err
	}
	p, err := domain.FromState(state)
	if err != nil {
		return nil, err
	}
	p.SetPath(path)

	current := codec.ProjectVersion()
	if storedVersion < current {
		s.metrics.AddMigrationSteps(current - storedVersion)
	}

	postMigration, err := Serialize(p, codec.Session)
	if err != nil {
		return nil, err
	}
	if storedVersion < current || !bytes.Equal(preMigration, postMigration) {
		backupPath, err := s.writeBackup(ctx, path, p.ID(), preMigration)
		if err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "preserved pre-migration project document",
			"path", path, "backup", backupPath, "stored_version", storedVersion, "current_version", current)
	}
	return p, nil
}

// Save serializes the project at the current schema version and atomically
// replaces path. The previous file content survives a crash at any point of
// the write.
func (s *Store) Save(ctx context.Context, p *domain.Project, path string) error {
	start := time.Now()
	err := s.save(p, path)
	s.metrics.Observe(ctx, "save", err == nil, time.Since(start))
	return err
}

func (s *Store) save(p *domain.Project, path string) error {
	data, err := Serialize(p, codec.Session)
	if err != nil {
		return err
	}
	if err := atomicWrite(path, data); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	p.SetPath(path)
	return nil
}

// atomicWrite writes data through a temporary sibling file and renames it
// over path. An existing target is renamed aside first and removed only once
// the new content is in place.
func atomicWrite(path string, data []byte) error {
	target, err := resolveTarget(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	aside := ""
	if _, statErr := os.Stat(target); statErr == nil {
		aside = target + ".aside"
		if err := os.Rename(target, aside); err != nil {
			return err
		}
	}
	if err := os.Rename(tmpName, target); err != nil {
		if aside != "" {
			_ = os.Rename(aside, target)
		}
		return err
	}
	if aside != "" {
		_ = os.Remove(aside)
	}
	return nil
}

// resolveTarget follows symbolic links so the temporary file lands on the
// same filesystem as the real target. A path that does not exist yet resolves
// through its parent directory.
func resolveTarget(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		return "", err
	}
	return filepath.Join(dir, filepath.Base(path)), nil
}
