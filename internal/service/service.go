// Package service exposes the application facade over the project state
// engine: one open project, its undo/redo history, the file store and the
// optional saved-state archive. All methods are called from a single control
// thread; computation engines run elsewhere and hand completed results back
// before any commit happens here.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spectracore/internal/archive"
	"spectracore/internal/codec"
	"spectracore/internal/history"
	"spectracore/internal/metrics"
	"spectracore/internal/project"
	"spectracore/pkg/domain"
)

// Service owns the currently open project and every state transition on it.
type Service struct {
	logger  *slog.Logger
	metrics metrics.Recorder
	store   *project.Store
	archive archive.Store
	keep    int
	limit   int

	project   *domain.Project
	history   *history.History
	selection string
}

// Options configures a Service. Store is required; everything else is
// optional.
type Options struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
	Store   *project.Store
	// Archive, when set, receives a serialized copy of the project on every
	// successful save and is pruned down to ArchiveKeep records per project.
	Archive     archive.Store
	ArchiveKeep int
	// HistoryLimit bounds the undo history; 0 means unbounded.
	HistoryLimit int
}

// New constructs a Service holding a fresh unnamed project.
func New(opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var rec metrics.Recorder = metrics.Nop{}
	if opts.Metrics != nil {
		rec = opts.Metrics
	}
	store := opts.Store
	if store == nil {
		store = project.NewStore(project.Options{Logger: logger, Metrics: rec})
	}
	s := &Service{
		logger:  logger,
		metrics: rec,
		store:   store,
		archive: opts.Archive,
		keep:    opts.ArchiveKeep,
		limit:   opts.HistoryLimit,
	}
	if err := s.NewProject("Project"); err != nil {
		return nil, err
	}
	return s, nil
}

// Project returns the open project.
func (s *Service) Project() *domain.Project { return s.project }

// NewProject replaces the open project with a fresh empty one.
func (s *Service) NewProject(label string) error {
	p := domain.NewProject(label)
	return s.install(p, true)
}

// Open loads a project file and makes it the open project.
func (s *Service) Open(ctx context.Context, path string) error {
	p, err := s.store.Load(ctx, path)
	if err != nil {
		return err
	}
	return s.install(p, true)
}

// Save writes the open project to path (or its last known path when path is
// empty), marks the history clean and archives the saved state.
func (s *Service) Save(ctx context.Context, path string) error {
	if path == "" {
		path = s.project.Path()
	}
	if path == "" {
		return fmt.Errorf("save: no target path")
	}
	if err := s.store.Save(ctx, s.project, path); err != nil {
		return err
	}
	s.history.MarkSaved()
	s.archiveSnapshot(ctx)
	return nil
}

// Merge combines the open project with the given sources into a fresh
// project and makes it the open one. The merged project has no file path and
// starts dirty.
func (s *Service) Merge(ctx context.Context, sources ...*domain.Project) error {
	all := append([]*domain.Project{s.project}, sources...)
	merged, err := s.store.Merge(ctx, all)
	if err != nil {
		return err
	}
	return s.install(merged, false)
}

// Apply runs one mutation against the open project and, on success, commits
// a history snapshot. Domain mutations are atomic, so a failed mutate leaves
// the project untouched and the history unchanged.
func (s *Service) Apply(ctx context.Context, operation string, mutate func(*domain.Project) error) error {
	start := time.Now()
	err := mutate(s.project)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	if err != nil {
		return err
	}
	return s.commit()
}

// CanUndo reports whether an older snapshot exists.
func (s *Service) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether an undone snapshot can be reapplied.
func (s *Service) CanRedo() bool { return s.history.CanRedo() }

// IsDirty reports whether the open project has changed since the last save.
func (s *Service) IsDirty() bool { return s.history.IsDirty() }

// Undo steps the history back one snapshot and rebuilds the project from it.
func (s *Service) Undo(ctx context.Context) error {
	start := time.Now()
	err := s.step(s.history.Undo)
	s.metrics.Observe(ctx, "undo", err == nil, time.Since(start))
	return err
}

// Redo reapplies the next snapshot after an undo.
func (s *Service) Redo(ctx context.Context) error {
	start := time.Now()
	err := s.step(s.history.Redo)
	s.metrics.Observe(ctx, "redo", err == nil, time.Since(start))
	return err
}

// Select remembers an entity identifier as the current selection. Selections
// survive undo/redo by identifier, never by object identity.
func (s *Service) Select(id string) { s.selection = id }

// Selection re-resolves the current selection against the live project. A
// selection that no longer resolves reports ok=false; that is a normal state,
// not an error.
func (s *Service) Selection() (string, domain.EntityType, bool) {
	if s.selection == "" {
		return "", "", false
	}
	t, ok := s.project.ResolveEntity(s.selection)
	if !ok {
		return "", "", false
	}
	return s.selection, t, true
}

// install makes p the open project and starts a fresh history on it.
func (s *Service) install(p *domain.Project, clean bool) error {
	data, err := project.Serialize(p, codec.Session)
	if err != nil {
		return err
	}
	h := history.New(s.limit)
	h.Snapshot(data)
	if clean {
		h.MarkSaved()
	}
	s.project = p
	s.history = h
	s.metrics.IncSnapshots()
	s.reresolveSelection()
	return nil
}

func (s *Service) commit() error {
	data, err := project.Serialize(s.project, codec.Session)
	if err != nil {
		return err
	}
	s.history.Snapshot(data)
	s.metrics.IncSnapshots()
	return nil
}

// step rebuilds the entity graph from the snapshot a history move returns.
// The file path is carried over because it is not part of the serialized
// document.
func (s *Service) step(move func() ([]byte, error)) error {
	data, err := move()
	if err != nil {
		return err
	}
	path := s.project.Path()
	p, err := project.Deserialize(data)
	if err != nil {
		return err
	}
	p.SetPath(path)
	s.project = p
	s.reresolveSelection()
	return nil
}

// reresolveSelection drops a selection whose identifier vanished, falling
// back to the first measurement when one exists.
func (s *Service) reresolveSelection() {
	if s.selection != "" {
		if _, ok := s.project.ResolveEntity(s.selection); ok {
			return
		}
	}
	s.selection = ""
	if sets := s.project.DataSets(); len(sets) > 0 {
		s.selection = sets[0].ID
	}
}

// archiveSnapshot appends the saved state to the archive and prunes old
// records. Best effort: the file save already succeeded, so archive failures
// are logged and swallowed.
func (s *Service) archiveSnapshot(ctx context.Context) {
	if s.archive == nil {
		return
	}
	data := s.history.Current()
	rec := archive.Record{
		ID:        domain.NewID(),
		ProjectID: s.project.ID(),
		TakenAt:   time.Now().UTC(),
		Payload:   data,
	}
	if err := s.archive.Put(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "archive append failed", "project", s.project.ID(), "error", err)
		return
	}
	if s.keep > 0 {
		if _, err := s.archive.Prune(ctx, s.project.ID(), s.keep); err != nil {
			s.logger.WarnContext(ctx, "archive prune failed", "project", s.project.ID(), "error", err)
		}
	}
}
