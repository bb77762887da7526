package project

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spectracore/internal/blob"
	"spectracore/internal/codec"
	"spectracore/pkg/domain"
)

func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return NewStore(opts)
}

func sampleProject(t *testing.T, label string) *domain.Project {
	t.Helper()
	p := domain.NewProject(label)
	d := domain.DataSet{
		Label:       "Sample",
		Path:        "/data/sample.csv",
		Frequencies: []float64{1000, 100, 10},
		Real:        []float64{1, 2, 3},
		Imaginary:   []float64{-1, -2, -3},
		Mask:        domain.PointMask{1: true},
	}
	if err := p.AddDataSet(&d); err != nil {
		t.Fatalf("add data set: %v", err)
	}
	fit := domain.FitResult{
		ID:        domain.NewID(),
		Timestamp: time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC),
		Settings:  domain.FitSettings{CDC: "[RC]", Method: "least_squares", Weight: "modulus", MaxIterations: 1000},
		Parameters: []domain.FittedParameter{
			{Element: "R_0", Name: "R", Value: 100},
		},
		Frequencies: []float64{1000, 100, 10},
		Real:        []float64{1.1, 2.1, 3.1},
		Imaginary:   []float64{-1.1, -2.1, -3.1},
		Mask:        domain.PointMask{},
		ChiSquared:  0.05,
		Ndof:        2,
	}
	if err := p.AddFitResult(d.ID, fit); err != nil {
		t.Fatalf("add fit result: %v", err)
	}
	return p
}

func backupFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.backup*"))
	if err != nil {
		t.Fatalf("glob backups: %v", err)
	}
	return matches
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, Options{})
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.json")

	p := sampleProject(t, "demo")
	if err := store.Save(ctx, p, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if p.Path() != path {
		t.Fatalf("save did not record the path: %q", p.Path())
	}

	loaded, err := store.Load(ctx, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want, err := Serialize(p, codec.Session)
	if err != nil {
		t.Fatalf("serialize original: %v", err)
	}
	got, err := Serialize(loaded, codec.Session)
	if err != nil {
		t.Fatalf("serialize loaded: %v", err)
	}
	if string(want) != string(got) {
		t.Fatalf("round trip mismatch:\nwant: %s\ngot:  %s", want, got)
	}
	if files := backupFiles(t, dir); len(files) != 0 {
		t.Fatalf("loading a current-version file wrote backups: %v", files)
	}
}

const legacyProjectDocument = `{
  "version": 1,
  "uuid": "7f1b6a1e-0000-4000-8000-000000000001",
  "label": "bench run"
}
`

func TestLoadLegacyFileWritesBackupOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, Options{})
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.json")
	if err := os.WriteFile(path, []byte(legacyProjectDocument), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	p, err := store.Load(ctx, path)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if p.Label() != "bench run" {
		t.Fatalf("legacy label lost: %q", p.Label())
	}

	files := backupFiles(t, dir)
	if len(files) != 1 || files[0] != path+".backup0" {
		t.Fatalf("expected exactly %s, got %v", path+".backup0", files)
	}

	// The file itself was never re-saved, so a second load must recognize
	// the existing backup instead of writing .backup1.
	if _, err := store.Load(ctx, path); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if files := backupFiles(t, dir); len(files) != 1 {
		t.Fatalf("repeated load accumulated backups: %v", files)
	}
}

func TestLoadRejectsMissingVersion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, Options{})
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"uuid":"x","label":"y"}`), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, err := store.Load(ctx, path)
	var decodeErr domain.DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Field != "version" {
		t.Fatalf("expected missing-version DecodeError, got %v", err)
	}
}

func TestSaveReplacesExistingFileAtomically(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, Options{})
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.json")

	p := sampleProject(t, "demo")
	if err := store.Save(ctx, p, path); err != nil {
		t.Fatalf("first save: %v", err)
	}
	p.SetNotes("updated between saves")
	if err := store.Save(ctx, p, path); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := store.Load(ctx, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Notes() != "updated between saves" {
		t.Fatalf("second save content lost: %q", loaded.Notes())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "demo.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("temporary or aside files left behind: %v", names)
	}
}

func TestSaveFollowsSymlink(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, Options{})
	dir := t.TempDir()
	real := filepath.Join(dir, "real.json")
	link := filepath.Join(dir, "link.json")

	p := sampleProject(t, "linked")
	if err := store.Save(ctx, p, real); err != nil {
		t.Fatalf("save real: %v", err)
	}
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	p.SetNotes("via the link")
	if err := store.Save(ctx, p, link); err != nil {
		t.Fatalf("save through symlink: %v", err)
	}

	fi, err := os.Lstat(link)
	if err != nil {
		t.Fatalf("lstat link: %v", err)
	}
	if fi.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("save replaced the symlink instead of its target")
	}
	loaded, err := store.Load(ctx, real)
	if err != nil {
		t.Fatalf("load real: %v", err)
	}
	if loaded.Notes() != "via the link" {
		t.Fatalf("target not updated through symlink: %q", loaded.Notes())
	}
}

func TestBackupIsMirroredToBlobStore(t *testing.T) {
	ctx := context.Background()
	mirror := blob.NewMemory()
	store := newTestStore(t, Options{Mirror: mirror})
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.json")
	if err := os.WriteFile(path, []byte(legacyProjectDocument), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	p, err := store.Load(ctx, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	key := "projects/" + p.ID() + "/backups/legacy.json.backup0"
	info, err := mirror.Head(ctx, key)
	if err != nil {
		t.Fatalf("mirrored backup missing: %v", err)
	}
	if info.Size == 0 {
		t.Fatalf("mirrored backup is empty")
	}

	// A second load finds the mirrored object already present and leaves it
	// alone rather than tripping over the create-only Put.
	if _, err := store.Load(ctx, path); err != nil {
		t.Fatalf("second load with mirror: %v", err)
	}
}
