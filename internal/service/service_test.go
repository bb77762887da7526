package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"spectracore/internal/archive"
	"spectracore/pkg/domain"
)

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	svc, err := New(opts)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func addDataSet(t *testing.T, svc *Service, label string) string {
	t.Helper()
	var id string
	err := svc.Apply(context.Background(), "add_data_set", func(p *domain.Project) error {
		d := domain.DataSet{
			Label:       label,
			Frequencies: []float64{1000, 100, 10},
			Real:        []float64{1, 2, 3},
			Imaginary:   []float64{-1, -2, -3},
			Mask:        domain.PointMask{},
		}
		if err := p.AddDataSet(&d); err != nil {
			return err
		}
		id = d.ID
		return nil
	})
	if err != nil {
		t.Fatalf("add data set %q: %v", label, err)
	}
	return id
}

func TestApplyCommitsAndUndoRestores(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Options{})

	if svc.IsDirty() {
		t.Fatalf("fresh project reported dirty")
	}
	id := addDataSet(t, svc, "Sample")
	if !svc.IsDirty() {
		t.Fatalf("mutation did not mark the project dirty")
	}
	if !svc.CanUndo() {
		t.Fatalf("mutation did not produce an undoable snapshot")
	}

	if err := svc.Undo(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if len(svc.Project().DataSets()) != 0 {
		t.Fatalf("undo did not remove the measurement")
	}
	if svc.IsDirty() {
		t.Fatalf("undo back to the saved snapshot should be clean")
	}

	if err := svc.Redo(ctx); err != nil {
		t.Fatalf("redo: %v", err)
	}
	sets := svc.Project().DataSets()
	if len(sets) != 1 || sets[0].ID != id {
		t.Fatalf("redo did not restore the measurement by identifier")
	}
}

func TestFailedMutationLeavesHistoryUntouched(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Options{})
	addDataSet(t, svc, "Sample")

	boom := errors.New("boom")
	err := svc.Apply(ctx, "rename", func(p *domain.Project) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected the mutation error, got %v", err)
	}
	if svc.CanRedo() {
		t.Fatalf("failed mutation changed the history position")
	}
	if err := svc.Undo(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if svc.CanUndo() {
		t.Fatalf("failed mutation left an extra snapshot behind")
	}
}

func TestSelectionSurvivesUndoByIdentifier(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Options{})
	first := addDataSet(t, svc, "first")
	second := addDataSet(t, svc, "second")

	svc.Select(second)
	if err := svc.Undo(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}
	// The second measurement no longer exists, so the selection falls back
	// to the first remaining one.
	id, typ, ok := svc.Selection()
	if !ok || id != first || typ != domain.EntityDataSet {
		t.Fatalf("selection after undo: id=%q type=%q ok=%v", id, typ, ok)
	}

	if err := svc.Redo(ctx); err != nil {
		t.Fatalf("redo: %v", err)
	}
	id, _, ok = svc.Selection()
	if !ok || id != first {
		t.Fatalf("selection should stay on the re-resolved identifier, got %q", id)
	}
}

func TestSaveArchivesAndPrunes(t *testing.T) {
	ctx := context.Background()
	arch := archive.NewMemory()
	svc := newTestService(t, Options{Archive: arch, ArchiveKeep: 2})
	path := filepath.Join(t.TempDir(), "demo.json")

	for i := 0; i < 4; i++ {
		addDataSet(t, svc, fmt.Sprintf("run %d", i))
		if err := svc.Save(ctx, path); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if svc.IsDirty() {
			t.Fatalf("save %d left the project dirty", i)
		}
	}

	recs, err := arch.List(ctx, svc.Project().ID())
	if err != nil {
		t.Fatalf("list archive: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected the archive pruned to 2 records, got %d", len(recs))
	}
	if len(recs[0].Payload) == 0 {
		t.Fatalf("archived payload is empty")
	}
}

func TestSaveWithoutPathFails(t *testing.T) {
	svc := newTestService(t, Options{})
	if err := svc.Save(context.Background(), ""); err == nil {
		t.Fatalf("expected an error when no path is known")
	}
}

func TestOpenSaveRoundTripKeepsPath(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Options{})
	path := filepath.Join(t.TempDir(), "demo.json")

	addDataSet(t, svc, "Sample")
	if err := svc.Save(ctx, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.Open(ctx, path); err != nil {
		t.Fatalf("open: %v", err)
	}
	if svc.Project().Path() != path {
		t.Fatalf("open did not record the path")
	}
	if svc.IsDirty() {
		t.Fatalf("a freshly opened project must be clean")
	}

	// A later save without an explicit path reuses the recorded one.
	addDataSet(t, svc, "more")
	if err := svc.Save(ctx, ""); err != nil {
		t.Fatalf("save to recorded path: %v", err)
	}
}

func TestMergeInstallsDirtyProject(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Options{})
	addDataSet(t, svc, "mine")

	other := domain.NewProject("theirs")
	d := domain.DataSet{Label: "theirs", Frequencies: []float64{1}, Real: []float64{1}, Imaginary: []float64{1}, Mask: domain.PointMask{}}
	if err := other.AddDataSet(&d); err != nil {
		t.Fatalf("add to source: %v", err)
	}

	if err := svc.Merge(ctx, other); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !svc.IsDirty() {
		t.Fatalf("a merged project starts unsaved")
	}
	if svc.Project().Path() != "" {
		t.Fatalf("a merged project has no file path")
	}
	if got := len(svc.Project().DataSets()); got != 2 {
		t.Fatalf("expected both measurements, got %d", got)
	}
	if svc.CanUndo() {
		t.Fatalf("merge starts a fresh history")
	}
}

// stubEngines produce canned results and record how often they ran.

type stubTestEngine struct {
	calls int
	fail  map[string]bool
}

func (e *stubTestEngine) ComputeTest(_ context.Context, d domain.DataSet, s domain.TestSettings) (domain.TestResult, error) {
	e.calls++
	if e.fail[d.Label] {
		return domain.TestResult{}, fmt.Errorf("diverged on %s", d.Label)
	}
	return domain.TestResult{
		ID:        domain.NewID(),
		Timestamp: time.Now().UTC(),
		Settings:  s,
		Mask:      domain.PointMask{},
		NumRC:     s.NumRC,
	}, nil
}

type stubFitEngine struct {
	seenCDC string
}

func (e *stubFitEngine) ComputeFit(_ context.Context, d domain.DataSet, s domain.FitSettings) (domain.FitResult, error) {
	e.seenCDC = s.CDC
	return domain.FitResult{
		ID:        domain.NewID(),
		Timestamp: time.Now().UTC(),
		Settings:  s,
		Mask:      domain.PointMask{},
	}, nil
}

type stubSimulationEngine struct{}

func (stubSimulationEngine) Simulate(_ context.Context, s domain.SimulationSettings) (domain.SimulationResult, error) {
	return domain.SimulationResult{
		ID:        domain.NewID(),
		Timestamp: time.Now().UTC(),
		Settings:  s,
	}, nil
}

func TestRunTestBatchPartialFailure(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Options{})
	good := addDataSet(t, svc, "good")
	bad := addDataSet(t, svc, "bad")

	engine := &stubTestEngine{fail: map[string]bool{"bad": true}}
	err := svc.RunTestBatch(ctx, engine, []string{good, bad, "missing"}, domain.TestSettings{NumRC: 5})

	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected BatchError, got %v", err)
	}
	if len(batchErr.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %d: %v", len(batchErr.Failures), batchErr)
	}
	if engine.calls != 2 {
		t.Fatalf("the missing measurement must not reach the engine, got %d calls", engine.calls)
	}

	// The successful item stays committed despite the batch error.
	if got := len(svc.Project().Tests(good)); got != 1 {
		t.Fatalf("committed result lost: %d", got)
	}
	if got := len(svc.Project().Tests(bad)); got != 0 {
		t.Fatalf("failed item produced a result: %d", got)
	}

	var refErr domain.ReferentialError
	found := false
	for _, f := range batchErr.Failures {
		if errors.As(f.Err, &refErr) {
			found = true
		}
	}
	if !found || refErr.ID != "missing" {
		t.Fatalf("missing measurement not reported referentially: %v", batchErr)
	}
}

func TestRunFitBatchNormalizesCircuit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Options{})
	id := addDataSet(t, svc, "Sample")

	engine := &stubFitEngine{}
	if err := svc.RunFitBatch(ctx, engine, []string{id}, domain.FitSettings{CDC: "R(RC)"}); err != nil {
		t.Fatalf("fit batch: %v", err)
	}
	if engine.seenCDC != "[R(RC)]" {
		t.Fatalf("circuit not normalized before the engine ran: %q", engine.seenCDC)
	}
	if got := len(svc.Project().Fits(id)); got != 1 {
		t.Fatalf("fit result not committed: %d", got)
	}

	if err := svc.RunFitBatch(ctx, engine, []string{id}, domain.FitSettings{CDC: "(R)"}); err == nil {
		t.Fatalf("an invalid circuit must fail the whole batch")
	}
}

func TestSimulateDefaultsModelToCircuit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Options{})

	err := svc.Simulate(ctx, stubSimulationEngine{}, domain.SimulationSettings{
		CDC:             "RC",
		MinFrequency:    0.01,
		MaxFrequency:    100000,
		PointsPerDecade: 10,
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	sims := svc.Project().Simulations()
	if len(sims) != 1 {
		t.Fatalf("expected one simulation, got %d", len(sims))
	}
	if sims[0].Model != "[RC]" {
		t.Fatalf("model not defaulted to the normalized circuit: %q", sims[0].Model)
	}
}
