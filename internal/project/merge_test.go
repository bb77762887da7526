package project

import (
	"context"
	"sort"
	"testing"

	"spectracore/internal/codec"
	"spectracore/pkg/domain"
)

func TestMergeRequiresSources(t *testing.T) {
	store := newTestStore(t, Options{})
	if _, err := store.Merge(context.Background(), nil); err == nil {
		t.Fatalf("expected an error for an empty source list")
	}
}

func TestMergeSingleSourceKeepsLabelAndRenames(t *testing.T) {
	store := newTestStore(t, Options{})
	src := sampleProject(t, "Alpha")
	srcDataSet := src.DataSets()[0]

	merged, err := store.Merge(context.Background(), []*domain.Project{src})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Label() != "Alpha" {
		t.Fatalf("single-source merge must keep the label, got %q", merged.Label())
	}
	if merged.ID() == src.ID() {
		t.Fatalf("merged project reused the source identifier")
	}

	sets := merged.DataSets()
	if len(sets) != 1 {
		t.Fatalf("expected one measurement, got %d", len(sets))
	}
	if sets[0].ID == srcDataSet.ID {
		t.Fatalf("measurement identifier was not renamed")
	}
	if sets[0].Label != srcDataSet.Label || len(sets[0].Real) != len(srcDataSet.Real) {
		t.Fatalf("measurement content changed during merge")
	}
	if fits := merged.Fits(sets[0].ID); len(fits) != 1 {
		t.Fatalf("fit result lost its measurement after renaming: %d", len(fits))
	}
}

func TestMergeIdenticalSourcesCannotCollide(t *testing.T) {
	store := newTestStore(t, Options{})
	src := sampleProject(t, "Alpha")

	// An exact copy shares every identifier with the original. The rename
	// step must make both sets of identifiers disjoint.
	data, err := Serialize(src, codec.Session)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	copy1, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	merged, err := store.Merge(context.Background(), []*domain.Project{src, copy1})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got := len(merged.DataSets()); got != 2 {
		t.Fatalf("expected both measurements, got %d", got)
	}
	ids := merged.AllEntityIDs()
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate identifier %s in merged project", id)
		}
		seen[id] = true
	}
	for _, d := range merged.DataSets() {
		if len(merged.Fits(d.ID)) != 1 {
			t.Fatalf("measurement %s lost its fit result", d.ID)
		}
	}
}

func TestMergeDisambiguatesLabelsAcrossSources(t *testing.T) {
	store := newTestStore(t, Options{})
	sources := []*domain.Project{
		sampleProject(t, "one"),
		sampleProject(t, "two"),
		sampleProject(t, "three"),
	}

	merged, err := store.Merge(context.Background(), sources)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Label() != "Merged project" {
		t.Fatalf("multi-source merge label: %q", merged.Label())
	}

	var labels []string
	for _, d := range merged.DataSets() {
		labels = append(labels, d.Label)
	}
	sort.Strings(labels)
	want := []string{"Sample", "Sample (2)", "Sample (3)"}
	for i, w := range want {
		if labels[i] != w {
			t.Fatalf("expected labels %v, got %v", want, labels)
		}
	}
}

func TestMergeConcatenatesNotes(t *testing.T) {
	store := newTestStore(t, Options{})
	first := sampleProject(t, "one")
	first.SetNotes("first impression")
	second := sampleProject(t, "two")
	third := sampleProject(t, "three")
	third.SetNotes("final thoughts")

	merged, err := store.Merge(context.Background(), []*domain.Project{first, second, third})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Notes() != "first impression\n\nfinal thoughts" {
		t.Fatalf("notes not concatenated: %q", merged.Notes())
	}
}

func TestMergePreservesCrossReferences(t *testing.T) {
	store := newTestStore(t, Options{})
	src := sampleProject(t, "Alpha")
	d := src.DataSets()[0]
	fit := src.Fits(d.ID)[0]
	plot := domain.PlotSettings{
		Label:       "overview",
		Type:        domain.PlotNyquist,
		SeriesOrder: []string{d.ID, fit.ID},
		Colors:      map[string]string{d.ID: "#336699"},
	}
	if err := src.AddPlot(&plot); err != nil {
		t.Fatalf("add plot: %v", err)
	}

	merged, err := store.Merge(context.Background(), []*domain.Project{src})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	plots := merged.Plots()
	if len(plots) != 1 {
		t.Fatalf("expected one plot, got %d", len(plots))
	}
	if len(plots[0].SeriesOrder) != 2 {
		t.Fatalf("plot series lost during merge: %v", plots[0].SeriesOrder)
	}
	for _, id := range plots[0].SeriesOrder {
		if id == d.ID || id == fit.ID {
			t.Fatalf("series %s still carries a source identifier", id)
		}
		if _, ok := merged.ResolveEntity(id); !ok {
			t.Fatalf("series %s does not resolve after renaming", id)
		}
	}
	if len(plots[0].Colors) != 1 {
		t.Fatalf("per-series attributes lost: %v", plots[0].Colors)
	}
}
