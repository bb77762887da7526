package metrics

import (
	"context"
	"testing"
	"time"
)

func TestExpvarRecorderAggregates(t *testing.T) {
	ctx := context.Background()
	rec := NewExpvarRecorder("")

	rec.Observe(ctx, "load", true, 40*time.Millisecond)
	rec.Observe(ctx, "load", true, 10*time.Millisecond)
	rec.Observe(ctx, "load", false, 5*time.Millisecond)
	rec.Observe(ctx, "save", true, 20*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second) // unnamed operations are dropped
	rec.AddMigrationSteps(3)
	rec.AddMigrationSteps(0)
	rec.IncBackups()
	rec.IncSnapshots()
	rec.IncSnapshots()

	snap := rec.Snapshot()
	if got := snap.DurationsMS["load"]; got != 55 {
		t.Fatalf("load duration total: got %v, want 55", got)
	}
	if got := snap.Results["load"]["success"]; got != 2 {
		t.Fatalf("load successes: got %d, want 2", got)
	}
	if got := snap.Results["load"]["error"]; got != 1 {
		t.Fatalf("load errors: got %d, want 1", got)
	}
	if got := snap.Results["save"]["success"]; got != 1 {
		t.Fatalf("save successes: got %d, want 1", got)
	}
	if _, ok := snap.Results[""]; ok {
		t.Fatalf("unnamed operation was recorded")
	}
	if snap.MigrationSteps != 3 || snap.Backups != 1 || snap.Snapshots != 2 {
		t.Fatalf("counters: %+v", snap)
	}
	if snap.RecordedAt.IsZero() {
		t.Fatalf("snapshot timestamp missing")
	}
}

func TestExpvarRecorderSnapshotIsACopy(t *testing.T) {
	rec := NewExpvarRecorder("")
	rec.Observe(context.Background(), "load", true, time.Millisecond)

	snap := rec.Snapshot()
	snap.DurationsMS["load"] = 9999
	snap.Results["load"]["success"] = 9999

	fresh := rec.Snapshot()
	if fresh.DurationsMS["load"] == 9999 || fresh.Results["load"]["success"] == 9999 {
		t.Fatalf("snapshot shares state with the recorder")
	}
}

func TestExpvarRecorderGeneratesUniqueNames(t *testing.T) {
	a := NewExpvarRecorder("")
	b := NewExpvarRecorder("")
	if a.Name() == b.Name() {
		t.Fatalf("generated names collide: %s", a.Name())
	}
}

func TestNopRecorderIsSafe(t *testing.T) {
	var rec Recorder = Nop{}
	rec.Observe(context.Background(), "load", true, time.Second)
	rec.AddMigrationSteps(5)
	rec.IncBackups()
	rec.IncSnapshots()
}
