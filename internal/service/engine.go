package service

import (
	"context"
	"fmt"
	"strings"

	"spectracore/pkg/domain"
)

// The computation engines run the numerical analyses outside the state
// engine, off the control thread, and hand back completed result records.
// The core never observes a partially computed result: an engine call either
// succeeds with a result at the current in-memory shape or fails with an
// error.

// TestEngine produces linearity consistency-test results.
type TestEngine interface {
	ComputeTest(ctx context.Context, d domain.DataSet, s domain.TestSettings) (domain.TestResult, error)
}

// ZHITEngine reconstructs the modulus from the phase.
type ZHITEngine interface {
	ComputeZHIT(ctx context.Context, d domain.DataSet, s domain.ZHITSettings) (domain.ZHITResult, error)
}

// DRTEngine estimates distributions of relaxation times.
type DRTEngine interface {
	ComputeDRT(ctx context.Context, d domain.DataSet, s domain.DRTSettings) (domain.DRTResult, error)
}

// FitEngine fits equivalent circuits to measurements.
type FitEngine interface {
	ComputeFit(ctx context.Context, d domain.DataSet, s domain.FitSettings) (domain.FitResult, error)
}

// SimulationEngine synthesizes an impedance spectrum from a circuit
// description.
type SimulationEngine interface {
	Simulate(ctx context.Context, s domain.SimulationSettings) (domain.SimulationResult, error)
}

// BatchFailure records one failed item of a batch run.
type BatchFailure struct {
	DataSetID string
	Label     string
	Err       error
}

// BatchError aggregates per-item failures from a batch run. Results committed
// before a failure stay committed; the error reports everything that went
// wrong once the batch has finished.
type BatchError struct {
	Failures []BatchFailure
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d of the batch items failed:", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&sb, "\n  %s: %v", f.Label, f.Err)
	}
	return sb.String()
}
