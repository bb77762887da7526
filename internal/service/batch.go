package service

import (
	"context"
	"fmt"

	"spectracore/internal/circuit"
	"spectracore/pkg/domain"
)

// Batch runs are sequences of independent compute-then-commit steps. Each
// successful item is committed individually, so a failure partway through
// leaves everything already committed intact; failures are collected and
// reported together once the whole batch has run.

// RunTestBatch computes a consistency test for every listed measurement.
func (s *Service) RunTestBatch(ctx context.Context, engine TestEngine, dataSetIDs []string, settings domain.TestSettings) error {
	var failures []BatchFailure
	for _, id := range dataSetIDs {
		d, ok := s.project.FindDataSet(id)
		if !ok {
			failures = append(failures, BatchFailure{DataSetID: id, Label: id, Err: domain.ReferentialError{Entity: domain.EntityDataSet, ID: id}})
			continue
		}
		result, err := engine.ComputeTest(ctx, d, settings)
		if err == nil {
			err = s.Apply(ctx, "add_test", func(p *domain.Project) error {
				return p.AddTestResult(id, result)
			})
		}
		if err != nil {
			failures = append(failures, BatchFailure{DataSetID: id, Label: d.Label, Err: err})
		}
	}
	return batchError(failures)
}

// RunZHITBatch reconstructs the modulus for every listed measurement.
func (s *Service) RunZHITBatch(ctx context.Context, engine ZHITEngine, dataSetIDs []string, settings domain.ZHITSettings) error {
	var failures []BatchFailure
	for _, id := range dataSetIDs {
		d, ok := s.project.FindDataSet(id)
		if !ok {
			failures = append(failures, BatchFailure{DataSetID: id, Label: id, Err: domain.ReferentialError{Entity: domain.EntityDataSet, ID: id}})
			continue
		}
		result, err := engine.ComputeZHIT(ctx, d, settings)
		if err == nil {
			err = s.Apply(ctx, "add_zhit", func(p *domain.Project) error {
				return p.AddZHITResult(id, result)
			})
		}
		if err != nil {
			failures = append(failures, BatchFailure{DataSetID: id, Label: d.Label, Err: err})
		}
	}
	return batchError(failures)
}

// RunDRTBatch estimates relaxation-time distributions for every listed
// measurement.
func (s *Service) RunDRTBatch(ctx context.Context, engine DRTEngine, dataSetIDs []string, settings domain.DRTSettings) error {
	var failures []BatchFailure
	for _, id := range dataSetIDs {
		d, ok := s.project.FindDataSet(id)
		if !ok {
			failures = append(failures, BatchFailure{DataSetID: id, Label: id, Err: domain.ReferentialError{Entity: domain.EntityDataSet, ID: id}})
			continue
		}
		result, err := engine.ComputeDRT(ctx, d, settings)
		if err == nil {
			err = s.Apply(ctx, "add_drt", func(p *domain.Project) error {
				return p.AddDRTResult(id, result)
			})
		}
		if err != nil {
			failures = append(failures, BatchFailure{DataSetID: id, Label: d.Label, Err: err})
		}
	}
	return batchError(failures)
}

// RunFitBatch fits the same circuit against every listed measurement. The
// circuit description is parsed and normalized once up front; a description
// that does not parse fails the whole batch before any computation starts.
func (s *Service) RunFitBatch(ctx context.Context, engine FitEngine, dataSetIDs []string, settings domain.FitSettings) error {
	cdc, err := circuit.Normalize(settings.CDC)
	if err != nil {
		return fmt.Errorf("fit batch: %w", err)
	}
	settings.CDC = cdc

	var failures []BatchFailure
	for _, id := range dataSetIDs {
		d, ok := s.project.FindDataSet(id)
		if !ok {
			failures = append(failures, BatchFailure{DataSetID: id, Label: id, Err: domain.ReferentialError{Entity: domain.EntityDataSet, ID: id}})
			continue
		}
		result, err := engine.ComputeFit(ctx, d, settings)
		if err == nil {
			err = s.Apply(ctx, "add_fit", func(p *domain.Project) error {
				return p.AddFitResult(id, result)
			})
		}
		if err != nil {
			failures = append(failures, BatchFailure{DataSetID: id, Label: d.Label, Err: err})
		}
	}
	return batchError(failures)
}

// Simulate parses and normalizes the circuit description, hands the settings
// to the engine and commits the produced simulation result.
func (s *Service) Simulate(ctx context.Context, engine SimulationEngine, settings domain.SimulationSettings) error {
	cdc, err := circuit.Normalize(settings.CDC)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	settings.CDC = cdc

	result, err := engine.Simulate(ctx, settings)
	if err != nil {
		return err
	}
	if result.Model == "" {
		result.Model = cdc
	}
	return s.Apply(ctx, "add_simulation", func(p *domain.Project) error {
		return p.AddSimulation(&result)
	})
}

func batchError(failures []BatchFailure) error {
	if len(failures) == 0 {
		return nil
	}
	return &BatchError{Failures: failures}
}
