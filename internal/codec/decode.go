package codec

import (
	"fmt"

	"spectracore/pkg/domain"
)

// DecodeProject migrates and strictly validates a whole-project document,
// returning the typed state. The document must still carry its version
// field; nested result and settings documents are migrated independently.
func DecodeProject(doc Document) (domain.ProjectState, error) {
	var st domain.ProjectState
	doc, err := projectMigrator.Upgrade(doc)
	if err != nil {
		return st, err
	}
	if st.ID, err = requireString(KindProject, doc, "uuid"); err != nil {
		return st, err
	}
	if st.Label, err = requireString(KindProject, doc, "label"); err != nil {
		return st, err
	}
	if st.Notes, err = requireString(KindProject, doc, "notes"); err != nil {
		return st, err
	}
	dataSets, err := requireList(KindProject, doc, "data_sets")
	if err != nil {
		return st, err
	}
	st.DataSets = make([]domain.DataSet, 0, len(dataSets))
	for i, raw := range dataSets {
		sub, ok := raw.(map[string]any)
		if !ok {
			return st, domain.DecodeError{Kind: KindProject, Field: "data_sets", Reason: fmt.Sprintf("element %d: expected mapping, got %T", i, raw)}
		}
		d, err := DecodeDataSet(sub)
		if err != nil {
			return st, err
		}
		st.DataSets = append(st.DataSets, d)
	}
	if st.Tests, err = decodeResultMap(doc, "tests", DecodeTestResult); err != nil {
		return st, err
	}
	if st.ZHITs, err = decodeResultMap(doc, "zhits", DecodeZHITResult); err != nil {
		return st, err
	}
	if st.DRTs, err = decodeResultMap(doc, "drts", DecodeDRTResult); err != nil {
		return st, err
	}
	if st.Fits, err = decodeResultMap(doc, "fits", DecodeFitResult); err != nil {
		return st, err
	}
	simulations, err := requireList(KindProject, doc, "simulations")
	if err != nil {
		return st, err
	}
	st.Simulations = make([]domain.SimulationResult, 0, len(simulations))
	for i, raw := range simulations {
		sub, ok := raw.(map[string]any)
		if !ok {
			return st, domain.DecodeError{Kind: KindProject, Field: "simulations", Reason: fmt.Sprintf("element %d: expected mapping, got %T", i, raw)}
		}
		s, err := DecodeSimulationResult(sub)
		if err != nil {
			return st, err
		}
		st.Simulations = append(st.Simulations, s)
	}
	plots, err := requireList(KindProject, doc, "plots")
	if err != nil {
		return st, err
	}
	st.Plots = make([]domain.PlotSettings, 0, len(plots))
	for i, raw := range plots {
		sub, ok := raw.(map[string]any)
		if !ok {
			return st, domain.DecodeError{Kind: KindProject, Field: "plots", Reason: fmt.Sprintf("element %d: expected mapping, got %T", i, raw)}
		}
		p, err := DecodePlotSettings(sub)
		if err != nil {
			return st, err
		}
		st.Plots = append(st.Plots, p)
	}
	return st, nil
}

func decodeResultMap[T any](doc Document, field string, decode func(Document) (T, error)) (map[string][]T, error) {
	mapping, err := requireMapping(KindProject, doc, field)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]T, len(mapping))
	for dataSetID, raw := range mapping {
		list, ok := raw.([]any)
		if !ok {
			return nil, domain.DecodeError{Kind: KindProject, Field: field, Reason: fmt.Sprintf("key %q: expected list, got %T", dataSetID, raw)}
		}
		results := make([]T, 0, len(list))
		for i, entry := range list {
			sub, ok := entry.(map[string]any)
			if !ok {
				return nil, domain.DecodeError{Kind: KindProject, Field: field, Reason: fmt.Sprintf("key %q element %d: expected mapping, got %T", dataSetID, i, entry)}
			}
			r, err := decode(sub)
			if err != nil {
				return nil, err
			}
			results = append(results, r)
		}
		out[dataSetID] = results
	}
	return out, nil
}

// DecodeDataSet migrates and validates a measurement document.
func DecodeDataSet(doc Document) (domain.DataSet, error) {
	var d domain.DataSet
	doc, err := dataSetMigrator.Upgrade(doc)
	if err != nil {
		return d, err
	}
	if d.ID, err = requireString(KindDataSet, doc, "uuid"); err != nil {
		return d, err
	}
	if d.Label, err = requireString(KindDataSet, doc, "label"); err != nil {
		return d, err
	}
	if d.Path, err = requireString(KindDataSet, doc, "path"); err != nil {
		return d, err
	}
	if d.Frequencies, err = requireFloatList(KindDataSet, doc, "frequencies"); err != nil {
		return d, err
	}
	if d.Real, err = requireFloatList(KindDataSet, doc, "real"); err != nil {
		return d, err
	}
	if d.Imaginary, err = requireFloatList(KindDataSet, doc, "imaginary"); err != nil {
		return d, err
	}
	if len(d.Real) != len(d.Frequencies) || len(d.Imaginary) != len(d.Frequencies) {
		return d, domain.DecodeError{Kind: KindDataSet, Field: "real", Reason: "sample arrays differ in length"}
	}
	if d.Mask, err = requireMask(KindDataSet, doc, "mask"); err != nil {
		return d, err
	}
	return d, nil
}

// DecodeTestResult migrates and validates a consistency-test result document
// together with its independently versioned settings.
func DecodeTestResult(doc Document) (domain.TestResult, error) {
	var r domain.TestResult
	doc, err := testMigrator.Upgrade(doc)
	if err != nil {
		return r, err
	}
	if r.ID, err = requireString(KindTest, doc, "uuid"); err != nil {
		return r, err
	}
	if r.Timestamp, err = requireTimestamp(KindTest, doc, "timestamp"); err != nil {
		return r, err
	}
	settings, err := requireMapping(KindTest, doc, "settings")
	if err != nil {
		return r, err
	}
	if r.Settings, err = DecodeTestSettings(settings); err != nil {
		return r, err
	}
	if r.Frequencies, err = optionalFloatList(KindTest, doc, "frequencies"); err != nil {
		return r, err
	}
	if r.RealResiduals, err = optionalFloatList(KindTest, doc, "real_residuals"); err != nil {
		return r, err
	}
	if r.ImaginaryResiduals, err = optionalFloatList(KindTest, doc, "imaginary_residuals"); err != nil {
		return r, err
	}
	if r.Mask, err = requireMask(KindTest, doc, "mask"); err != nil {
		return r, err
	}
	if r.NumRC, err = requireInt(KindTest, doc, "num_RC"); err != nil {
		return r, err
	}
	if r.PseudoChiSquared, err = requireFloat(KindTest, doc, "pseudo_chisqr"); err != nil {
		return r, err
	}
	return r, nil
}

// DecodeTestSettings migrates and validates consistency-test settings.
func DecodeTestSettings(doc Document) (domain.TestSettings, error) {
	var s domain.TestSettings
	doc, err := testSettingsMigrator.Upgrade(doc)
	if err != nil {
		return s, err
	}
	if s.NumRC, err = requireInt(KindTestSettings, doc, "num_RC"); err != nil {
		return s, err
	}
	if s.MuCriterion, err = requireFloat(KindTestSettings, doc, "mu_criterion"); err != nil {
		return s, err
	}
	if s.AddCapacitance, err = requireBool(KindTestSettings, doc, "add_capacitance"); err != nil {
		return s, err
	}
	if s.AddInductance, err = requireBool(KindTestSettings, doc, "add_inductance"); err != nil {
		return s, err
	}
	return s, nil
}

// DecodeZHITResult migrates and validates a modulus-reconstruction result
// document.
func DecodeZHITResult(doc Document) (domain.ZHITResult, error) {
	var r domain.ZHITResult
	doc, err := zhitMigrator.Upgrade(doc)
	if err != nil {
		return r, err
	}
	if r.ID, err = requireString(KindZHIT, doc, "uuid"); err != nil {
		return r, err
	}
	if r.Timestamp, err = requireTimestamp(KindZHIT, doc, "timestamp"); err != nil {
		return r, err
	}
	settings, err := requireMapping(KindZHIT, doc, "settings")
	if err != nil {
		return r, err
	}
	if r.Settings, err = DecodeZHITSettings(settings); err != nil {
		return r, err
	}
	if r.Frequencies, err = optionalFloatList(KindZHIT, doc, "frequencies"); err != nil {
		return r, err
	}
	if r.Real, err = optionalFloatList(KindZHIT, doc, "real"); err != nil {
		return r, err
	}
	if r.Imaginary, err = optionalFloatList(KindZHIT, doc, "imaginary"); err != nil {
		return r, err
	}
	if r.Mask, err = requireMask(KindZHIT, doc, "mask"); err != nil {
		return r, err
	}
	if r.Residual, err = requireFloat(KindZHIT, doc, "residual"); err != nil {
		return r, err
	}
	return r, nil
}

// DecodeZHITSettings migrates and validates modulus-reconstruction settings.
func DecodeZHITSettings(doc Document) (domain.ZHITSettings, error) {
	var s domain.ZHITSettings
	doc, err := zhitSettingsMigrator.Upgrade(doc)
	if err != nil {
		return s, err
	}
	if s.SmoothingWindow, err = requireInt(KindZHITSettings, doc, "smoothing_window"); err != nil {
		return s, err
	}
	if s.Interpolation, err = requireString(KindZHITSettings, doc, "interpolation"); err != nil {
		return s, err
	}
	if s.WindowType, err = requireString(KindZHITSettings, doc, "window_type"); err != nil {
		return s, err
	}
	return s, nil
}

// DecodeDRTResult migrates and validates a relaxation-distribution result
// document.
func DecodeDRTResult(doc Document) (domain.DRTResult, error) {
	var r domain.DRTResult
	doc, err := drtMigrator.Upgrade(doc)
	if err != nil {
		return r, err
	}
	if r.ID, err = requireString(KindDRT, doc, "uuid"); err != nil {
		return r, err
	}
	if r.Timestamp, err = requireTimestamp(KindDRT, doc, "timestamp"); err != nil {
		return r, err
	}
	settings, err := requireMapping(KindDRT, doc, "settings")
	if err != nil {
		return r, err
	}
	if r.Settings, err = DecodeDRTSettings(settings); err != nil {
		return r, err
	}
	if r.TimeConstants, err = optionalFloatList(KindDRT, doc, "time_constants"); err != nil {
		return r, err
	}
	if r.Gammas, err = optionalFloatList(KindDRT, doc, "gammas"); err != nil {
		return r, err
	}
	if r.Mask, err = requireMask(KindDRT, doc, "mask"); err != nil {
		return r, err
	}
	if r.ChiSquared, err = requireFloat(KindDRT, doc, "chisqr"); err != nil {
		return r, err
	}
	return r, nil
}

// DecodeDRTSettings migrates and validates relaxation-distribution settings,
// including the optional embedded copy of the circuit-fit result the
// estimation was derived from.
func DecodeDRTSettings(doc Document) (domain.DRTSettings, error) {
	var s domain.DRTSettings
	doc, err := drtSettingsMigrator.Upgrade(doc)
	if err != nil {
		return s, err
	}
	if s.Method, err = requireString(KindDRTSettings, doc, "method"); err != nil {
		return s, err
	}
	if s.Mode, err = requireString(KindDRTSettings, doc, "mode"); err != nil {
		return s, err
	}
	if s.LambdaValue, err = requireFloat(KindDRTSettings, doc, "lambda_value"); err != nil {
		return s, err
	}
	if s.RBFType, err = requireString(KindDRTSettings, doc, "rbf_type"); err != nil {
		return s, err
	}
	if s.RBFShape, err = requireString(KindDRTSettings, doc, "rbf_shape"); err != nil {
		return s, err
	}
	if s.CredibleIntervals, err = requireBool(KindDRTSettings, doc, "credible_intervals"); err != nil {
		return s, err
	}
	if raw, ok := doc["fit"]; ok && raw != nil {
		sub, ok := raw.(map[string]any)
		if !ok {
			return s, domain.DecodeError{Kind: KindDRTSettings, Field: "fit", Reason: fmt.Sprintf("expected mapping, got %T", raw)}
		}
		fit, err := DecodeFitResult(sub)
		if err != nil {
			return s, err
		}
		s.Fit = &fit
	}
	return s, nil
}

// DecodeFitResult migrates and validates a circuit-fit result document.
func DecodeFitResult(doc Document) (domain.FitResult, error) {
	var r domain.FitResult
	doc, err := fitMigrator.Upgrade(doc)
	if err != nil {
		return r, err
	}
	if r.ID, err = requireString(KindFit, doc, "uuid"); err != nil {
		return r, err
	}
	if r.Timestamp, err = requireTimestamp(KindFit, doc, "timestamp"); err != nil {
		return r, err
	}
	settings, err := requireMapping(KindFit, doc, "settings")
	if err != nil {
		return r, err
	}
	if r.Settings, err = DecodeFitSettings(settings); err != nil {
		return r, err
	}
	params, err := requireList(KindFit, doc, "parameters")
	if err != nil {
		return r, err
	}
	r.Parameters = make([]domain.FittedParameter, 0, len(params))
	for i, raw := range params {
		sub, ok := raw.(map[string]any)
		if !ok {
			return r, domain.DecodeError{Kind: KindFit, Field: "parameters", Reason: fmt.Sprintf("element %d: expected mapping, got %T", i, raw)}
		}
		p, err := decodeFittedParameter(sub)
		if err != nil {
			return r, err
		}
		r.Parameters = append(r.Parameters, p)
	}
	if r.Frequencies, err = optionalFloatList(KindFit, doc, "frequencies"); err != nil {
		return r, err
	}
	if r.Real, err = optionalFloatList(KindFit, doc, "real"); err != nil {
		return r, err
	}
	if r.Imaginary, err = optionalFloatList(KindFit, doc, "imaginary"); err != nil {
		return r, err
	}
	if r.Mask, err = requireMask(KindFit, doc, "mask"); err != nil {
		return r, err
	}
	if r.ChiSquared, err = requireFloat(KindFit, doc, "chisqr"); err != nil {
		return r, err
	}
	if r.Ndof, err = requireInt(KindFit, doc, "ndof"); err != nil {
		return r, err
	}
	return r, nil
}

func decodeFittedParameter(doc Document) (domain.FittedParameter, error) {
	var p domain.FittedParameter
	var err error
	if p.Element, err = requireString(KindFit, doc, "element"); err != nil {
		return p, err
	}
	if p.Name, err = requireString(KindFit, doc, "name"); err != nil {
		return p, err
	}
	if p.Value, err = requireFloat(KindFit, doc, "value"); err != nil {
		return p, err
	}
	if p.StdErr, err = requireFloat(KindFit, doc, "stderr"); err != nil {
		return p, err
	}
	if p.Fixed, err = requireBool(KindFit, doc, "fixed"); err != nil {
		return p, err
	}
	return p, nil
}

// DecodeFitSettings migrates and validates circuit-fit settings.
func DecodeFitSettings(doc Document) (domain.FitSettings, error) {
	var s domain.FitSettings
	doc, err := fitSettingsMigrator.Upgrade(doc)
	if err != nil {
		return s, err
	}
	if s.CDC, err = requireString(KindFitSettings, doc, "cdc"); err != nil {
		return s, err
	}
	if s.Method, err = requireString(KindFitSettings, doc, "method"); err != nil {
		return s, err
	}
	if s.Weight, err = requireString(KindFitSettings, doc, "weight"); err != nil {
		return s, err
	}
	if s.MaxIterations, err = requireInt(KindFitSettings, doc, "max_nfev"); err != nil {
		return s, err
	}
	return s, nil
}

// DecodeSimulationResult migrates and validates a simulation result
// document.
func DecodeSimulationResult(doc Document) (domain.SimulationResult, error) {
	var r domain.SimulationResult
	doc, err := simulationMigrator.Upgrade(doc)
	if err != nil {
		return r, err
	}
	if r.ID, err = requireString(KindSimulation, doc, "uuid"); err != nil {
		return r, err
	}
	if r.Timestamp, err = requireTimestamp(KindSimulation, doc, "timestamp"); err != nil {
		return r, err
	}
	if r.Model, err = requireString(KindSimulation, doc, "model"); err != nil {
		return r, err
	}
	settings, err := requireMapping(KindSimulation, doc, "settings")
	if err != nil {
		return r, err
	}
	if r.Settings, err = DecodeSimulationSettings(settings); err != nil {
		return r, err
	}
	return r, nil
}

// DecodeSimulationSettings migrates and validates simulation settings.
func DecodeSimulationSettings(doc Document) (domain.SimulationSettings, error) {
	var s domain.SimulationSettings
	doc, err := simulationSettingsMigrator.Upgrade(doc)
	if err != nil {
		return s, err
	}
	if s.CDC, err = requireString(KindSimulationSettings, doc, "cdc"); err != nil {
		return s, err
	}
	if s.MinFrequency, err = requireFloat(KindSimulationSettings, doc, "min_frequency"); err != nil {
		return s, err
	}
	if s.MaxFrequency, err = requireFloat(KindSimulationSettings, doc, "max_frequency"); err != nil {
		return s, err
	}
	if s.PointsPerDecade, err = requireInt(KindSimulationSettings, doc, "num_per_decade"); err != nil {
		return s, err
	}
	return s, nil
}

// DecodePlotSettings migrates and validates a plot configuration document.
func DecodePlotSettings(doc Document) (domain.PlotSettings, error) {
	var p domain.PlotSettings
	doc, err := plotMigrator.Upgrade(doc)
	if err != nil {
		return p, err
	}
	if p.ID, err = requireString(KindPlot, doc, "uuid"); err != nil {
		return p, err
	}
	if p.Label, err = requireString(KindPlot, doc, "label"); err != nil {
		return p, err
	}
	plotType, err := requireString(KindPlot, doc, "plot_type")
	if err != nil {
		return p, err
	}
	p.Type = domain.PlotType(plotType)
	order, err := requireList(KindPlot, doc, "series_order")
	if err != nil {
		return p, err
	}
	p.SeriesOrder = make([]string, 0, len(order))
	for i, raw := range order {
		id, ok := raw.(string)
		if !ok {
			return p, domain.DecodeError{Kind: KindPlot, Field: "series_order", Reason: fmt.Sprintf("element %d: expected string, got %T", i, raw)}
		}
		p.SeriesOrder = append(p.SeriesOrder, id)
	}
	if p.Labels, err = decodeStringAttr(doc, "labels"); err != nil {
		return p, err
	}
	if p.Colors, err = decodeStringAttr(doc, "colors"); err != nil {
		return p, err
	}
	markers, err := requireMapping(KindPlot, doc, "markers")
	if err != nil {
		return p, err
	}
	p.Markers = make(map[string]int, len(markers))
	for id, raw := range markers {
		n, err := asInt(raw)
		if err != nil {
			return p, domain.DecodeError{Kind: KindPlot, Field: "markers", Reason: fmt.Sprintf("key %q: %v", id, err)}
		}
		p.Markers[id] = n
	}
	showLines, err := requireMapping(KindPlot, doc, "show_lines")
	if err != nil {
		return p, err
	}
	p.ShowLines = make(map[string]bool, len(showLines))
	for id, raw := range showLines {
		flag, ok := raw.(bool)
		if !ok {
			return p, domain.DecodeError{Kind: KindPlot, Field: "show_lines", Reason: fmt.Sprintf("key %q: expected bool, got %T", id, raw)}
		}
		p.ShowLines[id] = flag
	}
	return p, nil
}

func decodeStringAttr(doc Document, field string) (map[string]string, error) {
	mapping, err := requireMapping(KindPlot, doc, field)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(mapping))
	for id, raw := range mapping {
		s, ok := raw.(string)
		if !ok {
			return nil, domain.DecodeError{Kind: KindPlot, Field: field, Reason: fmt.Sprintf("key %q: expected string, got %T", id, raw)}
		}
		out[id] = s
	}
	return out, nil
}
