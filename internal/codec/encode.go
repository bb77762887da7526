package codec

import "spectracore/pkg/domain"

// Mode selects the serialization form. Session includes everything needed to
// redisplay results without recomputation; Minimal omits result arrays that
// are reconstructable from the source measurement and reduces masks to the
// indices explicitly excluded.
type Mode int

const (
	// Session is the full serialization form.
	Session Mode = iota
	// Minimal is the reduced, non-session serialization form.
	Minimal
)

// EncodeProject emits a whole-project document at the current schema
// version. Encoding is never chained.
func EncodeProject(st domain.ProjectState, mode Mode) Document {
	dataSets := make([]any, 0, len(st.DataSets))
	for _, d := range st.DataSets {
		dataSets = append(dataSets, EncodeDataSet(d))
	}
	tests := make(map[string]any, len(st.Tests))
	for id, list := range st.Tests {
		out := make([]any, 0, len(list))
		for _, r := range list {
			out = append(out, EncodeTestResult(r, mode))
		}
		tests[id] = out
	}
	zhits := make(map[string]any, len(st.ZHITs))
	for id, list := range st.ZHITs {
		out := make([]any, 0, len(list))
		for _, r := range list {
			out = append(out, EncodeZHITResult(r, mode))
		}
		zhits[id] = out
	}
	drts := make(map[string]any, len(st.DRTs))
	for id, list := range st.DRTs {
		out := make([]any, 0, len(list))
		for _, r := range list {
			out = append(out, EncodeDRTResult(r, mode))
		}
		drts[id] = out
	}
	fits := make(map[string]any, len(st.Fits))
	for id, list := range st.Fits {
		out := make([]any, 0, len(list))
		for _, r := range list {
			out = append(out, EncodeFitResult(r, mode))
		}
		fits[id] = out
	}
	simulations := make([]any, 0, len(st.Simulations))
	for _, s := range st.Simulations {
		simulations = append(simulations, EncodeSimulationResult(s))
	}
	plots := make([]any, 0, len(st.Plots))
	for _, p := range st.Plots {
		plots = append(plots, EncodePlotSettings(p))
	}
	return projectMigrator.Stamp(Document{
		"uuid":        st.ID,
		"label":       st.Label,
		"notes":       st.Notes,
		"data_sets":   dataSets,
		"tests":       tests,
		"zhits":       zhits,
		"drts":        drts,
		"fits":        fits,
		"simulations": simulations,
		"plots":       plots,
	})
}

// EncodeDataSet emits a measurement document. Measurements are always
// serialized in full; they are the source data everything else derives from.
func EncodeDataSet(d domain.DataSet) Document {
	return dataSetMigrator.Stamp(Document{
		"uuid":        d.ID,
		"label":       d.Label,
		"path":        d.Path,
		"frequencies": floatsToList(d.Frequencies),
		"real":        floatsToList(d.Real),
		"imaginary":   floatsToList(d.Imaginary),
		"mask":        maskToDoc(d.Mask),
	})
}

func encodeMask(mask domain.PointMask, mode Mode) map[string]any {
	if mode == Minimal {
		return maskToDoc(mask.Reduced())
	}
	return maskToDoc(mask)
}

// EncodeTestResult emits a consistency-test result document.
func EncodeTestResult(r domain.TestResult, mode Mode) Document {
	doc := Document{
		"uuid":          r.ID,
		"timestamp":     formatTimestamp(r.Timestamp),
		"settings":      EncodeTestSettings(r.Settings),
		"mask":          encodeMask(r.Mask, mode),
		"num_RC":        r.NumRC,
		"pseudo_chisqr": r.PseudoChiSquared,
	}
	if mode == Session {
		doc["frequencies"] = floatsToList(r.Frequencies)
		doc["real_residuals"] = floatsToList(r.RealResiduals)
		doc["imaginary_residuals"] = floatsToList(r.ImaginaryResiduals)
	}
	return testMigrator.Stamp(doc)
}

// EncodeTestSettings emits consistency-test settings.
func EncodeTestSettings(s domain.TestSettings) Document {
	return testSettingsMigrator.Stamp(Document{
		"num_RC":          s.NumRC,
		"mu_criterion":    s.MuCriterion,
		"add_capacitance": s.AddCapacitance,
		"add_inductance":  s.AddInductance,
	})
}

// EncodeZHITResult emits a modulus-reconstruction result document.
func EncodeZHITResult(r domain.ZHITResult, mode Mode) Document {
	doc := Document{
		"uuid":      r.ID,
		"timestamp": formatTimestamp(r.Timestamp),
		"settings":  EncodeZHITSettings(r.Settings),
		"mask":      encodeMask(r.Mask, mode),
		"residual":  r.Residual,
	}
	if mode == Session {
		doc["frequencies"] = floatsToList(r.Frequencies)
		doc["real"] = floatsToList(r.Real)
		doc["imaginary"] = floatsToList(r.Imaginary)
	}
	return zhitMigrator.Stamp(doc)
}

// EncodeZHITSettings emits modulus-reconstruction settings.
func EncodeZHITSettings(s domain.ZHITSettings) Document {
	return zhitSettingsMigrator.Stamp(Document{
		"smoothing_window": s.SmoothingWindow,
		"interpolation":    s.Interpolation,
		"window_type":      s.WindowType,
	})
}

// EncodeDRTResult emits a relaxation-distribution result document.
func EncodeDRTResult(r domain.DRTResult, mode Mode) Document {
	doc := Document{
		"uuid":      r.ID,
		"timestamp": formatTimestamp(r.Timestamp),
		"settings":  EncodeDRTSettings(r.Settings, mode),
		"mask":      encodeMask(r.Mask, mode),
		"chisqr":    r.ChiSquared,
	}
	if mode == Session {
		doc["time_constants"] = floatsToList(r.TimeConstants)
		doc["gammas"] = floatsToList(r.Gammas)
	}
	return drtMigrator.Stamp(doc)
}

// EncodeDRTSettings emits relaxation-distribution settings, embedding the
// owned fit-result copy when present.
func EncodeDRTSettings(s domain.DRTSettings, mode Mode) Document {
	doc := Document{
		"method":             s.Method,
		"mode":               s.Mode,
		"lambda_value":       s.LambdaValue,
		"rbf_type":           s.RBFType,
		"rbf_shape":          s.RBFShape,
		"credible_intervals": s.CredibleIntervals,
	}
	if s.Fit != nil {
		doc["fit"] = EncodeFitResult(*s.Fit, mode)
	}
	return drtSettingsMigrator.Stamp(doc)
}

// EncodeFitResult emits a circuit-fit result document. Fitted parameters are
// never reconstructable, so they are present in both modes.
func EncodeFitResult(r domain.FitResult, mode Mode) Document {
	params := make([]any, 0, len(r.Parameters))
	for _, p := range r.Parameters {
		params = append(params, map[string]any{
			"element": p.Element,
			"name":    p.Name,
			"value":   p.Value,
			"stderr":  p.StdErr,
			"fixed":   p.Fixed,
		})
	}
	doc := Document{
		"uuid":       r.ID,
		"timestamp":  formatTimestamp(r.Timestamp),
		"settings":   EncodeFitSettings(r.Settings),
		"parameters": params,
		"mask":       encodeMask(r.Mask, mode),
		"chisqr":     r.ChiSquared,
		"ndof":       r.Ndof,
	}
	if mode == Session {
		doc["frequencies"] = floatsToList(r.Frequencies)
		doc["real"] = floatsToList(r.Real)
		doc["imaginary"] = floatsToList(r.Imaginary)
	}
	return fitMigrator.Stamp(doc)
}

// EncodeFitSettings emits circuit-fit settings.
func EncodeFitSettings(s domain.FitSettings) Document {
	return fitSettingsMigrator.Stamp(Document{
		"cdc":      s.CDC,
		"method":   s.Method,
		"weight":   s.Weight,
		"max_nfev": s.MaxIterations,
	})
}

// EncodeSimulationResult emits a simulation result document.
func EncodeSimulationResult(r domain.SimulationResult) Document {
	return simulationMigrator.Stamp(Document{
		"uuid":      r.ID,
		"timestamp": formatTimestamp(r.Timestamp),
		"model":     r.Model,
		"settings":  EncodeSimulationSettings(r.Settings),
	})
}

// EncodeSimulationSettings emits simulation settings.
func EncodeSimulationSettings(s domain.SimulationSettings) Document {
	return simulationSettingsMigrator.Stamp(Document{
		"cdc":            s.CDC,
		"min_frequency":  s.MinFrequency,
		"max_frequency":  s.MaxFrequency,
		"num_per_decade": s.PointsPerDecade,
	})
}

// EncodePlotSettings emits a plot configuration document.
func EncodePlotSettings(p domain.PlotSettings) Document {
	order := make([]any, 0, len(p.SeriesOrder))
	for _, id := range p.SeriesOrder {
		order = append(order, id)
	}
	labels := make(map[string]any, len(p.Labels))
	for id, v := range p.Labels {
		labels[id] = v
	}
	colors := make(map[string]any, len(p.Colors))
	for id, v := range p.Colors {
		colors[id] = v
	}
	markers := make(map[string]any, len(p.Markers))
	for id, v := range p.Markers {
		markers[id] = v
	}
	showLines := make(map[string]any, len(p.ShowLines))
	for id, v := range p.ShowLines {
		showLines[id] = v
	}
	return plotMigrator.Stamp(Document{
		"uuid":         p.ID,
		"label":        p.Label,
		"plot_type":    string(p.Type),
		"series_order": order,
		"labels":       labels,
		"colors":       colors,
		"markers":      markers,
		"show_lines":   showLines,
	})
}
