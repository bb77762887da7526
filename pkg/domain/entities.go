// Package domain defines the persistent entities, value types, and
// project-graph operations used by spectracore.
package domain

import "time"

// EntityType identifies the type of record owned by a project.
type EntityType string

// Supported entity type identifiers used in error reporting and plot series
// resolution.
const (
	// EntityDataSet identifies a measurement record.
	EntityDataSet EntityType = "data_set"
	// EntityTestResult identifies a consistency-test result record.
	EntityTestResult EntityType = "test"
	// EntityZHITResult identifies a modulus-reconstruction result record.
	EntityZHITResult EntityType = "zhit"
	// EntityDRTResult identifies a relaxation-distribution result record.
	EntityDRTResult EntityType = "drt"
	// EntityFitResult identifies a circuit-fit result record.
	EntityFitResult EntityType = "fit"
	// EntitySimulation identifies a simulation result record.
	EntitySimulation EntityType = "simulation"
	// EntityPlot identifies a plot configuration record.
	EntityPlot EntityType = "plot"
)

// PlotType enumerates the supported plot renderings.
type PlotType string

// Canonical plot types; the value is persisted verbatim.
const (
	PlotNyquist       PlotType = "nyquist"
	PlotBodeMagnitude PlotType = "bode_magnitude"
	PlotBodePhase     PlotType = "bode_phase"
	PlotRealImaginary PlotType = "real_imaginary"
	PlotDRT           PlotType = "drt"
)

// DataSet is a named, masked array of frequency/response samples imported
// from a measurement file.
type DataSet struct {
	ID          string    `json:"uuid"`
	Label       string    `json:"label"`
	Path        string    `json:"path"`
	Frequencies []float64 `json:"frequencies"`
	Real        []float64 `json:"real"`
	Imaginary   []float64 `json:"imaginary"`
	Mask        PointMask `json:"mask"`
}

// NumPoints returns the number of samples in the unmasked arrays.
func (d DataSet) NumPoints() int { return len(d.Frequencies) }

// Clone returns a deep copy of the data set.
func (d DataSet) Clone() DataSet {
	cp := d
	cp.Frequencies = append([]float64(nil), d.Frequencies...)
	cp.Real = append([]float64(nil), d.Real...)
	cp.Imaginary = append([]float64(nil), d.Imaginary...)
	cp.Mask = d.Mask.Snapshot()
	return cp
}

// sampleTolerance bounds the numeric closeness test used by EquivalentTo.
const sampleTolerance = 1e-9

func closeEnough(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	limit := sampleTolerance
	if m := max(abs(a), abs(b)); m > 1 {
		limit *= m
	}
	return diff <= limit
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// EquivalentTo reports whether the two data sets are interchangeable for
// display refresh purposes: same identifier, label, path, point count, and
// numerically close full sample arrays. Masks and object identity are
// deliberately excluded.
func (d DataSet) EquivalentTo(other DataSet) bool {
	if d.ID != other.ID || d.Label != other.Label || d.Path != other.Path {
		return false
	}
	if len(d.Frequencies) != len(other.Frequencies) {
		return false
	}
	if len(d.Real) != len(d.Frequencies) || len(d.Imaginary) != len(d.Frequencies) ||
		len(other.Real) != len(other.Frequencies) || len(other.Imaginary) != len(other.Frequencies) {
		return false
	}
	for i := range d.Frequencies {
		if !closeEnough(d.Frequencies[i], other.Frequencies[i]) ||
			!closeEnough(d.Real[i], other.Real[i]) ||
			!closeEnough(d.Imaginary[i], other.Imaginary[i]) {
			return false
		}
	}
	return true
}

// TestSettings configures a spectral consistency test. Immutable once
// attached to a result.
type TestSettings struct {
	NumRC          int     `json:"num_RC"`
	MuCriterion    float64 `json:"mu_criterion"`
	AddCapacitance bool    `json:"add_capacitance"`
	AddInductance  bool    `json:"add_inductance"`
}

// TestResult holds the outcome of a spectral consistency test against one
// data set.
type TestResult struct {
	ID                 string       `json:"uuid"`
	Timestamp          time.Time    `json:"timestamp"`
	Settings           TestSettings `json:"settings"`
	Frequencies        []float64    `json:"frequencies"`
	RealResiduals      []float64    `json:"real_residuals"`
	ImaginaryResiduals []float64    `json:"imaginary_residuals"`
	Mask               PointMask    `json:"mask"`
	NumRC              int          `json:"num_RC"`
	PseudoChiSquared   float64      `json:"pseudo_chisqr"`
}

// Clone returns a deep copy of the result.
func (r TestResult) Clone() TestResult {
	cp := r
	cp.Frequencies = append([]float64(nil), r.Frequencies...)
	cp.RealResiduals = append([]float64(nil), r.RealResiduals...)
	cp.ImaginaryResiduals = append([]float64(nil), r.ImaginaryResiduals...)
	cp.Mask = r.Mask.Snapshot()
	return cp
}

// ZHITSettings configures a modulus reconstruction. Immutable once attached
// to a result.
type ZHITSettings struct {
	SmoothingWindow int    `json:"smoothing_window"`
	Interpolation   string `json:"interpolation"`
	WindowType      string `json:"window_type"`
}

// ZHITResult holds a reconstructed modulus spectrum for one data set.
type ZHITResult struct {
	ID          string       `json:"uuid"`
	Timestamp   time.Time    `json:"timestamp"`
	Settings    ZHITSettings `json:"settings"`
	Frequencies []float64    `json:"frequencies"`
	Real        []float64    `json:"real"`
	Imaginary   []float64    `json:"imaginary"`
	Mask        PointMask    `json:"mask"`
	Residual    float64      `json:"residual"`
}

// Clone returns a deep copy of the result.
func (r ZHITResult) Clone() ZHITResult {
	cp := r
	cp.Frequencies = append([]float64(nil), r.Frequencies...)
	cp.Real = append([]float64(nil), r.Real...)
	cp.Imaginary = append([]float64(nil), r.Imaginary...)
	cp.Mask = r.Mask.Snapshot()
	return cp
}

// DRTSettings configures a relaxation-time distribution estimation. When the
// method derives from an existing circuit fit, Fit carries an owned immutable
// copy of that fit result, never a live reference; deleting the source fit
// leaves the copy intact.
type DRTSettings struct {
	Method            string     `json:"method"`
	Mode              string     `json:"mode"`
	LambdaValue       float64    `json:"lambda_value"`
	RBFType           string     `json:"rbf_type"`
	RBFShape          string     `json:"rbf_shape"`
	CredibleIntervals bool       `json:"credible_intervals"`
	Fit               *FitResult `json:"fit,omitempty"`
}

// Clone returns a deep copy of the settings, including any embedded fit.
func (s DRTSettings) Clone() DRTSettings {
	cp := s
	if s.Fit != nil {
		fit := s.Fit.Clone()
		cp.Fit = &fit
	}
	return cp
}

// DRTResult holds an estimated distribution of relaxation times for one data
// set.
type DRTResult struct {
	ID            string      `json:"uuid"`
	Timestamp     time.Time   `json:"timestamp"`
	Settings      DRTSettings `json:"settings"`
	TimeConstants []float64   `json:"time_constants"`
	Gammas        []float64   `json:"gammas"`
	Mask          PointMask   `json:"mask"`
	ChiSquared    float64     `json:"chisqr"`
}

// Clone returns a deep copy of the result.
func (r DRTResult) Clone() DRTResult {
	cp := r
	cp.Settings = r.Settings.Clone()
	cp.TimeConstants = append([]float64(nil), r.TimeConstants...)
	cp.Gammas = append([]float64(nil), r.Gammas...)
	cp.Mask = r.Mask.Snapshot()
	return cp
}

// FitSettings configures a nonlinear circuit fit. Immutable once attached to
// a result.
type FitSettings struct {
	CDC           string `json:"cdc"`
	Method        string `json:"method"`
	Weight        string `json:"weight"`
	MaxIterations int    `json:"max_nfev"`
}

// FittedParameter records one fitted circuit element parameter.
type FittedParameter struct {
	Element string  `json:"element"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	StdErr  float64 `json:"stderr"`
	Fixed   bool    `json:"fixed"`
}

// FitResult holds a fitted equivalent circuit for one data set.
type FitResult struct {
	ID          string            `json:"uuid"`
	Timestamp   time.Time         `json:"timestamp"`
	Settings    FitSettings       `json:"settings"`
	Parameters  []FittedParameter `json:"parameters"`
	Frequencies []float64         `json:"frequencies"`
	Real        []float64         `json:"real"`
	Imaginary   []float64         `json:"imaginary"`
	Mask        PointMask         `json:"mask"`
	ChiSquared  float64           `json:"chisqr"`
	Ndof        int               `json:"ndof"`
}

// Clone returns a deep copy of the result.
func (r FitResult) Clone() FitResult {
	cp := r
	cp.Parameters = append([]FittedParameter(nil), r.Parameters...)
	cp.Frequencies = append([]float64(nil), r.Frequencies...)
	cp.Real = append([]float64(nil), r.Real...)
	cp.Imaginary = append([]float64(nil), r.Imaginary...)
	cp.Mask = r.Mask.Snapshot()
	return cp
}

// SimulationSettings configures a circuit simulation over a frequency range.
type SimulationSettings struct {
	CDC             string  `json:"cdc"`
	MinFrequency    float64 `json:"min_frequency"`
	MaxFrequency    float64 `json:"max_frequency"`
	PointsPerDecade int     `json:"num_per_decade"`
}

// SimulationResult holds a simulated spectrum for an analytic circuit model
// parsed from a textual description. It is not tied to any data set.
type SimulationResult struct {
	ID        string             `json:"uuid"`
	Timestamp time.Time          `json:"timestamp"`
	Model     string             `json:"model"`
	Settings  SimulationSettings `json:"settings"`
}

// Clone returns a copy of the result.
func (r SimulationResult) Clone() SimulationResult { return r }

// PlotSettings configures one plot: its type, the ordered entity identifiers
// it draws (series order doubles as legend order), and per-entity display
// attribute overrides keyed by identifier.
type PlotSettings struct {
	ID          string            `json:"uuid"`
	Label       string            `json:"label"`
	Type        PlotType          `json:"plot_type"`
	SeriesOrder []string          `json:"series_order"`
	Labels      map[string]string `json:"labels"`
	Colors      map[string]string `json:"colors"`
	Markers     map[string]int    `json:"markers"`
	ShowLines   map[string]bool   `json:"show_lines"`
}

// Clone returns a deep copy of the plot configuration.
func (p PlotSettings) Clone() PlotSettings {
	cp := p
	cp.SeriesOrder = append([]string(nil), p.SeriesOrder...)
	cp.Labels = cloneStringMap(p.Labels)
	cp.Colors = cloneStringMap(p.Colors)
	if p.Markers != nil {
		cp.Markers = make(map[string]int, len(p.Markers))
		for k, v := range p.Markers {
			cp.Markers[k] = v
		}
	}
	if p.ShowLines != nil {
		cp.ShowLines = make(map[string]bool, len(p.ShowLines))
		for k, v := range p.ShowLines {
			cp.ShowLines[k] = v
		}
	}
	return cp
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// ensureAttributeMaps initializes nil attribute maps so lookups and
// assignments never trip on a zero-value plot.
func (p *PlotSettings) ensureAttributeMaps() {
	if p.Labels == nil {
		p.Labels = map[string]string{}
	}
	if p.Colors == nil {
		p.Colors = map[string]string{}
	}
	if p.Markers == nil {
		p.Markers = map[string]int{}
	}
	if p.ShowLines == nil {
		p.ShowLines = map[string]bool{}
	}
}
