package codec

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"spectracore/pkg/domain"
)

func parseDocument(t *testing.T, raw string) Document {
	t.Helper()
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func canonical(t *testing.T, doc Document) string {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	return string(data)
}

func cloneDocument(t *testing.T, doc Document) Document {
	t.Helper()
	return parseDocument(t, canonical(t, doc))
}

func sampleState() domain.ProjectState {
	ts := time.Date(2023, 4, 1, 12, 30, 0, 0, time.UTC)
	dataSet := domain.DataSet{
		ID:          "ds-1",
		Label:       "Sample",
		Path:        "/data/sample.csv",
		Frequencies: []float64{1000, 100, 10},
		Real:        []float64{1.5, 2.5, 3.5},
		Imaginary:   []float64{-0.5, -1.5, -2.5},
		Mask:        domain.PointMask{1: true, 2: false},
	}
	fit := domain.FitResult{
		ID:        "fit-1",
		Timestamp: ts,
		Settings:  domain.FitSettings{CDC: "[RC]", Method: "least_squares", Weight: "modulus", MaxIterations: 1000},
		Parameters: []domain.FittedParameter{
			{Element: "R_0", Name: "R", Value: 125.5, StdErr: 0.25},
			{Element: "C_0", Name: "C", Value: 1e-6, Fixed: true},
		},
		Frequencies: []float64{1000, 100, 10},
		Real:        []float64{1.4, 2.4, 3.4},
		Imaginary:   []float64{-0.4, -1.4, -2.4},
		Mask:        domain.PointMask{1: true},
		ChiSquared:  0.004,
		Ndof:        4,
	}
	embedded := fit.Clone()
	return domain.ProjectState{
		ID:    "project-1",
		Label: "demo",
		Notes: "imported from the bench",
		DataSets: []domain.DataSet{dataSet},
		Tests: map[string][]domain.TestResult{
			"ds-1": {{
				ID:                 "test-1",
				Timestamp:          ts,
				Settings:           domain.TestSettings{NumRC: 7, MuCriterion: 0.85, AddCapacitance: true},
				Frequencies:        []float64{1000, 100, 10},
				RealResiduals:      []float64{0.01, -0.02, 0.03},
				ImaginaryResiduals: []float64{-0.01, 0.02, -0.03},
				Mask:               domain.PointMask{1: true},
				NumRC:              7,
				PseudoChiSquared:   0.002,
			}},
		},
		ZHITs: map[string][]domain.ZHITResult{
			"ds-1": {{
				ID:          "zhit-1",
				Timestamp:   ts,
				Settings:    domain.ZHITSettings{SmoothingWindow: 5, Interpolation: "akima", WindowType: "boxcar"},
				Frequencies: []float64{1000, 100, 10},
				Real:        []float64{1.45, 2.45, 3.45},
				Imaginary:   []float64{-0.45, -1.45, -2.45},
				Mask:        domain.PointMask{},
				Residual:    0.12,
			}},
		},
		DRTs: map[string][]domain.DRTResult{
			"ds-1": {{
				ID:            "drt-1",
				Timestamp:     ts,
				Settings:      domain.DRTSettings{Method: "tr-rbf", Mode: "complex", LambdaValue: -1, RBFType: "gaussian", RBFShape: "fwhm", Fit: &embedded},
				TimeConstants: []float64{1e-3, 1e-2},
				Gammas:        []float64{0.5, 0.7},
				Mask:          domain.PointMask{0: true},
				ChiSquared:    0.01,
			}},
		},
		Fits: map[string][]domain.FitResult{"ds-1": {fit}},
		Simulations: []domain.SimulationResult{{
			ID:        "sim-1",
			Timestamp: ts,
			Model:     "[R{R=100}C{C=1E-06}]",
			Settings:  domain.SimulationSettings{CDC: "[RC]", MinFrequency: 0.01, MaxFrequency: 100000, PointsPerDecade: 10},
		}},
		Plots: []domain.PlotSettings{{
			ID:          "plot-1",
			Label:       "overview",
			Type:        domain.PlotNyquist,
			SeriesOrder: []string{"ds-1", "fit-1", "sim-1"},
			Labels:      map[string]string{"fit-1": "fitted"},
			Colors:      map[string]string{"ds-1": "#336699"},
			Markers:     map[string]int{"ds-1": 4},
			ShowLines:   map[string]bool{"fit-1": true},
		}},
	}
}

func TestProjectRoundTripCurrentVersion(t *testing.T) {
	first, err := DecodeProject(cloneDocument(t, EncodeProject(sampleState(), Session)))
	if err != nil {
		t.Fatalf("first decode: %v", err)
	}
	second, err := DecodeProject(cloneDocument(t, EncodeProject(first, Session)))
	if err != nil {
		t.Fatalf("second decode: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("round trip mismatch:\nfirst:  %#v\nsecond: %#v", first, second)
	}
}

func TestDecodeLegacyProjectVersions(t *testing.T) {
	cases := map[string]string{
		"v1": `{"version":1,"uuid":"p","label":"old"}`,
		"v2": `{"version":2,"uuid":"p","label":"old","data_sets":[],"tests":{},"drts":{},"fits":{},"simulations":[]}`,
		"v4": `{"version":4,"uuid":"p","label":"old","data_sets":[],"tests":{},"drts":{},"fits":{},"simulations":[],"plots":[],"zhits":{}}`,
	}
	for name, raw := range cases {
		st, err := DecodeProject(parseDocument(t, raw))
		if err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if st.ID != "p" || st.Label != "old" || st.Notes != "" {
			t.Fatalf("%s: unexpected state %#v", name, st)
		}
		if st.Tests == nil || st.ZHITs == nil || st.DRTs == nil || st.Fits == nil {
			t.Fatalf("%s: result mappings not initialized", name)
		}
	}
}

func TestDecodeLegacyDataSetListMask(t *testing.T) {
	raw := `{"version":1,"uuid":"d","label":"A","path":"/a.csv",
		"frequencies":[10,1],"real":[1,2],"imaginary":[-1,-2],"mask":[1]}`
	d, err := DecodeDataSet(parseDocument(t, raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !d.Mask.IsExcluded(1) || d.Mask.IsExcluded(0) {
		t.Fatalf("legacy list mask not upgraded: %v", d.Mask)
	}
}

func TestDecodeRejectsMalformedMaskIndex(t *testing.T) {
	raw := `{"version":2,"uuid":"d","label":"A","path":"/a.csv",
		"frequencies":[10,1],"real":[1,2],"imaginary":[-1,-2],"mask":{"12abc":true}}`
	_, err := DecodeDataSet(parseDocument(t, raw))
	var decodeErr domain.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError for a malformed mask index, got %v", err)
	}
	if decodeErr.Field != "mask" {
		t.Fatalf("expected the mask field reported, got %q", decodeErr.Field)
	}
}

func TestDecodeLegacyDRTSettingsRenamesMethod(t *testing.T) {
	raw := `{"version":1,"method":"bht-legacy"}`
	s, err := DecodeDRTSettings(parseDocument(t, raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Method != "bht" {
		t.Fatalf("expected renamed method, got %q", s.Method)
	}
	if s.Mode != "complex" || s.RBFType != "gaussian" {
		t.Fatalf("v1 defaults not applied: %#v", s)
	}
}

func TestDecodeLegacySimulationSettingsSplitsRange(t *testing.T) {
	raw := `{"version":1,"cdc":"[RC]","frequency_range":[0.01,100000]}`
	s, err := DecodeSimulationSettings(parseDocument(t, raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.MinFrequency != 0.01 || s.MaxFrequency != 100000 {
		t.Fatalf("range not split: %#v", s)
	}
	if s.PointsPerDecade != 10 {
		t.Fatalf("num_per_decade default not applied: %d", s.PointsPerDecade)
	}
}

func TestDecodeLegacyFitParameterDefaults(t *testing.T) {
	raw := `{"version":1,"uuid":"f","timestamp":"2023-04-01T12:30:00Z",
		"settings":{"version":2,"cdc":"[RC]","method":"least_squares","weight":"modulus","max_nfev":1000},
		"parameters":[{"element":"R_0","name":"R","value":100}],
		"chisqr":0.1,"ndof":3}`
	f, err := DecodeFitResult(parseDocument(t, raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(f.Parameters) != 1 {
		t.Fatalf("expected one parameter")
	}
	if f.Parameters[0].StdErr != 0 || f.Parameters[0].Fixed {
		t.Fatalf("v2 parameter defaults not applied: %#v", f.Parameters[0])
	}
}

func TestStepIdempotence(t *testing.T) {
	// Every migration step must be a no-op on a document that already
	// satisfies it: the chain reapplies steps at or above the stored version.
	seeds := map[string]Document{
		KindProject:            EncodeProject(sampleState(), Session),
		KindDataSet:            EncodeDataSet(sampleState().DataSets[0]),
		KindTest:               EncodeTestResult(sampleState().Tests["ds-1"][0], Session),
		KindTestSettings:       EncodeTestSettings(sampleState().Tests["ds-1"][0].Settings),
		KindZHIT:               EncodeZHITResult(sampleState().ZHITs["ds-1"][0], Session),
		KindZHITSettings:       EncodeZHITSettings(sampleState().ZHITs["ds-1"][0].Settings),
		KindDRT:                EncodeDRTResult(sampleState().DRTs["ds-1"][0], Session),
		KindDRTSettings:        EncodeDRTSettings(sampleState().DRTs["ds-1"][0].Settings, Session),
		KindFit:                EncodeFitResult(sampleState().Fits["ds-1"][0], Session),
		KindFitSettings:        EncodeFitSettings(sampleState().Fits["ds-1"][0].Settings),
		KindSimulation:         EncodeSimulationResult(sampleState().Simulations[0]),
		KindSimulationSettings: EncodeSimulationSettings(sampleState().Simulations[0].Settings),
		KindPlot:               EncodePlotSettings(sampleState().Plots[0]),
	}
	for kind, migrator := range Migrators() {
		seed, ok := seeds[kind]
		if !ok {
			t.Fatalf("no seed document for kind %s", kind)
		}
		doc := cloneDocument(t, seed)
		delete(doc, "version")
		for i, step := range migrator.steps {
			once, err := step(cloneDocument(t, doc))
			if err != nil {
				t.Fatalf("%s step %d: %v", kind, i+1, err)
			}
			twice, err := step(cloneDocument(t, once))
			if err != nil {
				t.Fatalf("%s step %d reapplied: %v", kind, i+1, err)
			}
			if canonical(t, once) != canonical(t, twice) {
				t.Fatalf("%s step %d is not idempotent", kind, i+1)
			}
			doc = once
		}
	}
}

func TestUpgradeRejectsBadVersions(t *testing.T) {
	var decodeErr domain.DecodeError

	_, err := DecodeProject(parseDocument(t, `{"uuid":"p","label":"x"}`))
	if !errors.As(err, &decodeErr) || decodeErr.Field != "version" {
		t.Fatalf("expected missing-version DecodeError, got %v", err)
	}

	_, err = DecodeProject(parseDocument(t, `{"version":99,"uuid":"p","label":"x"}`))
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected too-new DecodeError, got %v", err)
	}

	_, err = DecodeProject(parseDocument(t, `{"version":0,"uuid":"p","label":"x"}`))
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected too-old DecodeError, got %v", err)
	}
}

func TestDecodeMissingFieldIsCorrupt(t *testing.T) {
	_, err := DecodeProject(parseDocument(t, `{"version":5,"label":"x","notes":"","data_sets":[],"tests":{},"zhits":{},"drts":{},"fits":{},"simulations":[],"plots":[]}`))
	var decodeErr domain.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Field != "uuid" {
		t.Fatalf("expected uuid reported, got %q", decodeErr.Field)
	}
}

func TestMinimalModeOmitsReconstructableArrays(t *testing.T) {
	st := sampleState()
	doc := EncodeTestResult(st.Tests["ds-1"][0], Minimal)
	for _, field := range []string{"frequencies", "real_residuals", "imaginary_residuals"} {
		if _, ok := doc[field]; ok {
			t.Fatalf("minimal form still carries %s", field)
		}
	}
	decoded, err := DecodeTestResult(cloneDocument(t, doc))
	if err != nil {
		t.Fatalf("decode minimal: %v", err)
	}
	if decoded.Frequencies != nil {
		t.Fatalf("expected omitted arrays to decode as nil")
	}
	// The minimal mask keeps only excluded indices.
	mask, ok := doc["mask"].(map[string]any)
	if !ok {
		t.Fatalf("mask missing from minimal form")
	}
	if len(mask) != len(st.Tests["ds-1"][0].Mask.Reduced()) {
		t.Fatalf("minimal mask not reduced: %v", mask)
	}
}

func TestEncodeStampsCurrentVersion(t *testing.T) {
	doc := EncodeProject(sampleState(), Session)
	if doc["version"] != ProjectVersion() {
		t.Fatalf("expected version %d, got %v", ProjectVersion(), doc["version"])
	}
	stored, err := StoredVersion(KindProject, doc)
	if err != nil {
		t.Fatalf("stored version: %v", err)
	}
	if stored != ProjectVersion() {
		t.Fatalf("expected %d, got %d", ProjectVersion(), stored)
	}
}
