package codec

import "fmt"

// Record kind names used in migrator tables and decode errors.
const (
	KindProject            = "project"
	KindDataSet            = "data_set"
	KindTest               = "test"
	KindTestSettings       = "test_settings"
	KindZHIT               = "zhit"
	KindZHITSettings       = "zhit_settings"
	KindDRT                = "drt"
	KindDRTSettings        = "drt_settings"
	KindFit                = "fit"
	KindFitSettings        = "fit_settings"
	KindSimulation         = "simulation"
	KindSimulationSettings = "simulation_settings"
	KindPlot               = "plot"
)

// setDefault assigns value when the field is absent. The no-op on presence
// is what keeps every step idempotent for already-upgraded documents.
func setDefault(doc Document, field string, value any) {
	if _, ok := doc[field]; !ok {
		doc[field] = value
	}
}

// renameField moves old to new when old is present and new is not.
func renameField(doc Document, old, new string) {
	if v, ok := doc[old]; ok {
		if _, taken := doc[new]; !taken {
			doc[new] = v
		}
		delete(doc, old)
	}
}

func noop(doc Document) (Document, error) { return doc, nil }

// projectMigrator upgrades whole-project documents.
//
// v1: base shape {uuid,label,data_sets,tests,drts,fits}
// v2: added simulations
// v3: added plots
// v4: added zhits
// v5: added notes
var projectMigrator = NewMigrator(KindProject,
	func(doc Document) (Document, error) {
		setDefault(doc, "data_sets", []any{})
		setDefault(doc, "tests", map[string]any{})
		setDefault(doc, "drts", map[string]any{})
		setDefault(doc, "fits", map[string]any{})
		return doc, nil
	},
	func(doc Document) (Document, error) {
		setDefault(doc, "simulations", []any{})
		return doc, nil
	},
	func(doc Document) (Document, error) {
		setDefault(doc, "plots", []any{})
		return doc, nil
	},
	func(doc Document) (Document, error) {
		setDefault(doc, "zhits", map[string]any{})
		return doc, nil
	},
	func(doc Document) (Document, error) {
		setDefault(doc, "notes", "")
		return doc, nil
	},
)

// dataSetMigrator upgrades measurement documents.
//
// v1: mask optional
// v2: mask changed from a flat list of excluded indices to a sparse mapping
var dataSetMigrator = NewMigrator(KindDataSet,
	func(doc Document) (Document, error) {
		setDefault(doc, "mask", map[string]any{})
		return doc, nil
	},
	func(doc Document) (Document, error) {
		list, ok := doc["mask"].([]any)
		if !ok {
			return doc, nil // already mapping form
		}
		mask := make(map[string]any, len(list))
		for _, raw := range list {
			index, err := asInt(raw)
			if err != nil {
				return nil, fmt.Errorf("legacy mask entry: %w", err)
			}
			mask[fmt.Sprintf("%d", index)] = true
		}
		doc["mask"] = mask
		return doc, nil
	},
)

// testMigrator upgrades consistency-test result documents.
//
// v1: mask optional
// v2: added pseudo_chisqr (-1 when it cannot be derived)
var testMigrator = NewMigrator(KindTest,
	func(doc Document) (Document, error) {
		setDefault(doc, "mask", map[string]any{})
		return doc, nil
	},
	func(doc Document) (Document, error) {
		setDefault(doc, "pseudo_chisqr", -1.0)
		return doc, nil
	},
)

// testSettingsMigrator upgrades consistency-test settings documents.
//
// v1: mu_criterion optional
// v2: added add_capacitance / add_inductance
var testSettingsMigrator = NewMigrator(KindTestSettings,
	func(doc Document) (Document, error) {
		setDefault(doc, "mu_criterion", 0.85)
		return doc, nil
	},
	func(doc Document) (Document, error) {
		setDefault(doc, "add_capacitance", false)
		setDefault(doc, "add_inductance", false)
		return doc, nil
	},
)

// zhitMigrator upgrades modulus-reconstruction result documents.
var zhitMigrator = NewMigrator(KindZHIT,
	func(doc Document) (Document, error) {
		setDefault(doc, "mask", map[string]any{})
		setDefault(doc, "residual", 0.0)
		return doc, nil
	},
)

// zhitSettingsMigrator upgrades modulus-reconstruction settings documents.
//
// v1: base shape
// v2: added window_type
var zhitSettingsMigrator = NewMigrator(KindZHITSettings,
	func(doc Document) (Document, error) {
		setDefault(doc, "smoothing_window", 5)
		setDefault(doc, "interpolation", "akima")
		return doc, nil
	},
	func(doc Document) (Document, error) {
		setDefault(doc, "window_type", "boxcar")
		return doc, nil
	},
)

// drtMigrator upgrades relaxation-distribution result documents.
//
// v1: mask optional, statistic stored as chi_squared
// v2: renamed chi_squared to chisqr
var drtMigrator = NewMigrator(KindDRT,
	func(doc Document) (Document, error) {
		setDefault(doc, "mask", map[string]any{})
		return doc, nil
	},
	func(doc Document) (Document, error) {
		renameField(doc, "chi_squared", "chisqr")
		setDefault(doc, "chisqr", 0.0)
		return doc, nil
	},
)

// drtSettingsMigrator upgrades relaxation-distribution settings documents.
//
// v1: base shape
// v2: renamed method bht-legacy to bht
// v3: added credible_intervals
var drtSettingsMigrator = NewMigrator(KindDRTSettings,
	func(doc Document) (Document, error) {
		setDefault(doc, "mode", "complex")
		setDefault(doc, "lambda_value", -1.0)
		setDefault(doc, "rbf_type", "gaussian")
		setDefault(doc, "rbf_shape", "fwhm")
		return doc, nil
	},
	func(doc Document) (Document, error) {
		if doc["method"] == "bht-legacy" {
			doc["method"] = "bht"
		}
		return doc, nil
	},
	func(doc Document) (Document, error) {
		setDefault(doc, "credible_intervals", false)
		return doc, nil
	},
)

// fitMigrator upgrades circuit-fit result documents.
//
// v1: parameters lacked stderr / fixed
// v2: every parameter carries stderr and fixed
var fitMigrator = NewMigrator(KindFit,
	func(doc Document) (Document, error) {
		setDefault(doc, "mask", map[string]any{})
		return doc, nil
	},
	func(doc Document) (Document, error) {
		list, ok := doc["parameters"].([]any)
		if !ok {
			setDefault(doc, "parameters", []any{})
			return doc, nil
		}
		for i, raw := range list {
			param, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("parameter %d: expected mapping, got %T", i, raw)
			}
			setDefault(param, "stderr", 0.0)
			setDefault(param, "fixed", false)
		}
		return doc, nil
	},
)

// fitSettingsMigrator upgrades circuit-fit settings documents.
//
// v1: base shape
// v2: added max_nfev
var fitSettingsMigrator = NewMigrator(KindFitSettings,
	func(doc Document) (Document, error) {
		setDefault(doc, "method", "least_squares")
		setDefault(doc, "weight", "modulus")
		return doc, nil
	},
	func(doc Document) (Document, error) {
		setDefault(doc, "max_nfev", 1000)
		return doc, nil
	},
)

// simulationMigrator upgrades simulation result documents. The result shape
// has been stable since v1.
var simulationMigrator = NewMigrator(KindSimulation, noop)

// simulationSettingsMigrator upgrades simulation settings documents.
//
// v1: frequency range stored as a two-element frequency_range list
// v2: split into min_frequency / max_frequency, added num_per_decade
var simulationSettingsMigrator = NewMigrator(KindSimulationSettings,
	noop,
	func(doc Document) (Document, error) {
		if raw, ok := doc["frequency_range"]; ok {
			pair, ok := raw.([]any)
			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("frequency_range: expected two-element list, got %v", raw)
			}
			lo, okLo := pair[0].(float64)
			hi, okHi := pair[1].(float64)
			if !okLo || !okHi {
				return nil, fmt.Errorf("frequency_range: expected numbers, got %v", raw)
			}
			setDefault(doc, "min_frequency", lo)
			setDefault(doc, "max_frequency", hi)
			delete(doc, "frequency_range")
		}
		setDefault(doc, "num_per_decade", 10)
		return doc, nil
	},
)

// plotMigrator upgrades plot configuration documents.
//
// v1: base shape
// v2: added show_lines
var plotMigrator = NewMigrator(KindPlot,
	func(doc Document) (Document, error) {
		setDefault(doc, "series_order", []any{})
		setDefault(doc, "labels", map[string]any{})
		setDefault(doc, "colors", map[string]any{})
		setDefault(doc, "markers", map[string]any{})
		return doc, nil
	},
	func(doc Document) (Document, error) {
		setDefault(doc, "show_lines", map[string]any{})
		return doc, nil
	},
)

// Migrators returns every registered migrator keyed by kind. Exposed for the
// per-step idempotence tests.
func Migrators() map[string]*Migrator {
	return map[string]*Migrator{
		KindProject:            projectMigrator,
		KindDataSet:            dataSetMigrator,
		KindTest:               testMigrator,
		KindTestSettings:       testSettingsMigrator,
		KindZHIT:               zhitMigrator,
		KindZHITSettings:       zhitSettingsMigrator,
		KindDRT:                drtMigrator,
		KindDRTSettings:        drtSettingsMigrator,
		KindFit:                fitMigrator,
		KindFitSettings:        fitSettingsMigrator,
		KindSimulation:         simulationMigrator,
		KindSimulationSettings: simulationSettingsMigrator,
		KindPlot:               plotMigrator,
	}
}
