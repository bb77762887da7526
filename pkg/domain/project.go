package domain

import (
	"fmt"
	"sort"
)

// ProjectState is the exported, deep-copyable form of a project used by the
// codec and persistence layers. Field names match the persisted document;
// the file path is runtime context managed by the store and never persisted.
type ProjectState struct {
	ID          string                  `json:"uuid"`
	Label       string                  `json:"label"`
	Notes       string                  `json:"notes"`
	Path        string                  `json:"-"`
	DataSets    []DataSet               `json:"data_sets"`
	Tests       map[string][]TestResult `json:"tests"`
	ZHITs       map[string][]ZHITResult `json:"zhits"`
	DRTs        map[string][]DRTResult  `json:"drts"`
	Fits        map[string][]FitResult  `json:"fits"`
	Simulations []SimulationResult      `json:"simulations"`
	Plots       []PlotSettings          `json:"plots"`
}

// Project is the root aggregate. It owns every entity and maintains the
// cross-reference graph invariants: result-map keys always correspond to a
// present data set, and entity deletion prunes plot series orders in the
// same operation. All mutation happens on a single logical thread; there is
// no internal locking.
type Project struct {
	id          string
	label       string
	notes       string
	path        string
	dataSets    []DataSet
	tests       map[string][]TestResult
	zhits       map[string][]ZHITResult
	drts        map[string][]DRTResult
	fits        map[string][]FitResult
	simulations []SimulationResult
	plots       []PlotSettings
}

// NewProject constructs an empty project with a fresh identifier.
func NewProject(label string) *Project {
	return &Project{
		id:    NewID(),
		label: label,
		tests: map[string][]TestResult{},
		zhits: map[string][]ZHITResult{},
		drts:  map[string][]DRTResult{},
		fits:  map[string][]FitResult{},
	}
}

// FromState reconstructs a project from an exported state, validating the
// cross-reference invariant that every result-map key corresponds to a data
// set present in the state. Data sets are re-sorted by label and missing
// result lists are initialized.
func FromState(st ProjectState) (*Project, error) {
	p := &Project{
		id:    st.ID,
		label: st.Label,
		notes: st.Notes,
		path:  st.Path,
		tests: map[string][]TestResult{},
		zhits: map[string][]ZHITResult{},
		drts:  map[string][]DRTResult{},
		fits:  map[string][]FitResult{},
	}
	if p.id == "" {
		p.id = NewID()
	}
	present := make(map[string]bool, len(st.DataSets))
	for _, d := range st.DataSets {
		if present[d.ID] {
			return nil, IdentifierCollisionError{ID: d.ID}
		}
		present[d.ID] = true
		p.dataSets = append(p.dataSets, d.Clone())
	}
	for id, list := range st.Tests {
		if !present[id] {
			return nil, ReferentialError{Entity: EntityDataSet, ID: id}
		}
		for _, r := range list {
			p.tests[id] = append(p.tests[id], r.Clone())
		}
	}
	for id, list := range st.ZHITs {
		if !present[id] {
			return nil, ReferentialError{Entity: EntityDataSet, ID: id}
		}
		for _, r := range list {
			p.zhits[id] = append(p.zhits[id], r.Clone())
		}
	}
	for id, list := range st.DRTs {
		if !present[id] {
			return nil, ReferentialError{Entity: EntityDataSet, ID: id}
		}
		for _, r := range list {
			p.drts[id] = append(p.drts[id], r.Clone())
		}
	}
	for id, list := range st.Fits {
		if !present[id] {
			return nil, ReferentialError{Entity: EntityDataSet, ID: id}
		}
		for _, r := range list {
			p.fits[id] = append(p.fits[id], r.Clone())
		}
	}
	for id := range present {
		if p.tests[id] == nil {
			p.tests[id] = []TestResult{}
		}
		if p.zhits[id] == nil {
			p.zhits[id] = []ZHITResult{}
		}
		if p.drts[id] == nil {
			p.drts[id] = []DRTResult{}
		}
		if p.fits[id] == nil {
			p.fits[id] = []FitResult{}
		}
	}
	for _, s := range st.Simulations {
		p.simulations = append(p.simulations, s.Clone())
	}
	for _, pl := range st.Plots {
		cp := pl.Clone()
		cp.ensureAttributeMaps()
		p.plots = append(p.plots, cp)
	}
	p.sortDataSets()
	return p, nil
}

// State exports a deep copy of the full project state.
func (p *Project) State() ProjectState {
	st := ProjectState{
		ID:    p.id,
		Label: p.label,
		Notes: p.notes,
		Path:  p.path,
		Tests: map[string][]TestResult{},
		ZHITs: map[string][]ZHITResult{},
		DRTs:  map[string][]DRTResult{},
		Fits:  map[string][]FitResult{},
	}
	for _, d := range p.dataSets {
		st.DataSets = append(st.DataSets, d.Clone())
	}
	for id, list := range p.tests {
		out := make([]TestResult, 0, len(list))
		for _, r := range list {
			out = append(out, r.Clone())
		}
		st.Tests[id] = out
	}
	for id, list := range p.zhits {
		out := make([]ZHITResult, 0, len(list))
		for _, r := range list {
			out = append(out, r.Clone())
		}
		st.ZHITs[id] = out
	}
	for id, list := range p.drts {
		out := make([]DRTResult, 0, len(list))
		for _, r := range list {
			out = append(out, r.Clone())
		}
		st.DRTs[id] = out
	}
	for id, list := range p.fits {
		out := make([]FitResult, 0, len(list))
		for _, r := range list {
			out = append(out, r.Clone())
		}
		st.Fits[id] = out
	}
	for _, s := range p.simulations {
		st.Simulations = append(st.Simulations, s.Clone())
	}
	for _, pl := range p.plots {
		st.Plots = append(st.Plots, pl.Clone())
	}
	return st
}

// ID returns the stable project identifier.
func (p *Project) ID() string { return p.id }

// Label returns the display label.
func (p *Project) Label() string { return p.label }

// SetLabel updates the display label.
func (p *Project) SetLabel(label string) { p.label = label }

// Notes returns the free-text notes.
func (p *Project) Notes() string { return p.notes }

// SetNotes replaces the free-text notes.
func (p *Project) SetNotes(notes string) { p.notes = notes }

// Path returns the last-known file path, empty for unsaved projects.
func (p *Project) Path() string { return p.path }

// SetPath records the last-known file path.
func (p *Project) SetPath(path string) { p.path = path }

// DataSets returns the data sets ordered by label.
func (p *Project) DataSets() []DataSet {
	out := make([]DataSet, 0, len(p.dataSets))
	for _, d := range p.dataSets {
		out = append(out, d.Clone())
	}
	return out
}

// FindDataSet retrieves a data set by identifier.
func (p *Project) FindDataSet(id string) (DataSet, bool) {
	for _, d := range p.dataSets {
		if d.ID == id {
			return d.Clone(), true
		}
	}
	return DataSet{}, false
}

// Tests returns the consistency-test results for a data set, most recent
// first.
func (p *Project) Tests(dataSetID string) []TestResult {
	out := make([]TestResult, 0, len(p.tests[dataSetID]))
	for _, r := range p.tests[dataSetID] {
		out = append(out, r.Clone())
	}
	return out
}

// ZHITs returns the modulus-reconstruction results for a data set, most
// recent first.
func (p *Project) ZHITs(dataSetID string) []ZHITResult {
	out := make([]ZHITResult, 0, len(p.zhits[dataSetID]))
	for _, r := range p.zhits[dataSetID] {
		out = append(out, r.Clone())
	}
	return out
}

// DRTs returns the relaxation-distribution results for a data set, most
// recent first.
func (p *Project) DRTs(dataSetID string) []DRTResult {
	out := make([]DRTResult, 0, len(p.drts[dataSetID]))
	for _, r := range p.drts[dataSetID] {
		out = append(out, r.Clone())
	}
	return out
}

// Fits returns the circuit-fit results for a data set, most recent first.
func (p *Project) Fits(dataSetID string) []FitResult {
	out := make([]FitResult, 0, len(p.fits[dataSetID]))
	for _, r := range p.fits[dataSetID] {
		out = append(out, r.Clone())
	}
	return out
}

// Simulations returns all simulation results in insertion order.
func (p *Project) Simulations() []SimulationResult {
	out := make([]SimulationResult, 0, len(p.simulations))
	for _, s := range p.simulations {
		out = append(out, s.Clone())
	}
	return out
}

// Plots returns all plot configurations in insertion order.
func (p *Project) Plots() []PlotSettings {
	out := make([]PlotSettings, 0, len(p.plots))
	for _, pl := range p.plots {
		out = append(out, pl.Clone())
	}
	return out
}

// FindPlot retrieves a plot configuration by identifier.
func (p *Project) FindPlot(id string) (PlotSettings, bool) {
	for _, pl := range p.plots {
		if pl.ID == id {
			return pl.Clone(), true
		}
	}
	return PlotSettings{}, false
}

// ResolveEntity reports the type of the entity carrying the identifier, if
// any. Plots are not themselves referencable from plot series.
func (p *Project) ResolveEntity(id string) (EntityType, bool) {
	for _, d := range p.dataSets {
		if d.ID == id {
			return EntityDataSet, true
		}
	}
	for _, list := range p.tests {
		for _, r := range list {
			if r.ID == id {
				return EntityTestResult, true
			}
		}
	}
	for _, list := range p.zhits {
		for _, r := range list {
			if r.ID == id {
				return EntityZHITResult, true
			}
		}
	}
	for _, list := range p.drts {
		for _, r := range list {
			if r.ID == id {
				return EntityDRTResult, true
			}
		}
	}
	for _, list := range p.fits {
		for _, r := range list {
			if r.ID == id {
				return EntityFitResult, true
			}
		}
	}
	for _, s := range p.simulations {
		if s.ID == id {
			return EntitySimulation, true
		}
	}
	return "", false
}

func (p *Project) sortDataSets() {
	sort.SliceStable(p.dataSets, func(i, j int) bool {
		if p.dataSets[i].Label != p.dataSets[j].Label {
			return p.dataSets[i].Label < p.dataSets[j].Label
		}
		return p.dataSets[i].ID < p.dataSets[j].ID
	})
}

// DisambiguateLabel appends a numeric suffix " (n)", starting at 2, until
// the label is not claimed by taken.
func DisambiguateLabel(label string, taken func(string) bool) string {
	if !taken(label) {
		return label
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", label, n)
		if !taken(candidate) {
			return candidate
		}
	}
}

func (p *Project) dataSetLabelTaken(label string) bool {
	for _, d := range p.dataSets {
		if d.Label == label {
			return true
		}
	}
	return false
}

func (p *Project) plotLabelTaken(exceptID, label string) bool {
	for _, pl := range p.plots {
		if pl.ID != exceptID && pl.Label == label {
			return true
		}
	}
	return false
}

// AddDataSet inserts a measurement, disambiguating its label against the
// existing data sets (the incoming record's label is rewritten), and
// initializes empty result lists of every kind for its identifier. Duplicate
// identifiers are rejected.
func (p *Project) AddDataSet(d *DataSet) error {
	if d == nil {
		return fmt.Errorf("data set is nil")
	}
	if len(d.Real) != len(d.Frequencies) || len(d.Imaginary) != len(d.Frequencies) {
		return fmt.Errorf("data set %q: sample arrays differ in length", d.Label)
	}
	if d.ID == "" {
		d.ID = NewID()
	}
	if _, exists := p.ResolveEntity(d.ID); exists {
		return fmt.Errorf("data set %q already exists", d.ID)
	}
	d.Label = DisambiguateLabel(d.Label, p.dataSetLabelTaken)
	p.dataSets = append(p.dataSets, d.Clone())
	p.tests[d.ID] = []TestResult{}
	p.zhits[d.ID] = []ZHITResult{}
	p.drts[d.ID] = []DRTResult{}
	p.fits[d.ID] = []FitResult{}
	p.sortDataSets()
	return nil
}

// DeleteDataSet removes a measurement, its result lists of every kind, and
// every reference to the measurement or its results from plot series orders,
// atomically. Display-attribute entries for the removed identifiers are left
// in place; the populate refresh garbage-collects them.
func (p *Project) DeleteDataSet(id string) error {
	idx := -1
	for i, d := range p.dataSets {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("data set %q not found", id)
	}
	doomed := map[string]bool{id: true}
	for _, r := range p.tests[id] {
		doomed[r.ID] = true
	}
	for _, r := range p.zhits[id] {
		doomed[r.ID] = true
	}
	for _, r := range p.drts[id] {
		doomed[r.ID] = true
	}
	for _, r := range p.fits[id] {
		doomed[r.ID] = true
	}
	p.dataSets = append(p.dataSets[:idx], p.dataSets[idx+1:]...)
	delete(p.tests, id)
	delete(p.zhits, id)
	delete(p.drts, id)
	delete(p.fits, id)
	p.pruneSeries(doomed)
	return nil
}

func (p *Project) pruneSeries(doomed map[string]bool) {
	for i := range p.plots {
		kept := p.plots[i].SeriesOrder[:0]
		for _, entityID := range p.plots[i].SeriesOrder {
			if !doomed[entityID] {
				kept = append(kept, entityID)
			}
		}
		p.plots[i].SeriesOrder = kept
	}
}

// AddTestResult prepends a consistency-test result to the data set's list
// (most recent first). The data set must exist and the result identifier
// must be new within the list.
func (p *Project) AddTestResult(dataSetID string, r TestResult) error {
	list, ok := p.tests[dataSetID]
	if !ok {
		return ReferentialError{Entity: EntityDataSet, ID: dataSetID}
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	for _, existing := range list {
		if existing.ID == r.ID {
			return fmt.Errorf("test result %q already exists", r.ID)
		}
	}
	p.tests[dataSetID] = append([]TestResult{r.Clone()}, list...)
	return nil
}

// DeleteTestResult removes a consistency-test result and prunes its
// identifier from every plot series order.
func (p *Project) DeleteTestResult(dataSetID, resultID string) error {
	list, ok := p.tests[dataSetID]
	if !ok {
		return ReferentialError{Entity: EntityDataSet, ID: dataSetID}
	}
	for i, r := range list {
		if r.ID == resultID {
			p.tests[dataSetID] = append(list[:i], list[i+1:]...)
			p.pruneSeries(map[string]bool{resultID: true})
			return nil
		}
	}
	return fmt.Errorf("test result %q not found", resultID)
}

// AddZHITResult prepends a modulus-reconstruction result to the data set's
// list.
func (p *Project) AddZHITResult(dataSetID string, r ZHITResult) error {
	list, ok := p.zhits[dataSetID]
	if !ok {
		return ReferentialError{Entity: EntityDataSet, ID: dataSetID}
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	for _, existing := range list {
		if existing.ID == r.ID {
			return fmt.Errorf("zhit result %q already exists", r.ID)
		}
	}
	p.zhits[dataSetID] = append([]ZHITResult{r.Clone()}, list...)
	return nil
}

// DeleteZHITResult removes a modulus-reconstruction result and prunes plot
// references.
func (p *Project) DeleteZHITResult(dataSetID, resultID string) error {
	list, ok := p.zhits[dataSetID]
	if !ok {
		return ReferentialError{Entity: EntityDataSet, ID: dataSetID}
	}
	for i, r := range list {
		if r.ID == resultID {
			p.zhits[dataSetID] = append(list[:i], list[i+1:]...)
			p.pruneSeries(map[string]bool{resultID: true})
			return nil
		}
	}
	return fmt.Errorf("zhit result %q not found", resultID)
}

// AddDRTResult prepends a relaxation-distribution result to the data set's
// list.
func (p *Project) AddDRTResult(dataSetID string, r DRTResult) error {
	list, ok := p.drts[dataSetID]
	if !ok {
		return ReferentialError{Entity: EntityDataSet, ID: dataSetID}
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	for _, existing := range list {
		if existing.ID == r.ID {
			return fmt.Errorf("drt result %q already exists", r.ID)
		}
	}
	p.drts[dataSetID] = append([]DRTResult{r.Clone()}, list...)
	return nil
}

// DeleteDRTResult removes a relaxation-distribution result and prunes plot
// references.
func (p *Project) DeleteDRTResult(dataSetID, resultID string) error {
	list, ok := p.drts[dataSetID]
	if !ok {
		return ReferentialError{Entity: EntityDataSet, ID: dataSetID}
	}
	for i, r := range list {
		if r.ID == resultID {
			p.drts[dataSetID] = append(list[:i], list[i+1:]...)
			p.pruneSeries(map[string]bool{resultID: true})
			return nil
		}
	}
	return fmt.Errorf("drt result %q not found", resultID)
}

// AddFitResult prepends a circuit-fit result to the data set's list.
func (p *Project) AddFitResult(dataSetID string, r FitResult) error {
	list, ok := p.fits[dataSetID]
	if !ok {
		return ReferentialError{Entity: EntityDataSet, ID: dataSetID}
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	for _, existing := range list {
		if existing.ID == r.ID {
			return fmt.Errorf("fit result %q already exists", r.ID)
		}
	}
	p.fits[dataSetID] = append([]FitResult{r.Clone()}, list...)
	return nil
}

// DeleteFitResult removes a circuit-fit result and prunes plot references.
func (p *Project) DeleteFitResult(dataSetID, resultID string) error {
	list, ok := p.fits[dataSetID]
	if !ok {
		return ReferentialError{Entity: EntityDataSet, ID: dataSetID}
	}
	for i, r := range list {
		if r.ID == resultID {
			p.fits[dataSetID] = append(list[:i], list[i+1:]...)
			p.pruneSeries(map[string]bool{resultID: true})
			return nil
		}
	}
	return fmt.Errorf("fit result %q not found", resultID)
}

// AddSimulation appends a simulation result. Duplicate identifiers are
// rejected.
func (p *Project) AddSimulation(s *SimulationResult) error {
	if s == nil {
		return fmt.Errorf("simulation result is nil")
	}
	if s.ID == "" {
		s.ID = NewID()
	}
	if _, exists := p.ResolveEntity(s.ID); exists {
		return fmt.Errorf("simulation result %q already exists", s.ID)
	}
	p.simulations = append(p.simulations, s.Clone())
	return nil
}

// DeleteSimulation removes a simulation result and prunes plot references.
func (p *Project) DeleteSimulation(id string) error {
	for i, s := range p.simulations {
		if s.ID == id {
			p.simulations = append(p.simulations[:i], p.simulations[i+1:]...)
			p.pruneSeries(map[string]bool{id: true})
			return nil
		}
	}
	return fmt.Errorf("simulation result %q not found", id)
}

// AddPlot inserts a plot configuration, disambiguating its label against the
// existing plots (the incoming record's label is rewritten). Series entries
// referencing unknown entities are rejected up front.
func (p *Project) AddPlot(pl *PlotSettings) error {
	if pl == nil {
		return fmt.Errorf("plot is nil")
	}
	if pl.ID == "" {
		pl.ID = NewID()
	}
	for _, existing := range p.plots {
		if existing.ID == pl.ID {
			return fmt.Errorf("plot %q already exists", pl.ID)
		}
	}
	for _, entityID := range pl.SeriesOrder {
		if _, ok := p.ResolveEntity(entityID); !ok {
			return ReferentialError{ID: entityID}
		}
	}
	pl.Label = DisambiguateLabel(pl.Label, func(label string) bool {
		return p.plotLabelTaken("", label)
	})
	cp := pl.Clone()
	cp.ensureAttributeMaps()
	p.plots = append(p.plots, cp)
	return nil
}

// DeletePlot removes a plot configuration.
func (p *Project) DeletePlot(id string) error {
	for i, pl := range p.plots {
		if pl.ID == id {
			p.plots = append(p.plots[:i], p.plots[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("plot %q not found", id)
}

// RenamePlot relabels a plot, applying the same disambiguation rule as
// AddPlot against the other plots.
func (p *Project) RenamePlot(id, label string) error {
	for i, pl := range p.plots {
		if pl.ID == id {
			p.plots[i].Label = DisambiguateLabel(label, func(candidate string) bool {
				return p.plotLabelTaken(id, candidate)
			})
			return nil
		}
	}
	return fmt.Errorf("plot %q not found", id)
}

// UpdatePlot mutates a plot configuration through the provided mutator. The
// identifier and label are preserved; relabeling goes through RenamePlot so
// disambiguation always applies.
func (p *Project) UpdatePlot(id string, mutator func(*PlotSettings) error) error {
	for i := range p.plots {
		if p.plots[i].ID != id {
			continue
		}
		current := p.plots[i].Clone()
		if err := mutator(&current); err != nil {
			return err
		}
		current.ID = id
		current.Label = p.plots[i].Label
		current.ensureAttributeMaps()
		p.plots[i] = current
		return nil
	}
	return fmt.Errorf("plot %q not found", id)
}

// AddPlotSeries appends an entity to the plot's series order. The entity
// must exist and must not already be present in the order.
func (p *Project) AddPlotSeries(plotID, entityID string) error {
	if _, ok := p.ResolveEntity(entityID); !ok {
		return ReferentialError{ID: entityID}
	}
	for i := range p.plots {
		if p.plots[i].ID != plotID {
			continue
		}
		for _, existing := range p.plots[i].SeriesOrder {
			if existing == entityID {
				return fmt.Errorf("entity %q already plotted", entityID)
			}
		}
		p.plots[i].SeriesOrder = append(p.plots[i].SeriesOrder, entityID)
		return nil
	}
	return fmt.Errorf("plot %q not found", plotID)
}

// RemovePlotSeries drops an entity from the plot's series order. Display
// attributes for the entity are kept until the next populate refresh.
func (p *Project) RemovePlotSeries(plotID, entityID string) error {
	for i := range p.plots {
		if p.plots[i].ID != plotID {
			continue
		}
		for j, existing := range p.plots[i].SeriesOrder {
			if existing == entityID {
				p.plots[i].SeriesOrder = append(p.plots[i].SeriesOrder[:j], p.plots[i].SeriesOrder[j+1:]...)
				return nil
			}
		}
		return fmt.Errorf("entity %q not plotted", entityID)
	}
	return fmt.Errorf("plot %q not found", plotID)
}

// ReorderPlotSeries replaces the plot's series order with the provided
// permutation of the current order.
func (p *Project) ReorderPlotSeries(plotID string, order []string) error {
	for i := range p.plots {
		if p.plots[i].ID != plotID {
			continue
		}
		if len(order) != len(p.plots[i].SeriesOrder) {
			return fmt.Errorf("order has %d entries, plot has %d", len(order), len(p.plots[i].SeriesOrder))
		}
		current := make(map[string]bool, len(p.plots[i].SeriesOrder))
		for _, entityID := range p.plots[i].SeriesOrder {
			current[entityID] = true
		}
		for _, entityID := range order {
			if !current[entityID] {
				return fmt.Errorf("entity %q not plotted", entityID)
			}
			delete(current, entityID)
		}
		p.plots[i].SeriesOrder = append([]string(nil), order...)
		return nil
	}
	return fmt.Errorf("plot %q not found", plotID)
}

// RefreshPlot performs the populate refresh for one plot: dangling series
// identifiers are silently dropped and display-attribute entries whose
// entity no longer exists are garbage-collected. The refreshed configuration
// is returned.
func (p *Project) RefreshPlot(id string) (PlotSettings, error) {
	for i := range p.plots {
		if p.plots[i].ID != id {
			continue
		}
		pl := &p.plots[i]
		kept := pl.SeriesOrder[:0]
		for _, entityID := range pl.SeriesOrder {
			if _, ok := p.ResolveEntity(entityID); ok {
				kept = append(kept, entityID)
			}
		}
		pl.SeriesOrder = kept
		for entityID := range pl.Labels {
			if _, ok := p.ResolveEntity(entityID); !ok {
				delete(pl.Labels, entityID)
			}
		}
		for entityID := range pl.Colors {
			if _, ok := p.ResolveEntity(entityID); !ok {
				delete(pl.Colors, entityID)
			}
		}
		for entityID := range pl.Markers {
			if _, ok := p.ResolveEntity(entityID); !ok {
				delete(pl.Markers, entityID)
			}
		}
		for entityID := range pl.ShowLines {
			if _, ok := p.ResolveEntity(entityID); !ok {
				delete(pl.ShowLines, entityID)
			}
		}
		return pl.Clone(), nil
	}
	return PlotSettings{}, fmt.Errorf("plot %q not found", id)
}

// AllEntityIDs collects every identifier across all entity categories:
// project, data sets, results of every kind, simulations, and plots.
func (p *Project) AllEntityIDs() []string {
	out := []string{p.id}
	for _, d := range p.dataSets {
		out = append(out, d.ID)
	}
	for _, list := range p.tests {
		for _, r := range list {
			out = append(out, r.ID)
		}
	}
	for _, list := range p.zhits {
		for _, r := range list {
			out = append(out, r.ID)
		}
	}
	for _, list := range p.drts {
		for _, r := range list {
			out = append(out, r.ID)
		}
	}
	for _, list := range p.fits {
		for _, r := range list {
			out = append(out, r.ID)
		}
	}
	for _, s := range p.simulations {
		out = append(out, s.ID)
	}
	for _, pl := range p.plots {
		out = append(out, pl.ID)
	}
	return out
}
