package covid

import (
	"time"

	"github.com/i474232898/covid19-stats/internal/common"
)

// Snapshot is an immutable bundle of everything derived from one ingestion
// pass. Slices returned by its accessors are shared and must not be modified.
type Snapshot struct {
	cycleID    string
	builtAt    time.Time
	latestDate string

	countries []CountryRecord
	totals    GlobalTotals
	index     *CountryIndex

	global   []GlobalPoint
	byMetric map[Metric][]CountrySeries
	us       map[Metric][]StateSeries
	usStates map[Metric]map[string]int
}

// BuildSnapshot runs normalization, aggregation, indexing and assembly over
// raw. Row-level problems are recorded in report; any other failure discards
// the whole build. stage, when set, is called as each step begins.
func BuildSnapshot(raw RawDataset, iso ISOTable, builtAt time.Time, report *BuildReport, stage func(CycleState)) (*Snapshot, error) {
	enter := func(s CycleState) {
		if stage != nil {
			stage(s)
		}
	}

	enter(StateNormalizing)
	global, err := normalizeGlobalTables(raw, report)
	if err != nil {
		return nil, err
	}
	us, err := normalizeUSTables(raw, report)
	if err != nil {
		return nil, err
	}

	enter(StateAggregating)
	confirmed := global[MetricConfirmed]
	countries := AggregateCountries(confirmed, global[MetricDeaths], global[MetricRecovered], iso)
	if len(countries) == 0 {
		return nil, ErrNoCountries
	}
	totals := ComputeTotals(countries)

	enter(StateIndexing)
	index, err := BuildIndex(countries)
	if err != nil {
		return nil, err
	}

	enter(StateAssembling)
	snap := &Snapshot{
		cycleID:    report.cycleID(),
		builtAt:    builtAt,
		latestDate: confirmed.LatestDate(),
		countries:  countries,
		totals:     totals,
		index:      index,
		global:     AssembleGlobal(confirmed, global[MetricDeaths], global[MetricRecovered]),
		byMetric:   make(map[Metric][]CountrySeries, len(SeriesMetrics)),
		us:         make(map[Metric][]StateSeries, len(USMetrics)),
		usStates:   make(map[Metric]map[string]int, len(USMetrics)),
	}
	for _, m := range SeriesMetrics {
		if t := global[m]; t != nil {
			snap.byMetric[m] = AssembleCountrySeries(t, iso)
		}
	}
	for _, m := range USMetrics {
		states := AssembleUSSeries(us[m])
		lookup := make(map[string]int, len(states))
		for i, s := range states {
			lookup[common.FoldKey(s.State)] = i
		}
		snap.us[m] = states
		snap.usStates[m] = lookup
	}
	return snap, nil
}

func normalizeGlobalTables(raw RawDataset, report *BuildReport) (map[Metric]*MetricTable, error) {
	if raw.GlobalConfirmed == nil {
		return nil, &SchemaError{Table: TableGlobalConfirmed, Reason: "table missing"}
	}
	sources := []struct {
		name   string
		metric Metric
		table  *RawTable
	}{
		{TableGlobalConfirmed, MetricConfirmed, raw.GlobalConfirmed},
		{TableGlobalDeaths, MetricDeaths, raw.GlobalDeaths},
		{TableGlobalRecovered, MetricRecovered, raw.GlobalRecovered},
	}

	tables := make(map[Metric]*MetricTable, len(sources))
	for _, src := range sources {
		if src.table == nil {
			continue
		}
		t, err := NormalizeGlobal(src.name, src.metric, src.table, report)
		if err != nil {
			return nil, err
		}
		tables[src.metric] = t
	}
	return tables, nil
}

func normalizeUSTables(raw RawDataset, report *BuildReport) (map[Metric]*MetricTable, error) {
	sources := []struct {
		name   string
		metric Metric
		table  *RawTable
	}{
		{TableUSConfirmed, MetricConfirmed, raw.USConfirmed},
		{TableUSDeaths, MetricDeaths, raw.USDeaths},
	}

	tables := make(map[Metric]*MetricTable, len(sources))
	for _, src := range sources {
		if src.table == nil {
			continue
		}
		t, err := NormalizeUS(src.name, src.metric, src.table, report)
		if err != nil {
			return nil, err
		}
		tables[src.metric] = t
	}
	return tables, nil
}

// CycleID identifies the refresh cycle that built the snapshot.
func (s *Snapshot) CycleID() string { return s.cycleID }

// BuiltAt is when the snapshot was built.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// LatestDate is the last upstream date token covered by the data.
func (s *Snapshot) LatestDate() string { return s.latestDate }

// Countries returns a copy of the country records, most confirmed first.
func (s *Snapshot) Countries() []CountryRecord {
	out := make([]CountryRecord, len(s.countries))
	copy(out, s.countries)
	return out
}

// Totals returns the worldwide totals.
func (s *Snapshot) Totals() GlobalTotals { return s.totals }

// Resolve looks a country up by name or alpha-2 code.
func (s *Snapshot) Resolve(key string) (CountryRecord, bool) {
	return s.index.Resolve(key)
}

// GlobalSeries returns the worldwide per-date series.
func (s *Snapshot) GlobalSeries() []GlobalPoint { return s.global }

// CountrySeries returns the per-country series of m. ok is false when the
// metric has no upstream table in this snapshot.
func (s *Snapshot) CountrySeries(m Metric) ([]CountrySeries, bool) {
	series, ok := s.byMetric[m]
	return series, ok
}

// USSeries returns every state series of m.
func (s *Snapshot) USSeries(m Metric) []StateSeries { return s.us[m] }

// USState returns one state's series of m; state matching ignores case and
// extra whitespace.
func (s *Snapshot) USState(state string, m Metric) (StateSeries, bool) {
	i, ok := s.usStates[m][common.FoldKey(state)]
	if !ok {
		return StateSeries{}, false
	}
	return s.us[m][i], true
}

// HasUSState reports whether any US table carries state.
func (s *Snapshot) HasUSState(state string) bool {
	key := common.FoldKey(state)
	for _, m := range USMetrics {
		if _, ok := s.usStates[m][key]; ok {
			return true
		}
	}
	return false
}
