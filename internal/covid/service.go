package covid

import "fmt"

// Service answers queries against the currently published snapshot. Every
// operation reads the store once, so one call never mixes two snapshots.
type Service struct {
	store SnapshotStore
}

// NewService creates a new Service.
func NewService(store SnapshotStore) *Service {
	return &Service{store: store}
}

// Current lists every country record, most confirmed first.
func (s *Service) Current() (Result[[]CountryRecord], error) {
	snap, err := s.store.Current()
	if err != nil {
		return Result[[]CountryRecord]{}, err
	}
	return newResult(snap.Countries(), snap.BuiltAt()), nil
}

// Total returns the worldwide totals.
func (s *Service) Total() (Result[GlobalTotals], error) {
	snap, err := s.store.Current()
	if err != nil {
		return Result[GlobalTotals]{}, err
	}
	return newResult(snap.Totals(), snap.BuiltAt()), nil
}

// MetricTotal returns the worldwide total of a single metric.
func (s *Service) MetricTotal(m Metric) (Result[int64], error) {
	m, err := ParseMetric(string(m))
	if err != nil {
		return Result[int64]{}, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return Result[int64]{}, err
	}
	return newResult(snap.Totals().Value(m), snap.BuiltAt()), nil
}

// Country resolves a country by name or ISO alpha-2 code. found is false when
// nothing matches; that is not an error.
func (s *Service) Country(key string) (res Result[CountryRecord], found bool, err error) {
	snap, err := s.store.Current()
	if err != nil {
		return Result[CountryRecord]{}, false, err
	}
	rec, found := snap.Resolve(key)
	return newResult(rec, snap.BuiltAt()), found, nil
}

// GlobalTimeSeries returns the worldwide per-date totals.
func (s *Service) GlobalTimeSeries() (Result[[]GlobalPoint], error) {
	snap, err := s.store.Current()
	if err != nil {
		return Result[[]GlobalPoint]{}, err
	}
	return newResult(snap.GlobalSeries(), snap.BuiltAt()), nil
}

// MetricTimeSeries returns every country's series for one of confirmed,
// deaths or recovered. A metric whose upstream table was not fetched yields
// an empty list.
func (s *Service) MetricTimeSeries(m Metric) (Result[[]CountrySeries], error) {
	m = normalizeMetric(m)
	if !isSeriesMetric(m) {
		return Result[[]CountrySeries]{}, fmt.Errorf("%w: no time series for %q", ErrUnsupportedMetric, m)
	}
	snap, err := s.store.Current()
	if err != nil {
		return Result[[]CountrySeries]{}, err
	}
	series, _ := snap.CountrySeries(m)
	if series == nil {
		series = []CountrySeries{}
	}
	return newResult(series, snap.BuiltAt()), nil
}

// USTimeSeries returns US state series for m. With an empty state every state
// is returned; otherwise only the named one, and found reports whether it
// exists. Upstream publishes no US recovered series, so that metric yields an
// empty list.
func (s *Service) USTimeSeries(state string, m Metric) (res Result[[]StateSeries], found bool, err error) {
	m = normalizeMetric(m)
	if !isSeriesMetric(m) {
		return Result[[]StateSeries]{}, false, fmt.Errorf("%w: no US time series for %q", ErrUnsupportedMetric, m)
	}
	snap, err := s.store.Current()
	if err != nil {
		return Result[[]StateSeries]{}, false, err
	}

	if m == MetricRecovered {
		found := state == "" || snap.HasUSState(state)
		return newResult([]StateSeries{}, snap.BuiltAt()), found, nil
	}
	if state == "" {
		series := snap.USSeries(m)
		if series == nil {
			series = []StateSeries{}
		}
		return newResult(series, snap.BuiltAt()), true, nil
	}

	one, found := snap.USState(state, m)
	if !found {
		return newResult([]StateSeries{}, snap.BuiltAt()), false, nil
	}
	return newResult([]StateSeries{one}, snap.BuiltAt()), true, nil
}

func normalizeMetric(m Metric) Metric {
	if parsed, err := ParseMetric(string(m)); err == nil {
		return parsed
	}
	return m
}

func isSeriesMetric(m Metric) bool {
	for _, sm := range SeriesMetrics {
		if m == sm {
			return true
		}
	}
	return false
}
