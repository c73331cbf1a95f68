package covid

import (
	"fmt"
	"strings"
	"time"
)

// Metric identifies one of the published case counts.
type Metric string

const (
	MetricConfirmed Metric = "confirmed"
	MetricDeaths    Metric = "deaths"
	MetricRecovered Metric = "recovered"
	MetricActive    Metric = "active"
)

// SeriesMetrics are the metrics upstream publishes as time series.
var SeriesMetrics = []Metric{MetricConfirmed, MetricDeaths, MetricRecovered}

// USMetrics are the metrics available in the US per-county tables.
var USMetrics = []Metric{MetricConfirmed, MetricDeaths}

// ParseMetric converts a case-insensitive metric name.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MetricConfirmed, MetricDeaths, MetricRecovered, MetricActive:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMetric, s)
}

// CountryRecord is the current cumulative picture for one country.
type CountryRecord struct {
	Location  string `json:"location"`
	ISO2      string `json:"isoAlpha2,omitempty"`
	Confirmed int64  `json:"confirmed"`
	Deaths    int64  `json:"deaths"`
	Recovered int64  `json:"recovered"`
	Active    int64  `json:"active"`
}

// Value returns the count for m, or zero for an unknown metric.
func (r CountryRecord) Value(m Metric) int64 {
	switch m {
	case MetricConfirmed:
		return r.Confirmed
	case MetricDeaths:
		return r.Deaths
	case MetricRecovered:
		return r.Recovered
	case MetricActive:
		return r.Active
	}
	return 0
}

// GlobalTotals is the field-wise sum over every CountryRecord of a snapshot.
type GlobalTotals struct {
	Confirmed int64 `json:"confirmed"`
	Deaths    int64 `json:"deaths"`
	Recovered int64 `json:"recovered"`
	Active    int64 `json:"active"`
}

// Value returns the total for m, or zero for an unknown metric.
func (t GlobalTotals) Value(m Metric) int64 {
	switch m {
	case MetricConfirmed:
		return t.Confirmed
	case MetricDeaths:
		return t.Deaths
	case MetricRecovered:
		return t.Recovered
	case MetricActive:
		return t.Active
	}
	return 0
}

// TimeSeriesPoint is a cumulative count on one upstream date. Date is the
// upstream header token, kept verbatim (e.g. "1/22/20").
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// Coordinates of a region as published upstream.
type Coordinates struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// USInfo carries the identity columns of a US county row.
type USInfo struct {
	UID         int64  `json:"uid"`
	ISO2        string `json:"iso2"`
	ISO3        string `json:"iso3"`
	Code3       int64  `json:"code3"`
	FIPS        int64  `json:"fips,omitempty"`
	Admin2      string `json:"admin2,omitempty"`
	CombinedKey string `json:"combinedKey,omitempty"`
	Population  int64  `json:"population,omitempty"`
}

// Region identifies the source row of a series.
type Region struct {
	Country     string      `json:"country"`
	Province    string      `json:"province,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}

// RegionSeries is one normalized upstream row: a region, a metric and its
// date-ordered points. US is set only for rows of the US tables.
type RegionSeries struct {
	Metric Metric            `json:"-"`
	Region Region            `json:"region"`
	US     *USInfo           `json:"info,omitempty"`
	Points []TimeSeriesPoint `json:"timeSeries"`
}

// Latest returns the value at the last date of the series.
func (s RegionSeries) Latest() int64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Value
}

// GlobalPoint holds worldwide totals on one date. Recovered is nil when the
// upstream recovered table was not available.
type GlobalPoint struct {
	Date      string `json:"date"`
	Confirmed int64  `json:"confirmed"`
	Deaths    int64  `json:"deaths"`
	Recovered *int64 `json:"recovered,omitempty"`
}

// CountrySeries is the per-date sum of one metric for a country, along with
// the subdivision rows it was built from.
type CountrySeries struct {
	Country string            `json:"country"`
	ISO2    string            `json:"isoAlpha2,omitempty"`
	Points  []TimeSeriesPoint `json:"timeSeries"`
	Regions []RegionSeries    `json:"regions,omitempty"`
}

// CountySeries is one US county row.
type CountySeries struct {
	Info        USInfo            `json:"info"`
	Coordinates Coordinates       `json:"coordinates"`
	Points      []TimeSeriesPoint `json:"timeSeries"`
}

// StateSeries is the per-date sum of one metric for a US state or territory.
type StateSeries struct {
	State    string            `json:"state"`
	Country  string            `json:"country"`
	ISO2     string            `json:"iso2"`
	ISO3     string            `json:"iso3"`
	Code3    int64             `json:"code3"`
	Points   []TimeSeriesPoint `json:"timeSeries"`
	Counties []CountySeries    `json:"counties"`
}

// Result pairs query data with the build time of the snapshot that served it.
type Result[T any] struct {
	Data T      `json:"data"`
	DT   string `json:"dt"`
	TS   int64  `json:"ts"`
}

func newResult[T any](data T, builtAt time.Time) Result[T] {
	return Result[T]{
		Data: data,
		DT:   builtAt.UTC().Format(time.RFC3339),
		TS:   builtAt.Unix(),
	}
}
