package covid

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/i474232898/covid19-stats/internal/common"
)

// Identity columns of the upstream schemas. Every other header cell is a date.
const (
	colProvinceState = "Province/State"
	colCountryRegion = "Country/Region"
	colLat           = "Lat"
	colLong          = "Long"

	colUID         = "UID"
	colISO2        = "iso2"
	colISO3        = "iso3"
	colCode3       = "code3"
	colFIPS        = "FIPS"
	colAdmin2      = "Admin2"
	colUSState     = "Province_State"
	colUSCountry   = "Country_Region"
	colUSLong      = "Long_"
	colCombinedKey = "Combined_Key"
	colPopulation  = "Population"
)

var globalIdentity = map[string]bool{
	colProvinceState: true,
	colCountryRegion: true,
	colLat:           true,
	colLong:          true,
}

var usIdentity = map[string]bool{
	colUID:         true,
	colISO2:        true,
	colISO3:        true,
	colCode3:       true,
	colFIPS:        true,
	colAdmin2:      true,
	colUSState:     true,
	colUSCountry:   true,
	colLat:         true,
	colUSLong:      true,
	colCombinedKey: true,
	colPopulation:  true,
}

// maxExactFloat is the largest integer a float64 represents exactly.
const maxExactFloat = 1 << 53

// MetricTable is the normalized form of one upstream table.
type MetricTable struct {
	Name   string
	Metric Metric
	Dates  []string
	Rows   []RegionSeries
}

// LatestDate returns the last date column of the table.
func (t *MetricTable) LatestDate() string {
	if t == nil || len(t.Dates) == 0 {
		return ""
	}
	return t.Dates[len(t.Dates)-1]
}

type schema struct {
	table   string
	columns map[string]int
	dates   []string
	dateCol []int
}

func readSchema(table string, header []string, identity map[string]bool, required ...string) (schema, error) {
	s := schema{table: table, columns: make(map[string]int)}
	if len(header) == 0 {
		return s, &SchemaError{Table: table, Reason: "empty header"}
	}

	seenDates := make(map[string]bool)
	for i, raw := range header {
		name := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		if identity[name] {
			s.columns[name] = i
			continue
		}
		if name == "" {
			return s, &SchemaError{Table: table, Reason: fmt.Sprintf("empty header cell at column %d", i+1)}
		}
		if seenDates[name] {
			return s, &SchemaError{Table: table, Reason: fmt.Sprintf("duplicate date column %q", name)}
		}
		seenDates[name] = true
		s.dates = append(s.dates, name)
		s.dateCol = append(s.dateCol, i)
	}

	for _, col := range required {
		if _, ok := s.columns[col]; !ok {
			return s, &SchemaError{Table: table, Reason: fmt.Sprintf("missing column %q", col)}
		}
	}
	if len(s.dates) == 0 {
		return s, &SchemaError{Table: table, Reason: "no date columns"}
	}
	return s, nil
}

func (s schema) cell(row []string, col string) string {
	i, ok := s.columns[col]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (s schema) points(row []string) ([]TimeSeriesPoint, error) {
	points := make([]TimeSeriesPoint, len(s.dates))
	for j, col := range s.dateCol {
		v, err := parseCount(row[col])
		if err != nil {
			return nil, fmt.Errorf("date %s: %w", s.dates[j], err)
		}
		points[j] = TimeSeriesPoint{Date: s.dates[j], Value: v}
	}
	return points, nil
}

// NormalizeGlobal converts a global per-metric table. Rows that cannot be
// interpreted are skipped and recorded in report.
func NormalizeGlobal(name string, metric Metric, raw *RawTable, report *BuildReport) (*MetricTable, error) {
	if raw == nil {
		return nil, &SchemaError{Table: name, Reason: "table missing"}
	}
	s, err := readSchema(name, raw.Header, globalIdentity, colCountryRegion)
	if err != nil {
		return nil, err
	}

	out := &MetricTable{Name: name, Metric: metric, Dates: s.dates}
	for i, row := range raw.Rows {
		skip := func(reason string) {
			report.skip(&MalformedRowError{Table: name, Row: i + 1, Reason: reason})
		}
		if len(row) != len(raw.Header) {
			skip(fmt.Sprintf("expected %d columns, got %d", len(raw.Header), len(row)))
			continue
		}

		country := s.cell(row, colCountryRegion)
		if country == "" {
			skip("missing country/region")
			continue
		}
		coords, err := parseCoordinates(s.cell(row, colLat), s.cell(row, colLong))
		if err != nil {
			skip(err.Error())
			continue
		}
		points, err := s.points(row)
		if err != nil {
			skip(err.Error())
			continue
		}

		out.Rows = append(out.Rows, RegionSeries{
			Metric: metric,
			Region: Region{
				Country:     country,
				Province:    common.NormalizeSpace(s.cell(row, colProvinceState)),
				Coordinates: coords,
			},
			Points: points,
		})
	}
	return out, nil
}

// NormalizeUS converts a US per-county table.
func NormalizeUS(name string, metric Metric, raw *RawTable, report *BuildReport) (*MetricTable, error) {
	if raw == nil {
		return nil, &SchemaError{Table: name, Reason: "table missing"}
	}
	s, err := readSchema(name, raw.Header, usIdentity, colUSState, colUSCountry)
	if err != nil {
		return nil, err
	}

	out := &MetricTable{Name: name, Metric: metric, Dates: s.dates}
	for i, row := range raw.Rows {
		skip := func(reason string) {
			report.skip(&MalformedRowError{Table: name, Row: i + 1, Reason: reason})
		}
		if len(row) != len(raw.Header) {
			skip(fmt.Sprintf("expected %d columns, got %d", len(raw.Header), len(row)))
			continue
		}

		state := s.cell(row, colUSState)
		if state == "" {
			skip("missing province_state")
			continue
		}
		country := s.cell(row, colUSCountry)
		if country == "" {
			skip("missing country_region")
			continue
		}

		info, err := parseUSInfo(s, row)
		if err != nil {
			skip(err.Error())
			continue
		}
		coords, err := parseCoordinates(s.cell(row, colLat), s.cell(row, colUSLong))
		if err != nil {
			skip(err.Error())
			continue
		}
		points, err := s.points(row)
		if err != nil {
			skip(err.Error())
			continue
		}

		out.Rows = append(out.Rows, RegionSeries{
			Metric: metric,
			Region: Region{
				Country:     country,
				Province:    state,
				Coordinates: coords,
			},
			US:     info,
			Points: points,
		})
	}
	return out, nil
}

func parseUSInfo(s schema, row []string) (*USInfo, error) {
	info := &USInfo{
		ISO2:        s.cell(row, colISO2),
		ISO3:        s.cell(row, colISO3),
		Admin2:      common.NormalizeSpace(s.cell(row, colAdmin2)),
		CombinedKey: s.cell(row, colCombinedKey),
	}

	ids := []struct {
		col string
		dst *int64
	}{
		{colUID, &info.UID},
		{colCode3, &info.Code3},
		{colFIPS, &info.FIPS},
		{colPopulation, &info.Population},
	}
	for _, id := range ids {
		v, err := parseOptionalInt(s.cell(row, id.col))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id.col, err)
		}
		*id.dst = v
	}
	return info, nil
}

// parseCount parses a cumulative count. Integral float notation ("555.0") is
// accepted; empty, negative and fractional values are rejected.
func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty count")
	}
	v, err := parseInteger(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative count %d", v)
	}
	return v, nil
}

// parseOptionalInt parses an identity number such as FIPS; empty means zero.
func parseOptionalInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return parseInteger(s)
}

func parseInteger(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("non-integral number %q", s)
	}
	if math.Abs(f) > maxExactFloat {
		return 0, fmt.Errorf("number %q out of exact range", s)
	}
	return int64(f), nil
}

func parseCoordinates(lat, long string) (Coordinates, error) {
	var c Coordinates
	var err error
	if lat != "" {
		if c.Lat, err = strconv.ParseFloat(lat, 64); err != nil {
			return c, fmt.Errorf("invalid latitude %q", lat)
		}
	}
	if long != "" {
		if c.Long, err = strconv.ParseFloat(long, 64); err != nil {
			return c, fmt.Errorf("invalid longitude %q", long)
		}
	}
	return c, nil
}
