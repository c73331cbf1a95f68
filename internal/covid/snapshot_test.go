package covid

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSnapshotStages(t *testing.T) {
	raw := RawDataset{
		GlobalConfirmed: &RawTable{
			Header: testGlobalHeader,
			Rows: [][]string{
				{"", "Italy", "41.8", "12.5", "1", "5"},
				{"", "Broken", "x", "0", "1", "1"},
			},
		},
	}
	report := &BuildReport{CycleID: "cycle-1"}
	var stages []CycleState
	builtAt := time.Date(2020, 1, 24, 0, 0, 0, 0, time.UTC)

	snap, err := BuildSnapshot(raw, DefaultISOTable(), builtAt, report, func(s CycleState) {
		stages = append(stages, s)
	})
	require.NoError(t, err)

	assert.Equal(t, []CycleState{StateNormalizing, StateAggregating, StateIndexing, StateAssembling}, stages)
	assert.Equal(t, "cycle-1", snap.CycleID())
	assert.Equal(t, builtAt, snap.BuiltAt())
	assert.Equal(t, "1/23/20", snap.LatestDate())
	assert.Len(t, report.Skipped, 1)

	rec, ok := snap.Resolve("IT")
	require.True(t, ok)
	assert.Equal(t, int64(5), rec.Confirmed)

	_, ok = snap.CountrySeries(MetricDeaths)
	assert.False(t, ok)
	assert.Empty(t, snap.USSeries(MetricConfirmed))

	// Countries hands out a copy.
	list := snap.Countries()
	list[0].Confirmed = 0
	assert.Equal(t, int64(5), snap.Countries()[0].Confirmed)
}

func TestBuildSnapshotFailures(t *testing.T) {
	tests := []struct {
		name  string
		raw   RawDataset
		check func(t *testing.T, err error)
	}{
		{
			name: "missing confirmed table",
			raw:  RawDataset{},
			check: func(t *testing.T, err error) {
				var schemaErr *SchemaError
				assert.True(t, errors.As(err, &schemaErr))
			},
		},
		{
			name: "every row malformed",
			raw: RawDataset{GlobalConfirmed: &RawTable{
				Header: testGlobalHeader,
				Rows:   [][]string{{"", "", "0", "0", "1", "1"}},
			}},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoCountries)
			},
		},
		{
			name: "colliding country names",
			raw: RawDataset{GlobalConfirmed: &RawTable{
				Header: testGlobalHeader,
				Rows: [][]string{
					{"", "Korea, South", "0", "0", "1", "1"},
					{"", "korea,  south", "0", "0", "1", "2"},
				},
			}},
			check: func(t *testing.T, err error) {
				var collision *IndexCollisionError
				assert.True(t, errors.As(err, &collision))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := BuildSnapshot(tt.raw, DefaultISOTable(), time.Now(), nil, nil)
			assert.Nil(t, snap)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestDefaultISOTable(t *testing.T) {
	iso := DefaultISOTable()

	tests := map[string]string{
		"Korea, South":   "KR",
		"taiwan*":        "TW",
		"US":             "US",
		"United Kingdom": "GB",
		"Burma":          "MM",
	}
	for name, want := range tests {
		got, ok := iso.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got)
	}

	_, ok := iso.Lookup("Diamond Princess")
	assert.False(t, ok)

	seen := make(map[string]bool)
	for _, code := range iso.codes {
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
