package covid_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/covid19-stats/internal/covid"
	"github.com/i474232898/covid19-stats/internal/covid/covidtest"
	"github.com/i474232898/covid19-stats/internal/store"
)

func readyService(t *testing.T, builtAt time.Time) (*covid.Service, *store.SnapshotStore) {
	t.Helper()

	snap, err := covidtest.Snapshot(builtAt)
	require.NoError(t, err)

	memStore := store.NewSnapshotStore()
	memStore.Publish(snap)
	return covid.NewService(memStore), memStore
}

func TestServiceNotReady(t *testing.T) {
	svc := covid.NewService(store.NewSnapshotStore())

	_, err := svc.Current()
	assert.ErrorIs(t, err, store.ErrNotReady)
	_, err = svc.Total()
	assert.ErrorIs(t, err, store.ErrNotReady)
	_, _, err = svc.Country("china")
	assert.ErrorIs(t, err, store.ErrNotReady)
	_, err = svc.GlobalTimeSeries()
	assert.ErrorIs(t, err, store.ErrNotReady)
	_, _, err = svc.USTimeSeries("", covid.MetricConfirmed)
	assert.ErrorIs(t, err, store.ErrNotReady)
}

func TestServiceResultsCarryBuildTime(t *testing.T) {
	builtAt := time.Date(2020, 3, 24, 12, 30, 0, 0, time.UTC)
	svc, _ := readyService(t, builtAt)

	res, err := svc.Total()
	require.NoError(t, err)
	assert.Equal(t, "2020-03-24T12:30:00Z", res.DT)
	assert.Equal(t, builtAt.Unix(), res.TS)

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, covid.ComputeTotals(current.Data), res.Data)
}

func TestServiceReadsOneSnapshotPerCall(t *testing.T) {
	first := time.Date(2020, 3, 24, 0, 0, 0, 0, time.UTC)
	svc, memStore := readyService(t, first)

	before, err := svc.Total()
	require.NoError(t, err)

	second := first.Add(time.Hour)
	snap, err := covidtest.Snapshot(second)
	require.NoError(t, err)
	memStore.Publish(snap)

	after, err := svc.Total()
	require.NoError(t, err)
	assert.Equal(t, first.Unix(), before.TS)
	assert.Equal(t, second.Unix(), after.TS)
	assert.Equal(t, before.Data, after.Data)
}

func TestServiceMetricTotal(t *testing.T) {
	svc, _ := readyService(t, time.Now())

	total, err := svc.Total()
	require.NoError(t, err)

	for _, m := range []covid.Metric{covid.MetricConfirmed, covid.MetricDeaths, covid.MetricRecovered, covid.MetricActive} {
		res, err := svc.MetricTotal(m)
		require.NoError(t, err)
		assert.Equal(t, total.Data.Value(m), res.Data, m)
	}

	for _, raw := range []string{"Confirmed", " deaths", "ACTIVE "} {
		t.Run(raw, func(t *testing.T) {
			m, err := covid.ParseMetric(raw)
			require.NoError(t, err)

			res, err := svc.MetricTotal(covid.Metric(raw))
			require.NoError(t, err)
			assert.Equal(t, total.Data.Value(m), res.Data)
			assert.NotZero(t, res.Data)
		})
	}

	_, err = svc.MetricTotal("hospitalized")
	assert.ErrorIs(t, err, covid.ErrUnsupportedMetric)
}

func TestServiceCountry(t *testing.T) {
	svc, _ := readyService(t, time.Now())

	res, found, err := svc.Country(" korea,   SOUTH ")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Korea, South", res.Data.Location)
	assert.Equal(t, "KR", res.Data.ISO2)

	res, found, err = svc.Country("us")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(500), res.Data.Confirmed)

	_, found, err = svc.Country("nonexistent-xyz")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestServiceTimeSeries(t *testing.T) {
	svc, _ := readyService(t, time.Now())

	global, err := svc.GlobalTimeSeries()
	require.NoError(t, err)
	require.Len(t, global.Data, 2)
	assert.Equal(t, int64(82391), global.Data[1].Confirmed)
	require.NotNil(t, global.Data[1].Recovered)

	deaths, err := svc.MetricTimeSeries(covid.MetricDeaths)
	require.NoError(t, err)
	require.NotEmpty(t, deaths.Data)
	assert.Equal(t, "China", deaths.Data[0].Country)
	assert.Equal(t, int64(3281), deaths.Data[0].Points[1].Value)

	_, err = svc.MetricTimeSeries(covid.MetricActive)
	assert.ErrorIs(t, err, covid.ErrUnsupportedMetric)
}

func TestServiceMetricTimeSeriesWithoutTable(t *testing.T) {
	data := covidtest.Dataset()
	data.GlobalRecovered = nil
	snap, err := covid.BuildSnapshot(data, covid.DefaultISOTable(), time.Now(), nil, nil)
	require.NoError(t, err)

	memStore := store.NewSnapshotStore()
	memStore.Publish(snap)
	svc := covid.NewService(memStore)

	res, err := svc.MetricTimeSeries(covid.MetricRecovered)
	require.NoError(t, err)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
}

func TestServiceUSTimeSeries(t *testing.T) {
	svc, _ := readyService(t, time.Now())

	all, found, err := svc.USTimeSeries("", covid.MetricConfirmed)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, all.Data, 2)

	ny, found, err := svc.USTimeSeries("NEW YORK", covid.MetricDeaths)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, ny.Data, 1)
	assert.Equal(t, int64(17), ny.Data[0].Points[1].Value)
	assert.Equal(t, int64(1628706), ny.Data[0].Counties[0].Info.Population)

	_, found, err = svc.USTimeSeries("Atlantis", covid.MetricConfirmed)
	require.NoError(t, err)
	assert.False(t, found)

	recovered, found, err := svc.USTimeSeries("", covid.MetricRecovered)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, recovered.Data)
}

func TestServiceUSRecoveredUnknownState(t *testing.T) {
	svc, _ := readyService(t, time.Now())

	res, found, err := svc.USTimeSeries("new york", covid.MetricRecovered)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, res.Data)

	for _, m := range covid.SeriesMetrics {
		_, found, err := svc.USTimeSeries("Atlantis", m)
		require.NoError(t, err)
		assert.False(t, found, m)
	}
}
