// Package covidtest provides upstream fixtures and fake fetchers for tests.
package covidtest

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/i474232898/covid19-stats/internal/covid"
)

// Dates covered by the fixture tables.
var Dates = []string{"1/22/20", "1/23/20"}

var globalHeader = []string{"Province/State", "Country/Region", "Lat", "Long", "1/22/20", "1/23/20"}

// GlobalConfirmed returns a small global confirmed table. China is split in
// two provinces totalling 81591 at the latest date.
func GlobalConfirmed() *covid.RawTable {
	return &covid.RawTable{
		Header: clone(globalHeader),
		Rows: [][]string{
			{"Hubei", "China", "30.9756", "112.2707", "444", "67800"},
			{"Beijing", "China", "40.1824", "116.4142", "14", "13791"},
			{"", "United Kingdom", "55.3781", "-3.436", "0", "100"},
			{"", "Korea, South", "35.907757", "127.766922", "1", "200"},
			{"", "US", "40", "-100", "1", "500"},
		},
	}
}

// GlobalDeaths returns the deaths table matching GlobalConfirmed.
func GlobalDeaths() *covid.RawTable {
	return &covid.RawTable{
		Header: clone(globalHeader),
		Rows: [][]string{
			{"Hubei", "China", "30.9756", "112.2707", "17", "3213"},
			{"Beijing", "China", "40.1824", "116.4142", "0", "68"},
			{"", "United Kingdom", "55.3781", "-3.436", "0", "10"},
			{"", "Korea, South", "35.907757", "127.766922", "0", "3"},
			{"", "US", "40", "-100", "0", "20"},
		},
	}
}

// GlobalRecovered returns the recovered table matching GlobalConfirmed.
func GlobalRecovered() *covid.RawTable {
	return &covid.RawTable{
		Header: clone(globalHeader),
		Rows: [][]string{
			{"Hubei", "China", "30.9756", "112.2707", "28", "63000"},
			{"Beijing", "China", "40.1824", "116.4142", "0", "10280"},
			{"", "United Kingdom", "55.3781", "-3.436", "0", "5"},
			{"", "Korea, South", "35.907757", "127.766922", "0", "20"},
			{"", "US", "40", "-100", "0", "0"},
		},
	}
}

// USConfirmed returns a US per-county table with two states.
func USConfirmed() *covid.RawTable {
	return &covid.RawTable{
		Header: []string{"UID", "iso2", "iso3", "code3", "FIPS", "Admin2", "Province_State", "Country_Region", "Lat", "Long_", "Combined_Key", "1/22/20", "1/23/20"},
		Rows: [][]string{
			{"84036061", "US", "USA", "840", "36061.0", "New York", "New York", "US", "40.7672", "-73.9715", "New York, New York, US", "1", "300"},
			{"84036059", "US", "USA", "840", "36059.0", "Nassau", "New York", "US", "40.7409", "-73.5894", "Nassau, New York, US", "0", "150"},
			{"84053033", "US", "USA", "840", "53033.0", "King", "Washington", "US", "47.4913", "-121.8346", "King, Washington, US", "1", "50"},
		},
	}
}

// USDeaths returns the US deaths table matching USConfirmed.
func USDeaths() *covid.RawTable {
	return &covid.RawTable{
		Header: []string{"UID", "iso2", "iso3", "code3", "FIPS", "Admin2", "Province_State", "Country_Region", "Lat", "Long_", "Combined_Key", "Population", "1/22/20", "1/23/20"},
		Rows: [][]string{
			{"84036061", "US", "USA", "840", "36061.0", "New York", "New York", "US", "40.7672", "-73.9715", "New York, New York, US", "1628706", "0", "12"},
			{"84036059", "US", "USA", "840", "36059.0", "Nassau", "New York", "US", "40.7409", "-73.5894", "Nassau, New York, US", "1356924", "0", "5"},
			{"84053033", "US", "USA", "840", "53033.0", "King", "Washington", "US", "47.4913", "-121.8346", "King, Washington, US", "2252782", "0", "3"},
		},
	}
}

// Dataset returns a fresh copy of every fixture table.
func Dataset() covid.RawDataset {
	return covid.RawDataset{
		GlobalConfirmed: GlobalConfirmed(),
		GlobalDeaths:    GlobalDeaths(),
		GlobalRecovered: GlobalRecovered(),
		USConfirmed:     USConfirmed(),
		USDeaths:        USDeaths(),
	}
}

// Snapshot builds a snapshot from Dataset.
func Snapshot(builtAt time.Time) (*covid.Snapshot, error) {
	return covid.BuildSnapshot(Dataset(), covid.DefaultISOTable(), builtAt, nil, nil)
}

// StaticFetcher returns a fixed dataset or error. Delay, when set, blocks
// Fetch for that long or until the context ends; IgnoreContext makes it
// sleep through cancellation.
type StaticFetcher struct {
	Data          covid.RawDataset
	Err           error
	Delay         time.Duration
	IgnoreContext bool

	calls atomic.Int64
}

func (f *StaticFetcher) Name() string { return "static" }

func (f *StaticFetcher) Fetch(ctx context.Context) (covid.RawDataset, error) {
	f.calls.Inc()
	if f.Delay > 0 {
		if f.IgnoreContext {
			time.Sleep(f.Delay)
		} else {
			select {
			case <-time.After(f.Delay):
			case <-ctx.Done():
				return covid.RawDataset{}, ctx.Err()
			}
		}
	}
	if f.Err != nil {
		return covid.RawDataset{}, f.Err
	}
	return f.Data, nil
}

// Calls returns how many times Fetch was invoked.
func (f *StaticFetcher) Calls() int64 {
	return f.calls.Load()
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
