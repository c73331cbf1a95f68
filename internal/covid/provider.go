package covid

import "context"

// Upstream table names, used in reports and by the providers.
const (
	TableGlobalConfirmed = "global_confirmed"
	TableGlobalDeaths    = "global_deaths"
	TableGlobalRecovered = "global_recovered"
	TableUSConfirmed     = "us_confirmed"
	TableUSDeaths        = "us_deaths"
)

// RawTable is one upstream CSV: a header row followed by data rows.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// RawDataset bundles the upstream tables of one fetch. GlobalConfirmed is
// required; the other tables may be nil.
type RawDataset struct {
	GlobalConfirmed *RawTable
	GlobalDeaths    *RawTable
	GlobalRecovered *RawTable
	USConfirmed     *RawTable
	USDeaths        *RawTable
}

// Fetcher abstracts the upstream data source (JHU CSSE over HTTP, a local directory).
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (RawDataset, error)
}

// SnapshotStore holds the published snapshot. Current returns an error until
// the first snapshot is published.
type SnapshotStore interface {
	Publish(snapshot *Snapshot)
	Current() (*Snapshot, error)
}
