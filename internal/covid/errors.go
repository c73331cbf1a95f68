package covid

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoCountries is returned when a build produced no country records.
	ErrNoCountries = errors.New("no countries produced")

	// ErrCycleInProgress is returned when a refresh is triggered while another one runs.
	ErrCycleInProgress = errors.New("refresh cycle already in progress")

	// ErrUnsupportedMetric is returned for a metric the operation does not serve.
	ErrUnsupportedMetric = errors.New("unsupported metric")
)

// MalformedRowError describes an upstream row that was skipped.
type MalformedRowError struct {
	Table  string `json:"table"`
	Row    int    `json:"row"` // 1-based, header excluded
	Reason string `json:"reason"`
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row %d in %s: %s", e.Row, e.Table, e.Reason)
}

// SchemaError reports a raw table whose header cannot be interpreted.
type SchemaError struct {
	Table  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid schema for %s: %s", e.Table, e.Reason)
}

// IndexCollisionError reports two country records normalizing to the same key.
type IndexCollisionError struct {
	Family   KeyKind
	Key      string
	Existing string
	Incoming string
}

func (e *IndexCollisionError) Error() string {
	return fmt.Sprintf("index collision on %s key %q: %q and %q", e.Family, e.Key, e.Existing, e.Incoming)
}

// FetchError wraps a failure of the raw data fetch.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchTimeoutError is returned when the fetch did not finish within its time box.
type FetchTimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *FetchTimeoutError) Error() string {
	return fmt.Sprintf("fetch timed out after %s: %v", e.Timeout, e.Err)
}

func (e *FetchTimeoutError) Unwrap() error {
	return e.Err
}
