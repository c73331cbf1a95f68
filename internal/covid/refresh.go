package covid

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// CycleState is a step of the refresh state machine:
// idle → fetching → normalizing → aggregating → indexing → assembling →
// publishing → idle, or any step → failed → idle.
type CycleState string

const (
	StateIdle        CycleState = "idle"
	StateFetching    CycleState = "fetching"
	StateNormalizing CycleState = "normalizing"
	StateAggregating CycleState = "aggregating"
	StateIndexing    CycleState = "indexing"
	StateAssembling  CycleState = "assembling"
	StatePublishing  CycleState = "publishing"
	StateFailed      CycleState = "failed"
)

const (
	defaultFetchTimeout = 2 * time.Minute
	defaultHistoryLimit = 20
)

// Refresher rebuilds the snapshot from upstream and publishes it. At most one
// cycle runs at a time; a trigger arriving meanwhile is dropped.
type Refresher struct {
	fetcher Fetcher
	store   SnapshotStore
	iso     ISOTable
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time

	running  *atomic.Bool
	fetching *atomic.Bool
	state    *atomic.String

	mu      sync.RWMutex
	history reportHistory
}

// RefresherOption customizes a Refresher.
type RefresherOption func(*Refresher)

// WithFetchTimeout bounds the fetch step of each cycle.
func WithFetchTimeout(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the refresher's logger.
func WithLogger(log zerolog.Logger) RefresherOption {
	return func(r *Refresher) {
		r.log = log.With().Str("component", "refresh").Logger()
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RefresherOption {
	return func(r *Refresher) {
		r.now = now
	}
}

// WithHistoryLimit sets how many cycle reports are retained.
func WithHistoryLimit(n int) RefresherOption {
	return func(r *Refresher) {
		r.history.limit = n
	}
}

// NewRefresher creates a Refresher publishing into store.
func NewRefresher(fetcher Fetcher, store SnapshotStore, iso ISOTable, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		fetcher:  fetcher,
		store:    store,
		iso:      iso,
		timeout:  defaultFetchTimeout,
		log:      zerolog.Nop(),
		now:      time.Now,
		running:  atomic.NewBool(false),
		fetching: atomic.NewBool(false),
		state:    atomic.NewString(string(StateIdle)),
		history:  reportHistory{limit: defaultHistoryLimit},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one refresh cycle. On failure the previously published
// snapshot stays in place. Returns ErrCycleInProgress without doing anything
// if a cycle is already running, or if a fetch abandoned by an earlier cycle
// has not returned yet.
func (r *Refresher) Run(ctx context.Context) (BuildReport, error) {
	if !r.running.CompareAndSwap(false, true) {
		r.log.Debug().Msg("refresh already running; trigger coalesced")
		return BuildReport{}, ErrCycleInProgress
	}
	defer r.running.Store(false)

	if r.fetching.Load() {
		r.log.Debug().Msg("abandoned fetch still running; trigger coalesced")
		return BuildReport{}, ErrCycleInProgress
	}

	report := BuildReport{
		CycleID:   uuid.NewString(),
		StartedAt: r.now().UTC(),
	}
	log := r.log.With().Str("cycle", report.CycleID).Logger()
	log.Info().Str("fetcher", r.fetcher.Name()).Msg("refresh cycle started")

	err := r.cycle(ctx, &report, log)
	report.FinishedAt = r.now().UTC()

	if n := len(report.Skipped); n > 0 {
		log.Warn().Int("skipped_rows", n).Msg("malformed upstream rows skipped")
	}

	if err != nil {
		r.transition(log, StateFailed)
		report.State = StateFailed
		report.Error = err.Error()
		log.Error().Err(err).Dur("duration", report.Duration()).Msg("refresh cycle failed; keeping previous snapshot")
	} else {
		report.State = StateIdle
		log.Info().
			Int("countries", report.Countries).
			Dur("duration", report.Duration()).
			Msg("refresh cycle published snapshot")
	}

	r.mu.Lock()
	r.history.add(report)
	r.mu.Unlock()

	r.transition(log, StateIdle)
	return report, err
}

func (r *Refresher) cycle(ctx context.Context, report *BuildReport, log zerolog.Logger) error {
	r.transition(log, StateFetching)
	raw, err := r.fetch(ctx)
	if err != nil {
		return err
	}

	snap, err := BuildSnapshot(raw, r.iso, r.now().UTC(), report, func(s CycleState) {
		r.transition(log, s)
	})
	if err != nil {
		return err
	}
	report.Countries = len(snap.countries)

	r.transition(log, StatePublishing)
	r.store.Publish(snap)
	return nil
}

type fetchResult struct {
	raw RawDataset
	err error
}

// fetch runs the fetcher under the cycle's time box. A fetcher that ignores
// its context is abandoned when the deadline passes; no new cycle starts
// until its Fetch returns, so Fetch calls never overlap.
func (r *Refresher) fetch(ctx context.Context) (RawDataset, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	r.fetching.Store(true)
	go func() {
		raw, err := r.fetcher.Fetch(fetchCtx)
		r.fetching.Store(false)
		done <- fetchResult{raw: raw, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-fetchCtx.Done():
		res.err = fetchCtx.Err()
	}

	if res.err == nil {
		return res.raw, nil
	}
	if errors.Is(res.err, context.DeadlineExceeded) || errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
		return RawDataset{}, &FetchTimeoutError{Timeout: r.timeout, Err: res.err}
	}
	return RawDataset{}, &FetchError{Err: res.err}
}

func (r *Refresher) transition(log zerolog.Logger, s CycleState) {
	r.state.Store(string(s))
	log.Debug().Str("state", string(s)).Msg("refresh state")
}

// State returns the current step of the state machine.
func (r *Refresher) State() CycleState {
	return CycleState(r.state.Load())
}

// Running reports whether a cycle is in progress.
func (r *Refresher) Running() bool {
	return r.running.Load()
}

// History returns up to n of the most recent cycle reports, oldest first.
// n <= 0 returns all retained reports.
func (r *Refresher) History(n int) []BuildReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.history.latest(n)
}

// LastSuccess returns the most recent report of a cycle that published.
func (r *Refresher) LastSuccess() (BuildReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.history.reports) - 1; i >= 0; i-- {
		if r.history.reports[i].Succeeded() {
			return r.history.reports[i], true
		}
	}
	return BuildReport{}, false
}
