package store

import (
	"errors"

	"go.uber.org/atomic"

	"github.com/i474232898/covid19-stats/internal/covid"
)

var (
	// ErrNotReady is returned until the first snapshot has been published.
	ErrNotReady = errors.New("service not yet ready")
)

// SnapshotStore holds the currently published snapshot. Publishing swaps a
// single pointer; readers never block and keep whatever snapshot they loaded.
type SnapshotStore struct {
	current atomic.Pointer[covid.Snapshot]
	swaps   atomic.Int64
}

// NewSnapshotStore creates an empty, not-ready store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Publish makes snapshot the one served to new readers. A nil snapshot is ignored.
func (s *SnapshotStore) Publish(snapshot *covid.Snapshot) {
	if snapshot == nil {
		return
	}
	s.current.Store(snapshot)
	s.swaps.Inc()
}

// Current returns the published snapshot, or ErrNotReady if there is none yet.
func (s *SnapshotStore) Current() (*covid.Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}

// Ready reports whether a snapshot has been published.
func (s *SnapshotStore) Ready() bool {
	return s.current.Load() != nil
}

// Publications returns how many snapshots have been published since start.
func (s *SnapshotStore) Publications() int64 {
	return s.swaps.Load()
}
