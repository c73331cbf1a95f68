package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/covid19-stats/internal/covid/covidtest"
)

func TestSnapshotStoreNotReady(t *testing.T) {
	s := NewSnapshotStore()

	_, err := s.Current()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.False(t, s.Ready())

	s.Publish(nil)
	assert.False(t, s.Ready())
	assert.Zero(t, s.Publications())
}

func TestSnapshotStorePublishSwaps(t *testing.T) {
	s := NewSnapshotStore()

	first, err := covidtest.Snapshot(time.Unix(1, 0))
	require.NoError(t, err)
	second, err := covidtest.Snapshot(time.Unix(2, 0))
	require.NoError(t, err)

	s.Publish(first)
	got, err := s.Current()
	require.NoError(t, err)
	assert.Same(t, first, got)

	s.Publish(second)
	got, err = s.Current()
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.Equal(t, int64(2), s.Publications())
}

func TestSnapshotStoreConcurrentReaders(t *testing.T) {
	s := NewSnapshotStore()
	snaps := make([]time.Time, 0, 10)
	for i := 0; i < 10; i++ {
		snaps = append(snaps, time.Unix(int64(i+1), 0))
	}

	first, err := covidtest.Snapshot(snaps[0])
	require.NoError(t, err)
	s.Publish(first)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, at := range snaps[1:] {
			snap, err := covidtest.Snapshot(at)
			if err == nil {
				s.Publish(snap)
			}
		}
	}()

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap, err := s.Current()
				if !assert.NoError(t, err) {
					return
				}
				// Every field of a loaded snapshot comes from the same build.
				totals := snap.Totals()
				var sum int64
				for _, c := range snap.Countries() {
					sum += c.Confirmed
				}
				assert.Equal(t, totals.Confirmed, sum)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), s.Publications())
}
