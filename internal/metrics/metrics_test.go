package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCounters(t *testing.T) {
	m := New()
	m.NamesMasked.Add(2)
	m.OccurrencesMasked.Add(5)
	m.StaleEntries.Add(1)
	m.CompletionRequests.Add(3)
	m.CompletionDiscarded.Add(1)

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.Masking.NamesMasked)
	assert.Equal(t, int64(5), s.Masking.OccurrencesMasked)
	assert.Equal(t, int64(1), s.Rebuild.StaleEntries)
	assert.Equal(t, int64(3), s.Completion.Requests)
	assert.Equal(t, int64(1), s.Completion.Discarded)
	assert.GreaterOrEqual(t, s.UptimeSecs, 0.0)
}

func TestProviderLatencyStats(t *testing.T) {
	m := New()
	m.RecordProviderLatency(10 * time.Millisecond)
	m.RecordProviderLatency(30 * time.Millisecond)

	s := m.Snapshot().Completion.LatencyMs
	assert.Equal(t, int64(2), s.Count)
	assert.InDelta(t, 10.0, s.MinMs, 0.5)
	assert.InDelta(t, 30.0, s.MaxMs, 0.5)
	assert.InDelta(t, 20.0, s.MeanMs, 0.5)
}

func TestSnapshotEncodesAsJSON(t *testing.T) {
	m := New()
	data, err := json.Marshal(m.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"masking\"")
	assert.Contains(t, string(data), "\"latencyMs\"")
}

func TestEmptyLatencySnapshot(t *testing.T) {
	m := New()
	assert.Equal(t, LatencySnapshot{}, m.Snapshot().Completion.LatencyMs)
}
