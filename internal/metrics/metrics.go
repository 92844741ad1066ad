// Package metrics provides lightweight performance and volume counters for
// a running docmask instance.
//
// Counters use sync/atomic so hot paths (mask, rebuild, restore) incur no
// mutex contention. Provider latency uses a single mutex; it is updated at
// most once per completion call.
package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds all runtime counters. Use New.
type Metrics struct {
	// Masking volume
	NamesMasked       atomic.Int64
	OccurrencesMasked atomic.Int64
	NamesUndone       atomic.Int64

	// Rebuild diagnostics
	Rebuilds        atomic.Int64
	StaleEntries    atomic.Int64
	OverlapWarnings atomic.Int64

	// Restoration
	RestoresTotal atomic.Int64

	// Completion calls
	CompletionRequests  atomic.Int64
	CompletionErrors    atomic.Int64
	CompletionDiscarded atomic.Int64 // results dropped because the ledger moved on

	provMu   sync.Mutex
	provStat latencyStats

	startTime time.Time
}

// New returns a Metrics with the start time recorded.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordProviderLatency records the round-trip time of one completion call.
func (m *Metrics) RecordProviderLatency(d time.Duration) {
	m.provMu.Lock()
	m.provStat.record(float64(d.Microseconds()) / 1000.0)
	m.provMu.Unlock()
}

// Snapshot returns a point-in-time copy of all metrics, safe for JSON encoding.
func (m *Metrics) Snapshot() Snapshot {
	m.provMu.Lock()
	prov := m.provStat.snapshot()
	m.provMu.Unlock()

	return Snapshot{
		Masking: MaskingSnapshot{
			NamesMasked:       m.NamesMasked.Load(),
			OccurrencesMasked: m.OccurrencesMasked.Load(),
			NamesUndone:       m.NamesUndone.Load(),
		},
		Rebuild: RebuildSnapshot{
			Total:           m.Rebuilds.Load(),
			StaleEntries:    m.StaleEntries.Load(),
			OverlapWarnings: m.OverlapWarnings.Load(),
		},
		Restores: m.RestoresTotal.Load(),
		Completion: CompletionSnapshot{
			Requests:  m.CompletionRequests.Load(),
			Errors:    m.CompletionErrors.Load(),
			Discarded: m.CompletionDiscarded.Load(),
			LatencyMs: prov,
		},
		UptimeSecs: time.Since(m.startTime).Seconds(),
	}
}

// --- JSON-serialisable snapshot types ---

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Masking    MaskingSnapshot    `json:"masking"`
	Rebuild    RebuildSnapshot    `json:"rebuild"`
	Restores   int64              `json:"restores"`
	Completion CompletionSnapshot `json:"completion"`
	UptimeSecs float64            `json:"uptimeSecs"`
}

// MaskingSnapshot holds masking volume counters.
type MaskingSnapshot struct {
	NamesMasked       int64 `json:"namesMasked"`
	OccurrencesMasked int64 `json:"occurrencesMasked"`
	NamesUndone       int64 `json:"namesUndone"`
}

// RebuildSnapshot holds rebuild diagnostics counters.
type RebuildSnapshot struct {
	Total           int64 `json:"total"`
	StaleEntries    int64 `json:"staleEntries"`
	OverlapWarnings int64 `json:"overlapWarnings"`
}

// CompletionSnapshot holds completion call counters and latency.
type CompletionSnapshot struct {
	Requests  int64           `json:"requests"`
	Errors    int64           `json:"errors"`
	Discarded int64           `json:"discarded"`
	LatencyMs LatencySnapshot `json:"latencyMs"`
}

// LatencySnapshot is a min/mean/max summary for one latency dimension.
type LatencySnapshot struct {
	Count  int64   `json:"count"`
	MinMs  float64 `json:"minMs"`
	MeanMs float64 `json:"meanMs"`
	MaxMs  float64 `json:"maxMs"`
}

// --- internal accumulator ---

type latencyStats struct {
	count int64
	sum   float64
	min   float64
	max   float64
}

func (s *latencyStats) record(ms float64) {
	s.count++
	s.sum += ms
	if s.count == 1 || ms < s.min {
		s.min = ms
	}
	if ms > s.max {
		s.max = ms
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func (s *latencyStats) snapshot() LatencySnapshot {
	if s.count == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count:  s.count,
		MinMs:  round2(s.min),
		MeanMs: round2(s.sum / float64(s.count)),
		MaxMs:  round2(s.max),
	}
}
