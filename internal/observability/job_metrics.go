package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// JobMetrics are process-local counters for one worker. They back the
// worker's /stats endpoint, so they work without a Prometheus server.
type JobMetrics struct {
	claimed      atomic.Uint64
	done         atomic.Uint64
	failed       atomic.Uint64
	retried      atomic.Uint64
	deadLettered atomic.Uint64

	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64

	mu       sync.Mutex
	byType   map[string]map[string]uint64 // job type -> result -> count
	lastDone time.Time
}

func NewJobMetrics() *JobMetrics {
	return &JobMetrics{byType: make(map[string]map[string]uint64)}
}

func (m *JobMetrics) IncClaimed()      { m.claimed.Add(1) }
func (m *JobMetrics) IncDone()         { m.done.Add(1) }
func (m *JobMetrics) IncFailed()       { m.failed.Add(1) }
func (m *JobMetrics) IncRetried()      { m.retried.Add(1) }
func (m *JobMetrics) IncDeadLettered() { m.deadLettered.Add(1) }

func (m *JobMetrics) ObserveDuration(d time.Duration) {
	ns := d.Nanoseconds()
	m.durationCount.Add(1)
	m.durationTotal.Add(ns)

	for {
		curr := m.durationMax.Load()
		if ns <= curr || m.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

// ObserveResult counts one finished attempt of jobType ("done", "retry" or
// "dead").
func (m *JobMetrics) ObserveResult(jobType, result string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results, ok := m.byType[jobType]
	if !ok {
		results = make(map[string]uint64)
		m.byType[jobType] = results
	}
	results[result]++

	if result == "done" && at.After(m.lastDone) {
		m.lastDone = at
	}
}

type JobMetricsSnapShot struct {
	Claimed           uint64                       `json:"claimed"`
	Done              uint64                       `json:"done"`
	Failed            uint64                       `json:"failed"`
	Retried           uint64                       `json:"retried"`
	DeadLettered      uint64                       `json:"deadLettered"`
	DurationCount     uint64                       `json:"durationCount"`
	AverageDurationMs float64                      `json:"averageDurationMs"`
	MaxDurationMs     float64                      `json:"maxDurationMs"`
	ByType            map[string]map[string]uint64 `json:"byType"`
	LastDoneAt        *time.Time                   `json:"lastDoneAt,omitempty"`
}

func (m *JobMetrics) Snapshot() JobMetricsSnapShot {
	count := m.durationCount.Load()

	snap := JobMetricsSnapShot{
		Claimed:       m.claimed.Load(),
		Done:          m.done.Load(),
		Failed:        m.failed.Load(),
		Retried:       m.retried.Load(),
		DeadLettered:  m.deadLettered.Load(),
		DurationCount: count,
		MaxDurationMs: float64(m.durationMax.Load()) / float64(time.Millisecond),
		ByType:        make(map[string]map[string]uint64),
	}
	if count > 0 {
		snap.AverageDurationMs = float64(m.durationTotal.Load()) / float64(count) / float64(time.Millisecond)
	}

	m.mu.Lock()
	for t, results := range m.byType {
		cp := make(map[string]uint64, len(results))
		for r, n := range results {
			cp[r] = n
		}
		snap.ByType[t] = cp
	}
	if !m.lastDone.IsZero() {
		last := m.lastDone
		snap.LastDoneAt = &last
	}
	m.mu.Unlock()

	return snap
}
