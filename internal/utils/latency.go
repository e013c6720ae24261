package utils

import (
	"sort"
	"sync"
	"time"
)

// LatencyTracker keeps a bounded window of recent duration samples and
// summarises them for periodic logging.
type LatencyTracker struct {
	mu      sync.RWMutex
	samples []time.Duration
	maxSize int
}

// LatencySnapshot is one consistent view of the tracked window.
type LatencySnapshot struct {
	Count int
	P50   time.Duration
	P95   time.Duration
	Max   time.Duration
}

// NewLatencyTracker creates a tracker storing up to maxSize samples.
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize <= 0 {
		maxSize = 512
	}
	return &LatencyTracker{maxSize: maxSize}
}

// Observe records a new duration, evicting the oldest sample when the
// window is full.
func (l *LatencyTracker) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.samples = append(l.samples, d)
	if len(l.samples) > l.maxSize {
		copy(l.samples[0:], l.samples[1:])
		l.samples = l.samples[:l.maxSize]
	}
}

// Percentile returns the percentile (0-100) duration, or zero with no
// samples.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	l.mu.RLock()
	sorted := l.sortedLocked()
	l.mu.RUnlock()
	return pick(sorted, p)
}

// Snapshot summarises the current window under a single lock, so the
// reported figures describe the same set of samples.
func (l *LatencyTracker) Snapshot() LatencySnapshot {
	l.mu.RLock()
	sorted := l.sortedLocked()
	l.mu.RUnlock()

	return LatencySnapshot{
		Count: len(sorted),
		P50:   pick(sorted, 50),
		P95:   pick(sorted, 95),
		Max:   pick(sorted, 100),
	}
}

// Count returns the number of samples in the window.
func (l *LatencyTracker) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.samples)
}

func (l *LatencyTracker) sortedLocked() []time.Duration {
	sorted := append([]time.Duration(nil), l.samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

func pick(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	index := int((p / 100.0) * float64(len(sorted)-1))
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
