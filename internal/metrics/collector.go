// Package metrics provides in-memory streaming statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// StreamMetrics holds aggregated timing for completed streams.
type StreamMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// Snapshot represents the collector state at a point in time.
type Snapshot struct {
	UptimeSeconds float64

	StreamCount   int64
	TotalTimeMs   int64
	AvgTimeMs     float64
	MinTimeMs     int64
	MaxTimeMs     int64

	// Event counts by kind, plus total text-delta payload bytes.
	Events     map[string]int64
	DeltaBytes int64
}

// Collector aggregates in-memory streaming statistics.
// All methods are thread-safe.
type Collector struct {
	mu         sync.RWMutex
	startTime  time.Time
	streams    StreamMetrics
	events     map[string]int64
	deltaBytes int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		streams:   StreamMetrics{MinTime: time.Duration(math.MaxInt64)},
		events:    make(map[string]int64),
	}
}

// RecordStream records the duration of one completed stream cycle.
func (c *Collector) RecordStream(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.streams.Count++
	c.streams.TotalTime += duration
	if duration < c.streams.MinTime {
		c.streams.MinTime = duration
	}
	if duration > c.streams.MaxTime {
		c.streams.MaxTime = duration
	}
}

// RecordEvent counts one decoded event frame. deltaBytes is the length of
// the frame's text delta, zero for non-delta kinds.
func (c *Collector) RecordEvent(kind string, deltaBytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events[kind]++
	c.deltaBytes += int64(deltaBytes)
}

// Snapshot returns computed statistics for everything recorded so far.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		StreamCount:   c.streams.Count,
		Events:        make(map[string]int64, len(c.events)),
		DeltaBytes:    c.deltaBytes,
	}
	for kind, n := range c.events {
		snap.Events[kind] = n
	}

	if c.streams.Count > 0 {
		snap.TotalTimeMs = c.streams.TotalTime.Milliseconds()
		snap.AvgTimeMs = float64(c.streams.TotalTime.Milliseconds()) / float64(c.streams.Count)
		snap.MinTimeMs = c.streams.MinTime.Milliseconds()
		snap.MaxTimeMs = c.streams.MaxTime.Milliseconds()
	}

	return snap
}
