// Package metrics collects in-memory timing and token usage for one run.
package metrics

import (
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpArchiveRead  = "archive_read"
	OpLLMSummarize = "llm_summarize"
	OpExportWrite  = "export_write"
)

// opStats is the running aggregate for one operation.
type opStats struct {
	count   int64
	total   time.Duration
	minTime time.Duration
	maxTime time.Duration

	// Token totals, LLM operations only.
	inputTokens  int64
	outputTokens int64
	withTokens   bool
}

func (s *opStats) observe(d time.Duration) {
	if s.count == 0 || d < s.minTime {
		s.minTime = d
	}
	if d > s.maxTime {
		s.maxTime = d
	}
	s.count++
	s.total += d
}

// OperationSnapshot provides computed stats for one operation.
type OperationSnapshot struct {
	Count   int64
	Total   time.Duration
	Average time.Duration
	Min     time.Duration
	Max     time.Duration

	// Token totals (nil if the operation reported none)
	TotalInputTokens  *int64
	TotalOutputTokens *int64
}

// Snapshot holds the statistics of a run at a point in time.
type Snapshot struct {
	Elapsed      time.Duration
	ArchiveRead  *OperationSnapshot
	LLMSummarize *OperationSnapshot
	ExportWrite  *OperationSnapshot
}

// Collector aggregates timings per operation.
// All methods are safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	started time.Time
	ops     map[string]*opStats
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		started: time.Now(),
		ops:     make(map[string]*opStats),
	}
}

func (c *Collector) stats(op string) *opStats {
	s, ok := c.ops[op]
	if !ok {
		s = &opStats{}
		c.ops[op] = s
	}
	return s
}

// Time runs fn and records its duration under op, whether or not it fails.
func (c *Collector) Time(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.RecordTiming(op, time.Since(start))
	return err
}

// RecordTiming records one timed call of op.
func (c *Collector) RecordTiming(op string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats(op).observe(d)
}

// RecordLLMUsage records one LLM call with its token usage.
func (c *Collector) RecordLLMUsage(op string, d time.Duration, inputTokens, outputTokens int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats(op)
	s.observe(d)
	if inputTokens > 0 || outputTokens > 0 {
		s.withTokens = true
	}
	s.inputTokens += inputTokens
	s.outputTokens += outputTokens
}

func (s *opStats) snapshot() *OperationSnapshot {
	if s == nil || s.count == 0 {
		return nil
	}
	snap := &OperationSnapshot{
		Count:   s.count,
		Total:   s.total,
		Average: s.total / time.Duration(s.count),
		Min:     s.minTime,
		Max:     s.maxTime,
	}
	if s.withTokens {
		in, out := s.inputTokens, s.outputTokens
		snap.TotalInputTokens = &in
		snap.TotalOutputTokens = &out
	}
	return snap
}

// Snapshot returns a point-in-time copy of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Elapsed:      time.Since(c.started),
		ArchiveRead:  c.ops[OpArchiveRead].snapshot(),
		LLMSummarize: c.ops[OpLLMSummarize].snapshot(),
		ExportWrite:  c.ops[OpExportWrite].snapshot(),
	}
}
