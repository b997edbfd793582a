// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry implements the tick-duration statistics and CSV trace
// of SPEC_FULL's C11, grounded on the pthm-soup example's
// telemetry/output.go OutputManager: a ring buffer summarized with
// gonum.org/v1/gonum/stat and flushed to disk with gocarina/gocsv.
package telemetry

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"
)

// TickSample is one row of the CSV trace.
type TickSample struct {
	Tick       uint64  `csv:"tick"`
	DurationMs float64 `csv:"duration_ms"`
	Entities   int     `csv:"entities"`
	Sessions   int     `csv:"sessions"`
}

// TickRecorder keeps a bounded window of recent tick durations and summary
// statistics, and optionally mirrors every sample to a CSV file.
type TickRecorder struct {
	window       []float64
	capacity     int
	next         int
	filled       bool
	file         *os.File
	headerWritten bool
}

// NewTickRecorder builds a recorder holding the last `capacity` tick
// durations. If csvPath is empty, CSV output is disabled (the recorder
// still tracks in-memory stats).
func NewTickRecorder(capacity int, csvPath string) (*TickRecorder, error) {
	if capacity <= 0 {
		capacity = 1200 // one minute at 20Hz
	}
	r := &TickRecorder{window: make([]float64, capacity), capacity: capacity}

	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return nil, fmt.Errorf("telemetry: creating %s: %w", csvPath, err)
		}
		r.file = f
	}

	return r, nil
}

// Record adds one tick's wall-clock duration to the window and, if enabled,
// appends a CSV row.
func (r *TickRecorder) Record(tick uint64, d time.Duration, entities, sessions int) error {
	ms := float64(d) / float64(time.Millisecond)
	r.window[r.next] = ms
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.filled = true
	}

	if r.file == nil {
		return nil
	}

	rows := []TickSample{{Tick: tick, DurationMs: ms, Entities: entities, Sessions: sessions}}
	if !r.headerWritten {
		r.headerWritten = true
		return gocsv.Marshal(rows, r.file)
	}
	return gocsv.MarshalWithoutHeaders(rows, r.file)
}

// Stats reports the mean and standard deviation of tick durations (ms)
// currently held in the window.
func (r *TickRecorder) Stats() (mean, stddev float64) {
	samples := r.window
	if !r.filled {
		samples = r.window[:r.next]
	}
	if len(samples) == 0 {
		return 0, 0
	}
	mean, stddev = stat.MeanStdDev(samples, nil)
	return mean, stddev
}

func (r *TickRecorder) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}
