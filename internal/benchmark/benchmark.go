// Package benchmark measures hull construction and rectangle solving over
// growing synthetic point sets.
package benchmark

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"
)

// Timer provides simple timing utilities for benchmarking.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer creates a new timer with the given name.
func NewTimer(name string) *Timer {
	return &Timer{
		name:  name,
		start: time.Now(),
	}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.duration)
}

// MemoryStats holds memory usage statistics.
type MemoryStats struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	Mallocs         uint64 `json:"mallocs"`
	NumGC           uint32 `json:"num_gc"`
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemoryStats{
		AllocBytes:      m.Alloc,
		TotalAllocBytes: m.TotalAlloc,
		Mallocs:         m.Mallocs,
		NumGC:           m.NumGC,
	}
}

// Sub returns the growth of the cumulative counters from before to m.
func (m MemoryStats) Sub(before MemoryStats) MemoryStats {
	return MemoryStats{
		AllocBytes:      m.AllocBytes,
		TotalAllocBytes: m.TotalAllocBytes - before.TotalAllocBytes,
		Mallocs:         m.Mallocs - before.Mallocs,
		NumGC:           m.NumGC - before.NumGC,
	}
}

func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, Mallocs: %d, GC: %d",
		m.AllocBytes/1024, m.TotalAllocBytes/1024, m.Mallocs, m.NumGC)
}

// Result holds the result of a benchmark run.
type Result struct {
	Name         string
	Duration     time.Duration
	MemoryBefore MemoryStats
	MemoryAfter  MemoryStats
	Iterations   int
	Error        error
}

func (r Result) String() string {
	if r.Error != nil {
		return fmt.Sprintf("%s: ERROR - %v", r.Name, r.Error)
	}
	avg := time.Duration(0)
	if r.Iterations > 0 {
		avg = r.Duration / time.Duration(r.Iterations)
	}
	allocated := r.MemoryAfter.TotalAllocBytes - r.MemoryBefore.TotalAllocBytes
	return fmt.Sprintf("%s: %d iterations, avg: %v, total: %v, allocated: %d KB",
		r.Name, r.Iterations, avg, r.Duration, allocated/1024)
}

type benchmark struct {
	name string
	fn   func() error
}

// Suite runs named benchmark functions.
type Suite struct {
	benchmarks []benchmark
	results    []Result
	mu         sync.Mutex
}

// NewSuite creates an empty suite.
func NewSuite() *Suite {
	return &Suite{}
}

// Add registers a benchmark.
func (s *Suite) Add(name string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.benchmarks = append(s.benchmarks, benchmark{name: name, fn: fn})
}

// Run runs a single benchmark with the specified number of iterations.
func (s *Suite) Run(name string, iterations int) Result {
	s.mu.Lock()
	var found *benchmark
	for i := range s.benchmarks {
		if s.benchmarks[i].name == name {
			found = &s.benchmarks[i]
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return Result{Name: name, Error: fmt.Errorf("benchmark '%s' not found", name)}
	}
	return runBenchmark(*found, iterations)
}

// RunAll runs every benchmark in registration order.
func (s *Suite) RunAll(iterations int) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = make([]Result, 0, len(s.benchmarks))
	for _, b := range s.benchmarks {
		s.results = append(s.results, runBenchmark(b, iterations))
	}
	return s.results
}

// Results returns the last RunAll results.
func (s *Suite) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// WriteResults prints the last RunAll results.
func (s *Suite) WriteResults(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Benchmark Results:")
	for _, r := range s.Results() {
		_, _ = fmt.Fprintln(w, "  "+r.String())
	}
}

func runBenchmark(b benchmark, iterations int) Result {
	runtime.GC()
	before := GetMemoryStats()
	timer := NewTimer(b.name)

	var err error
	for range iterations {
		if err = b.fn(); err != nil {
			break
		}
	}

	duration := timer.Stop()
	return Result{
		Name:         b.name,
		Duration:     duration,
		MemoryBefore: before,
		MemoryAfter:  GetMemoryStats(),
		Iterations:   iterations,
		Error:        err,
	}
}
