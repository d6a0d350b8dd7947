// Package metrics is a minimal facade so pipeline code never depends on a
// concrete metrics vendor. The default backend is a nop; cmd/etl swaps in a
// real backend (see internal/metrics/datadog) based on flags/env.
package metrics

import "sync"

// Backend is implemented by concrete metric sinks.
//
// Implementations must be safe for concurrent use; the pipeline reports
// counters and stage durations from wherever it happens to be running.
type Backend interface {
	// IncCounter adds delta to a named counter. Tags are "key:value" strings.
	IncCounter(name string, delta float64, tags ...string)

	// ObserveStage records the duration of a named pipeline stage in seconds.
	ObserveStage(stage string, seconds float64)

	// Flush submits buffered metrics. Called at least once at shutdown.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, ...string) {}
func (nopBackend) ObserveStage(string, float64)          {}
func (nopBackend) Flush() error                          { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs the process-wide backend. Call once at startup before
// the pipeline runs.
func SetBackend(b Backend) {
	if b == nil {
		b = nopBackend{}
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter forwards to the installed backend.
func IncCounter(name string, delta float64, tags ...string) {
	current().IncCounter(name, delta, tags...)
}

// ObserveStage forwards to the installed backend.
func ObserveStage(stage string, seconds float64) {
	current().ObserveStage(stage, seconds)
}

// Flush forwards to the installed backend.
func Flush() error {
	return current().Flush()
}
