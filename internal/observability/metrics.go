package observability

import (
	"sync"
)

// Metrics provides basic in-memory counters for the update loop.
type Metrics struct {
	mu          sync.Mutex
	updateCount map[string]int64
	errorCount  map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		updateCount: make(map[string]int64),
		errorCount:  make(map[string]int64),
	}
}

// RecordUpdate increments the counter for an update kind (command name,
// callback prefix or "text").
func (m *Metrics) RecordUpdate(kind string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCount[kind]++
}

// RecordError increments the error counter for an update kind and error code.
func (m *Metrics) RecordError(kind, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[kind+"|"+code]++
}

// Snapshot copies the counters for debug output.
func (m *Metrics) Snapshot() (updates, errs map[string]int64) {
	updates = make(map[string]int64)
	errs = make(map[string]int64)
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.updateCount {
		updates[k] = v
	}
	for k, v := range m.errorCount {
		errs[k] = v
	}
	return
}
