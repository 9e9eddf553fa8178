package appstate

import (
	"sync"
	"time"
)

// Default capacities for the in-memory logs.
const (
	SystemLogCapacity = 1000
	ActionLogCapacity = 100
)

// LogEntry is one record in an in-memory log.
type LogEntry struct {
	Timestamp time.Time
	Type      string
	Message   string
}

// RingLog is a bounded FIFO log. When full, the oldest entry is evicted.
// Contents are not persisted and are lost on restart.
type RingLog struct {
	mu      sync.Mutex
	max     int
	entries []LogEntry
}

// NewRingLog creates a log bounded to max entries.
func NewRingLog(max int) *RingLog {
	if max <= 0 {
		max = 1
	}
	return &RingLog{max: max}
}

// Append records an entry, evicting the oldest when the bound is reached.
func (l *RingLog) Append(entryType, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{
		Timestamp: time.Now(),
		Type:      entryType,
		Message:   message,
	})
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// Entries returns a copy of the log, oldest first.
func (l *RingLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Tail returns a copy of the most recent n entries, oldest first.
func (l *RingLog) Tail(n int) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]LogEntry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Len reports the current number of entries.
func (l *RingLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
