package appstate

import (
	"context"
	"sync"
	"time"
)

// BroadcastSnapshot is a point-in-time copy of the broadcast run state.
type BroadcastSnapshot struct {
	Active     bool
	RunID      string
	AdminID    int64
	Text       string
	Total      int
	Success    int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// BroadcastStatus is the process-wide broadcast singleton. At most one run
// may be active; a second start attempt is rejected, never queued.
type BroadcastStatus struct {
	mu     sync.Mutex
	snap   BroadcastSnapshot
	cancel context.CancelFunc
}

// NewBroadcastStatus creates an idle status.
func NewBroadcastStatus() *BroadcastStatus {
	return &BroadcastStatus{}
}

// Begin reserves the singleton for a new run. It returns false when a run
// is already active. The reservation must be released with Abort when the
// audience query fails or matches nobody.
func (b *BroadcastStatus) Begin(adminID int64, text string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.snap.Active {
		return false
	}
	b.snap = BroadcastSnapshot{
		Active:    true,
		AdminID:   adminID,
		Text:      text,
		StartedAt: time.Now(),
	}
	b.cancel = nil
	return true
}

// SetRun records the run identity once the audience is known.
func (b *BroadcastStatus) SetRun(runID string, total int, cancel context.CancelFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.RunID = runID
	b.snap.Total = total
	b.cancel = cancel
}

// Abort releases a reservation without recording a finished run.
func (b *BroadcastStatus) Abort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.Active = false
	b.cancel = nil
}

// RecordSuccess increments the success counter.
func (b *BroadcastStatus) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.Success++
}

// RecordFailed increments the failure counter.
func (b *BroadcastStatus) RecordFailed() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.Failed++
}

// Active reports whether a run is in progress. The engine re-checks this at
// every iteration boundary.
func (b *BroadcastStatus) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap.Active
}

// Cancel flips the active flag and signals the run context. Returns false
// when nothing was running.
func (b *BroadcastStatus) Cancel() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.snap.Active {
		return false
	}
	b.snap.Active = false
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	return true
}

// Finish marks the run complete and stamps the end time.
func (b *BroadcastStatus) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.Active = false
	b.snap.FinishedAt = time.Now()
	b.cancel = nil
}

// Snapshot copies the current state.
func (b *BroadcastStatus) Snapshot() BroadcastSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap
}
