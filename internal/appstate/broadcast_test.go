package appstate

import (
	"context"
	"testing"
)

func TestBroadcastSingletonReservation(t *testing.T) {
	status := NewBroadcastStatus()

	if !status.Begin(1, "text") {
		t.Fatalf("first Begin rejected")
	}
	if status.Begin(2, "other") {
		t.Fatalf("second Begin accepted while active")
	}

	status.Abort()
	if status.Active() {
		t.Fatalf("still active after Abort")
	}
	if !status.Begin(2, "other") {
		t.Fatalf("Begin rejected after Abort released the reservation")
	}
}

func TestBroadcastAccounting(t *testing.T) {
	status := NewBroadcastStatus()
	status.Begin(1, "text")
	status.SetRun("run-1", 3, nil)

	status.RecordSuccess()
	status.RecordSuccess()
	status.RecordFailed()
	status.Finish()

	snap := status.Snapshot()
	if snap.Active {
		t.Fatalf("active after Finish")
	}
	if snap.Success != 2 || snap.Failed != 1 || snap.Total != 3 {
		t.Fatalf("accounting: success=%d failed=%d total=%d", snap.Success, snap.Failed, snap.Total)
	}
	if snap.Success+snap.Failed != snap.Total {
		t.Fatalf("success+failed != total")
	}
	if snap.FinishedAt.Before(snap.StartedAt) {
		t.Fatalf("finished before started")
	}
}

func TestBroadcastCancelSignalsContext(t *testing.T) {
	status := NewBroadcastStatus()
	status.Begin(1, "text")
	ctx, cancel := context.WithCancel(context.Background())
	status.SetRun("run-1", 10, cancel)

	if !status.Cancel() {
		t.Fatalf("cancel rejected with active run")
	}
	select {
	case <-ctx.Done():
	default:
		t.Fatalf("run context not cancelled")
	}
	if status.Active() {
		t.Fatalf("still active after cancel")
	}
	if status.Cancel() {
		t.Fatalf("second cancel reported success")
	}
}

func TestBroadcastCancelIdle(t *testing.T) {
	status := NewBroadcastStatus()
	if status.Cancel() {
		t.Fatalf("cancel succeeded with no run")
	}
}
