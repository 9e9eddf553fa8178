package appstate

import (
	"fmt"
	"testing"
)

func TestRingLogEvictsOldestAtCapacity(t *testing.T) {
	log := NewRingLog(SystemLogCapacity)
	for i := 0; i < SystemLogCapacity+10; i++ {
		log.Append("test", fmt.Sprintf("entry %d", i))
	}

	if log.Len() != SystemLogCapacity {
		t.Fatalf("len = %d, want %d", log.Len(), SystemLogCapacity)
	}
	entries := log.Entries()
	if entries[0].Message != "entry 10" {
		t.Fatalf("oldest surviving entry = %q, want \"entry 10\"", entries[0].Message)
	}
	if entries[len(entries)-1].Message != fmt.Sprintf("entry %d", SystemLogCapacity+9) {
		t.Fatalf("newest entry = %q", entries[len(entries)-1].Message)
	}
}

func TestRingLogActionCapacity(t *testing.T) {
	log := NewRingLog(ActionLogCapacity)
	for i := 0; i < ActionLogCapacity*2; i++ {
		log.Append("action", fmt.Sprintf("action %d", i))
	}
	if log.Len() != ActionLogCapacity {
		t.Fatalf("len = %d, want %d", log.Len(), ActionLogCapacity)
	}
}

func TestRingLogTail(t *testing.T) {
	log := NewRingLog(10)
	for i := 0; i < 5; i++ {
		log.Append("test", fmt.Sprintf("entry %d", i))
	}

	tail := log.Tail(3)
	if len(tail) != 3 {
		t.Fatalf("tail len = %d, want 3", len(tail))
	}
	if tail[0].Message != "entry 2" || tail[2].Message != "entry 4" {
		t.Fatalf("tail order wrong: %q..%q", tail[0].Message, tail[2].Message)
	}

	all := log.Tail(100)
	if len(all) != 5 {
		t.Fatalf("oversized tail len = %d, want 5", len(all))
	}
}

func TestRingLogEntriesReturnsCopy(t *testing.T) {
	log := NewRingLog(10)
	log.Append("test", "original")

	entries := log.Entries()
	entries[0].Message = "mutated"

	if log.Entries()[0].Message != "original" {
		t.Fatalf("internal state mutated through returned slice")
	}
}
