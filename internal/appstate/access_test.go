package appstate

import (
	"testing"
	"time"

	"github.com/spec-kit/aftercare-bot/internal/domain"
)

const mainID int64 = 100

func TestAccessSettingsSeedsMainAdmin(t *testing.T) {
	s := NewAccessSettings(mainID, 10)

	entry, ok := s.Get(mainID)
	if !ok {
		t.Fatalf("main admin not seeded")
	}
	if !entry.Permissions.FullAccess {
		t.Fatalf("main admin lacks full access")
	}
	if s.Len() != 1 {
		t.Fatalf("roster len = %d, want 1", s.Len())
	}
}

func TestAccessSettingsRemoveProtectsMain(t *testing.T) {
	s := NewAccessSettings(mainID, 10)
	s.Put(AdminEntry{ID: 200, Name: "Аня", AddedAt: time.Now()})

	if s.Remove(mainID) {
		t.Fatalf("main admin was removed")
	}
	if !s.Remove(200) {
		t.Fatalf("regular admin not removed")
	}
	if _, ok := s.Get(200); ok {
		t.Fatalf("removed admin still present")
	}
}

func TestAccessSettingsSetPermissionsProtectsMain(t *testing.T) {
	s := NewAccessSettings(mainID, 10)
	if s.SetPermissions(mainID, domain.AdminPermissions{}) {
		t.Fatalf("main admin permissions were overwritten")
	}
	entry, _ := s.Get(mainID)
	if !entry.Permissions.FullAccess {
		t.Fatalf("main admin lost full access")
	}
}

func TestAccessSettingsCapacity(t *testing.T) {
	s := NewAccessSettings(mainID, 2)
	if s.AtCapacity() {
		t.Fatalf("at capacity with only the main admin")
	}
	s.Put(AdminEntry{ID: 200})
	if !s.AtCapacity() {
		t.Fatalf("not at capacity with maxAdmins entries")
	}
}

func TestReplaceGuaranteesMainAdmin(t *testing.T) {
	s := NewAccessSettings(mainID, 10)

	// Persisted records that do not include the main admin at all.
	s.Replace([]AdminEntry{{ID: 200, Name: "Аня"}})
	entry, ok := s.Get(mainID)
	if !ok {
		t.Fatalf("main admin missing after Replace")
	}
	if !entry.Permissions.FullAccess {
		t.Fatalf("main admin lacks full access after Replace")
	}

	// A persisted main-admin record with stripped permissions is upgraded.
	s.Replace([]AdminEntry{{ID: mainID, Name: "Мастер", Permissions: domain.AdminPermissions{}}})
	entry, _ = s.Get(mainID)
	if !entry.Permissions.FullAccess {
		t.Fatalf("downgraded main admin record not restored")
	}
	if s.Len() != 1 {
		t.Fatalf("roster len = %d, want 1", s.Len())
	}
}
