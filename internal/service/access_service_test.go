package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/appstate"
	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/pkg/util"
)

func newAccessFixture(t *testing.T, maxAdmins int) (*AccessService, *fakeUserRepo, *appstate.State) {
	t.Helper()
	repo := newFakeUserRepo()
	state := appstate.New(appstate.Options{MainAdminID: testAdminID, MaxAdmins: maxAdmins})
	svc := NewAccessService(repo, state, zap.NewNop())
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return svc, repo, state
}

func TestLoadCreatesMainAdminRecord(t *testing.T) {
	svc, repo, _ := newAccessFixture(t, 10)

	stored, ok := repo.get(testAdminID)
	if !ok {
		t.Fatalf("main admin record not created")
	}
	if !stored.IsAdmin || !stored.Permissions.FullAccess {
		t.Fatalf("main admin record lacks full access: %+v", stored.Permissions)
	}
	if !svc.IsAdmin(testAdminID) {
		t.Fatalf("main admin missing from roster")
	}
}

func TestLoadUpgradesDowngradedMainAdmin(t *testing.T) {
	repo := newFakeUserRepo()
	repo.put(domain.User{ID: testAdminID, Stage: domain.StageMainMenu, IsAdmin: false})
	state := appstate.New(appstate.Options{MainAdminID: testAdminID, MaxAdmins: 10})
	svc := NewAccessService(repo, state, zap.NewNop())
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	stored, _ := repo.get(testAdminID)
	if !stored.IsAdmin || !stored.Permissions.FullAccess {
		t.Fatalf("main admin not restored to full access: %+v", stored.Permissions)
	}
}

func TestAddAdminGrantsDefaultPermissions(t *testing.T) {
	svc, repo, _ := newAccessFixture(t, 10)
	repo.put(domain.User{ID: 200, FirstName: "Аня", Stage: domain.StageMainMenu})

	entry, err := svc.Add(context.Background(), testAdminID, 200)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if entry.Permissions.FullAccess || !entry.Permissions.ManageQuestions || !entry.Permissions.ViewAnalytics {
		t.Fatalf("unexpected default permissions: %+v", entry.Permissions)
	}
	if entry.Permissions.SendBroadcasts || entry.Permissions.ManageUsers {
		t.Fatalf("default permissions too broad: %+v", entry.Permissions)
	}
	// Mirrored to the persisted record.
	stored, _ := repo.get(200)
	if !stored.IsAdmin {
		t.Fatalf("is_admin flag not mirrored")
	}
}

func TestAddAdminRejectsUnknownUser(t *testing.T) {
	svc, _, _ := newAccessFixture(t, 10)
	_, err := svc.Add(context.Background(), testAdminID, 999)
	if !util.IsCode(err, "NOT_FOUND") {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestAddAdminRejectsDuplicate(t *testing.T) {
	svc, repo, _ := newAccessFixture(t, 10)
	repo.put(domain.User{ID: 200, Stage: domain.StageMainMenu})
	if _, err := svc.Add(context.Background(), testAdminID, 200); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := svc.Add(context.Background(), testAdminID, 200)
	if !util.IsCode(err, "CONFLICT") {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}

func TestAddAdminRespectsCapacity(t *testing.T) {
	svc, repo, _ := newAccessFixture(t, 2)
	repo.put(domain.User{ID: 200, Stage: domain.StageMainMenu})
	repo.put(domain.User{ID: 300, Stage: domain.StageMainMenu})

	if _, err := svc.Add(context.Background(), testAdminID, 200); err != nil {
		t.Fatalf("add within capacity: %v", err)
	}
	_, err := svc.Add(context.Background(), testAdminID, 300)
	if !util.IsCode(err, "CONFLICT") {
		t.Fatalf("err = %v, want CONFLICT at capacity", err)
	}
}

func TestAddRequiresFullAccess(t *testing.T) {
	svc, repo, _ := newAccessFixture(t, 10)
	repo.put(domain.User{ID: 200, Stage: domain.StageMainMenu})
	repo.put(domain.User{ID: 300, Stage: domain.StageMainMenu})
	if _, err := svc.Add(context.Background(), testAdminID, 200); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	// 200 has only the default limited set.
	_, err := svc.Add(context.Background(), 200, 300)
	if !util.IsCode(err, "FORBIDDEN") {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
}

func TestRemoveProtectsMainAdminAndSelf(t *testing.T) {
	svc, repo, _ := newAccessFixture(t, 10)
	repo.put(domain.User{ID: 200, Stage: domain.StageMainMenu})
	if _, err := svc.Add(context.Background(), testAdminID, 200); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.Remove(context.Background(), testAdminID, testAdminID); !util.IsCode(err, "FORBIDDEN") {
		t.Fatalf("removing main admin: err = %v, want FORBIDDEN", err)
	}
	if err := svc.GrantAll(context.Background(), testAdminID, 200); err != nil {
		t.Fatalf("grant all: %v", err)
	}
	if err := svc.Remove(context.Background(), 200, 200); !util.IsCode(err, "FORBIDDEN") {
		t.Fatalf("self-removal: err = %v, want FORBIDDEN", err)
	}
}

func TestRemoveMirrorsToStore(t *testing.T) {
	svc, repo, _ := newAccessFixture(t, 10)
	repo.put(domain.User{ID: 200, Stage: domain.StageMainMenu})
	if _, err := svc.Add(context.Background(), testAdminID, 200); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Remove(context.Background(), testAdminID, 200); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if svc.IsAdmin(200) {
		t.Fatalf("removed admin still on roster")
	}
	stored, _ := repo.get(200)
	if stored.IsAdmin {
		t.Fatalf("is_admin flag not cleared in store")
	}
}

func TestTogglePermission(t *testing.T) {
	svc, repo, _ := newAccessFixture(t, 10)
	repo.put(domain.User{ID: 200, Stage: domain.StageMainMenu})
	if _, err := svc.Add(context.Background(), testAdminID, 200); err != nil {
		t.Fatalf("add: %v", err)
	}

	on, err := svc.TogglePermission(context.Background(), testAdminID, 200, PermSendBroadcasts)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !on {
		t.Fatalf("toggle did not enable the permission")
	}
	if !svc.HasPermission(200, PermSendBroadcasts) {
		t.Fatalf("permission not effective after toggle")
	}

	off, err := svc.TogglePermission(context.Background(), testAdminID, 200, PermSendBroadcasts)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if off {
		t.Fatalf("second toggle did not disable the permission")
	}
}

func TestMainAdminPermissionsAreFixed(t *testing.T) {
	svc, _, _ := newAccessFixture(t, 10)
	_, err := svc.TogglePermission(context.Background(), testAdminID, testAdminID, PermSendBroadcasts)
	if !util.IsCode(err, "FORBIDDEN") {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
}

func TestFullAccessImpliesEveryPermission(t *testing.T) {
	svc, _, _ := newAccessFixture(t, 10)
	for _, perm := range []string{PermManageUsers, PermManageQuestions, PermManageSettings, PermSendBroadcasts, PermViewAnalytics} {
		if !svc.HasPermission(testAdminID, perm) {
			t.Fatalf("main admin lacks %s", perm)
		}
	}
	if svc.HasPermission(999, PermViewAnalytics) {
		t.Fatalf("non-admin has a permission")
	}
}
