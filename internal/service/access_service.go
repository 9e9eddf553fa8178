package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/appstate"
	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/internal/repository"
	"github.com/spec-kit/aftercare-bot/pkg/util"
)

// Permission keys accepted by TogglePermission.
const (
	PermFullAccess      = "full_access"
	PermManageUsers     = "manage_users"
	PermManageQuestions = "manage_questions"
	PermManageSettings  = "manage_settings"
	PermSendBroadcasts  = "send_broadcasts"
	PermViewAnalytics   = "view_analytics"
)

// AccessService keeps the in-memory admin roster and the persisted
// isAdmin/permission flags consistent. Every mutation is a dual write; a
// store-write failure is logged but does not roll back the cache write.
type AccessService struct {
	users  repository.UserRepository
	state  *appstate.State
	logger *zap.Logger
}

// NewAccessService constructs the service.
func NewAccessService(users repository.UserRepository, state *appstate.State, logger *zap.Logger) *AccessService {
	return &AccessService{users: users, state: state, logger: logger}
}

// Load populates the roster from persisted admin records on startup and
// guarantees the main admin record exists with full access.
func (s *AccessService) Load(ctx context.Context) error {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return err
	}
	entries := make([]appstate.AdminEntry, 0, len(admins))
	for _, admin := range admins {
		entries = append(entries, appstate.AdminEntry{
			ID:          admin.ID,
			Name:        admin.DisplayName(),
			Username:    admin.Username,
			AddedAt:     admin.CreatedAt,
			Permissions: admin.Permissions,
		})
	}
	s.state.Access.Replace(entries)

	return s.ensureMainAdminRecord(ctx)
}

func (s *AccessService) ensureMainAdminRecord(ctx context.Context) error {
	mainID := s.state.Access.MainAdminID()
	user, err := s.users.GetByID(ctx, mainID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		user = &domain.User{
			ID:          mainID,
			Stage:       domain.StageMainMenu,
			Questions:   []domain.Question{},
			IsAdmin:     true,
			Permissions: domain.FullPermissions(),
		}
		return s.users.Create(ctx, user)
	}
	if !user.IsAdmin || !user.Permissions.FullAccess {
		user.IsAdmin = true
		user.Permissions = domain.FullPermissions()
		return s.users.Update(ctx, user)
	}
	return nil
}

// IsAdmin reports whether the id is on the roster.
func (s *AccessService) IsAdmin(id int64) bool {
	_, ok := s.state.Access.Get(id)
	return ok
}

// PermissionsOf returns the roster permissions for an id.
func (s *AccessService) PermissionsOf(id int64) (domain.AdminPermissions, bool) {
	entry, ok := s.state.Access.Get(id)
	if !ok {
		return domain.AdminPermissions{}, false
	}
	return entry.Permissions, true
}

// HasPermission checks a single capability, honoring full access.
func (s *AccessService) HasPermission(id int64, perm string) bool {
	perms, ok := s.PermissionsOf(id)
	if !ok {
		return false
	}
	if perms.FullAccess {
		return true
	}
	switch perm {
	case PermManageUsers:
		return perms.ManageUsers
	case PermManageQuestions:
		return perms.ManageQuestions
	case PermManageSettings:
		return perms.ManageSettings
	case PermSendBroadcasts:
		return perms.SendBroadcasts
	case PermViewAnalytics:
		return perms.ViewAnalytics
	}
	return false
}

// Add validates and appends a new admin with default limited permissions.
func (s *AccessService) Add(ctx context.Context, requesterID, targetID int64) (*appstate.AdminEntry, error) {
	if err := s.requireFullAccess(requesterID); err != nil {
		return nil, err
	}
	if s.state.Access.AtCapacity() {
		return nil, util.NewConflict(
			fmt.Sprintf("admin limit reached (%d)", s.state.Access.MaxAdmins()), nil)
	}
	if _, exists := s.state.Access.Get(targetID); exists {
		return nil, util.NewConflict("user is already an admin", nil)
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("user", map[string]any{"id": targetID})
		}
		return nil, err
	}

	entry := appstate.AdminEntry{
		ID:          targetID,
		Name:        target.DisplayName(),
		Username:    target.Username,
		AddedAt:     time.Now(),
		Permissions: domain.DefaultPermissions(),
	}
	s.state.Access.Put(entry)
	s.mirror(ctx, targetID, true, entry.Permissions)
	s.state.LogAction("admin_added", fmt.Sprintf("admin %d added admin %d", requesterID, targetID))
	return &entry, nil
}

// Remove deletes an admin from the roster. The main admin cannot be removed
// and admins cannot remove themselves.
func (s *AccessService) Remove(ctx context.Context, requesterID, targetID int64) error {
	if err := s.requireFullAccess(requesterID); err != nil {
		return err
	}
	if targetID == s.state.Access.MainAdminID() {
		return util.NewForbidden("main admin cannot be removed")
	}
	if targetID == requesterID {
		return util.NewForbidden("admins cannot remove themselves")
	}
	if _, exists := s.state.Access.Get(targetID); !exists {
		return util.NewNotFound("admin", map[string]any{"id": targetID})
	}

	s.state.Access.Remove(targetID)
	s.mirror(ctx, targetID, false, domain.AdminPermissions{})
	s.state.LogAction("admin_removed", fmt.Sprintf("admin %d removed admin %d", requesterID, targetID))
	return nil
}

// TogglePermission flips one capability and returns the new value.
func (s *AccessService) TogglePermission(ctx context.Context, requesterID, targetID int64, perm string) (bool, error) {
	perms, err := s.mutatePermissions(ctx, requesterID, targetID, func(p *domain.AdminPermissions) {
		switch perm {
		case PermFullAccess:
			p.FullAccess = !p.FullAccess
		case PermManageUsers:
			p.ManageUsers = !p.ManageUsers
		case PermManageQuestions:
			p.ManageQuestions = !p.ManageQuestions
		case PermManageSettings:
			p.ManageSettings = !p.ManageSettings
		case PermSendBroadcasts:
			p.SendBroadcasts = !p.SendBroadcasts
		case PermViewAnalytics:
			p.ViewAnalytics = !p.ViewAnalytics
		}
	})
	if err != nil {
		return false, err
	}
	switch perm {
	case PermFullAccess:
		return perms.FullAccess, nil
	case PermManageUsers:
		return perms.ManageUsers, nil
	case PermManageQuestions:
		return perms.ManageQuestions, nil
	case PermManageSettings:
		return perms.ManageSettings, nil
	case PermSendBroadcasts:
		return perms.SendBroadcasts, nil
	case PermViewAnalytics:
		return perms.ViewAnalytics, nil
	}
	return false, util.NewValidationError("unknown permission", map[string]any{"perm": perm})
}

// GrantAll gives the target every capability.
func (s *AccessService) GrantAll(ctx context.Context, requesterID, targetID int64) error {
	_, err := s.mutatePermissions(ctx, requesterID, targetID, func(p *domain.AdminPermissions) {
		*p = domain.FullPermissions()
	})
	return err
}

// RevokeAll strips every capability while keeping the target on the roster.
func (s *AccessService) RevokeAll(ctx context.Context, requesterID, targetID int64) error {
	_, err := s.mutatePermissions(ctx, requesterID, targetID, func(p *domain.AdminPermissions) {
		*p = domain.AdminPermissions{}
	})
	return err
}

func (s *AccessService) mutatePermissions(ctx context.Context, requesterID, targetID int64, mutate func(*domain.AdminPermissions)) (domain.AdminPermissions, error) {
	if err := s.requireFullAccess(requesterID); err != nil {
		return domain.AdminPermissions{}, err
	}
	if targetID == s.state.Access.MainAdminID() {
		return domain.AdminPermissions{}, util.NewForbidden("main admin permissions are fixed")
	}
	entry, exists := s.state.Access.Get(targetID)
	if !exists {
		return domain.AdminPermissions{}, util.NewNotFound("admin", map[string]any{"id": targetID})
	}

	perms := entry.Permissions
	mutate(&perms)
	s.state.Access.SetPermissions(targetID, perms)
	s.mirror(ctx, targetID, true, perms)
	s.state.LogAction("admin_permissions_changed",
		fmt.Sprintf("admin %d changed permissions of admin %d", requesterID, targetID))
	return perms, nil
}

func (s *AccessService) requireFullAccess(requesterID int64) error {
	perms, ok := s.PermissionsOf(requesterID)
	if !ok || !perms.FullAccess {
		return util.NewForbidden("full access required")
	}
	return nil
}

// mirror is the single write-through point to the user store. Best-effort:
// a store failure leaves the cache ahead until the next Load.
func (s *AccessService) mirror(ctx context.Context, targetID int64, isAdmin bool, perms domain.AdminPermissions) {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		s.logger.Error("access mirror read failed", zap.Int64("user_id", targetID), zap.Error(err))
		return
	}
	user.IsAdmin = isAdmin
	user.Permissions = perms
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("access mirror write failed", zap.Int64("user_id", targetID), zap.Error(err))
	}
}
