package appstate

import (
	"sync"
	"time"

	"github.com/spec-kit/aftercare-bot/internal/domain"
)

// AdminEntry is one roster record in the access settings cache.
type AdminEntry struct {
	ID          int64
	Name        string
	Username    string
	AddedAt     time.Time
	Permissions domain.AdminPermissions
}

// AccessSettings is the in-memory admin roster, mirrored to user records by
// the access service. The main admin is always present with full access and
// cannot be removed.
type AccessSettings struct {
	mu          sync.Mutex
	mainAdminID int64
	maxAdmins   int
	admins      []AdminEntry
	lastUpdated time.Time
}

// NewAccessSettings seeds the roster with the main admin.
func NewAccessSettings(mainAdminID int64, maxAdmins int) *AccessSettings {
	if maxAdmins <= 0 {
		maxAdmins = 10
	}
	s := &AccessSettings{
		mainAdminID: mainAdminID,
		maxAdmins:   maxAdmins,
	}
	s.admins = []AdminEntry{{
		ID:          mainAdminID,
		Name:        "Главный администратор",
		AddedAt:     time.Now(),
		Permissions: domain.FullPermissions(),
	}}
	return s
}

// MainAdminID returns the permanent full-access admin id.
func (s *AccessSettings) MainAdminID() int64 {
	return s.mainAdminID
}

// MaxAdmins returns the roster capacity.
func (s *AccessSettings) MaxAdmins() int {
	return s.maxAdmins
}

// List returns a copy of the roster.
func (s *AccessSettings) List() []AdminEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AdminEntry, len(s.admins))
	copy(out, s.admins)
	return out
}

// Get looks up a roster entry.
func (s *AccessSettings) Get(id int64) (AdminEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.admins {
		if entry.ID == id {
			return entry, true
		}
	}
	return AdminEntry{}, false
}

// Put adds or replaces a roster entry.
func (s *AccessSettings) Put(entry AdminEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.admins {
		if s.admins[i].ID == entry.ID {
			s.admins[i] = entry
			s.lastUpdated = time.Now()
			return
		}
	}
	s.admins = append(s.admins, entry)
	s.lastUpdated = time.Now()
}

// Remove deletes a roster entry. The main admin is never removed.
func (s *AccessSettings) Remove(id int64) bool {
	if id == s.mainAdminID {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.admins {
		if s.admins[i].ID == id {
			s.admins = append(s.admins[:i], s.admins[i+1:]...)
			s.lastUpdated = time.Now()
			return true
		}
	}
	return false
}

// SetPermissions replaces an entry's permission object. The main admin keeps
// full access regardless of the requested set.
func (s *AccessSettings) SetPermissions(id int64, perms domain.AdminPermissions) bool {
	if id == s.mainAdminID {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.admins {
		if s.admins[i].ID == id {
			s.admins[i].Permissions = perms
			s.lastUpdated = time.Now()
			return true
		}
	}
	return false
}

// AtCapacity reports whether the roster reached maxAdmins.
func (s *AccessSettings) AtCapacity() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.admins) >= s.maxAdmins
}

// Len returns the roster size.
func (s *AccessSettings) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.admins)
}

// LastUpdated returns the time of the last roster mutation.
func (s *AccessSettings) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdated
}

// Replace rebuilds the roster from persisted records, guaranteeing the main
// admin entry is present with full access.
func (s *AccessSettings) Replace(entries []AdminEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hasMain := false
	roster := make([]AdminEntry, 0, len(entries)+1)
	for _, entry := range entries {
		if entry.ID == s.mainAdminID {
			entry.Permissions = domain.FullPermissions()
			hasMain = true
		}
		roster = append(roster, entry)
	}
	if !hasMain {
		roster = append([]AdminEntry{{
			ID:          s.mainAdminID,
			Name:        "Главный администратор",
			AddedAt:     time.Now(),
			Permissions: domain.FullPermissions(),
		}}, roster...)
	}
	s.admins = roster
	s.lastUpdated = time.Now()
}
