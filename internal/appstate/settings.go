package appstate

import "sync"

// NotificationSettings control admin notifications. Constructed once at
// startup with explicit defaults; mutated only through the settings panel.
type NotificationSettings struct {
	Enabled             bool
	QuietMode           bool
	NotifyOnQuestion    bool
	NotifyOnAppointment bool
}

// WorktimeSettings describe the studio working-hours window shown to users.
type WorktimeSettings struct {
	OpenHour  int
	CloseHour int
}

// RuntimeSettings bundles the mutable in-memory configuration.
type RuntimeSettings struct {
	mu            sync.Mutex
	notifications NotificationSettings
	worktime      WorktimeSettings
}

// NewRuntimeSettings builds settings with defaults.
func NewRuntimeSettings(openHour, closeHour int) *RuntimeSettings {
	return &RuntimeSettings{
		notifications: NotificationSettings{
			Enabled:             true,
			NotifyOnQuestion:    true,
			NotifyOnAppointment: true,
		},
		worktime: WorktimeSettings{OpenHour: openHour, CloseHour: closeHour},
	}
}

// Notifications returns a copy of the notification settings.
func (s *RuntimeSettings) Notifications() NotificationSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifications
}

// UpdateNotifications replaces the notification settings.
func (s *RuntimeSettings) UpdateNotifications(n NotificationSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = n
}

// Worktime returns a copy of the worktime settings.
func (s *RuntimeSettings) Worktime() WorktimeSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.worktime
}

// UpdateWorktime replaces the worktime settings.
func (s *RuntimeSettings) UpdateWorktime(w WorktimeSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worktime = w
}
