// Package appstate owns the process-wide in-memory state: logs, broadcast
// status, access settings, templates and runtime settings. Everything here
// is initialized once at startup, mutex-guarded, and lost on restart.
package appstate

import "time"

// State is the explicitly owned application state passed to handlers.
type State struct {
	SystemLog  *RingLog
	ActionLog  *RingLog
	Broadcast  *BroadcastStatus
	Access     *AccessSettings
	Templates  *TemplateStore
	Categories *CategoryList
	Settings   *RuntimeSettings
	StartedAt  time.Time
}

// Options configure initial state.
type Options struct {
	MainAdminID int64
	MaxAdmins   int
	OpenHour    int
	CloseHour   int
}

// New builds the state with all sub-structures initialized.
func New(opts Options) *State {
	return &State{
		SystemLog: NewRingLog(SystemLogCapacity),
		ActionLog: NewRingLog(ActionLogCapacity),
		Broadcast: NewBroadcastStatus(),
		Access:    NewAccessSettings(opts.MainAdminID, opts.MaxAdmins),
		Templates: NewTemplateStore(),
		Categories: NewCategoryList(
			"Уход после сеанса",
			"Заживление",
			"Коррекция",
			"Общие вопросы",
		),
		Settings:  NewRuntimeSettings(opts.OpenHour, opts.CloseHour),
		StartedAt: time.Now(),
	}
}

// LogSystem appends to the system log.
func (s *State) LogSystem(entryType, message string) {
	s.SystemLog.Append(entryType, message)
}

// LogAction appends to the admin action log.
func (s *State) LogAction(entryType, message string) {
	s.ActionLog.Append(entryType, message)
}
