package domain

// Stage determines how the next plain-text message from a user is interpreted.
type Stage string

const (
	StageStart    Stage = "start"
	StageMainMenu Stage = "main_menu"

	StageAwaitingTattooDate Stage = "awaiting_tattoo_date"
	StageAwaitingQuestion   Stage = "awaiting_question"

	StageAwaitingBroadcastText          Stage = "awaiting_broadcast_text"
	StageAwaitingBroadcastTattooText    Stage = "awaiting_broadcast_tattoo_text"
	StageAwaitingBroadcastQuestionsText Stage = "awaiting_broadcast_questions_text"
	StageAwaitingBroadcastActiveText    Stage = "awaiting_broadcast_active_text"

	StageAwaitingAdminID     Stage = "awaiting_admin_id"
	StageAwaitingTemplate    Stage = "awaiting_template"
	StageAwaitingCategoryAdd Stage = "awaiting_category_add"

	StageAwaitingAppointmentDate    Stage = "awaiting_appointment_date"
	StageAwaitingAppointmentTime    Stage = "awaiting_appointment_time"
	StageAwaitingAppointmentComment Stage = "awaiting_appointment_comment"
	StageAwaitingAppointmentContact Stage = "awaiting_appointment_contact"
)

// IsAwaiting reports whether the stage expects a follow-up text message.
func (s Stage) IsAwaiting() bool {
	switch s {
	case StageAwaitingTattooDate, StageAwaitingQuestion,
		StageAwaitingBroadcastText, StageAwaitingBroadcastTattooText,
		StageAwaitingBroadcastQuestionsText, StageAwaitingBroadcastActiveText,
		StageAwaitingAdminID, StageAwaitingTemplate, StageAwaitingCategoryAdd,
		StageAwaitingAppointmentDate, StageAwaitingAppointmentTime,
		StageAwaitingAppointmentComment, StageAwaitingAppointmentContact:
		return true
	}
	return false
}

// IsAppointment reports whether the stage belongs to the appointment wizard.
// The wizard draft on the user record may be non-nil only while this holds.
func (s Stage) IsAppointment() bool {
	switch s {
	case StageAwaitingAppointmentDate, StageAwaitingAppointmentTime,
		StageAwaitingAppointmentComment, StageAwaitingAppointmentContact:
		return true
	}
	return false
}
