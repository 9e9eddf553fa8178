package domain

// Audience selects broadcast recipients from the user store.
type Audience string

const (
	AudienceAll           Audience = "all"
	AudienceWithDate      Audience = "with_tattoo_date"
	AudienceWithQuestions Audience = "with_questions"
	AudienceActiveWeek    Audience = "active_week"
)

// Title returns the Russian label shown in admin menus and summaries.
func (a Audience) Title() string {
	switch a {
	case AudienceWithDate:
		return "Пользователи с датой тату"
	case AudienceWithQuestions:
		return "Пользователи с вопросами"
	case AudienceActiveWeek:
		return "Активные за 7 дней"
	}
	return "Все пользователи"
}
