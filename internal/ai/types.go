package ai

import "github.com/vm2656/travel-itinerary-generator/internal/models"

// GenerateInput описывает пожелания к поездке.
type GenerateInput struct {
	Destination           string            `json:"destination" validate:"required,max=200"`
	StartDate             string            `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate               string            `json:"endDate" validate:"required,datetime=2006-01-02"`
	Pace                  models.Pace       `json:"pace" validate:"required,oneof=relaxed moderate packed"`
	Interests             []string          `json:"interests" validate:"max=20,dive,max=100"`
	VegetarianOnly        bool              `json:"vegetarianOnly"`
	Budget                models.BudgetTier `json:"budget" validate:"required,oneof=budget moderate luxury"`
	AdditionalPreferences string            `json:"additionalPreferences,omitempty" validate:"max=2000"`
}

// DurationPolicy определяет, как согласуются поле duration и число дней в ответе модели.
type DurationPolicy string

const (
	// DurationFromDates: длительность считается по датам запроса, значение модели перезаписывается.
	DurationFromDates DurationPolicy = "dates"
	// DurationFromDays: длительность равна числу дней в ответе.
	DurationFromDays DurationPolicy = "days"
	// DurationStrict: несовпадение числа дней с датами считается некорректным ответом.
	DurationStrict DurationPolicy = "strict"
)

// ParseDurationPolicy разбирает значение из конфигурации.
func ParseDurationPolicy(value string) (DurationPolicy, bool) {
	switch DurationPolicy(value) {
	case DurationFromDates, "":
		return DurationFromDates, true
	case DurationFromDays:
		return DurationFromDays, true
	case DurationStrict:
		return DurationStrict, true
	default:
		return "", false
	}
}
