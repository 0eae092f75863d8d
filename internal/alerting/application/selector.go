package application

import (
	"fmt"

	alerting "labajada-cloud/internal/alerting/domain"
	"labajada-cloud/internal/wind"
)

// SelectorInput carries the reading plus the sustained results for every
// condition evaluated this pass (good and windUp are the subscriber's own).
type SelectorInput struct {
	Reading   wind.Reading
	Epic      alerting.TrackerResult
	Dangerous alerting.TrackerResult
	Offshore  alerting.TrackerResult
	Good      alerting.TrackerResult
	WindUp    alerting.TrackerResult
}

// Selector picks at most one alert by fixed priority:
// epic > dangerous > offshore > good, with windUp offered only when none of
// the other four are sustained.
type Selector struct {
	spotName string
}

// NewSelector constructs a selector. The spot name appears in the
// good-conditions alert title.
func NewSelector(spotName string) *Selector {
	if spotName == "" {
		spotName = "La Bajada"
	}
	return &Selector{spotName: spotName}
}

// Select returns the highest-priority sustained alert, or nil.
func (s *Selector) Select(input SelectorInput) *alerting.Alert {
	speed := input.Reading.SpeedOrZero()
	gust := input.Reading.GustOrZero()
	cardinal := wind.CardinalOf(input.Reading)

	switch {
	case input.Epic.Sustained:
		return &alerting.Alert{
			Type:     alerting.ConditionEpic,
			Title:    "👑 ¡ÉPICO!",
			Body:     fmt.Sprintf("%.0f kts del %s — Sostenido %d+ min", speed, cardinal, input.Epic.MinutesActive),
			Priority: 1,
		}
	case input.Dangerous.Sustained:
		return &alerting.Alert{
			Type:     alerting.ConditionDangerous,
			Title:    "⚠️ ¡Condiciones extremas!",
			Body:     fmt.Sprintf("%.0f kts, rachas %.0f kts", speed, gust),
			Priority: 2,
		}
	case input.Offshore.Sustained:
		return &alerting.Alert{
			Type:     alerting.ConditionOffshore,
			Title:    "🚨 Viento Offshore",
			Body:     fmt.Sprintf("%.0f kts del %s — ¡No navegar!", speed, cardinal),
			Priority: 3,
		}
	case input.Good.Sustained:
		return &alerting.Alert{
			Type:     alerting.ConditionGood,
			Title:    fmt.Sprintf("🪁 ¡Está soplando en %s!", s.spotName),
			Body:     fmt.Sprintf("%.0f kts del %s — Sostenido %d+ min", speed, cardinal, input.Good.MinutesActive),
			Priority: 4,
		}
	case input.WindUp.Sustained:
		return &alerting.Alert{
			Type:     alerting.ConditionWindUp,
			Title:    "📈 Se levantó el viento",
			Body:     fmt.Sprintf("%.0f kts del %s — Sostenido %d+ min", speed, cardinal, input.WindUp.MinutesActive),
			Priority: 5,
		}
	default:
		return nil
	}
}
