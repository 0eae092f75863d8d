package alerting

import (
	"time"

	"labajada-cloud/internal/wind"
)

// Condition is a closed enumeration of alertable wind conditions.
type Condition string

const (
	ConditionEpic      Condition = "epic"
	ConditionDangerous Condition = "dangerous"
	ConditionOffshore  Condition = "offshore"
	ConditionGood      Condition = "good"
	ConditionWindUp    Condition = "windUp"
)

// Valid returns true when the condition is a known one.
func (c Condition) Valid() bool {
	switch c {
	case ConditionEpic, ConditionDangerous, ConditionOffshore, ConditionGood, ConditionWindUp:
		return true
	default:
		return false
	}
}

// SubscriberScoped reports whether the condition depends on per-subscriber
// config and therefore keeps one tracker per subscriber.
func (c Condition) SubscriberScoped() bool {
	return c == ConditionGood || c == ConditionWindUp
}

// SustainedMinutes is the minutes of continuous truth required per condition
// before an alert may fire.
type SustainedMinutes struct {
	Epic      int `yaml:"epic"`
	Dangerous int `yaml:"dangerous"`
	Offshore  int `yaml:"offshore"`
	Good      int `yaml:"good"`
	WindUp    int `yaml:"wind_up"`
}

// DefaultSustainedMinutes returns the canonical sustained-duration table.
func DefaultSustainedMinutes() SustainedMinutes {
	return SustainedMinutes{
		Epic:      10,
		Dangerous: 3,
		Offshore:  5,
		Good:      5,
		WindUp:    5,
	}
}

// For returns the required minutes for a condition.
func (s SustainedMinutes) For(c Condition) int {
	switch c {
	case ConditionEpic:
		return s.Epic
	case ConditionDangerous:
		return s.Dangerous
	case ConditionOffshore:
		return s.Offshore
	case ConditionGood:
		return s.Good
	case ConditionWindUp:
		return s.WindUp
	default:
		return 0
	}
}

// TrackerState records since when a condition has been continuously true.
// A zero StartedAt means the condition is not currently active. Records are
// upserted, never deleted, so they survive gaps between invocations.
type TrackerState struct {
	Condition  Condition `json:"condition"`
	SubjectID  string    `json:"subject_id,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	LastSeenAt time.Time `json:"last_seen_at"`
	BrokenAt   time.Time `json:"broken_at,omitempty"`
}

// Active returns true while the condition holds.
func (s TrackerState) Active() bool {
	return !s.StartedAt.IsZero()
}

// TrackerResult is the outcome of one tracker update.
type TrackerResult struct {
	Sustained     bool `json:"sustained"`
	MinutesActive int  `json:"minutes_active"`
}

// Alert is a selected, ready-to-send notification.
type Alert struct {
	Type     Condition `json:"type"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Priority int       `json:"priority"`
}

// LogEntry records one alert type actually sent during a pass. Append-only;
// it exists so the cooldown gate can answer "has this type fired recently".
type LogEntry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	AlertType     Condition `json:"alert_type"`
	WindSpeed     float64   `json:"wind_speed"`
	WindGust      float64   `json:"wind_gust,omitempty"`
	WindDirection float64   `json:"wind_direction,omitempty"`
	Cardinal      string    `json:"cardinal,omitempty"`
	Sent          int       `json:"sent"`
	Skipped       int       `json:"skipped,omitempty"`
	Expired       int       `json:"expired,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubscriberConfig carries the per-subscriber alert preferences.
type SubscriberConfig struct {
	MinNavigableWind float64 `json:"minNavigableWind"`
	MaxGoodWind      float64 `json:"maxGoodWind"`
}

// Normalize fills defaults for unset values.
func (c SubscriberConfig) Normalize() SubscriberConfig {
	if c.MinNavigableWind <= 0 {
		c.MinNavigableWind = 15
	}
	if c.MaxGoodWind <= 0 {
		c.MaxGoodWind = 27
	}
	return c
}

// SubscriptionKeys are the client keys of a Web Push subscription.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscription is the browser-issued push endpoint plus keys.
type PushSubscription struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}

// Subscriber is one registered push subscription with its config. Expired
// endpoints are soft-deleted by flipping Active.
type Subscriber struct {
	ID           string           `json:"id"`
	Subscription PushSubscription `json:"subscription"`
	Config       SubscriberConfig `json:"config"`
	Active       bool             `json:"active"`
	SubscribedAt time.Time        `json:"subscribed_at"`
	LastActivity time.Time        `json:"last_activity"`
}

// Outcome is the result of one push delivery.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeExpired Outcome = "expired"
	OutcomeFailed  Outcome = "failed"
)

// Payload is the flat push payload handed to the transport. The tag lets the
// client replace a previous notification of the same type.
type Payload struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	Icon               string `json:"icon"`
	Badge              string `json:"badge"`
	Tag                string `json:"tag"`
	Vibrate            []int  `json:"vibrate,omitempty"`
	RequireInteraction bool   `json:"requireInteraction"`
	Data               struct {
		URL string `json:"url"`
	} `json:"data"`
}

// BuildPayload assembles the push payload for an alert the same way the
// dashboard's service worker expects it.
func BuildPayload(alert Alert) Payload {
	payload := Payload{
		Title:              alert.Title,
		Body:               alert.Body,
		Icon:               "/icon-192.png",
		Badge:              "/badge-wind.png",
		Tag:                "wind-alert-" + string(alert.Type),
		Vibrate:            []int{200, 100, 200},
		RequireInteraction: false,
	}
	if alert.Priority <= 2 {
		payload.Vibrate = []int{300, 100, 300, 100, 300}
		payload.RequireInteraction = true
	}
	payload.Data.URL = "/?from_notification=true"
	return payload
}

// Snapshot copies the wind reading fields onto a log entry.
func (e *LogEntry) Snapshot(r wind.Reading) {
	e.WindSpeed = r.SpeedOrZero()
	e.WindGust = r.GustOrZero()
	if r.Direction != nil {
		e.WindDirection = *r.Direction
	}
	e.Cardinal = wind.CardinalOf(r)
}
