package wind

import (
	"math"
	"time"
)

// Reading is a timestamped snapshot from the weather station. A nil field
// means the station did not report it; zero is a real measurement.
type Reading struct {
	Speed     *float64  `json:"speed_knots"`
	Gust      *float64  `json:"gust_knots"`
	Direction *float64  `json:"direction_degrees"`
	TakenAt   time.Time `json:"taken_at"`
}

// SpeedOrZero returns the reported speed, or 0 when unknown.
func (r Reading) SpeedOrZero() float64 {
	if r.Speed == nil {
		return 0
	}
	return *r.Speed
}

// GustOrZero returns the reported gust, or 0 when unknown.
func (r Reading) GustOrZero() float64 {
	if r.Gust == nil {
		return 0
	}
	return *r.Gust
}

var cardinals = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSO", "SO", "OSO", "O", "ONO", "NO", "NNO",
}

// Cardinal maps degrees to the 16-point Spanish compass rose used across
// the dashboard (O = oeste).
func Cardinal(degrees float64) string {
	index := int(math.Round(degrees/22.5)) % 16
	if index < 0 {
		index += 16
	}
	return cardinals[index]
}

// CardinalOf returns the cardinal label for a reading, or "N/A" when the
// direction is unknown.
func CardinalOf(r Reading) string {
	if r.Direction == nil {
		return "N/A"
	}
	return Cardinal(*r.Direction)
}
