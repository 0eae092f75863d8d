package wind

// Thresholds defines the condition bands for the spot. The defaults are the
// canonical values for La Bajada; a YAML override can adjust them per
// deployment.
type Thresholds struct {
	DangerousSpeed float64 `yaml:"dangerous_speed"`
	DangerousGust  float64 `yaml:"dangerous_gust"`
	EpicMinWind    float64 `yaml:"epic_min_wind"`
	EpicMaxWind    float64 `yaml:"epic_max_wind"`
	EpicMinDeg     float64 `yaml:"epic_min_deg"`
	EpicMaxDeg     float64 `yaml:"epic_max_deg"`
	OffshoreStart  float64 `yaml:"offshore_start"`
	OffshoreEnd    float64 `yaml:"offshore_end"`
	OffshoreMin    float64 `yaml:"offshore_min_wind"`
	MaxGoodWind    float64 `yaml:"max_good_wind"`
}

// DefaultThresholds returns the canonical condition bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DangerousSpeed: 30,
		DangerousGust:  35,
		EpicMinWind:    17,
		EpicMaxWind:    25,
		EpicMinDeg:     68,
		EpicMaxDeg:     146,
		OffshoreStart:  292.5,
		OffshoreEnd:    67.5,
		OffshoreMin:    12,
		MaxGoodWind:    27,
	}
}

// IsEpic reports E/ESE/SE wind inside the epic band. The upper speed bound
// is exclusive: 25 kts is already "too much" for epic.
func (t Thresholds) IsEpic(r Reading) bool {
	if r.Speed == nil || r.Direction == nil {
		return false
	}
	return *r.Speed >= t.EpicMinWind && *r.Speed < t.EpicMaxWind &&
		*r.Direction >= t.EpicMinDeg && *r.Direction <= t.EpicMaxDeg
}

// IsDangerous reports extreme wind regardless of direction.
func (t Thresholds) IsDangerous(r Reading) bool {
	if r.Speed != nil && *r.Speed > t.DangerousSpeed {
		return true
	}
	return r.Gust != nil && *r.Gust >= t.DangerousGust
}

// InOffshoreArc reports whether a direction blows from shore toward open
// water. The arc wraps through north.
func (t Thresholds) InOffshoreArc(degrees float64) bool {
	return degrees >= t.OffshoreStart || degrees <= t.OffshoreEnd
}

// IsOffshore reports offshore wind strong enough to matter (>= 12 kts).
func (t Thresholds) IsOffshore(r Reading) bool {
	if r.Speed == nil || r.Direction == nil {
		return false
	}
	return t.InOffshoreArc(*r.Direction) && *r.Speed >= t.OffshoreMin
}

// IsGood reports navigable wind for a subscriber's minimum. The offshore
// arc excludes the reading no matter how light the wind is.
func (t Thresholds) IsGood(r Reading, minNavigableWind float64) bool {
	if r.Speed == nil || r.Direction == nil {
		return false
	}
	return *r.Speed >= minNavigableWind && *r.Speed <= t.MaxGoodWind &&
		!t.InOffshoreArc(*r.Direction)
}

// IsWindUpEdge reports the transition where the previous reading was below
// the subscriber's minimum and the current one reached it. Edge-triggered:
// a previous reading is required.
func (t Thresholds) IsWindUpEdge(prev, current Reading, minNavigableWind float64) bool {
	if prev.Speed == nil || current.Speed == nil {
		return false
	}
	return *prev.Speed < minNavigableWind && *current.Speed >= minNavigableWind
}

// IsNavigable reports whether the current speed holds at or above the
// subscriber's minimum. Used to keep a wind-up episode alive after the edge.
func (t Thresholds) IsNavigable(r Reading, minNavigableWind float64) bool {
	return r.Speed != nil && *r.Speed >= minNavigableWind
}
