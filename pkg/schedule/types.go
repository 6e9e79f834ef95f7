// Package schedule implements the ordered set of schedule points a tank
// owner authors, their resolution against today's astronomical times, and
// piecewise-linear interpolation across a cyclic 1440-minute day.
package schedule

import "fmt"

// TimeType is the discriminant of a SchedulePoint: either a fixed
// wall-clock minute or an anchor to one of the astronomical events the
// astro engine publishes each day.
type TimeType int

const (
	Fixed TimeType = iota
	SunriseRel
	SunsetRel
	SolarNoon
	CivilDawn
	CivilDusk
	NauticalDawn
	NauticalDusk
	AstronomicalDawn
	AstronomicalDusk
)

func (t TimeType) String() string {
	switch t {
	case Fixed:
		return "FIXED"
	case SunriseRel:
		return "SUNRISE_REL"
	case SunsetRel:
		return "SUNSET_REL"
	case SolarNoon:
		return "SOLAR_NOON"
	case CivilDawn:
		return "CIVIL_DAWN"
	case CivilDusk:
		return "CIVIL_DUSK"
	case NauticalDawn:
		return "NAUTICAL_DAWN"
	case NauticalDusk:
		return "NAUTICAL_DUSK"
	case AstronomicalDawn:
		return "ASTRONOMICAL_DAWN"
	case AstronomicalDusk:
		return "ASTRONOMICAL_DUSK"
	default:
		return "UNKNOWN"
	}
}

// ChannelConfig describes one LED driver output. Mutated only by user
// configuration; its lifetime is the process lifetime.
type ChannelConfig struct {
	Name       string
	RGBHex     string // 7-char "#RRGGBB", a display hint only
	MaxCurrent float64 // amps, clamped to [0.1, 2.0]
}

// ClampMaxCurrent enforces the [0.1, 2.0] amp bound on a channel's max current.
func (c *ChannelConfig) ClampMaxCurrent() {
	if c.MaxCurrent < 0.1 {
		c.MaxCurrent = 0.1
	}
	if c.MaxCurrent > 2.0 {
		c.MaxCurrent = 2.0
	}
}

// Point is a schedule point: a tagged time (fixed or astronomically
// anchored) and per-channel PWM/current vectors.
type Point struct {
	TimeType      TimeType
	OffsetMinutes int // meaningful only when TimeType != Fixed, -1439..1439
	TimeMinutes   int // resolved/stored minute-of-day, 0..1439

	PWMValues     []float64 // percent, 0..100, length N
	CurrentValues []float64 // amps, >=0 and <= channel max, length N
}

// Identity returns the key that determines uniqueness for Add/replace
// semantics: (TimeType, OffsetMinutes) for dynamic points, TimeMinutes for
// FIXED points.
func (p Point) Identity() pointIdentity {
	if p.TimeType == Fixed {
		return pointIdentity{timeType: Fixed, key: p.TimeMinutes}
	}
	return pointIdentity{timeType: p.TimeType, key: p.OffsetMinutes}
}

type pointIdentity struct {
	timeType TimeType
	key      int
}

// Validate checks a point's invariants: channel count match, PWM/current
// bounds, and time/offset ranges.
func (p Point) Validate(channels []ChannelConfig) error {
	n := len(channels)
	if len(p.PWMValues) != n || len(p.CurrentValues) != n {
		return fmt.Errorf("schedule point channel count mismatch: got pwm=%d current=%d, want %d",
			len(p.PWMValues), len(p.CurrentValues), n)
	}

	for i := 0; i < n; i++ {
		if p.PWMValues[i] < 0 || p.PWMValues[i] > 100 {
			return fmt.Errorf("channel %d pwm %.2f out of [0,100]", i, p.PWMValues[i])
		}
		if p.CurrentValues[i] < 0 {
			return fmt.Errorf("channel %d current %.3f is negative", i, p.CurrentValues[i])
		}
		if p.CurrentValues[i] > channels[i].MaxCurrent {
			return fmt.Errorf("channel %d current %.3f exceeds max %.3f", i, p.CurrentValues[i], channels[i].MaxCurrent)
		}
	}

	if p.TimeType == Fixed {
		if p.OffsetMinutes != 0 {
			return fmt.Errorf("fixed point must have offset_minutes=0, got %d", p.OffsetMinutes)
		}
		if p.TimeMinutes < 0 || p.TimeMinutes >= 1440 {
			return fmt.Errorf("fixed point time_minutes %d out of [0,1440)", p.TimeMinutes)
		}
	} else {
		if p.OffsetMinutes < -1439 || p.OffsetMinutes > 1439 {
			return fmt.Errorf("dynamic point offset_minutes %d out of [-1439,1439]", p.OffsetMinutes)
		}
	}

	return nil
}

// AstronomicalTimes is the read-only snapshot the astro engine publishes
// each refresh, consumed here only to resolve dynamic points.
type AstronomicalTimes struct {
	SunriseMinutes          int
	SunsetMinutes           int
	SolarNoonMinutes        int
	CivilDawnMinutes        int
	CivilDuskMinutes        int
	NauticalDawnMinutes     int
	NauticalDuskMinutes     int
	AstronomicalDawnMinutes int
	AstronomicalDuskMinutes int
	MoonriseMinutes         int
	MoonsetMinutes          int
	MoonPhase               float64
	Valid                   bool
}

func (a AstronomicalTimes) anchor(t TimeType) (int, bool) {
	switch t {
	case SunriseRel:
		return a.SunriseMinutes, true
	case SunsetRel:
		return a.SunsetMinutes, true
	case SolarNoon:
		return a.SolarNoonMinutes, true
	case CivilDawn:
		return a.CivilDawnMinutes, true
	case CivilDusk:
		return a.CivilDuskMinutes, true
	case NauticalDawn:
		return a.NauticalDawnMinutes, true
	case NauticalDusk:
		return a.NauticalDuskMinutes, true
	case AstronomicalDawn:
		return a.AstronomicalDawnMinutes, true
	case AstronomicalDusk:
		return a.AstronomicalDuskMinutes, true
	default:
		return 0, false
	}
}

// MoonSimulation configures the moonlight overlay injected when the scene
// is otherwise dark and the moon is above the horizon.
type MoonSimulation struct {
	Enabled              bool
	BaseIntensityPWM     []float64 // percent per channel
	BaseCurrent          []float64 // amps per channel
	PhaseScalingPWM      bool
	PhaseScalingCurrent  bool
	MinCurrentThreshold  float64 // amps
}
