// Package astro computes sun and moon position, phase, and rise/set times
// for a given civil date-time and geographic location. It targets
// aquarium-grade accuracy (rise/set within a few minutes of truth), not
// observatory precision.
package astro

import "math"

// DateTime is a civil (local) date-time, the only time representation the
// engine accepts. Seconds are accepted for completeness but rise/set
// resolution never needs better than whole minutes.
type DateTime struct {
	Year, Month, Day     int
	Hour, Minute, Second int
}

// Location is an observer position in decimal degrees, WGS-84.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Projection remaps a remote reef's solar day onto the local clock. When
// Enabled, the engine evaluates the sky at a shifted instant so that, e.g.,
// "sunrise at the remote reef" lands at the local time the user configured.
type Projection struct {
	Enabled      bool
	ShiftHours   int
	ShiftMinutes int
}

// Position is a horizontal-coordinate sky position.
type Position struct {
	AltitudeDeg float64
	AzimuthDeg  float64
}

// Times is the published snapshot of today's astronomical events, all as
// minute-of-day (0..1439). Valid is false when sunrise or sunset could not
// be found for the day (e.g. polar latitudes); Engine.Today then substitutes
// DefaultTimes' sunrise and sunset. A missing twilight or moon event reads
// as 0 and does not clear Valid.
type Times struct {
	SunriseMinutes            int
	SunsetMinutes             int
	SolarNoonMinutes          int
	CivilDawnMinutes          int
	CivilDuskMinutes          int
	NauticalDawnMinutes       int
	NauticalDuskMinutes       int
	AstronomicalDawnMinutes   int
	AstronomicalDuskMinutes   int
	MoonriseMinutes         int
	MoonsetMinutes          int
	MoonPhase               float64 // 0.0/1.0 = new, 0.5 = full
	Valid                   bool
}

// DefaultTimes returns the fallback values for when astronomy is
// unresolved: sunrise 07:00, sunset 18:00, everything else zeroed, Valid
// false.
func DefaultTimes() Times {
	return Times{
		SunriseMinutes: 7 * 60,
		SunsetMinutes:  18 * 60,
		Valid:          false,
	}
}

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

func sinDeg(deg float64) float64 { return math.Sin(deg * degToRad) }
func cosDeg(deg float64) float64 { return math.Cos(deg * degToRad) }
func tanDeg(deg float64) float64 { return math.Tan(deg * degToRad) }

// normalizeDeg reduces deg to [0, 360).
func normalizeDeg(deg float64) float64 {
	d := math.Mod(deg, 360.0)
	if d < 0 {
		d += 360.0
	}
	return d
}

// floorMod is a non-negative modulo, used throughout for minute-of-day and
// angle wrap arithmetic.
func floorMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
