package astro

import "math"

// obliquityDeg is the fixed mean obliquity of the ecliptic the engine uses
// for all sun/moon equatorial conversions; spec calls for a fixed value
// rather than the slowly-varying true obliquity, which is accurate enough
// for aquarium-grade rise/set.
const obliquityDeg = 23.439

// sunEquatorial is the sun's geocentric right ascension and declination
// (degrees) at a Julian Day, via a low-precision VSOP-style series.
type sunEquatorial struct {
	raDeg  float64
	decDeg float64
	// trueLongitudeDeg is kept for moon-phase computation, which needs the
	// sun's true ecliptic longitude directly.
	trueLongitudeDeg float64
}

func sunPositionEquatorial(jd float64) sunEquatorial {
	jc := julianCentury(jd)

	// Mean longitude and mean anomaly of the sun (degrees).
	l0 := normalizeDeg(280.46646 + jc*(36000.76983+jc*0.0003032))
	m := 357.52911 + jc*(35999.05029-0.0001537*jc)

	// Equation of center.
	c := sinDeg(m)*(1.914602-jc*(0.004817+0.000014*jc)) +
		sinDeg(2*m)*(0.019993-0.000101*jc) +
		sinDeg(3*m)*0.000289

	trueLongitude := l0 + c

	raDeg, decDeg := eclipticToEquatorial(trueLongitude, 0)

	return sunEquatorial{raDeg: raDeg, decDeg: decDeg, trueLongitudeDeg: normalizeDeg(trueLongitude)}
}

// eclipticToEquatorial converts ecliptic longitude/latitude (degrees) to
// equatorial right ascension/declination (degrees) using the fixed
// obliquity.
func eclipticToEquatorial(lonDeg, latDeg float64) (raDeg, decDeg float64) {
	lonRad := lonDeg * degToRad
	latRad := latDeg * degToRad
	eps := obliquityDeg * degToRad

	sinDec := math.Sin(latRad)*math.Cos(eps) + math.Cos(latRad)*math.Sin(eps)*math.Sin(lonRad)
	decDeg = math.Asin(clamp(sinDec, -1, 1)) * radToDeg

	y := math.Sin(lonRad)*math.Cos(eps) - math.Tan(latRad)*math.Sin(eps)
	x := math.Cos(lonRad)
	raDeg = normalizeDeg(math.Atan2(y, x) * radToDeg)

	return raDeg, decDeg
}

// greenwichMeanSiderealTime returns GMST in degrees for a Julian Day.
func greenwichMeanSiderealTime(jd float64) float64 {
	jc := julianCentury(jd)
	gmst := 280.46061837 + 360.98564736629*(jd-2451545.0) +
		0.000387933*jc*jc - jc*jc*jc/38710000.0
	return normalizeDeg(gmst)
}

// horizontal converts an equatorial position to horizontal (alt/az) for an
// observer, via local sidereal time and hour angle.
func horizontal(jd float64, loc Location, raDeg, decDeg float64) Position {
	lst := normalizeDeg(greenwichMeanSiderealTime(jd) + loc.Longitude)
	ha := normalizeDeg(lst - raDeg)

	haRad := ha * degToRad
	latRad := loc.Latitude * degToRad
	decRad := decDeg * degToRad

	sinAlt := math.Sin(latRad)*math.Sin(decRad) + math.Cos(latRad)*math.Cos(decRad)*math.Cos(haRad)
	altDeg := math.Asin(clamp(sinAlt, -1, 1)) * radToDeg

	y := -math.Sin(haRad)
	x := math.Tan(decRad)*math.Cos(latRad) - math.Sin(latRad)*math.Cos(haRad)
	azDeg := normalizeDeg(math.Atan2(y, x) * radToDeg)

	return Position{AltitudeDeg: altDeg, AzimuthDeg: azDeg}
}

// SunPosition returns the sun's horizontal position at a Julian Day for a
// given observer.
func SunPosition(jd float64, loc Location) Position {
	sun := sunPositionEquatorial(jd)
	return horizontal(jd, loc, sun.raDeg, sun.decDeg)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SunIntensity maps altitude (degrees) to a unitless 0..1 brightness
// envelope, per the engine's aquarium-tuned piecewise curve. It is not a
// physical irradiance model. The moon-overlay gate does not use it; that
// gate tests the interpolated schedule PWM instead.
func SunIntensity(altitudeDeg float64) float64 {
	switch {
	case altitudeDeg <= -6:
		return 0
	case altitudeDeg <= 0:
		return 0.1 * (altitudeDeg + 6) / 6
	case altitudeDeg <= 6:
		return 0.1 + (math.Sin(altitudeDeg*degToRad)-0.1)*altitudeDeg/6
	case altitudeDeg <= 30:
		return math.Sin(altitudeDeg*degToRad) * (0.7 + 0.3*altitudeDeg/30)
	default:
		return math.Sin(altitudeDeg * degToRad)
	}
}
