package astro

import "math"

// moonSeries holds the intermediate ELP-abridged arguments shared by the
// longitude, latitude, and phase computations for a given Julian Day.
type moonSeries struct {
	lonDeg float64 // geocentric ecliptic longitude, degrees
	latDeg float64 // geocentric ecliptic latitude, degrees
}

// moonPositionEcliptic computes the Moon's geocentric ecliptic longitude
// and latitude via the Meeus ELP2000-82 abridged theory: mean longitude,
// mean elongation from the sun, sun's mean anomaly, moon's mean anomaly,
// argument of latitude, three additional perturbation arguments (A1, A2,
// A3), the Earth-orbit eccentricity correction E, and a sum of periodic
// longitude/latitude terms, each corrected by E or E^2 where the term
// involves the solar mean anomaly M.
func moonPositionEcliptic(jd float64) moonSeries {
	t := julianCentury(jd)

	lp := normalizeDeg(218.3164477 + 481267.88123421*t - 0.0015786*t*t)
	d := normalizeDeg(297.8501921 + 445267.1114034*t - 0.0018819*t*t)
	m := normalizeDeg(357.5291092 + 35999.0502909*t - 0.0001536*t*t)
	mp := normalizeDeg(134.9633964 + 477198.8675055*t + 0.0089970*t*t)
	f := normalizeDeg(93.2720950 + 483202.0175233*t - 0.0036539*t*t)

	a1 := normalizeDeg(119.75 + 131.849*t)
	a2 := normalizeDeg(53.09 + 479264.290*t)
	a3 := normalizeDeg(313.45 + 481266.484*t)

	e := 1 - 0.002516*t - 0.0000074*t*t

	// Periodic terms for longitude (sigma_l, units 10^-6 deg) and latitude
	// (sigma_b, same units). Each row is {d, m, mp, f, coefficient}; the
	// coefficient is scaled by e or e^2 when |m| == 1 or 2 respectively.
	type term struct {
		d, m, mp, f float64
		coeff       float64
	}

	longitudeTerms := []term{
		{0, 0, 1, 0, 6288774},
		{2, 0, -1, 0, 1274027},
		{2, 0, 0, 0, 658314},
		{0, 0, 2, 0, 213618},
		{0, 1, 0, 0, -185116},
		{0, 0, 0, 2, -114332},
		{2, 0, -2, 0, 58793},
		{2, -1, -1, 0, 57066},
		{2, 0, 1, 0, 53322},
		{2, -1, 0, 0, 45758},
		{0, 1, -1, 0, -40923},
		{1, 0, 0, 0, -34720},
		{0, 1, 1, 0, -30383},
		{1, 1, -1, 0, -3699},
		{0, 0, 1, 2, -12528},
		{0, 0, 1, -2, 10980},
		{4, 0, -1, 0, 10675},
		{0, 0, 3, 0, 10034},
		{4, 0, -2, 0, 8548},
		{2, 1, -1, 0, -7888},
		{2, 1, 0, 0, -6766},
		{1, 0, -1, 0, -5163},
		{1, 1, 0, 0, 4987},
		{2, -1, 1, 0, 4036},
	}

	latitudeTerms := []term{
		{0, 0, 0, 1, 5128122},
		{0, 0, 1, 1, 280602},
		{0, 0, 1, -1, 277693},
		{2, 0, 0, -1, 173237},
		{2, 0, -1, 1, 55413},
		{2, 0, -1, -1, 46271},
		{2, 0, 0, 1, 32573},
		{0, 0, 2, 1, 17198},
		{2, 0, 1, -1, 9266},
		{0, 0, 2, -1, 8822},
		{2, -1, 0, -1, 8216},
		{2, 0, -2, -1, 4324},
		{2, 0, 1, 1, 4200},
	}

	sumLon := 0.0
	for _, tm := range longitudeTerms {
		arg := tm.d*d + tm.m*m + tm.mp*mp + tm.f*f
		c := tm.coeff
		switch math.Abs(tm.m) {
		case 1:
			c *= e
		case 2:
			c *= e * e
		}
		sumLon += c * sinDeg(arg)
	}
	// Additional terms depending on A1/A2/A3, per Meeus ch.47.
	sumLon += 3958 * sinDeg(a1)
	sumLon += 1962 * sinDeg(lp-f)
	sumLon += 318 * sinDeg(a2)

	sumLat := 0.0
	for _, tm := range latitudeTerms {
		arg := tm.d*d + tm.m*m + tm.mp*mp + tm.f*f
		c := tm.coeff
		switch math.Abs(tm.m) {
		case 1:
			c *= e
		case 2:
			c *= e * e
		}
		sumLat += c * sinDeg(arg)
	}
	sumLat += -2235 * sinDeg(lp)
	sumLat += 382 * sinDeg(a3)
	sumLat += 175 * sinDeg(a1-f)
	sumLat += 175 * sinDeg(a1+f)
	sumLat += 127 * sinDeg(lp-mp)
	sumLat += -115 * sinDeg(lp+mp)

	lonDeg := normalizeDeg(lp + sumLon/1000000.0)
	latDeg := sumLat / 1000000.0

	// Nutation in longitude, dominant term only: Delta-psi ~= -17.20"*sin(Omega).
	omega := normalizeDeg(125.04452 - 1934.136261*t)
	dpsiDeg := -17.20 / 3600.0 * sinDeg(omega)
	lonDeg = normalizeDeg(lonDeg + dpsiDeg)

	return moonSeries{lonDeg: lonDeg, latDeg: latDeg}
}

// MoonPosition returns the moon's topocentric horizontal position at a
// Julian Day for a given observer. Topocentric parallax is not applied
// (geocentric is within aquarium-grade tolerance for altitude/azimuth).
func MoonPosition(jd float64, loc Location) Position {
	m := moonPositionEcliptic(jd)
	raDeg, decDeg := eclipticToEquatorial(m.lonDeg, m.latDeg)
	return horizontal(jd, loc, raDeg, decDeg)
}

// MoonPhase returns the moon phase fraction (0.0 = new, 0.5 = full, 1.0 =
// new again) at the given civil date-time and UTC offset.
func MoonPhase(dt DateTime, utcOffsetHours float64) float64 {
	jd := JulianDay(dt, utcOffsetHours)
	sun := sunPositionEquatorial(jd)
	moon := moonPositionEcliptic(jd)

	phaseAngle := normalizeDeg(moon.lonDeg - sun.trueLongitudeDeg)
	return phaseAngle / 360.0
}

// MoonIntensity maps altitude (degrees) and phase fraction to a unitless
// 0..1 brightness envelope: zero below the horizon, otherwise scaled by
// how close the phase is to full.
func MoonIntensity(altitudeDeg, phase float64) float64 {
	if altitudeDeg <= 0 {
		return 0
	}
	phaseFactor := 1 - math.Abs(phase-0.5)*2
	return math.Sin(altitudeDeg*degToRad) * (0.1 + 0.9*phaseFactor)
}
