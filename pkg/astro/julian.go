package astro

import "math"

// JulianDay converts a civil date-time plus a UTC offset (hours, positive
// east) to the Julian Day. This is the only time conversion in the engine;
// every downstream computation takes a JD.
//
// Uses the Gregorian-calendar formula with the Meeus month shift: months
// January and February are treated as months 13 and 14 of the prior year.
func JulianDay(dt DateTime, utcOffsetHours float64) float64 {
	year, month := dt.Year, dt.Month
	if month <= 2 {
		year--
		month += 12
	}

	a := year / 100
	b := 2 - a + a/4

	dayFraction := (float64(dt.Hour) + float64(dt.Minute)/60.0 + float64(dt.Second)/3600.0) / 24.0

	jd := math.Floor(365.25*float64(year+4716)) +
		math.Floor(30.6001*float64(month+1)) +
		float64(dt.Day) + float64(b) - 1524.5 +
		dayFraction

	// Local civil time to UTC.
	jd -= utcOffsetHours / 24.0

	return jd
}

// julianCentury returns the number of Julian centuries since J2000.0.
func julianCentury(jd float64) float64 {
	return (jd - 2451545.0) / 36525.0
}
