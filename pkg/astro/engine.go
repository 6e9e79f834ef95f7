package astro

// Engine computes a full Times snapshot for a given day. It holds no time
// state of its own — the caller (internal/control.Loop) owns the clock and
// decides when to refresh.
type Engine struct {
	Location   Location
	Projection Projection
}

// NewEngine builds an engine for a fixed observer location.
func NewEngine(loc Location, proj Projection) *Engine {
	return &Engine{Location: loc, Projection: proj}
}

// Today computes sunrise/sunset/twilight/moon events and moon phase for the
// civil date in `date` (time-of-day fields are ignored beyond establishing
// the calendar day) at the given UTC offset.
func (e *Engine) Today(date DateTime, utcOffsetHours float64) Times {
	sunAtThreshold := func(alt float64) RiseSet {
		return SunRiseSet(date, utcOffsetHours, e.Location, e.Projection, alt)
	}

	civil := sunAtThreshold(civilTwilightAlt)
	nautical := sunAtThreshold(nauticalTwilightAlt)
	astronomical := sunAtThreshold(astronomicalTwilightAlt)
	sunRiseSet := sunAtThreshold(altSunRiseSet)
	moonRiseSet := MoonRiseSet(date, utcOffsetHours, e.Location, e.Projection)

	noonDate := DateTime{Year: date.Year, Month: date.Month, Day: date.Day, Hour: 12, Minute: 0, Second: 0}
	solarNoonMinutes := solarNoon(noonDate, utcOffsetHours, e.Location, e.Projection)

	phase := MoonPhase(DateTime{Year: date.Year, Month: date.Month, Day: date.Day, Hour: 12, Minute: 0, Second: 0}, utcOffsetHours)

	valid := sunRiseSet.RiseValid && sunRiseSet.SetValid

	t := Times{
		SunriseMinutes:          zeroIfInvalid(sunRiseSet.RiseMinutes, sunRiseSet.RiseValid),
		SunsetMinutes:           zeroIfInvalid(sunRiseSet.SetMinutes, sunRiseSet.SetValid),
		SolarNoonMinutes:        solarNoonMinutes,
		CivilDawnMinutes:        zeroIfInvalid(civil.RiseMinutes, civil.RiseValid),
		CivilDuskMinutes:        zeroIfInvalid(civil.SetMinutes, civil.SetValid),
		NauticalDawnMinutes:     zeroIfInvalid(nautical.RiseMinutes, nautical.RiseValid),
		NauticalDuskMinutes:     zeroIfInvalid(nautical.SetMinutes, nautical.SetValid),
		AstronomicalDawnMinutes: zeroIfInvalid(astronomical.RiseMinutes, astronomical.RiseValid),
		AstronomicalDuskMinutes: zeroIfInvalid(astronomical.SetMinutes, astronomical.SetValid),
		MoonriseMinutes:         zeroIfInvalid(moonRiseSet.RiseMinutes, moonRiseSet.RiseValid),
		MoonsetMinutes:          zeroIfInvalid(moonRiseSet.SetMinutes, moonRiseSet.SetValid),
		MoonPhase:               phase,
		Valid:                   valid,
	}

	if !valid {
		def := DefaultTimes()
		t.SunriseMinutes = def.SunriseMinutes
		t.SunsetMinutes = def.SunsetMinutes
		t.Valid = false
	}

	return t
}

func zeroIfInvalid(minutes int, valid bool) int {
	if !valid {
		return 0
	}
	return minutes
}

// solarNoon finds the minute-of-day at which the sun crosses its highest
// altitude, by scanning the midday window at 1-minute resolution. This is
// cheap because it is bracketed tightly around noon rather than over the
// whole day.
func solarNoon(date DateTime, utcOffsetHours float64, loc Location, proj Projection) int {
	sample := sunAltitudeSampler(date, utcOffsetHours, loc, proj)
	bestMinute := 600
	bestAlt := -999.0
	for m := 600; m <= 900; m++ {
		alt := sample(m)
		if alt > bestAlt {
			bestAlt = alt
			bestMinute = m
		}
	}
	return bestMinute
}
