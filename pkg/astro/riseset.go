package astro

// Altitude thresholds at which rise/set events are detected. Both bake in
// atmospheric refraction plus the body's angular semi-diameter.
const (
	altSunRiseSet  = -0.833  // -(34' refraction + 16' semi-diameter)
	altMoonRiseSet = -0.825  // -(34' refraction + 15.5' semi-diameter)

	civilTwilightAlt        = -6.0
	nauticalTwilightAlt     = -12.0
	astronomicalTwilightAlt = -18.0
)

// RiseSet is a single rise/set pair, each as minute-of-day, or Valid=false
// if the corresponding event could not be found for the day.
type RiseSet struct {
	RiseMinutes int
	RiseValid   bool
	SetMinutes  int
	SetValid    bool
}

// altitudeSampler evaluates a body's altitude at minute m of the given local day,
// at the supplied UTC offset, optionally projected.
type altitudeSampler func(minuteOfDay int) float64

func sunAltitudeSampler(date DateTime, utcOffsetHours float64, loc Location, proj Projection) altitudeSampler {
	return func(minuteOfDay int) float64 {
		jd := julianDayAtMinute(date, utcOffsetHours, minuteOfDay)
		jd = projectedJD(jd, loc, proj)
		return SunPosition(jd, loc).AltitudeDeg
	}
}

func moonAltitudeSampler(date DateTime, utcOffsetHours float64, loc Location, proj Projection) altitudeSampler {
	return func(minuteOfDay int) float64 {
		jd := julianDayAtMinute(date, utcOffsetHours, minuteOfDay)
		jd = projectedJD(jd, loc, proj)
		return MoonPosition(jd, loc).AltitudeDeg
	}
}

// julianDayAtMinute returns the JD for `date` at hour/minute derived from
// minuteOfDay, which may be negative or exceed 1439 for extended windows
// (the moon sampler scans -720..+2160 minutes around local midnight).
func julianDayAtMinute(date DateTime, utcOffsetHours float64, minuteOfDay int) float64 {
	dayOffset := 0
	m := minuteOfDay
	for m < 0 {
		m += 1440
		dayOffset--
	}
	for m >= 1440 {
		m -= 1440
		dayOffset++
	}
	dt := DateTime{
		Year:   date.Year,
		Month:  date.Month,
		Day:    date.Day,
		Hour:   m / 60,
		Minute: m % 60,
		Second: 0,
	}
	return JulianDay(dt, utcOffsetHours) + float64(dayOffset)
}

// projectedJD applies §4.1's projection transform: JD_proj = JD + shift/24
// - longitude/(15*24). Evaluating the sky at this shifted instant makes the
// configured remote reef's sunrise land at the local clock time the user
// requested.
func projectedJD(jd float64, loc Location, proj Projection) float64 {
	if !proj.Enabled {
		return jd
	}
	shiftHours := float64(proj.ShiftHours) + float64(proj.ShiftMinutes)/60.0
	return jd + shiftHours/24.0 - loc.Longitude/15.0/24.0
}

// findRiseSet samples altitude across [start, start+window] minutes at the
// given step, looking for the first upward crossing of threshold (rise)
// and the first downward crossing (set), refining each by linear
// interpolation between the bracketing samples.
func findRiseSet(sample altitudeSampler, start, window, step int, threshold float64) RiseSet {
	result := RiseSet{}

	prevMinute := start
	prevAlt := sample(start)

	for m := start + step; m <= start+window; m += step {
		alt := sample(m)

		if !result.RiseValid && prevAlt < threshold && alt >= threshold {
			result.RiseMinutes = refineCrossing(prevMinute, prevAlt, m, alt, threshold)
			result.RiseValid = true
		}
		if !result.SetValid && prevAlt >= threshold && alt < threshold {
			result.SetMinutes = refineCrossing(prevMinute, prevAlt, m, alt, threshold)
			result.SetValid = true
		}

		prevMinute, prevAlt = m, alt
	}

	return result
}

// refineCrossing linearly interpolates the minute at which altitude crosses
// threshold between two bracketing samples.
func refineCrossing(m0 int, alt0 float64, m1 int, alt1 float64, threshold float64) int {
	if alt1 == alt0 {
		return m0
	}
	ratio := (threshold - alt0) / (alt1 - alt0)
	minute := float64(m0) + ratio*float64(m1-m0)
	return floorMod(int(minute+0.5), 1440)
}

// SunRiseSet finds today's sunrise and sunset (or any threshold altitude,
// reused for twilight boundaries) by 15-minute sampling across the local
// day.
func SunRiseSet(date DateTime, utcOffsetHours float64, loc Location, proj Projection, thresholdAlt float64) RiseSet {
	sample := sunAltitudeSampler(date, utcOffsetHours, loc, proj)
	return findRiseSet(sample, 0, 1440, 15, thresholdAlt)
}

// MoonRiseSet finds the best moonrise/moonset pair for the local day by
// 5-minute sampling over an extended window (-12h to +36h around local
// midnight), then applying the aquarium-tuned scoring policy
// to select the best candidate pair when several rises occur in the
// window.
func MoonRiseSet(date DateTime, utcOffsetHours float64, loc Location, proj Projection) RiseSet {
	sample := moonAltitudeSampler(date, utcOffsetHours, loc, proj)

	start := -12 * 60
	window := (36 - (-12)) * 60
	step := 5

	candidates := findAllCrossings(sample, start, window, step, altMoonRiseSet)
	return selectBestMoonPair(candidates)
}

type crossing struct {
	minute int
	rising bool
}

// findAllCrossings records every up/down crossing in the window, without
// the "first only" restriction findRiseSet applies — the moon scoring
// policy needs every candidate to choose among them.
func findAllCrossings(sample altitudeSampler, start, window, step int, threshold float64) []crossing {
	var out []crossing

	// refineCrossing wraps to 0..1439; shift its result back onto the
	// window's own minute scale so crossings on different days keep their
	// order and the gap between a rise and a later set stays measurable.
	refine := func(m0 int, alt0 float64, m1 int, alt1 float64) int {
		return m0 + floorMod(refineCrossing(m0, alt0, m1, alt1, threshold)-m0, 1440)
	}

	prevMinute := start
	prevAlt := sample(start)

	for m := start + step; m <= start+window; m += step {
		alt := sample(m)
		if prevAlt < threshold && alt >= threshold {
			out = append(out, crossing{minute: refine(prevMinute, prevAlt, m, alt), rising: true})
		}
		if prevAlt >= threshold && alt < threshold {
			out = append(out, crossing{minute: refine(prevMinute, prevAlt, m, alt), rising: false})
		}
		prevMinute, prevAlt = m, alt
	}

	return out
}

// selectBestMoonPair implements the domain-specific scoring rule:
// prefer an evening rise (1080..1439 local minutes, allowing for
// the extended window's offset), prefer rise and set both occurring at
// night (hour in [18,6)), and prefer a paired set 6..15 hours after rise.
// The result is deterministic for a given date and location.
func selectBestMoonPair(candidates []crossing) RiseSet {
	var rises, sets []crossing
	for _, c := range candidates {
		if c.rising {
			rises = append(rises, c)
		} else {
			sets = append(sets, c)
		}
	}
	if len(rises) == 0 {
		return RiseSet{}
	}

	bestScore := -1.0
	best := RiseSet{}

	for _, r := range rises {
		riseLocal := floorMod(r.minute, 1440)

		for _, s := range sets {
			if s.minute <= r.minute {
				continue
			}
			durationHours := float64(s.minute-r.minute) / 60.0

			score := 0.0
			if riseLocal >= 1080 && riseLocal < 1440 {
				score += 3
			}
			riseHour := riseLocal / 60
			if riseHour >= 18 || riseHour < 6 {
				score += 2
			}
			setLocal := floorMod(s.minute, 1440)
			setHour := setLocal / 60
			if setHour >= 18 || setHour < 6 {
				score += 2
			}
			if durationHours >= 6 && durationHours <= 15 {
				score += 1
			}
			// Prefer the earliest candidate pair on ties, for determinism.
			score -= float64(r.minute) * 1e-6

			if score > bestScore {
				bestScore = score
				best = RiseSet{
					RiseMinutes: floorMod(r.minute, 1440),
					RiseValid:   true,
					SetMinutes:  floorMod(s.minute, 1440),
					SetValid:    true,
				}
			}
		}
	}

	return best
}
