package schedule

import "math"

// moonDarkThresholdPWM is the "scene is dark" gate: the overlay only
// fires when every interpolated channel is below this.
const moonDarkThresholdPWM = 0.1

// ApplyMoonOverlay returns simulated moonlight in place of result when
// all of: MoonSimulation is enabled, today's astro snapshot is valid, the
// moon is above the horizon at t, and every interpolated PWM value is
// below the dark threshold. Otherwise result is returned unchanged.
func ApplyMoonOverlay(result Result, moon MoonSimulation, astro AstronomicalTimes, t int) Result {
	if !moon.Enabled || !astro.Valid {
		return result
	}
	if !moonVisible(astro, t) {
		return result
	}
	if !allBelow(result.PWM, moonDarkThresholdPWM) {
		return result
	}

	n := len(result.PWM)
	phaseFactor := 1 - math.Abs(astro.MoonPhase-0.5)*2

	pwm := make([]float64, n)
	current := make([]float64, n)

	for i := 0; i < n; i++ {
		basePWM := valueOr(moon.BaseIntensityPWM, i, 0)
		baseCurrent := valueOr(moon.BaseCurrent, i, 0)

		if moon.PhaseScalingPWM {
			pwm[i] = basePWM * phaseFactor
		} else {
			pwm[i] = basePWM
		}

		if moon.PhaseScalingCurrent {
			current[i] = baseCurrent * phaseFactor
		} else {
			current[i] = baseCurrent
		}

		if current[i] < moon.MinCurrentThreshold {
			current[i] = moon.MinCurrentThreshold
		}
	}

	return Result{PWM: pwm, Current: current, Valid: result.Valid}
}

func allBelow(values []float64, threshold float64) bool {
	for _, v := range values {
		if v >= threshold {
			return false
		}
	}
	return true
}

func valueOr(values []float64, i int, fallback float64) float64 {
	if i < 0 || i >= len(values) {
		return fallback
	}
	return values[i]
}

// moonVisible implements the wrap-aware visibility window: when
// moonrise < moonset, the moon is up during [moonrise, moonset];
// otherwise (the window crosses midnight) it's up outside (moonset,
// moonrise).
func moonVisible(astro AstronomicalTimes, t int) bool {
	if astro.MoonriseMinutes < astro.MoonsetMinutes {
		return t >= astro.MoonriseMinutes && t <= astro.MoonsetMinutes
	}
	return t >= astro.MoonriseMinutes || t <= astro.MoonsetMinutes
}
