package schedule

// Result is the per-channel output of interpolating the schedule at a
// given minute-of-day, before the moon overlay and current clamp are
// applied.
type Result struct {
	PWM     []float64
	Current []float64
	Valid   bool
}

func zeroResult(n int) Result {
	return Result{PWM: make([]float64, n), Current: make([]float64, n), Valid: false}
}

// Interpolate evaluates the resolved, minute-sorted sequence at minute t
// (0..1439) using piecewise-linear interpolation on the cyclic
// 1440-minute day: a point before the first resolved point wraps back to
// the last point of the previous day, and a point after the last wraps
// forward to the first point of the next day. This cyclic wrap policy
// generalizes better than a midnight-anchored one for schedules whose
// resolved point set shifts daily.
func Interpolate(resolved []resolvedPoint, channelCount int, t int) Result {
	n := channelCount

	switch len(resolved) {
	case 0:
		return zeroResult(n)
	case 1:
		p := resolved[0]
		return Result{PWM: cloneFloats(p.pwmValues), Current: cloneFloats(p.currentValues), Valid: true}
	}

	before, after, beforeMinute, afterMinute := bracket(resolved, t)

	span := floorMod(afterMinute-beforeMinute, 1440)
	if span == 0 {
		span = 1440
	}
	elapsed := floorMod(t-beforeMinute, 1440)
	ratio := float64(elapsed) / float64(span)

	pwm := make([]float64, n)
	current := make([]float64, n)
	for i := 0; i < n; i++ {
		pwm[i] = lerp(before.pwmValues[i], after.pwmValues[i], ratio)
		current[i] = lerp(before.currentValues[i], after.currentValues[i], ratio)
	}

	return Result{PWM: pwm, Current: current, Valid: true}
}

// bracket finds the pair of resolved points straddling t, wrapping around
// midnight when t falls before the first point or after the last.
func bracket(resolved []resolvedPoint, t int) (before, after resolvedPoint, beforeMinute, afterMinute int) {
	k := len(resolved)

	if t < resolved[0].minute {
		before = resolved[k-1]
		after = resolved[0]
		return before, after, before.minute - 1440, after.minute
	}
	if t >= resolved[k-1].minute {
		before = resolved[k-1]
		after = resolved[0]
		return before, after, before.minute, after.minute + 1440
	}

	for i := 0; i < k-1; i++ {
		if resolved[i].minute <= t && t <= resolved[i+1].minute {
			return resolved[i], resolved[i+1], resolved[i].minute, resolved[i+1].minute
		}
	}

	// Unreachable given the bounds checks above, but keep interpolation
	// total rather than panicking on a logic error.
	last := resolved[k-1]
	return last, last, last.minute, last.minute
}

func lerp(a, b, ratio float64) float64 {
	return a + ratio*(b-a)
}

func cloneFloats(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	return out
}
