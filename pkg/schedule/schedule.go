package schedule

import "sort"

// Schedule is the ordered set of user-authored points for N channels. The
// stored order is insertion order; resolution and interpolation always
// re-sort by resolved minute, so callers never need to maintain order
// themselves.
type Schedule struct {
	Channels []ChannelConfig
	Points   []Point
}

// NewSchedule builds an empty schedule for the given channel configs.
func NewSchedule(channels []ChannelConfig) *Schedule {
	return &Schedule{Channels: channels}
}

// Add validates a point, then removes any existing point with the same
// identity and inserts the new one. Never panics on bad input — validation
// failures are returned as an error for the caller to log and drop.
func (s *Schedule) Add(p Point) error {
	if err := p.Validate(s.Channels); err != nil {
		return err
	}
	s.Remove(p.Identity())
	s.Points = append(s.Points, p)
	return nil
}

// Remove deletes any point matching identity. It never errors; removing a
// nonexistent point is a no-op.
func (s *Schedule) Remove(id pointIdentity) {
	out := s.Points[:0]
	for _, p := range s.Points {
		if p.Identity() != id {
			out = append(out, p)
		}
	}
	s.Points = out
}

// resolvedPoint is a point with its minute-of-day resolved against today's
// astronomical times, ready for interpolation.
type resolvedPoint struct {
	minute        int
	pwmValues     []float64
	currentValues []float64
}

// ResolveMinute computes the minute-of-day a single point falls at given
// today's AstronomicalTimes: FIXED points return their own stored
// TimeMinutes unchanged; dynamic points return (anchor + offset) mod 1440.
// ok is false only if astro has no value published for p.TimeType.
// Exported so callers outside the interpolation path (persistence export)
// can compute the same cached resolved time_minutes spec.md describes
// without duplicating the anchor lookup.
func ResolveMinute(p Point, astro AstronomicalTimes) (minute int, ok bool) {
	if p.TimeType == Fixed {
		return p.TimeMinutes, true
	}
	anchor, ok := astro.anchor(p.TimeType)
	if !ok {
		return 0, false
	}
	return floorMod(anchor+p.OffsetMinutes, 1440), true
}

// Resolve computes the resolved, minute-sorted sequence of points for the
// given astronomical times. The schedule itself is never mutated, and
// resolving twice with the same AstronomicalTimes yields an identical
// sequence (a determinism guarantee callers rely on).
func (s *Schedule) Resolve(astro AstronomicalTimes) []resolvedPoint {
	out := make([]resolvedPoint, 0, len(s.Points))

	for _, p := range s.Points {
		minute, ok := ResolveMinute(p, astro)
		if !ok {
			continue
		}
		out = append(out, resolvedPoint{
			minute:        minute,
			pwmValues:     p.PWMValues,
			currentValues: p.CurrentValues,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].minute < out[j].minute })

	return out
}

func floorMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
