package schedule

import "testing"

func twoChannelConfig() []ChannelConfig {
	return []ChannelConfig{
		{Name: "Royal Blue", MaxCurrent: 2.0},
		{Name: "Cool White", MaxCurrent: 1.5},
	}
}

// TestInterpolateLinearBetweenFixedPoints reproduces the two-fixed-point scenario:
// at 09:00 pwm=[0,0] curr=[0,0]; at 11:00 pwm=[100,50] curr=[2.0,1.0]; at
// 10:00 expect pwm=[50,25] curr=[1.0,0.5].
func TestInterpolateLinearBetweenFixedPoints(t *testing.T) {
	s := NewSchedule(twoChannelConfig())
	mustAdd(t, s, Point{TimeType: Fixed, TimeMinutes: 9 * 60, PWMValues: []float64{0, 0}, CurrentValues: []float64{0, 0}})
	mustAdd(t, s, Point{TimeType: Fixed, TimeMinutes: 11 * 60, PWMValues: []float64{100, 50}, CurrentValues: []float64{2.0, 1.0}})

	resolved := s.Resolve(AstronomicalTimes{})
	result := Interpolate(resolved, 2, 10*60)

	wantPWM := []float64{50, 25}
	wantCurrent := []float64{1.0, 0.5}

	for i := range wantPWM {
		if !almostEqual(result.PWM[i], wantPWM[i]) {
			t.Errorf("pwm[%d] = %v, want %v", i, result.PWM[i], wantPWM[i])
		}
		if !almostEqual(result.Current[i], wantCurrent[i]) {
			t.Errorf("current[%d] = %v, want %v", i, result.Current[i], wantCurrent[i])
		}
	}
}

// TestCyclicWrapBeforeFirstPoint pins the chosen cyclic wrap policy: the
// cyclic wrap, not edge-to-midnight. Before 09:00, the first point of the
// 09:00-11:00 two-point schedule, interpolation must follow the wrap from
// the prior day's 11:00 point, not jump to (0,0).
func TestCyclicWrapBeforeFirstPoint(t *testing.T) {
	s := NewSchedule(twoChannelConfig())
	mustAdd(t, s, Point{TimeType: Fixed, TimeMinutes: 9 * 60, PWMValues: []float64{0, 0}, CurrentValues: []float64{0, 0}})
	mustAdd(t, s, Point{TimeType: Fixed, TimeMinutes: 11 * 60, PWMValues: []float64{100, 50}, CurrentValues: []float64{2.0, 1.0}})

	resolved := s.Resolve(AstronomicalTimes{})

	// 08:59 is one minute before the first point, wrapping back through
	// the 11:00 point of the previous day across a 1320-minute span: 1319
	// of those 1320 minutes have already elapsed, so the value should sit
	// just short of the 09:00 point's own value (0), not jump to (0,0)
	// outright via a midnight-anchored policy (which would behave
	// differently deeper in the night).
	result := Interpolate(resolved, 2, 9*60-1)
	if !result.Valid {
		t.Fatal("expected valid result")
	}
	if result.PWM[0] > 1 {
		t.Errorf("expected cyclic wrap to have nearly reached the 09:00 value by 08:59, got pwm[0]=%v", result.PWM[0])
	}

	// At 23:00 — roughly mid-span of the wrap between 11:00 and the next
	// day's 09:00 — the cyclic policy should show a value clearly between
	// the two endpoints, which an edge-to-midnight policy could not
	// produce since it treats everything outside the schedule as 0.
	mid := Interpolate(resolved, 2, 23*60)
	if mid.PWM[0] <= 1 || mid.PWM[0] >= 99 {
		t.Errorf("expected mid-wrap pwm strictly between endpoints, got %v", mid.PWM[0])
	}
}

// TestSinglePointReturnsExactly pins the invariant that a schedule
// with a single point returns exactly that point's vectors for all t.
func TestSinglePointReturnsExactly(t *testing.T) {
	s := NewSchedule(twoChannelConfig())
	mustAdd(t, s, Point{TimeType: Fixed, TimeMinutes: 500, PWMValues: []float64{42, 7}, CurrentValues: []float64{1.1, 0.2}})

	resolved := s.Resolve(AstronomicalTimes{})
	for _, t2 := range []int{0, 1, 500, 900, 1439} {
		result := Interpolate(resolved, 2, t2)
		if !result.Valid {
			t.Fatalf("expected valid result at t=%d", t2)
		}
		if result.PWM[0] != 42 || result.PWM[1] != 7 {
			t.Errorf("at t=%d expected pwm [42 7], got %v", t2, result.PWM)
		}
		if result.Current[0] != 1.1 || result.Current[1] != 0.2 {
			t.Errorf("at t=%d expected current [1.1 0.2], got %v", t2, result.Current)
		}
	}
}

func TestEmptyScheduleReturnsZeroInvalid(t *testing.T) {
	s := NewSchedule(twoChannelConfig())
	resolved := s.Resolve(AstronomicalTimes{})
	result := Interpolate(resolved, 2, 600)
	if result.Valid {
		t.Error("expected invalid result for empty schedule")
	}
	for _, v := range result.PWM {
		if v != 0 {
			t.Errorf("expected zero pwm, got %v", v)
		}
	}
}

// TestDynamicResolution reproduces the sunrise/solar-noon/sunset resolution scenario.
func TestDynamicResolution(t *testing.T) {
	s := NewSchedule(twoChannelConfig())
	mustAdd(t, s, Point{TimeType: SunriseRel, OffsetMinutes: -30, PWMValues: []float64{5, 5}, CurrentValues: []float64{0.1, 0.1}})
	mustAdd(t, s, Point{TimeType: SolarNoon, OffsetMinutes: 0, PWMValues: []float64{85, 85}, CurrentValues: []float64{1.8, 1.0}})
	mustAdd(t, s, Point{TimeType: SunsetRel, OffsetMinutes: 30, PWMValues: []float64{5, 5}, CurrentValues: []float64{0.1, 0.1}})

	astro := AstronomicalTimes{SunriseMinutes: 420, SolarNoonMinutes: 750, SunsetMinutes: 1080}
	resolved := s.Resolve(astro)

	wantMinutes := []int{390, 750, 1110}
	if len(resolved) != 3 {
		t.Fatalf("expected 3 resolved points, got %d", len(resolved))
	}
	for i, want := range wantMinutes {
		if resolved[i].minute != want {
			t.Errorf("resolved[%d].minute = %d, want %d", i, resolved[i].minute, want)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	s := NewSchedule(twoChannelConfig())
	mustAdd(t, s, Point{TimeType: SunriseRel, OffsetMinutes: -30, PWMValues: []float64{5, 5}, CurrentValues: []float64{0.1, 0.1}})
	mustAdd(t, s, Point{TimeType: SolarNoon, OffsetMinutes: 0, PWMValues: []float64{85, 85}, CurrentValues: []float64{1.8, 1.0}})

	astro := AstronomicalTimes{SunriseMinutes: 420, SolarNoonMinutes: 750, SunsetMinutes: 1080}
	r1 := s.Resolve(astro)
	r2 := s.Resolve(astro)

	if len(r1) != len(r2) {
		t.Fatalf("resolved length differs across calls")
	}
	for i := range r1 {
		if r1[i].minute != r2[i].minute {
			t.Errorf("resolved[%d] differs: %d vs %d", i, r1[i].minute, r2[i].minute)
		}
	}
}

func TestAddReplacesSameIdentity(t *testing.T) {
	s := NewSchedule(twoChannelConfig())
	mustAdd(t, s, Point{TimeType: Fixed, TimeMinutes: 600, PWMValues: []float64{10, 10}, CurrentValues: []float64{0.1, 0.1}})
	mustAdd(t, s, Point{TimeType: Fixed, TimeMinutes: 600, PWMValues: []float64{90, 90}, CurrentValues: []float64{1.9, 1.4}})

	if len(s.Points) != 1 {
		t.Fatalf("expected replace to keep schedule at 1 point, got %d", len(s.Points))
	}
	if s.Points[0].PWMValues[0] != 90 {
		t.Errorf("expected replaced point to win, got %v", s.Points[0].PWMValues)
	}
}

func TestValidateRejectsOutOfRangeCurrent(t *testing.T) {
	s := NewSchedule(twoChannelConfig())
	err := s.Add(Point{TimeType: Fixed, TimeMinutes: 600, PWMValues: []float64{10, 10}, CurrentValues: []float64{3.0, 0.1}})
	if err == nil {
		t.Fatal("expected validation error for current exceeding channel max")
	}
	if len(s.Points) != 0 {
		t.Error("rejected point must not be added")
	}
}

func TestMoonOverlayFiresOnlyWhenDarkAndVisible(t *testing.T) {
	moon := MoonSimulation{
		Enabled:             true,
		BaseIntensityPWM:    []float64{2, 2},
		BaseCurrent:         []float64{0.01, 0.01},
		PhaseScalingPWM:     true,
		PhaseScalingCurrent: true,
		MinCurrentThreshold: 0.02,
	}
	astro := AstronomicalTimes{Valid: true, MoonriseMinutes: 1200, MoonsetMinutes: 300, MoonPhase: 0.5}

	dark := Result{PWM: []float64{0, 0.05}, Current: []float64{0, 0}, Valid: true}
	got := ApplyMoonOverlay(dark, moon, astro, 0) // midnight, moon visible via wrap window
	if got.PWM[0] == dark.PWM[0] {
		t.Error("expected overlay to fire and replace pwm values")
	}
	if !almostEqual(got.Current[0], moon.MinCurrentThreshold) {
		t.Errorf("expected current raised to threshold %v, got %v", moon.MinCurrentThreshold, got.Current[0])
	}

	// 12:00 lies outside the 20:00-05:00 moon window: no overlay even
	// though the scene is dark.
	daytime := ApplyMoonOverlay(dark, moon, astro, 12*60)
	if daytime.PWM[0] != dark.PWM[0] {
		t.Error("expected overlay to not fire when the moon is not visible")
	}

	bright := Result{PWM: []float64{50, 50}, Current: []float64{1, 1}, Valid: true}
	notOverlaid := ApplyMoonOverlay(bright, moon, astro, 0)
	if notOverlaid.PWM[0] != bright.PWM[0] {
		t.Error("expected overlay to not fire when scene is not dark")
	}
}

func mustAdd(t *testing.T, s *Schedule, p Point) {
	t.Helper()
	if err := s.Add(p); err != nil {
		t.Fatalf("unexpected Add error: %v", err)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
