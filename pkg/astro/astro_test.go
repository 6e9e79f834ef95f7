package astro

import "testing"

// TestJulianDayMonotonic pins the invariant that Julian day is strictly
// monotonic in civil date-time:
// julian_day(dt) is strictly monotonic in dt.
func TestJulianDayMonotonic(t *testing.T) {
	a := JulianDay(DateTime{Year: 2025, Month: 6, Day: 21, Hour: 12, Minute: 0, Second: 0}, 0)
	b := JulianDay(DateTime{Year: 2025, Month: 6, Day: 21, Hour: 12, Minute: 1, Second: 0}, 0)
	c := JulianDay(DateTime{Year: 2025, Month: 6, Day: 22, Hour: 0, Minute: 0, Second: 0}, 0)

	if !(a < b && b < c) {
		t.Fatalf("expected a < b < c, got a=%v b=%v c=%v", a, b, c)
	}
}

func TestJulianDayUTCOffset(t *testing.T) {
	dt := DateTime{Year: 2025, Month: 1, Day: 1, Hour: 0, Minute: 0, Second: 0}
	utc := JulianDay(dt, 0)
	behind := JulianDay(dt, -7) // local is behind UTC; converting adds time
	if behind <= utc {
		t.Fatalf("expected UTC-7 local midnight to be a later JD than UTC midnight, got %v vs %v", behind, utc)
	}
}

// TestSunRiseSetSanFrancisco pins a known sunrise/sunset for San Francisco,
// summer solstice, rise/set within ±5 minutes of 05:47 and 20:34 local
// (UTC-7).
func TestSunRiseSetSanFrancisco(t *testing.T) {
	loc := Location{Latitude: 37.7749, Longitude: -122.4194}
	date := DateTime{Year: 2025, Month: 6, Day: 21}

	rs := SunRiseSet(date, -7, loc, Projection{}, altSunRiseSet)
	if !rs.RiseValid || !rs.SetValid {
		t.Fatalf("expected valid rise/set, got %+v", rs)
	}

	wantRise := 5*60 + 47
	wantSet := 20*60 + 34

	if diff := absInt(rs.RiseMinutes - wantRise); diff > 5 {
		t.Errorf("sunrise %d minutes from expected %d (diff %d > tolerance)", rs.RiseMinutes, wantRise, diff)
	}
	if diff := absInt(rs.SetMinutes - wantSet); diff > 5 {
		t.Errorf("sunset %d minutes from expected %d (diff %d > tolerance)", rs.SetMinutes, wantSet, diff)
	}
}

// TestMoonPhaseFullMoon pins a known full-moon landmark: 2025-03-14 12:00 UTC
// is a full moon, expect phase within ±0.05 of 0.5.
func TestMoonPhaseFullMoon(t *testing.T) {
	phase := MoonPhase(DateTime{Year: 2025, Month: 3, Day: 14, Hour: 12, Minute: 0, Second: 0}, 0)
	if diff := absFloat(phase - 0.5); diff > 0.05 {
		t.Errorf("expected phase near 0.5 (full moon), got %v (diff %v)", phase, diff)
	}
}

func TestSunIntensityMonotonicAboveHorizon(t *testing.T) {
	prev := SunIntensity(-10)
	for alt := -6.0; alt <= 90.0; alt += 6.0 {
		cur := SunIntensity(alt)
		if cur < prev-1e-9 {
			t.Errorf("sun intensity decreased from %v to %v going from lower to higher altitude %v", prev, cur, alt)
		}
		prev = cur
	}
}

func TestSunIntensityZeroBelowMinus6(t *testing.T) {
	if got := SunIntensity(-10); got != 0 {
		t.Errorf("expected 0 intensity at -10 deg altitude, got %v", got)
	}
}

func TestMoonIntensityZeroBelowHorizon(t *testing.T) {
	if got := MoonIntensity(-5, 0.5); got != 0 {
		t.Errorf("expected 0 moon intensity below horizon, got %v", got)
	}
}

func TestMoonIntensityPeaksAtFull(t *testing.T) {
	full := MoonIntensity(45, 0.5)
	crescent := MoonIntensity(45, 0.1)
	if full <= crescent {
		t.Errorf("expected full moon intensity (%v) to exceed crescent (%v) at same altitude", full, crescent)
	}
}

func TestProjectedJDIdentityWhenDisabled(t *testing.T) {
	loc := Location{Latitude: 10, Longitude: 20}
	jd := 2451545.0
	if got := projectedJD(jd, loc, Projection{Enabled: false}); got != jd {
		t.Errorf("expected no-op projection to return jd unchanged, got %v want %v", got, jd)
	}
}

func TestProjectedJDShifts(t *testing.T) {
	loc := Location{Latitude: 10, Longitude: 0}
	jd := 2451545.0
	proj := Projection{Enabled: true, ShiftHours: 6}
	got := projectedJD(jd, loc, proj)
	want := jd + 6.0/24.0
	if absFloat(got-want) > 1e-9 {
		t.Errorf("expected shifted JD %v, got %v", want, got)
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
