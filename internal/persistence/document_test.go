package persistence

import (
	"testing"

	"github.com/aquareef/ledcore/pkg/astro"
	"github.com/aquareef/ledcore/pkg/schedule"
	"github.com/aquareef/ledcore/pkg/thermal"
)

func sampleState() State {
	return State{
		Channels: []schedule.ChannelConfig{
			{Name: "Royal Blue", RGBHex: "#0033CC", MaxCurrent: 1.5},
			{Name: "Cool White", RGBHex: "#FFFFFF", MaxCurrent: 1.2},
		},
		Schedule: []schedule.Point{
			{TimeType: schedule.Fixed, TimeMinutes: 540, PWMValues: []float64{0, 0}, CurrentValues: []float64{0, 0}},
			{TimeType: schedule.SunsetRel, OffsetMinutes: -30, PWMValues: []float64{20, 10}, CurrentValues: []float64{0.5, 0.3}},
		},
		Moon: schedule.MoonSimulation{
			Enabled:             true,
			PhaseScalingPWM:     true,
			PhaseScalingCurrent: false,
			BaseIntensityPWM:    []float64{1, 0.5},
			BaseCurrent:         []float64{0.05, 0.02},
			MinCurrentThreshold: 0.02,
		},
		Temp: thermal.Config{
			TargetC: 25, KP: 2, KI: 0.1, KD: 0,
			MinFanPWM: 0, MaxFanPWM: 100,
			FanUpdateIntervalMs: 1000,
			EmergencyC:          60,
			RecoveryC:           55,
			EmergencyDelayMs:    5000,
			SensorTimeoutMs:     10000,
			TempFilterAlpha:     0.2,
		},
		Timezone:        "America/Los_Angeles",
		TimezoneOffsetH: -7,
		Location:        astro.Location{Latitude: 37.7749, Longitude: -122.4194},
		Projection:      astro.Projection{Enabled: false},
		Enabled:         true,
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	want := sampleState()
	times := astro.DefaultTimes()
	doc := Export(want, times, 600)

	data, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got State
	if err := Import(data, &got); err != nil {
		t.Fatalf("Import: %v", err)
	}

	if len(got.Channels) != len(want.Channels) {
		t.Fatalf("channel count mismatch: got %d want %d", len(got.Channels), len(want.Channels))
	}
	for i := range want.Channels {
		if got.Channels[i] != want.Channels[i] {
			t.Errorf("channel %d: got %+v want %+v", i, got.Channels[i], want.Channels[i])
		}
	}

	if len(got.Schedule) != len(want.Schedule) {
		t.Fatalf("schedule point count mismatch: got %d want %d", len(got.Schedule), len(want.Schedule))
	}
	// Dynamic points are resolved against `times` on export (they carry no
	// durable TimeMinutes of their own), so the round-tripped value is
	// compared against ResolveMinute's output, not the pre-export field.
	schedAstro := scheduleAstroTimes(times)
	for i := range want.Schedule {
		wantMinute := want.Schedule[i].TimeMinutes
		if m, ok := schedule.ResolveMinute(want.Schedule[i], schedAstro); ok {
			wantMinute = m
		}
		if got.Schedule[i].TimeType != want.Schedule[i].TimeType ||
			got.Schedule[i].OffsetMinutes != want.Schedule[i].OffsetMinutes ||
			got.Schedule[i].TimeMinutes != wantMinute {
			t.Errorf("schedule point %d mismatch: got %+v want TimeMinutes=%d", i, got.Schedule[i], wantMinute)
		}
	}

	if got.Moon.Enabled != want.Moon.Enabled ||
		got.Moon.PhaseScalingPWM != want.Moon.PhaseScalingPWM ||
		got.Moon.PhaseScalingCurrent != want.Moon.PhaseScalingCurrent ||
		got.Moon.MinCurrentThreshold != want.Moon.MinCurrentThreshold {
		t.Errorf("moon simulation mismatch: got %+v want %+v", got.Moon, want.Moon)
	}
	for i := range want.Moon.BaseIntensityPWM {
		if got.Moon.BaseIntensityPWM[i] != want.Moon.BaseIntensityPWM[i] {
			t.Errorf("moon base intensity %d: got %v want %v", i, got.Moon.BaseIntensityPWM[i], want.Moon.BaseIntensityPWM[i])
		}
	}

	if got.Temp != want.Temp {
		t.Errorf("temperature config mismatch: got %+v want %+v", got.Temp, want.Temp)
	}

	if got.Location != want.Location {
		t.Errorf("location mismatch: got %+v want %+v", got.Location, want.Location)
	}
	if got.Enabled != want.Enabled {
		t.Errorf("enabled mismatch: got %v want %v", got.Enabled, want.Enabled)
	}
}

// TestExportResolvesDynamicPointTimeMinutes pins the fix for a bug where a
// dynamic point's exported time_minutes/time_formatted was always the zero
// value: Export must resolve it against the times it was handed, not the
// point's own (never-written) TimeMinutes field.
func TestExportResolvesDynamicPointTimeMinutes(t *testing.T) {
	state := sampleState()
	times := astro.Times{SunriseMinutes: 420, SunsetMinutes: 1080, Valid: true}

	doc := Export(state, times, 0)

	var dynamic *SchedulePointJSON
	for i := range doc.SchedulePoints {
		if doc.SchedulePoints[i].TimeType == "SUNSET_REL" {
			dynamic = &doc.SchedulePoints[i]
		}
	}
	if dynamic == nil {
		t.Fatal("expected a SUNSET_REL point in the exported document")
	}

	wantMinute := 1080 - 30
	if dynamic.TimeMinutes != wantMinute {
		t.Errorf("exported time_minutes = %d, want %d (sunset 18:00 - 30min)", dynamic.TimeMinutes, wantMinute)
	}
	if dynamic.TimeFormatted != "17:30" {
		t.Errorf("exported time_formatted = %q, want %q", dynamic.TimeFormatted, "17:30")
	}
}

func TestMarshalRejectsOversizedDocument(t *testing.T) {
	state := sampleState()
	huge := make([]schedule.Point, 0, 2000)
	for i := 0; i < 2000; i++ {
		huge = append(huge, schedule.Point{
			TimeType: schedule.Fixed, TimeMinutes: i % 1440,
			PWMValues: []float64{1, 2}, CurrentValues: []float64{0.1, 0.2},
		})
	}
	state.Schedule = huge

	doc := Export(state, astro.DefaultTimes(), 0)
	if _, err := Marshal(doc); err == nil {
		t.Fatal("expected Marshal to reject an oversized document")
	}
}

func TestImportRejectsWrongVersion(t *testing.T) {
	doc := Export(sampleState(), astro.DefaultTimes(), 0)
	doc.Version = 99

	data, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var into State
	if err := Import(data, &into); err == nil {
		t.Fatal("expected Import to reject an unsupported version")
	}
}

func TestFormatMinutesWraps(t *testing.T) {
	cases := map[int]string{0: "00:00", 90: "01:30", 1439: "23:59", -30: "23:30"}
	for in, want := range cases {
		if got := formatMinutes(in); got != want {
			t.Errorf("formatMinutes(%d) = %q, want %q", in, got, want)
		}
	}
}
