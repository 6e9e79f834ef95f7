package control

import (
	"context"
	"testing"
	"time"

	"github.com/aquareef/ledcore/internal/drivers/sim"
	"github.com/aquareef/ledcore/internal/events"
	"github.com/aquareef/ledcore/internal/persistence"
	"github.com/aquareef/ledcore/pkg/schedule"
	"github.com/aquareef/ledcore/pkg/thermal"
)

func testState() persistence.State {
	return persistence.State{
		Channels: []schedule.ChannelConfig{
			{Name: "Royal Blue", RGBHex: "#0033CC", MaxCurrent: 1.5},
		},
		Schedule: []schedule.Point{
			{TimeType: schedule.Fixed, TimeMinutes: 0, PWMValues: []float64{80}, CurrentValues: []float64{1.0}},
		},
		Temp: thermal.Config{
			TargetC: 25, KP: 1, KI: 0, KD: 0,
			MinFanPWM: 0, MaxFanPWM: 100,
			FanUpdateIntervalMs: 1000,
			EmergencyC:          60,
			RecoveryC:           55,
			EmergencyDelayMs:    5000,
			SensorTimeoutMs:     10000,
			TempFilterAlpha:     1.0,
		},
		Enabled: true,
	}
}

func newTestLoop(t *testing.T) (*Loop, *sim.LightDriver, *sim.Fan, *sim.TemperatureSensors, *sim.Clock) {
	t.Helper()
	clock := sim.NewFixedClock(time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC), 0)
	light := sim.NewLightDriver()
	fan := sim.NewFan()
	sensors := sim.NewTemperatureSensors()
	sensors.Push("main", 25, 0)

	backend := sim.NewMemoryPersistence()
	store := persistence.NewStore(backend, events.NewBus())

	loop := New(Collaborators{
		Clock:      clock,
		PWM:        light,
		Current:    light,
		Fan:        fan,
		Sensors:    []string{"main"},
		TempSensor: sensors,
	}, nil, store, testState())
	loop.MarkBootComplete(context.Background())

	return loop, light, fan, sensors, clock
}

func TestTickPushesScheduledOutput(t *testing.T) {
	loop, light, _, _, _ := newTestLoop(t)
	loop.Tick(context.Background())

	out := light.Snapshot()[0]
	if out.PWM < 0.75 || out.PWM > 0.85 {
		t.Errorf("expected PWM near 0.8, got %v", out.PWM)
	}
	if out.Current != 1.0 {
		t.Errorf("expected current 1.0, got %v", out.Current)
	}
}

func TestThermalEmergencyForcesZeroRegardlessOfSchedule(t *testing.T) {
	loop, light, _, sensors, clock := newTestLoop(t)

	// Sensor stamps share the loop's clock basis (EpochMillis of the UTC
	// test clock, i.e. Unix milliseconds) so the readings count as fresh.
	start := time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC).UnixMilli()
	sensors.Push("main", 61, start)
	loop.Tick(context.Background())
	clock.Advance(6 * time.Second)
	sensors.Push("main", 61, start+6000)
	loop.Tick(context.Background())

	out := light.Snapshot()[0]
	if out.PWM != 0 || out.Current != 0 {
		t.Errorf("expected zero output during emergency, got pwm=%v current=%v", out.PWM, out.Current)
	}
}

func TestManualControlOnlyEffectiveWhenSchedulerDisabled(t *testing.T) {
	loop, light, _, _, _ := newTestLoop(t)

	if loop.ManualControl(0, 0.5, 0.5) {
		t.Fatal("expected manual control to be rejected while scheduler is enabled")
	}

	loop.SetEnabled(context.Background(), false)
	if !loop.ManualControl(0, 0.5, 0.5) {
		t.Fatal("expected manual control to succeed once scheduler is disabled")
	}
	out := light.Snapshot()[0]
	if out.PWM != 0.5 || out.Current != 0.5 {
		t.Errorf("expected manual values pushed to driver, got pwm=%v current=%v", out.PWM, out.Current)
	}
}

func TestManualControlClampsToChannelMax(t *testing.T) {
	loop, light, _, _, _ := newTestLoop(t)
	loop.SetEnabled(context.Background(), false)

	loop.ManualControl(0, 1.0, 10.0)
	out := light.Snapshot()[0]
	if out.Current != 1.5 {
		t.Errorf("expected current clamped to max_current 1.5, got %v", out.Current)
	}
}

func TestSnapshotReflectsLastTick(t *testing.T) {
	loop, _, _, _, _ := newTestLoop(t)
	loop.Tick(context.Background())

	snap := loop.Snapshot()
	if !snap.Enabled {
		t.Error("expected snapshot to report enabled scheduler")
	}
	if len(snap.Outputs) != 1 {
		t.Fatalf("expected 1 channel output, got %d", len(snap.Outputs))
	}
	if snap.Outputs[0].PWMFraction < 0.75 || snap.Outputs[0].PWMFraction > 0.85 {
		t.Errorf("expected snapshot PWM near 0.8, got %v", snap.Outputs[0].PWMFraction)
	}
	if snap.Thermal.TotalSensorCount != 1 {
		t.Errorf("expected thermal status to reflect 1 sensor, got %d", snap.Thermal.TotalSensorCount)
	}
}

func TestWriteSuppressionSkipsNearDuplicateWrites(t *testing.T) {
	loop, light, _, _, clock := newTestLoop(t)

	loop.Tick(context.Background())

	// Overwrite the driver behind the loop's back: a suppressed repeat
	// write leaves this marker in place, a re-sent write would replace it.
	marker := sim.ChannelOutput{PWM: 0.5, On: true, Current: 0.5}
	light.SetChannel(0, marker.PWM, marker.On)
	light.SetCurrent(0, marker.Current)

	clock.Advance(time.Second)
	loop.Tick(context.Background())
	second := light.Snapshot()[0]

	if second != marker {
		t.Errorf("expected the repeated schedule output to be suppressed, but the driver was rewritten: %+v", second)
	}
}
