package thermal

import "testing"

func baseConfig() Config {
	return Config{
		TargetC:             25,
		KP:                  2, KI: 0.1, KD: 0,
		MinFanPWM:           0,
		MaxFanPWM:           100,
		FanUpdateIntervalMs: 1000,
		EmergencyC:          60,
		RecoveryC:           55,
		EmergencyDelayMs:    5000,
		SensorTimeoutMs:     10000,
		TempFilterAlpha:     1.0, // no smoothing, so tests can pin exact temps
	}
}

func reading(c float64, atMs int64) []SensorReading {
	return []SensorReading{{Name: "main", Valid: true, Celsius: c, LastUpdateMs: atMs}}
}

// TestThermalLatch reproduces the ARMING-then-EMERGENCY-then-recovery scenario.
func TestThermalLatch(t *testing.T) {
	var entered, cleared bool
	ctrl := New(baseConfig(), Callbacks{
		EmergencyEntered: func() { entered = true },
		EmergencyCleared: func() { cleared = true },
	})

	now := int64(0)
	ctrl.Tick(reading(61, now), now)
	if ctrl.ThermalEmergency() {
		t.Fatal("should not be in emergency immediately on crossing threshold")
	}

	now = 4999
	ctrl.Tick(reading(61, now), now)
	if ctrl.ThermalEmergency() {
		t.Fatal("should still be ARMING at 4999ms, not EMERGENCY")
	}
	if entered {
		t.Fatal("EmergencyEntered must not fire before the delay elapses")
	}

	now = 5001
	status := ctrl.Tick(reading(61, now), now)
	if !status.ThermalEmergency {
		t.Fatal("expected EMERGENCY at 5001ms")
	}
	if !entered {
		t.Fatal("expected EmergencyEntered callback to have fired")
	}
	if status.FanPWMPercent != 100 {
		t.Errorf("expected fan forced to 100%% on emergency entry, got %v", status.FanPWMPercent)
	}

	now = 6000
	status = ctrl.Tick(reading(54, now), now)
	if status.ThermalEmergency {
		t.Fatal("expected emergency cleared on the tick filtered temp reaches recovery_c")
	}
	if !cleared {
		t.Fatal("expected EmergencyCleared callback to have fired")
	}
}

func TestArmingRecoversBeforeDelay(t *testing.T) {
	ctrl := New(baseConfig(), Callbacks{})

	ctrl.Tick(reading(61, 0), 0)
	ctrl.Tick(reading(50, 1000), 1000)

	if ctrl.state != Normal {
		t.Errorf("expected ARMING to revert to NORMAL on early recovery, got %v", ctrl.state)
	}
}

func TestNoValidSensorsHoldsLastFilteredValue(t *testing.T) {
	ctrl := New(baseConfig(), Callbacks{})
	ctrl.Tick(reading(30, 0), 0)

	stale := []SensorReading{{Name: "main", Valid: true, Celsius: 99, LastUpdateMs: 0}}
	status := ctrl.Tick(stale, 999999) // far beyond SensorTimeoutMs

	if status.ValidSensorCount != 0 {
		t.Errorf("expected 0 valid sensors for a stale reading, got %d", status.ValidSensorCount)
	}
	if status.CurrentC != 30 {
		t.Errorf("expected filtered temp to hold at last valid value 30, got %v", status.CurrentC)
	}
}

func TestDisablingForcesFanOffWithoutClearingEmergency(t *testing.T) {
	ctrl := New(baseConfig(), Callbacks{})
	ctrl.Tick(reading(61, 0), 0)
	ctrl.Tick(reading(61, 5001), 5001)
	if !ctrl.ThermalEmergency() {
		t.Fatal("expected emergency to be latched before disabling")
	}

	ctrl.SetEnabled(false)
	if !ctrl.ThermalEmergency() {
		t.Error("disabling must not clear the emergency latch")
	}
}
