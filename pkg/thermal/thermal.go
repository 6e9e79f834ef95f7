// Package thermal implements the temperature control loop: sensor
// filtering, a PID-driven fan command, and a latched thermal emergency
// state machine that forces every LED channel to zero.
package thermal

import (
	"github.com/aquareef/ledcore/pkg/pid"
)

// EmergencyState is the small closed enum the thermal loop's state machine
// moves through. Modeled as a sum type over a fixed set of ints rather
// than an open hierarchy, which keeps the set of valid transitions
// exhaustively checkable.
type EmergencyState int

const (
	Normal EmergencyState = iota
	Arming
	Emergency
)

func (s EmergencyState) String() string {
	switch s {
	case Normal:
		return "NORMAL"
	case Arming:
		return "ARMING"
	case Emergency:
		return "EMERGENCY"
	default:
		return "UNKNOWN"
	}
}

// Config holds the temperature control loop's tunings.
type Config struct {
	TargetC     float64
	KP, KI, KD  float64
	MinFanPWM   float64 // percent, 0..100
	MaxFanPWM   float64 // percent, 0..100

	FanUpdateIntervalMs int64
	EmergencyC          float64
	RecoveryC           float64 // must be < EmergencyC
	EmergencyDelayMs    int64
	SensorTimeoutMs     int64
	TempFilterAlpha     float64 // (0, 1]
}

// SensorReading is one named sensor's latest value.
type SensorReading struct {
	Name         string
	Valid        bool
	Celsius      float64
	LastUpdateMs int64
}

// Status is the derived read-only view exposed to callers and UIs.
type Status struct {
	Enabled            bool
	ThermalEmergency   bool
	FanEnabled         bool
	CurrentC           float64
	TargetC            float64
	FanPWMPercent      float64
	FanRPM             float64
	PIDError           float64
	PIDOutput          float64
	ValidSensorCount   int
	TotalSensorCount   int
}

// Callbacks are the fire-and-forget notifications the loop makes on state
// transitions and fan commands. All are optional; nil callbacks are
// skipped.
type Callbacks struct {
	SetFanPWM         func(percent float64)
	SetFanEnabled     func(enabled bool)
	EmergencyEntered  func()
	EmergencyCleared  func()
}

// Controller runs the filtering, PID, and emergency state machine.
// Enabled gates the fan PID only; the emergency state machine always runs
// so a thermal event is never masked by the controller being disabled.
type Controller struct {
	cfg       Config
	callbacks Callbacks
	pid       *pid.Controller

	enabled bool

	filteredC    float64
	haveFiltered bool

	state     EmergencyState
	armedAtMs int64

	lastFanUpdateMs int64
	fanPWM          float64
	fanEnabled      bool

	lastPIDError  float64
	lastPIDOutput float64
}

// New constructs a controller. The PID's bounds are [MinFanPWM, MaxFanPWM].
func New(cfg Config, callbacks Callbacks) *Controller {
	return &Controller{
		cfg:       cfg,
		callbacks: callbacks,
		pid:       pid.New(cfg.KP, cfg.KI, cfg.KD, cfg.MinFanPWM, cfg.MaxFanPWM, cfg.TargetC),
		enabled:   true,
		state:     Normal,
	}
}

// SetEnabled toggles the fan PID. Disabling forces the fan off and leaves
// the emergency state machine exactly where it was; it is never skipped by
// disabling the controller.
func (c *Controller) SetEnabled(enabled bool) {
	c.enabled = enabled
	if !enabled {
		c.setFan(0, false)
	}
}

// ThermalEmergency reports whether the latch is currently set.
func (c *Controller) ThermalEmergency() bool {
	return c.state == Emergency
}

// Tick ingests sensor readings at nowMs (a monotonic millisecond clock),
// updates the filtered temperature, evaluates the emergency FSM, and —
// if not in emergency, enabled, and due per FanUpdateIntervalMs — runs the
// PID to produce a new fan command.
func (c *Controller) Tick(readings []SensorReading, nowMs int64) Status {
	validCount, total := 0, len(readings)
	sum := 0.0

	for _, r := range readings {
		if r.Valid && nowMs-r.LastUpdateMs <= c.cfg.SensorTimeoutMs {
			validCount++
			sum += r.Celsius
		}
	}

	if validCount > 0 {
		mean := sum / float64(validCount)
		if !c.haveFiltered {
			c.filteredC = mean
			c.haveFiltered = true
		} else {
			c.filteredC = c.cfg.TempFilterAlpha*mean + (1-c.cfg.TempFilterAlpha)*c.filteredC
		}
	}
	// If no sensors are valid, c.filteredC simply holds its last value.

	c.evaluateEmergency(nowMs)

	if c.state != Emergency && c.enabled {
		if nowMs-c.lastFanUpdateMs >= c.cfg.FanUpdateIntervalMs {
			c.lastFanUpdateMs = nowMs
			out := c.pid.Compute(c.filteredC, int64(c.cfg.FanUpdateIntervalMs))
			c.lastPIDError = c.cfg.TargetC - c.filteredC
			c.lastPIDOutput = out
			c.setFan(out, out > 0.1)
		}
	} else if !c.enabled {
		c.setFan(0, false)
	}

	return Status{
		Enabled:          c.enabled,
		ThermalEmergency: c.state == Emergency,
		FanEnabled:       c.fanEnabled,
		CurrentC:         c.filteredC,
		TargetC:          c.cfg.TargetC,
		FanPWMPercent:    c.fanPWM,
		PIDError:         c.lastPIDError,
		PIDOutput:        c.lastPIDOutput,
		ValidSensorCount: validCount,
		TotalSensorCount: total,
	}
}

// evaluateEmergency runs the NORMAL/ARMING/EMERGENCY transitions from
// spec §4.4.
func (c *Controller) evaluateEmergency(nowMs int64) {
	switch c.state {
	case Normal:
		if c.filteredC >= c.cfg.EmergencyC {
			c.state = Arming
			c.armedAtMs = nowMs
		}
	case Arming:
		if c.filteredC < c.cfg.EmergencyC {
			c.state = Normal
			return
		}
		if nowMs-c.armedAtMs >= c.cfg.EmergencyDelayMs {
			c.state = Emergency
			c.setFan(100, true)
			if c.callbacks.EmergencyEntered != nil {
				c.callbacks.EmergencyEntered()
			}
		}
	case Emergency:
		if c.filteredC <= c.cfg.RecoveryC {
			c.state = Normal
			c.pid.Reset()
			if c.callbacks.EmergencyCleared != nil {
				c.callbacks.EmergencyCleared()
			}
		}
	}
}

func (c *Controller) setFan(pwmPercent float64, enabled bool) {
	c.fanPWM = pwmPercent
	c.fanEnabled = enabled
	if c.callbacks.SetFanPWM != nil {
		c.callbacks.SetFanPWM(pwmPercent)
	}
	if c.callbacks.SetFanEnabled != nil {
		c.callbacks.SetFanEnabled(enabled)
	}
}
