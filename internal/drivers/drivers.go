// Package drivers declares the collaborator contracts the control core
// requires of everything outside it: the wall clock, PWM/current/fan
// drivers, temperature sensors, and the persistence backend. The core
// depends only on these interfaces; concrete hardware bindings live
// outside this module.
package drivers

import "context"

// ClockReading is the wall-clock snapshot the core reads once per tick.
type ClockReading struct {
	Valid            bool
	Year, Month, Day int
	Hour, Minute, Second int
	UTCOffsetSeconds int
}

// Clock supplies the current wall-clock time and UTC offset. Must return
// promptly (<1ms budget); never blocks on I/O.
type Clock interface {
	Now() ClockReading
}

// PWMDriver commands a channel's PWM duty cycle. SetChannel is idempotent:
// calling it twice with the same arguments has no additional effect.
type PWMDriver interface {
	SetChannel(channel int, pwmFraction float64, on bool)
}

// CurrentDriver commands a channel's current limit in amps. Idempotent.
type CurrentDriver interface {
	SetCurrent(channel int, amps float64)
}

// FanDriver commands the cooling fan. SetFanPWM and SetFanEnabled are
// split so a real driver can map them independently onto a power switch
// and a speed setting. GetFanRPM reads the tachometer.
type FanDriver interface {
	SetFanPWM(percent float64)
	SetFanEnabled(enabled bool)
	GetFanRPM() float64
}

// SensorReading is one temperature sensor's latest value.
type SensorReading struct {
	Valid        bool
	Celsius      float64
	LastUpdateMs int64
}

// TemperatureSensor reads one named sensor.
type TemperatureSensor interface {
	Read(name string) SensorReading
}

// PersistenceBackend is the size-bounded, best-effort store for the
// persisted document. Save and Load must return promptly; a backend that
// may block internally (e.g. a network round trip) is expected to enqueue
// and return rather than stall the calling tick.
type PersistenceBackend interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
}
