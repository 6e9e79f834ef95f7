// Package sim provides in-memory implementations of the internal/drivers
// contracts, used by the control loop's tests and by cmd/ledcore-sim to
// run the whole system without hardware attached.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/aquareef/ledcore/internal/drivers"
)

// Clock wraps the real wall clock but allows tests to override it with a
// fixed or advancing instant via Set/Advance.
type Clock struct {
	mu        sync.Mutex
	fixed     bool
	now       time.Time
	utcOffset int
}

// NewClock returns a Clock that tracks real time with the given UTC
// offset in seconds.
func NewClock(utcOffsetSeconds int) *Clock {
	return &Clock{utcOffset: utcOffsetSeconds}
}

// NewFixedClock returns a Clock pinned to t until Set or Advance is called.
func NewFixedClock(t time.Time, utcOffsetSeconds int) *Clock {
	return &Clock{fixed: true, now: t, utcOffset: utcOffsetSeconds}
}

// Set pins the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fixed = true
	c.now = t
}

// Advance moves a fixed clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Now implements drivers.Clock.
func (c *Clock) Now() drivers.ClockReading {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now
	if !c.fixed {
		t = time.Now()
	}
	return drivers.ClockReading{
		Valid:            true,
		Year:             t.Year(),
		Month:            int(t.Month()),
		Day:              t.Day(),
		Hour:             t.Hour(),
		Minute:           t.Minute(),
		Second:           t.Second(),
		UTCOffsetSeconds: c.utcOffset,
	}
}

// ChannelOutput records the last commanded PWM and current for one channel.
type ChannelOutput struct {
	PWM     float64
	On      bool
	Current float64
}

// LightDriver is a combined PWM+current sink that records every command,
// standing in for the real LED driver board.
type LightDriver struct {
	mu       sync.Mutex
	channels map[int]*ChannelOutput
}

// NewLightDriver returns an empty LightDriver.
func NewLightDriver() *LightDriver {
	return &LightDriver{channels: make(map[int]*ChannelOutput)}
}

func (d *LightDriver) get(ch int) *ChannelOutput {
	out, ok := d.channels[ch]
	if !ok {
		out = &ChannelOutput{}
		d.channels[ch] = out
	}
	return out
}

// SetChannel implements drivers.PWMDriver.
func (d *LightDriver) SetChannel(ch int, pwmFraction float64, on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.get(ch)
	out.PWM = pwmFraction
	out.On = on
}

// SetCurrent implements drivers.CurrentDriver.
func (d *LightDriver) SetCurrent(ch int, amps float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.get(ch).Current = amps
}

// Snapshot returns a copy of the current per-channel output state, keyed
// by channel index. Safe to call concurrently with the setters.
func (d *LightDriver) Snapshot() map[int]ChannelOutput {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[int]ChannelOutput, len(d.channels))
	for k, v := range d.channels {
		out[k] = *v
	}
	return out
}

// Fan is a simulated cooling fan: it reports RPM proportional to its last
// commanded PWM once enabled, and zero otherwise.
type Fan struct {
	mu      sync.Mutex
	pwm     float64
	enabled bool
}

// NewFan returns a fan that starts off.
func NewFan() *Fan {
	return &Fan{}
}

// SetFanPWM implements drivers.FanDriver.
func (f *Fan) SetFanPWM(percent float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pwm = percent
}

// SetFanEnabled implements drivers.FanDriver.
func (f *Fan) SetFanEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
}

// GetFanRPM implements drivers.FanDriver. The simulated tachometer assumes
// a fan that tops out at 3000 RPM at 100% PWM.
func (f *Fan) GetFanRPM() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.enabled {
		return 0
	}
	return f.pwm / 100.0 * 3000.0
}

// TemperatureSensors is a named set of sensors a test or simulation driver
// can push readings into.
type TemperatureSensors struct {
	mu       sync.Mutex
	readings map[string]drivers.SensorReading
}

// NewTemperatureSensors returns an empty sensor set.
func NewTemperatureSensors() *TemperatureSensors {
	return &TemperatureSensors{readings: make(map[string]drivers.SensorReading)}
}

// Push records a new reading for a named sensor.
func (s *TemperatureSensors) Push(name string, celsius float64, atMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings[name] = drivers.SensorReading{Valid: true, Celsius: celsius, LastUpdateMs: atMs}
}

// Read implements drivers.TemperatureSensor. An unknown sensor name reads
// back as invalid rather than panicking.
func (s *TemperatureSensors) Read(name string) drivers.SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readings[name]
}

// MemoryPersistence is an in-process PersistenceBackend backed by a single
// byte slice, for tests and the simulation harness where no durability
// across process restarts is needed.
type MemoryPersistence struct {
	mu   sync.Mutex
	blob []byte
}

// NewMemoryPersistence returns an empty backend.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

// Save implements drivers.PersistenceBackend.
func (m *MemoryPersistence) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = append([]byte(nil), data...)
	return nil
}

// Load implements drivers.PersistenceBackend.
func (m *MemoryPersistence) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blob == nil {
		return nil, nil
	}
	return append([]byte(nil), m.blob...), nil
}
