// Package control implements the single-threaded cooperative control
// loop that ties the astro engine, schedule interpolator, PID-driven
// temperature control, and the persistence layer into one control tick.
package control

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/aquareef/ledcore/internal/drivers"
	"github.com/aquareef/ledcore/internal/events"
	"github.com/aquareef/ledcore/internal/persistence"
	"github.com/aquareef/ledcore/pkg/astro"
	"github.com/aquareef/ledcore/pkg/schedule"
	"github.com/aquareef/ledcore/pkg/thermal"
)

// astroRefreshInterval is the throttle period for recomputing today's
// AstronomicalTimes, except when a location/projection/timezone change
// forces an immediate refresh.
const astroRefreshInterval = 5 * time.Minute

// writeSuppressPWM and writeSuppressCurrent are the near-duplicate write
// thresholds that keep the loop from re-sending a driver command that
// hasn't meaningfully changed.
const (
	writeSuppressPWM     = 0.001 // fraction 0..1
	writeSuppressCurrent = 0.01  // amps
)

// Collaborators bundles every external dependency the loop needs.
type Collaborators struct {
	Clock      drivers.Clock
	PWM        drivers.PWMDriver
	Current    drivers.CurrentDriver
	Fan        drivers.FanDriver
	Sensors    []string // sensor names to read each tick
	TempSensor drivers.TemperatureSensor
}

type channelOutput struct {
	pwm     float64
	current float64
	written bool
}

// Loop owns the persisted state, the AstroEngine, the schedule, and
// TempControl. It is not safe for concurrent use: exactly one Tick is
// ever in flight.
type Loop struct {
	collab Collaborators
	bus    *events.Bus
	store  *persistence.Store

	state    persistence.State
	schedule *schedule.Schedule
	thermal  *thermal.Controller
	astro    *astro.Engine
	times    astro.Times

	pwmScale float64

	cachedTZOffsetH    float64
	haveCachedTZOffset bool
	haveAstroRefresh   bool

	forceUpdate bool
	dirty       bool
	outputs     []channelOutput

	astroLimiter *rate.Limiter

	bootComplete bool
	lastThermal  thermal.Status
}

// Snapshot is the read-only view cmd/ledcore-monitor polls each tick. It
// never locks: Tick and Snapshot must be called from the same goroutine.
type Snapshot struct {
	Enabled    bool
	PWMScale   float64
	Location   astro.Location
	Projection astro.Projection
	Times      astro.Times
	Channels   []schedule.ChannelConfig
	Outputs    []ChannelSnapshot
	Thermal    thermal.Status
}

// ChannelSnapshot is the last value written (or suppressed) to one
// channel's PWM/current drivers.
type ChannelSnapshot struct {
	PWMFraction float64
	Amps        float64
}

// Snapshot returns the loop's current observable state for display.
func (l *Loop) Snapshot() Snapshot {
	outputs := make([]ChannelSnapshot, len(l.outputs))
	for i, o := range l.outputs {
		outputs[i] = ChannelSnapshot{PWMFraction: o.pwm, Amps: o.current}
	}
	return Snapshot{
		Enabled:    l.state.Enabled,
		PWMScale:   l.pwmScale,
		Location:   l.state.Location,
		Projection: l.state.Projection,
		Times:      l.times,
		Channels:   append([]schedule.ChannelConfig(nil), l.state.Channels...),
		Outputs:    outputs,
		Thermal:    l.lastThermal,
	}
}

// New constructs a loop around its collaborators and an initial state
// (typically loaded from persistence before New is called).
func New(collab Collaborators, bus *events.Bus, store *persistence.Store, state persistence.State) *Loop {
	l := &Loop{
		collab:   collab,
		bus:      bus,
		store:    store,
		state:    state,
		pwmScale: 1.0,
		// Burst of 1: the limiter paces routine refreshes to
		// astroRefreshInterval. A forced refresh (location/projection/tz
		// change) clears haveAstroRefresh and so bypasses the limiter.
		astroLimiter: rate.NewLimiter(rate.Every(astroRefreshInterval), 1),
	}
	l.rebuildSchedule()
	l.rebuildAstro()
	l.rebuildThermal()
	l.times = astro.DefaultTimes()
	l.outputs = make([]channelOutput, len(state.Channels))
	return l
}

func (l *Loop) rebuildSchedule() {
	l.schedule = schedule.NewSchedule(l.state.Channels)
	for _, p := range l.state.Schedule {
		_ = l.schedule.Add(p) // already-validated state from persistence; error impossible on well-formed input
	}
}

func (l *Loop) rebuildAstro() {
	l.astro = astro.NewEngine(l.state.Location, l.state.Projection)
}

func (l *Loop) rebuildThermal() {
	l.thermal = thermal.New(l.state.Temp, thermal.Callbacks{
		SetFanPWM:     l.collab.Fan.SetFanPWM,
		SetFanEnabled: l.collab.Fan.SetFanEnabled,
		EmergencyEntered: func() {
			l.publish(events.EmergencyEntered)
		},
		EmergencyCleared: func() {
			l.forceUpdate = true
			l.publish(events.EmergencyCleared)
		},
	})
}

func (l *Loop) publish(kind events.Kind) {
	if l.bus != nil {
		l.bus.Publish(events.Event{Kind: kind})
	}
}

// MarkBootComplete releases any save that was coalesced while booting.
func (l *Loop) MarkBootComplete(ctx context.Context) {
	l.bootComplete = true
	l.store.MarkBootComplete(ctx)
}

// SetEnabled toggles the scheduler. Disabling leaves driver outputs
// untouched so the manual-control path can take over.
func (l *Loop) SetEnabled(ctx context.Context, enabled bool) {
	if l.state.Enabled == enabled {
		return
	}
	l.state.Enabled = enabled
	l.save(ctx)
}

// SetLocation updates the observer location, forcing an astronomy
// refresh and one force-updated output push on the next tick.
func (l *Loop) SetLocation(ctx context.Context, loc astro.Location) {
	l.state.Location = loc
	l.rebuildAstro()
	l.haveAstroRefresh = false
	l.forceUpdate = true
	l.save(ctx)
}

// SetProjection updates the projection mode, with the same invalidation
// as SetLocation.
func (l *Loop) SetProjection(ctx context.Context, proj astro.Projection) {
	l.state.Projection = proj
	l.rebuildAstro()
	l.haveAstroRefresh = false
	l.forceUpdate = true
	l.save(ctx)
}

// SetSchedule replaces the schedule's points (e.g. from a preset or an
// edit) and persists the change.
func (l *Loop) SetSchedule(ctx context.Context, points []schedule.Point) {
	l.state.Schedule = points
	l.rebuildSchedule()
	l.save(ctx)
}

// SetPWMScale updates the global PWM multiplier applied after
// interpolation and before the driver write.
func (l *Loop) SetPWMScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	if scale > 1 {
		scale = 1
	}
	l.pwmScale = scale
	l.forceUpdate = true
}

// ManualControl is the external manual-control path: effective only when
// the scheduler is disabled and the system is not in thermal emergency.
// Current is clamped to the channel's configured maximum.
func (l *Loop) ManualControl(channel int, pwmFraction, amps float64) bool {
	if l.state.Enabled || l.thermal.ThermalEmergency() {
		return false
	}
	if channel < 0 || channel >= len(l.state.Channels) {
		return false
	}
	if amps > l.state.Channels[channel].MaxCurrent {
		amps = l.state.Channels[channel].MaxCurrent
	}
	if amps < 0 {
		amps = 0
	}
	l.collab.PWM.SetChannel(channel, pwmFraction, pwmFraction > 0.001)
	l.collab.Current.SetCurrent(channel, amps)
	return true
}

// Tick runs exactly one pass of the control loop: clock read, timezone
// tracking, temperature control, the thermal gate, astronomy refresh,
// schedule evaluation, output reconciliation, and a save if anything
// tunable changed.
func (l *Loop) Tick(ctx context.Context) {
	clk := l.collab.Clock.Now()
	if !clk.Valid {
		return
	}
	l.trackTimezone(float64(clk.UTCOffsetSeconds) / 3600.0)

	dt := astro.DateTime{Year: clk.Year, Month: clk.Month, Day: clk.Day, Hour: clk.Hour, Minute: clk.Minute, Second: clk.Second}
	nowMin := clk.Hour*60 + clk.Minute
	nowMs := EpochMillis(dt)

	// TempControl runs before any output write, so an emergency that
	// latches (or clears) this tick is acted on this tick.
	l.runThermal(nowMs)

	// Thermal gate before any schedule write: an emergency forces every
	// channel to zero and skips schedule evaluation entirely, so no
	// schedule path can lift a channel mid-emergency.
	if l.thermal.ThermalEmergency() {
		l.forceAllZero()
		l.maybeSave(ctx, nowMin)
		return
	}

	if !l.state.Enabled {
		l.maybeSave(ctx, nowMin)
		return
	}

	l.refreshAstroIfDue(dt)

	resolved := l.schedule.Resolve(toScheduleTimes(l.times))
	result := schedule.Interpolate(resolved, len(l.state.Channels), nowMin)
	result = schedule.ApplyMoonOverlay(result, l.state.Moon, toScheduleTimes(l.times), nowMin)

	l.pushOutputs(result)
	l.maybeSave(ctx, nowMin)
}

func (l *Loop) trackTimezone(offsetHours float64) {
	if !l.haveCachedTZOffset {
		l.cachedTZOffsetH = offsetHours
		l.haveCachedTZOffset = true
		return
	}
	if math.Abs(offsetHours-l.cachedTZOffsetH) > 0.01 {
		l.cachedTZOffsetH = offsetHours
		l.state.TimezoneOffsetH = offsetHours
		l.haveAstroRefresh = false
		l.forceUpdate = true
		l.dirty = true
	}
}

func (l *Loop) refreshAstroIfDue(dt astro.DateTime) {
	due := !l.haveAstroRefresh || l.astroLimiter.Allow()
	if !due {
		return
	}
	l.times = l.astro.Today(dt, l.cachedTZOffsetH)
	l.haveAstroRefresh = true
	l.publish(events.AstronomyRefreshed)
}

func (l *Loop) runThermal(nowMs int64) {
	readings := make([]thermal.SensorReading, 0, len(l.collab.Sensors))
	for _, name := range l.collab.Sensors {
		r := l.collab.TempSensor.Read(name)
		readings = append(readings, thermal.SensorReading{
			Name: name, Valid: r.Valid, Celsius: r.Celsius, LastUpdateMs: r.LastUpdateMs,
		})
	}
	status := l.thermal.Tick(readings, nowMs)
	status.FanRPM = l.collab.Fan.GetFanRPM()
	l.lastThermal = status
}

func (l *Loop) forceAllZero() {
	for ch := range l.state.Channels {
		l.writeChannel(ch, 0, 0)
	}
}

func (l *Loop) pushOutputs(result schedule.Result) {
	if !result.Valid {
		return
	}
	for ch := range l.state.Channels {
		pwm := result.PWM[ch] / 100.0 * l.pwmScale
		current := result.Current[ch]
		if current > l.state.Channels[ch].MaxCurrent {
			current = l.state.Channels[ch].MaxCurrent
		}
		l.writeChannel(ch, pwm, current)
	}
}

// writeChannel skips a driver write if the new value is within the
// near-duplicate threshold of the last one, unless forceUpdate is set
// (cleared after being consumed for the tick).
func (l *Loop) writeChannel(ch int, pwmFraction, amps float64) {
	out := &l.outputs[ch]
	skip := out.written && !l.forceUpdate &&
		math.Abs(pwmFraction-out.pwm) < writeSuppressPWM &&
		math.Abs(amps-out.current) < writeSuppressCurrent

	if !skip {
		l.collab.PWM.SetChannel(ch, pwmFraction, pwmFraction > 0.001)
		l.collab.Current.SetCurrent(ch, amps)
		out.pwm = pwmFraction
		out.current = amps
		out.written = true
	}
}

func (l *Loop) maybeSave(ctx context.Context, nowMin int) {
	l.forceUpdate = false
	if !l.dirty {
		return
	}
	l.dirty = false
	doc := persistence.Export(l.state, l.times, nowMin)
	l.store.Save(ctx, doc)
}

func (l *Loop) save(ctx context.Context) {
	nowMin := 0
	if clk := l.collab.Clock.Now(); clk.Valid {
		nowMin = clk.Hour*60 + clk.Minute
	}
	doc := persistence.Export(l.state, l.times, nowMin)
	l.store.Save(ctx, doc)
}

// EpochMillis converts a civil date-time to milliseconds since
// 1970-01-01 00:00, counting days in the same proleptic-Gregorian
// convention as the Julian day conversion in pkg/astro. It increases
// monotonically across day boundaries and is the clock basis
// TempControl's sensor-timeout comparisons use, so sensor timestamps must
// be on the same basis: for a UTC clock that is Unix milliseconds.
func EpochMillis(dt astro.DateTime) int64 {
	y, m, d := int64(dt.Year), int64(dt.Month), int64(dt.Day)
	if m <= 2 {
		y--
	}
	era := y
	if y < 0 {
		era -= 399
	}
	era /= 400
	yoe := y - era*400
	var mp int64
	if m > 2 {
		mp = m - 3
	} else {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	days := era*146097 + doe - 719468

	timeOfDayMs := int64(dt.Hour)*3600000 + int64(dt.Minute)*60000 + int64(dt.Second)*1000
	return days*86400000 + timeOfDayMs
}

func toScheduleTimes(t astro.Times) schedule.AstronomicalTimes {
	return schedule.AstronomicalTimes{
		SunriseMinutes:          t.SunriseMinutes,
		SunsetMinutes:           t.SunsetMinutes,
		SolarNoonMinutes:        t.SolarNoonMinutes,
		CivilDawnMinutes:        t.CivilDawnMinutes,
		CivilDuskMinutes:        t.CivilDuskMinutes,
		NauticalDawnMinutes:     t.NauticalDawnMinutes,
		NauticalDuskMinutes:     t.NauticalDuskMinutes,
		AstronomicalDawnMinutes: t.AstronomicalDawnMinutes,
		AstronomicalDuskMinutes: t.AstronomicalDuskMinutes,
		MoonriseMinutes:         t.MoonriseMinutes,
		MoonsetMinutes:          t.MoonsetMinutes,
		MoonPhase:               t.MoonPhase,
		Valid:                   t.Valid,
	}
}
