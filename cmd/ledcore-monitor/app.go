package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/aquareef/ledcore/internal/control"
	"github.com/aquareef/ledcore/pkg/schedule"
)

// presetCycle is the order the 'p' key steps through.
var presetCycle = []schedule.PresetName{
	schedule.PresetDefault,
	schedule.PresetSimple,
	schedule.PresetSunriseSunset,
	schedule.PresetDynamicSunriseSunset,
	schedule.PresetFullSpectrum,
}

// App is the live status dashboard attached to a running control.Loop. It
// owns no hardware of its own; the loop is ticked by main. App renders the
// snapshot it's handed after each tick and forwards key commands (scheduler
// toggle, PWM scale, presets) to the loop.
type App struct {
	ctx  context.Context
	loop *control.Loop

	tviewApp      *tview.Application
	channelsTable *tview.Table
	telemetry     *tview.TextView
	thermalPanel  *tview.TextView
	events        *EventLog
	root          *tview.Flex

	presetIndex int
}

// NewApp builds the dashboard around loop but does not start it; call Run.
func NewApp(ctx context.Context, loop *control.Loop) *App {
	a := &App{ctx: ctx, loop: loop}
	a.setupUI()
	return a
}

func (a *App) setupUI() {
	a.tviewApp = tview.NewApplication()

	a.channelsTable = tview.NewTable().SetBorders(false).SetFixed(1, 0)
	a.channelsTable.SetBorder(true).SetTitle(" Channels ")

	a.telemetry = tview.NewTextView().SetDynamicColors(true)
	a.telemetry.SetBorder(true).SetTitle(" Astronomy ")

	a.thermalPanel = tview.NewTextView().SetDynamicColors(true)
	a.thermalPanel.SetBorder(true).SetTitle(" Thermal ")

	a.events = NewEventLog(200)
	a.events.Add(LevelInfo, "monitor attached")

	controls := tview.NewTextView().SetDynamicColors(true)
	controls.SetBorder(true).SetTitle(" Controls ")
	controls.SetText(`[yellow]e[-] toggle scheduler
[yellow]+/-[-] pwm scale
[yellow]p[-] cycle preset
[yellow]s[-] schedule editor
[yellow]q[-] quit`)

	sidebar := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.telemetry, 0, 3, false).
		AddItem(a.thermalPanel, 0, 3, false).
		AddItem(controls, 0, 2, false)

	lower := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(a.channelsTable, 0, 6, true).
		AddItem(sidebar, 0, 4, false)

	a.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(lower, 0, 3, true).
		AddItem(a.events.View(), 0, 2, false)

	a.tviewApp.SetRoot(a.root, true).SetInputCapture(a.handleKeyboard)
}

// Run starts the tview event loop. Blocks until the user quits.
func (a *App) Run() error {
	return a.tviewApp.Run()
}

// Refresh repaints every panel from the loop's latest snapshot. Safe to
// call from any goroutine; it marshals onto the tview draw goroutine.
func (a *App) Refresh(snap control.Snapshot) {
	a.tviewApp.QueueUpdateDraw(func() {
		a.renderChannels(snap)
		a.renderTelemetry(snap)
		a.renderThermal(snap)
	})
}

func (a *App) renderChannels(snap control.Snapshot) {
	t := a.channelsTable
	t.Clear()
	headers := []string{"Channel", "Color", "PWM %", "Amps"}
	for col, h := range headers {
		t.SetCell(0, col, tview.NewTableCell(h).SetTextColor(tcell.ColorYellow).SetSelectable(false))
	}
	for row, ch := range snap.Channels {
		out := control.ChannelSnapshot{}
		if row < len(snap.Outputs) {
			out = snap.Outputs[row]
		}
		t.SetCell(row+1, 0, tview.NewTableCell(ch.Name))
		t.SetCell(row+1, 1, tview.NewTableCell(ch.RGBHex))
		t.SetCell(row+1, 2, tview.NewTableCell(fmt.Sprintf("%5.1f", out.PWMFraction*100)))
		t.SetCell(row+1, 3, tview.NewTableCell(fmt.Sprintf("%5.2f", out.Amps)))
	}
}

func (a *App) renderTelemetry(snap control.Snapshot) {
	var b strings.Builder
	state := "[red]disabled[-]"
	if snap.Enabled {
		state = "[green]enabled[-]"
	}
	fmt.Fprintf(&b, "Scheduler: %s\n", state)
	fmt.Fprintf(&b, "PWM scale: %.0f%%\n\n", snap.PWMScale*100)
	fmt.Fprintf(&b, "Lat/Lon: %.4f, %.4f\n", snap.Location.Latitude, snap.Location.Longitude)
	if !snap.Times.Valid {
		fmt.Fprint(&b, "[gray]astronomy not yet computed[-]\n")
	} else {
		fmt.Fprintf(&b, "Sunrise:  %s\n", minutesToClock(snap.Times.SunriseMinutes))
		fmt.Fprintf(&b, "Sunset:   %s\n", minutesToClock(snap.Times.SunsetMinutes))
		fmt.Fprintf(&b, "Moonrise: %s\n", minutesToClock(snap.Times.MoonriseMinutes))
		fmt.Fprintf(&b, "Moonset:  %s\n", minutesToClock(snap.Times.MoonsetMinutes))
		fmt.Fprintf(&b, "Moon phase: %.2f\n", snap.Times.MoonPhase)
	}
	a.telemetry.SetText(b.String())
}

func (a *App) renderThermal(snap control.Snapshot) {
	th := snap.Thermal
	var b strings.Builder
	fmt.Fprintf(&b, "Temp: %.2fC (target %.1fC)\n", th.CurrentC, th.TargetC)
	fmt.Fprintf(&b, "Sensors: %d/%d valid\n", th.ValidSensorCount, th.TotalSensorCount)
	fmt.Fprintf(&b, "Fan: %.0f%% @ %.0f RPM\n", th.FanPWMPercent, th.FanRPM)
	if th.ThermalEmergency {
		fmt.Fprint(&b, "[red]THERMAL EMERGENCY[-]\n")
	} else {
		fmt.Fprint(&b, "[green]normal[-]\n")
	}
	a.thermalPanel.SetText(b.String())
}

func minutesToClock(m int) string {
	if m < 0 {
		return "--:--"
	}
	h := (m / 60) % 24
	mm := m % 60
	return fmt.Sprintf("%02d:%02d", h, mm)
}

func (a *App) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case 'q', 'Q':
		a.tviewApp.Stop()
		return nil
	case 'e', 'E':
		a.toggleEnabled()
		return nil
	case 'p', 'P':
		a.cyclePreset()
		return nil
	case 's', 'S':
		a.openScheduleEditor()
		return nil
	case '+', '=':
		a.adjustPWMScale(0.05)
		return nil
	case '-', '_':
		a.adjustPWMScale(-0.05)
		return nil
	}
	if event.Key() == tcell.KeyEscape || event.Key() == tcell.KeyCtrlC {
		a.tviewApp.Stop()
		return nil
	}
	return event
}

func (a *App) toggleEnabled() {
	snap := a.loop.Snapshot()
	a.loop.SetEnabled(a.ctx, !snap.Enabled)
	a.events.Add(LevelInfo, "scheduler toggled to %v", !snap.Enabled)
}

func (a *App) adjustPWMScale(delta float64) {
	snap := a.loop.Snapshot()
	a.loop.SetPWMScale(snap.PWMScale + delta)
	a.events.Add(LevelInfo, "pwm scale adjusted by %.2f", delta)
}

// openScheduleEditor suspends the tview draw loop so the bubbletea preset
// picker gets the terminal to itself, then resumes the dashboard once it
// exits.
func (a *App) openScheduleEditor() {
	a.tviewApp.Suspend(func() {
		applied, err := runScheduleEditor(a.ctx, a.loop)
		if err != nil {
			a.events.Add(LevelError, "schedule editor error: %v", err)
			return
		}
		if applied != "" {
			a.events.Add(LevelInfo, "applied preset %s via schedule editor", applied)
		}
	})
}

func (a *App) cyclePreset() {
	a.presetIndex = (a.presetIndex + 1) % len(presetCycle)
	name := presetCycle[a.presetIndex]
	channels := len(a.loop.Snapshot().Channels)
	a.loop.SetSchedule(a.ctx, schedule.Preset(name, channels))
	a.events.Add(LevelInfo, "applied preset %s", name)
}
