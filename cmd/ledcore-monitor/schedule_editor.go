package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aquareef/ledcore/internal/control"
	"github.com/aquareef/ledcore/pkg/schedule"
)

// scheduleEditorModel is a full-screen preset picker run via tview's
// Suspend, so it gets its own terminal session rather than fighting the
// dashboard for draw control.
type scheduleEditorModel struct {
	ctx      context.Context
	loop     *control.Loop
	channels int

	cursor  int
	applied schedule.PresetName
	quit    bool
}

var schedulePresets = []schedule.PresetName{
	schedule.PresetDefault,
	schedule.PresetSimple,
	schedule.PresetSunriseSunset,
	schedule.PresetDynamicSunriseSunset,
	schedule.PresetFullSpectrum,
}

var presetDescriptions = map[schedule.PresetName]string{
	schedule.PresetDefault:              "balanced reef recipe, moon overlay enabled",
	schedule.PresetSimple:               "single flat fixed-point day, no ramps",
	schedule.PresetSunriseSunset:        "fixed-clock sunrise/sunset ramps",
	schedule.PresetDynamicSunriseSunset: "anchors track the day's actual sunrise/sunset",
	schedule.PresetFullSpectrum:         "every channel ramped independently across the day",
}

func newScheduleEditorModel(ctx context.Context, loop *control.Loop) scheduleEditorModel {
	return scheduleEditorModel{ctx: ctx, loop: loop, channels: len(loop.Snapshot().Channels)}
}

func (m scheduleEditorModel) Init() tea.Cmd {
	return nil
}

func (m scheduleEditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "esc", "q", "ctrl+c":
		m.quit = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(schedulePresets)-1 {
			m.cursor++
		}
	case "enter":
		name := schedulePresets[m.cursor]
		m.loop.SetSchedule(m.ctx, schedule.Preset(name, m.channels))
		m.applied = name
		return m, tea.Quit
	}
	return m, nil
}

func (m scheduleEditorModel) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51")).
		Render("Schedule presets")
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true).
		Render("[up/down] choose  [enter] apply  [esc] cancel")

	var b strings.Builder
	b.WriteString(header + "\n\n")
	for i, name := range schedulePresets {
		cursor := "  "
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
		if i == m.cursor {
			cursor = "> "
			style = style.Bold(true).Foreground(lipgloss.Color("46"))
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%s", cursor, name)))
		b.WriteString("  ")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true).Render(presetDescriptions[name]))
		b.WriteString("\n")
	}
	b.WriteString("\n" + hint + "\n")
	return b.String()
}

// runScheduleEditor runs the bubbletea preset picker to completion and
// reports which preset, if any, was applied.
func runScheduleEditor(ctx context.Context, loop *control.Loop) (schedule.PresetName, error) {
	m := newScheduleEditorModel(ctx, loop)
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	return final.(scheduleEditorModel).applied, nil
}
