package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// EventLevel is the severity tag shown next to a log line.
type EventLevel string

const (
	LevelInfo  EventLevel = "INFO"
	LevelWarn  EventLevel = "WARN"
	LevelError EventLevel = "ERROR"
)

// EventLog renders a scrolling feed of control-loop events: boot
// messages, thermal emergencies, config saves, and astronomy refreshes.
type EventLog struct {
	textView    *tview.TextView
	mu          sync.Mutex
	messages    []logLine
	maxMessages int
}

type logLine struct {
	at      time.Time
	level   EventLevel
	message string
}

// NewEventLog creates a log panel retaining at most maxMessages lines.
func NewEventLog(maxMessages int) *EventLog {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(maxMessages)
	textView.SetBorder(true).SetTitle(" Events ")

	return &EventLog{
		textView:    textView,
		messages:    make([]logLine, 0, maxMessages),
		maxMessages: maxMessages,
	}
}

// View returns the panel's tview primitive.
func (e *EventLog) View() tview.Primitive {
	return e.textView
}

// Add appends a formatted line and re-renders the panel text.
func (e *EventLog) Add(level EventLevel, format string, args ...interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.messages = append(e.messages, logLine{at: time.Now(), level: level, message: fmt.Sprintf(format, args...)})
	if len(e.messages) > e.maxMessages {
		e.messages = e.messages[len(e.messages)-e.maxMessages:]
	}

	var text string
	for _, m := range e.messages {
		text += fmt.Sprintf("[gray]%s[-] %s %s\n", m.at.Format("15:04:05"), colorTag(m.level), m.message)
	}
	e.textView.SetText(text)
	e.textView.ScrollToEnd()
}

func colorTag(level EventLevel) string {
	switch level {
	case LevelWarn:
		return "[yellow]WARN[-]"
	case LevelError:
		return "[red]ERROR[-]"
	default:
		return "[green]INFO[-]"
	}
}
