package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

type toastLevel int

const (
	toastLevelInfo toastLevel = iota
	toastLevelWarning
	toastLevelError
)

// Errors stay up longer than confirmations.
var toastLifetime = map[toastLevel]time.Duration{
	toastLevelInfo:    3 * time.Second,
	toastLevelWarning: 5 * time.Second,
	toastLevelError:   6 * time.Second,
}

// toast is the one-line status message at the foot of the dashboard.
type toast struct {
	text  string
	level toastLevel
	until time.Time
}

func (t toast) visible(at time.Time) bool {
	return t.text != "" && at.Before(t.until)
}

func (t toast) style() lipgloss.Style {
	switch t.level {
	case toastLevelWarning:
		return toastWarningStyle
	case toastLevelError:
		return toastErrorStyle
	}
	return toastInfoStyle
}

func (t toast) render(width int) string {
	if width <= 0 {
		return ""
	}
	pill := t.style().Render(" " + truncateToWidth(t.text, max(1, width-4)) + " ")
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, pill)
}

func (m *Model) showInfoToast(message string)    { m.setToast(toastLevelInfo, message) }
func (m *Model) showWarningToast(message string) { m.setToast(toastLevelWarning, message) }
func (m *Model) showErrorToast(message string)   { m.setToast(toastLevelError, message) }

// setToast replaces the current toast unless it is a more severe one that
// is still showing.
func (m *Model) setToast(level toastLevel, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	now := m.now()
	if m.toast.visible(now) && m.toast.level > level {
		return
	}
	m.toast = toast{text: message, level: level, until: now.Add(toastLifetime[level])}
}

// surfaceErrors shows every pane's lastError in one toast and acknowledges
// them.
func (m *Model) surfaceErrors() {
	var msgs []string
	for _, p := range m.dash.panes {
		if msg := p.LastError(); msg != "" {
			msgs = append(msgs, p.Name()+": "+msg)
			p.ClearError()
		}
	}
	if len(msgs) > 0 {
		m.showErrorToast(strings.Join(msgs, "; "))
	}
}
