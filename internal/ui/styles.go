package ui

import (
	"fmt"

	"github.com/sightlinehq/sightline/internal/model"
)

// ANSI256 color codes for severity rendering.
const (
	colorActionRequired = 203 // red
	colorWarning        = 179 // amber
	colorSuccess        = 114 // green
	colorInfo           = 245 // medium gray
	colorMuted          = 245
	colorAccent         = 74 // blue
)

var noColor bool

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderSeverity returns the severity label in its color.
func RenderSeverity(s model.Severity) string {
	switch s {
	case model.SeverityActionRequired:
		return paint(colorActionRequired, s.String())
	case model.SeverityWarning:
		return paint(colorWarning, s.String())
	case model.SeveritySuccess:
		return paint(colorSuccess, s.String())
	case model.SeverityInfo:
		return paint(colorInfo, s.String())
	default:
		// Out-of-enum severities render plainly rather than failing.
		return s.String()
	}
}

// RenderWorkflow returns the workflow's display label in its metadata color.
// Unknown workflows pick up the generic fallback from Meta.
func RenderWorkflow(w model.Workflow) string {
	meta := w.Meta()
	if noColor {
		return meta.Label
	}
	return fmt.Sprintf("\x1b[38;5;%sm%s\x1b[0m", meta.Color, meta.Label)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	return paint(colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return paint(colorMuted, s)
}

// RenderUnread returns the unread marker, bold when color is enabled.
func RenderUnread(unread bool) string {
	if !unread {
		return " "
	}
	if noColor {
		return "*"
	}
	return "\x1b[1m*\x1b[0m"
}
