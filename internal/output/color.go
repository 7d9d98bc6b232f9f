// Package output provides styled terminal rendering helpers for feedbackrank.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// Palette.
var (
	ColorPrimary = lipgloss.Color("#64b5f6")
	ColorSuccess = lipgloss.Color("#66bb6a") // de-escalations, healthy checks
	ColorError   = lipgloss.Color("#ef5350") // escalations, failed checks
	ColorWarning = lipgloss.Color("#fff59d") // anomalies, enterprise markers
	ColorMuted   = lipgloss.Color("#888888")
)

// Shared styles. SetNoColor swaps them between colored and plain variants,
// so callers must read them at render time rather than caching them.
var (
	StyleHeader  lipgloss.Style
	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleBold    lipgloss.Style

	// StyleLabel pads key/value labels in detail views.
	StyleLabel lipgloss.Style
	// StyleValue pads the values next to StyleLabel.
	StyleValue lipgloss.Style
)

const (
	labelWidth = 24
	valueWidth = 12
)

var noColor bool

func init() {
	applyStyles(true)
}

func applyStyles(color bool) {
	fg := func(c lipgloss.Color) lipgloss.Style {
		if !color {
			return lipgloss.NewStyle()
		}
		return lipgloss.NewStyle().Foreground(c)
	}
	bold := lipgloss.NewStyle()
	if color {
		bold = bold.Bold(true)
	}

	StyleHeader = fg(ColorPrimary).Inherit(bold)
	StyleSuccess = fg(ColorSuccess)
	StyleError = fg(ColorError)
	StyleWarning = fg(ColorWarning)
	StyleMuted = fg(ColorMuted)
	StyleBold = bold
	StyleLabel = lipgloss.NewStyle().Width(labelWidth)
	StyleValue = bold.Width(valueWidth)
}

// SetNoColor disables or re-enables colored output for every shared style.
func SetNoColor(disabled bool) {
	noColor = disabled
	applyStyles(!disabled)
}

// IsNoColor reports whether colored output is disabled.
func IsNoColor() bool {
	return noColor
}

// AutoDetectColor disables color when f is not a terminal or NO_COLOR is
// set. It never re-enables color that was already disabled.
func AutoDetectColor(f *os.File) {
	if os.Getenv("NO_COLOR") != "" {
		SetNoColor(true)
		return
	}
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		SetNoColor(true)
	}
}

// TierStyle returns the style for a tier badge, colored by the tier's
// configured hex color.
func TierStyle(t scoring.Tier) lipgloss.Style {
	if noColor {
		return lipgloss.NewStyle()
	}
	style := lipgloss.NewStyle().Bold(true)
	if t.Color == "" {
		return style
	}
	return style.Foreground(lipgloss.Color(t.Color))
}

// TierBadge renders a tier label, e.g. "[Urgent]".
func TierBadge(t scoring.Tier) string {
	return TierStyle(t).Render("[" + t.Label + "]")
}
