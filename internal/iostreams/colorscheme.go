package iostreams

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	ColorEmerald = lipgloss.Color("#04B575")
	ColorAmber   = lipgloss.Color("#FFCC00")
	ColorHotPink = lipgloss.Color("#FF5F87")
	ColorDimGray = lipgloss.Color("#626262")
	ColorSkyBlue = lipgloss.Color("#87CEEB")
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorEmerald)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorAmber)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorHotPink)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorDimGray)
	InfoStyle    = lipgloss.NewStyle().Foreground(ColorSkyBlue)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
)

// ColorScheme provides terminal color formatting.
// When colors are disabled, methods return the input string unmodified.
type ColorScheme struct {
	enabled bool
}

// NewColorScheme creates a new ColorScheme.
func NewColorScheme(enabled bool) *ColorScheme {
	return &ColorScheme{enabled: enabled}
}

// Enabled returns whether colors are enabled.
func (cs *ColorScheme) Enabled() bool {
	return cs.enabled
}

func (cs *ColorScheme) render(style lipgloss.Style, s string) string {
	if !cs.enabled {
		return s
	}
	return style.Render(s)
}

func (cs *ColorScheme) Green(s string) string  { return cs.render(SuccessStyle, s) }
func (cs *ColorScheme) Yellow(s string) string { return cs.render(WarningStyle, s) }
func (cs *ColorScheme) Red(s string) string    { return cs.render(ErrorStyle, s) }
func (cs *ColorScheme) Cyan(s string) string   { return cs.render(InfoStyle, s) }
func (cs *ColorScheme) Muted(s string) string  { return cs.render(MutedStyle, s) }
func (cs *ColorScheme) Bold(s string) string   { return cs.render(BoldStyle, s) }

// SuccessIconWithColor prefixes text with a success indicator.
// With colors: green ✓. Without colors: [ok].
func (cs *ColorScheme) SuccessIconWithColor(text string) string {
	if cs.enabled {
		return cs.Green("✓ " + text)
	}
	return "[ok] " + text
}

// WarningIconWithColor prefixes text with a warning indicator.
func (cs *ColorScheme) WarningIconWithColor(text string) string {
	if cs.enabled {
		return cs.Yellow("! " + text)
	}
	return "[warn] " + text
}

// FailureIconWithColor prefixes text with a failure indicator.
func (cs *ColorScheme) FailureIconWithColor(text string) string {
	if cs.enabled {
		return cs.Red("✗ " + text)
	}
	return "[error] " + text
}

// InfoIconWithColor prefixes text with an info indicator.
func (cs *ColorScheme) InfoIconWithColor(text string) string {
	if cs.enabled {
		return cs.Cyan("ℹ " + text)
	}
	return "[info] " + text
}
