package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/greenhouse-agent/gha/internal/ui"
)

// Dashboard palette.
const (
	ColorSurfaceBg = lipgloss.Color("#12181A")
	ColorBorder    = lipgloss.Color("#2A4A3A")

	ColorOn       = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF3355")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4D0C0")
	ColorTextMuted     = lipgloss.Color("#6B8D7A")

	ColorAccent = lipgloss.Color("#2EFF97")
	ColorGraph  = lipgloss.Color("#00FFFF")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginBottom(1)

	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	NameStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	DisabledStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Faint(true)

	OnStyle = lipgloss.NewStyle().
		Foreground(ColorOn)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	ToastErrorStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	ToastInfoStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)
)

// Cursor marks the selected switch row.
const (
	Cursor      = ">"
	CursorBlank = " "
)

// sparklineColor picks the trend color for a sensor's recent history.
func sparklineColor(data []float64) lipgloss.Color {
	if len(data) < 2 {
		return ColorGraph
	}
	return ui.TrendColor(data)
}
