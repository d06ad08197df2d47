package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/greenhouse-agent/gha/internal/ui"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(m.renderSwitches())
	b.WriteString("\n")
	b.WriteString(m.renderSensors())
	b.WriteString("\n")

	if toasts := m.renderToasts(); toasts != "" {
		b.WriteString(toasts)
		b.WriteString("\n")
	}

	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title line with summary stats.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("greenhouse")

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(fmt.Sprintf(" | %s | %d switches | %d sensors | updated %s",
			m.client.BaseURL(), len(m.switches), len(m.sensors), m.updatedText()))

	busy := ""
	if m.Busy() {
		busy = " " + m.spinner.View()
	}

	return HeaderStyle.Render(title+stats) + busy
}

func (m Model) updatedText() string {
	if m.lastUpdate.IsZero() {
		return "never"
	}
	secs := int(time.Since(m.lastUpdate).Seconds())
	switch secs {
	case 0:
		return "just now"
	case 1:
		return "1s ago"
	default:
		return fmt.Sprintf("%ds ago", secs)
	}
}

// renderSwitches renders one row per switch.
func (m Model) renderSwitches() string {
	title := SectionTitleStyle.Render("Switches")
	if len(m.switches) == 0 {
		return SectionStyle.Render(title + "\n" + LabelStyle.Render("No switches reported"))
	}

	nameWidth := 0
	for _, sw := range m.switches {
		if w := lipgloss.Width(sw.Name); w > nameWidth {
			nameWidth = w
		}
	}

	lines := []string{title}
	for i, sw := range m.switches {
		lines = append(lines, renderSwitchRow(RowView(sw), nameWidth, i == m.selected))
	}
	return SectionStyle.Render(strings.Join(lines, "\n"))
}

func renderSwitchRow(row SwitchRow, nameWidth int, selected bool) string {
	cursor := CursorBlank
	if selected {
		cursor = Cursor
	}

	box := ui.Checkbox(row.On)
	name := fmt.Sprintf("%-*s", nameWidth, row.Name)
	pin := fmt.Sprintf("pin %-3d", row.Pin)

	var line string
	switch {
	case row.Disabled:
		line = DisabledStyle.Render(box+" "+name+"  "+pin) + " " + ui.SymbolLocked
	case selected:
		line = SelectedStyle.Render(box+" "+name) + "  " + LabelStyle.Render(pin)
	case row.On:
		line = OnStyle.Render(box) + " " + NameStyle.Render(name) + "  " + LabelStyle.Render(pin)
	default:
		line = box + " " + NameStyle.Render(name) + "  " + LabelStyle.Render(pin)
	}

	if row.ShowOverride {
		line += "  " + renderOverrideButton(row.Override)
	}

	return cursor + " " + line
}

func renderOverrideButton(on bool) string {
	if on {
		return OnStyle.Render("[override on]")
	}
	return LabelStyle.Render(ui.SymbolAuto + " [override off]")
}

// renderSensors renders name, value, unit and trend per sensor reading.
func (m Model) renderSensors() string {
	title := SectionTitleStyle.Render("Sensors")
	rows := sensorRows(m.sensors, m.history, sparklineWidth)
	if len(rows) == 0 {
		return SectionStyle.Render(title + "\n" + LabelStyle.Render("No readings yet"))
	}

	labelWidth := 0
	for _, r := range rows {
		if w := lipgloss.Width(r.Label); w > labelWidth {
			labelWidth = w
		}
	}

	lines := []string{title}
	for _, r := range rows {
		label := LabelStyle.Render(fmt.Sprintf("%-*s", labelWidth, r.Label))
		value := ValueStyle.Render(fmt.Sprintf("%8s", r.Value))
		if r.Flagged {
			value = ToastErrorStyle.Render(fmt.Sprintf("%8s", r.Value))
		}
		unit := LabelStyle.Render(fmt.Sprintf("%-4s", r.Unit))
		spark := ui.RenderSparkline(r.Trend, sparklineWidth, sparklineColor(r.Trend))
		lines = append(lines, strings.TrimRight(label+" "+value+" "+unit+" "+spark, " "))
	}
	return SectionStyle.Render(strings.Join(lines, "\n"))
}

// renderToasts renders visible toasts, newest last.
func (m Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		if t.isError {
			lines = append(lines, ToastErrorStyle.Render(ui.SymbolFail+" "+t.text))
		} else {
			lines = append(lines, ToastInfoStyle.Render(ui.SymbolPending+" "+t.text))
		}
	}
	return strings.Join(lines, "\n")
}

// renderFooter renders the keyboard help footer.
func (m Model) renderFooter() string {
	hints := []string{
		"q quit",
		"space toggle",
		"o override",
		"r refresh",
		"↑↓ select",
		"? help",
	}

	return FooterStyle.Render(strings.Join(hints, " | "))
}
