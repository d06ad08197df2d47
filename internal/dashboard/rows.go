package dashboard

import (
	"github.com/greenhouse-agent/gha/internal/metrics"
	"github.com/greenhouse-agent/gha/pkg/api"
)

// SwitchRow is the presentational state of one switch row.
type SwitchRow struct {
	Name         string
	Pin          uint32
	On           bool
	Disabled     bool // manual toggle is not interactive
	ShowOverride bool // override button is rendered
	Override     bool
}

// RowView derives what a switch row shows from the agent's state.
func RowView(sw api.SwitchState) SwitchRow {
	return SwitchRow{
		Name:         sw.Name,
		Pin:          sw.PinNum,
		On:           sw.IsOn(),
		Disabled:     !sw.ToggleEnabled(),
		ShowOverride: sw.ShowOverride(),
		Override:     sw.OverrideAuto,
	}
}

// SensorRow is one rendered sensor reading.
type SensorRow struct {
	Name    string
	Label   string
	Value   string
	Unit    string
	Flagged bool
	Trend   []float64
}

// sensorRows joins parsed metric rows with their recent history.
func sensorRows(rows []metrics.Row, history *metrics.History, width int) []SensorRow {
	out := make([]SensorRow, 0, len(rows))
	for _, r := range rows {
		row := SensorRow{
			Name:    r.Name,
			Label:   metrics.Label(r.Name),
			Value:   r.Value,
			Unit:    metrics.Unit(r.Name),
			Flagged: r.Err != nil,
		}
		if history != nil {
			row.Trend = history.Last(r.Name, width)
		}
		out = append(out, row)
	}
	return out
}
