package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenhouse-agent/gha/internal/client"
	"github.com/greenhouse-agent/gha/internal/metrics"
	"github.com/greenhouse-agent/gha/pkg/api"
)

func TestRowView(t *testing.T) {
	tests := []struct {
		name         string
		sw           api.SwitchState
		disabled     bool
		showOverride bool
	}{
		{
			name:         "automatic without override is locked",
			sw:           api.SwitchState{Name: "fan", IsAuto: true},
			disabled:     true,
			showOverride: true,
		},
		{
			name:         "automatic with override is interactive",
			sw:           api.SwitchState{Name: "fan", IsAuto: true, OverrideAuto: true},
			showOverride: true,
		},
		{
			name: "manual switch",
			sw:   api.SwitchState{Name: "heater", PinState: 1},
		},
		{
			name: "override flag without automatic control has no button",
			sw:   api.SwitchState{Name: "pump", OverrideAuto: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := RowView(tt.sw)
			assert.Equal(t, tt.disabled, row.Disabled)
			assert.Equal(t, tt.showOverride, row.ShowOverride)
			assert.Equal(t, tt.sw.IsOn(), row.On)
			assert.Equal(t, tt.sw.Name, row.Name)
		})
	}
}

func TestRowViewPinStateAboveOne(t *testing.T) {
	assert.True(t, RowView(api.SwitchState{PinState: 2}).On)
}

func TestView(t *testing.T) {
	_, srv := newFakeAgent(t)
	m := loadedModel(t, Options{Client: client.New(srv.URL)})
	view := m.View()

	assert.Contains(t, view, "greenhouse")
	assert.Contains(t, view, srv.URL)
	assert.Contains(t, view, "2 switches")
	assert.Contains(t, view, "[ ] fan")
	assert.Contains(t, view, "[x] heater")
	assert.Contains(t, view, "🔒")
	assert.Contains(t, view, "[override off]")

	assert.Contains(t, view, "inside")
	assert.Contains(t, view, "72.35")
	assert.Contains(t, view, "°F")
	assert.Contains(t, view, "48.50")
	assert.Contains(t, view, "%RH")
	assert.NotContains(t, view, "22.4", "Celsius readings are not on the allow-list")

	assert.Contains(t, view, "space toggle")
}

func TestViewMarksSelection(t *testing.T) {
	_, srv := newFakeAgent(t)
	m := loadedModel(t, Options{Client: client.New(srv.URL)})

	assert.Contains(t, m.View(), "> [ ] fan")
	m, _ = update(t, m, key("j"))
	assert.Contains(t, m.View(), "> [x] heater")
}

func TestViewEmptyState(t *testing.T) {
	m := NewModel(Options{Client: client.New("http://localhost:1")})
	view := m.View()

	assert.Contains(t, view, "No switches reported")
	assert.Contains(t, view, "No readings yet")
	assert.Contains(t, view, "updated never")
}

func TestViewFlaggedReading(t *testing.T) {
	_, srv := newFakeAgent(t)
	m := NewModel(Options{
		Client: client.New(srv.URL),
		Parser: metrics.NewParser(metrics.WithPolicy(metrics.PolicyFlag)),
	})
	m.sensors = m.parser.Parse("inside_f bogus\n")
	require.Len(t, m.sensors, 1)

	assert.Contains(t, m.View(), metrics.FlaggedValue)
}

func TestViewToasts(t *testing.T) {
	_, srv := newFakeAgent(t)
	m := loadedModel(t, Options{Client: client.New(srv.URL)})
	m, _ = update(t, m, key("space"))

	assert.Contains(t, m.View(), "fan is under automatic control")
}

func TestHelpOverlay(t *testing.T) {
	_, srv := newFakeAgent(t)
	m := loadedModel(t, Options{Client: client.New(srv.URL)})

	m, _ = update(t, m, key("?"))
	view := m.View()
	assert.Contains(t, view, "Keyboard Shortcuts")
	assert.Contains(t, view, "Toggle selected switch")

	// Keys other than quit are swallowed while help is open.
	m, cmd := update(t, m, key("space"))
	assert.Nil(t, cmd)
	assert.Empty(t, m.Toasts())

	m, _ = update(t, m, key("esc"))
	assert.NotContains(t, m.View(), "Keyboard Shortcuts")
}

func TestSensorRowsCarryTrend(t *testing.T) {
	h := metrics.NewHistory(10)
	p := metrics.NewParser()
	for _, text := range []string{"inside_f 70\n", "inside_f 71\n", "inside_f 72\n"} {
		h.Push(p.Parse(text))
	}

	rows := sensorRows(p.Parse("inside_f 72\n"), h, 20)
	require.Len(t, rows, 1)
	assert.Equal(t, "inside", rows[0].Label)
	assert.Equal(t, "°F", rows[0].Unit)
	assert.Equal(t, []float64{70, 71, 72}, rows[0].Trend)
}
