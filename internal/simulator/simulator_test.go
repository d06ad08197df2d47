package simulator

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenhouse-agent/gha/internal/client"
	"github.com/greenhouse-agent/gha/internal/config"
	"github.com/greenhouse-agent/gha/internal/errors"
	"github.com/greenhouse-agent/gha/internal/metrics"
	"github.com/greenhouse-agent/gha/pkg/api"
)

func newTestSimulator(t *testing.T, mutate ...func(*config.SimulatorConfig)) *Simulator {
	t.Helper()
	cfg := config.DefaultConfig().Simulator
	for _, m := range mutate {
		m(&cfg)
	}
	sim, err := New(cfg, WithSeed(1))
	require.NoError(t, err)
	return sim
}

func get(t *testing.T, h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSwitchesStateStartsNull(t *testing.T) {
	sim := newTestSimulator(t)
	w := get(t, sim.Handler(), api.PathSwitchesState)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pin_state":null`)

	var state api.SwitchesState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	require.Len(t, state.Switches, 2)
	assert.Equal(t, "fan", state.Switches[0].Name)
	assert.Equal(t, uint32(17), state.Switches[0].PinNum)
	assert.True(t, state.Switches[0].IsAuto)
	assert.False(t, state.Switches[0].IsOn())
	assert.Equal(t, "heater", state.Switches[1].Name)
}

func TestPinOutput(t *testing.T) {
	sim := newTestSimulator(t)
	h := sim.Handler()

	w := get(t, h, "/pin/output/27/1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sw api.SwitchState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sw))
	assert.True(t, sw.IsOn())

	snap := sim.Bank().Snapshot()
	assert.Equal(t, 1, snap[1].PinState)

	body := get(t, h, api.PathMetrics).Body.String()
	assert.Contains(t, body, "heater_state 1")
}

func TestPinErrors(t *testing.T) {
	sim := newTestSimulator(t)
	h := sim.Handler()

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/pin/output/3/1", http.StatusBadRequest, "400 Bad Request: InvalidPin: pin 3 not found"},
		{"/pin/output/17/2", http.StatusBadRequest, "400 Bad Request: InvalidPinValue 17: 2 must be 0 or 1"},
		{"/pin/override_auto/3/1", http.StatusBadRequest, "400 Bad Request: InvalidPin: pin 3 not found"},
		{"/pin/override_auto/17/yes", http.StatusBadRequest, "400 Bad Request: InvalidPinValue 17: yes must be 0 or 1"},
		{"/pin/output/abc/1", http.StatusNotFound, "404 Not Found"},
		{"/nope", http.StatusNotFound, "404 Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(t, h, tt.path)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestOverrideAuto(t *testing.T) {
	sim := newTestSimulator(t)
	w := get(t, sim.Handler(), "/pin/override_auto/17/1")
	require.Equal(t, http.StatusOK, w.Code)

	snap := sim.Bank().Snapshot()
	assert.True(t, snap[0].OverrideAuto)
	assert.True(t, snap[0].ToggleEnabled())
}

func TestMetricsGauges(t *testing.T) {
	sim := newTestSimulator(t)
	require.True(t, sim.Sensors().Set("inside", 25, 48.5))

	w := get(t, sim.Handler(), api.PathMetrics)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "# TYPE inside_c gauge")
	assert.Contains(t, body, "inside_c 25\n")
	assert.Contains(t, body, "inside_f 77\n")
	assert.Contains(t, body, "inside_h 48.5\n")
	assert.Contains(t, body, "fan_state 0\n")

	rows := metrics.NewParser().Parse(body)
	byName := map[string]string{}
	for _, r := range rows {
		byName[r.Name] = r.Value
	}
	assert.Equal(t, "77.00", byName["inside_f"])
	assert.Equal(t, "48.50", byName["inside_h"])
	_, hasCelsius := byName["inside_c"]
	assert.False(t, hasCelsius)
}

func TestSensorsStep(t *testing.T) {
	sim := newTestSimulator(t)
	before := get(t, sim.Handler(), api.PathMetrics).Body.String()
	for i := 0; i < 5; i++ {
		sim.Sensors().Step()
	}
	after := get(t, sim.Handler(), api.PathMetrics).Body.String()
	assert.NotEqual(t, before, after)
}

func TestCelsiusToFahrenheit(t *testing.T) {
	assert.Equal(t, 32.0, CelsiusToFahrenheit(0))
	assert.Equal(t, 212.0, CelsiusToFahrenheit(100))
	assert.InDelta(t, 70.7, CelsiusToFahrenheit(21.5), 1e-9)
}

func TestInvalidMetricName(t *testing.T) {
	cfg := config.DefaultConfig().Simulator
	cfg.Sensors = []config.SensorConfig{{Name: "bad name"}}
	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	cfg = config.DefaultConfig().Simulator
	cfg.Sensors = []config.SensorConfig{{Name: "back room"}, {Name: "back_room"}}
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestCORS(t *testing.T) {
	sim := newTestSimulator(t, func(c *config.SimulatorConfig) {
		c.CORSOrigins = []string{"http://dash.local"}
	})
	h := sim.Handler()

	w := get(t, h, api.PathSwitchesState, "Origin", "http://dash.local")
	assert.Equal(t, "http://dash.local", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(t, h, api.PathSwitchesState, "Origin", "http://evil.local")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodOptions, api.PathSwitchesState, nil)
	req.Header.Set("Origin", "http://dash.local")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
}

// The client's fetch/mutate/refresh cycle against the simulated agent.
func TestClientAgainstSimulator(t *testing.T) {
	sim := newTestSimulator(t)
	srv := httptest.NewServer(sim.Handler())
	t.Cleanup(srv.Close)

	rec := &client.Recorder{}
	c := client.New(srv.URL, client.WithNotifier(rec))
	ctx := context.Background()

	list, err := c.FetchSwitches(ctx)
	require.NoError(t, err)
	heater := list[1]
	require.True(t, heater.ToggleEnabled())

	require.NoError(t, c.SetPinState(ctx, heater.WithPinState(true)))
	assert.True(t, c.Switches()[1].IsOn())

	fan := c.Switches()[0]
	require.True(t, fan.Locked())
	require.NoError(t, c.SetPinOverride(ctx, fan.WithOverride(true)))
	assert.False(t, c.Switches()[0].Locked())

	err = c.SetPinState(ctx, api.SwitchState{PinNum: 99, PinState: 1})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrPinUpdate))
	assert.Contains(t, err.Error(), "InvalidPin: pin 99 not found")
	assert.Len(t, c.Switches(), 2)
	assert.Equal(t, 1, rec.Count())

	text, err := c.FetchMetricsText(ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "heater_state 1")
}

func TestRun(t *testing.T) {
	sim := newTestSimulator(t, func(c *config.SimulatorConfig) {
		c.Listen = "127.0.0.1:0"
		c.Tick = 10 * time.Millisecond
	})

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- sim.Run(ctx, func(a net.Addr) { addrCh <- a })
	}()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case err := <-done:
		t.Fatalf("Run exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("simulator never became ready")
	}

	resp, err := http.Get("http://" + addr.String() + api.PathHealth)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", strings.TrimSpace(string(body)))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("simulator did not shut down")
	}
}

func TestRunBadAddress(t *testing.T) {
	sim := newTestSimulator(t, func(c *config.SimulatorConfig) {
		c.Listen = "256.0.0.1:bad"
	})
	err := sim.Run(context.Background(), nil)
	assert.Error(t, err)
}
