package dashboard

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/greenhouse-agent/gha/internal/client"
	"github.com/greenhouse-agent/gha/internal/errors"
	"github.com/greenhouse-agent/gha/internal/logger"
	"github.com/greenhouse-agent/gha/internal/metrics"
	"github.com/greenhouse-agent/gha/pkg/api"
)

const (
	// DefaultInterval is the poll period when none is configured.
	DefaultInterval = 5 * time.Second

	// ToastTTL is how long a toast stays on screen.
	ToastTTL = 4 * time.Second

	maxToasts      = 3
	sparklineWidth = 20
)

// Options configures a dashboard Model.
type Options struct {
	Client *client.Client
	// Queue serializes mutations. Nil runs them directly.
	Queue *client.Queue
	// Alerts is the notifier the client was built with. When nil, errors
	// carried on result messages become toasts instead.
	Alerts   *client.ChanNotifier
	Parser   *metrics.Parser
	History  *metrics.History
	Interval time.Duration
	Logger   logger.Logger
}

// Model is the Bubble Tea model for the greenhouse dashboard.
type Model struct {
	client  *client.Client
	queue   *client.Queue
	alerts  *client.ChanNotifier
	parser  *metrics.Parser
	history *metrics.History
	log     logger.Logger

	switches []api.SwitchState
	sensors  []metrics.Row
	selected int

	interval   time.Duration
	lastUpdate time.Time
	busy       int
	spinner    spinner.Model
	toasts     []toast

	width    int
	height   int
	showHelp bool
	quitting bool
}

type toast struct {
	text    string
	isError bool
	expires time.Time
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// toastExpireMsg prunes toasts that expired before its time.
type toastExpireMsg time.Time

// switchesMsg reports a /switches_state fetch.
type switchesMsg struct {
	err error
}

// metricsMsg reports a /metrics fetch.
type metricsMsg struct {
	err error
}

// mutationMsg reports a finished mutate-then-refresh.
type mutationMsg struct {
	err error
}

// alertMsg carries one alert from the client's notifier.
type alertMsg struct {
	err error
}

// NewModel creates a dashboard model. Client is required.
func NewModel(opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Parser == nil {
		opts.Parser = metrics.NewParser()
	}
	if opts.History == nil {
		opts.History = metrics.NewHistory(metrics.DefaultHistorySize)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}

	return Model{
		client:   opts.Client,
		queue:    opts.Queue,
		alerts:   opts.Alerts,
		parser:   opts.Parser,
		history:  opts.History,
		log:      opts.Logger,
		interval: opts.Interval,
		busy:     2, // the fetches started by Init
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
	}
}

// Init fetches the initial state and starts the poll tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchSwitchesCmd(),
		m.fetchMetricsCmd(),
		m.tickCmd(),
		m.waitAlertCmd(),
		m.spinner.Tick,
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.busy += 2
		return m, tea.Batch(m.tickCmd(), m.fetchSwitchesCmd(), m.fetchMetricsCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case switchesMsg:
		m.done()
		if msg.err != nil {
			return m, m.errorToast(msg.err)
		}
		m.reloadSwitches()

	case metricsMsg:
		m.done()
		if msg.err != nil {
			return m, m.errorToast(msg.err)
		}
		m.reloadSensors()

	case mutationMsg:
		m.done()
		// The client refreshes after every mutation, so its cache holds the
		// confirmed state whether or not the mutation went through.
		m.reloadSwitches()
		if msg.err != nil {
			return m, m.errorToast(msg.err)
		}

	case alertMsg:
		return m, tea.Batch(m.addToast(toastText(msg.err), true), m.waitAlertCmd())

	case toastExpireMsg:
		m.pruneToasts(time.Time(msg))
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

// Switches returns the switch list currently displayed.
func (m Model) Switches() []api.SwitchState {
	return m.switches
}

// Sensors returns the sensor rows currently displayed.
func (m Model) Sensors() []metrics.Row {
	return m.sensors
}

// Selected returns the index of the selected switch row.
func (m Model) Selected() int {
	return m.selected
}

// Busy reports whether any request is in flight.
func (m Model) Busy() bool {
	return m.busy > 0
}

// Toasts returns the text of every visible toast, oldest first.
func (m Model) Toasts() []string {
	out := make([]string, len(m.toasts))
	for i, t := range m.toasts {
		out[i] = t.text
	}
	return out
}

// SelectedSwitch returns the switch under the cursor.
func (m Model) SelectedSwitch() (api.SwitchState, bool) {
	if m.selected >= 0 && m.selected < len(m.switches) {
		return m.switches[m.selected], true
	}
	return api.SwitchState{}, false
}

func (m *Model) done() {
	if m.busy > 0 {
		m.busy--
	}
}

func (m *Model) reloadSwitches() {
	m.switches = m.client.Switches()
	if m.selected >= len(m.switches) {
		m.selected = len(m.switches) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.lastUpdate = time.Now()
}

func (m *Model) reloadSensors() {
	rows, errs := m.parser.ParseWithErrors(m.client.MetricsText())
	for _, e := range errs {
		m.log.Debug("%v", e)
	}
	m.history.Push(rows)
	m.sensors = rows
	m.lastUpdate = time.Now()
}

// errorToast surfaces err only when no notifier is attached; otherwise the
// client has already alerted.
func (m *Model) errorToast(err error) tea.Cmd {
	m.log.Warn("%v", err)
	if m.alerts != nil {
		return nil
	}
	return m.addToast(toastText(err), true)
}

func (m *Model) infoToast(text string) tea.Cmd {
	return m.addToast(text, false)
}

func (m *Model) addToast(text string, isError bool) tea.Cmd {
	m.toasts = append(m.toasts, toast{text: text, isError: isError, expires: time.Now().Add(ToastTTL)})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	return tea.Tick(ToastTTL, func(t time.Time) tea.Msg {
		return toastExpireMsg(t)
	})
}

func (m *Model) pruneToasts(now time.Time) {
	var kept []toast
	for _, t := range m.toasts {
		if t.expires.After(now) {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

func toastText(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Short()
	}
	return err.Error()
}

// tickCmd returns a command that sends a tick after the refresh interval.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchSwitchesCmd() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		_, err := c.FetchSwitches(context.Background())
		return switchesMsg{err: err}
	}
}

func (m Model) fetchMetricsCmd() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		_, err := c.FetchMetricsText(context.Background())
		return metricsMsg{err: err}
	}
}

// mutateCmd runs fn through the queue when there is one.
func (m Model) mutateCmd(fn func(context.Context) error) tea.Cmd {
	q := m.queue
	return func() tea.Msg {
		ctx := context.Background()
		if q == nil {
			return mutationMsg{err: fn(ctx)}
		}
		return mutationMsg{err: q.Do(ctx, fn)}
	}
}

// waitAlertCmd blocks until the notifier delivers an alert.
func (m Model) waitAlertCmd() tea.Cmd {
	if m.alerts == nil {
		return nil
	}
	ch := m.alerts.C()
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return alertMsg{err: err}
	}
}

// togglePin flips the selected switch. Locked rows only get a toast.
func (m *Model) togglePin() tea.Cmd {
	sw, ok := m.SelectedSwitch()
	if !ok {
		return nil
	}
	if !sw.ToggleEnabled() {
		return m.infoToast(sw.Name + " is under automatic control (press o to override)")
	}

	target := sw.WithPinState(!sw.IsOn())
	c := m.client
	m.busy++
	return m.mutateCmd(func(ctx context.Context) error {
		return c.SetPinState(ctx, target)
	})
}

// toggleOverride flips the manual override of the selected automatic switch.
func (m *Model) toggleOverride() tea.Cmd {
	sw, ok := m.SelectedSwitch()
	if !ok || !sw.ShowOverride() {
		return nil
	}

	target := sw.WithOverride(!sw.OverrideAuto)
	c := m.client
	m.busy++
	return m.mutateCmd(func(ctx context.Context) error {
		return c.SetPinOverride(ctx, target)
	})
}

// refresh refetches both endpoints now.
func (m *Model) refresh() tea.Cmd {
	m.busy += 2
	return tea.Batch(m.fetchSwitchesCmd(), m.fetchMetricsCmd())
}
