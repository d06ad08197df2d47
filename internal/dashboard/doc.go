// Package dashboard implements the greenhouse TUI: switch rows that can be
// toggled and sensor readings with short trend sparklines.
//
// # Architecture
//
// The package uses the Bubble Tea framework (Model-Update-View):
//
//   - Model: holds the confirmed switch list, parsed sensor rows, selection and toasts
//   - Update: processes keystrokes, poll ticks, fetch results and alerts
//   - View: renders the current state to a string
//
// # Message Flow
//
//  1. Init fetches /switches_state and /metrics and starts the poll tick
//  2. tickMsg refetches both at the configured interval (default 5s)
//  3. switchesMsg / metricsMsg reload the client's cached state
//  4. A toggle runs mutate-then-refresh through the client's Queue;
//     mutationMsg reloads the cached, server-confirmed switch list
//  5. alertMsg carries client alerts from a channel notifier into toasts
//
// Network I/O never happens inside Update; every request runs in a tea.Cmd.
package dashboard
