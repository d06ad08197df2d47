package cli

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/greenhouse-agent/gha/internal/client"
	"github.com/greenhouse-agent/gha/internal/config"
	"github.com/greenhouse-agent/gha/internal/dashboard"
	"github.com/greenhouse-agent/gha/internal/errors"
	"github.com/greenhouse-agent/gha/internal/logger"
	"github.com/greenhouse-agent/gha/internal/metrics"
)

var dashboardInterval time.Duration

// alertBuffer bounds how many unshown alerts the dashboard holds.
const alertBuffer = 16

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "ui"},
	Short:   "Interactive dashboard for sensors and switches",
	Long: `Open a live view of the greenhouse agent.

The dashboard polls the agent, lists every switch with its state, and shows
sensor readings with a short trend. Switches under automatic control are
locked until you take them over with 'o'.

Keys:
  space/enter  toggle the selected switch
  o            take or release manual control
  r            refresh now
  ?            help
  q            quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(dashboardInterval)
	},
}

func init() {
	dashboardCmd.Flags().DurationVarP(&dashboardInterval, "interval", "i", 0, "poll interval (default from config, 5s)")
	rootCmd.AddCommand(dashboardCmd)
}

func dashboardCommand(interval time.Duration) error {
	if MachineMode() {
		return errors.New(errors.ErrExec,
			"The dashboard is interactive and has no JSON output",
			"Use 'gha switches --json' or 'gha metrics --json' instead.")
	}

	// The terminal belongs to the TUI; logs go to log_file or nowhere.
	s, err := loadSession(io.Discard)
	if err != nil {
		return err
	}

	if s.cfg.LogFile != "" {
		fileLog, closeLog, err := logger.NewFileLogger(config.ExpandPath(s.cfg.LogFile), "[dashboard]", s.cfg.LogLevel)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't open the dashboard log file",
				"Check log_file in .gha.yaml, or leave it empty to disable logging.")
		}
		defer closeLog() //nolint:errcheck
		s.log = fileLog
	}

	if interval <= 0 {
		interval = s.cfg.Dashboard.Interval
	}

	alerts := client.NewChanNotifier(alertBuffer)
	c := s.newClient(alerts)

	var queue *client.Queue
	if s.cfg.Client.Serialize {
		queue = client.NewQueue(0)
		defer queue.Close()
	}

	model := dashboard.NewModel(dashboard.Options{
		Client:   c,
		Queue:    queue,
		Alerts:   alerts,
		Parser:   s.parser(),
		History:  metrics.NewHistory(s.cfg.Dashboard.History),
		Interval: interval,
		Logger:   s.log,
	})

	s.log.Info("dashboard started against %s (poll every %s)", c.BaseURL(), interval)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
