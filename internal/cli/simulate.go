package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/greenhouse-agent/gha/internal/config"
	"github.com/greenhouse-agent/gha/internal/logger"
	"github.com/greenhouse-agent/gha/internal/simulator"
	"github.com/greenhouse-agent/gha/internal/ui"
)

var (
	simulateListen string
	simulateSeed   int64
)

var simulateCmd = &cobra.Command{
	Use:     "simulate",
	Aliases: []string{"sim"},
	Short:   "Run an in-memory greenhouse agent",
	Long: `Serve the agent's REST API from memory: a switch bank, drifting
temperature and humidity sensors, and /metrics in Prometheus text format.

Sensors and switches come from the 'simulator' section of .gha.yaml. A list
given there replaces the built-in one.

Examples:
  gha simulate
  gha simulate --listen 127.0.0.1:7777
  GHA_API_HOST=http://127.0.0.1:7777 gha dashboard`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return simulateCommand(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), simulateListen, simulateSeed)
	},
}

func init() {
	simulateCmd.Flags().StringVarP(&simulateListen, "listen", "l", "", "address to listen on (default from config, 0.0.0.0:6666)")
	simulateCmd.Flags().Int64Var(&simulateSeed, "seed", 0, "seed for sensor drift (0 picks one)")
	rootCmd.AddCommand(simulateCmd)
}

func simulateCommand(ctx context.Context, out, errOut io.Writer, listen string, seed int64) error {
	cfg, _, err := config.Resolve(Config())
	if err != nil {
		return err
	}

	sim := cfg.Simulator
	if listen != "" {
		sim.Listen = listen
	}
	if err := config.ValidateSimulator(sim); err != nil {
		return err
	}

	opts := []simulator.Option{simulator.WithLogger(logger.New("[simulator]", cfg.LogLevel, errOut))}
	if seed != 0 {
		opts = append(opts, simulator.WithSeed(seed))
	}
	s, err := simulator.New(sim, opts...)
	if err != nil {
		return err
	}

	ready := func(addr net.Addr) {
		if MachineMode() {
			_ = WriteJSONSuccess(out, map[string]interface{}{
				"listen":   addr.String(),
				"switches": len(sim.Switches),
				"sensors":  len(sim.Sensors),
			})
			return
		}
		fmt.Fprintf(out, "%s Simulated agent on http://%s (%d switches, %d sensors)\n",
			ui.SuccessStyle().Render(ui.SymbolSuccess), addr, len(sim.Switches), len(sim.Sensors))
		fmt.Fprintln(out, ui.MutedStyle().Render("  Press Ctrl+C to stop."))
	}
	return s.Run(ctx, ready)
}
