package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/greenhouse-agent/gha/internal/client"
	"github.com/greenhouse-agent/gha/internal/config"
	"github.com/greenhouse-agent/gha/internal/errors"
	"github.com/greenhouse-agent/gha/internal/ui"
)

// probeTimeout bounds the reachability check done after writing a config.
const probeTimeout = 3 * time.Second

var (
	initAPIHost string
	initForce   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .gha.yaml in the current directory",
	Long: `Write a commented .gha.yaml pointing at your greenhouse agent.

In a terminal you are asked for the agent address. Otherwise pass --api-host.
After writing, gha checks whether the agent answers; a failure there is only
a warning.

Examples:
  gha init
  gha init --api-host http://greenhouse.local:6666
  gha init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		host := initAPIHost
		if host == "" {
			host = apiHostFlag
		}
		return Init(cmd.Context(), cmd.OutOrStdout(), InitOptions{
			APIHost:        host,
			Overwrite:      initForce,
			NonInteractive: !canPrompt(),
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the gha config",
}

var configSetHostCmd = &cobra.Command{
	Use:   "set-host <url>",
	Short: "Set api_host in the current config file",
	Long: `Update api_host in the config file gha would load, keeping comments
and the rest of the file intact.

Examples:
  gha config set-host greenhouse.local:6666
  gha config set-host https://greenhouse.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return configSetHostCommand(cmd.OutOrStdout(), args[0])
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved config",
	Long: `Print the config after layering the file, .env files and environment
variables, so you can see which api_host gha will actually use.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowCommand(cmd.OutOrStdout())
	},
}

func init() {
	initCmd.Flags().StringVar(&initAPIHost, "host", "", "agent base URL to write (skips the prompt)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing .gha.yaml")
	rootCmd.AddCommand(initCmd)

	configCmd.AddCommand(configSetHostCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// InitOptions holds options for the init command.
type InitOptions struct {
	APIHost        string // Pre-specified agent address
	Path           string // Where to write; defaults to ./.gha.yaml
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts
	SkipProbe      bool   // Don't contact the agent after writing
}

// InitOutput is the --json payload of 'gha init'.
type InitOutput struct {
	Path      string `json:"path"`
	APIHost   string `json:"api_host"`
	Reachable bool   `json:"reachable"`
}

// Init creates a new .gha.yaml configuration file.
func Init(ctx context.Context, out io.Writer, opts InitOptions) error {
	configPath := opts.Path
	if configPath == "" {
		configPath = filepath.Join(".", config.ConfigFileName)
	}

	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite, or 'gha config set-host' to change the host")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	host := opts.APIHost
	if host == "" && !opts.NonInteractive {
		host = config.DefaultAPIHost
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Greenhouse agent address").
					Description("Base URL of the agent's REST API").
					Placeholder("http://greenhouse.local:6666").
					Value(&host).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("an address is required")
						}
						_, err := config.NormalizeAPIHost(s)
						return err
					}),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Check terminal compatibility or pass --host")
		}
	}

	cfg := config.DefaultConfig()
	if host != "" {
		normalized, err := config.NormalizeAPIHost(host)
		if err != nil {
			return err
		}
		cfg.APIHost = normalized
	}

	// Overwrite was settled above.
	if err := config.WriteDefault(configPath, cfg, true); err != nil {
		return err
	}

	reachable := false
	if !opts.SkipProbe {
		reachable = probeAgent(ctx, cfg)
	}

	if MachineMode() {
		return WriteJSONSuccess(out, InitOutput{Path: configPath, APIHost: cfg.APIHost, Reachable: reachable})
	}

	fmt.Fprintf(out, "%s Wrote %s (api_host: %s)\n", ui.SuccessStyle().Render(ui.SymbolSuccess), configPath, cfg.APIHost)
	if !opts.SkipProbe && !reachable {
		fmt.Fprintf(out, "%s The agent at %s didn't answer. Run 'gha doctor' once it's up.\n",
			ui.WarningStyle().Render("!"), cfg.APIHost)
	}
	return nil
}

// probeAgent reports whether the agent answers /switches_state.
func probeAgent(ctx context.Context, cfg *config.Config) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	c := client.New(cfg.APIHost, client.WithTimeout(probeTimeout))
	_, err := c.FetchSwitches(ctx)
	return err == nil
}

func configSetHostCommand(out io.Writer, host string) error {
	path, err := config.Find(Config())
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"Couldn't find a config file to update",
			"Run 'gha init --host "+host+"' to create one.")
	}

	if err := config.SetAPIHost(path, host); err != nil {
		return err
	}
	normalized, _ := config.NormalizeAPIHost(host)

	if MachineMode() {
		return WriteJSONSuccess(out, map[string]string{"path": path, "api_host": normalized})
	}
	fmt.Fprintf(out, "%s api_host set to %s in %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), normalized, path)
	return nil
}

func configShowCommand(out io.Writer) error {
	cfg, path, err := config.Resolve(Config())
	if err != nil {
		return err
	}
	if apiHostFlag != "" {
		host, err := config.NormalizeAPIHost(apiHostFlag)
		if err != nil {
			return err
		}
		cfg.APIHost = host
	}

	if MachineMode() {
		return WriteJSONSuccess(out, map[string]interface{}{"path": path, "config": cfg})
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to render config",
			"This shouldn't happen - please report this bug")
	}
	source := path
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintln(out, ui.MutedStyle().Render("# from "+source))
	fmt.Fprint(out, string(data))
	return nil
}
