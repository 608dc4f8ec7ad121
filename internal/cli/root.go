package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/pimon/internal/config"
	"github.com/rileyhilliard/pimon/internal/errors"
)

// Global flags
var (
	configFlag     string
	intervalFlag   string
	refreshAllFlag bool
)

// rootCmd opens the dashboard.
var rootCmd = &cobra.Command{
	Use:   "pimon [config]",
	Short: "Terminal dashboard for Pi-hole",
	Long: `pimon polls one or more Pi-hole servers and shows their summary
statistics, queries over time, and top domains and clients.

The config file lists the servers to watch:

  {
    "servers": [
      {"name": "home", "host": "http://192.168.1.2", "api_key": "..."}
    ],
    "update_delay": 1000
  }

Without an argument, pimon looks for pimon.json, pimon.yaml or pimon.yml in
the current directory, then in ~/.config/pimon.

Examples:
  pimon
  pimon ~/pihole.json
  pimon --interval 5s --refresh-all`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFlag
		if len(args) == 1 {
			path = args[0]
		}
		return dashboardCommand(path, intervalFlag, refreshAllFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "config file path")
	rootCmd.Flags().StringVar(&intervalFlag, "interval", "", "override update_delay (e.g., 2s, 500ms)")
	rootCmd.Flags().BoolVar(&refreshAllFlag, "refresh-all", false, "refresh every server, not just the selected one")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

// formatError renders an error for the terminal, adding a hint for
// mistyped commands.
func formatError(err error) string {
	if isUnknownCommandError(err) {
		msg := "Error: " + err.Error()
		if name := extractUnknownCommand(err); name != "" {
			msg += fmt.Sprintf("\n\n'%s' is not a pimon command. Run 'pimon --help' for usage.", name)
		}
		return msg
	}
	return "Error: " + err.Error()
}

// isUnknownCommandError reports whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "pimon"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// loadConfig resolves the config path and loads it.
func loadConfig(explicit string) (*config.Config, string, error) {
	path := config.Find(explicit)
	if path == "" {
		return nil, "", errors.New(errors.ErrConfig,
			"No config file found",
			"Pass a config path, or run 'pimon init' to create "+config.ConfigFileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
