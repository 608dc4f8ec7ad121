package cli

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/pimon/internal/config"
	"github.com/rileyhilliard/pimon/internal/errors"
)

// Command-specific flags
var (
	statusJSONFlag    bool
	statusTopFlag     int
	statusTimeoutFlag string
	initServerFlags   ServerFlags
	initYesFlag       bool
	initSkipCheckFlag bool
)

// statusCmd fetches every server once and prints a report
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a one-shot summary of every server",
	Long: `Fetch every configured server once and print its headline counters.

Unlike the dashboard, status works without a terminal, so it can feed
scripts and cron jobs.

Examples:
  pimon status
  pimon status --top 5
  pimon status --json | jq '.servers[].summary.ads_percentage_today'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, err := ParseInterval(statusTimeoutFlag)
		if err != nil {
			return err
		}
		return statusCommand(cmd.OutOrStdout(), configFlag, statusOptions{
			JSON:    statusJSONFlag,
			Top:     statusTopFlag,
			Timeout: timeout,
		})
	},
}

// initCmd adds a server to the config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Add a Pi-hole server to the config file",
	Long: `Add a server to the config file, creating it if needed.

Prompts for the address, a display name and an optional API token, then
checks that the server answers before saving.

Examples:
  pimon init
  pimon init --yes --host http://192.168.1.2 --name home
  pimon init -c ~/.config/pimon/pimon.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(cmd)
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for pimon.

Examples:
  # Bash
  pimon completion bash > /etc/bash_completion.d/pimon

  # Zsh
  pimon completion zsh > "${fpath[1]}/_pimon"

  # Fish
  pimon completion fish > ~/.config/fish/completions/pimon.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return errors.New(errors.ErrExec,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

// initCommand is the implementation called by the cobra command.
func initCommand(cmd *cobra.Command) error {
	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	if !initYesFlag && !interactive {
		return errors.New(errors.ErrConfig,
			"init needs an interactive terminal",
			"Pass --yes with --host to run without prompts.")
	}

	path := configFlag
	if path == "" {
		path = config.Find("")
	}

	return Init(InitOptions{
		Path:           path,
		Server:         initServerFlags,
		NonInteractive: initYesFlag,
		SkipCheck:      initSkipCheckFlag,
		Out:            cmd.OutOrStdout(),
		Animate:        interactive,
	})
}

func init() {
	// status command flags
	statusCmd.Flags().BoolVar(&statusJSONFlag, "json", false, "output in JSON format")
	statusCmd.Flags().IntVar(&statusTopFlag, "top", 0, "also list the top N blocked domains and clients")
	statusCmd.Flags().StringVar(&statusTimeoutFlag, "timeout", "", "how long to wait for all servers (default fetch_timeout)")

	// init command flags
	AddServerFlags(initCmd, &initServerFlags)
	initCmd.Flags().BoolVarP(&initYesFlag, "yes", "y", false, "don't prompt; requires --host")
	initCmd.Flags().BoolVar(&initSkipCheckFlag, "skip-check", false, "save without contacting the server")

	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version number")

	// Register all commands
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}
