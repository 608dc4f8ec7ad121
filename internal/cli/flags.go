package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/pimon/internal/config"
	"github.com/rileyhilliard/pimon/internal/errors"
)

// ServerFlags holds the flags that describe one server, used by init.
type ServerFlags struct {
	Name   string
	Host   string
	APIKey string
}

// AddServerFlags registers --name, --host and --api-key on a command.
func AddServerFlags(cmd *cobra.Command, flags *ServerFlags) {
	cmd.Flags().StringVar(&flags.Name, "name", "", "server name shown in the tab bar")
	cmd.Flags().StringVar(&flags.Host, "host", "", "Pi-hole base URL (e.g., http://192.168.1.2)")
	cmd.Flags().StringVar(&flags.APIKey, "api-key", "", "API token from the Pi-hole web UI (optional)")
}

// ParseInterval parses a refresh interval flag. Returns zero duration if the
// flag is empty.
func ParseInterval(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid interval", flag),
			"Try something like 1s, 5s, or 500ms.")
	}
	if duration < time.Millisecond {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("Interval '%s' is too short", flag),
			"Use at least 1ms.")
	}
	return duration, nil
}

// applyOverrides layers command-line flags over the loaded config.
func applyOverrides(cfg *config.Config, interval string, refreshAll bool) error {
	d, err := ParseInterval(interval)
	if err != nil {
		return err
	}
	if d > 0 {
		cfg.UpdateDelay = int(d / time.Millisecond)
	}
	if refreshAll {
		cfg.RefreshAll = true
	}
	return nil
}
