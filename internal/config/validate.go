package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rileyhilliard/pimon/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
// An empty server list is an error: the dashboard has nothing to show.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if len(cfg.Servers) == 0 {
		return errors.New(errors.ErrConfig,
			"Configuration file doesn't contain any servers",
			"Add at least one entry under 'servers' with a name and host, or run 'pimon init'.")
	}

	seen := make(map[string]bool, len(cfg.Servers))
	for i, s := range cfg.Servers {
		if err := validateServer(i, s); err != nil {
			return err
		}
		key := strings.ToLower(s.Name)
		if seen[key] {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Server name '%s' is used more than once", s.Name),
				"Give each server a unique name.")
		}
		seen[key] = true
	}

	if cfg.UpdateDelay <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("update_delay must be positive, got %d", cfg.UpdateDelay),
			"Set update_delay to the refresh interval in milliseconds, e.g. 1000.")
	}
	if cfg.FetchTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			"fetch_timeout must be positive",
			"Use a duration like 10s.")
	}
	if cfg.TickRate <= 0 {
		return errors.New(errors.ErrConfig,
			"tick_rate must be positive",
			"Use a duration like 250ms.")
	}
	if cfg.PollTimeout < 0 {
		return errors.New(errors.ErrConfig,
			"poll_timeout can't be negative",
			"Use 0 for a fully non-blocking check, or a small duration like 10ms.")
	}
	if cfg.PollTimeout >= cfg.TickRate {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("poll_timeout (%s) must be shorter than tick_rate (%s)", cfg.PollTimeout, cfg.TickRate),
			"Keep poll_timeout in the single-digit milliseconds.")
	}
	if cfg.TopLimit <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("top_limit must be positive, got %d", cfg.TopLimit),
			"The default is 25.")
	}
	if cfg.DisableSeconds < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("disable_seconds can't be negative, got %d", cfg.DisableSeconds),
			"Use 0 to disable until re-enabled, or a number of seconds.")
	}
	if cfg.RateLimit <= 0 {
		return errors.New(errors.ErrConfig,
			"rate_limit must be positive",
			"The default is 10 requests per second.")
	}

	return nil
}

func validateServer(i int, s Server) error {
	if s.Name == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Server #%d has no name", i+1),
			"Add a 'name' so it can be shown in the tab bar.")
	}
	return ValidateHost(s.Name, s.Host)
}

// ValidateHost checks that host is an absolute http(s) base URL.
func ValidateHost(name, host string) error {
	if host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Server '%s' has no host", name),
			"Set 'host' to the Pi-hole base URL, e.g. http://192.168.1.2.")
	}
	u, err := url.Parse(host)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Server '%s' has an invalid host '%s'", name, host),
			"Use a full URL including the scheme, e.g. http://pi.hole.")
	}
	return nil
}
