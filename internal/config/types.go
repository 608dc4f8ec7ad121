package config

import (
	"time"

	"github.com/rileyhilliard/pimon/internal/metrics"
)

// Config represents the complete pimon configuration file.
type Config struct {
	// Servers are the Pi-hole instances to monitor, in tab order.
	Servers []Server `yaml:"servers" mapstructure:"servers"`

	// UpdateDelay is the refresh interval in milliseconds.
	UpdateDelay int `yaml:"update_delay" mapstructure:"update_delay"`

	// FetchTimeout bounds one background fetch of all sub-queries.
	FetchTimeout time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`

	// TickRate is how often the dashboard checks for completed fetches.
	TickRate time.Duration `yaml:"tick_rate" mapstructure:"tick_rate"`

	// PollTimeout is the longest a tick waits for a pending result.
	PollTimeout time.Duration `yaml:"poll_timeout" mapstructure:"poll_timeout"`

	// RefreshAll refreshes every server on each tick instead of only the
	// selected one.
	RefreshAll bool `yaml:"refresh_all" mapstructure:"refresh_all"`

	// TopLimit is the leaderboard size requested from the server.
	TopLimit int `yaml:"top_limit" mapstructure:"top_limit"`

	// DisableSeconds is how long the disable key pauses blocking.
	DisableSeconds int `yaml:"disable_seconds" mapstructure:"disable_seconds"`

	// RateLimit caps API requests per second per server.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`

	// CachePath enables the on-disk snapshot cache when set.
	CachePath string `yaml:"cache_path" mapstructure:"cache_path"`
}

// Server defines one Pi-hole instance.
type Server struct {
	// Name is shown in the tab bar.
	Name string `yaml:"name" mapstructure:"name"`

	// Host is the base URL, e.g. http://192.168.1.2.
	Host string `yaml:"host" mapstructure:"host"`

	// APIKey enables top lists and enable/disable. Optional.
	APIKey string `yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// Defaults for optional settings.
const (
	DefaultUpdateDelay    = 1000
	DefaultFetchTimeout   = 10 * time.Second
	DefaultTickRate       = 250 * time.Millisecond
	DefaultPollTimeout    = 10 * time.Millisecond
	DefaultTopLimit       = 25
	DefaultDisableSeconds = 60
	DefaultRateLimit      = 10.0
)

// DefaultConfig returns a Config with all defaults applied and no servers.
func DefaultConfig() *Config {
	return &Config{
		Servers:        []Server{},
		UpdateDelay:    DefaultUpdateDelay,
		FetchTimeout:   DefaultFetchTimeout,
		TickRate:       DefaultTickRate,
		PollTimeout:    DefaultPollTimeout,
		TopLimit:       DefaultTopLimit,
		DisableSeconds: DefaultDisableSeconds,
		RateLimit:      DefaultRateLimit,
	}
}

// RefreshInterval returns UpdateDelay as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.UpdateDelay) * time.Millisecond
}

// Targets converts the server list into monitoring targets, preserving order.
func (c *Config) Targets() []metrics.Target {
	targets := make([]metrics.Target, 0, len(c.Servers))
	for _, s := range c.Servers {
		targets = append(targets, metrics.Target{
			ID:         metrics.TargetID(s.Name),
			Name:       s.Name,
			Endpoint:   s.Host,
			Credential: s.APIKey,
		})
	}
	return targets
}
