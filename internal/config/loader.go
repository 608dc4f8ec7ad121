package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/pimon/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "pimon.json"
	// GlobalConfigDir is the directory searched when no local file exists.
	GlobalConfigDir = ".config/pimon"
	// EnvPrefix namespaces environment overrides, e.g. PIMON_UPDATE_DELAY.
	EnvPrefix = "PIMON"
)

// Load reads config from the specified path, applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found: "+path,
				"Create one with 'pimon init' or pass the path to an existing file")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check that "+path+" is valid JSON or YAML")
	}

	cfg, err := parseConfig(v, path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find locates the config file using the search order:
// 1. Explicit path (from the command line)
// 2. pimon.json, pimon.yaml or pimon.yml in the current directory
// 3. ~/.config/pimon/ with the same names
//
// Returns the explicit path unchanged even if it does not exist, so Load can
// report it. Returns empty string if nothing was found.
func Find(explicit string) string {
	if explicit != "" {
		return explicit
	}

	candidates := []string{ConfigFileName, "pimon.yaml", "pimon.yml"}
	for _, name := range candidates {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	for _, name := range candidates {
		p := filepath.Join(home, GlobalConfigDir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the field types in "+path)
	}

	for i := range cfg.Servers {
		cfg.Servers[i].Name = strings.TrimSpace(cfg.Servers[i].Name)
		cfg.Servers[i].Host = strings.TrimRight(strings.TrimSpace(cfg.Servers[i].Host), "/")
		cfg.Servers[i].APIKey = strings.TrimSpace(cfg.Servers[i].APIKey)
	}
	cfg.CachePath = expandHome(cfg.CachePath)

	return cfg, nil
}

// setDefaults registers every scalar key so environment overrides apply.
func setDefaults(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("update_delay", DefaultUpdateDelay)
	v.SetDefault("fetch_timeout", DefaultFetchTimeout.String())
	v.SetDefault("tick_rate", DefaultTickRate.String())
	v.SetDefault("poll_timeout", DefaultPollTimeout.String())
	v.SetDefault("refresh_all", false)
	v.SetDefault("top_limit", DefaultTopLimit)
	v.SetDefault("disable_seconds", DefaultDisableSeconds)
	v.SetDefault("rate_limit", DefaultRateLimit)
	v.SetDefault("cache_path", "")
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
