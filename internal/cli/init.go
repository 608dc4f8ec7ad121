package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/rileyhilliard/pimon/internal/config"
	"github.com/rileyhilliard/pimon/internal/errors"
	"github.com/rileyhilliard/pimon/internal/pihole"
	"github.com/rileyhilliard/pimon/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string // Config file to create or extend
	Server         ServerFlags
	NonInteractive bool // Skip prompts; --host is then required
	SkipCheck      bool // Don't contact the server before saving
	CheckTimeout   time.Duration
	Out            io.Writer
	Animate        bool // Animate the connection check
}

// Init adds a server to the config file at opts.Path, creating the file when
// it doesn't exist.
func Init(opts InitOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = config.DefaultFetchTimeout
	}
	if opts.Path == "" {
		opts.Path = config.ConfigFileName
	}

	server := config.Server{
		Name:   strings.TrimSpace(opts.Server.Name),
		Host:   strings.TrimSpace(opts.Server.Host),
		APIKey: strings.TrimSpace(opts.Server.APIKey),
	}

	if opts.NonInteractive {
		if server.Host == "" {
			return errors.New(errors.ErrConfig,
				"--host is required with --yes",
				"Pass --host http://<pi-hole address>, or run 'pimon init' interactively.")
		}
		if server.Name == "" {
			server.Name = defaultServerName(server.Host)
		}
	} else if err := promptServer(&server); err != nil {
		return err
	}

	if err := config.ValidateHost(server.Name, server.Host); err != nil {
		return err
	}

	_, statErr := os.Stat(opts.Path)
	exists := statErr == nil
	if exists {
		if err := checkDuplicate(opts.Path, server.Name); err != nil {
			return err
		}
	}

	if !opts.SkipCheck {
		if err := checkServer(opts, server); err != nil {
			if opts.NonInteractive || !confirm("Save the server anyway? You can fix the connection later.") {
				return err
			}
		}
	}

	if exists {
		if err := config.AppendServer(opts.Path, server); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Failed to update config file: %s", opts.Path),
				"Check that the file is valid and writable.")
		}
		fmt.Fprintln(opts.Out, ui.Success(fmt.Sprintf("Added '%s' to %s", server.Name, opts.Path)))
	} else {
		cfg := config.DefaultConfig()
		cfg.Servers = append(cfg.Servers, server)
		if err := config.Save(opts.Path, cfg); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Failed to write config file: %s", opts.Path),
				"Check directory permissions.")
		}
		fmt.Fprintln(opts.Out, ui.Success("Created "+opts.Path))
	}

	fmt.Fprintln(opts.Out)
	fmt.Fprintln(opts.Out, "Next steps:")
	fmt.Fprintln(opts.Out, "  pimon         - Open the dashboard")
	fmt.Fprintln(opts.Out, "  pimon status  - Print a one-shot summary")
	if server.APIKey == "" {
		fmt.Fprintln(opts.Out)
		fmt.Fprintln(opts.Out, ui.Muted("Without an API key, top lists and enable/disable are unavailable."))
	}
	return nil
}

// promptServer fills in server with an interactive form. Fields already set
// from flags are used as the initial values.
func promptServer(server *config.Server) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Pi-hole address").
				Description("Base URL of the admin interface").
				Placeholder("http://192.168.1.2").
				Value(&server.Host).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("address is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Name").
				Description("Shown in the dashboard's tab bar").
				Placeholder("home").
				Value(&server.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("API token (optional)").
				Description("Settings > API in the Pi-hole web UI. Enables top lists and enable/disable.").
				EchoMode(huh.EchoModePassword).
				Value(&server.APIKey),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or pass --yes with --host.")
	}
	server.Name = strings.TrimSpace(server.Name)
	server.Host = strings.TrimSpace(server.Host)
	server.APIKey = strings.TrimSpace(server.APIKey)
	return nil
}

func confirm(title string) bool {
	var ok bool
	form := huh.NewForm(huh.NewGroup(huh.NewConfirm().Title(title).Value(&ok)))
	if err := form.Run(); err != nil {
		return false
	}
	return ok
}

// checkServer fetches the summary once to prove the address works.
func checkServer(opts InitOptions, server config.Server) error {
	client := pihole.New(server.Host, server.APIKey, pihole.Options{Timeout: opts.CheckTimeout})
	return ui.Run(opts.Out, "Connecting to "+server.Host, opts.Animate, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), opts.CheckTimeout)
		defer cancel()
		_, err := client.Summary(ctx)
		return err
	})
}

// checkDuplicate rejects a name that the existing file already uses. A file
// that fails to load is left for AppendServer to report.
func checkDuplicate(path, name string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return nil
	}
	for _, s := range cfg.Servers {
		if strings.EqualFold(s.Name, name) {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Server '%s' is already in %s", name, path),
				"Pick a different --name.")
		}
	}
	return nil
}

// defaultServerName derives a name from the host part of a URL.
func defaultServerName(host string) string {
	u, err := url.Parse(host)
	if err != nil || u.Hostname() == "" {
		return "pihole"
	}
	return u.Hostname()
}
