package cli

import (
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/rileyhilliard/pimon/internal/config"
	"github.com/rileyhilliard/pimon/internal/errors"
	"github.com/rileyhilliard/pimon/internal/logger"
	"github.com/rileyhilliard/pimon/internal/metrics"
	"github.com/rileyhilliard/pimon/internal/monitor"
	"github.com/rileyhilliard/pimon/internal/pihole"
	"github.com/rileyhilliard/pimon/internal/store"
)

// debugLogFile receives log output while the dashboard owns the terminal.
const debugLogFile = "pimon-debug.log"

// session holds everything the dashboard needs for one run: a coordinator
// per configured server and the optional snapshot cache.
type session struct {
	coordinators []*monitor.Coordinator
	store        *store.Store
}

// openSession builds coordinators for every server in cfg. A cache that
// cannot be opened is logged and skipped; the dashboard still works without
// it.
func openSession(cfg *config.Config, log logger.Logger) *session {
	s := &session{}

	if cfg.CachePath != "" {
		st, err := store.Open(cfg.CachePath)
		if err != nil {
			log.Warn("snapshot cache disabled: %s", errors.Summary(err))
		} else {
			s.store = st
		}
	}

	pollTimeout := cfg.PollTimeout
	if pollTimeout == 0 {
		pollTimeout = monitor.NoWait
	}

	for _, target := range cfg.Targets() {
		client := pihole.New(target.Endpoint, target.Credential, pihole.Options{
			Timeout:    cfg.FetchTimeout,
			RatePerSec: cfg.RateLimit,
			Logger:     log,
		})

		opts := monitor.CoordinatorOptions{
			TopLimit:     cfg.TopLimit,
			FetchTimeout: cfg.FetchTimeout,
			PollTimeout:  pollTimeout,
			Logger:       log,
		}
		// A nil *store.Store would be a non-nil interface.
		if s.store != nil {
			opts.Store = s.store
		}

		c := monitor.NewCoordinator(target, client, client.Controller(), opts)
		s.seed(c, target, log)
		s.coordinators = append(s.coordinators, c)
	}
	return s
}

// seed loads the cached snapshot for target, if any.
func (s *session) seed(c *monitor.Coordinator, target metrics.Target, log logger.Logger) {
	if s.store == nil {
		return
	}
	entry, ok, err := s.store.GetSnapshot(target.ID)
	if err != nil {
		log.Warn("%s: cannot read cached snapshot: %s", target.Name, errors.Summary(err))
		return
	}
	if ok {
		c.Seed(entry.Snapshot, entry.FetchedAt)
		log.Debug("%s: seeded from cache fetched at %s", target.Name, entry.FetchedAt.Format(time.RFC3339))
	}
}

// Close stops every coordinator and then closes the cache, so no background
// task writes to a closed database.
func (s *session) Close() {
	for _, c := range s.coordinators {
		c.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			logger.Default().Warn("closing snapshot cache: %v", err)
		}
	}
}

// newState wires the session's coordinators into the application state.
func (s *session) newState(cfg *config.Config) (*monitor.State, error) {
	return monitor.NewState(s.coordinators, monitor.StateOptions{
		RefreshInterval: cfg.RefreshInterval(),
		RefreshAll:      cfg.RefreshAll,
		DisableSeconds:  cfg.DisableSeconds,
	})
}

// dashboardCommand starts the TUI dashboard.
func dashboardCommand(path, interval string, refreshAll bool) error {
	cfg, _, err := loadConfig(path)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, interval, refreshAll); err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New(errors.ErrConfig,
			"The dashboard needs an interactive terminal",
			"Use 'pimon status' for a one-shot, pipe-friendly report.")
	}

	// The alternate screen owns stdout; route log output to a file when
	// debugging and drop it otherwise.
	if logger.DebugEnabled() {
		f, err := tea.LogToFile(debugLogFile, "pimon")
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot open "+debugLogFile,
				"Unset PIMON_DEBUG or run from a writable directory.")
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	sess := openSession(cfg, logger.NewEnvLogger("[monitor]"))
	defer sess.Close()

	state, err := sess.newState(cfg)
	if err != nil {
		return err
	}

	model := monitor.NewModel(state, monitor.ModelOptions{TickRate: cfg.TickRate})
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
