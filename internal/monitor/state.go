package monitor

import (
	"context"
	"fmt"
	"math"
	"time"

	pimonerrors "github.com/rileyhilliard/pimon/internal/errors"
)

// DefaultDisableSeconds is how long CmdDisable pauses blocking when no
// duration is configured.
const DefaultDisableSeconds = 60

// StateOptions configures a State.
type StateOptions struct {
	// RefreshInterval is how old a snapshot may get before a tick refetches it.
	RefreshInterval time.Duration

	// RefreshAll polls and refreshes every target on each tick instead of
	// only the selected one.
	RefreshAll bool

	// DisableSeconds is passed to the controller on CmdDisable. 0 disables
	// until re-enabled.
	DisableSeconds int

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Mutation is a provider write produced by CmdEnable or CmdDisable. Run
// performs network I/O, so the caller executes it off the control loop and
// reports back through State.CompleteMutation.
type Mutation struct {
	Target  int
	Command Command
	Run     func(ctx context.Context) error
}

// State is the dashboard's application state: the targets with their
// coordinators, the selection, and display parameters. It is mutated only by
// the control loop.
type State struct {
	targets        []*Coordinator
	selected       int
	interval       time.Duration
	squash         int
	refreshAll     bool
	disableSeconds int
	now            func() time.Time

	status    string
	statusErr bool
	quitting  bool
}

// NewState creates the application state. targets must not be empty.
func NewState(targets []*Coordinator, opts StateOptions) (*State, error) {
	if len(targets) == 0 {
		return nil, pimonerrors.New(pimonerrors.ErrConfig,
			"No targets to monitor",
			"Add at least one server to the config file")
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = time.Second
	}
	if opts.DisableSeconds < 0 {
		opts.DisableSeconds = DefaultDisableSeconds
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &State{
		targets:        targets,
		interval:       opts.RefreshInterval,
		squash:         1,
		refreshAll:     opts.RefreshAll,
		disableSeconds: opts.DisableSeconds,
		now:            opts.Clock,
	}, nil
}

// Targets returns every coordinator in display order.
func (s *State) Targets() []*Coordinator {
	return s.targets
}

// SelectedIndex returns the index of the selected target.
func (s *State) SelectedIndex() int {
	return s.selected
}

// Selected returns the coordinator of the selected target.
func (s *State) Selected() *Coordinator {
	return s.targets[s.selected]
}

// SquashFactor returns the chart's samples-per-bucket.
func (s *State) SquashFactor() int {
	return s.squash
}

// RefreshInterval returns the staleness threshold.
func (s *State) RefreshInterval() time.Duration {
	return s.interval
}

// Status returns the status line text and whether it reports an error.
func (s *State) Status() (string, bool) {
	return s.status, s.statusErr
}

// Quitting reports whether CmdQuit was applied.
func (s *State) Quitting() bool {
	return s.quitting
}

// Tick polls for completed fetches and starts new ones for stale targets.
// It returns true when any snapshot changed.
func (s *State) Tick() bool {
	if !s.refreshAll {
		return s.tickOne(s.targets[s.selected])
	}
	updated := false
	for _, c := range s.targets {
		if s.tickOne(c) {
			updated = true
		}
	}
	return updated
}

func (s *State) tickOne(c *Coordinator) bool {
	updated := c.PollCompletion()
	if !c.InFlight() && c.IsStale(s.now(), s.interval) {
		c.RequestRefresh()
	}
	return updated
}

// Apply dispatches a command. Enable and disable return the provider write
// to perform; every other command, and writes on read-only targets, return
// nil.
func (s *State) Apply(cmd Command) *Mutation {
	switch cmd {
	case CmdSelectNext:
		s.selected = (s.selected + 1) % len(s.targets)
	case CmdSelectPrevious:
		s.selected = (s.selected - 1 + len(s.targets)) % len(s.targets)
	case CmdForceRefresh:
		s.Selected().RequestRefresh()
	case CmdZoomIn:
		if s.squash > 1 {
			s.squash /= 2
		}
	case CmdZoomOut:
		if s.squash <= math.MaxInt/2 {
			s.squash *= 2
		}
	case CmdEnable, CmdDisable:
		return s.mutation(cmd)
	case CmdQuit:
		s.quitting = true
	}
	return nil
}

func (s *State) mutation(cmd Command) *Mutation {
	ctrl := s.Selected().Controller()
	if ctrl == nil {
		return nil
	}
	m := &Mutation{Target: s.selected, Command: cmd}
	if cmd == CmdEnable {
		m.Run = ctrl.Enable
	} else {
		seconds := s.disableSeconds
		m.Run = func(ctx context.Context) error {
			return ctrl.Disable(ctx, seconds)
		}
	}
	return m
}

// CompleteMutation records the outcome of a mutation and refreshes the
// affected target so its status is picked up.
func (s *State) CompleteMutation(m *Mutation, err error) {
	if m == nil || m.Target < 0 || m.Target >= len(s.targets) {
		return
	}
	name := s.targets[m.Target].Target().Name
	if err != nil {
		s.SetStatus(fmt.Sprintf("%s: %s failed: %s", name, m.Command, pimonerrors.Summary(err)), true)
	} else {
		s.SetStatus(mutationMessage(name, m.Command, s.disableSeconds), false)
	}
	s.targets[m.Target].RequestRefresh()
}

// SetStatus replaces the status line.
func (s *State) SetStatus(msg string, isErr bool) {
	s.status = msg
	s.statusErr = isErr
}

func mutationMessage(name string, cmd Command, seconds int) string {
	if cmd == CmdEnable {
		return name + ": blocking enabled"
	}
	if seconds == 0 {
		return name + ": blocking disabled"
	}
	return fmt.Sprintf("%s: blocking disabled for %ds", name, seconds)
}
