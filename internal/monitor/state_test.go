package monitor

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pimonerrors "github.com/rileyhilliard/pimon/internal/errors"
	"github.com/rileyhilliard/pimon/internal/logger"
	"github.com/rileyhilliard/pimon/internal/metrics"
)

type stateFixture struct {
	state     *State
	providers []*fakeProvider
	ctrl      *fakeController
	clock     *fakeClock
}

// newStateFixture builds n targets. The first one is credentialed.
func newStateFixture(t *testing.T, n int, opts StateOptions) *stateFixture {
	t.Helper()
	f := &stateFixture{ctrl: &fakeController{}, clock: newFakeClock()}

	var coords []*Coordinator
	for i := 0; i < n; i++ {
		p := newFakeProvider()
		f.providers = append(f.providers, p)

		var ctrl metrics.Controller
		key := ""
		if i == 0 {
			ctrl = f.ctrl
			key = "secret"
		}
		name := []string{"alpha", "beta", "gamma", "delta"}[i]
		c := NewCoordinator(testTarget(name, key), p, ctrl, CoordinatorOptions{
			Logger: logger.Noop(),
			Clock:  f.clock.Now,
		})
		t.Cleanup(c.Close)
		coords = append(coords, c)
	}

	if opts.RefreshInterval == 0 {
		opts.RefreshInterval = time.Second
	}
	if opts.DisableSeconds == 0 {
		opts.DisableSeconds = DefaultDisableSeconds
	}
	opts.Clock = f.clock.Now

	s, err := NewState(coords, opts)
	require.NoError(t, err)
	f.state = s
	return f
}

func TestNewState_RequiresTargets(t *testing.T) {
	_, err := NewState(nil, StateOptions{})
	require.Error(t, err)
	assert.True(t, pimonerrors.IsCode(err, pimonerrors.ErrConfig))
}

func TestNewState_Defaults(t *testing.T) {
	f := newStateFixture(t, 1, StateOptions{})
	s := f.state

	assert.Equal(t, 0, s.SelectedIndex())
	assert.Equal(t, 1, s.SquashFactor())
	assert.Equal(t, time.Second, s.RefreshInterval())
	assert.False(t, s.Quitting())
	msg, isErr := s.Status()
	assert.Empty(t, msg)
	assert.False(t, isErr)
}

func TestState_SelectionWraps(t *testing.T) {
	f := newStateFixture(t, 3, StateOptions{})
	s := f.state

	assert.Nil(t, s.Apply(CmdSelectPrevious))
	assert.Equal(t, 2, s.SelectedIndex(), "previous from first wraps to last")
	assert.Equal(t, "gamma", s.Selected().Target().Name)

	assert.Nil(t, s.Apply(CmdSelectNext))
	assert.Equal(t, 0, s.SelectedIndex(), "next from last wraps to first")

	s.Apply(CmdSelectNext)
	assert.Equal(t, 1, s.SelectedIndex())
}

func TestState_SelectionSingleTarget(t *testing.T) {
	f := newStateFixture(t, 1, StateOptions{})

	f.state.Apply(CmdSelectNext)
	assert.Equal(t, 0, f.state.SelectedIndex())
	f.state.Apply(CmdSelectPrevious)
	assert.Equal(t, 0, f.state.SelectedIndex())
}

func TestState_ZoomClamping(t *testing.T) {
	f := newStateFixture(t, 1, StateOptions{})
	s := f.state

	for i := 0; i < 5; i++ {
		s.Apply(CmdZoomIn)
	}
	assert.Equal(t, 1, s.SquashFactor(), "zoom in floors at 1")

	s.Apply(CmdZoomOut)
	s.Apply(CmdZoomOut)
	assert.Equal(t, 4, s.SquashFactor())
	s.Apply(CmdZoomIn)
	assert.Equal(t, 2, s.SquashFactor())

	prev := s.SquashFactor()
	for i := 0; i < 200; i++ {
		s.Apply(CmdZoomOut)
		require.GreaterOrEqual(t, s.SquashFactor(), prev, "zoom out never wraps")
		prev = s.SquashFactor()
	}
	assert.Greater(t, s.SquashFactor(), math.MaxInt/4)
}

func TestState_TickRefreshesSelectedOnly(t *testing.T) {
	f := newStateFixture(t, 3, StateOptions{})
	s := f.state
	targets := s.Targets()

	s.Tick()
	assert.True(t, targets[0].InFlight(), "first tick fetches the selected target")
	assert.Equal(t, 0, targets[1].Spawned())
	assert.Equal(t, 0, targets[2].Spawned())

	require.True(t, await(t, targets[0]))

	s.Tick()
	assert.Equal(t, 1, targets[0].Spawned(), "fresh data is not refetched")

	f.clock.Advance(2 * time.Second)
	s.Tick()
	assert.Equal(t, 2, targets[0].Spawned(), "stale data is refetched")
	require.True(t, await(t, targets[0]))

	// Background targets refresh lazily once selected.
	s.Apply(CmdSelectNext)
	s.Tick()
	assert.Equal(t, 1, targets[1].Spawned())
	assert.Equal(t, 0, targets[2].Spawned())
	require.True(t, await(t, targets[1]))
}

func TestState_TickPollsCompletion(t *testing.T) {
	f := newStateFixture(t, 1, StateOptions{})
	s := f.state
	c := s.Selected()

	s.Tick()
	require.True(t, c.InFlight())

	deadline := time.Now().Add(time.Second)
	updated := false
	for !updated && time.Now().Before(deadline) {
		updated = s.Tick()
	}
	assert.True(t, updated)
	assert.NotNil(t, c.Snapshot().Summary)
}

func TestState_TickRefreshAll(t *testing.T) {
	f := newStateFixture(t, 3, StateOptions{RefreshAll: true})

	f.state.Tick()
	for i, c := range f.state.Targets() {
		assert.Equal(t, 1, c.Spawned(), "target %d", i)
		require.True(t, await(t, c))
	}

	// Still single-flight per target.
	f.clock.Advance(2 * time.Second)
	gate := make(chan struct{})
	f.providers[1].set(func(p *fakeProvider) { p.gate = gate })
	f.state.Tick()
	f.state.Tick()
	assert.Equal(t, 2, f.state.Targets()[1].Spawned())
	close(gate)
}

func TestState_ForceRefreshBypassesStaleness(t *testing.T) {
	f := newStateFixture(t, 1, StateOptions{RefreshInterval: time.Hour})
	s := f.state
	c := s.Selected()

	s.Tick()
	require.True(t, await(t, c))
	s.Tick()
	assert.Equal(t, 1, c.Spawned())

	assert.Nil(t, s.Apply(CmdForceRefresh))
	assert.True(t, c.InFlight())
	assert.Equal(t, 2, c.Spawned())

	s.Apply(CmdForceRefresh)
	assert.Equal(t, 2, c.Spawned(), "force refresh is still single-flight")
	require.True(t, await(t, c))
}

func TestState_MutationWithoutCredentialIsNoop(t *testing.T) {
	f := newStateFixture(t, 2, StateOptions{})
	s := f.state
	s.Apply(CmdSelectNext) // beta has no API key

	assert.Nil(t, s.Apply(CmdEnable))
	assert.Nil(t, s.Apply(CmdDisable))

	msg, _ := s.Status()
	assert.Empty(t, msg)
	assert.False(t, s.Selected().InFlight())
}

func TestState_DisableMutation(t *testing.T) {
	f := newStateFixture(t, 2, StateOptions{DisableSeconds: 30})
	s := f.state

	m := s.Apply(CmdDisable)
	require.NotNil(t, m)
	assert.Equal(t, 0, m.Target)
	assert.Equal(t, CmdDisable, m.Command)
	assert.False(t, s.Selected().InFlight(), "mutation runs before the refresh")

	err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{30}, f.ctrl.disabled)

	// The user may have switched tabs while the write was running.
	s.Apply(CmdSelectNext)
	s.CompleteMutation(m, nil)

	msg, isErr := s.Status()
	assert.Equal(t, "alpha: blocking disabled for 30s", msg)
	assert.False(t, isErr)
	assert.True(t, s.Targets()[0].InFlight(), "mutated target is refreshed")
	assert.False(t, s.Targets()[1].InFlight())
	require.True(t, await(t, s.Targets()[0]))
}

func TestState_EnableMutation(t *testing.T) {
	f := newStateFixture(t, 1, StateOptions{})
	s := f.state

	m := s.Apply(CmdEnable)
	require.NotNil(t, m)
	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, 1, f.ctrl.enabled)

	s.CompleteMutation(m, nil)
	msg, _ := s.Status()
	assert.Equal(t, "alpha: blocking enabled", msg)
	require.True(t, await(t, s.Selected()))
}

func TestState_MutationFailureBecomesStatus(t *testing.T) {
	f := newStateFixture(t, 1, StateOptions{})
	s := f.state
	f.ctrl.err = pimonerrors.WrapWithCode(errBoom, pimonerrors.ErrProvider, "Pi-hole disable request failed", "")

	m := s.Apply(CmdDisable)
	require.NotNil(t, m)
	s.CompleteMutation(m, m.Run(context.Background()))

	msg, isErr := s.Status()
	assert.True(t, isErr)
	assert.Contains(t, msg, "alpha: disable failed")
	assert.Contains(t, msg, "boom")
	assert.False(t, s.Quitting(), "mutation failure is never fatal")
	require.True(t, await(t, s.Selected()))
}

func TestState_CompleteMutationIgnoresInvalid(t *testing.T) {
	f := newStateFixture(t, 1, StateOptions{})

	f.state.CompleteMutation(nil, errBoom)
	f.state.CompleteMutation(&Mutation{Target: 5}, errBoom)

	msg, _ := f.state.Status()
	assert.Empty(t, msg)
}

func TestState_Quit(t *testing.T) {
	f := newStateFixture(t, 1, StateOptions{})

	assert.Nil(t, f.state.Apply(CmdQuit))
	assert.True(t, f.state.Quitting())
}

func TestCommand_String(t *testing.T) {
	tests := []struct {
		cmd    Command
		expect string
	}{
		{CmdSelectNext, "select-next"},
		{CmdSelectPrevious, "select-previous"},
		{CmdForceRefresh, "force-refresh"},
		{CmdZoomIn, "zoom-in"},
		{CmdZoomOut, "zoom-out"},
		{CmdEnable, "enable"},
		{CmdDisable, "disable"},
		{CmdQuit, "quit"},
		{Command(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expect, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.cmd.String())
		})
	}
}
