// Package monitor implements the Pi-hole dashboard: per-target refresh
// coordination, the application state it feeds, and the Bubble Tea model
// that renders it.
//
// # Architecture
//
// The package uses the Bubble Tea framework, which follows The Elm Architecture
// (Model-Update-View pattern):
//
//   - Model: wraps State and owns the terminal-only bits (size, help, spinner)
//   - Update: turns ticks and key presses into State calls
//   - View: renders the selected target's snapshot
//
// # Key Components
//
//	Coordinator - One per target. Runs at most one background fetch and
//	              holds the latest snapshot
//	State       - Targets, selection, refresh interval, chart zoom. Handles
//	              Tick and Command events
//	Model       - The Bubble Tea model driving State
//
// # Message Flow
//
//  1. tickMsg fires every tick rate (default 250ms)
//  2. State.Tick polls the selected coordinator (or all of them in
//     refresh-all mode) with a bounded wait, then starts a fetch if its
//     data is older than the refresh interval
//  3. The fetch runs the four sub-queries concurrently on its own
//     goroutine and hands back exactly one snapshot on a buffered channel
//  4. View() re-renders with whatever snapshot each coordinator holds
//
// Enable and disable are provider writes. State.Apply returns them as a
// Mutation which the model runs as a tea.Cmd; the outcome comes back as a
// message, lands in the status line, and triggers a refresh.
//
// # Staleness
//
// A failed sub-query leaves its field absent in the fresh result. The
// fresh result is merged over the snapshot held when the fetch started, so
// a field that was ever present stays visible (stale) until a later fetch
// replaces it.
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	←/h, →/l    - Previous / next server
//	space, r    - Force refresh
//	z, x        - Zoom chart in / out
//	e, d        - Enable / disable blocking (needs an API key)
//	?           - Toggle help overlay
package monitor
