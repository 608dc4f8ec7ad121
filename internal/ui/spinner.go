package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// SpinnerState is where a spinner is in its lifecycle.
type SpinnerState int

const (
	SpinnerPending SpinnerState = iota
	SpinnerRunning
	SpinnerSucceeded
	SpinnerFailed
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

const frameInterval = 80 * time.Millisecond

// Spinner animates a single line while a blocking operation runs, then
// replaces it with a result line. When Animate is false only the result line
// is written, which keeps piped output free of carriage returns.
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	label   string
	state   SpinnerState
	frame   int
	started time.Time
	last    int // width of the last animated line
	stop    chan struct{}
	done    chan struct{}

	Animate bool
	now     func() time.Time
}

// NewSpinner creates a spinner that writes to w.
func NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{w: w, label: label, Animate: true, now: time.Now}
}

// Label returns the spinner's label.
func (s *Spinner) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

// State returns the current state.
func (s *Spinner) State() SpinnerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins animating. Calling it twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SpinnerRunning {
		return
	}
	s.state = SpinnerRunning
	s.started = s.now()
	if !s.Animate {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.drawLocked()
	go s.loop(s.stop, s.done)
}

func (s *Spinner) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(spinnerFrames)
			s.drawLocked()
			s.mu.Unlock()
		}
	}
}

func (s *Spinner) drawLocked() {
	line := frameStyle.Render(spinnerFrames[s.frame]) + " " + s.label + "..."
	s.clearLocked()
	fmt.Fprint(s.w, line)
	s.last = len([]rune(line))
}

func (s *Spinner) clearLocked() {
	if s.last > 0 {
		fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.last)+"\r")
		s.last = 0
	}
}

// halt stops the animation goroutine and waits for it to exit.
func (s *Spinner) halt() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}

// Success stops the spinner and writes a success line with the elapsed time.
func (s *Spinner) Success() {
	s.finish(SpinnerSucceeded, "")
}

// Fail stops the spinner and writes a failure line. reason, when set, is
// appended after the label.
func (s *Spinner) Fail(reason string) {
	s.finish(SpinnerFailed, reason)
}

func (s *Spinner) finish(state SpinnerState, reason string) {
	s.halt()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SpinnerRunning {
		return
	}
	s.state = state
	s.clearLocked()

	msg := s.label
	if reason != "" {
		msg += ": " + reason
	}
	timing := Muted(formatElapsed(s.now().Sub(s.started)))
	if state == SpinnerSucceeded {
		fmt.Fprintln(s.w, Success(msg)+" "+timing)
	} else {
		fmt.Fprintln(s.w, Fail(msg)+" "+timing)
	}
}

// Run wraps fn in a spinner, marking it failed when fn returns an error.
func Run(w io.Writer, label string, animate bool, fn func() error) error {
	s := NewSpinner(w, label)
	s.Animate = animate
	s.Start()
	if err := fn(); err != nil {
		s.Fail(firstLine(err.Error()))
		return err
	}
	s.Success()
	return nil
}

// formatElapsed formats a duration for display (e.g., "0.03s", "1.2s").
func formatElapsed(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "✗ \n")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
