// Package progress fakes a loading percentage from elapsed time.
package progress

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	DefaultDuration = 1500 * time.Millisecond
	DefaultInterval = 50 * time.Millisecond
)

// TickMsg advances a running simulator
type TickMsg struct {
	Time time.Time
	gen  int
}

// Simulator moves from 0 to 100 over a nominal duration while active. It
// knows nothing about the requests it decorates. Not safe for concurrent use.
type Simulator struct {
	duration time.Duration
	interval time.Duration
	started  time.Time
	percent  float64
	active   bool
	gen      int
}

// New creates a simulator; non-positive values select the defaults
func New(duration, interval time.Duration) *Simulator {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Simulator{duration: duration, interval: interval}
}

// Start resets to 0 and returns the first tick
func (s *Simulator) Start(now time.Time) tea.Cmd {
	s.gen++
	s.started = now
	s.percent = 0
	s.active = true
	return s.tick()
}

// Advance recomputes the percentage for now. It never goes past 100 and
// does nothing once stopped.
func (s *Simulator) Advance(now time.Time) float64 {
	if !s.active {
		return s.percent
	}
	elapsed := now.Sub(s.started)
	if elapsed < 0 {
		elapsed = 0
	}
	s.percent = min(100, float64(elapsed)/float64(s.duration)*100)
	return s.percent
}

// Stop forces 100 and ends ticking
func (s *Simulator) Stop() {
	s.gen++
	s.active = false
	s.percent = 100
}

// Update handles a tick, re-arming while active and below 100
func (s *Simulator) Update(msg tea.Msg) (tea.Cmd, bool) {
	tick, ok := msg.(TickMsg)
	if !ok {
		return nil, false
	}
	if !s.active || tick.gen != s.gen {
		return nil, true
	}
	if s.Advance(tick.Time) >= 100 {
		return nil, true
	}
	return s.tick(), true
}

func (s *Simulator) tick() tea.Cmd {
	gen := s.gen
	return tea.Tick(s.interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t, gen: gen}
	})
}

// Percent returns the current value in 0..100
func (s *Simulator) Percent() float64 {
	return s.percent
}

// Fraction returns the current value in 0..1
func (s *Simulator) Fraction() float64 {
	return s.percent / 100
}

// Active reports whether the simulator is running
func (s *Simulator) Active() bool {
	return s.active
}
