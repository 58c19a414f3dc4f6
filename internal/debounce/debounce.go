// Package debounce collapses bursts of calls into one delayed invocation,
// driven by the Bubble Tea message loop.
package debounce

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var lastID atomic.Int64

func nextID() int {
	return int(lastID.Add(1))
}

// FireMsg is sent when a debounce window elapses. Route it back through
// Debouncer.Update.
type FireMsg struct {
	ID  int
	tag int
}

// Debouncer runs op once, with the argument of the last Call, after wait has
// passed without another Call. It must only be used from the Update loop.
type Debouncer[T any] struct {
	id      int
	tag     int
	wait    time.Duration
	op      func(T) tea.Cmd
	pending bool
	arg     T
}

// New creates a debouncer for op
func New[T any](wait time.Duration, op func(T) tea.Cmd) *Debouncer[T] {
	return &Debouncer[T]{
		id:   nextID(),
		wait: wait,
		op:   op,
	}
}

// ID identifies the debouncer's fire messages
func (d *Debouncer[T]) ID() int {
	return d.id
}

// Wait returns the debounce window
func (d *Debouncer[T]) Wait() time.Duration {
	return d.wait
}

// Call schedules op(arg), replacing any pending invocation
func (d *Debouncer[T]) Call(arg T) tea.Cmd {
	d.tag++
	d.pending = true
	d.arg = arg

	id, tag := d.id, d.tag
	return tea.Tick(d.wait, func(time.Time) tea.Msg {
		return FireMsg{ID: id, tag: tag}
	})
}

// Cancel drops the pending invocation, if any. An op that already ran is
// not affected.
func (d *Debouncer[T]) Cancel() {
	if !d.pending {
		return
	}
	d.tag++
	d.pending = false
	var zero T
	d.arg = zero
}

// Pending reports whether an invocation is scheduled
func (d *Debouncer[T]) Pending() bool {
	return d.pending
}

// Update runs op when msg is this debouncer's current fire message. The
// second result reports whether msg belonged to this debouncer.
func (d *Debouncer[T]) Update(msg tea.Msg) (tea.Cmd, bool) {
	fire, ok := msg.(FireMsg)
	if !ok || fire.ID != d.id {
		return nil, false
	}
	if !d.pending || fire.tag != d.tag {
		return nil, true
	}

	d.pending = false
	arg := d.arg
	var zero T
	d.arg = zero
	return d.op(arg), true
}
