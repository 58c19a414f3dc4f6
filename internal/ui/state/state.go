package state

import (
	"context"
	"errors"
	"fmt"

	"factgrip/internal/domain"
)

// Focus is the pane receiving keystrokes
type Focus int

const (
	FocusSearch Focus = iota
	FocusResults
)

// AppState contains all the application state
type AppState struct {
	// Result set
	Facts     []domain.Fact    // current result set, unique by id
	Kind      domain.FetchKind // operation that produced Facts
	LastQuery string           // query or title of the current cycle
	Loaded    bool             // a cycle has finished at least once

	// Fetch cycle
	Busy   bool
	Err    string // user-visible error of the last cycle
	Cycle  uint64
	cancel context.CancelFunc

	// Selection state
	SelectedIndex   int // highlighted card
	SuggestionIndex int // highlighted suggestion, -1 for none
	Focus           Focus

	// UI state
	ViewportOffset int // first visible card
	ViewportHeight int // cards that fit on screen
	ShowHelp       bool
	StatusMessage  string

	Recent []string // recently submitted queries, newest first
}

// NewAppState creates a new application state
func NewAppState() *AppState {
	return &AppState{
		Facts:           make([]domain.Fact, 0),
		SuggestionIndex: -1,
		ViewportHeight:  3,
		Recent:          make([]string, 0),
	}
}

// Fetch cycle operations

// Begin starts a fetch cycle: the previous cycle is cancelled, the result set
// and error are cleared and busy is set. The returned context is cancelled
// when the next cycle begins.
func (s *AppState) Begin(parent context.Context, kind domain.FetchKind, query string) (uint64, context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	s.Cycle++
	s.Busy = true
	s.Err = ""
	s.Kind = kind
	s.LastQuery = query
	s.Facts = make([]domain.Fact, 0)
	s.SelectedIndex = 0
	s.ViewportOffset = 0
	return s.Cycle, ctx
}

// Finish ends cycle with its outcome. Results of any older cycle are
// ignored and Finish returns false.
func (s *AppState) Finish(cycle uint64, facts []domain.Fact, err error) bool {
	if cycle != s.Cycle || !s.Busy {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	s.Busy = false
	s.Loaded = true
	switch {
	case err == nil:
		s.Facts = domain.UniqueFacts(facts)
	case errors.Is(err, context.Canceled):
		// aborted, not an error
	default:
		s.Err = fmt.Sprintf("Failed to fetch facts: %v", err)
	}
	return true
}

// Abort cancels the running cycle, if any
func (s *AppState) Abort() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.Busy = false
}

// Selection operations

// MoveSelection moves the highlighted card by delta, clamped to the result
// set, and scrolls the viewport to keep it visible
func (s *AppState) MoveSelection(delta int) {
	if len(s.Facts) == 0 {
		s.SelectedIndex = 0
		return
	}
	s.SelectedIndex = clamp(s.SelectedIndex+delta, 0, len(s.Facts)-1)

	if s.SelectedIndex < s.ViewportOffset {
		s.ViewportOffset = s.SelectedIndex
	}
	if s.ViewportHeight > 0 && s.SelectedIndex >= s.ViewportOffset+s.ViewportHeight {
		s.ViewportOffset = s.SelectedIndex - s.ViewportHeight + 1
	}
}

// SelectedFact returns the highlighted card
func (s *AppState) SelectedFact() (domain.Fact, bool) {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Facts) {
		return domain.Fact{}, false
	}
	return s.Facts[s.SelectedIndex], true
}

// MoveSuggestion moves the highlighted suggestion by delta within n entries.
// Moving up from the first entry returns to the search box (-1).
func (s *AppState) MoveSuggestion(delta, n int) {
	if n == 0 {
		s.SuggestionIndex = -1
		return
	}
	s.SuggestionIndex = clamp(s.SuggestionIndex+delta, -1, n-1)
}

// ResetSuggestion clears the highlighted suggestion
func (s *AppState) ResetSuggestion() {
	s.SuggestionIndex = -1
}

// ToggleFocus switches between the search box and the results
func (s *AppState) ToggleFocus() Focus {
	if s.Focus == FocusSearch {
		s.Focus = FocusResults
	} else {
		s.Focus = FocusSearch
	}
	return s.Focus
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
