package ui

import (
	"factgrip/internal/domain"
	"factgrip/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// factsMsg carries the outcome of one fetch cycle
type factsMsg struct {
	cycle uint64
	kind  domain.FetchKind
	query string
	facts []domain.Fact
	err   error
}

// pagerMsg is sent when the pager exits
type pagerMsg struct {
	title string
	err   error
}

// pauseRenderingMsg signals to pause Bubble Tea rendering
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals to resume Bubble Tea rendering
type resumeRenderingMsg struct{}

// clearStatusMsg clears the status message
type clearStatusMsg struct{}
