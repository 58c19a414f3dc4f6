// Package autocomplete turns search box edits into suggestion lists.
//
// The Controller combines a debouncer, a per-session suggestion cache and an
// in-flight coordinator. It lives inside the Bubble Tea Update loop: every
// method must be called from there, and network work only happens inside the
// tea.Cmd values it returns.
package autocomplete

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"factgrip/internal/debounce"
	"factgrip/internal/factsapi"
	"factgrip/internal/inflight"
	"factgrip/internal/logger"
	"factgrip/internal/suggest"
)

// DefaultWait is the debounce window between the last keystroke and the
// request
const DefaultWait = 300 * time.Millisecond

// State of the suggestion list
type State int

const (
	Idle State = iota
	Debouncing
	Loading
	Shown
	Hidden
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case Loading:
		return "loading"
	case Shown:
		return "shown"
	case Hidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// Suggester fetches the titles suggested for a partial query
type Suggester interface {
	Autocomplete(ctx context.Context, partial string) ([]string, error)
}

// suggestionsMsg carries a finished request back into the Update loop
type suggestionsMsg struct {
	token  inflight.Token
	query  string
	titles []string
	err    error
}

// Controller is the suggestion state machine. Not safe for concurrent use.
type Controller struct {
	source      Suggester
	cache       *suggest.Cache
	flight      *inflight.Coordinator
	debouncer   *debounce.Debouncer[string]
	state       State
	query       string
	suggestions []string
	log         *log.Logger
}

// Option configures a Controller
type Option func(*Controller)

// WithWait sets the debounce window
func WithWait(d time.Duration) Option {
	return func(c *Controller) {
		c.debouncer = debounce.New(d, c.fetch)
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithContext bounds every request by ctx
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.flight = inflight.New(ctx) }
}

// New creates a controller fetching from source
func New(source Suggester, opts ...Option) *Controller {
	c := &Controller{
		source: source,
		cache:  suggest.NewCache(),
		flight: inflight.New(context.Background()),
		state:  Idle,
	}
	c.debouncer = debounce.New(DefaultWait, c.fetch)
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.Or(c.log).WithPrefix("autocomplete")
	return c
}

// SetQuery handles an edit of the search box. It returns the command that
// waits out the debounce window, or nil when no request is needed.
func (c *Controller) SetQuery(q string) tea.Cmd {
	c.query = q
	c.cancelPending()

	if strings.TrimSpace(q) == "" {
		c.suggestions = nil
		c.state = Hidden
		return nil
	}

	if list, ok := c.cache.Get(q); ok {
		c.log.Debug("Cache hit", "query", q, "count", len(list))
		c.show(list)
		return nil
	}

	c.suggestions = nil
	c.state = Debouncing
	return c.debouncer.Call(q)
}

// fetch runs when the debounce window for q elapses
func (c *Controller) fetch(q string) tea.Cmd {
	// An identical query may have been answered while we waited
	if list, ok := c.cache.Get(q); ok {
		c.show(list)
		return nil
	}

	c.state = Loading
	token := c.flight.Start()
	source := c.source
	c.log.Debug("Requesting suggestions", "query", q, "generation", token.Generation())

	return func() tea.Msg {
		titles, err := source.Autocomplete(token.Context(), q)
		return suggestionsMsg{token: token, query: q, titles: titles, err: err}
	}
}

// Update handles the controller's own messages. The second result reports
// whether msg was one of them.
func (c *Controller) Update(msg tea.Msg) (tea.Cmd, bool) {
	if cmd, ok := c.debouncer.Update(msg); ok {
		return cmd, true
	}

	m, ok := msg.(suggestionsMsg)
	if !ok {
		return nil, false
	}

	if !c.flight.Current(m.token) {
		c.log.Debug("Discarding stale suggestions", "query", m.query, "generation", m.token.Generation())
		return nil, true
	}
	c.flight.Finish(m.token)

	switch {
	case m.err == nil:
		c.cache.Put(m.query, m.titles)
		c.show(m.titles)
	case errors.Is(m.err, context.Canceled), errors.Is(m.err, context.DeadlineExceeded):
		c.log.Info("Suggestion request aborted", "query", m.query)
		c.suggestions = nil
		c.state = Hidden
	case factsapi.IsPayload(m.err):
		c.log.Warn("Unusable suggestions response", "query", m.query, "err", m.err)
		c.suggestions = nil
		c.state = Hidden
	default:
		c.log.Error("Failed to fetch suggestions", "query", m.query, "err", m.err)
		c.suggestions = nil
		c.state = Hidden
	}
	return nil, true
}

// Dismiss hides the list and cancels pending work. The last list is kept so
// Focus can show it again.
func (c *Controller) Dismiss() {
	c.cancelPending()
	if c.state != Idle {
		c.state = Hidden
	}
}

// Accept records that title was chosen from the list. The query becomes the
// title and the list is hidden.
func (c *Controller) Accept(title string) {
	c.cancelPending()
	c.query = title
	c.suggestions, _ = c.cache.Get(title)
	c.state = Hidden
}

// Focus shows the last list again when the search box regains focus
func (c *Controller) Focus() {
	if strings.TrimSpace(c.query) != "" && len(c.suggestions) > 0 && !c.Loading() {
		c.state = Shown
	}
}

// State returns the current state
func (c *Controller) State() State {
	return c.state
}

// Query returns the text last passed to SetQuery or Accept
func (c *Controller) Query() string {
	return c.query
}

// Suggestions returns the current list
func (c *Controller) Suggestions() []string {
	return c.suggestions
}

// Visible reports whether the list should be drawn
func (c *Controller) Visible() bool {
	return c.state == Shown && len(c.suggestions) > 0
}

// Loading reports whether a request is pending or in flight
func (c *Controller) Loading() bool {
	return c.state == Debouncing || c.state == Loading
}

// CacheSize returns how many queries have cached lists
func (c *Controller) CacheSize() int {
	return c.cache.Len()
}

func (c *Controller) show(list []string) {
	c.suggestions = list
	if len(list) > 0 {
		c.state = Shown
	} else {
		c.state = Hidden
	}
}

func (c *Controller) cancelPending() {
	c.debouncer.Cancel()
	c.flight.Cancel()
}
