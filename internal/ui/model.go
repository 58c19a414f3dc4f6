package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"factgrip/internal/autocomplete"
	"factgrip/internal/config"
	"factgrip/internal/domain"
	"factgrip/internal/eventbus"
	"factgrip/internal/logger"
	"factgrip/internal/progress"
	"factgrip/internal/retrieval"
	"factgrip/internal/ui/state"
	"factgrip/internal/ui/views"
)

// chromeHeight is the number of rows not available to cards
const chromeHeight = 10

// statusTimeout is how long status messages stay on screen
const statusTimeout = 3 * time.Second

// Model represents the UI state. It is the only owner of the autocomplete
// controller, the progress simulator and the result set; commands it returns
// never touch them.
type Model struct {
	ctx    context.Context
	bus    eventbus.EventBus
	config *config.Config
	state  *state.AppState // centralized state

	// UI-specific state not in AppState
	width       int
	height      int
	input       textinput.Model
	spinner     spinner.Model
	help        help.Model
	keys        keyMap
	inPagerMode bool // tracks if we're currently in pager mode

	suggestions  *autocomplete.Controller
	orchestrator *retrieval.Orchestrator
	progress     *progress.Simulator
	renderer     *views.Renderer
	pager        *Pager

	now func() time.Time
	log *log.Logger
}

// NewModel creates a new UI model. ctx bounds every request the UI makes;
// bus may be nil.
func NewModel(ctx context.Context, bus eventbus.EventBus, cfg *config.Config, source retrieval.FactSource, l *log.Logger) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	l = logger.Or(l)

	input := textinput.New()
	input.Placeholder = "Search facts..."
	input.Prompt = "> "
	input.CharLimit = 200
	input.Focus()

	appState := state.NewAppState()
	appState.Recent = append(appState.Recent, cfg.History.Recent...)

	return &Model{
		ctx:     ctx,
		bus:     bus,
		config:  cfg,
		state:   appState,
		input:   input,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    newKeyMap(),
		suggestions: autocomplete.New(source,
			autocomplete.WithWait(cfg.DebounceWait()),
			autocomplete.WithContext(ctx),
			autocomplete.WithLogger(l),
		),
		orchestrator: retrieval.New(source,
			retrieval.WithMaxResults(cfg.Search.MaxResults),
			retrieval.WithLogger(l),
		),
		progress: progress.New(cfg.ProgressDuration(), cfg.ProgressInterval()),
		renderer: views.NewRenderer(),
		pager:    NewPager(),
		now:      time.Now,
		log:      l.WithPrefix("ui"),
	}
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.pager.SetProgram(p)
}

// Init starts the cursor and spinner and loads the first random facts
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.fetchRandom())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-12, 10)
		m.state.ViewportHeight = max((msg.Height-chromeHeight)/views.CardHeight, 1)
		m.state.MoveSelection(0)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case factsMsg:
		m.handleFacts(msg)
		return m, nil

	case progress.TickMsg:
		cmd, _ := m.progress.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		// Don't continue the tick loop while the pager owns the terminal
		if m.inPagerMode {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pagerMsg:
		if msg.err != nil {
			m.log.Error("Pager failed", "title", msg.title, "err", msg.err)
			return m, m.setStatus("Could not open pager")
		}
		return m, nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, m.spinner.Tick

	case clearStatusMsg:
		m.state.StatusMessage = ""
		return m, nil

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, nil
	}

	if cmd, ok := m.suggestions.Update(msg); ok {
		m.clampSuggestion()
		return m, cmd
	}

	// Cursor blink and other text input internals
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.suggestions.Dismiss()
		m.state.Abort()
		return tea.Quit

	case key.Matches(msg, m.keys.Random):
		m.suggestions.Dismiss()
		m.state.ResetSuggestion()
		return m.fetchRandom()

	case key.Matches(msg, m.keys.Focus):
		return m.toggleFocus()
	}

	if m.state.Focus == state.FocusResults {
		return m.handleResultsKey(msg)
	}
	return m.handleSearchKey(msg)
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	list := m.suggestions.Suggestions()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.suggestions.Visible() {
			m.state.MoveSuggestion(-1, len(list))
		}
		return nil

	case key.Matches(msg, m.keys.Down):
		if m.suggestions.Visible() {
			m.state.MoveSuggestion(1, len(list))
		}
		return nil

	case key.Matches(msg, m.keys.Enter):
		if m.suggestions.Visible() && m.state.SuggestionIndex >= 0 && m.state.SuggestionIndex < len(list) {
			return m.pick(list[m.state.SuggestionIndex])
		}
		return m.submit()

	case key.Matches(msg, m.keys.Dismiss):
		if m.suggestions.Visible() || m.suggestions.Loading() {
			m.suggestions.Dismiss()
			m.state.ResetSuggestion()
			return nil
		}
		if m.input.Value() != "" {
			m.input.SetValue("")
			return m.suggestions.SetQuery("")
		}
		return nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return cmd
	}

	m.state.ResetSuggestion()
	return tea.Batch(cmd, m.suggestions.SetQuery(m.input.Value()))
}

func (m *Model) handleResultsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.state.MoveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.state.MoveSelection(1)
	case key.Matches(msg, m.keys.Enter, m.keys.Open):
		return m.openSelected()
	case key.Matches(msg, m.keys.Help):
		m.state.ShowHelp = !m.state.ShowHelp
		m.help.ShowAll = m.state.ShowHelp
	case key.Matches(msg, m.keys.Search, m.keys.Dismiss):
		return m.focusSearch()
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}

	shown := 0
	if m.suggestions.Visible() {
		shown = len(m.suggestions.Suggestions())
	}
	idx, inside := views.SuggestionAt(msg.Y, shown)
	switch {
	case !inside:
		m.suggestions.Dismiss()
		m.state.ResetSuggestion()
		return nil
	case idx >= 0:
		return m.pick(m.suggestions.Suggestions()[idx])
	default:
		return m.focusSearch()
	}
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.state.ToggleFocus() == state.FocusSearch {
		return m.focusSearch()
	}
	m.input.Blur()
	m.suggestions.Dismiss()
	m.state.ResetSuggestion()
	return nil
}

func (m *Model) focusSearch() tea.Cmd {
	m.state.Focus = state.FocusSearch
	m.suggestions.Focus()
	return m.input.Focus()
}

// pick runs a by-title fetch for a chosen suggestion
func (m *Model) pick(title string) tea.Cmd {
	m.input.SetValue(title)
	m.input.CursorEnd()
	m.suggestions.Accept(title)
	m.state.ResetSuggestion()
	m.remember(title)

	orch := m.orchestrator
	return m.startFetch(domain.FetchByTitle, title, func(ctx context.Context) ([]domain.Fact, error) {
		fact, ok := orch.FetchByTitle(ctx, title)
		if !ok {
			return []domain.Fact{}, nil
		}
		return []domain.Fact{fact}, nil
	})
}

// submit runs a by-query search for the text in the search box
func (m *Model) submit() tea.Cmd {
	m.suggestions.Dismiss()
	m.state.ResetSuggestion()

	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return nil
	}
	m.remember(query)

	orch := m.orchestrator
	return m.startFetch(domain.FetchByQuery, query, func(ctx context.Context) ([]domain.Fact, error) {
		return orch.SearchByQuery(ctx, query)
	})
}

func (m *Model) fetchRandom() tea.Cmd {
	orch := m.orchestrator
	count := m.config.Random.Count
	return m.startFetch(domain.FetchRandom, "", func(ctx context.Context) ([]domain.Fact, error) {
		return orch.FetchRandom(ctx, count)
	})
}

// startFetch begins a fetch cycle and returns the commands running it and
// animating its progress
func (m *Model) startFetch(kind domain.FetchKind, query string, run func(context.Context) ([]domain.Fact, error)) tea.Cmd {
	cycle, ctx := m.state.Begin(m.ctx, kind, query)
	m.log.Debug("Fetch started", "kind", kind, "query", query, "cycle", cycle)
	m.publish(eventbus.QuerySubmittedEvent{Kind: kind, Query: query})

	fetch := func() tea.Msg {
		facts, err := run(ctx)
		return factsMsg{cycle: cycle, kind: kind, query: query, facts: facts, err: err}
	}
	return tea.Batch(m.progress.Start(m.now()), fetch)
}

func (m *Model) handleFacts(msg factsMsg) {
	if !m.state.Finish(msg.cycle, msg.facts, msg.err) {
		m.log.Debug("Discarding stale result set", "kind", msg.kind, "cycle", msg.cycle)
		return
	}
	m.progress.Stop()

	switch {
	case msg.err == nil:
		requested := 0
		if msg.kind == domain.FetchRandom {
			requested = m.config.Random.Count
		}
		m.publish(eventbus.FactsLoadedEvent{Kind: msg.kind, Query: msg.query, Count: len(m.state.Facts), Requested: requested})
	case errors.Is(msg.err, context.Canceled):
		m.log.Info("Fetch aborted", "kind", msg.kind, "query", msg.query)
	default:
		m.log.Error("Fetch failed", "kind", msg.kind, "query", msg.query, "err", msg.err)
		m.publish(eventbus.FetchFailedEvent{Kind: msg.kind, Query: msg.query, Err: msg.err})
	}
}

func (m *Model) handleEvent(event eventbus.DomainEvent) {
	switch e := event.(type) {
	case eventbus.ConfigSavedEvent:
		m.log.Debug("Config saved", "path", e.Path)
	default:
		m.log.Debug("Unhandled event", "type", event.Type())
	}
}

func (m *Model) openSelected() tea.Cmd {
	fact, ok := m.state.SelectedFact()
	if !ok {
		return nil
	}
	if !m.pager.Available() {
		return m.setStatus("Pager unavailable")
	}
	return m.pager.showCmd(fact.Title, m.renderer.Document(fact))
}

// remember records query in the recent list and asks for it to be persisted
func (m *Model) remember(query string) {
	m.state.Recent = config.RememberQuery(m.state.Recent, query, m.config.History.MaxEntries)
	m.publish(eventbus.ConfigChangedEvent{Recent: append([]string(nil), m.state.Recent...)})
}

func (m *Model) publish(event eventbus.DomainEvent) {
	if m.bus != nil {
		m.bus.Publish(event)
	}
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.state.StatusMessage = text
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// clampSuggestion keeps the highlighted suggestion inside the current list
func (m *Model) clampSuggestion() {
	if !m.suggestions.Visible() || m.state.SuggestionIndex >= len(m.suggestions.Suggestions()) {
		m.state.ResetSuggestion()
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.inPagerMode {
		return ""
	}

	helpView := ""
	if m.state.ShowHelp || m.state.Focus == state.FocusResults {
		helpView = m.help.View(m.keys)
	}

	return m.renderer.Render(views.ViewState{
		Width:           m.width,
		Height:          m.height,
		Query:           m.input.Value(),
		SearchInput:     m.input.View(),
		SearchFocused:   m.state.Focus == state.FocusSearch,
		SearchLoading:   m.suggestions.Loading(),
		Spinner:         m.spinner.View(),
		Suggestions:     m.suggestions.Suggestions(),
		ShowSuggestions: m.suggestions.Visible(),
		SuggestionIndex: m.state.SuggestionIndex,
		Recent:          m.state.Recent,
		Facts:           m.state.Facts,
		Kind:            m.state.Kind,
		LastQuery:       m.state.LastQuery,
		Loaded:          m.state.Loaded,
		SelectedIndex:   m.state.SelectedIndex,
		ResultsFocused:  m.state.Focus == state.FocusResults,
		ViewportOffset:  m.state.ViewportOffset,
		ViewportHeight:  m.state.ViewportHeight,
		Busy:            m.state.Busy,
		Progress:        m.progress.Fraction(),
		Err:             m.state.Err,
		StatusMessage:   m.state.StatusMessage,
		HelpView:        helpView,
	})
}
