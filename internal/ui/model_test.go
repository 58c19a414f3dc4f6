package ui

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factgrip/internal/config"
	"factgrip/internal/domain"
	"factgrip/internal/eventbus"
	"factgrip/internal/factsapi"
	"factgrip/internal/factstest"
	"factgrip/internal/logger"
	"factgrip/internal/progress"
	"factgrip/internal/ui/state"
	"factgrip/internal/ui/views"
)

// recordBus keeps published events in order
type recordBus struct {
	mu     sync.Mutex
	events []eventbus.DomainEvent
}

func (b *recordBus) Publish(event eventbus.DomainEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordBus) Subscribe(eventbus.EventType, eventbus.EventHandler) func() { return func() {} }

func (b *recordBus) Close() {}

func (b *recordBus) last(eventType eventbus.EventType) (eventbus.DomainEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Type() == eventType {
			return b.events[i], true
		}
	}
	return nil, false
}

var catalogue = factstest.Facts("cat facts", "camel facts", "dog facts", "eel facts")

func newTestModel(t *testing.T) (*Model, *factstest.Server, *recordBus) {
	t.Helper()
	return newTestModelWith(t, context.Background(), logger.Discard())
}

func newTestModelWith(t *testing.T, ctx context.Context, l *log.Logger) (*Model, *factstest.Server, *recordBus) {
	t.Helper()

	srv := factstest.NewServer(t, catalogue...)
	srv.ScriptRandom(catalogue[2].ID, catalogue[3].ID)

	cfg := config.DefaultConfig()
	cfg.Random.Count = 2
	cfg.Search.DebounceMs = 1
	cfg.Progress.IntervalMs = 1

	bus := &recordBus{}
	m := NewModel(ctx, bus, cfg, factsapi.New(srv.BaseURL()), l)
	m.input.Cursor.SetMode(cursor.CursorStatic)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, srv, bus
}

// drain runs cmd and everything it leads to, feeding messages back into the
// model. Animation ticks are dropped.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "command chain did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case spinner.TickMsg, progress.TickMsg:
		default:
			_, cmd := m.Update(msg)
			queue = append(queue, cmd)
		}
	}
}

func press(m *Model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

func typeText(m *Model, text string) tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range text {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func click(m *Model, row int) tea.Cmd {
	_, cmd := m.Update(tea.MouseMsg{X: 4, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	return cmd
}

func titlesOf(facts []domain.Fact) []string {
	out := make([]string, len(facts))
	for i, f := range facts {
		out[i] = f.Title
	}
	return out
}

func TestInitLoadsRandomFacts(t *testing.T) {
	m, srv, bus := newTestModel(t)

	drain(t, m, m.Init())

	assert.False(t, m.state.Busy)
	assert.Empty(t, m.state.Err)
	assert.Equal(t, domain.FetchRandom, m.state.Kind)
	assert.ElementsMatch(t, []string{"dog facts", "eel facts"}, titlesOf(m.state.Facts))
	assert.LessOrEqual(t, srv.Hits(factstest.EndpointRandom), 6)

	event, ok := bus.last(eventbus.EventFactsLoaded)
	require.True(t, ok)
	loaded := event.(eventbus.FactsLoadedEvent)
	assert.Equal(t, 2, loaded.Count)
	assert.Equal(t, 2, loaded.Requested)
}

func TestTypingShowsSuggestions(t *testing.T) {
	m, srv, _ := newTestModel(t)
	srv.SetSuggestions("ca", "cat facts", "camel facts")

	drain(t, m, typeText(m, "ca"))

	assert.True(t, m.suggestions.Visible())
	assert.Equal(t, []string{"cat facts", "camel facts"}, m.suggestions.Suggestions())
	assert.Equal(t, 1, srv.Hits(factstest.EndpointAutocomplete), "only the settled query is requested")
	assert.Contains(t, m.View(), "camel facts")
}

func TestEnterPicksHighlightedSuggestion(t *testing.T) {
	m, srv, bus := newTestModel(t)
	srv.SetSuggestions("ca", "cat facts", "camel facts")
	drain(t, m, typeText(m, "ca"))

	press(m, tea.KeyDown)
	press(m, tea.KeyDown)
	assert.Equal(t, 1, m.state.SuggestionIndex)

	drain(t, m, press(m, tea.KeyEnter))

	assert.Equal(t, "camel facts", m.input.Value())
	assert.False(t, m.suggestions.Visible())
	assert.Equal(t, domain.FetchByTitle, m.state.Kind)
	assert.Equal(t, []string{"camel facts"}, titlesOf(m.state.Facts))
	assert.Equal(t, "camel facts", m.state.Recent[0])

	event, ok := bus.last(eventbus.EventConfigChanged)
	require.True(t, ok)
	assert.Equal(t, []string{"camel facts"}, event.(eventbus.ConfigChangedEvent).Recent)
}

func TestEnterSubmitsQuery(t *testing.T) {
	m, srv, bus := newTestModel(t)
	srv.SetSuggestions("ca", "cat facts", "camel facts", "missing facts")

	// the pending debounce is dropped by the submit
	typeText(m, "ca")
	drain(t, m, press(m, tea.KeyEnter))

	assert.Equal(t, domain.FetchByQuery, m.state.Kind)
	assert.Equal(t, "ca", m.state.LastQuery)
	assert.ElementsMatch(t, []string{"cat facts", "camel facts"}, titlesOf(m.state.Facts))
	assert.Equal(t, 1, srv.Hits(factstest.EndpointAutocomplete))
	assert.Equal(t, 3, srv.Hits(factstest.EndpointTitle))

	event, ok := bus.last(eventbus.EventQuerySubmitted)
	require.True(t, ok)
	assert.Equal(t, "ca", event.(eventbus.QuerySubmittedEvent).Query)
}

func TestEnterOnBlankQueryDoesNothing(t *testing.T) {
	m, _, _ := newTestModel(t)

	typeText(m, "   ")
	cmd := press(m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.False(t, m.state.Busy)
	assert.Empty(t, m.state.Recent)
}

func TestQueryWithoutMatches(t *testing.T) {
	m, _, _ := newTestModel(t)

	typeText(m, "zebra")
	drain(t, m, press(m, tea.KeyEnter))

	assert.Empty(t, m.state.Facts)
	assert.Empty(t, m.state.Err)
	assert.Contains(t, m.View(), `No facts found matching "zebra".`)
}

func TestEscapeDismissesThenClears(t *testing.T) {
	m, srv, _ := newTestModel(t)
	srv.SetSuggestions("ca", "cat facts")
	drain(t, m, typeText(m, "ca"))
	require.True(t, m.suggestions.Visible())

	press(m, tea.KeyEsc)
	assert.False(t, m.suggestions.Visible())
	assert.Equal(t, "ca", m.input.Value())

	press(m, tea.KeyEsc)
	assert.Empty(t, m.input.Value())
}

func TestClickOutsideDismisses(t *testing.T) {
	m, srv, _ := newTestModel(t)
	srv.SetSuggestions("ca", "cat facts", "camel facts")
	drain(t, m, typeText(m, "ca"))

	assert.Nil(t, click(m, 30))
	assert.False(t, m.suggestions.Visible())
}

func TestClickPicksSuggestion(t *testing.T) {
	m, srv, _ := newTestModel(t)
	srv.SetSuggestions("ca", "cat facts", "camel facts")
	drain(t, m, typeText(m, "ca"))

	drain(t, m, click(m, views.SearchTop+1))

	assert.Equal(t, "cat facts", m.input.Value())
	assert.Equal(t, []string{"cat facts"}, titlesOf(m.state.Facts))
}

func TestNewerCycleWins(t *testing.T) {
	m, _, _ := newTestModel(t)

	typeText(m, "ca")
	search := press(m, tea.KeyEnter)
	random := press(m, tea.KeyCtrlR)

	drain(t, m, random)
	drain(t, m, search)

	assert.Equal(t, domain.FetchRandom, m.state.Kind)
	assert.ElementsMatch(t, []string{"dog facts", "eel facts"}, titlesOf(m.state.Facts))
}

func TestFetchFailureIsShown(t *testing.T) {
	m, srv, bus := newTestModel(t)
	srv.FailRandom(http.StatusInternalServerError)

	drain(t, m, press(m, tea.KeyCtrlR))

	assert.False(t, m.state.Busy)
	assert.True(t, strings.HasPrefix(m.state.Err, "Failed to fetch facts:"), m.state.Err)
	assert.Contains(t, m.View(), "Failed to fetch facts")

	_, ok := bus.last(eventbus.EventFetchFailed)
	assert.True(t, ok)
}

func TestAbortedFetchIsNotAnError(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m, _, bus := newTestModelWith(t, ctx, logger.New(&buf, "test", log.DebugLevel))

	random := press(m, tea.KeyCtrlR)
	require.True(t, m.state.Busy)
	cancel()
	drain(t, m, random)

	assert.False(t, m.state.Busy)
	assert.Empty(t, m.state.Err)
	_, failed := bus.last(eventbus.EventFetchFailed)
	assert.False(t, failed)

	logs := buf.String()
	var aborted string
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, "Fetch aborted") {
			aborted = line
		}
	}
	assert.Contains(t, aborted, "INFO", logs)
	assert.NotContains(t, logs, "ERRO")
}

func TestResultsNavigation(t *testing.T) {
	m, _, _ := newTestModel(t)
	drain(t, m, m.Init())

	press(m, tea.KeyTab)
	assert.Equal(t, state.FocusResults, m.state.Focus)
	assert.False(t, m.input.Focused())

	press(m, tea.KeyDown)
	press(m, tea.KeyDown)
	assert.Equal(t, 1, m.state.SelectedIndex)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.True(t, m.state.ShowHelp)

	cmd := press(m, tea.KeyEnter)
	assert.NotNil(t, cmd)
	assert.Equal(t, "Pager unavailable", m.state.StatusMessage)

	m.Update(clearStatusMsg{})
	assert.Empty(t, m.state.StatusMessage)

	press(m, tea.KeyEsc)
	assert.Equal(t, state.FocusSearch, m.state.Focus)
	assert.True(t, m.input.Focused())
}

func TestQuitAbortsFetch(t *testing.T) {
	m, _, _ := newTestModel(t)

	press(m, tea.KeyCtrlR)
	require.True(t, m.state.Busy)

	cmd := press(m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, m.state.Busy)
}

func TestWindowSizeSetsViewport(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 10 + 3*views.CardHeight})
	assert.Equal(t, 3, m.state.ViewportHeight)

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 5})
	assert.Equal(t, 1, m.state.ViewportHeight)
}

func TestPagerModeBlanksView(t *testing.T) {
	m, _, _ := newTestModel(t)
	drain(t, m, m.Init())
	assert.Contains(t, m.View(), "dog facts")

	m.Update(pauseRenderingMsg{})
	assert.Empty(t, m.View())

	_, cmd := m.Update(spinner.TickMsg{})
	assert.Nil(t, cmd)

	_, cmd = m.Update(resumeRenderingMsg{})
	assert.NotNil(t, cmd)
	assert.NotEmpty(t, m.View())
}

func TestPagerNeedsProgram(t *testing.T) {
	p := NewPager()

	assert.False(t, p.Available())
	assert.ErrorIs(t, p.Show("text"), errNoProgram)
}
