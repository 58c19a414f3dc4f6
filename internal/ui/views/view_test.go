package views

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"factgrip/internal/domain"
)

func fact(title, body string) domain.Fact {
	return domain.Fact{ID: "id-" + title, Title: title, Body: body, Tag: "animals"}
}

func TestSuggestionAt(t *testing.T) {
	tests := []struct {
		name   string
		row    int
		shown  int
		idx    int
		inside bool
	}{
		{"search box", SearchTop, 3, -1, true},
		{"first suggestion", SearchTop + 1, 3, 0, true},
		{"last suggestion", SearchTop + 3, 3, 2, true},
		{"below list", SearchTop + 4, 3, -1, false},
		{"title", 1, 3, -1, false},
		{"no list", SearchTop + 1, 0, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, inside := SuggestionAt(tt.row, tt.shown)
			assert.Equal(t, tt.idx, idx)
			assert.Equal(t, tt.inside, inside)
		})
	}
}

func TestRenderSuggestionsBelowSearch(t *testing.T) {
	out := NewRenderer().Render(ViewState{
		Width:           80,
		Height:          30,
		Query:           "ca",
		SearchInput:     "> ca",
		SearchFocused:   true,
		Suggestions:     []string{"cat facts", "camel facts"},
		ShowSuggestions: true,
		SuggestionIndex: -1,
	})

	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[SearchTop], "> ca")
	assert.Contains(t, lines[SearchTop+1], "cat facts")
	assert.Contains(t, lines[SearchTop+2], "camel facts")
}

func TestRenderRecentWhenQueryEmpty(t *testing.T) {
	r := NewRenderer()

	out := r.Render(ViewState{Width: 80, Height: 30, SearchFocused: true, Recent: []string{"cats", "eels"}})
	assert.Contains(t, out, "recent: cats · eels")

	out = r.Render(ViewState{Width: 80, Height: 30, Query: "ca", SearchFocused: true, Recent: []string{"cats"}})
	assert.NotContains(t, out, "recent:")
}

func TestRenderStates(t *testing.T) {
	r := NewRenderer()

	t.Run("error", func(t *testing.T) {
		out := r.Render(ViewState{Width: 80, Height: 30, Loaded: true, Err: "Failed to fetch facts: boom"})
		assert.Contains(t, out, "Failed to fetch facts: boom")
	})

	t.Run("loading", func(t *testing.T) {
		out := r.Render(ViewState{Width: 80, Height: 30, Busy: true, Kind: domain.FetchRandom, Progress: 0.4})
		assert.Contains(t, out, "Loading facts...")
		assert.Contains(t, out, "Fetching random facts")
	})

	t.Run("empty query result", func(t *testing.T) {
		out := r.Render(ViewState{Width: 80, Height: 30, Loaded: true, Kind: domain.FetchByQuery, LastQuery: "zebra"})
		assert.Contains(t, out, `No facts found matching "zebra".`)
	})

	t.Run("empty random result", func(t *testing.T) {
		out := r.Render(ViewState{Width: 80, Height: 30, Loaded: true, Kind: domain.FetchRandom})
		assert.Contains(t, out, "Press ctrl+r to get random facts!")
	})

	t.Run("facts", func(t *testing.T) {
		out := r.Render(ViewState{
			Width:          80,
			Height:         30,
			Loaded:         true,
			Facts:          []domain.Fact{fact("cat facts", "Cats purr."), fact("eel facts", "Eels swim.")},
			ViewportHeight: 3,
		})
		assert.Contains(t, out, "cat facts")
		assert.Contains(t, out, "Eels swim.")
		assert.Contains(t, out, "2 facts")
	})
}

func TestRenderScrollIndicators(t *testing.T) {
	facts := []domain.Fact{fact("a", "1"), fact("b", "2"), fact("c", "3"), fact("d", "4")}

	out := NewRenderer().Render(ViewState{
		Width:          80,
		Height:         60,
		Loaded:         true,
		Facts:          facts,
		ViewportOffset: 1,
		ViewportHeight: 2,
	})

	assert.Contains(t, out, "↑ 1 more")
	assert.Contains(t, out, "↓ 1 more")
}

func TestRenderFitsHeight(t *testing.T) {
	out := NewRenderer().Render(ViewState{Width: 80, Height: 24, HelpView: "help line"})

	assert.LessOrEqual(t, lipgloss.Height(out), 24)
	assert.Contains(t, out, "help line")
}

func TestRenderCardTruncatesBody(t *testing.T) {
	cards := NewCardRenderer(NewStyles())
	long := strings.Repeat("word ", 100)

	out := cards.RenderCard(fact("long", long), false, 40)

	assert.Contains(t, out, "…")
	// border, title, three body lines, border
	assert.Equal(t, 6, lipgloss.Height(out))
	assert.LessOrEqual(t, lipgloss.Width(out), 40)
}

func TestRenderCardShowsSource(t *testing.T) {
	f := fact("cat facts", "Cats purr.")
	f.SourceURL = "https://example.org/cats"

	out := NewCardRenderer(NewStyles()).RenderCard(f, true, 60)

	assert.Contains(t, out, "https://example.org/cats")
	assert.Contains(t, out, "animals")
}

func TestRenderDocument(t *testing.T) {
	f := fact("cat facts", "Cats purr.")
	f.CreatedAt = domain.ParseTimestamp("2024-05-01T10:00:00")
	f.UpdatedAt = domain.Timestamp{Raw: "yesterday"}

	out := NewRenderer().Document(f)

	assert.Contains(t, out, "Cats purr.")
	assert.Contains(t, out, "ID:       id-cat facts")
	assert.Contains(t, out, "Created:  2024-05-01 10:00")
	assert.Contains(t, out, "Updated:  yesterday")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestHighlightMatch(t *testing.T) {
	upper := lipgloss.NewStyle().Transform(strings.ToUpper)

	tests := []struct {
		name  string
		text  string
		query string
		want  string
	}{
		{"prefix", "Cat facts", "ca", "CAt facts"},
		{"middle", "camel facts", "FAC", "camel FACts"},
		{"empty query", "Cat facts", "", "Cat facts"},
		{"no match", "dog facts", "cat", "dog facts"},
		{"query longer than text", "cat", "cats", "cat"},
		{"folded sign before match", "\u212A cat", "cat", "\u212A CAT"},
		{"folded sign matched", "\u212Aelvin facts", "ke", "\u212AElvin facts"},
		{"multibyte text", "Straße facts", "sse", "Straße facts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := highlightMatch(tt.text, tt.query, upper)
			assert.True(t, utf8.ValidString(got), "%q", got)
			assert.Equal(t, tt.want, got)
		})
	}
}
