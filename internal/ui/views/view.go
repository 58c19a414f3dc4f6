package views

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"factgrip/internal/domain"
)

// SearchTop is the screen row of the search box: padding, title, title margin
const SearchTop = 3

// CardHeight is the usual number of rows a card takes
const CardHeight = 7

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width  int
	Height int

	Query           string
	SearchInput     string // rendered text input
	SearchFocused   bool
	SearchLoading   bool
	Spinner         string
	Suggestions     []string
	ShowSuggestions bool
	SuggestionIndex int
	Recent          []string

	Facts          []domain.Fact
	Kind           domain.FetchKind
	LastQuery      string
	Loaded         bool
	SelectedIndex  int
	ResultsFocused bool
	ViewportOffset int
	ViewportHeight int

	Busy          bool
	Progress      float64 // 0..1
	Err           string
	StatusMessage string
	HelpView      string
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
	cards  *CardRenderer
	bar    progress.Model
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles: styles,
		cards:  NewCardRenderer(styles),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Document renders a fact for the pager
func (r *Renderer) Document(fact domain.Fact) string {
	return r.cards.RenderDocument(fact)
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	termWidth := state.Width
	if termWidth <= 0 {
		termWidth = 80 // Default terminal width
	}
	availableWidth := termWidth - 4 // Account for main container padding

	content.WriteString(r.renderTitleLine(state, availableWidth))
	content.WriteString("\n")

	content.WriteString(r.renderSearch(state))
	content.WriteString("\n")

	if state.Busy {
		r.bar.Width = availableWidth
		content.WriteString(r.bar.ViewAs(state.Progress))
		content.WriteString("\n")
	}

	content.WriteString("\n")

	switch {
	case state.Err != "":
		content.WriteString(r.styles.StatusError.Render(state.Err))
	case state.Busy && len(state.Facts) == 0:
		content.WriteString(r.styles.Dim.Render("Loading facts..."))
	case len(state.Facts) == 0 && state.Loaded:
		content.WriteString(r.styles.Dim.Render(emptyMessage(state)))
	default:
		content.WriteString(r.renderCards(state, availableWidth))
	}

	helpText := state.HelpView
	if helpText == "" {
		helpText = "Press ? for help"
	}
	helpText = r.styles.Help.Render(helpText)

	// Push help to the bottom
	currentLines := strings.Count(content.String(), "\n") + 1
	availableLines := state.Height - 2
	if availableLines <= 0 {
		availableLines = 22 // Default terminal height minus padding
	}
	paddingNeeded := availableLines - currentLines - lipgloss.Height(helpText)
	if paddingNeeded > 0 {
		content.WriteString(strings.Repeat("\n", paddingNeeded))
	}
	content.WriteString("\n")
	content.WriteString(helpText)

	mainStyle := r.styles.Main
	if state.Height > 0 {
		mainStyle = mainStyle.MaxHeight(state.Height)
	}
	return mainStyle.Render(content.String())
}

func (r *Renderer) renderTitleLine(state ViewState, availableWidth int) string {
	logo := r.styles.Title.Render("factgrip")

	var indicators []string
	if state.Busy {
		indicators = append(indicators, r.styles.StatusLoading.Render(fmt.Sprintf("%s %s", state.Spinner, busyLabel(state.Kind))))
	} else if state.Loaded && state.Err == "" {
		indicators = append(indicators, r.styles.StatusSuccess.Render(fmt.Sprintf("%d facts", len(state.Facts))))
	}
	if state.StatusMessage != "" {
		indicators = append(indicators, r.styles.Status.Render(state.StatusMessage))
	}
	if len(indicators) == 0 {
		return logo
	}

	// Title style carries a bottom margin; align on its first line
	logoLine := strings.Split(logo, "\n")[0]
	right := strings.Join(indicators, "  ")
	paddingWidth := availableWidth - lipgloss.Width(logoLine) - lipgloss.Width(right)
	if paddingWidth < 2 {
		paddingWidth = 2
	}
	return logoLine + strings.Repeat(" ", paddingWidth) + right + "\n"
}

func (r *Renderer) renderSearch(state ViewState) string {
	var b strings.Builder

	prefix := "  "
	if state.SearchLoading {
		prefix = state.Spinner + " "
	}
	line := prefix + state.SearchInput
	if state.SearchFocused {
		b.WriteString(r.styles.SearchActive.Render("›") + line)
	} else {
		b.WriteString(r.styles.SearchBox.Render(" " + line))
	}

	if state.ShowSuggestions {
		for i, title := range state.Suggestions {
			b.WriteString("\n")
			if i == state.SuggestionIndex {
				b.WriteString(r.styles.SuggestionSel.Render(title))
			} else {
				b.WriteString(r.styles.Suggestion.Render(highlightMatch(title, strings.TrimSpace(state.Query), r.styles.Highlight)))
			}
		}
	} else if state.SearchFocused && len(state.Recent) > 0 && strings.TrimSpace(state.Query) == "" {
		b.WriteString("\n")
		b.WriteString(r.styles.Recent.Render("  recent: " + strings.Join(state.Recent, " · ")))
	}

	return b.String()
}

func (r *Renderer) renderCards(state ViewState, width int) string {
	if len(state.Facts) == 0 {
		return ""
	}

	height := state.ViewportHeight
	if height <= 0 {
		height = len(state.Facts)
	}
	start := state.ViewportOffset
	if start < 0 || start >= len(state.Facts) {
		start = 0
	}
	end := start + height
	if end > len(state.Facts) {
		end = len(state.Facts)
	}

	var cards []string
	if start > 0 {
		cards = append(cards, r.styles.Scroll.Render(fmt.Sprintf("↑ %d more", start)))
	}
	for i := start; i < end; i++ {
		selected := state.ResultsFocused && i == state.SelectedIndex
		cards = append(cards, r.cards.RenderCard(state.Facts[i], selected, width))
	}
	if end < len(state.Facts) {
		cards = append(cards, r.styles.Scroll.Render(fmt.Sprintf("↓ %d more", len(state.Facts)-end)))
	}
	return strings.Join(cards, "\n")
}

// SuggestionAt maps a clicked screen row to a suggestion index. The second
// result is false when the row is outside the search box and its list.
func SuggestionAt(row, shown int) (int, bool) {
	if row == SearchTop {
		return -1, true
	}
	idx := row - SearchTop - 1
	if idx >= 0 && idx < shown {
		return idx, true
	}
	return -1, false
}

// highlightMatch renders the first case-insensitive occurrence of query in
// text. Matching walks runes, so case folds that change byte length never
// split a character.
func highlightMatch(text, query string, highlight lipgloss.Style) string {
	n := utf8.RuneCountInString(query)
	if n == 0 {
		return text
	}
	for start := 0; start < len(text); {
		end := start
		for i := 0; i < n && end < len(text); i++ {
			_, size := utf8.DecodeRuneInString(text[end:])
			end += size
		}
		if strings.EqualFold(text[start:end], query) {
			return text[:start] + highlight.Render(text[start:end]) + text[end:]
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		start += size
	}
	return text
}

func emptyMessage(state ViewState) string {
	if state.LastQuery != "" && state.Kind != domain.FetchRandom {
		return fmt.Sprintf("No facts found matching %q.", state.LastQuery)
	}
	return "Press ctrl+r to get random facts!"
}

func busyLabel(kind domain.FetchKind) string {
	switch kind {
	case domain.FetchRandom:
		return "Fetching random facts"
	case domain.FetchByTitle:
		return "Fetching fact"
	default:
		return "Searching"
	}
}
