package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title          lipgloss.Style
	Dim            lipgloss.Style
	Status         lipgloss.Style
	Help           lipgloss.Style
	Main           lipgloss.Style
	Scroll         lipgloss.Style
	Highlight      lipgloss.Style
	StatusError    lipgloss.Style
	StatusLoading  lipgloss.Style
	StatusSuccess  lipgloss.Style
	SearchBox      lipgloss.Style
	SearchActive   lipgloss.Style
	Suggestion     lipgloss.Style
	SuggestionSel  lipgloss.Style
	Card           lipgloss.Style
	CardSelected   lipgloss.Style
	CardTitle      lipgloss.Style
	CardBody       lipgloss.Style
	Tag            lipgloss.Style
	Source         lipgloss.Style
	Recent         lipgloss.Style
	DocumentTitle  lipgloss.Style
	DocumentHeader lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Dim: lipgloss.NewStyle().Faint(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Help: lipgloss.NewStyle().Faint(true),
		Main: lipgloss.NewStyle().
			Padding(1, 2).
			MaxHeight(100), // adjusted to the terminal in Render
		Scroll:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Highlight:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		SearchBox: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		SearchActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),
		Suggestion: lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			PaddingLeft(2),
		SuggestionSel: lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Background(lipgloss.Color("238")).
			PaddingLeft(2),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		CardSelected: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1),
		CardTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		CardBody:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Tag: lipgloss.NewStyle().
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("78")).
			Padding(0, 1),
		Source:         lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Underline(true),
		Recent:         lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
		DocumentTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		DocumentHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
	}
}

// TagColor returns the badge color for a category tag
func TagColor(tag string) string {
	palette := []string{"78", "33", "214", "170", "51", "203"}
	if tag == "" {
		return "241"
	}
	sum := 0
	for _, r := range tag {
		sum += int(r)
	}
	return palette[sum%len(palette)]
}
