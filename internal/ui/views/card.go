package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"factgrip/internal/domain"
)

// bodyPreviewLines is how much of the body a card shows; the pager shows all
const bodyPreviewLines = 3

// CardRenderer handles rendering of fact cards
type CardRenderer struct {
	styles *Styles
}

// NewCardRenderer creates a new card renderer
func NewCardRenderer(styles *Styles) *CardRenderer {
	return &CardRenderer{styles: styles}
}

// RenderCard renders one fact as a bordered card of the given outer width
func (r *CardRenderer) RenderCard(fact domain.Fact, isSelected bool, width int) string {
	if width < 20 {
		width = 20
	}
	inner := width - 4 // border and padding

	style := r.styles.Card
	if isSelected {
		style = r.styles.CardSelected
	}

	var b strings.Builder

	title := r.styles.CardTitle.Render(truncate(fact.Title, inner))
	if fact.Tag != "" {
		badge := r.styles.Tag.Background(lipgloss.Color(TagColor(fact.Tag))).Render(fact.Tag)
		gap := inner - lipgloss.Width(title) - lipgloss.Width(badge)
		if gap < 1 {
			gap = 1
		}
		title = title + strings.Repeat(" ", gap) + badge
	}
	b.WriteString(title)
	b.WriteString("\n")

	body := r.styles.CardBody.Width(inner).Render(fact.Body)
	lines := strings.Split(body, "\n")
	if len(lines) > bodyPreviewLines {
		lines = lines[:bodyPreviewLines]
		lines[bodyPreviewLines-1] = strings.TrimRight(lines[bodyPreviewLines-1], " ") + "…"
	}
	b.WriteString(strings.Join(lines, "\n"))

	if fact.SourceURL != "" {
		b.WriteString("\n")
		b.WriteString(r.styles.Source.Render(truncate(fact.SourceURL, inner)))
	}

	return style.Width(width - 2).Render(b.String())
}

// RenderDocument renders the full fact for the pager
func (r *CardRenderer) RenderDocument(fact domain.Fact) string {
	var b strings.Builder

	b.WriteString(r.styles.DocumentTitle.Render(fact.Title))
	b.WriteString("\n\n")
	if fact.Tag != "" {
		b.WriteString(r.styles.Tag.Background(lipgloss.Color(TagColor(fact.Tag))).Render(fact.Tag))
		b.WriteString("\n\n")
	}
	b.WriteString(fact.Body)
	b.WriteString("\n\n")

	b.WriteString(r.styles.DocumentHeader.Render("Details"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  ID:       %s\n", fact.ID))
	if fact.SourceURL != "" {
		b.WriteString(fmt.Sprintf("  Source:   %s\n", fact.SourceURL))
	}
	b.WriteString(fmt.Sprintf("  Created:  %s\n", formatTimestamp(fact.CreatedAt)))
	b.WriteString(fmt.Sprintf("  Updated:  %s\n", formatTimestamp(fact.UpdatedAt)))

	return b.String()
}

func formatTimestamp(ts domain.Timestamp) string {
	if ts.IsZero() {
		if ts.Raw != "" {
			return ts.Raw
		}
		return "unknown"
	}
	return ts.Format("2006-01-02 15:04")
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width || width <= 1 {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
