package cli

import (
	"fmt"
	"strings"

	"github.com/bastiangx/replserve/pkg/autocomplete"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	hintStyle = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#797593", Dark: "#908caa"})
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#56949f", Dark: "#31748f"})
	keyStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#907aa9", Dark: "#c4a7e7"})
	bindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#d7827e", Dark: "#ea9a97"})
	errorStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"})
)

// renderMatches lists the display form of each match under a header
// naming the winning strategy. limit <= 0 shows everything.
func renderMatches(comp autocomplete.Completion, limit int) string {
	matches := comp.Matches
	hidden := 0
	if limit > 0 && len(matches) > limit {
		hidden = len(matches) - limit
		matches = matches[:limit]
	}

	var b strings.Builder
	header := fmt.Sprintf("%d matches from %s, replacing %q", len(comp.Matches), comp.Strategy.Name(), comp.Span.Word)
	b.WriteString(keyStyle.Render(header))
	for i, m := range matches {
		shown := comp.Strategy.Format(m)
		fmt.Fprintf(&b, "\n%3d. %s", i+1, matchStyle.Render(shown))
		if shown != m {
			b.WriteString(hintStyle.Render("  (" + m + ")"))
		}
	}
	if hidden > 0 {
		b.WriteString("\n" + hintStyle.Render(fmt.Sprintf("... %d more", hidden)))
	}
	return b.String()
}
