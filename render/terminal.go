package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Dracula color scheme.
var (
	Comment = lipgloss.Color("#6272a4")
	Cyan    = lipgloss.Color("#8be9fd")
	Green   = lipgloss.Color("#50fa7b")
	Purple  = lipgloss.Color("#bd93f9")
	Yellow  = lipgloss.Color("#f1fa8c")
)

var (
	headingStyle = lipgloss.NewStyle().Foreground(Purple).Bold(true)
	tableStyle   = lipgloss.NewStyle().Foreground(Cyan)
	bulletStyle  = lipgloss.NewStyle().Foreground(Green)
	ratingStyle  = lipgloss.NewStyle().Foreground(Yellow)
	ruleStyle    = lipgloss.NewStyle().Foreground(Comment)
)

// Terminal formats a briefing for display, wrapping text at width columns.
func Terminal(briefing string, width int) string {
	if width <= 0 {
		width = 80
	}
	var sb strings.Builder
	for _, s := range strings.Split(briefing, "\n") {
		l := parseLine(s)
		switch l.kind {
		case lineBlank:
			sb.WriteString("\n")
			continue
		case lineHeading:
			sb.WriteString(headingStyle.Render(wordwrap.String(l.text, width)))
		case lineTableRule:
			sb.WriteString(ruleStyle.Render(strings.Repeat("─", min(width, 40))))
		case lineTableRow:
			sb.WriteString(tableStyle.Render(wordwrap.String(l.text, width)))
		case lineBullet:
			sb.WriteString(bulletStyle.Render(wordwrap.String("• "+l.text, width)))
		default:
			if strings.ContainsAny(l.text, "★☆") {
				sb.WriteString(ratingStyle.Render(l.text))
				break
			}
			sb.WriteString(wordwrap.String(l.text, width))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
