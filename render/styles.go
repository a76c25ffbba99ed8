// File: render/styles.go
package render

import "github.com/charmbracelet/lipgloss"

var (
	playerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	wallStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	pickupStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	decorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("30"))

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("140"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// styleFor maps a glyph to its style. Unknown glyphs are board decor.
func styleFor(glyph string) lipgloss.Style {
	switch glyph {
	case GlyphPlayer:
		return playerStyle
	case GlyphWall:
		return wallStyle
	case GlyphEmpty:
		return emptyStyle
	case "$":
		return pickupStyle
	default:
		return decorStyle
	}
}
