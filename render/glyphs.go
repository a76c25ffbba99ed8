// File: render/glyphs.go
package render

import (
	"fmt"

	"gridwalk/protocol"
)

const (
	GlyphPlayer = "@"
	GlyphWall   = "#"
	GlyphEmpty  = "."
)

// GlyphAt resolves what one cell shows: a player wins over an entity, an
// entity over the board. RenderFull and the incremental painter both use it,
// which is what keeps the two paths equivalent.
func GlyphAt(state *protocol.GameState, x, y int) string {
	for _, p := range state.Players {
		if p.X == x && p.Y == y {
			return GlyphPlayer
		}
	}
	for _, e := range state.Entities {
		if e.X == x && e.Y == y {
			if e.Glyph != "" {
				return e.Glyph
			}
			break
		}
	}
	if state.Board.IsWall(x, y) {
		return GlyphWall
	}
	return GlyphEmpty
}

// BuildStatus renders the status banner. Boards narrower than the threshold
// get the two-line layout.
func BuildStatus(state *protocol.GameState, localX, localY int, hasLocal bool, threshold int) []string {
	pos := "-"
	if hasLocal {
		pos = fmt.Sprintf("(%d,%d)", localX, localY)
	}
	score := fmt.Sprintf("Score: %d", state.Score)
	position := "Pos: " + pos
	help := "wasd: move  r: restart  q: quit"

	if state.Board.Width < threshold {
		return []string{score + "  " + position, help}
	}
	return []string{score + "  " + position + "  " + help}
}
