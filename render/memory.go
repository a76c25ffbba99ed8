// File: render/memory.go
package render

import (
	"fmt"

	"gridwalk/protocol"
)

// MemoryTerminal keeps the painted screen in a buffer. Tests use it to check
// that incremental painting and a full redraw land on the same picture.
type MemoryTerminal struct {
	Width  int
	Height int
	Cells  [][]string
	Status []string

	FullRenders int
	CellWrites  int

	FailSetCell bool
	FailFull    bool
}

func NewMemoryTerminal() *MemoryTerminal {
	return &MemoryTerminal{}
}

func (t *MemoryTerminal) RenderFull(state *protocol.GameState, status []string) error {
	if t.FailFull {
		return fmt.Errorf("render full failed")
	}
	t.FullRenders++
	t.Width, t.Height = state.Board.Width, state.Board.Height
	t.Cells = make([][]string, t.Height)
	for y := 0; y < t.Height; y++ {
		t.Cells[y] = make([]string, t.Width)
		for x := 0; x < t.Width; x++ {
			t.Cells[y][x] = GlyphAt(state, x, y)
		}
	}
	t.Status = status
	return nil
}

func (t *MemoryTerminal) SetCell(x, y int, glyph string) error {
	if t.FailSetCell {
		return fmt.Errorf("set cell failed")
	}
	if y < 0 || y >= t.Height || x < 0 || x >= t.Width {
		return fmt.Errorf("cell (%d,%d) outside %dx%d screen", x, y, t.Width, t.Height)
	}
	t.CellWrites++
	t.Cells[y][x] = glyph
	return nil
}

func (t *MemoryTerminal) SetStatus(status []string) error {
	t.Status = status
	return nil
}

// Screen flattens the buffer for comparisons.
func (t *MemoryTerminal) Screen() []string {
	rows := make([]string, t.Height)
	for y, row := range t.Cells {
		line := ""
		for _, g := range row {
			line += g
		}
		rows[y] = line
	}
	return rows
}
