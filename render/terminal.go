// File: render/terminal.go
package render

import (
	"fmt"
	"io"
	"strings"

	"gridwalk/protocol"
)

// ANSITerminal paints onto a raw-mode terminal with cursor addressing. The
// board occupies rows 1..height; status lines follow below it.
type ANSITerminal struct {
	out        io.Writer
	boardH     int
	statusRows int
}

func NewANSITerminal(out io.Writer) *ANSITerminal {
	return &ANSITerminal{out: out}
}

func (t *ANSITerminal) RenderFull(state *protocol.GameState, status []string) error {
	var b strings.Builder
	b.WriteString("\x1b[2J\x1b[H")
	for y := 0; y < state.Board.Height; y++ {
		for x := 0; x < state.Board.Width; x++ {
			g := GlyphAt(state, x, y)
			b.WriteString(styleFor(g).Render(g))
		}
		b.WriteString("\r\n")
	}
	t.boardH = state.Board.Height
	t.statusRows = 0
	_, err := io.WriteString(t.out, b.String())
	if err != nil {
		return err
	}
	return t.SetStatus(status)
}

func (t *ANSITerminal) SetCell(x, y int, glyph string) error {
	// cursor addressing is 1-based, row first
	_, err := fmt.Fprintf(t.out, "\x1b[%d;%dH%s", y+1, x+1, styleFor(glyph).Render(glyph))
	return err
}

func (t *ANSITerminal) SetStatus(status []string) error {
	var b strings.Builder
	for i, line := range status {
		fmt.Fprintf(&b, "\x1b[%d;1H\x1b[2K%s", t.boardH+1+i, statusStyle.Render(line))
	}
	// blank out stale rows from a previous, taller status
	for i := len(status); i < t.statusRows; i++ {
		fmt.Fprintf(&b, "\x1b[%d;1H\x1b[2K", t.boardH+1+i)
	}
	t.statusRows = len(status)
	// park the cursor past the status so stray output cannot corrupt the board
	fmt.Fprintf(&b, "\x1b[%d;1H", t.boardH+1+len(status))
	_, err := io.WriteString(t.out, b.String())
	return err
}

// Notice paints a transient message on the line under the status, used for
// reconnect progress and wait notices.
func (t *ANSITerminal) Notice(text string) error {
	row := t.boardH + 1 + t.statusRows
	if t.boardH == 0 {
		row = 1
	}
	_, err := fmt.Fprintf(t.out, "\x1b[%d;1H\x1b[2K%s", row, noticeStyle.Render(text))
	return err
}

// Fatal paints an error message in place of the notice line.
func (t *ANSITerminal) Fatal(text string) error {
	row := t.boardH + 1 + t.statusRows
	if t.boardH == 0 {
		row = 1
	}
	_, err := fmt.Fprintf(t.out, "\x1b[%d;1H\x1b[2K%s\r\n", row, errorStyle.Render(text))
	return err
}
