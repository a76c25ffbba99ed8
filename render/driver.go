// File: render/driver.go
package render

import "gridwalk/protocol"

// DefaultFallbackThreshold is the diff-primitive count above which the
// driver abandons incremental updates for a full redraw.
const DefaultFallbackThreshold = 10

// Terminal is the sink for paint operations. Implementations are not
// reentrant; the driver is the only caller.
type Terminal interface {
	RenderFull(state *protocol.GameState, status []string) error
	SetCell(x, y int, glyph string) error
	SetStatus(status []string) error
}

// Driver consumes successive snapshots and paints the difference. The first
// snapshot paints in full; later ones repaint only the cells the diff
// touches, unless the diff is large or a paint step fails, in which case it
// falls back to a full redraw. A failed fallback clears the remembered
// snapshot so the next update starts fresh.
type Driver struct {
	term            Terminal
	threshold       int
	statusThreshold int

	prev *protocol.GameState

	localID    string
	localX     int
	localY     int
	localKnown bool
}

func NewDriver(term Terminal, fallbackThreshold, statusThreshold int) *Driver {
	if fallbackThreshold <= 0 {
		fallbackThreshold = DefaultFallbackThreshold
	}
	return &Driver{term: term, threshold: fallbackThreshold, statusThreshold: statusThreshold}
}

// SetLocalPlayer names the locally predicted player. Its snapshot moves are
// not painted incrementally; prediction and reconciliation own those cells.
func (d *Driver) SetLocalPlayer(playerID string) {
	d.localID = playerID
}

// Reset forgets the remembered snapshot; the next Apply paints in full.
func (d *Driver) Reset() {
	d.prev = nil
	d.localKnown = false
}

// Apply paints one snapshot.
func (d *Driver) Apply(state *protocol.GameState) error {
	if d.prev == nil {
		return d.renderFull(state)
	}

	plan := Diff(d.prev, state)
	if plan.Primitives() > d.threshold {
		return d.renderFull(state)
	}

	if err := d.applyPlan(plan, state); err != nil {
		if ferr := d.renderFull(state); ferr != nil {
			return ferr
		}
		return nil
	}
	d.prev = state
	return nil
}

func (d *Driver) renderFull(state *protocol.GameState) error {
	if err := d.term.RenderFull(state, d.status(state)); err != nil {
		d.prev = nil
		return err
	}
	d.prev = state
	return nil
}

func (d *Driver) applyPlan(plan Plan, state *protocol.GameState) error {
	statusDirty := plan.ScoreChanged

	for _, c := range plan.dirtyCells() {
		if d.skipLocalCell(plan, c) {
			continue
		}
		if err := d.term.SetCell(c.x, c.y, GlyphAt(state, c.x, c.y)); err != nil {
			return err
		}
	}

	if me, ok := state.PlayerByID(d.localID); ok {
		if !d.localKnown || me.X != d.localX || me.Y != d.localY {
			d.localX, d.localY, d.localKnown = me.X, me.Y, true
			statusDirty = true
		}
	}
	if statusDirty {
		if err := d.term.SetStatus(d.status(state)); err != nil {
			return err
		}
	}
	return nil
}

// skipLocalCell filters cells that belong to the local player's own move:
// the predictor painted those already and the snapshot may lag behind it.
func (d *Driver) skipLocalCell(plan Plan, c cell) bool {
	if d.localID == "" {
		return false
	}
	for _, m := range plan.PlayersMoved {
		if m.Player.PlayerID != d.localID {
			continue
		}
		if (c.x == m.FromX && c.y == m.FromY) || (c.x == m.Player.X && c.y == m.Player.Y) {
			return true
		}
	}
	return false
}

// PaintLocal repaints the local player's predicted move: the vacated cell
// shows what the last snapshot has there, the target shows the player.
func (d *Driver) PaintLocal(fromX, fromY, toX, toY int) error {
	d.localX, d.localY, d.localKnown = toX, toY, true
	if d.prev == nil {
		return nil
	}
	base := *d.prev
	if err := d.term.SetCell(fromX, fromY, glyphAtExcluding(&base, fromX, fromY, d.localID)); err != nil {
		return err
	}
	if err := d.term.SetCell(toX, toY, GlyphPlayer); err != nil {
		return err
	}
	return d.term.SetStatus(d.statusAt(&base, toX, toY))
}

func (d *Driver) status(state *protocol.GameState) []string {
	x, y := d.localX, d.localY
	known := d.localKnown
	if me, ok := state.PlayerByID(d.localID); ok && !known {
		x, y, known = me.X, me.Y, true
	}
	return BuildStatus(state, x, y, known, d.statusThreshold)
}

func (d *Driver) statusAt(state *protocol.GameState, x, y int) []string {
	return BuildStatus(state, x, y, true, d.statusThreshold)
}

// glyphAtExcluding is GlyphAt with one player id ignored, used when clearing
// the cell that player is predicted to have left.
func glyphAtExcluding(state *protocol.GameState, x, y int, exclude string) string {
	for _, p := range state.Players {
		if p.PlayerID != exclude && p.X == x && p.Y == y {
			return GlyphPlayer
		}
	}
	for _, e := range state.Entities {
		if e.X == x && e.Y == y && e.Glyph != "" {
			return e.Glyph
		}
	}
	if state.Board.IsWall(x, y) {
		return GlyphWall
	}
	return GlyphEmpty
}
