// File: game/entity.go
package game

import "gridwalk/protocol"

// Entity is a passive board object. Entities exist only if the map loader
// produced them; they never block movement unless flagged solid.
type Entity struct {
	ID     string
	X      int
	Y      int
	Type   string
	Frames []rune // glyphs cycled by the broadcast tick; len 1 means static
	Frame  int
	Color  string
	Solid  bool
}

func (e *Entity) Pos() Point {
	return Point{X: e.X, Y: e.Y}
}

// Glyph returns the glyph for the current animation frame.
func (e *Entity) Glyph() rune {
	if len(e.Frames) == 0 {
		return '?'
	}
	return e.Frames[e.Frame%len(e.Frames)]
}

// Advance steps the animation one frame. Static entities are unaffected.
func (e *Entity) Advance() {
	if len(e.Frames) > 1 {
		e.Frame = (e.Frame + 1) % len(e.Frames)
	}
}

func (e *Entity) State() protocol.EntityState {
	return protocol.EntityState{
		EntityID:       e.ID,
		X:              e.X,
		Y:              e.Y,
		EntityType:     e.Type,
		Glyph:          string(e.Glyph()),
		Color:          e.Color,
		AnimationFrame: e.Frame,
		Solid:          e.Solid,
	}
}
