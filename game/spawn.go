// File: game/spawn.go
package game

import "gridwalk/utils"

// Allocator selects spawn positions for joining players. A spawn is available
// when no live player occupies any cell within the Manhattan clear radius and
// the spawn cell itself is empty. Walls inside the radius do not disqualify a
// spawn; only players do.
type Allocator struct {
	board       *Board
	clearRadius int
}

func NewAllocator(board *Board, clearRadius int) *Allocator {
	return &Allocator{board: board, clearRadius: clearRadius}
}

// Next returns the first available spawn in list order, or false when every
// spawn is blocked. Boards without spawn points fall back to a deterministic
// spiral outward from the center.
func (a *Allocator) Next(occupied map[Point]struct{}) (Point, bool) {
	spawns := a.board.spawns
	if len(spawns) == 0 {
		return a.fallback(occupied)
	}
	for _, s := range spawns {
		if a.available(s, occupied) {
			return s, true
		}
	}
	return Point{}, false
}

// Available reports whether one specific spawn passes the clear-radius rule.
func (a *Allocator) Available(s Point, occupied map[Point]struct{}) bool {
	return a.available(s, occupied)
}

func (a *Allocator) available(s Point, occupied map[Point]struct{}) bool {
	kind, ok := a.board.GetCell(s.X, s.Y)
	if !ok || kind != CellEmpty {
		return false
	}
	for p := range occupied {
		if utils.Manhattan(s.X, s.Y, p.X, p.Y) <= a.clearRadius {
			return false
		}
	}
	return true
}

// fallback enumerates cells ring by ring from the board center, ordered by
// Manhattan distance, then row, then column.
func (a *Allocator) fallback(occupied map[Point]struct{}) (Point, bool) {
	center := a.board.Center()
	maxRing := a.board.width + a.board.height
	for d := 0; d <= maxRing; d++ {
		for dy := -d; dy <= d; dy++ {
			dx := d - utils.Abs(dy)
			candidates := []Point{{X: center.X - dx, Y: center.Y + dy}}
			if dx != 0 {
				candidates = append(candidates, Point{X: center.X + dx, Y: center.Y + dy})
			}
			for _, c := range candidates {
				if a.available(c, occupied) {
					return c, true
				}
			}
		}
	}
	return Point{}, false
}
