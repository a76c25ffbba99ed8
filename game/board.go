// File: game/board.go
package game

import (
	"fmt"

	"gridwalk/protocol"
)

// CellKind is the kind of one board cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellWall
)

// Point is one board coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Board is the immutable playfield: a row-major grid of cell kinds plus an
// ordered spawn list. Safe to share across goroutines after construction.
type Board struct {
	width  int
	height int
	cells  []CellKind
	spawns []Point
	grid   [][]int // wire encoding, built once
}

// NewBoard validates a row-major grid and builds a board. Spawn coordinates
// that are out of bounds or not on empty cells are discarded; the list is
// capped at maxSpawns entries in row-major order (0 means no cap).
func NewBoard(rows [][]CellKind, spawns []Point, maxSpawns int) (*Board, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("board must have at least one row and one column")
	}
	height := len(rows)
	width := len(rows[0])

	b := &Board{
		width:  width,
		height: height,
		cells:  make([]CellKind, width*height),
		grid:   make([][]int, height),
	}
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("board row %d has %d cells, want %d", y, len(row), width)
		}
		b.grid[y] = make([]int, width)
		for x, kind := range row {
			if kind != CellEmpty && kind != CellWall {
				return nil, fmt.Errorf("board cell (%d,%d) has unknown kind %d", x, y, kind)
			}
			b.cells[y*width+x] = kind
			if kind == CellWall {
				b.grid[y][x] = protocol.GridWall
			}
		}
	}

	for _, s := range sortRowMajor(spawns) {
		if maxSpawns > 0 && len(b.spawns) >= maxSpawns {
			break
		}
		if kind, ok := b.GetCell(s.X, s.Y); ok && kind == CellEmpty {
			b.spawns = append(b.spawns, s)
		}
	}

	return b, nil
}

func sortRowMajor(points []Point) []Point {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			a, b := sorted[j-1], sorted[j]
			if b.Y < a.Y || (b.Y == a.Y && b.X < a.X) {
				sorted[j-1], sorted[j] = b, a
			} else {
				break
			}
		}
	}
	return sorted
}

func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

// GetCell returns the kind at (x, y), or false when out of bounds.
func (b *Board) GetCell(x, y int) (CellKind, bool) {
	if !b.InBounds(x, y) {
		return CellEmpty, false
	}
	return b.cells[y*b.width+x], true
}

// IsWall reports whether (x, y) is an in-bounds wall cell.
func (b *Board) IsWall(x, y int) bool {
	kind, ok := b.GetCell(x, y)
	return ok && kind == CellWall
}

// InBounds reports whether (x, y) lies on the board.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// Spawns returns the ordered spawn list.
func (b *Board) Spawns() []Point {
	out := make([]Point, len(b.spawns))
	copy(out, b.spawns)
	return out
}

// Center returns the board center cell.
func (b *Board) Center() Point {
	return Point{X: b.width / 2, Y: b.height / 2}
}

// State returns the wire encoding of the board. The grid slice is shared;
// consumers must not mutate it.
func (b *Board) State() protocol.BoardState {
	return protocol.BoardState{Width: b.width, Height: b.height, Grid: b.grid}
}
