// File: game/mapfile.go
package game

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"gridwalk/utils"
)

// Entity types produced by the loader.
const (
	EntityPickup  = "pickup"
	EntityDecor   = "decor"
	EntityBoulder = "boulder"
)

// Map glyphs. Anything else printable becomes a static decor entity on an
// empty cell.
const (
	glyphWall    = '#'
	glyphEmpty   = '.'
	glyphSpace   = ' '
	glyphSpawn   = '*'
	glyphPickup  = '$'
	glyphWater   = '~'
	glyphBoulder = 'O'
)

// LoadBoardFile reads a text map: one rune per cell, rows top to bottom.
// Corrupt maps fail loading; startup aborts on the error.
func LoadBoardFile(path string, cfg utils.Config) (*Board, []*Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open map %s: %w", path, err)
	}
	defer f.Close()

	board, entities, err := ParseBoard(f, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("parse map %s: %w", path, err)
	}
	return board, entities, nil
}

// ParseBoard decodes map text into an immutable board, its spawn list, and
// the entity list. Rows are padded to the widest line with empty cells.
func ParseBoard(r io.Reader, cfg utils.Config) (*Board, []*Entity, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	width := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lines = append(lines, line)
		if n := len([]rune(line)); n > width {
			width = n
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 || width == 0 {
		return nil, nil, fmt.Errorf("map is empty")
	}

	rows := make([][]CellKind, len(lines))
	var spawns []Point
	var entities []*Entity
	entityNum := 0

	for y, line := range lines {
		rows[y] = make([]CellKind, width)
		for x, r := range []rune(line) {
			switch r {
			case glyphWall:
				rows[y][x] = CellWall
			case glyphEmpty, glyphSpace:
				// empty
			case glyphSpawn:
				spawns = append(spawns, Point{X: x, Y: y})
			default:
				entityNum++
				entities = append(entities, newMapEntity(entityNum, x, y, r))
			}
		}
	}

	board, err := NewBoard(rows, spawns, cfg.MaxSpawnPoints())
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entities {
		if board.IsWall(e.X, e.Y) {
			return nil, nil, fmt.Errorf("entity %s at (%d,%d) overlaps a wall", e.ID, e.X, e.Y)
		}
	}
	return board, entities, nil
}

func newMapEntity(num, x, y int, r rune) *Entity {
	e := &Entity{
		ID: fmt.Sprintf("e-%d", num),
		X:  x,
		Y:  y,
	}
	switch r {
	case glyphPickup:
		e.Type = EntityPickup
		e.Frames = []rune{'$'}
		e.Color = "yellow"
	case glyphWater:
		e.Type = EntityDecor
		e.Frames = []rune{'~', '-'}
		e.Color = "blue"
	case glyphBoulder:
		e.Type = EntityBoulder
		e.Frames = []rune{'O'}
		e.Solid = true
	default:
		e.Type = EntityDecor
		e.Frames = []rune{r}
	}
	return e
}

// DefaultBoard builds the bundled arena used when no map path is given:
// a walled rectangle with four pillars, eight spawns, and a few pickups.
func DefaultBoard(cfg utils.Config) (*Board, []*Entity) {
	const text = `########################################
#*........$...........*...............#
#..........................~~.........#
#....##..........................##...#
#....##...*..........O...........##...#
#..........................*..........#
#...........$.........................#
#*.............####..................*#
#..............####...................#
#......................$..............#
#..........*...............~~~........#
#....##..........................##...#
#....##.........*................##...#
#.............................$.......#
#*....................................#
#........~~..........................*#
#......................................#
########################################`

	board, entities, err := ParseBoard(strings.NewReader(text), cfg)
	if err != nil {
		// The bundled map is a compile-time constant; failing to parse it is
		// a programming error.
		panic(fmt.Sprintf("default board: %v", err))
	}
	return board, entities
}
