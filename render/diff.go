// Package render turns successive game snapshots into terminal paint
// operations: an incremental per-cell diff with a full-redraw fallback.
// The diff itself is pure; side effects go through the Terminal interface
// and are flushed in one place.
package render

import "gridwalk/protocol"

// PlayerMove is one player observed at a new position.
type PlayerMove struct {
	Player protocol.PlayerState
	FromX  int
	FromY  int
}

// EntityMove is one entity observed at a new position.
type EntityMove struct {
	Entity protocol.EntityState
	FromX  int
	FromY  int
}

// Plan is the diff between two snapshots, bucketed the way the painter
// consumes it.
type Plan struct {
	PlayersMoved  []PlayerMove
	PlayersJoined []protocol.PlayerState
	PlayersLeft   []protocol.PlayerState

	EntitiesMoved     []EntityMove
	EntitiesSpawned   []protocol.EntityState
	EntitiesDespawned []protocol.EntityState
	EntitiesAnimated  []protocol.EntityState

	ScoreChanged bool
}

// Primitives counts the diffed paint primitives; the driver falls back to a
// full redraw above its threshold.
func (p Plan) Primitives() int {
	return len(p.PlayersMoved) + len(p.PlayersJoined) + len(p.PlayersLeft) +
		len(p.EntitiesMoved) + len(p.EntitiesSpawned) + len(p.EntitiesDespawned) +
		len(p.EntitiesAnimated)
}

// Diff compares two snapshots of the same board. Players and entities are
// matched by id; position changes, arrivals, departures, and glyph-only
// changes land in separate buckets.
func Diff(prev, cur *protocol.GameState) Plan {
	var plan Plan

	prevPlayers := make(map[string]protocol.PlayerState, len(prev.Players))
	for _, p := range prev.Players {
		prevPlayers[p.PlayerID] = p
	}
	for _, p := range cur.Players {
		old, ok := prevPlayers[p.PlayerID]
		switch {
		case !ok:
			plan.PlayersJoined = append(plan.PlayersJoined, p)
		case old.X != p.X || old.Y != p.Y:
			plan.PlayersMoved = append(plan.PlayersMoved, PlayerMove{Player: p, FromX: old.X, FromY: old.Y})
		}
		delete(prevPlayers, p.PlayerID)
	}
	for _, p := range prev.Players {
		if _, gone := prevPlayers[p.PlayerID]; gone {
			plan.PlayersLeft = append(plan.PlayersLeft, p)
		}
	}

	prevEntities := make(map[string]protocol.EntityState, len(prev.Entities))
	for _, e := range prev.Entities {
		prevEntities[e.EntityID] = e
	}
	for _, e := range cur.Entities {
		old, ok := prevEntities[e.EntityID]
		switch {
		case !ok:
			plan.EntitiesSpawned = append(plan.EntitiesSpawned, e)
		case old.X != e.X || old.Y != e.Y:
			plan.EntitiesMoved = append(plan.EntitiesMoved, EntityMove{Entity: e, FromX: old.X, FromY: old.Y})
		case old.Glyph != e.Glyph || old.AnimationFrame != e.AnimationFrame:
			plan.EntitiesAnimated = append(plan.EntitiesAnimated, e)
		}
		delete(prevEntities, e.EntityID)
	}
	for _, e := range prev.Entities {
		if _, gone := prevEntities[e.EntityID]; gone {
			plan.EntitiesDespawned = append(plan.EntitiesDespawned, e)
		}
	}

	plan.ScoreChanged = prev.Score != cur.Score
	return plan
}

// dirtyCells lists every cell the plan touches. Each is repainted with
// whatever the current snapshot shows there, so paint order is irrelevant.
func (p Plan) dirtyCells() []cell {
	var cells []cell
	for _, m := range p.PlayersMoved {
		cells = append(cells, cell{m.FromX, m.FromY}, cell{m.Player.X, m.Player.Y})
	}
	for _, pl := range p.PlayersJoined {
		cells = append(cells, cell{pl.X, pl.Y})
	}
	for _, pl := range p.PlayersLeft {
		cells = append(cells, cell{pl.X, pl.Y})
	}
	for _, m := range p.EntitiesMoved {
		cells = append(cells, cell{m.FromX, m.FromY}, cell{m.Entity.X, m.Entity.Y})
	}
	for _, e := range p.EntitiesSpawned {
		cells = append(cells, cell{e.X, e.Y})
	}
	for _, e := range p.EntitiesDespawned {
		cells = append(cells, cell{e.X, e.Y})
	}
	for _, e := range p.EntitiesAnimated {
		cells = append(cells, cell{e.X, e.Y})
	}
	return cells
}

type cell struct{ x, y int }
