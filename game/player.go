// File: game/player.go
package game

import "gridwalk/protocol"

// Player is one live player record. The game core is the only mutator.
type Player struct {
	ID   string
	X    int
	Y    int
	Name string
}

func (p *Player) Pos() Point {
	return Point{X: p.X, Y: p.Y}
}

func (p *Player) State() protocol.PlayerState {
	return protocol.PlayerState{PlayerID: p.ID, X: p.X, Y: p.Y, PlayerName: p.Name}
}
