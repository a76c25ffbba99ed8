// File: client/predict.go
package client

import "gridwalk/protocol"

// Predictor tracks the local player's predicted position, applied on input
// before the server confirms. It mirrors the server's bounds and wall rules
// against the cached board, but predicts optimistically through other
// players: the server rejects those and reconciliation corrects them.
type Predictor struct {
	enabled  bool
	board    protocol.BoardState
	playerID string
	x, y     int
	primed   bool
}

func NewPredictor(enabled bool) *Predictor {
	return &Predictor{enabled: enabled}
}

// Prime (re)sets prediction from an authoritative snapshot. Unknown local
// players leave the predictor unprimed.
func (p *Predictor) Prime(state protocol.GameState, playerID string) {
	p.board = state.Board
	p.playerID = playerID
	p.primed = false
	if me, ok := state.PlayerByID(playerID); ok {
		p.x, p.y = me.X, me.Y
		p.primed = true
	}
}

// Primed reports whether a local position is being tracked.
func (p *Predictor) Primed() bool { return p.primed && p.enabled }

// Position returns the predicted coordinates.
func (p *Predictor) Position() (int, int) { return p.x, p.y }

// Intent applies one local move if it stays on the board and off walls.
// It returns the previous and new coordinates.
func (p *Predictor) Intent(dx, dy int) (fromX, fromY, toX, toY int, ok bool) {
	if !p.Primed() {
		return 0, 0, 0, 0, false
	}
	fromX, fromY = p.x, p.y
	toX, toY = p.x+dx, p.y+dy
	if !p.board.InBounds(toX, toY) || p.board.IsWall(toX, toY) {
		return fromX, fromY, toX, toY, false
	}
	p.x, p.y = toX, toY
	return fromX, fromY, toX, toY, true
}

// Divergence is the gap between a predicted and a server-observed position.
type Divergence struct {
	PredictedX, PredictedY int
	ServerX, ServerY       int
}

// Reconcile snaps the prediction to the local player's position in the
// snapshot. It reports the divergence when the two disagreed.
func (p *Predictor) Reconcile(state protocol.GameState) (Divergence, bool) {
	if !p.Primed() {
		return Divergence{}, false
	}
	me, ok := state.PlayerByID(p.playerID)
	if !ok {
		return Divergence{}, false
	}
	if me.X == p.x && me.Y == p.y {
		return Divergence{}, false
	}
	d := Divergence{PredictedX: p.x, PredictedY: p.y, ServerX: me.X, ServerY: me.Y}
	p.x, p.y = me.X, me.Y
	return d, true
}
