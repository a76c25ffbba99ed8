package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridwalk/protocol"
)

func snapshotWith(players ...protocol.PlayerState) protocol.GameState {
	return protocol.GameState{
		Board: protocol.BoardState{Width: 5, Height: 4, Grid: [][]int{
			{0, 0, 0, 0, 0},
			{0, 0, 1, 0, 0},
			{0, 0, 0, 0, 0},
			{0, 0, 0, 0, 0},
		}},
		Players: players,
	}
}

func TestPredictorIntent(t *testing.T) {
	p := NewPredictor(true)
	p.Prime(snapshotWith(protocol.PlayerState{PlayerID: "p1", X: 1, Y: 1}), "p1")
	require.True(t, p.Primed())

	fromX, fromY, toX, toY, ok := p.Intent(0, 1)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 1, 1, 2}, []int{fromX, fromY, toX, toY})

	x, y := p.Position()
	assert.Equal(t, 1, x)
	assert.Equal(t, 2, y)
}

func TestPredictorRefusesWallsAndBounds(t *testing.T) {
	p := NewPredictor(true)
	p.Prime(snapshotWith(protocol.PlayerState{PlayerID: "p1", X: 1, Y: 1}), "p1")

	// wall at (2,1)
	_, _, _, _, ok := p.Intent(1, 0)
	assert.False(t, ok)

	// off the board
	p.Prime(snapshotWith(protocol.PlayerState{PlayerID: "p1", X: 0, Y: 0}), "p1")
	_, _, _, _, ok = p.Intent(-1, 0)
	assert.False(t, ok)

	x, y := p.Position()
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
}

// Prediction is optimistic about other players; the server arbitrates.
func TestPredictorIgnoresOtherPlayers(t *testing.T) {
	p := NewPredictor(true)
	p.Prime(snapshotWith(
		protocol.PlayerState{PlayerID: "p1", X: 1, Y: 1},
		protocol.PlayerState{PlayerID: "p2", X: 1, Y: 2},
	), "p1")

	_, _, _, _, ok := p.Intent(0, 1)
	assert.True(t, ok)
}

func TestPredictorReconcile(t *testing.T) {
	p := NewPredictor(true)
	p.Prime(snapshotWith(protocol.PlayerState{PlayerID: "p1", X: 1, Y: 1}), "p1")

	_, _, _, _, ok := p.Intent(0, 1) // predicted (1,2)
	require.True(t, ok)

	// Server kept us at (1,1): reconciliation snaps back.
	d, diverged := p.Reconcile(snapshotWith(protocol.PlayerState{PlayerID: "p1", X: 1, Y: 1}))
	assert.True(t, diverged)
	assert.Equal(t, Divergence{PredictedX: 1, PredictedY: 2, ServerX: 1, ServerY: 1}, d)

	x, y := p.Position()
	assert.Equal(t, []int{1, 1}, []int{x, y})

	// Converged: the next reconciliation is a no-op.
	_, diverged = p.Reconcile(snapshotWith(protocol.PlayerState{PlayerID: "p1", X: 1, Y: 1}))
	assert.False(t, diverged)
}

func TestPredictorDisabled(t *testing.T) {
	p := NewPredictor(false)
	p.Prime(snapshotWith(protocol.PlayerState{PlayerID: "p1", X: 1, Y: 1}), "p1")

	assert.False(t, p.Primed())
	_, _, _, _, ok := p.Intent(0, 1)
	assert.False(t, ok)
	_, diverged := p.Reconcile(snapshotWith(protocol.PlayerState{PlayerID: "p1", X: 0, Y: 0}))
	assert.False(t, diverged)
}
