// File: test/e2e_spawn_queue_test.go
package test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridwalk/utils"
)

func corridorConfig() utils.Config {
	cfg := utils.DefaultConfig()
	// one occupant anywhere blocks every cell of the corridor
	cfg.SpawnPoints.ClearRadius = 10
	cfg.DisconnectGraceTicks = 1
	return cfg
}

func TestSaturatedBoardQueuesJoinersFIFO(t *testing.T) {
	env := newEnv(t, corridorConfig(), corridor)

	wsA := env.dial(t)
	greet(t, wsA)
	sendJoin(t, wsA, "alice", "")
	respA := awaitJoin(t, wsA)
	require.NotEmpty(t, respA.PlayerID)

	wsB := env.dial(t)
	greet(t, wsB)
	sendJoin(t, wsB, "bob", "")
	respB := awaitJoin(t, wsB)
	assert.True(t, respB.Waiting)
	assert.Empty(t, respB.PlayerID)
	assert.Equal(t, env.Cfg.SpawnPoints.WaitMessage, respB.Message)

	wsC := env.dial(t)
	greet(t, wsC)
	sendJoin(t, wsC, "carol", "")
	respC := awaitJoin(t, wsC)
	assert.True(t, respC.Waiting)

	// A leaves; after grace the freed cell goes to B, the head of the queue
	require.NoError(t, wsA.Close())
	env.awaitUnbound(t, respA.PlayerID)
	env.Server.TickOnce()

	admitted := awaitJoin(t, wsB)
	require.NotEmpty(t, admitted.PlayerID)
	x, y := playerAt(t, *admitted.GameState, admitted.PlayerID)
	assert.Equal(t, 1, x, "the admitted waiter takes the freed spawn")
	assert.Equal(t, 1, y)

	// C is still queued and hears nothing
	_, err := readFrame(t, wsC, 300*time.Millisecond)
	assert.Error(t, err, "queued waiters receive no frames")

	// B leaves in turn; C gets the spawn
	require.NoError(t, wsB.Close())
	env.awaitUnbound(t, admitted.PlayerID)
	env.Server.TickOnce()

	admittedC := awaitJoin(t, wsC)
	require.NotEmpty(t, admittedC.PlayerID)
	x, y = playerAt(t, *admittedC.GameState, admittedC.PlayerID)
	assert.Equal(t, 1, x)
	assert.Equal(t, 1, y)
}

func TestWaiterDisconnectLeavesQueue(t *testing.T) {
	env := newEnv(t, corridorConfig(), corridor)

	wsA := env.dial(t)
	greet(t, wsA)
	sendJoin(t, wsA, "alice", "")
	respA := awaitJoin(t, wsA)

	wsB := env.dial(t)
	greet(t, wsB)
	sendJoin(t, wsB, "bob", "")
	require.True(t, awaitJoin(t, wsB).Waiting)

	// the waiter gives up before a spawn frees
	require.NoError(t, wsB.Close())
	time.Sleep(100 * time.Millisecond) // let the server drop the waiter

	require.NoError(t, wsA.Close())
	env.awaitUnbound(t, respA.PlayerID)

	assert.Eventually(t, func() bool {
		env.Server.TickOnce()
		return len(env.Game.Snapshot().Players) == 0
	}, 2*time.Second, 50*time.Millisecond, "no ghost admission for a vanished waiter")
}
