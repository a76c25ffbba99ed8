// File: server/handlers_test.go
package server

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"gridwalk/protocol"
)

// The §-free wording of the table: PING answered and DISCONNECT honored in
// every state, gameplay requires joined, CONNECT once.
func TestRouteDecisionTable(t *testing.T) {
	cases := []struct {
		state    connState
		msgType  protocol.Type
		expected routeAction
	}{
		{stateAwaitingJoin, protocol.TypeConnect, actProcess},
		{stateAwaitingJoin, protocol.TypeMove, actErrNotJoined},
		{stateAwaitingJoin, protocol.TypeRestart, actErrNotJoined},
		{stateAwaitingJoin, protocol.TypeSetPlayerName, actErrNotJoined},
		{stateAwaitingJoin, protocol.TypeDisconnect, actClose},
		{stateAwaitingJoin, protocol.TypePing, actPong},
		{stateAwaitingJoin, protocol.TypeStateUpdate, actErrUnexpected},

		{stateWaiting, protocol.TypeConnect, actIgnore},
		{stateWaiting, protocol.TypeMove, actErrNotJoined},
		{stateWaiting, protocol.TypeRestart, actErrNotJoined},
		{stateWaiting, protocol.TypeDisconnect, actClose},
		{stateWaiting, protocol.TypePing, actPong},
		{stateWaiting, protocol.TypeError, actErrUnexpected},

		{stateJoined, protocol.TypeConnect, actErrAlreadyJoined},
		{stateJoined, protocol.TypeMove, actProcess},
		{stateJoined, protocol.TypeRestart, actProcess},
		{stateJoined, protocol.TypeSetPlayerName, actProcess},
		{stateJoined, protocol.TypeDisconnect, actClose},
		{stateJoined, protocol.TypePing, actPong},
		{stateJoined, protocol.TypeMoveFailed, actErrUnexpected},

		{stateClosed, protocol.TypeMove, actIgnore},
		{stateClosed, protocol.TypeConnect, actIgnore},
	}

	for _, c := range cases {
		t.Run(c.state.String()+"/"+string(c.msgType), func(t *testing.T) {
			assert.Equal(t, c.expected, routeDecision(c.state, c.msgType))
		})
	}
}

func TestConnStateTransitions(t *testing.T) {
	c := newConn("c-test", nil, 4, slog.Default())
	assert.Equal(t, stateAwaitingJoin, c.State())

	c.setState(stateWaiting)
	assert.Equal(t, stateWaiting, c.State())
	c.setState(stateJoined)
	assert.Equal(t, stateJoined, c.State())

	c.close()
	assert.Equal(t, stateClosed, c.State())

	// Closed is terminal.
	c.setState(stateJoined)
	assert.Equal(t, stateClosed, c.State())
}

func TestConnBackpressure(t *testing.T) {
	c := newConn("c-test", nil, 2, slog.Default())
	ping := protocol.MustMessage(protocol.TypePing, struct{}{})
	update := protocol.MustMessage(protocol.TypeStateUpdate, protocol.StateUpdatePayload{Tick: 1})

	// State updates overflow silently.
	c.sendState(update)
	c.sendState(update)
	c.sendState(update)
	assert.Equal(t, int64(1), c.droppedUpdates.Load())
	assert.Equal(t, 2, len(c.send))

	// An event that cannot be queued closes the slow consumer.
	ok := c.sendEvent(ping)
	assert.False(t, ok)
	assert.Equal(t, stateClosed, c.State())

	// After close, both paths are no-ops.
	assert.False(t, c.sendEvent(ping))
	c.sendState(update)
	assert.Equal(t, 2, len(c.send))
}
