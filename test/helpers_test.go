// File: test/helpers_test.go
package test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"gridwalk/protocol"
)

const frameReadTimeout = 2 * time.Second

// readFrame reads and parses one frame with a deadline.
func readFrame(t *testing.T, ws *websocket.Conn, timeout time.Duration) (*protocol.Message, error) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(timeout)))
	defer ws.SetReadDeadline(time.Time{})

	var raw json.RawMessage
	if err := websocket.JSON.Receive(ws, &raw); err != nil {
		return nil, err
	}
	msg, cerr := protocol.Parse(raw)
	if cerr != nil {
		t.Fatalf("server sent an unparseable frame: %v", cerr)
	}
	return msg, nil
}

// waitForType reads frames until one of the wanted type arrives, skipping
// everything else.
func waitForType(t *testing.T, ws *websocket.Conn, want protocol.Type, timeout time.Duration) *protocol.Message {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		require.Positive(t, remaining, "timed out waiting for a %s frame", want)
		msg, err := readFrame(t, ws, remaining)
		require.NoError(t, err, "read while waiting for %s", want)
		if msg.Type == want {
			return msg
		}
	}
}

// greet reads the initial CONNECT greeting and returns the client id.
func greet(t *testing.T, ws *websocket.Conn) string {
	t.Helper()
	msg := waitForType(t, ws, protocol.TypeConnect, frameReadTimeout)
	resp, err := protocol.DecodeConnectResponse(msg)
	require.NoError(t, err)
	require.NotEmpty(t, resp.ClientID, "greeting must carry a client id")
	require.Empty(t, resp.PlayerID, "greeting must not carry a player")
	return resp.ClientID
}

// sendJoin sends a CONNECT join request, optionally reusing a player id.
func sendJoin(t *testing.T, ws *websocket.Conn, name, playerID string) {
	t.Helper()
	send(t, ws, protocol.MustMessage(protocol.TypeConnect, protocol.ConnectRequest{
		PlayerName: name,
		PlayerID:   playerID,
	}))
}

// awaitJoin reads frames until the join outcome arrives: either a placement
// with a player id or a wait notice.
func awaitJoin(t *testing.T, ws *websocket.Conn) protocol.ConnectResponse {
	t.Helper()
	deadline := time.Now().Add(frameReadTimeout)
	for {
		msg := waitForType(t, ws, protocol.TypeConnect, time.Until(deadline))
		resp, err := protocol.DecodeConnectResponse(msg)
		require.NoError(t, err)
		if resp.PlayerID != "" || resp.Waiting {
			return resp
		}
	}
}

func send(t *testing.T, ws *websocket.Conn, msg *protocol.Message) {
	t.Helper()
	data, err := protocol.Encode(msg)
	require.NoError(t, err)
	_, err = ws.Write(data)
	require.NoError(t, err)
}

func sendMove(t *testing.T, ws *websocket.Conn, dx, dy int) {
	t.Helper()
	send(t, ws, protocol.MustMessage(protocol.TypeMove, protocol.MovePayload{DX: dx, DY: dy}))
}

// syncConn waits until the server has applied every frame previously sent
// on this connection: PING is answered in order, so the PONG arriving means
// the read loop has processed everything written before it.
func syncConn(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	send(t, ws, protocol.MustMessage(protocol.TypePing, struct{}{}))
	waitForType(t, ws, protocol.TypePong, frameReadTimeout)
}

// tickAndRead advances the server one tick and returns the snapshot this
// connection receives. A PING/PONG barrier first ensures frames the test
// just sent are applied before the tick snapshots the game.
func tickAndRead(t *testing.T, env *testEnv, ws *websocket.Conn) protocol.StateUpdatePayload {
	t.Helper()
	syncConn(t, ws)
	env.Server.TickOnce()
	msg := waitForType(t, ws, protocol.TypeStateUpdate, frameReadTimeout)
	p, err := protocol.DecodeStateUpdate(msg)
	require.NoError(t, err)
	return p
}

func playerAt(t *testing.T, state protocol.GameState, playerID string) (int, int) {
	t.Helper()
	p, ok := state.PlayerByID(playerID)
	require.True(t, ok, "player %s missing from snapshot", playerID)
	return p.X, p.Y
}
