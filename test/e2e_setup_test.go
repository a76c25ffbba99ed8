// File: test/e2e_setup_test.go
package test

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"gridwalk/game"
	"gridwalk/server"
	"gridwalk/utils"
)

// openArena has four spawns far enough apart that several players place
// under a small clear radius.
const openArena = `##########
#*..*...*#
#........#
#...*....#
##########`

// corridor has a single spawn in a sliver of a board. With a large clear
// radius one player saturates it completely.
const corridor = `#####
#*..#
#####`

type testEnv struct {
	Cfg    utils.Config
	Game   *game.Game
	Server *server.Server
	HTTP   *httptest.Server
	WsURL  string
	Origin string
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newEnv builds a server around the given map text and serves it over a
// test websocket endpoint. The broadcast ticker is not started; tests drive
// ticks explicitly for determinism.
func newEnv(t *testing.T, cfg utils.Config, mapText string) *testEnv {
	t.Helper()

	board, entities, err := game.ParseBoard(strings.NewReader(mapText), cfg)
	require.NoError(t, err)

	g := game.New(board, entities, cfg, testLogger())
	srv := server.New(g, cfg, testLogger())

	h := httptest.NewServer(websocket.Handler(srv.HandleSubscribe()))
	t.Cleanup(h.Close)

	return &testEnv{
		Cfg:    cfg,
		Game:   g,
		Server: srv,
		HTTP:   h,
		WsURL:  "ws" + strings.TrimPrefix(h.URL, "http"),
		Origin: "http://localhost/",
	}
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	ws, err := websocket.Dial(e.WsURL, "", e.Origin)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

// awaitUnbound waits until the server has processed a connection close for
// the given player, which happens asynchronously after the socket drops.
func (e *testEnv) awaitUnbound(t *testing.T, playerID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, bound := e.Game.ClientFor(playerID); !bound {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("player %s still bound after close", playerID)
}
