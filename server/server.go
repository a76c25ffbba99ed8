// File: server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"

	"gridwalk/game"
	"gridwalk/protocol"
	"gridwalk/utils"
)

// Server accepts websocket connections, runs the per-connection protocol
// state machine, and fans out snapshots on the broadcast tick.
type Server struct {
	cfg  utils.Config
	game *game.Game
	log  *slog.Logger

	mu    sync.RWMutex
	conns map[string]*conn

	// RestartPolicy decides whether a joined player may request a restart.
	// Nil permits everyone.
	RestartPolicy func(playerID string) bool
}

func New(g *game.Game, cfg utils.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:   cfg,
		game:  g,
		log:   log,
		conns: make(map[string]*conn),
	}
}

// HandleSubscribe returns the websocket handler for one client connection.
// The handler goroutine is the read loop; the send loop runs alongside it.
func (s *Server) HandleSubscribe() websocket.Handler {
	return func(ws *websocket.Conn) {
		c := newConn(utils.NewClientID(), ws, s.cfg.SendBufferHighWater, s.log)
		s.register(c)
		defer s.teardown(c)

		go c.sendLoop()

		// Initial greeting: a client id, no player yet.
		c.sendEvent(protocol.MustMessage(protocol.TypeConnect, protocol.ConnectResponse{ClientID: c.id}))

		s.readLoop(c)
	}
}

// readLoop receives frames until the socket closes. Malformed frames reply
// with ERROR and never transition state.
func (s *Server) readLoop(c *conn) {
	for {
		select {
		case <-c.closed:
			return
		default:
		}

		var raw json.RawMessage
		if err := websocket.JSON.Receive(c.ws, &raw); err != nil {
			c.log.Debug("read loop finished", "err", err)
			return
		}

		msg, cerr := protocol.Parse(raw)
		if cerr != nil {
			c.log.Debug("rejected frame", "kind", cerr.Kind.String())
			c.sendEvent(protocol.ErrorMessage(cerr.Kind.Code(), cerr.Error(), ""))
			continue
		}
		s.handleMessage(c, msg)
	}
}

func (s *Server) register(c *conn) {
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()
	s.log.Info("connection accepted", "clientId", c.id, "remote", c.ws.Request().RemoteAddr)
}

// teardown runs when the read loop exits: the connection leaves the table
// and its player, if any, starts disconnect grace.
func (s *Server) teardown(c *conn) {
	c.close()
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()

	if playerID, had := s.game.Disconnect(c.id); had {
		s.log.Info("connection closed, grace started", "clientId", c.id, "playerId", playerID)
	} else {
		s.log.Info("connection closed", "clientId", c.id)
	}
}

func (s *Server) connByID(id string) *conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns[id]
}

// broadcastEvent fans an event message to every joined connection except the
// one named by exceptID. Events are delivered immediately, never buffered to
// the next tick.
func (s *Server) broadcastEvent(msg *protocol.Message, exceptID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, c := range s.conns {
		if id == exceptID || c.State() != stateJoined {
			continue
		}
		c.sendEvent(msg)
	}
}

// RunTicker drives the broadcast scheduler until the context is cancelled.
func (s *Server) RunTicker(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickPeriod())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.TickOnce()
		}
	}
}

// TickOnce runs one broadcast tick: advance the world, announce grace
// expirations, admit queued joiners, and fan the snapshot to every joined
// connection.
func (s *Server) TickOnce() {
	res := s.game.Advance()

	for _, playerID := range res.Left {
		s.broadcastEvent(protocol.MustMessage(protocol.TypePlayerLeft, protocol.PlayerLeftPayload{PlayerID: playerID}), "")
	}

	for _, adm := range res.Admitted {
		c := s.connByID(adm.ClientID)
		if c == nil || !c.setStateIf(stateWaiting, stateJoined) {
			// The waiter vanished or closed between placement and delivery;
			// its fresh player goes straight into disconnect grace.
			s.game.Disconnect(adm.ClientID)
			continue
		}
		state := res.State
		c.sendEvent(protocol.MustMessage(protocol.TypeConnect, protocol.ConnectResponse{
			ClientID:  adm.ClientID,
			PlayerID:  adm.PlayerID,
			GameState: &state,
		}))
		s.broadcastEvent(protocol.MustMessage(protocol.TypePlayerJoined, protocol.PlayerJoinedPayload{
			ClientID:   adm.ClientID,
			PlayerID:   adm.PlayerID,
			PlayerName: adm.PlayerName,
			X:          adm.Pos.X,
			Y:          adm.Pos.Y,
		}), adm.ClientID)
	}

	update := protocol.MustMessage(protocol.TypeStateUpdate, protocol.StateUpdatePayload{
		GameState: res.State,
		Tick:      res.Tick,
	})
	s.mu.RLock()
	for _, c := range s.conns {
		if c.State() == stateJoined {
			c.sendState(update)
		}
	}
	s.mu.RUnlock()
}

// Shutdown notifies every connection, waits up to the drain budget for send
// queues to empty, then closes the sockets.
func (s *Server) Shutdown() {
	s.mu.RLock()
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	notice := protocol.ErrorMessage(protocol.CodeUnexpected, "server shutting down", "SHUTDOWN")
	for _, c := range conns {
		c.sendEvent(notice)
	}

	deadline := time.Now().Add(s.cfg.DrainTimeout())
	for time.Now().Before(deadline) {
		pending := false
		for _, c := range conns {
			if !c.drained() {
				pending = true
				break
			}
		}
		if !pending {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	for _, c := range conns {
		c.close()
	}
}

// Start loads the board, brings up the game and the listener, and blocks
// until the context is cancelled or the listener fails. A bind failure or a
// corrupt board file is fatal.
func Start(ctx context.Context, cfg utils.Config, boardPath string) error {
	log := slog.Default()

	var (
		board    *game.Board
		entities []*game.Entity
		err      error
	)
	if boardPath != "" {
		board, entities, err = game.LoadBoardFile(boardPath, cfg)
		if err != nil {
			return fmt.Errorf("load board: %w", err)
		}
	} else {
		board, entities = game.DefaultBoard(cfg)
	}

	g := game.New(board, entities, cfg, log)
	srv := New(g, cfg, log)

	mux := http.NewServeMux()
	mux.Handle("/subscribe", websocket.Handler(srv.HandleSubscribe()))

	addr := net.JoinHostPort(cfg.Websocket.Host, fmt.Sprintf("%d", cfg.Websocket.Port))
	httpSrv := &http.Server{Addr: addr, Handler: mux}

	log.Info("server listening", "addr", addr,
		"board", fmt.Sprintf("%dx%d", board.Width(), board.Height()),
		"spawns", len(board.Spawns()),
		"tickMs", cfg.BroadcastIntervalMs)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})
	group.Go(func() error {
		srv.RunTicker(ctx)
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		srv.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout())
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
