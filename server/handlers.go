// File: server/handlers.go
package server

import (
	"gridwalk/game"
	"gridwalk/protocol"
)

// routeAction is what the protocol state machine does with one inbound
// message in a given connection state.
type routeAction int

const (
	actProcess routeAction = iota
	actIgnore
	actPong
	actClose
	actErrNotJoined
	actErrAlreadyJoined
	actErrUnexpected
)

// routeDecision implements the state/message table. PING is answered and
// DISCONNECT honored in every state; gameplay messages require joined.
func routeDecision(state connState, t protocol.Type) routeAction {
	switch t {
	case protocol.TypePing:
		return actPong
	case protocol.TypePong:
		return actIgnore
	case protocol.TypeDisconnect:
		return actClose
	}

	switch state {
	case stateAwaitingJoin:
		switch t {
		case protocol.TypeConnect:
			return actProcess
		case protocol.TypeMove, protocol.TypeRestart, protocol.TypeSetPlayerName:
			return actErrNotJoined
		}
	case stateWaiting:
		switch t {
		case protocol.TypeConnect:
			return actIgnore // duplicate join request while queued
		case protocol.TypeMove, protocol.TypeRestart, protocol.TypeSetPlayerName:
			return actErrNotJoined
		}
	case stateJoined:
		switch t {
		case protocol.TypeConnect:
			return actErrAlreadyJoined
		case protocol.TypeMove, protocol.TypeRestart, protocol.TypeSetPlayerName:
			return actProcess
		}
	case stateClosed:
		return actIgnore
	}
	return actErrUnexpected
}

// handleMessage routes one parsed message through the state machine.
// Semantic errors reply with a typed ERROR and leave state unchanged.
func (s *Server) handleMessage(c *conn, msg *protocol.Message) {
	switch routeDecision(c.State(), msg.Type) {
	case actIgnore:
	case actPong:
		c.sendEvent(protocol.MustMessage(protocol.TypePong, struct{}{}))
	case actClose:
		c.close()
	case actErrNotJoined:
		c.sendEvent(protocol.ErrorMessage(protocol.CodeNotJoined, "join the game first", string(msg.Type)))
	case actErrAlreadyJoined:
		c.sendEvent(protocol.ErrorMessage(protocol.CodeAlreadyJoined, "already joined", string(msg.Type)))
	case actErrUnexpected:
		c.sendEvent(protocol.ErrorMessage(protocol.CodeUnexpected, "unexpected message in this state", string(msg.Type)))
	case actProcess:
		s.process(c, msg)
	}
}

func (s *Server) process(c *conn, msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeConnect:
		s.handleJoin(c, msg)
	case protocol.TypeMove:
		s.handleMove(c, msg)
	case protocol.TypeRestart:
		s.handleRestart(c)
	case protocol.TypeSetPlayerName:
		s.handleSetName(c, msg)
	}
}

func (s *Server) handleJoin(c *conn, msg *protocol.Message) {
	req, err := protocol.DecodeConnectRequest(msg)
	if err != nil {
		c.sendEvent(protocol.ErrorMessage(protocol.CodeInvalidPayload, err.Error(), string(msg.Type)))
		return
	}

	// The broadcast tick admits queued waiters and flips their conns to
	// joined, so the waiting mark must be down before Join can enroll this
	// conn in the queue. A direct placement overwrites it right after.
	c.setState(stateWaiting)
	res := s.game.Join(c.id, req.PlayerName, req.PlayerID)
	if res.Status == game.JoinWaiting {
		// A tick may already have admitted us; the notice is only for a
		// conn that is still queued.
		if c.State() == stateWaiting {
			c.sendEvent(protocol.MustMessage(protocol.TypeConnect, protocol.ConnectResponse{
				ClientID: c.id,
				Waiting:  true,
				Message:  s.cfg.SpawnPoints.WaitMessage,
			}))
		}
		return
	}

	c.setState(stateJoined)
	state := res.State
	c.sendEvent(protocol.MustMessage(protocol.TypeConnect, protocol.ConnectResponse{
		ClientID:       c.id,
		PlayerID:       res.PlayerID,
		GameState:      &state,
		IsReconnection: res.IsReconnection,
	}))

	// Reconnections never left the snapshot, so peers get no join event.
	if !res.IsReconnection {
		s.broadcastEvent(protocol.MustMessage(protocol.TypePlayerJoined, protocol.PlayerJoinedPayload{
			ClientID:   c.id,
			PlayerID:   res.PlayerID,
			PlayerName: res.PlayerName,
			X:          res.Pos.X,
			Y:          res.Pos.Y,
		}), c.id)
	}
}

func (s *Server) handleMove(c *conn, msg *protocol.Message) {
	mv, err := protocol.DecodeMove(msg)
	if err != nil {
		c.sendEvent(protocol.ErrorMessage(protocol.CodeInvalidPayload, err.Error(), string(msg.Type)))
		return
	}
	playerID, ok := s.game.PlayerFor(c.id)
	if !ok {
		c.sendEvent(protocol.ErrorMessage(protocol.CodeNotJoined, "no player bound to connection", string(msg.Type)))
		return
	}

	res, err := s.game.Move(playerID, mv.DX, mv.DY)
	if err != nil {
		c.sendEvent(protocol.ErrorMessage(protocol.CodeUnexpected, err.Error(), string(msg.Type)))
		return
	}
	if !res.OK {
		c.sendEvent(protocol.MustMessage(protocol.TypeMoveFailed, protocol.MoveFailedPayload{Reason: res.Reason}))
	}
}

func (s *Server) handleRestart(c *conn) {
	playerID, ok := s.game.PlayerFor(c.id)
	if !ok {
		c.sendEvent(protocol.ErrorMessage(protocol.CodeNotJoined, "no player bound to connection", "RESTART"))
		return
	}
	if s.RestartPolicy != nil && !s.RestartPolicy(playerID) {
		c.sendEvent(protocol.ErrorMessage(protocol.CodeUnexpected, "restart not permitted", "RESTART"))
		return
	}
	s.log.Info("restart requested", "clientId", c.id, "playerId", playerID)
	s.game.Restart()
}

func (s *Server) handleSetName(c *conn, msg *protocol.Message) {
	p, err := protocol.DecodeSetPlayerName(msg)
	if err != nil {
		c.sendEvent(protocol.ErrorMessage(protocol.CodeInvalidPayload, err.Error(), string(msg.Type)))
		return
	}
	playerID, ok := s.game.PlayerFor(c.id)
	if !ok {
		c.sendEvent(protocol.ErrorMessage(protocol.CodeNotJoined, "no player bound to connection", string(msg.Type)))
		return
	}
	if err := s.game.SetPlayerName(playerID, p.PlayerName); err != nil {
		c.sendEvent(protocol.ErrorMessage(protocol.CodeUnexpected, err.Error(), string(msg.Type)))
	}
}
