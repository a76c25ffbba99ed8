// File: client/client.go
package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"gridwalk/protocol"
	"gridwalk/utils"
)

type transportState int

const (
	transportDisconnected transportState = iota
	transportConnecting
	transportOpen
	transportClosing
)

// Client is the outbound connection to a game server. Messages sent while
// the socket is connecting are queued and flushed on open; when the socket is
// down with auto-reconnect armed they queue as well, otherwise send fails.
type Client struct {
	cfg    utils.Config
	url    string
	origin string
	log    *slog.Logger

	events chan Event

	mu         sync.Mutex
	ws         *websocket.Conn
	state      transportState
	queue      []*protocol.Message
	clientID   string
	playerID   string
	playerName string
	joinedOnce bool
	userClosed bool
	lastTick   uint64
}

// New builds a client for the configured server address.
func New(cfg utils.Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		url:    fmt.Sprintf("ws://%s:%d/subscribe", cfg.Websocket.Host, cfg.Websocket.Port),
		origin: fmt.Sprintf("http://%s/", cfg.Websocket.Host),
		log:    log,
		events: make(chan Event, 64),
	}
}

// Events returns the typed event stream. One consumer loop should drain it.
func (c *Client) Events() <-chan Event { return c.events }

// PlayerID returns the player identity observed from the server, if joined.
func (c *Client) PlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// Connect dials the server and starts the read loop. The Connected event
// fires once the greeting arrives.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.state == transportOpen || c.state == transportConnecting {
		c.mu.Unlock()
		return nil
	}
	c.state = transportConnecting
	c.userClosed = false
	c.mu.Unlock()

	ws, err := websocket.Dial(c.url, "", c.origin)
	if err != nil {
		c.mu.Lock()
		c.state = transportDisconnected
		c.mu.Unlock()
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.ws = ws
	c.state = transportOpen
	c.mu.Unlock()

	c.flushQueue()
	go c.readLoop(ws)
	return nil
}

// Join requests a player, reusing a previously observed player id so the
// server can treat it as a reconnection.
func (c *Client) Join(playerName string) error {
	c.mu.Lock()
	c.playerName = playerName
	req := protocol.ConnectRequest{PlayerName: playerName, PlayerID: c.playerID}
	c.mu.Unlock()
	return c.Send(protocol.MustMessage(protocol.TypeConnect, req))
}

// Move sends one movement intent.
func (c *Client) Move(dx, dy int) error {
	return c.Send(protocol.MustMessage(protocol.TypeMove, protocol.MovePayload{DX: dx, DY: dy}))
}

// Restart asks the server to reset the game.
func (c *Client) Restart() error {
	return c.Send(protocol.MustMessage(protocol.TypeRestart, struct{}{}))
}

// SetPlayerName renames the joined player.
func (c *Client) SetPlayerName(name string) error {
	return c.Send(protocol.MustMessage(protocol.TypeSetPlayerName, protocol.SetPlayerNamePayload{PlayerName: name}))
}

// Ping sends a keep-alive.
func (c *Client) Ping() error {
	return c.Send(protocol.MustMessage(protocol.TypePing, struct{}{}))
}

// Send delivers or queues one message depending on transport state.
func (c *Client) Send(msg *protocol.Message) error {
	c.mu.Lock()
	msg.ClientID = c.clientID
	switch c.state {
	case transportOpen:
		ws := c.ws
		c.mu.Unlock()
		return writeMessage(ws, msg)
	case transportConnecting:
		c.queue = append(c.queue, msg)
		c.mu.Unlock()
		return nil
	default:
		armed := c.cfg.Reconnection.Enabled && !c.userClosed
		if armed {
			c.queue = append(c.queue, msg)
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
		return fmt.Errorf("%s: transport is closed", protocol.CodeNotConnected)
	}
}

// Disconnect closes the connection on purpose; no reconnect follows.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.userClosed = true
	c.state = transportClosing
	ws := c.ws
	c.mu.Unlock()

	if ws != nil {
		_ = writeMessage(ws, protocol.MustMessage(protocol.TypeDisconnect, struct{}{}))
		return ws.Close()
	}
	return nil
}

func writeMessage(ws *websocket.Conn, msg *protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	_, err = ws.Write(data)
	return err
}

func (c *Client) flushQueue() {
	c.mu.Lock()
	pending := c.queue
	c.queue = nil
	ws := c.ws
	c.mu.Unlock()

	for _, msg := range pending {
		if err := writeMessage(ws, msg); err != nil {
			c.log.Warn("flush queued message", "type", msg.Type, "err", err)
			return
		}
	}
}

func (c *Client) readLoop(ws *websocket.Conn) {
	for {
		var raw json.RawMessage
		if err := websocket.JSON.Receive(ws, &raw); err != nil {
			c.onSocketDown(err)
			return
		}
		msg, cerr := protocol.Parse(raw)
		if cerr != nil {
			c.log.Warn("dropping unparseable frame from server", "kind", cerr.Kind.String())
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeConnect:
		c.onConnectFrame(msg)
	case protocol.TypeStateUpdate:
		p, err := protocol.DecodeStateUpdate(msg)
		if err != nil {
			return
		}
		c.mu.Lock()
		stale := p.Tick <= c.lastTick
		if !stale {
			c.lastTick = p.Tick
		}
		c.mu.Unlock()
		if !stale {
			c.events <- StateUpdate{State: p.GameState, Tick: p.Tick}
		}
	case protocol.TypePlayerJoined:
		if p, err := protocol.DecodePlayerJoined(msg); err == nil {
			c.events <- PlayerJoined{PlayerID: p.PlayerID, PlayerName: p.PlayerName, X: p.X, Y: p.Y}
		}
	case protocol.TypePlayerLeft:
		if p, err := protocol.DecodePlayerLeft(msg); err == nil {
			c.events <- PlayerLeft{PlayerID: p.PlayerID}
		}
	case protocol.TypeMoveFailed:
		if p, err := protocol.DecodeMoveFailed(msg); err == nil {
			c.events <- MoveFailed{Reason: p.Reason}
		}
	case protocol.TypeError:
		if p, err := protocol.DecodeError(msg); err == nil {
			c.events <- ServerError{Code: p.Code, Message: p.Message}
		}
	case protocol.TypePing:
		_ = c.Send(protocol.MustMessage(protocol.TypePong, struct{}{}))
	case protocol.TypePong:
	}
}

// onConnectFrame sorts the three CONNECT shapes: greeting, wait notice, and
// join response. A join response that ignores the player id we supplied means
// the server restarted and forgot us.
func (c *Client) onConnectFrame(msg *protocol.Message) {
	resp, err := protocol.DecodeConnectResponse(msg)
	if err != nil {
		return
	}

	if resp.Waiting {
		c.events <- Waiting{Message: resp.Message}
		return
	}

	if resp.PlayerID == "" {
		c.mu.Lock()
		c.clientID = resp.ClientID
		rejoin := c.joinedOnce
		name := c.playerName
		c.mu.Unlock()

		c.events <- Connected{ClientID: resp.ClientID}
		if rejoin {
			// Carry the old identity into the new session.
			_ = c.Join(name)
		}
		return
	}

	c.mu.Lock()
	old := c.playerID
	restarted := old != "" && !resp.IsReconnection && resp.PlayerID != old
	c.playerID = resp.PlayerID
	c.joinedOnce = true
	if restarted {
		c.lastTick = 0
	}
	c.mu.Unlock()

	if restarted {
		c.events <- ServerRestart{OldPlayerID: old, NewPlayerID: resp.PlayerID}
	}
	var state protocol.GameState
	if resp.GameState != nil {
		state = *resp.GameState
	}
	c.events <- Joined{PlayerID: resp.PlayerID, IsReconnection: resp.IsReconnection, State: state}
}

func (c *Client) onSocketDown(err error) {
	c.mu.Lock()
	wanted := c.userClosed
	c.state = transportDisconnected
	c.ws = nil
	c.mu.Unlock()

	c.events <- Disconnected{Err: err, Wanted: wanted}
	if !wanted && c.cfg.Reconnection.Enabled {
		go c.reconnectLoop()
	}
}

// reconnectLoop retries with exponential backoff until a dial succeeds, the
// attempts run out, or the user disconnects.
func (c *Client) reconnectLoop() {
	for attempt := 1; attempt <= c.cfg.Reconnection.MaxAttempts; attempt++ {
		delay := backoffDelay(c.cfg.RetryDelay(), attempt)
		c.events <- Reconnecting{Attempt: attempt, Delay: delay}
		time.Sleep(delay)

		c.mu.Lock()
		if c.userClosed {
			c.mu.Unlock()
			return
		}
		c.state = transportConnecting
		c.mu.Unlock()

		ws, err := websocket.Dial(c.url, "", c.origin)
		if err != nil {
			c.log.Warn("reconnect attempt failed", "attempt", attempt, "err", err)
			c.mu.Lock()
			c.state = transportDisconnected
			c.mu.Unlock()
			continue
		}

		c.mu.Lock()
		c.ws = ws
		c.state = transportOpen
		c.mu.Unlock()

		c.events <- Reconnected{}
		c.flushQueue()
		go c.readLoop(ws)
		return
	}
	c.events <- ReconnectFailed{Attempts: c.cfg.Reconnection.MaxAttempts}
}
