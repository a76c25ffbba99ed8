// File: server/conn.go
package server

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/net/websocket"

	"gridwalk/protocol"
)

// connState is the per-connection protocol lifecycle state.
type connState int

const (
	stateAwaitingJoin connState = iota
	stateWaiting
	stateJoined
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateAwaitingJoin:
		return "awaitingJoin"
	case stateWaiting:
		return "waiting"
	case stateJoined:
		return "joined"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// conn owns one websocket. The read loop runs in the subscribe handler
// goroutine; the send loop drains the outbound queue in its own goroutine.
// Event messages are never dropped: a full queue on an event closes the
// connection as a slow consumer. State updates are droppable.
type conn struct {
	id  string
	ws  *websocket.Conn
	log *slog.Logger

	send      chan *protocol.Message
	closed    chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	state connState

	droppedUpdates atomic.Int64
}

func newConn(id string, ws *websocket.Conn, highWater int, log *slog.Logger) *conn {
	if highWater < 1 {
		highWater = 1
	}
	return &conn{
		id:     id,
		ws:     ws,
		log:    log.With("clientId", id),
		send:   make(chan *protocol.Message, highWater),
		closed: make(chan struct{}),
	}
}

func (c *conn) State() connState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *conn) setState(s connState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateClosed {
		c.state = s
	}
}

// setStateIf swaps from one expected state to another, reporting whether the
// swap happened. Admission from the wait queue uses it so a conn that closed
// or never finished enrolling is not marked joined.
func (c *conn) setStateIf(from, to connState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return false
	}
	c.state = to
	return true
}

// sendEvent enqueues a message that must not be dropped. A connection whose
// queue cannot take it has fallen arbitrarily behind and is closed.
func (c *conn) sendEvent(msg *protocol.Message) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	case <-c.closed:
		return false
	default:
		c.log.Warn("send queue full on event, closing slow consumer",
			"code", protocol.CodeSlowConsumer, "type", msg.Type)
		// The queue is full, so the reason goes around it: one best-effort
		// direct write before the socket drops.
		if c.ws != nil {
			reason := protocol.ErrorMessage(protocol.CodeSlowConsumer, "send queue overflow", string(msg.Type))
			if data, err := protocol.Encode(reason); err == nil {
				_, _ = c.ws.Write(data)
			}
		}
		c.close()
		return false
	}
}

// sendState enqueues a state update, dropping it when the queue is at its
// high-water mark. The next tick supersedes whatever was dropped.
func (c *conn) sendState(msg *protocol.Message) {
	select {
	case c.send <- msg:
	case <-c.closed:
	default:
		if n := c.droppedUpdates.Add(1); n%16 == 1 {
			c.log.Debug("dropping state update for slow connection", "dropped", n)
		}
	}
}

// sendLoop writes queued messages until the connection closes. Within one
// connection messages go out in issue order.
func (c *conn) sendLoop() {
	for {
		select {
		case msg := <-c.send:
			data, err := protocol.Encode(msg)
			if err != nil {
				c.log.Error("encode outbound message", "type", msg.Type, "err", err)
				continue
			}
			if _, err := c.ws.Write(data); err != nil {
				c.log.Debug("write failed, closing", "err", err)
				c.close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

// drained reports whether the outbound queue is empty.
func (c *conn) drained() bool {
	return len(c.send) == 0
}

// close shuts the socket, which also unblocks the read loop.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = stateClosed
		c.mu.Unlock()
		close(c.closed)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}
