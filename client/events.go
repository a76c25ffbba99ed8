// Package client implements the outbound game connection: dialing,
// exponential-backoff reconnect with identity carry-over, queued send, and
// local move prediction with periodic reconciliation.
//
// Everything the server does is surfaced as a single typed event stream; one
// consumer loop dispatches by type, so there is no callback re-entrancy and
// back-pressure is visible in the channel.
package client

import (
	"time"

	"gridwalk/protocol"
)

// Event is one entry in the client's event stream.
type Event interface{ isEvent() }

// Connected fires when the server greeting arrives with our client id.
type Connected struct {
	ClientID string
}

// Joined fires when a join or reconnect request is granted.
type Joined struct {
	PlayerID       string
	IsReconnection bool
	State          protocol.GameState
}

// Waiting fires when the join is queued for a free spawn.
type Waiting struct {
	Message string
}

// StateUpdate carries one authoritative snapshot.
type StateUpdate struct {
	State protocol.GameState
	Tick  uint64
}

// PlayerJoined announces another player's arrival.
type PlayerJoined struct {
	PlayerID   string
	PlayerName string
	X          int
	Y          int
}

// PlayerLeft announces a departure after disconnect grace.
type PlayerLeft struct {
	PlayerID string
}

// MoveFailed reports a rejected move with its reason code.
type MoveFailed struct {
	Reason string
}

// ServerError carries a typed ERROR reply.
type ServerError struct {
	Code    string
	Message string
}

// Disconnected fires when the socket drops, expectedly or not.
type Disconnected struct {
	Err    error
	Wanted bool // true for a user-initiated disconnect
}

// Reconnecting fires before each reconnect attempt.
type Reconnecting struct {
	Attempt int
	Delay   time.Duration
}

// Reconnected fires when a reconnect attempt establishes a socket.
type Reconnected struct{}

// ReconnectFailed fires when every attempt is exhausted.
type ReconnectFailed struct {
	Attempts int
}

// ServerRestart fires when the server does not recognize our player id:
// the old identity is gone and a fresh one was issued.
type ServerRestart struct {
	OldPlayerID string
	NewPlayerID string
}

func (Connected) isEvent()       {}
func (Joined) isEvent()          {}
func (Waiting) isEvent()         {}
func (StateUpdate) isEvent()     {}
func (PlayerJoined) isEvent()    {}
func (PlayerLeft) isEvent()      {}
func (MoveFailed) isEvent()      {}
func (ServerError) isEvent()     {}
func (Disconnected) isEvent()    {}
func (Reconnecting) isEvent()    {}
func (Reconnected) isEvent()     {}
func (ReconnectFailed) isEvent() {}
func (ServerRestart) isEvent()   {}
