// Package protocol defines the framed JSON wire messages shared by the server
// and the client, plus the codec that parses and validates them.
package protocol

import "encoding/json"

// Type tags a wire message. The set is closed; Parse rejects anything else.
type Type string

const (
	TypeConnect       Type = "CONNECT"
	TypeDisconnect    Type = "DISCONNECT"
	TypeMove          Type = "MOVE"
	TypeMoveFailed    Type = "MOVE_FAILED"
	TypeRestart       Type = "RESTART"
	TypeStateUpdate   Type = "STATE_UPDATE"
	TypePlayerJoined  Type = "PLAYER_JOINED"
	TypePlayerLeft    Type = "PLAYER_LEFT"
	TypeSetPlayerName Type = "SET_PLAYER_NAME"
	TypeError         Type = "ERROR"
	TypePing          Type = "PING"
	TypePong          Type = "PONG"
)

// Message is one wire frame: a tagged payload with a sender timestamp in
// milliseconds since epoch and an optional client identifier.
type Message struct {
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
	ClientID  string          `json:"clientId,omitempty"`
}

// ConnectRequest is the client-to-server join or reconnect payload.
type ConnectRequest struct {
	PlayerName string `json:"playerName,omitempty"`
	PlayerID   string `json:"playerId,omitempty"`
}

// ConnectResponse covers the three server-to-client CONNECT shapes: the
// initial greeting (clientId only), the wait notice (waiting + message), and
// the join response (playerId + gameState).
type ConnectResponse struct {
	ClientID       string     `json:"clientId"`
	PlayerID       string     `json:"playerId,omitempty"`
	GameState      *GameState `json:"gameState,omitempty"`
	IsReconnection bool       `json:"isReconnection,omitempty"`
	Waiting        bool       `json:"waiting,omitempty"`
	Message        string     `json:"message,omitempty"`
}

// MovePayload carries one movement intent. Both deltas are in {-1,0,1} and
// they are never both zero; Parse enforces that.
type MovePayload struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Move rejection reasons.
const (
	ReasonOutOfBounds     = "OUT_OF_BOUNDS"
	ReasonWall            = "WALL"
	ReasonPlayerCollision = "PLAYER_COLLISION"
)

type MoveFailedPayload struct {
	Reason string `json:"reason"`
}

type StateUpdatePayload struct {
	GameState GameState `json:"gameState"`
	Tick      uint64    `json:"tick"`
}

type PlayerJoinedPayload struct {
	ClientID   string `json:"clientId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

type SetPlayerNamePayload struct {
	PlayerName string `json:"playerName"`
}

// Error codes used in ERROR payloads.
const (
	CodeNotJoined      = "NOT_JOINED"
	CodeAlreadyJoined  = "ALREADY_JOINED"
	CodeUnexpected     = "UNEXPECTED"
	CodeSlowConsumer   = "SLOW_CONSUMER"
	CodeNotConnected   = "NOT_CONNECTED"
	CodeMalformedFrame = "MALFORMED_FRAME"
	CodeMissingType    = "MISSING_TYPE"
	CodeUnknownType    = "UNKNOWN_TYPE"
	CodeInvalidPayload = "INVALID_PAYLOAD"
)

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

// GameState is the authoritative world value carried in CONNECT responses and
// STATE_UPDATE broadcasts.
type GameState struct {
	Board    BoardState    `json:"board"`
	Players  []PlayerState `json:"players"`
	Entities []EntityState `json:"entities"`
	Score    int           `json:"score"`
}

// Cell kinds as encoded in BoardState.Grid.
const (
	GridEmpty = 0
	GridWall  = 1
)

type BoardState struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Grid   [][]int `json:"grid"` // row-major, Grid[y][x]
}

type PlayerState struct {
	PlayerID   string `json:"playerId"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	PlayerName string `json:"playerName"`
}

type EntityState struct {
	EntityID       string `json:"entityId"`
	X              int    `json:"x"`
	Y              int    `json:"y"`
	EntityType     string `json:"entityType"`
	Glyph          string `json:"glyph"`
	Color          string `json:"color,omitempty"`
	AnimationFrame int    `json:"animationFrame,omitempty"`
	Solid          bool   `json:"solid,omitempty"`
}

// PlayerByID returns the player entry for id, if present.
func (s *GameState) PlayerByID(id string) (PlayerState, bool) {
	for _, p := range s.Players {
		if p.PlayerID == id {
			return p, true
		}
	}
	return PlayerState{}, false
}

// IsWall reports whether the cell at (x, y) is a wall. Out-of-bounds
// coordinates are not walls; callers check bounds separately.
func (b *BoardState) IsWall(x, y int) bool {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return false
	}
	return b.Grid[y][x] == GridWall
}

// InBounds reports whether (x, y) lies on the board.
func (b *BoardState) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}
