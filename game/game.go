// File: game/game.go
package game

import (
	"fmt"
	"log/slog"
	"sync"

	"gridwalk/protocol"
	"gridwalk/utils"
)

// Game owns the canonical world state: players, entities, score, the wait
// queue, and the session id tables. A single mutex guards every transition,
// so each inbound message, tick, and eviction is totally ordered and every
// snapshot is consistent.
type Game struct {
	mu sync.Mutex

	board      *Board
	alloc      *Allocator
	graceTicks uint64
	log        *slog.Logger

	players   map[string]*Player
	joinOrder []string
	entities  []*Entity
	score     int
	tick      uint64

	sess          *sessions
	waitQueue     []waiter
	nextPlayerNum int
}

type waiter struct {
	clientID string
	name     string
}

// JoinStatus reports how a join request resolved.
type JoinStatus int

const (
	JoinPlaced JoinStatus = iota
	JoinWaiting
)

// JoinResult is the outcome of one CONNECT join request.
type JoinResult struct {
	Status         JoinStatus
	PlayerID       string
	PlayerName     string
	Pos            Point
	IsReconnection bool
	State          protocol.GameState
}

// MoveResult is the outcome of one validated move.
type MoveResult struct {
	OK     bool
	Reason string
	From   Point
	To     Point
}

// Admission is a wait-queued join admitted during a tick.
type Admission struct {
	ClientID   string
	PlayerID   string
	PlayerName string
	Pos        Point
}

// TickResult carries everything one tick produced.
type TickResult struct {
	Tick     uint64
	Left     []string // player ids evicted after disconnect grace
	Admitted []Admission
	State    protocol.GameState
}

// New creates a game over an immutable board.
func New(board *Board, entities []*Entity, cfg utils.Config, log *slog.Logger) *Game {
	if log == nil {
		log = slog.Default()
	}
	return &Game{
		board:      board,
		alloc:      NewAllocator(board, cfg.SpawnClearRadius()),
		graceTicks: cfg.DisconnectGraceTicks,
		log:        log,
		players:    make(map[string]*Player),
		entities:   entities,
		sess:       newSessions(),
	}
}

// Board returns the immutable board.
func (g *Game) Board() *Board { return g.board }

// Join handles a CONNECT join request for clientID. A supplied playerID is a
// reconnection attempt: within grace the old identity and position are
// restored; otherwise the request is a fresh join. Joins without an available
// spawn are queued, never rejected.
func (g *Game) Join(clientID, playerName, playerID string) JoinResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	if playerID != "" && g.sess.takeDisconnected(playerID, g.tick) {
		p, ok := g.players[playerID]
		if ok {
			g.sess.bind(clientID, playerID)
			if playerName != "" {
				p.Name = playerName
			}
			g.log.Info("player reconnected", "clientId", clientID, "playerId", playerID, "x", p.X, "y", p.Y)
			return JoinResult{
				Status:         JoinPlaced,
				PlayerID:       playerID,
				PlayerName:     p.Name,
				Pos:            p.Pos(),
				IsReconnection: true,
				State:          g.snapshotLocked(),
			}
		}
	}

	name := playerName
	if name == "" {
		g.nextPlayerNum++
		name = fmt.Sprintf("Player %d", g.nextPlayerNum)
	}

	pos, ok := g.alloc.Next(g.occupiedLocked())
	if !ok {
		g.waitQueue = append(g.waitQueue, waiter{clientID: clientID, name: name})
		g.log.Info("join queued, no spawn available", "clientId", clientID, "queueLen", len(g.waitQueue))
		return JoinResult{Status: JoinWaiting, PlayerName: name}
	}

	id := g.placeLocked(clientID, name, pos)
	return JoinResult{
		Status:     JoinPlaced,
		PlayerID:   id,
		PlayerName: name,
		Pos:        pos,
		State:      g.snapshotLocked(),
	}
}

// placeLocked creates a player at pos and binds it to clientID.
func (g *Game) placeLocked(clientID, name string, pos Point) string {
	id := utils.NewPlayerID()
	g.players[id] = &Player{ID: id, X: pos.X, Y: pos.Y, Name: name}
	g.joinOrder = append(g.joinOrder, id)
	g.sess.bind(clientID, id)
	g.log.Info("player joined", "clientId", clientID, "playerId", id, "name", name, "x", pos.X, "y", pos.Y)
	return id
}

// Move validates and applies one movement intent. Deltas are pre-validated by
// the codec; this checks bounds, walls, and player collision against the
// authoritative state. A rejected move leaves the player in place.
func (g *Game) Move(playerID string, dx, dy int) (MoveResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok {
		return MoveResult{}, fmt.Errorf("unknown player %s", playerID)
	}
	from := p.Pos()
	to := Point{X: p.X + dx, Y: p.Y + dy}

	if !g.board.InBounds(to.X, to.Y) {
		return MoveResult{Reason: protocol.ReasonOutOfBounds, From: from, To: to}, nil
	}
	if g.board.IsWall(to.X, to.Y) {
		return MoveResult{Reason: protocol.ReasonWall, From: from, To: to}, nil
	}
	for id, other := range g.players {
		if id != playerID && other.X == to.X && other.Y == to.Y {
			return MoveResult{Reason: protocol.ReasonPlayerCollision, From: from, To: to}, nil
		}
	}
	if e := g.entityAtLocked(to); e != nil && e.Solid {
		// Solid entities block like walls.
		return MoveResult{Reason: protocol.ReasonWall, From: from, To: to}, nil
	}

	p.X, p.Y = to.X, to.Y
	g.collectLocked(p, to)
	return MoveResult{OK: true, From: from, To: to}, nil
}

// collectLocked despawns a pickup under the player and bumps the score.
func (g *Game) collectLocked(p *Player, at Point) {
	for i, e := range g.entities {
		if e.X == at.X && e.Y == at.Y && e.Type == EntityPickup {
			g.entities = append(g.entities[:i], g.entities[i+1:]...)
			g.score++
			g.log.Info("pickup collected", "playerId", p.ID, "x", at.X, "y", at.Y, "score", g.score)
			return
		}
	}
}

func (g *Game) entityAtLocked(at Point) *Entity {
	for _, e := range g.entities {
		if e.X == at.X && e.Y == at.Y {
			return e
		}
	}
	return nil
}

// Restart re-allocates every player position in join order and resets the
// score. Connections and identities are untouched.
func (g *Game) Restart() {
	g.mu.Lock()
	defer g.mu.Unlock()

	occupied := make(map[Point]struct{})
	for _, id := range g.joinOrder {
		p := g.players[id]
		pos, ok := g.alloc.Next(occupied)
		if !ok {
			// No clear spawn left; keep the old cell unless an earlier player
			// was just placed there, then take the first free empty cell.
			pos = p.Pos()
			if _, taken := occupied[pos]; taken {
				pos = g.firstFreeLocked(occupied)
			}
		}
		p.X, p.Y = pos.X, pos.Y
		occupied[pos] = struct{}{}
	}
	g.score = 0
	g.log.Info("game restarted", "players", len(g.players))
}

// firstFreeLocked scans row-major for the first empty cell not in occupied.
func (g *Game) firstFreeLocked(occupied map[Point]struct{}) Point {
	for y := 0; y < g.board.Height(); y++ {
		for x := 0; x < g.board.Width(); x++ {
			p := Point{X: x, Y: y}
			if _, taken := occupied[p]; taken {
				continue
			}
			if kind, ok := g.board.GetCell(x, y); ok && kind == CellEmpty {
				return p
			}
		}
	}
	return Point{}
}

// Advance runs one broadcast tick: bump the counter, evict expired grace
// entries, advance entity animation, re-drain the wait queue in arrival
// order, and take a consistent snapshot.
func (g *Game) Advance() TickResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++
	res := TickResult{Tick: g.tick}

	for _, playerID := range g.sess.evictExpired(g.tick) {
		g.removePlayerLocked(playerID)
		res.Left = append(res.Left, playerID)
		g.log.Info("disconnect grace expired", "playerId", playerID, "tick", g.tick)
	}

	for _, e := range g.entities {
		e.Advance()
	}

	for len(g.waitQueue) > 0 {
		w := g.waitQueue[0]
		pos, ok := g.alloc.Next(g.occupiedLocked())
		if !ok {
			break
		}
		g.waitQueue = g.waitQueue[1:]
		id := g.placeLocked(w.clientID, w.name, pos)
		res.Admitted = append(res.Admitted, Admission{
			ClientID:   w.clientID,
			PlayerID:   id,
			PlayerName: w.name,
			Pos:        pos,
		})
	}

	res.State = g.snapshotLocked()
	return res
}

// Disconnect handles a connection close for clientID. A queued waiter is
// dropped; a bound player starts its disconnect grace. Returns the bound
// player id, if any.
func (g *Game) Disconnect(clientID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, w := range g.waitQueue {
		if w.clientID == clientID {
			g.waitQueue = append(g.waitQueue[:i], g.waitQueue[i+1:]...)
			return "", false
		}
	}

	playerID, ok := g.sess.playerFor(clientID)
	if !ok {
		return "", false
	}
	g.sess.markDisconnected(playerID, g.tick+g.graceTicks)
	g.log.Info("player disconnected", "clientId", clientID, "playerId", playerID, "graceTicks", g.graceTicks)
	return playerID, true
}

// SetPlayerName renames a live player.
func (g *Game) SetPlayerName(playerID, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok {
		return fmt.Errorf("unknown player %s", playerID)
	}
	p.Name = name
	return nil
}

// PlayerFor resolves the player bound to a connection.
func (g *Game) PlayerFor(clientID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sess.playerFor(clientID)
}

// ClientFor resolves the connection bound to a player.
func (g *Game) ClientFor(playerID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sess.clientFor(playerID)
}

// Snapshot returns a consistent copy of the world state.
func (g *Game) Snapshot() protocol.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Tick returns the current tick counter.
func (g *Game) Tick() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tick
}

func (g *Game) snapshotLocked() protocol.GameState {
	state := protocol.GameState{
		Board:    g.board.State(),
		Players:  make([]protocol.PlayerState, 0, len(g.players)),
		Entities: make([]protocol.EntityState, 0, len(g.entities)),
		Score:    g.score,
	}
	for _, id := range g.joinOrder {
		state.Players = append(state.Players, g.players[id].State())
	}
	for _, e := range g.entities {
		state.Entities = append(state.Entities, e.State())
	}
	return state
}

// occupiedLocked returns every cell held by a player record, including
// players inside their disconnect grace: their cell stays reserved until
// eviction frees it.
func (g *Game) occupiedLocked() map[Point]struct{} {
	occupied := make(map[Point]struct{}, len(g.players))
	for _, p := range g.players {
		occupied[p.Pos()] = struct{}{}
	}
	return occupied
}

func (g *Game) removePlayerLocked(playerID string) {
	delete(g.players, playerID)
	g.sess.forget(playerID)
	for i, id := range g.joinOrder {
		if id == playerID {
			g.joinOrder = append(g.joinOrder[:i], g.joinOrder[i+1:]...)
			break
		}
	}
}
