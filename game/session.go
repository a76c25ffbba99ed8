// File: game/session.go
package game

// sessions holds the id tables relating connections to players, plus the
// disconnect-grace table. It never owns sockets or player records; both sides
// of every relation are opaque ids, and the Game lock guards all access.
type sessions struct {
	byClient     map[string]string // clientID -> playerID
	byPlayer     map[string]string // playerID -> clientID
	disconnected map[string]uint64 // playerID -> expiresAtTick
}

func newSessions() *sessions {
	return &sessions{
		byClient:     make(map[string]string),
		byPlayer:     make(map[string]string),
		disconnected: make(map[string]uint64),
	}
}

// bind associates a client with a player. Any previous binding on either side
// is severed first, keeping both relations one-to-one.
func (s *sessions) bind(clientID, playerID string) {
	if old, ok := s.byClient[clientID]; ok {
		delete(s.byPlayer, old)
	}
	if old, ok := s.byPlayer[playerID]; ok {
		delete(s.byClient, old)
	}
	s.byClient[clientID] = playerID
	s.byPlayer[playerID] = clientID
	delete(s.disconnected, playerID)
}

func (s *sessions) playerFor(clientID string) (string, bool) {
	id, ok := s.byClient[clientID]
	return id, ok
}

func (s *sessions) clientFor(playerID string) (string, bool) {
	id, ok := s.byPlayer[playerID]
	return id, ok
}

// markDisconnected severs the client binding and starts the grace window.
func (s *sessions) markDisconnected(playerID string, expiresAtTick uint64) {
	if clientID, ok := s.byPlayer[playerID]; ok {
		delete(s.byClient, clientID)
		delete(s.byPlayer, playerID)
	}
	s.disconnected[playerID] = expiresAtTick
}

// takeDisconnected claims a player from the grace table if still within
// grace at the given tick.
func (s *sessions) takeDisconnected(playerID string, now uint64) bool {
	expires, ok := s.disconnected[playerID]
	if !ok || now >= expires {
		return false
	}
	delete(s.disconnected, playerID)
	return true
}

// evictExpired removes every grace entry due at the given tick and returns
// the evicted player ids.
func (s *sessions) evictExpired(now uint64) []string {
	var expired []string
	for playerID, expires := range s.disconnected {
		if now >= expires {
			expired = append(expired, playerID)
			delete(s.disconnected, playerID)
		}
	}
	return expired
}

// forget drops a player from every table.
func (s *sessions) forget(playerID string) {
	if clientID, ok := s.byPlayer[playerID]; ok {
		delete(s.byClient, clientID)
	}
	delete(s.byPlayer, playerID)
	delete(s.disconnected, playerID)
}
