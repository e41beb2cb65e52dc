// game/store.go
package game

import (
	"sync"
)

// Summary is the lobby-facing view of one room.
type Summary struct {
	ID          string `json:"game_id"`
	HostName    string `json:"host_name"`
	PlayerCount int    `json:"player_count"`
	State       State  `json:"state"`
}

// Store owns every live room, keyed by room code. It is constructed once per
// server process and injected into the handlers; there is no ambient global
// room table. The store lock guards only the map; per-room mutation happens
// under each room's own lock.
type Store struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*Room),
	}
}

// Create makes a waiting room with the host as its only player. The code
// must be unused.
func (s *Store) Create(id, hostID, hostName string) (*Room, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.rooms[id]; exists {
		return nil, ErrCollision
	}

	room := NewRoom(id, hostID, hostName)
	s.rooms[id] = room
	return room, nil
}

// Has reports whether a room code is in use.
func (s *Store) Has(id string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, exists := s.rooms[id]
	return exists
}

// Get returns the live room for id.
func (s *Store) Get(id string) (*Room, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	room, exists := s.rooms[id]
	return room, exists
}

// Join adds a player to a waiting room. Joining a room you are already in is
// a no-op that returns the room unchanged.
func (s *Store) Join(id, userID, name string) (*Room, error) {
	room, exists := s.Get(id)
	if !exists {
		return nil, ErrNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	for _, p := range room.Players {
		if p == userID {
			return room, nil
		}
	}

	if room.State != StateWaiting {
		return nil, ErrAlreadyStarted
	}
	if len(room.Players) >= MaxPlayers {
		return nil, ErrRoomFull
	}

	room.addPlayer(userID, name)
	return room, nil
}

// Leave removes a player. If the host leaves, the role passes to the oldest
// remaining member; an emptied room is deleted. Returns the room after the
// removal (nil when it was deleted) and whether the player was a member.
func (s *Store) Leave(id, userID string) (*Room, bool) {
	room, exists := s.Get(id)
	if !exists {
		return nil, false
	}

	room.mu.Lock()
	member := false
	for _, p := range room.Players {
		if p == userID {
			member = true
			break
		}
	}
	if !member {
		room.mu.Unlock()
		return room, false
	}

	empty := room.removePlayer(userID)
	room.mu.Unlock()

	if empty {
		s.mutex.Lock()
		delete(s.rooms, id)
		s.mutex.Unlock()
		return nil, true
	}
	return room, true
}

// Reset returns a room to the waiting state, clearing all in-game state.
func (s *Store) Reset(id string) (*Room, error) {
	room, exists := s.Get(id)
	if !exists {
		return nil, ErrNotFound
	}
	room.Reset()
	return room, nil
}

// End is defined as Reset: the room entity itself survives until the last
// player leaves.
func (s *Store) End(id string) (*Room, error) {
	return s.Reset(id)
}

// RoomOf returns the id of the room userID currently belongs to. Membership
// is single-room, enforced by the join/create handlers.
func (s *Store) RoomOf(userID string) (string, bool) {
	s.mutex.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mutex.RUnlock()

	for _, room := range rooms {
		room.mu.Lock()
		member := room.isMember(userID)
		room.mu.Unlock()
		if member {
			return room.ID, true
		}
	}
	return "", false
}

// Summaries lists every live room for the lobby screen.
func (s *Store) Summaries() []Summary {
	s.mutex.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mutex.RUnlock()

	summaries := make([]Summary, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		summaries = append(summaries, Summary{
			ID:          room.ID,
			HostName:    room.PlayerNames[room.HostID],
			PlayerCount: len(room.Players),
			State:       room.State,
		})
		room.mu.Unlock()
	}
	return summaries
}

// Count returns the number of live rooms.
func (s *Store) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.rooms)
}
