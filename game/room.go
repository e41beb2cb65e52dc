// game/room.go
package game

import (
	"sync"
	"time"

	"github.com/Jbruinsma/UNO/card"
)

// State is the room lifecycle state.
type State string

const (
	StateWaiting State = "waiting"
	StatePlaying State = "playing"
)

// PlayerState tracks one player's readiness inside a room.
type PlayerState string

const (
	PlayerReady   PlayerState = "ready"
	PlayerPlaying PlayerState = "playing"
)

// MaxPlayers is the hard cap on room size.
const MaxPlayers = 10

// Event is the one-shot notification describing the last consequential
// action, kept for one update so clients can animate it. Cleared at the
// start of every processed action.
type Event struct {
	Name   string `json:"name"`
	Player string `json:"player,omitempty"`
	Target string `json:"target,omitempty"`
	Color  string `json:"color,omitempty"`
}

// Event names.
const (
	EventDrawCard      = "draw_card"
	EventPlayCard      = "play_card"
	EventSkip          = "skip"
	EventReverse       = "reverse"
	EventDrawTwo       = "draw2"
	EventDrawFour      = "draw4"
	EventWildPick      = "wild_color_pick"
	EventWildPickDraw4 = "wild_color_pick_draw4"
	EventWin           = "win"
	EventTurnTimeout   = "turn_timeout"
)

// awaitingColor is the sub-state between a wild being committed to the
// discard pile and its color being chosen. While set, the only legal action
// is the matching color choice by the same actor.
type awaitingColor struct {
	actor    string
	drewFour bool
}

// Room is one game instance: a fixed roster sharing a deck, a discard pile
// and a turn pointer. All mutation happens under mu, through methods on Room
// and Store; nothing else may touch the fields concurrently.
type Room struct {
	ID           string
	HostID       string
	State        State
	Players      []string // join order; defines turn order
	PlayerNames  map[string]string
	PlayerStates map[string]PlayerState
	Hands        map[string][]card.Card

	Direction          int // +1 clockwise, -1 counterclockwise
	CurrentPlayerIndex int
	ActiveColor        string
	Deck               []card.Card
	DiscardPile        []card.Card
	PendingEvent       *Event

	Finished bool
	Winner   string

	Settings Settings
	Strikes  map[string]int

	CreatedAt time.Time

	awaiting *awaitingColor
	mu       sync.Mutex
}

// NewRoom creates a waiting room with the host as its only player.
func NewRoom(id, hostID, hostName string) *Room {
	return &Room{
		ID:           id,
		HostID:       hostID,
		State:        StateWaiting,
		Players:      []string{hostID},
		PlayerNames:  map[string]string{hostID: hostName},
		PlayerStates: map[string]PlayerState{hostID: PlayerReady},
		Hands:        make(map[string][]card.Card),
		Direction:    1,
		Settings:     DefaultSettings(),
		Strikes:      make(map[string]int),
		CreatedAt:    time.Now(),
	}
}

// ApplySettings validates and installs new rules. Rejected once the game is
// running.
func (r *Room) ApplySettings(s Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != StateWaiting {
		return ErrAlreadyStarted
	}
	if err := s.Validate(); err != nil {
		return err
	}
	r.Settings = s
	return nil
}

// CurrentSettings returns a copy of the room's rules.
func (r *Room) CurrentSettings() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Settings
}

// SetPlayerBackToLobby marks one player ready again after a finished game.
func (r *Room) SetPlayerBackToLobby(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.PlayerStates[userID]; !exists {
		return false
	}
	r.PlayerStates[userID] = PlayerReady
	return true
}

// addPlayer appends a player. Caller must hold mu.
func (r *Room) addPlayer(userID, name string) {
	r.Players = append(r.Players, userID)
	r.PlayerNames[userID] = name
	r.PlayerStates[userID] = PlayerReady
}

// removePlayer drops a player from every per-player structure and hands the
// host role over if needed. Returns true if the room is now empty. Caller
// must hold mu.
func (r *Room) removePlayer(userID string) bool {
	idx := -1
	for i, id := range r.Players {
		if id == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return len(r.Players) == 0
	}

	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	delete(r.PlayerNames, userID)
	delete(r.PlayerStates, userID)
	delete(r.Hands, userID)
	delete(r.Strikes, userID)

	if len(r.Players) == 0 {
		return true
	}

	if r.HostID == userID {
		r.HostID = r.Players[0]
	}

	// Keep the turn pointer valid when the roster shrinks mid-game. When the
	// current player leaves, the turn falls to their neighbor in the current
	// direction.
	if r.State == StatePlaying {
		if idx < r.CurrentPlayerIndex || (idx == r.CurrentPlayerIndex && r.Direction < 0) {
			r.CurrentPlayerIndex--
		}
		if r.CurrentPlayerIndex < 0 {
			r.CurrentPlayerIndex = len(r.Players) - 1
		}
		if r.CurrentPlayerIndex >= len(r.Players) {
			r.CurrentPlayerIndex = 0
		}
		if r.awaiting != nil && r.awaiting.actor == userID {
			r.awaiting = nil
		}
	}
	return false
}

// reset returns the room to the waiting state, clearing all in-game state.
// Caller must hold mu.
func (r *Room) reset() {
	r.State = StateWaiting
	r.Deck = nil
	r.DiscardPile = nil
	r.Hands = make(map[string][]card.Card)
	r.Direction = 1
	r.CurrentPlayerIndex = 0
	r.ActiveColor = ""
	r.PendingEvent = nil
	r.awaiting = nil
	r.Finished = false
	r.Winner = ""
	r.Strikes = make(map[string]int)
	for id := range r.PlayerStates {
		r.PlayerStates[id] = PlayerReady
	}
}

// Reset is the exported, locked form of reset.
func (r *Room) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// Snapshot is a consistent copy of the room taken under the lock, used to
// build per-player projections and deliver them without holding the lock.
type Snapshot struct {
	ID                 string
	HostID             string
	State              State
	Players            []string
	PlayerNames        map[string]string
	PlayerStates       map[string]PlayerState
	Hands              map[string][]card.Card
	Direction          int
	CurrentPlayerIndex int
	ActiveColor        string
	TopCard            card.Card
	PendingEvent       *Event
	Finished           bool
	Winner             string
	Settings           Settings
}

// Snapshot copies the observable room state under the lock.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Room) snapshot() Snapshot {
	snap := Snapshot{
		ID:                 r.ID,
		HostID:             r.HostID,
		State:              r.State,
		Players:            append([]string(nil), r.Players...),
		PlayerNames:        make(map[string]string, len(r.PlayerNames)),
		PlayerStates:       make(map[string]PlayerState, len(r.PlayerStates)),
		Hands:              make(map[string][]card.Card, len(r.Hands)),
		Direction:          r.Direction,
		CurrentPlayerIndex: r.CurrentPlayerIndex,
		ActiveColor:        r.ActiveColor,
		Finished:           r.Finished,
		Winner:             r.Winner,
		Settings:           r.Settings,
	}
	for id, name := range r.PlayerNames {
		snap.PlayerNames[id] = name
	}
	for id, st := range r.PlayerStates {
		snap.PlayerStates[id] = st
	}
	for id, hand := range r.Hands {
		snap.Hands[id] = append([]card.Card(nil), hand...)
	}
	if len(r.DiscardPile) > 0 {
		snap.TopCard = r.DiscardPile[len(r.DiscardPile)-1]
	}
	if r.PendingEvent != nil {
		ev := *r.PendingEvent
		snap.PendingEvent = &ev
	}
	return snap
}

// CurrentPlayer returns the user whose turn it is, or "" while waiting.
func (s Snapshot) CurrentPlayer() string {
	if s.State != StatePlaying || len(s.Players) == 0 {
		return ""
	}
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return ""
	}
	return s.Players[s.CurrentPlayerIndex]
}
