// view/view.go
package view

import (
	"encoding/json"

	"github.com/Jbruinsma/UNO/game"
	"github.com/Jbruinsma/UNO/logger"
)

// Sender delivers a payload to one user. Implemented by registry.Registry;
// defined here to keep the projector free of transport concerns.
type Sender interface {
	Send(userID string, payload []byte)
}

// Projection is the per-recipient view of a room. This is the trust
// boundary for hidden information: the recipient sees their own hand in
// full and only the sizes of everyone else's.
type Projection struct {
	Event              string                      `json:"event"`
	GameID             string                      `json:"game_id"`
	CurrentActiveColor string                      `json:"current_active_color,omitempty"`
	Direction          int                         `json:"direction"`
	TopCard            string                      `json:"top_card,omitempty"`
	CurrentPlayer      string                      `json:"current_player,omitempty"`
	Hand               []string                    `json:"hand"`
	CardCounts         map[string]int              `json:"card_counts"`
	GameEvent          *game.Event                 `json:"game_event,omitempty"`
	PlayerStates       map[string]game.PlayerState `json:"player_states"`
}

// Projector fans a room snapshot out as one filtered message per player.
type Projector struct {
	sender Sender
}

func NewProjector(sender Sender) *Projector {
	return &Projector{sender: sender}
}

// Build constructs the projection of snap for one recipient.
func Build(snap game.Snapshot, recipient, event string) Projection {
	hand := make([]string, 0, len(snap.Hands[recipient]))
	for _, c := range snap.Hands[recipient] {
		hand = append(hand, string(c))
	}

	counts := make(map[string]int, len(snap.Players))
	for _, id := range snap.Players {
		if id == recipient {
			continue
		}
		counts[id] = len(snap.Hands[id])
	}

	return Projection{
		Event:              event,
		GameID:             snap.ID,
		CurrentActiveColor: snap.ActiveColor,
		Direction:          snap.Direction,
		TopCard:            string(snap.TopCard),
		CurrentPlayer:      snap.CurrentPlayer(),
		Hand:               hand,
		CardCounts:         counts,
		GameEvent:          snap.PendingEvent,
		PlayerStates:       snap.PlayerStates,
	}
}

// SendGameUpdate delivers one projection per player. Never a shared payload:
// each player's message is built and sent independently.
func (p *Projector) SendGameUpdate(snap game.Snapshot, event string) {
	for _, id := range snap.Players {
		proj := Build(snap, id, event)
		payload, err := json.Marshal(proj)
		if err != nil {
			logger.Log.Errorf("Failed to marshal game update for %s: %v", id, err)
			continue
		}
		p.sender.Send(id, payload)
	}
}

// SendToRoom delivers the same payload to every player in the snapshot.
// Used for room-scoped notifications that carry no hidden information.
func (p *Projector) SendToRoom(snap game.Snapshot, message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		logger.Log.Errorf("Failed to marshal room message: %v", err)
		return
	}
	for _, id := range snap.Players {
		p.sender.Send(id, payload)
	}
}
