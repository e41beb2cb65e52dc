// server/handlers.go
//
// Inbound envelope dispatch. One envelope per client message; malformed JSON
// is dropped, structural errors go back to the sender as an "error" event,
// and illegal in-game moves are silently absorbed by the engine.
package server

import (
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/Jbruinsma/UNO/game"
	"github.com/Jbruinsma/UNO/logger"
)

type envelope struct {
	Action string        `json:"action"`
	GameID string        `json:"game_id,omitempty"`
	Extra  *extraPayload `json:"extra,omitempty"`
}

type extraPayload struct {
	Action      string          `json:"action,omitempty"`
	Card        string          `json:"card,omitempty"`
	AdvanceTurn *bool           `json:"advance_turn,omitempty"`
	Settings    json.RawMessage `json:"settings,omitempty"`
	MaxPlayers  int             `json:"max_players,omitempty"`
	BuyIn       float64         `json:"buy_in,omitempty"`
}

func (s *GameServer) handleMessage(userID, name string, data []byte, currentGameID *string) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Not part of the protocol; drop it.
		return
	}

	switch env.Action {
	case "status_check":
		s.broadcastLobby()

	case "create_game":
		s.handleCreateGame(userID, name, env.Extra, currentGameID)

	case "save_game_settings":
		s.handleSaveSettings(userID, *currentGameID, env.Extra)

	case "join_game":
		s.handleJoinGame(userID, name, env.GameID, currentGameID)

	case "leave_game":
		if *currentGameID != "" {
			s.leaveGame(*currentGameID, userID, name)
			*currentGameID = ""
		}

	case "start_game":
		s.handleStartGame(userID, *currentGameID)

	case "end_game":
		s.handleEndGame(userID, *currentGameID)

	case "back_to_lobby":
		s.handleBackToLobby(userID, *currentGameID)

	case "process_turn":
		s.handleProcessTurn(userID, *currentGameID, env.Extra)

	default:
		// Unrecognized actions relay as room chat.
		if *currentGameID != "" {
			if room, ok := s.store.Get(*currentGameID); ok {
				s.projector.SendToRoom(room.Snapshot(), map[string]interface{}{
					"event":       "message",
					"sender_id":   userID,
					"sender_name": name,
					"text":        string(data),
				})
			}
		} else {
			s.sendEvent(userID, map[string]interface{}{
				"event": "echo",
				"text":  "You are not in a game yet.",
			})
		}
	}
}

// codeAlphabet excludes nothing: codes are short and collision-checked, not
// guessproof.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const codeLength = 4

func generateGameID() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

func (s *GameServer) handleCreateGame(userID, name string, extra *extraPayload, currentGameID *string) {
	// Membership is single-room: moving on always leaves the old room first.
	if *currentGameID != "" {
		s.leaveGame(*currentGameID, userID, name)
		*currentGameID = ""
	}

	maxPlayers := game.MaxPlayers
	buyIn := 1.00
	if extra != nil {
		if extra.MaxPlayers > 0 && extra.MaxPlayers <= game.MaxPlayers {
			maxPlayers = extra.MaxPlayers
		}
		if extra.BuyIn > 0 {
			buyIn = extra.BuyIn
		}
	}

	newGameID := generateGameID()
	for s.store.Has(newGameID) {
		newGameID = generateGameID()
	}

	room, err := s.store.Create(newGameID, userID, name)
	if err != nil {
		s.sendError(userID, err)
		return
	}
	*currentGameID = newGameID

	s.stats.RoomCreated(newGameID, userID, maxPlayers, buyIn)
	s.broadcastLobby()

	snap := room.Snapshot()
	s.projector.SendToRoom(snap, map[string]interface{}{
		"event":        "game_created",
		"game_id":      newGameID,
		"creator":      userID,
		"players":      snap.Players,
		"player_names": snap.PlayerNames,
		"message":      "Room " + newGameID + " created.",
	})
}

func (s *GameServer) handleSaveSettings(userID, gameID string, extra *extraPayload) {
	if gameID == "" || extra == nil || len(extra.Settings) == 0 {
		return
	}
	room, ok := s.store.Get(gameID)
	if !ok {
		s.sendError(userID, game.ErrNotFound)
		return
	}
	if room.Snapshot().HostID != userID {
		s.sendError(userID, game.ErrNotHost)
		return
	}

	// Patch semantics: unmentioned fields keep their current values.
	settings := room.CurrentSettings()
	if err := json.Unmarshal(extra.Settings, &settings); err != nil {
		s.sendError(userID, game.ErrInvalidSetting)
		return
	}
	if err := room.ApplySettings(settings); err != nil {
		s.sendError(userID, err)
		return
	}

	s.projector.SendToRoom(room.Snapshot(), map[string]interface{}{
		"event":    "game_settings_saved",
		"settings": settings,
	})
}

func (s *GameServer) handleJoinGame(userID, name, gameID string, currentGameID *string) {
	targetID := strings.ToUpper(strings.TrimSpace(gameID))
	if targetID == "" {
		s.sendError(userID, errors.New("invalid game ID"))
		return
	}

	// Membership is single-room: joining elsewhere leaves the old room first.
	if *currentGameID != "" && *currentGameID != targetID {
		s.leaveGame(*currentGameID, userID, name)
		*currentGameID = ""
	}

	room, err := s.store.Join(targetID, userID, name)
	if err != nil {
		s.sendError(userID, err)
		return
	}
	*currentGameID = targetID

	s.stats.PlayerJoined(targetID)
	s.broadcastLobby()

	snap := room.Snapshot()
	s.projector.SendToRoom(snap, map[string]interface{}{
		"event":           "player_joined",
		"game_id":         targetID,
		"host_id":         snap.HostID,
		"players":         snap.Players,
		"player_names":    snap.PlayerNames,
		"new_player_id":   userID,
		"new_player_name": name,
		"message":         name + " has joined the game!",
		"player_states":   snap.PlayerStates,
	})
}

// leaveGame is the single exit path for explicit leaves and disconnects.
func (s *GameServer) leaveGame(gameID, userID, name string) {
	room, wasMember := s.store.Leave(gameID, userID)
	if !wasMember {
		return
	}

	s.stats.PlayerLeft(gameID)

	if room == nil {
		// Last player out; the room is gone.
		s.cancelTurnTimer(gameID)
	} else {
		s.projector.SendToRoom(room.Snapshot(), map[string]interface{}{
			"event":       "player_left",
			"player_id":   userID,
			"player_name": name,
			"message":     name + " left the game.",
		})
	}

	s.broadcastLobby()
}

func (s *GameServer) handleStartGame(userID, gameID string) {
	if gameID == "" {
		return
	}
	room, ok := s.store.Get(gameID)
	if !ok {
		s.sendError(userID, game.ErrNotFound)
		return
	}
	if room.Snapshot().HostID != userID {
		s.sendError(userID, game.ErrNotHost)
		return
	}
	if _, err := s.store.StartGame(gameID); err != nil {
		s.sendError(userID, err)
		return
	}

	s.stats.GameStarted(gameID)
	s.monitor.IncGamesStarted()
	s.broadcastLobby()

	s.projector.SendGameUpdate(room.Snapshot(), "game_started")
	s.armTurnTimer(gameID)
}

func (s *GameServer) handleEndGame(userID, gameID string) {
	if gameID == "" {
		return
	}
	room, ok := s.store.Get(gameID)
	if !ok {
		s.sendError(userID, game.ErrNotFound)
		return
	}
	wasFinished := room.Snapshot().Finished

	if _, err := s.store.End(gameID); err != nil {
		s.sendError(userID, err)
		return
	}

	s.cancelTurnTimer(gameID)
	// A won game is already recorded COMPLETED; only an abandoned one is
	// cancelled.
	if !wasFinished {
		s.stats.GameEnded(gameID)
	}
	s.broadcastLobby()
	s.projector.SendGameUpdate(room.Snapshot(), "game_update")
}

func (s *GameServer) handleBackToLobby(userID, gameID string) {
	if gameID == "" {
		return
	}
	room, ok := s.store.Get(gameID)
	if !ok {
		return
	}
	if !room.SetPlayerBackToLobby(userID) {
		return
	}

	snap := room.Snapshot()
	s.projector.SendToRoom(snap, map[string]interface{}{
		"event":         "player_back_to_lobby",
		"player_states": snap.PlayerStates,
	})
}

func (s *GameServer) handleProcessTurn(userID, gameID string, extra *extraPayload) {
	if gameID == "" {
		return
	}

	turnAction := ""
	cardToken := ""
	advance := true
	if extra != nil {
		turnAction = extra.Action
		cardToken = extra.Card
		if extra.AdvanceTurn != nil {
			advance = *extra.AdvanceTurn
		}
	}

	outcome, err := s.store.ProcessAction(userID, gameID, turnAction, cardToken, advance)
	if err != nil {
		s.sendError(userID, err)
		return
	}

	snap := outcome.Room.Snapshot()
	s.projector.SendGameUpdate(snap, "game_update")

	if !outcome.Applied {
		return
	}

	if turnAction == game.ActionPlayCard {
		s.monitor.IncCardsPlayed()
	}

	if outcome.Won {
		logger.Log.Infof("Game %s won by %s", gameID, snap.Winner)
		s.stats.GameWon(gameID, snap.Winner, snap.Players)
		s.cancelTurnTimer(gameID)
		s.broadcastLobby()
		return
	}

	s.armTurnTimer(gameID)
}

// --- turn timers ---

// armTurnTimer (re)schedules the AFK deadline for a room's current turn.
func (s *GameServer) armTurnTimer(gameID string) {
	room, ok := s.store.Get(gameID)
	if !ok {
		return
	}
	timeout := time.Duration(room.CurrentSettings().TurnTimeoutSeconds) * time.Second

	s.timerMutex.Lock()
	if old, exists := s.turnTimers[gameID]; exists {
		s.timers.Cancel(old)
	}
	s.turnTimers[gameID] = s.timers.Schedule(timeout, 0, func() {
		s.onTurnTimeout(gameID)
	})
	s.timerMutex.Unlock()
}

func (s *GameServer) cancelTurnTimer(gameID string) {
	s.timerMutex.Lock()
	if id, exists := s.turnTimers[gameID]; exists {
		s.timers.Cancel(id)
		delete(s.turnTimers, gameID)
	}
	s.timerMutex.Unlock()
}

func (s *GameServer) onTurnTimeout(gameID string) {
	res, room := s.store.EnforceTimeout(gameID)
	if !res.Acted {
		s.cancelTurnTimer(gameID)
		return
	}

	if res.Removed != "" {
		s.stats.PlayerLeft(gameID)
		if room == nil {
			// Forfeit kick emptied the room.
			s.cancelTurnTimer(gameID)
			s.broadcastLobby()
			return
		}
		s.projector.SendToRoom(room.Snapshot(), map[string]interface{}{
			"event":       "player_left",
			"player_id":   res.Removed,
			"player_name": res.RemovedName,
			"message":     res.RemovedName + " was removed after repeated timeouts.",
		})
		s.broadcastLobby()
	}

	snap := room.Snapshot()
	s.projector.SendGameUpdate(snap, "game_update")

	if snap.Finished {
		s.stats.GameWon(gameID, snap.Winner, snap.Players)
		s.cancelTurnTimer(gameID)
		return
	}
	s.armTurnTimer(gameID)
}
