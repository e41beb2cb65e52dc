// persistence/interface.go
package persistence

import (
	"errors"
)

// Game session lifecycle statuses, mirrored in the lobby database.
const (
	StatusWaiting    = "WAITING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
)

// PlayerStats aggregates a player's recorded results.
type PlayerStats struct {
	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
}

// Database records room lifecycle and game results. All writes are
// best-effort bookkeeping: the in-memory store is the source of truth for
// live rooms.
type Database interface {
	CreateGameSession(roomCode, hostID string, maxPlayers int, buyIn float64) error
	// AdjustSessionPlayers changes the player count by delta and cancels the
	// session when it reaches zero.
	AdjustSessionPlayers(roomCode string, delta int) error
	SetSessionStatus(roomCode, status string) error
	RecordResult(roomCode, winnerID string, players []string) error
	GetPlayerStats(userID string) (PlayerStats, error)
	Close() error
}

var ErrRecordNotFound = errors.New("record not found")
