// services/stats_service.go
package services

import (
	"github.com/Jbruinsma/UNO/logger"
	"github.com/Jbruinsma/UNO/persistence"
)

// StatsService funnels room lifecycle into the database. Writes are
// best-effort: a database failure is logged and swallowed so it can never
// break a live game.
type StatsService struct {
	db persistence.Database
}

func NewStatsService(db persistence.Database) *StatsService {
	return &StatsService{db: db}
}

func (s *StatsService) RoomCreated(roomCode, hostID string, maxPlayers int, buyIn float64) {
	if err := s.db.CreateGameSession(roomCode, hostID, maxPlayers, buyIn); err != nil {
		logger.Log.Errorf("DB error creating game session %s: %v", roomCode, err)
	}
}

func (s *StatsService) PlayerJoined(roomCode string) {
	if err := s.db.AdjustSessionPlayers(roomCode, 1); err != nil {
		logger.Log.Errorf("DB error recording join for %s: %v", roomCode, err)
	}
}

func (s *StatsService) PlayerLeft(roomCode string) {
	if err := s.db.AdjustSessionPlayers(roomCode, -1); err != nil {
		logger.Log.Errorf("DB error recording leave for %s: %v", roomCode, err)
	}
}

func (s *StatsService) GameStarted(roomCode string) {
	if err := s.db.SetSessionStatus(roomCode, persistence.StatusInProgress); err != nil {
		logger.Log.Errorf("DB error marking %s in progress: %v", roomCode, err)
	}
}

func (s *StatsService) GameEnded(roomCode string) {
	if err := s.db.SetSessionStatus(roomCode, persistence.StatusCancelled); err != nil {
		logger.Log.Errorf("DB error marking %s cancelled: %v", roomCode, err)
	}
}

func (s *StatsService) GameWon(roomCode, winnerID string, players []string) {
	if err := s.db.RecordResult(roomCode, winnerID, players); err != nil {
		logger.Log.Errorf("DB error recording result for %s: %v", roomCode, err)
	}
	if err := s.db.SetSessionStatus(roomCode, persistence.StatusCompleted); err != nil {
		logger.Log.Errorf("DB error marking %s completed: %v", roomCode, err)
	}
}

func (s *StatsService) PlayerStats(userID string) (persistence.PlayerStats, error) {
	return s.db.GetPlayerStats(userID)
}
