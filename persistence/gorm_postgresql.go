// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormPostgreSQL is the GORM-backed Database implementation.
type GormPostgreSQL struct {
	db *gorm.DB
}

// GameSessionModel is one lobby row per room.
type GameSessionModel struct {
	gorm.Model
	RoomCode       string `gorm:"uniqueIndex;not null"`
	HostUserID     string `gorm:"not null"`
	Status         string `gorm:"not null"`
	CurrentPlayers int    `gorm:"default:1"`
	MaxPlayers     int    `gorm:"default:10"`
	BuyInAmount    float64
	FinishedAt     *time.Time
}

// GameRecordModel is one row per finished game.
type GameRecordModel struct {
	gorm.Model
	RoomCode     string                 `gorm:"index;not null"`
	WinnerUserID string                 `gorm:"index;not null"`
	Players      map[string]interface{} `gorm:"type:jsonb"`
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&GameSessionModel{},
		&GameRecordModel{},
	)
}

// NewGormPostgreSQL opens the connection, configures the pool and migrates
// the schema.
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) CreateGameSession(roomCode, hostID string, maxPlayers int, buyIn float64) error {
	session := GameSessionModel{
		RoomCode:       roomCode,
		HostUserID:     hostID,
		Status:         StatusWaiting,
		CurrentPlayers: 1,
		MaxPlayers:     maxPlayers,
		BuyInAmount:    buyIn,
	}
	return p.db.Create(&session).Error
}

func (p *GormPostgreSQL) AdjustSessionPlayers(roomCode string, delta int) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var session GameSessionModel
		if err := tx.Where("room_code = ?", roomCode).First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		session.CurrentPlayers += delta
		if session.CurrentPlayers <= 0 {
			session.CurrentPlayers = 0
			session.Status = StatusCancelled
		}
		return tx.Save(&session).Error
	})
}

func (p *GormPostgreSQL) SetSessionStatus(roomCode, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == StatusCompleted || status == StatusCancelled {
		now := time.Now()
		updates["finished_at"] = &now
	}
	return p.db.Model(&GameSessionModel{}).
		Where("room_code = ?", roomCode).
		Updates(updates).Error
}

func (p *GormPostgreSQL) RecordResult(roomCode, winnerID string, players []string) error {
	playerSet := make(map[string]interface{}, len(players))
	for _, id := range players {
		playerSet[id] = map[string]interface{}{}
	}
	record := GameRecordModel{
		RoomCode:     roomCode,
		WinnerUserID: winnerID,
		Players:      playerSet,
	}
	return p.db.Create(&record).Error
}

func (p *GormPostgreSQL) GetPlayerStats(userID string) (PlayerStats, error) {
	var stats PlayerStats
	err := p.db.Raw(
		`
        SELECT
            COUNT(*) AS total_games,
            COALESCE(SUM(CASE WHEN winner_user_id = ? THEN 1 ELSE 0 END), 0) AS wins
        FROM game_record_models
        WHERE players @> ?`,
		userID, fmt.Sprintf(`{"%s": {}}`, userID),
	).Scan(&stats).Error
	return stats, err
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
