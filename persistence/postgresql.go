// persistence/postgresql.go
//
// Plain database/sql implementation of Database, for deployments that do not
// want the ORM layer.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS game_sessions (
            id SERIAL PRIMARY KEY,
            room_code VARCHAR(10) UNIQUE NOT NULL,
            host_user_id VARCHAR(36) NOT NULL,
            status VARCHAR(16) NOT NULL,
            current_players INT NOT NULL DEFAULT 1,
            max_players INT NOT NULL DEFAULT 10,
            buy_in_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            finished_at TIMESTAMP
        )`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            room_code VARCHAR(10) NOT NULL,
            winner_user_id VARCHAR(36) NOT NULL,
            players JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`)
	return err
}

func (p *PostgreSQL) CreateGameSession(roomCode, hostID string, maxPlayers int, buyIn float64) error {
	_, err := p.db.Exec(`
        INSERT INTO game_sessions (room_code, host_user_id, status, current_players, max_players, buy_in_amount)
        VALUES ($1, $2, $3, 1, $4, $5)`,
		roomCode, hostID, StatusWaiting, maxPlayers, buyIn)
	return err
}

func (p *PostgreSQL) AdjustSessionPlayers(roomCode string, delta int) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRow(`
        UPDATE game_sessions
        SET current_players = GREATEST(current_players + $1, 0)
        WHERE room_code = $2
        RETURNING current_players`,
		delta, roomCode).Scan(&count)
	if err == sql.ErrNoRows {
		return ErrRecordNotFound
	}
	if err != nil {
		return err
	}

	if count <= 0 {
		_, err = tx.Exec(`
            UPDATE game_sessions SET status = $1, finished_at = CURRENT_TIMESTAMP
            WHERE room_code = $2`,
			StatusCancelled, roomCode)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *PostgreSQL) SetSessionStatus(roomCode, status string) error {
	if status == StatusCompleted || status == StatusCancelled {
		_, err := p.db.Exec(`
            UPDATE game_sessions SET status = $1, finished_at = CURRENT_TIMESTAMP
            WHERE room_code = $2`,
			status, roomCode)
		return err
	}
	_, err := p.db.Exec(`
        UPDATE game_sessions SET status = $1 WHERE room_code = $2`,
		status, roomCode)
	return err
}

func (p *PostgreSQL) RecordResult(roomCode, winnerID string, players []string) error {
	playerSet := make(map[string]interface{}, len(players))
	for _, id := range players {
		playerSet[id] = map[string]interface{}{}
	}
	data, err := json.Marshal(playerSet)
	if err != nil {
		return err
	}

	_, err = p.db.Exec(`
        INSERT INTO game_records (room_code, winner_user_id, players)
        VALUES ($1, $2, $3)`,
		roomCode, winnerID, data)
	return err
}

func (p *PostgreSQL) GetPlayerStats(userID string) (PlayerStats, error) {
	var stats PlayerStats
	err := p.db.QueryRow(`
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN winner_user_id = $1 THEN 1 ELSE 0 END), 0)
        FROM game_records
        WHERE players ? $1`,
		userID).Scan(&stats.TotalGames, &stats.Wins)
	return stats, err
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
