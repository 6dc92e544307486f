package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/starford/othala/internal/models"
)

// UserStats returns the singleton stats record. A missing record is not an
// error: a zeroed record with the fixed id is returned instead.
func (db *DB) UserStats(ctx context.Context) (models.UserStats, error) {
	conn, err := db.handle()
	if err != nil {
		return models.UserStats{}, err
	}
	var data string
	err = conn.QueryRowContext(ctx, `SELECT data FROM user WHERE id = ?`, models.UserStatsID).Scan(&data)
	if err == sql.ErrNoRows {
		return models.UserStats{ID: models.UserStatsID}, nil
	}
	if err != nil {
		return models.UserStats{}, db.checkConn(fmt.Errorf("store: get user stats: %w", err))
	}
	var stats models.UserStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return models.UserStats{}, fmt.Errorf("store: decode user stats: %w", err)
	}
	stats.ID = models.UserStatsID
	return stats, nil
}

// PutUserStats replaces the singleton stats record.
func (db *DB) PutUserStats(ctx context.Context, stats models.UserStats) error {
	conn, err := db.handle()
	if err != nil {
		return err
	}
	stats.ID = models.UserStatsID
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("store: encode user stats: %w", err)
	}
	_, err = conn.ExecContext(ctx, `
		INSERT INTO user (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, models.UserStatsID, string(data))
	if err != nil {
		return db.checkConn(fmt.Errorf("store: put user stats: %w", err))
	}
	return nil
}
