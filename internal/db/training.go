package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/banshee-data/swing.report/internal/session"
)

// TrainingSession is one stored run of the recogniser.
type TrainingSession struct {
	ID            string     `json:"id"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	TotalSwings   int        `json:"total_swings"`
	Forehand      int        `json:"forehand"`
	Backhand      int        `json:"backhand"`
	AvgSwingSpeed float64    `json:"avg_swing_speed_mps"`
	MaxSwingSpeed float64    `json:"max_swing_speed_mps"`
}

func (db *DB) StartSession(ctx context.Context, id string, startedAt time.Time) error {
	if _, err := db.ExecContext(ctx,
		`INSERT INTO training_sessions (session_id, started_unix) VALUES (?, ?)`,
		id, toUnix(startedAt),
	); err != nil {
		return fmt.Errorf("failed to start session %s: %w", id, err)
	}
	return nil
}

// EndSession closes the session and stores its final totals.
func (db *DB) EndSession(ctx context.Context, id string, endedAt time.Time, stats session.Stats) error {
	res, err := db.ExecContext(ctx, `
		UPDATE training_sessions SET
			ended_unix = ?,
			total_swings = ?,
			forehand_count = ?,
			backhand_count = ?,
			avg_swing_speed_mps = ?,
			max_swing_speed_mps = ?
		WHERE session_id = ?`,
		toUnix(endedAt), stats.Total, stats.Forehand, stats.Backhand,
		stats.AvgSwingSpeed, stats.MaxSwingSpeed, id,
	)
	if err != nil {
		return fmt.Errorf("failed to end session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to end session %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// TrainingSessions lists sessions, most recent first.
func (db *DB) TrainingSessions(ctx context.Context, limit int) ([]TrainingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT session_id, started_unix, ended_unix, total_swings, forehand_count,
			backhand_count, avg_swing_speed_mps, max_swing_speed_mps
		FROM training_sessions
		ORDER BY started_unix DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []TrainingSession
	for rows.Next() {
		var (
			ts      TrainingSession
			started float64
			ended   sql.NullFloat64
		)
		if err := rows.Scan(&ts.ID, &started, &ended, &ts.TotalSwings, &ts.Forehand,
			&ts.Backhand, &ts.AvgSwingSpeed, &ts.MaxSwingSpeed); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ts.StartedAt = fromUnix(started)
		if ended.Valid {
			t := fromUnix(ended.Float64)
			ts.EndedAt = &t
		}
		sessions = append(sessions, ts)
	}
	return sessions, rows.Err()
}
