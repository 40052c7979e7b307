package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/banshee-data/swing.report/internal/kinematics"
	"github.com/banshee-data/swing.report/internal/session"
	"github.com/banshee-data/swing.report/internal/units"
)

// HandleSwing stores rec. It lets the database act as a session sink.
func (db *DB) HandleSwing(ctx context.Context, rec session.Record) error {
	return db.RecordSwing(ctx, rec)
}

func (db *DB) RecordSwing(ctx context.Context, rec session.Record) error {
	timedOut := 0
	if rec.TimedOut {
		timedOut = 1
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO swings (
			swing_id, session_id, stroke, swing_speed_mps, ball_speed_kmph,
			peak_accel_g, tier, duration_ms, z_accel_sum, rotation_sum,
			sample_count, timed_out, recorded_unix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Type.String(), rec.SwingSpeed, rec.BallSpeed,
		rec.PeakAcceleration, rec.Tier.String(), rec.Duration.Milliseconds(),
		rec.ZAccelSum, rec.RotationSum, rec.Samples, timedOut, toUnix(rec.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to record swing %s: %w", rec.ID, err)
	}
	return nil
}

// SwingFilter selects swings. Zero fields do not constrain the query.
type SwingFilter struct {
	Since time.Time
	Until time.Time
	Type  *kinematics.Stroke
	Limit int
}

// Swings returns matching swings, newest first.
func (db *DB) Swings(ctx context.Context, f SwingFilter) ([]session.Record, error) {
	var (
		where []string
		args  []any
	)
	if !f.Since.IsZero() {
		where = append(where, "recorded_unix >= ?")
		args = append(args, toUnix(f.Since))
	}
	if !f.Until.IsZero() {
		where = append(where, "recorded_unix < ?")
		args = append(args, toUnix(f.Until))
	}
	if f.Type != nil {
		where = append(where, "stroke = ?")
		args = append(args, f.Type.String())
	}

	q := `SELECT swing_id, session_id, stroke, swing_speed_mps, ball_speed_kmph,
		peak_accel_g, tier, duration_ms, z_accel_sum, rotation_sum,
		sample_count, timed_out, recorded_unix FROM swings`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY recorded_unix DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query swings: %w", err)
	}
	defer rows.Close()

	var swings []session.Record
	for rows.Next() {
		var (
			rec              session.Record
			stroke, tier     string
			durationMs       int64
			timedOut         int
			recordedUnixSecs float64
		)
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &stroke, &rec.SwingSpeed, &rec.BallSpeed,
			&rec.PeakAcceleration, &tier, &durationMs, &rec.ZAccelSum, &rec.RotationSum,
			&rec.Samples, &timedOut, &recordedUnixSecs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan swing: %w", err)
		}
		if rec.Type, err = kinematics.ParseStroke(stroke); err != nil {
			return nil, fmt.Errorf("swing %s: %w", rec.ID, err)
		}
		if err := rec.Tier.UnmarshalText([]byte(tier)); err != nil {
			return nil, fmt.Errorf("swing %s: %w", rec.ID, err)
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.TimedOut = timedOut != 0
		rec.Timestamp = fromUnix(recordedUnixSecs)
		swings = append(swings, rec)
	}
	return swings, rows.Err()
}

// Summary aggregates swings over a time range.
type Summary struct {
	Total         int     `json:"total"`
	Forehand      int     `json:"forehand"`
	Backhand      int     `json:"backhand"`
	Unknown       int     `json:"unknown"`
	AvgSwingSpeed float64 `json:"avg_swing_speed_mps"`
	MaxSwingSpeed float64 `json:"max_swing_speed_mps"`
	AvgBallSpeed  float64 `json:"avg_ball_speed_kmph"`
	MaxBallSpeed  float64 `json:"max_ball_speed_kmph"`
	// Per-stroke averages are zero when no swing of that stroke exists.
	ForehandAvgSpeed float64 `json:"forehand_avg_speed_mps"`
	BackhandAvgSpeed float64 `json:"backhand_avg_speed_mps"`
}

// SwingSummary aggregates the swings recorded in [since, until).
func (db *DB) SwingSummary(ctx context.Context, since, until time.Time) (Summary, error) {
	var s Summary
	err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(stroke = 'forehand'), 0),
			COALESCE(SUM(stroke = 'backhand'), 0),
			COALESCE(SUM(stroke = 'unknown'), 0),
			COALESCE(AVG(swing_speed_mps), 0),
			COALESCE(MAX(swing_speed_mps), 0),
			COALESCE(AVG(ball_speed_kmph), 0),
			COALESCE(MAX(ball_speed_kmph), 0),
			COALESCE(AVG(CASE WHEN stroke = 'forehand' THEN swing_speed_mps END), 0),
			COALESCE(AVG(CASE WHEN stroke = 'backhand' THEN swing_speed_mps END), 0)
		FROM swings
		WHERE recorded_unix >= ? AND recorded_unix < ?`,
		toUnix(since), toUnix(until),
	).Scan(&s.Total, &s.Forehand, &s.Backhand, &s.Unknown,
		&s.AvgSwingSpeed, &s.MaxSwingSpeed, &s.AvgBallSpeed, &s.MaxBallSpeed,
		&s.ForehandAvgSpeed, &s.BackhandAvgSpeed)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarise swings: %w", err)
	}
	return s, nil
}

// DayCount is the swing total for one calendar day.
type DayCount struct {
	Day           time.Time `json:"day"`
	Count         int       `json:"count"`
	AvgSwingSpeed float64   `json:"avg_swing_speed_mps"`
}

// DailySwingCounts returns one entry per calendar day for days days starting
// with the day containing from. Days are taken in from's location.
func (db *DB) DailySwingCounts(ctx context.Context, from time.Time, days int) ([]DayCount, error) {
	if days <= 0 {
		return nil, nil
	}
	start, _ := units.DayBounds(from, from.Location())
	counts := make([]DayCount, 0, days)
	for i := 0; i < days; i++ {
		dayStart := start.AddDate(0, 0, i)
		dayEnd := dayStart.AddDate(0, 0, 1)
		dc := DayCount{Day: dayStart}
		err := db.QueryRowContext(ctx, `
			SELECT COUNT(*), COALESCE(AVG(swing_speed_mps), 0)
			FROM swings
			WHERE recorded_unix >= ? AND recorded_unix < ?`,
			toUnix(dayStart), toUnix(dayEnd),
		).Scan(&dc.Count, &dc.AvgSwingSpeed)
		if err != nil {
			return nil, fmt.Errorf("failed to count swings for %s: %w", dayStart.Format(time.DateOnly), err)
		}
		counts = append(counts, dc)
	}
	return counts, nil
}
