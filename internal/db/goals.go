package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GoalSettings are the player's training targets.
type GoalSettings struct {
	DailySwingTarget int       `json:"daily_swing_target"`
	AvgSpeedTarget   float64   `json:"avg_speed_target_mps"`
	WeeklyDaysTarget int       `json:"weekly_days_target"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
}

func DefaultGoalSettings() GoalSettings {
	return GoalSettings{DailySwingTarget: 30, AvgSpeedTarget: 15, WeeklyDaysTarget: 5}
}

func (g GoalSettings) Validate() error {
	if g.DailySwingTarget < 1 || g.DailySwingTarget > 10000 {
		return fmt.Errorf("%w: daily_swing_target must be between 1 and 10000, got %d", ErrInvalidGoals, g.DailySwingTarget)
	}
	if g.AvgSpeedTarget <= 0 || g.AvgSpeedTarget > 60 {
		return fmt.Errorf("%w: avg_speed_target_mps must be in (0, 60], got %g", ErrInvalidGoals, g.AvgSpeedTarget)
	}
	if g.WeeklyDaysTarget < 1 || g.WeeklyDaysTarget > 7 {
		return fmt.Errorf("%w: weekly_days_target must be between 1 and 7, got %d", ErrInvalidGoals, g.WeeklyDaysTarget)
	}
	return nil
}

// GoalSettings returns the stored goals, or the defaults if none are saved.
func (db *DB) GoalSettings(ctx context.Context) (GoalSettings, error) {
	var (
		g       GoalSettings
		updated float64
	)
	err := db.QueryRowContext(ctx, `
		SELECT daily_swing_target, avg_speed_target_mps, weekly_days_target, updated_unix
		FROM goal_settings WHERE id = 1`,
	).Scan(&g.DailySwingTarget, &g.AvgSpeedTarget, &g.WeeklyDaysTarget, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultGoalSettings(), nil
	}
	if err != nil {
		return GoalSettings{}, fmt.Errorf("failed to load goals: %w", err)
	}
	g.UpdatedAt = fromUnix(updated)
	return g, nil
}

// SaveGoalSettings validates and stores g, replacing any previous goals.
func (db *DB) SaveGoalSettings(ctx context.Context, g GoalSettings) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO goal_settings (id, daily_swing_target, avg_speed_target_mps, weekly_days_target, updated_unix)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			daily_swing_target = excluded.daily_swing_target,
			avg_speed_target_mps = excluded.avg_speed_target_mps,
			weekly_days_target = excluded.weekly_days_target,
			updated_unix = excluded.updated_unix`,
		g.DailySwingTarget, g.AvgSpeedTarget, g.WeeklyDaysTarget, toUnix(g.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save goals: %w", err)
	}
	return nil
}
