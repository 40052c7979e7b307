package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/banshee-data/swing.report/internal/db"
	"github.com/banshee-data/swing.report/internal/kinematics"
	"github.com/banshee-data/swing.report/internal/session"
	"github.com/banshee-data/swing.report/internal/units"
)

// SwingAPI is a stored swing with speeds in the requested units.
type SwingAPI struct {
	ID               string            `json:"id"`
	SessionID        string            `json:"session_id"`
	Type             kinematics.Stroke `json:"type"`
	SwingSpeed       float64           `json:"swing_speed"`
	BallSpeed        float64           `json:"ball_speed"`
	PeakAcceleration float64           `json:"peak_acceleration_g"`
	Tier             units.SpeedTier   `json:"tier"`
	DurationMs       int64             `json:"duration_ms"`
	TimedOut         bool              `json:"timed_out"`
	Timestamp        time.Time         `json:"timestamp"`
	Units            string            `json:"units"`
}

func swingToAPI(rec session.Record, unit string) SwingAPI {
	return SwingAPI{
		ID:               rec.ID,
		SessionID:        rec.SessionID,
		Type:             rec.Type,
		SwingSpeed:       units.ConvertSpeed(rec.SwingSpeed, unit),
		BallSpeed:        units.ConvertSpeed(units.KMPHToMPS(rec.BallSpeed), unit),
		PeakAcceleration: rec.PeakAcceleration,
		Tier:             rec.Tier,
		DurationMs:       rec.Duration.Milliseconds(),
		TimedOut:         rec.TimedOut,
		Timestamp:        rec.Timestamp,
		Units:            unit,
	}
}

// SummaryAPI is db.Summary with speeds in the requested units.
type SummaryAPI struct {
	Total         int     `json:"total"`
	Forehand      int     `json:"forehand"`
	Backhand      int     `json:"backhand"`
	Unknown       int     `json:"unknown"`
	AvgSwingSpeed float64 `json:"avg_swing_speed"`
	MaxSwingSpeed float64 `json:"max_swing_speed"`
	AvgBallSpeed  float64 `json:"avg_ball_speed"`
	MaxBallSpeed  float64 `json:"max_ball_speed"`
	ForehandAvg   float64 `json:"forehand_avg_speed"`
	BackhandAvg   float64 `json:"backhand_avg_speed"`
	Units         string  `json:"units"`
}

func summaryToAPI(s db.Summary, unit string) SummaryAPI {
	return SummaryAPI{
		Total:         s.Total,
		Forehand:      s.Forehand,
		Backhand:      s.Backhand,
		Unknown:       s.Unknown,
		AvgSwingSpeed: units.ConvertSpeed(s.AvgSwingSpeed, unit),
		MaxSwingSpeed: units.ConvertSpeed(s.MaxSwingSpeed, unit),
		AvgBallSpeed:  units.ConvertSpeed(units.KMPHToMPS(s.AvgBallSpeed), unit),
		MaxBallSpeed:  units.ConvertSpeed(units.KMPHToMPS(s.MaxBallSpeed), unit),
		ForehandAvg:   units.ConvertSpeed(s.ForehandAvgSpeed, unit),
		BackhandAvg:   units.ConvertSpeed(s.BackhandAvgSpeed, unit),
		Units:         unit,
	}
}

// since returns midnight at the start of the window of days days ending
// today.
func (s *Server) since(days int) time.Time {
	start, _ := units.DayBounds(s.clock.Now(), s.loc)
	return start.AddDate(0, 0, -(days - 1))
}

func (s *Server) listSwings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	days, ok := queryInt(r, "days", 1, 366)
	if !ok {
		badRequest(w, "Invalid 'days' parameter")
		return
	}
	limit, ok := queryInt(r, "limit", 100, 1000)
	if !ok {
		badRequest(w, "Invalid 'limit' parameter")
		return
	}
	unit, ok := s.requestUnits(r)
	if !ok {
		badRequest(w, fmt.Sprintf("Invalid 'units' parameter, must be one of: %s", units.ValidUnitsString()))
		return
	}
	filter := db.SwingFilter{Since: s.since(days), Limit: limit}
	if t := r.URL.Query().Get("type"); t != "" {
		stroke, err := kinematics.ParseStroke(t)
		if err != nil {
			badRequest(w, "Invalid 'type' parameter, must be forehand, backhand or unknown")
			return
		}
		filter.Type = &stroke
	}

	swings, err := s.db.Swings(r.Context(), filter)
	if err != nil {
		internalServerError(w, fmt.Sprintf("Failed to retrieve swings: %v", err))
		return
	}
	out := make([]SwingAPI, len(swings))
	for i, rec := range swings {
		out[i] = swingToAPI(rec, unit)
	}
	writeJSONOK(w, out)
}

// TodayStats is the summary of the current training day against the goals.
// SpeedChange is today's average swing speed minus yesterday's, counting a
// day without swings as zero.
type TodayStats struct {
	Date             string     `json:"date"`
	Summary          SummaryAPI `json:"summary"`
	DailySwingTarget int        `json:"daily_swing_target"`
	SwingsRemaining  int        `json:"swings_remaining"`
	Progress         float64    `json:"progress"`
	AvgSpeedTarget   float64    `json:"avg_speed_target"`
	SpeedChange      float64    `json:"speed_change"`
	GoalMet          bool       `json:"goal_met"`
}

func (s *Server) showTodayStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	unit, ok := s.requestUnits(r)
	if !ok {
		badRequest(w, fmt.Sprintf("Invalid 'units' parameter, must be one of: %s", units.ValidUnitsString()))
		return
	}
	start, end := units.DayBounds(s.clock.Now(), s.loc)
	summary, err := s.db.SwingSummary(r.Context(), start, end)
	if err != nil {
		internalServerError(w, fmt.Sprintf("Failed to summarise swings: %v", err))
		return
	}
	yesterday, err := s.db.SwingSummary(r.Context(), start.AddDate(0, 0, -1), start)
	if err != nil {
		internalServerError(w, fmt.Sprintf("Failed to summarise swings: %v", err))
		return
	}
	goals, err := s.db.GoalSettings(r.Context())
	if err != nil {
		internalServerError(w, fmt.Sprintf("Failed to load goals: %v", err))
		return
	}

	writeJSONOK(w, TodayStats{
		Date:             start.Format(time.DateOnly),
		Summary:          summaryToAPI(summary, unit),
		DailySwingTarget: goals.DailySwingTarget,
		SwingsRemaining:  max(0, goals.DailySwingTarget-summary.Total),
		Progress:         min(1, float64(summary.Total)/float64(goals.DailySwingTarget)),
		AvgSpeedTarget:   units.ConvertSpeed(goals.AvgSpeedTarget, unit),
		SpeedChange:      units.ConvertSpeed(summary.AvgSwingSpeed-yesterday.AvgSwingSpeed, unit),
		GoalMet:          summary.Total >= goals.DailySwingTarget,
	})
}

// DayAPI is one day of the weekly view.
type DayAPI struct {
	Date          string  `json:"date"`
	Count         int     `json:"count"`
	AvgSwingSpeed float64 `json:"avg_swing_speed"`
}

// WeekStats covers Monday to Sunday of the current week.
type WeekStats struct {
	WeekStart        string     `json:"week_start"`
	Days             []DayAPI   `json:"days"`
	Summary          SummaryAPI `json:"summary"`
	ActiveDays       int        `json:"active_days"`
	WeeklyDaysTarget int        `json:"weekly_days_target"`
	GoalMet          bool       `json:"goal_met"`
}

func (s *Server) showWeekStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	unit, ok := s.requestUnits(r)
	if !ok {
		badRequest(w, fmt.Sprintf("Invalid 'units' parameter, must be one of: %s", units.ValidUnitsString()))
		return
	}
	start := units.WeekStart(s.clock.Now(), s.loc)
	counts, err := s.db.DailySwingCounts(r.Context(), start, 7)
	if err != nil {
		internalServerError(w, fmt.Sprintf("Failed to count swings: %v", err))
		return
	}
	summary, err := s.db.SwingSummary(r.Context(), start, start.AddDate(0, 0, 7))
	if err != nil {
		internalServerError(w, fmt.Sprintf("Failed to summarise swings: %v", err))
		return
	}
	goals, err := s.db.GoalSettings(r.Context())
	if err != nil {
		internalServerError(w, fmt.Sprintf("Failed to load goals: %v", err))
		return
	}

	out := WeekStats{
		WeekStart:        start.Format(time.DateOnly),
		Days:             make([]DayAPI, len(counts)),
		Summary:          summaryToAPI(summary, unit),
		WeeklyDaysTarget: goals.WeeklyDaysTarget,
	}
	for i, dc := range counts {
		out.Days[i] = DayAPI{
			Date:          dc.Day.Format(time.DateOnly),
			Count:         dc.Count,
			AvgSwingSpeed: units.ConvertSpeed(dc.AvgSwingSpeed, unit),
		}
		if dc.Count > 0 {
			out.ActiveDays++
		}
	}
	out.GoalMet = out.ActiveDays >= goals.WeeklyDaysTarget
	writeJSONOK(w, out)
}

// TypeStats is the stroke mix over a window of days. The percentages are
// shares of the classified strokes, so unknown swings do not dilute them.
type TypeStats struct {
	Days             int     `json:"days"`
	Total            int     `json:"total"`
	Forehand         int     `json:"forehand"`
	Backhand         int     `json:"backhand"`
	Unknown          int     `json:"unknown"`
	ForehandPct      float64 `json:"forehand_pct"`
	BackhandPct      float64 `json:"backhand_pct"`
	ForehandAvgSpeed float64 `json:"forehand_avg_speed"`
	BackhandAvgSpeed float64 `json:"backhand_avg_speed"`
	Units            string  `json:"units"`
}

func (s *Server) showTypeStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	days, ok := queryInt(r, "days", 7, 366)
	if !ok {
		badRequest(w, "Invalid 'days' parameter")
		return
	}
	unit, ok := s.requestUnits(r)
	if !ok {
		badRequest(w, fmt.Sprintf("Invalid 'units' parameter, must be one of: %s", units.ValidUnitsString()))
		return
	}
	since := s.since(days)
	_, end := units.DayBounds(s.clock.Now(), s.loc)
	summary, err := s.db.SwingSummary(r.Context(), since, end)
	if err != nil {
		internalServerError(w, fmt.Sprintf("Failed to summarise swings: %v", err))
		return
	}

	out := TypeStats{
		Days:             days,
		Total:            summary.Total,
		Forehand:         summary.Forehand,
		Backhand:         summary.Backhand,
		Unknown:          summary.Unknown,
		ForehandAvgSpeed: units.ConvertSpeed(summary.ForehandAvgSpeed, unit),
		BackhandAvgSpeed: units.ConvertSpeed(summary.BackhandAvgSpeed, unit),
		Units:            unit,
	}
	if classified := summary.Forehand + summary.Backhand; classified > 0 {
		n := float64(classified)
		out.ForehandPct = 100 * float64(summary.Forehand) / n
		out.BackhandPct = 100 * float64(summary.Backhand) / n
	}
	writeJSONOK(w, out)
}
