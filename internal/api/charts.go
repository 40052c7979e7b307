package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"tailscale.com/tsweb"

	"github.com/banshee-data/swing.report/internal/db"
	"github.com/banshee-data/swing.report/internal/kinematics"
	"github.com/banshee-data/swing.report/internal/units"
)

// AttachAdminRoutes adds the swing speed chart to the /debug/ pages.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.Handle("swing-speed", "Swing speed trend chart", http.HandlerFunc(s.handleSwingSpeedChart))
}

// handleSwingSpeedChart renders swing speed over time, one series per stroke.
func (s *Server) handleSwingSpeedChart(w http.ResponseWriter, r *http.Request) {
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
	swings, err := s.db.Swings(r.Context(), db.SwingFilter{Since: s.since(days), Limit: 5000})
	if err != nil {
		internalServerError(w, fmt.Sprintf("Failed to retrieve swings: %v", err))
		return
	}

	series := map[kinematics.Stroke][]opts.ScatterData{}
	for i := len(swings) - 1; i >= 0; i-- {
		rec := swings[i]
		series[rec.Type] = append(series[rec.Type], opts.ScatterData{
			Value: []interface{}{rec.Timestamp.UnixMilli(), units.ConvertSpeed(rec.SwingSpeed, unit)},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Swing Speed", Theme: "dark", Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Swing Speed", Subtitle: fmt.Sprintf("days=%d swings=%d units=%s", days, len(swings), unit)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time", Name: "Time", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("Swing speed (%s)", unit), NameLocation: "middle", NameGap: 40}),
	)
	for _, stroke := range []kinematics.Stroke{kinematics.StrokeForehand, kinematics.StrokeBackhand, kinematics.StrokeUnknown} {
		scatter.AddSeries(stroke.String(), series[stroke], charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		internalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
