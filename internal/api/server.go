// Package api serves the swing history, training statistics, goals and live
// recogniser state over HTTP.
package api

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/banshee-data/swing.report/internal/config"
	"github.com/banshee-data/swing.report/internal/db"
	"github.com/banshee-data/swing.report/internal/motion"
	"github.com/banshee-data/swing.report/internal/session"
	"github.com/banshee-data/swing.report/internal/timeutil"
	"github.com/banshee-data/swing.report/internal/units"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Options wire a Server to the rest of the process. DB and Session are
// required; a nil Live disables /api/live.
type Options struct {
	DB       *db.DB
	Session  *session.Session
	Live     *LiveHub
	Tuning   *config.TuningConfig
	Units    string
	Location *time.Location
	Clock    timeutil.Clock
}

type Server struct {
	db      *db.DB
	session *session.Session
	live    *LiveHub
	tuning  *config.TuningConfig
	units   string
	loc     *time.Location
	clock   timeutil.Clock

	sensors atomic.Pointer[motion.Capabilities]
}

func NewServer(o Options) *Server {
	if o.Units == "" {
		o.Units = units.MPS
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	if o.Tuning == nil {
		o.Tuning = config.EmptyTuningConfig()
	}
	return &Server{
		db:      o.DB,
		session: o.Session,
		live:    o.Live,
		tuning:  o.Tuning,
		units:   o.Units,
		loc:     o.Location,
		clock:   o.Clock,
	}
}

// SetCapabilities records the result of the sensor probe for /api/sensors.
func (s *Server) SetCapabilities(c motion.Capabilities) {
	s.sensors.Store(&c)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack passes through so /api/live can upgrade behind the middleware.
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer %T cannot be hijacked", lrw.ResponseWriter)
	}
	lrw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the API routes. Debug routes are added separately with
// AttachAdminRoutes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/swings", s.listSwings)
	mux.HandleFunc("/api/stats/today", s.showTodayStats)
	mux.HandleFunc("/api/stats/week", s.showWeekStats)
	mux.HandleFunc("/api/stats/types", s.showTypeStats)
	mux.HandleFunc("/api/goals", s.handleGoals)
	mux.HandleFunc("/api/sensors", s.showSensors)
	mux.HandleFunc("/api/detector", s.showDetector)
	mux.HandleFunc("/api/detector/reset", s.resetDetector)
	mux.HandleFunc("/api/config", s.showConfig)
	if s.live != nil {
		mux.Handle("/api/live", s.live)
	}
	return mux
}

// requestUnits returns the ?units= override, or the server default.
func (s *Server) requestUnits(r *http.Request) (string, bool) {
	u := r.URL.Query().Get("units")
	if u == "" {
		return s.units, true
	}
	return u, units.IsValid(u)
}

// queryInt parses a positive integer query parameter, returning def when it
// is absent.
func queryInt(r *http.Request, name string, def, max int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}
