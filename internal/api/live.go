package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/swing.report/internal/session"
)

const liveWriteTimeout = 200 * time.Millisecond

// LiveMessage is sent to every /api/live client for each finished swing.
type LiveMessage struct {
	Type  string   `json:"type"`
	Swing SwingAPI `json:"swing"`
}

// LiveHub pushes finished swings to websocket clients. It is a session.Sink.
type LiveHub struct {
	units    string
	origins  map[string]bool
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewLiveHub returns a hub reporting speeds in unit. Browsers may connect
// from the server's own origin or from one of allowedOrigins, given as
// scheme://host[:port].
func NewLiveHub(unit string, allowedOrigins ...string) *LiveHub {
	h := &LiveHub{
		units:   unit,
		origins: make(map[string]bool, len(allowedOrigins)),
		conns:   make(map[*websocket.Conn]bool),
	}
	for _, o := range allowedOrigins {
		h.origins[strings.ToLower(strings.TrimSuffix(o, "/"))] = true
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients), same-origin requests and the configured extra origins.
func (h *LiveHub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return h.origins[strings.ToLower(u.Scheme+"://"+u.Host)]
}

func (h *LiveHub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *LiveHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *LiveHub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

// Clients returns the number of connected clients.
func (h *LiveHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. Clients are not expected to send anything.
func (h *LiveHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("live: upgrade failed: %v", err)
		return
	}
	h.add(c)
	defer func() {
		h.remove(c)
		_ = c.Close()
	}()
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

// HandleSwing broadcasts rec. Clients that cannot keep up are dropped.
func (h *LiveHub) HandleSwing(_ context.Context, rec session.Record) error {
	b, err := json.Marshal(LiveMessage{Type: "swing", Swing: swingToAPI(rec, h.units)})
	if err != nil {
		return err
	}
	for _, c := range h.snapshot() {
		_ = c.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = c.Close()
			h.remove(c)
		}
	}
	return nil
}
