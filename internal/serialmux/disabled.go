package serialmux

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"tailscale.com/tsweb"
)

// ErrSensorDisabled is returned for commands sent while the server runs
// with --disable-sensor.
var ErrSensorDisabled = errors.New("wrist sensor disabled")

// DisabledSerialMux is the sensor source for --disable-sensor. No lines are
// ever produced. Subscriptions stay open until Unsubscribe or Close so the
// pump and /debug/tail readers block quietly and unblock at shutdown.
type DisabledSerialMux struct {
	mu     sync.Mutex
	subs   map[string]chan string
	closed chan struct{}
}

func NewDisabledSerialMux() *DisabledSerialMux {
	return &DisabledSerialMux{
		subs:   make(map[string]chan string),
		closed: make(chan struct{}),
	}
}

func (d *DisabledSerialMux) isClosed() bool {
	select {
	case <-d.closed:
		return true
	default:
		return false
	}
}

func (d *DisabledSerialMux) Subscribe() (string, chan string) {
	id, ch := randomID(), make(chan string)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isClosed() {
		close(ch)
	} else {
		d.subs[id] = ch
	}
	return id, ch
}

func (d *DisabledSerialMux) Unsubscribe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch, ok := d.subs[id]; ok {
		delete(d.subs, id)
		close(ch)
	}
}

// Subscribers reports the number of open subscriptions.
func (d *DisabledSerialMux) Subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// SendCommand always fails: there is no device to write to.
func (d *DisabledSerialMux) SendCommand(command string) error {
	return ErrSensorDisabled
}

// Initialise has nothing to configure.
func (d *DisabledSerialMux) Initialise(int) error { return nil }

// Monitor blocks until ctx is done or the mux is closed.
func (d *DisabledSerialMux) Monitor(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.closed:
		return nil
	}
}

func (d *DisabledSerialMux) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isClosed() {
		return nil
	}
	close(d.closed)
	for id, ch := range d.subs {
		delete(d.subs, id)
		close(ch)
	}
	return nil
}

// AttachAdminRoutes mounts /debug/sensor, reporting that no sensor is
// attached.
func (d *DisabledSerialMux) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.Handle("sensor", "wrist sensor status", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"sensor":      "disabled",
			"subscribers": d.Subscribers(),
		})
	}))
}
