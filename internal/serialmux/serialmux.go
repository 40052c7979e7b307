// Serialmux provides an abstraction over the serial link to the wrist
// sensor, letting several consumers subscribe to its output lines while
// commands are written to a single device.
package serialmux

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/banshee-data/swing.report/internal/monitoring"
)

var ErrWriteFailed = fmt.Errorf("failed to write to serial port")

// SubscriberBuffer is the per-subscriber line buffer: half a second of
// samples at 100 Hz.
const SubscriberBuffer = 64

// SerialMux fans out lines read from a single serial port to any number of
// subscribers.
type SerialMux[T SerialPorter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex
	dropped      *monitoring.QualityCounter
}

// SerialMuxInterface is implemented by the real, mock and disabled muxes.
type SerialMuxInterface interface {
	// Subscribe returns an ID and a channel that receives every line read
	// from the port.
	Subscribe() (string, chan string)
	// Unsubscribe closes and removes the channel registered under id.
	Unsubscribe(string)
	// SendCommand writes a newline-terminated command to the device.
	SendCommand(string) error
	// Monitor reads lines until ctx is done or the port fails.
	Monitor(context.Context) error
	// Close closes every subscriber channel and the port.
	Close() error
	// Initialise configures the sensor to stream at rateHz.
	Initialise(rateHz int) error
	// AttachAdminRoutes mounts the serial debug endpoints under /debug/.
	AttachAdminRoutes(*http.ServeMux)
}

// NewSerialMux wraps an open port.
func NewSerialMux[T SerialPorter](port T) *SerialMux[T] {
	return &SerialMux[T]{
		port:        port,
		subscribers: make(map[string]chan string),
		dropped:     monitoring.NewQualityCounter("serialmux: lines dropped for slow subscribers", 100),
	}
}

func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (s *SerialMux[T]) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string, SubscriberBuffer)
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

func (s *SerialMux[T]) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Port returns the underlying port.
func (s *SerialMux[T]) Port() T {
	return s.port
}

// Dropped reports how many lines were not delivered because a subscriber's
// buffer was full.
func (s *SerialMux[T]) Dropped() uint64 {
	return s.dropped.Load()
}

// StartupCommands returns the command sequence that configures the sensor
// for rateHz. The device is left stopped; streaming begins with
// StartCommand.
func StartupCommands(rateHz int) []string {
	return []string{
		StopCommand,      // quiesce any previous stream
		"FORMAT CSV",     // t,rx,ry,rz,ax,ay,az,pitch,roll,yaw
		"UNITS RAD G",    // rad/s, g, rad
		"GRAVITY REMOVE", // user acceleration only
		fmt.Sprintf("RATE %d", rateHz),
	}
}

const (
	// QueryCapabilitiesCommand asks the device to report which sensor
	// channels it has.
	QueryCapabilitiesCommand = "SENSORS?"
	StartCommand             = "START"
	StopCommand              = "STOP"
)

// Initialise sends the startup sequence.
func (s *SerialMux[T]) Initialise(rateHz int) error {
	for _, command := range StartupCommands(rateHz) {
		if err := s.SendCommand(command); err != nil {
			return fmt.Errorf("failed to send start command %q: %w", command, err)
		}
	}
	return nil
}

// SendCommand writes command, adding the trailing newline if missing.
func (s *SerialMux[T]) SendCommand(command string) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()
	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}
	n, err := s.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads lines from the port and delivers each to every subscriber.
// A subscriber whose buffer is full misses the line; the loss is counted and
// logged rather than blocking the reader.
func (s *SerialMux[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(s.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan runs apart from the select loop so cancellation is
	// noticed promptly.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
					return nil
				}
			}
			s.closingMu.Lock()
			closing := s.closing
			s.closingMu.Unlock()
			if closing {
				return nil
			}
			s.broadcast(line)
		}
	}
}

func (s *SerialMux[T]) broadcast(line string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for id, ch := range s.subscribers {
		select {
		case ch <- line:
		default:
			s.dropped.Inc("subscriber " + id)
		}
	}
}

func (s *SerialMux[T]) Close() error {
	s.closingMu.Lock()
	s.closing = true
	s.closingMu.Unlock()

	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	return s.port.Close()
}
