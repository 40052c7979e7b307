package serialmux

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MockSerialPort replays canned lines as if they came from the sensor while
// started, and answers the capability query with a full report.
type MockSerialPort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu        sync.Mutex
	written   bytes.Buffer
	replies   chan string
	streaming atomic.Bool
	closed    chan struct{}
	closeOnce sync.Once
}

// MockCapabilitiesReport is what the mock device answers to SENSORS?.
const MockCapabilitiesReport = `{"sensors":{"accelerometer":true,"gyroscope":true,"orientation":true}}`

func (m *MockSerialPort) Read(p []byte) (int, error) { return m.r.Read(p) }

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	m.written.Write(p)
	m.mu.Unlock()

	switch strings.TrimSpace(string(p)) {
	case QueryCapabilitiesCommand:
		select {
		case m.replies <- MockCapabilitiesReport:
		default:
		}
	case StartCommand:
		m.streaming.Store(true)
	case StopCommand:
		m.streaming.Store(false)
	}
	return len(p), nil
}

func (m *MockSerialPort) Close() error {
	m.closeOnce.Do(func() {
		close(m.closed)
		m.r.Close()
	})
	return nil
}

// Streaming reports whether the mock device has been started.
func (m *MockSerialPort) Streaming() bool { return m.streaming.Load() }

// Written returns every command written to the mock port.
func (m *MockSerialPort) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

// NewMockSerialMux returns a mux whose port replays lines in a loop, one
// every interval once started, interleaved with replies to commands.
func NewMockSerialMux(lines []string, interval time.Duration) *SerialMux[*MockSerialPort] {
	r, w := io.Pipe()
	port := &MockSerialPort{
		r:       r,
		w:       w,
		replies: make(chan string, 4),
		closed:  make(chan struct{}),
	}

	go func() {
		defer w.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		i := 0
		for {
			var line string
			select {
			case <-port.closed:
				return
			case line = <-port.replies:
			case <-ticker.C:
				if len(lines) == 0 || !port.streaming.Load() {
					continue
				}
				line = lines[i%len(lines)]
				i++
			}
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				return
			}
		}
	}()

	return NewSerialMux(port)
}

// TestableSerialPort is an in-memory SerialPorter with injectable errors.
type TestableSerialPort struct {
	mu sync.Mutex

	ReadBuffer  *bytes.Buffer
	WriteBuffer *bytes.Buffer
	WriteError  error
	CloseError  error
	Closed      bool
	// ShortWrite makes Write report one byte fewer than requested.
	ShortWrite bool
}

func NewTestableSerialPort() *TestableSerialPort {
	return &TestableSerialPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
}

func (t *TestableSerialPort) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	return t.ReadBuffer.Read(p)
}

func (t *TestableSerialPort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}
	n, err := t.WriteBuffer.Write(p)
	if t.ShortWrite && n > 0 {
		n--
	}
	return n, err
}

func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	return t.CloseError
}

// Written returns everything written to the port so far.
func (t *TestableSerialPort) Written() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.WriteBuffer.String()
}
