package main

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/banshee-data/swing.report/internal/monitoring"
	"github.com/banshee-data/swing.report/internal/motion"
	"github.com/banshee-data/swing.report/internal/serialmux"
	"github.com/banshee-data/swing.report/internal/swing"
)

type countingSink struct{ n atomic.Int64 }

func (c *countingSink) Enqueue(swing.Sample) bool {
	c.n.Add(1)
	return true
}

// mockSensor returns a mock device replaying samples every millisecond, with
// its monitor running until the test ends.
func mockSensor(t *testing.T) (*serialmux.SerialMux[*serialmux.MockSerialPort], context.Context) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })

	sensor := serialmux.NewMockSerialMux([]string{
		"0.01,0.1,0.2,0.3,0.5,0.1,0.0,0.2,0.0,0.0",
		"0.02,0.1,0.2,0.3,0.5,0.1,0.0,0.2,0.0,0.0",
	}, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go sensor.Monitor(ctx)
	t.Cleanup(func() {
		cancel()
		sensor.Close()
	})
	return sensor, ctx
}

func TestStartSampling_MissingChannelFeedsNothing(t *testing.T) {
	sensor, ctx := mockSensor(t)
	if err := sensor.Initialise(100); err != nil {
		t.Fatalf("Initialise() error = %v", err)
	}

	var wg sync.WaitGroup
	sink := &countingSink{}
	caps := motion.Capabilities{Accelerometer: true, Orientation: true}
	started, err := startSampling(ctx, &wg, sensor, caps, sink)
	if err != nil {
		t.Fatalf("startSampling() error = %v", err)
	}
	if started {
		t.Fatal("startSampling() started without a gyroscope")
	}

	time.Sleep(50 * time.Millisecond)
	if n := sink.n.Load(); n != 0 {
		t.Errorf("%d samples reached the session with a channel missing", n)
	}
	if sensor.Port().Streaming() {
		t.Error("sensor stream started with a channel missing")
	}
	if strings.Contains(sensor.Port().Written(), serialmux.StartCommand+"\n") {
		t.Errorf("START written with a channel missing: %q", sensor.Port().Written())
	}
	wg.Wait()
}

func TestStartSampling_ProbeTimeoutFeedsNothing(t *testing.T) {
	sensor, ctx := mockSensor(t)

	var wg sync.WaitGroup
	sink := &countingSink{}
	started, err := startSampling(ctx, &wg, sensor, motion.Capabilities{}, sink)
	if err != nil || started {
		t.Fatalf("startSampling() = %v, %v; want false, nil", started, err)
	}
	time.Sleep(20 * time.Millisecond)
	if n := sink.n.Load(); n != 0 {
		t.Errorf("%d samples reached the session without a capability report", n)
	}
}

func TestStartSampling_FullCapabilitiesStreams(t *testing.T) {
	sensor, ctx := mockSensor(t)
	if err := sensor.Initialise(100); err != nil {
		t.Fatalf("Initialise() error = %v", err)
	}
	caps, err := motion.Probe(ctx, sensor, 2*time.Second)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	pumpCtx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	sink := &countingSink{}
	started, err := startSampling(pumpCtx, &wg, sensor, caps, sink)
	if err != nil || !started {
		t.Fatalf("startSampling() = %v, %v; want true, nil", started, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if sink.n.Load() == 0 {
		t.Error("no samples reached the session after START")
	}
	if !sensor.Port().Streaming() {
		t.Error("sensor not streaming after startSampling")
	}

	stop()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not stop on cancel")
	}
}

func TestStartSampling_StartCommandFails(t *testing.T) {
	sensor := serialmux.NewDisabledSerialMux()
	defer sensor.Close()

	var wg sync.WaitGroup
	caps := motion.Capabilities{Accelerometer: true, Gyroscope: true, Orientation: true}
	started, err := startSampling(context.Background(), &wg, sensor, caps, &countingSink{})
	if !errors.Is(err, serialmux.ErrSensorDisabled) {
		t.Errorf("startSampling() error = %v, want ErrSensorDisabled", err)
	}
	if started {
		t.Error("startSampling() reported started after a failed START")
	}
	wg.Wait()
}

func TestPrintPorts(t *testing.T) {
	var out bytes.Buffer
	if err := printPorts(&out, func() ([]string, error) { return []string{"/dev/ttyACM0", "/dev/ttyUSB1"}, nil }); err != nil {
		t.Fatalf("printPorts() error = %v", err)
	}
	if got := out.String(); got != "/dev/ttyACM0\n/dev/ttyUSB1\n" {
		t.Errorf("printPorts() wrote %q", got)
	}

	out.Reset()
	if err := printPorts(&out, func() ([]string, error) { return nil, nil }); err != nil {
		t.Fatalf("printPorts() error = %v", err)
	}
	if !strings.Contains(out.String(), "no serial ports") {
		t.Errorf("printPorts() with no ports wrote %q", out.String())
	}

	boom := errors.New("enumeration failed")
	if err := printPorts(&out, func() ([]string, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Errorf("printPorts() error = %v, want %v", err, boom)
	}
}

func TestSplitOrigins(t *testing.T) {
	tests := map[string][]string{
		"":                               nil,
		" , ":                            nil,
		"http://a.local":                 {"http://a.local"},
		"http://a.local, https://b:3000": {"http://a.local", "https://b:3000"},
	}
	for in, want := range tests {
		if got := splitOrigins(in); !slices.Equal(got, want) {
			t.Errorf("splitOrigins(%q) = %v, want %v", in, got, want)
		}
	}
}
