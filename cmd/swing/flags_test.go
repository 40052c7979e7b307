package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/swing.report/internal/motion"
	"github.com/banshee-data/swing.report/internal/publish"
	"github.com/banshee-data/swing.report/internal/serialmux"
)

// setFlag overrides a flag value for the duration of the test.
func setFlag[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

func TestFlagDefaults(t *testing.T) {
	if *listen != ":8080" {
		t.Errorf("expected listen default :8080, got %q", *listen)
	}
	if *dbPath != "swing.db" {
		t.Errorf("expected db-path default swing.db, got %q", *dbPath)
	}
	if *unitsFlag != "mps" {
		t.Errorf("expected units default mps, got %q", *unitsFlag)
	}
	if *mqttTopic != publish.DefaultTopic {
		t.Errorf("expected mqtt-topic default %q, got %q", publish.DefaultTopic, *mqttTopic)
	}
	if *probeTimeout != 3*time.Second {
		t.Errorf("expected probe-timeout default 3s, got %v", *probeTimeout)
	}
	if *devMode || *disableSensor || *showVersion {
		t.Error("expected boolean flags to default to false")
	}
	if err := validateFlags(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		set     func(t *testing.T)
		wantErr bool
	}{
		{"empty listen", func(t *testing.T) { setFlag(t, listen, "") }, true},
		{"empty port", func(t *testing.T) { setFlag(t, port, "") }, true},
		{"empty port in dev mode", func(t *testing.T) { setFlag(t, port, ""); setFlag(t, devMode, true) }, false},
		{"empty port with sensor disabled", func(t *testing.T) { setFlag(t, port, ""); setFlag(t, disableSensor, true) }, false},
		{"bad units", func(t *testing.T) { setFlag(t, unitsFlag, "knots") }, true},
		{"mph", func(t *testing.T) { setFlag(t, unitsFlag, "mph") }, false},
		{"zero probe timeout", func(t *testing.T) { setFlag(t, probeTimeout, 0) }, true},
		{"fixture without dev", func(t *testing.T) { setFlag(t, fixture, "lines.txt") }, true},
		{"fixture with dev", func(t *testing.T) { setFlag(t, fixture, "lines.txt"); setFlag(t, devMode, true) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.set(t)
			err := validateFlags()
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFixtureLines(t *testing.T) {
	lines, err := fixtureLines()
	if err != nil {
		t.Fatalf("synthetic fixture failed: %v", err)
	}
	if len(lines) == 0 {
		t.Fatal("expected synthetic lines")
	}
	if _, err := motion.ParseSample(lines[0]); err != nil {
		t.Errorf("synthetic line %q does not parse: %v", lines[0], err)
	}

	path := filepath.Join(t.TempDir(), "fixture.txt")
	if err := os.WriteFile(path, []byte("0,0,0,0,0,0,0,0,0,0\n\n1,0,0,0,0,0,0,0,0,0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	setFlag(t, fixture, path)
	lines, err = fixtureLines()
	if err != nil {
		t.Fatalf("fixtureLines failed: %v", err)
	}
	if len(lines) != 2 {
		t.Errorf("expected 2 lines with blanks dropped, got %d", len(lines))
	}

	setFlag(t, fixture, filepath.Join(t.TempDir(), "missing.txt"))
	if _, err := fixtureLines(); err == nil {
		t.Error("expected an error for a missing fixture file")
	}
}

func TestLoadTuning(t *testing.T) {
	cfg, err := loadTuning()
	if err != nil {
		t.Fatalf("loadTuning with no path failed: %v", err)
	}
	if _, err := cfg.RecognizerConfig(); err != nil {
		t.Errorf("built-in tuning should be valid: %v", err)
	}

	setFlag(t, configPath, "../../config/tuning.defaults.json")
	if _, err := loadTuning(); err != nil {
		t.Errorf("loading the shipped defaults failed: %v", err)
	}

	setFlag(t, configPath, "tuning.yaml")
	if _, err := loadTuning(); err == nil {
		t.Error("expected non-json config to be rejected")
	}
}

func TestOpenSensor(t *testing.T) {
	setFlag(t, disableSensor, true)
	s, err := openSensor(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("openSensor failed: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*serialmux.DisabledSerialMux); !ok {
		t.Errorf("expected a DisabledSerialMux, got %T", s)
	}

	setFlag(t, disableSensor, false)
	setFlag(t, devMode, true)
	m, err := openSensor(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("openSensor in dev mode failed: %v", err)
	}
	defer m.Close()
	if _, ok := m.(*serialmux.SerialMux[*serialmux.MockSerialPort]); !ok {
		t.Errorf("expected a mock mux, got %T", m)
	}
}
