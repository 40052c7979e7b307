package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/swing.report/internal/api"
	"github.com/banshee-data/swing.report/internal/config"
	"github.com/banshee-data/swing.report/internal/db"
	"github.com/banshee-data/swing.report/internal/motion"
	"github.com/banshee-data/swing.report/internal/publish"
	"github.com/banshee-data/swing.report/internal/serialmux"
	"github.com/banshee-data/swing.report/internal/session"
	"github.com/banshee-data/swing.report/internal/swing"
	"github.com/banshee-data/swing.report/internal/timeutil"
	"github.com/banshee-data/swing.report/internal/units"
	"github.com/banshee-data/swing.report/internal/version"
)

var (
	devMode        = flag.Bool("dev", false, "Replay fixture lines instead of opening the serial port")
	fixture        = flag.String("fixture", "", "Fixture file of sensor lines for --dev (default: a synthetic rally)")
	listen         = flag.String("listen", ":8080", "Listen address")
	port           = flag.String("port", "/dev/ttyACM0", "Serial port of the wrist sensor (ignored in dev mode)")
	baud           = flag.Int("baud", 115200, "Serial baud rate")
	dbPath         = flag.String("db-path", "swing.db", "Path to the sqlite database")
	configPath     = flag.String("config", "", "Tuning config JSON (default: built-in values)")
	unitsFlag      = flag.String("units", units.MPS, "Speed units for the API: "+units.ValidUnitsString())
	timezone       = flag.String("timezone", "", "Timezone for training days (overrides the tuning config)")
	mqttBroker     = flag.String("mqtt-broker", "", "MQTT broker URL, e.g. tcp://localhost:1883 (empty disables publishing)")
	mqttTopic      = flag.String("mqtt-topic", publish.DefaultTopic, "MQTT topic for finished swings")
	disableSensor  = flag.Bool("disable-sensor", false, "Run without a sensor, serving stored data only")
	probeTimeout   = flag.Duration("probe-timeout", 3*time.Second, "How long to wait for the sensor capability report")
	showVersion    = flag.Bool("version", false, "Print version and exit")
	listPorts      = flag.Bool("list-ports", false, "List the serial ports on this machine and exit")
	allowedOrigins = flag.String("allowed-origins", "", "Comma-separated extra origins allowed to open /api/live (default: same origin only)")
)

// validateFlags checks flag combinations before anything is opened.
func validateFlags() error {
	if *listen == "" {
		return errors.New("listen address is required")
	}
	if !*devMode && !*disableSensor && *port == "" {
		return errors.New("serial port is required")
	}
	if !units.IsValid(*unitsFlag) {
		return fmt.Errorf("invalid units %q, must be one of: %s", *unitsFlag, units.ValidUnitsString())
	}
	if *probeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %v", *probeTimeout)
	}
	if *fixture != "" && !*devMode {
		return errors.New("--fixture requires --dev")
	}
	return nil
}

func loadTuning() (*config.TuningConfig, error) {
	if *configPath == "" {
		return config.EmptyTuningConfig(), nil
	}
	return config.LoadTuningConfig(*configPath)
}

// fixtureLines returns the lines replayed in dev mode.
func fixtureLines() ([]string, error) {
	if *fixture == "" {
		return motion.SyntheticLines(time.Now()), nil
	}
	data, err := os.ReadFile(*fixture)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures file: %w", err)
	}
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("fixtures file %s is empty", *fixture)
	}
	return lines, nil
}

func openSensor(sampleInterval time.Duration) (serialmux.SerialMuxInterface, error) {
	switch {
	case *disableSensor:
		return serialmux.NewDisabledSerialMux(), nil
	case *devMode:
		lines, err := fixtureLines()
		if err != nil {
			return nil, err
		}
		return serialmux.NewMockSerialMux(lines, sampleInterval), nil
	default:
		return serialmux.NewRealSerialMux(*port, serialmux.PortOptions{BaudRate: *baud})
	}
}

// printPorts writes one serial port per line.
func printPorts(out io.Writer, list func() ([]string, error)) error {
	ports, err := list()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(out, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(out, p)
	}
	return nil
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Main
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *listPorts {
		if err := printPorts(os.Stdout, serialmux.ListPorts); err != nil {
			log.Fatal(err)
		}
		return
	}
	if flag.NArg() > 0 && flag.Arg(0) == "migrate" {
		if err := db.RunMigrateCommand(flag.Args()[1:], *dbPath, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}
	if err := validateFlags(); err != nil {
		log.Fatal(err)
	}
	log.Printf("starting %s", version.String())

	tuning, err := loadTuning()
	if err != nil {
		log.Fatalf("failed to load tuning config: %v", err)
	}
	recCfg, err := tuning.RecognizerConfig()
	if err != nil {
		log.Fatalf("invalid recogniser config: %v", err)
	}
	tzName := tuning.GetTimezone()
	if *timezone != "" {
		tzName = *timezone
	}
	loc, err := units.LoadTimezone(tzName)
	if err != nil {
		log.Fatal(err)
	}

	sampleInterval := time.Second / time.Duration(tuning.GetSampleRateHz())
	sensor, err := openSensor(sampleInterval)
	if err != nil {
		log.Fatalf("failed to open sensor: %v", err)
	}
	defer sensor.Close()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	clock := timeutil.RealClock{}
	rec, err := swing.NewRecognizer(recCfg, clock)
	if err != nil {
		log.Fatalf("failed to create recogniser: %v", err)
	}

	live := api.NewLiveHub(*unitsFlag, splitOrigins(*allowedOrigins)...)
	sinks := []session.Sink{database, live}
	if *mqttBroker != "" {
		pub, err := publish.NewMQTTPublisher(publish.Options{Broker: *mqttBroker, Topic: *mqttTopic})
		if err != nil {
			log.Fatalf("failed to connect to MQTT broker: %v", err)
		}
		defer pub.Close()
		sinks = append(sinks, pub)
		log.Printf("publishing swings to %s on %s", *mqttBroker, pub.Topic())
	}

	sess, err := session.New(rec, clock, session.Options{
		QueueSize:    tuning.GetQueueSize(),
		TickInterval: tuning.GetTickInterval(),
		Sinks:        sinks,
	})
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	if err := database.StartSession(context.Background(), sess.ID(), sess.StartedAt()); err != nil {
		log.Fatalf("failed to record session start: %v", err)
	}
	log.Printf("training session %s started", sess.ID())

	server := api.NewServer(api.Options{
		DB:       database,
		Session:  sess,
		Live:     live,
		Tuning:   tuning,
		Units:    *unitsFlag,
		Location: loc,
		Clock:    clock,
	})

	// Create a wait group for the HTTP server, serial monitor, sample pump
	// and session routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sensor.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor serial port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	var caps motion.Capabilities
	if !*disableSensor {
		if err := sensor.Initialise(tuning.GetSampleRateHz()); err != nil {
			log.Fatalf("failed to initialise sensor: %v", err)
		}
		caps, err = motion.Probe(ctx, sensor, *probeTimeout)
		server.SetCapabilities(caps)
		if err != nil {
			log.Printf("WARNING: %v", err)
		}
	}

	// the session loop owns the recogniser
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("session stopped: %v", err)
		}
		snap := sess.Snapshot()
		endCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := database.EndSession(endCtx, snap.ID, time.Now(), snap.Stats); err != nil {
			log.Printf("failed to record session end: %v", err)
		}
		log.Printf("session routine terminated after %d swings", snap.Stats.Total)
	}()

	started, err := startSampling(ctx, &wg, sensor, caps, sess)
	switch {
	case err != nil:
		log.Printf("WARNING: %v; serving stored swings only", err)
	case started:
		log.Printf("sensor ready: accelerometer, gyroscope and orientation available")
	default:
		log.Printf("sensor stream not started; serving stored swings only")
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := server.ServeMux()
		sensor.AttachAdminRoutes(mux)
		server.AttachAdminRoutes(mux)
		if err := database.AttachAdminRoutes(mux); err != nil {
			log.Printf("failed to attach database admin routes: %v", err)
		}

		httpServer := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()
		log.Printf("listening on %s", *listen)

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := httpServer.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
