package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/banshee-data/swing.report/internal/monitoring"
	"github.com/banshee-data/swing.report/internal/motion"
	"github.com/banshee-data/swing.report/internal/serialmux"
)

// startSampling starts the sensor stream and a pump feeding sink, but only
// when caps reports every channel. Otherwise the sensor is left stopped and
// false is returned. The pump goroutine is tracked on wg.
func startSampling(ctx context.Context, wg *sync.WaitGroup, sensor serialmux.SerialMuxInterface, caps motion.Capabilities, sink motion.Sink) (bool, error) {
	if caps.Err() != nil {
		return false, nil
	}
	if err := sensor.SendCommand(serialmux.StartCommand); err != nil {
		return false, fmt.Errorf("failed to start sensor stream: %w", err)
	}

	// decode sensor lines into samples for the session
	wg.Add(1)
	go func() {
		defer wg.Done()
		malformed := monitoring.NewQualityCounter("motion: malformed sensor lines", 100)
		if err := motion.Pump(ctx, sensor, sink, malformed); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("sample pump stopped: %v", err)
		}
		log.Print("pump routine terminated")
	}()
	return true, nil
}
