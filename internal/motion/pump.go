package motion

import (
	"context"
	"log"
	"strings"

	"github.com/banshee-data/swing.report/internal/monitoring"
	"github.com/banshee-data/swing.report/internal/serialmux"
	"github.com/banshee-data/swing.report/internal/swing"
)

// Sink accepts decoded samples. Enqueue reports false when the sample was
// dropped.
type Sink interface {
	Enqueue(swing.Sample) bool
}

// Pump decodes lines from src and hands samples to sink until ctx is done or
// the source closes. Malformed lines are counted on malformed, which may be
// nil.
func Pump(ctx context.Context, src Source, sink Sink, malformed *monitoring.QualityCounter) error {
	id, lines := src.Subscribe()
	defer src.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch serialmux.ClassifyPayload(line) {
			case serialmux.EventTypeSample:
				s, err := ParseSample(line)
				if err != nil {
					if malformed != nil {
						malformed.Inc(err.Error())
					}
					continue
				}
				sink.Enqueue(s)
			case serialmux.EventTypeStatus:
				log.Printf("sensor: %s", strings.TrimSpace(strings.TrimPrefix(line, "#")))
			case serialmux.EventTypeCapabilities:
				// Already consumed by Probe.
			default:
				if malformed != nil {
					malformed.Inc("unrecognised line")
				}
			}
		}
	}
}
