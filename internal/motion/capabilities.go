package motion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/banshee-data/swing.report/internal/monitoring"
	"github.com/banshee-data/swing.report/internal/serialmux"
)

// ErrSensorUnavailable means a sensor channel the recogniser needs is
// missing. It is reported once, before samples start flowing.
var ErrSensorUnavailable = errors.New("sensor unavailable")

// Capabilities reports which sensor channels the device provides.
type Capabilities struct {
	Accelerometer bool `json:"accelerometer"`
	Gyroscope     bool `json:"gyroscope"`
	Orientation   bool `json:"orientation"`
}

// Available reports whether every channel is present.
func (c Capabilities) Available() bool {
	return c.Accelerometer && c.Gyroscope && c.Orientation
}

// Missing lists the absent channels.
func (c Capabilities) Missing() []string {
	var missing []string
	if !c.Accelerometer {
		missing = append(missing, "accelerometer")
	}
	if !c.Gyroscope {
		missing = append(missing, "gyroscope")
	}
	if !c.Orientation {
		missing = append(missing, "orientation")
	}
	return missing
}

// Err returns nil when all channels are present, otherwise an error wrapping
// ErrSensorUnavailable naming the missing ones.
func (c Capabilities) Err() error {
	if c.Available() {
		return nil
	}
	return fmt.Errorf("%w: missing %s", ErrSensorUnavailable, strings.Join(c.Missing(), ", "))
}

// ParseCapabilities decodes a {"sensors":{...}} report.
func ParseCapabilities(line string) (Capabilities, error) {
	var report struct {
		Sensors *Capabilities `json:"sensors"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &report); err != nil {
		return Capabilities{}, fmt.Errorf("failed to parse capability report: %w", err)
	}
	if report.Sensors == nil {
		return Capabilities{}, errors.New("capability report has no sensors field")
	}
	return *report.Sensors, nil
}

// Source is the part of the serial mux the motion package needs.
type Source interface {
	Subscribe() (string, chan string)
	Unsubscribe(string)
	SendCommand(string) error
}

// Probe asks the device for its capabilities and waits up to timeout for
// the report. If none arrives, every channel is reported missing. Any other
// lines read while waiting are discarded and their count logged.
func Probe(ctx context.Context, src Source, timeout time.Duration) (Capabilities, error) {
	id, lines := src.Subscribe()
	defer src.Unsubscribe(id)

	skipped := 0
	defer func() {
		if skipped > 0 {
			monitoring.Logf("motion: discarded %d sensor lines while waiting for the capability report", skipped)
		}
	}()

	if err := src.SendCommand(serialmux.QueryCapabilitiesCommand); err != nil {
		return Capabilities{}, fmt.Errorf("failed to query sensor capabilities: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return Capabilities{}, fmt.Errorf("%w: no capability report within %v", ErrSensorUnavailable, timeout)
			}
			return Capabilities{}, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return Capabilities{}, fmt.Errorf("%w: sensor closed before reporting", ErrSensorUnavailable)
			}
			if serialmux.ClassifyPayload(line) != serialmux.EventTypeCapabilities {
				skipped++
				continue
			}
			caps, err := ParseCapabilities(line)
			if err != nil {
				return Capabilities{}, err
			}
			return caps, caps.Err()
		}
	}
}
