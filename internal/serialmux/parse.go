package serialmux

import "strings"

const (
	EventTypeSample       = "sample"
	EventTypeCapabilities = "capabilities"
	EventTypeStatus       = "status"
	EventTypeUnknown      = "unknown"
)

// ClassifyPayload sorts a line from the sensor by its shape. Samples are CSV
// rows starting with a number, or JSON objects carrying a "rot" field.
// Capability reports are JSON objects with a "sensors" field. Lines starting
// with "#" are device status messages.
func ClassifyPayload(payload string) string {
	p := strings.TrimSpace(payload)
	switch {
	case p == "":
		return EventTypeUnknown
	case strings.HasPrefix(p, "#"):
		return EventTypeStatus
	case strings.HasPrefix(p, "{"):
		if strings.Contains(p, `"sensors"`) {
			return EventTypeCapabilities
		}
		if strings.Contains(p, `"rot"`) {
			return EventTypeSample
		}
		return EventTypeUnknown
	case (p[0] >= '0' && p[0] <= '9') || p[0] == '-' || p[0] == '.':
		if strings.Count(p, ",") >= 9 {
			return EventTypeSample
		}
	}
	return EventTypeUnknown
}
