// Package monitoring carries the process-wide diagnostic logger and the
// counters used to report data-quality problems on the sample path.
package monitoring

import "log"

// Logf is where the sensor pipeline writes diagnostics. It starts as
// log.Printf; SetLogger swaps it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger redirects Logf. nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	Logf = f
}
