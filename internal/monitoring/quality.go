package monitoring

import "sync/atomic"

// QualityCounter counts recoverable data-quality events such as dropped or
// invalid samples. It logs the first occurrence and then every Every-th, so a
// misbehaving sensor cannot flood the log at 100 Hz.
type QualityCounter struct {
	Name  string
	Every uint64

	n atomic.Uint64
}

// NewQualityCounter returns a counter that logs under name every n events.
func NewQualityCounter(name string, every uint64) *QualityCounter {
	if every == 0 {
		every = 1
	}
	return &QualityCounter{Name: name, Every: every}
}

// Inc records one event. detail is included in the log line when one is
// emitted.
func (q *QualityCounter) Inc(detail string) uint64 {
	n := q.n.Add(1)
	every := q.Every
	if every == 0 {
		every = 1
	}
	if n == 1 || n%every == 0 {
		if detail != "" {
			Logf("%s: %d total (%s)", q.Name, n, detail)
		} else {
			Logf("%s: %d total", q.Name, n)
		}
	}
	return n
}

// Load returns the number of events recorded.
func (q *QualityCounter) Load() uint64 {
	return q.n.Load()
}
