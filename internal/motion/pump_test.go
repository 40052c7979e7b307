package motion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/swing.report/internal/monitoring"
	"github.com/banshee-data/swing.report/internal/swing"
	"github.com/banshee-data/swing.report/internal/timeutil"
)

type sliceSink struct {
	samples []swing.Sample
	limit   int
}

func (s *sliceSink) Enqueue(sample swing.Sample) bool {
	if s.limit > 0 && len(s.samples) >= s.limit {
		return false
	}
	s.samples = append(s.samples, sample)
	return true
}

func TestPump(t *testing.T) {
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	defer func() { monitoring.Logf = original }()

	src := newScriptedSource()
	src.ch <- "0,0,0,1,0,0,0,0,0,0"
	src.ch <- "# battery 80%"
	src.ch <- "0,0,0,x,0,0,0,0,0,0"
	src.ch <- `{"t":0,"rot":[0,0,2],"acc":[0,0,0],"att":[0,0,0]}`
	src.ch <- "garbage"
	close(src.ch)

	sink := &sliceSink{}
	malformed := monitoring.NewQualityCounter("malformed", 1)
	require.NoError(t, Pump(context.Background(), src, sink, malformed))

	require.Len(t, sink.samples, 2)
	assert.Equal(t, 1.0, sink.samples[0].RotationRate.Z)
	assert.Equal(t, 2.0, sink.samples[1].RotationRate.Z)
	assert.Equal(t, uint64(2), malformed.Load())
}

func TestPump_ContextCancel(t *testing.T) {
	src := newScriptedSource()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Pump(ctx, src, &sliceSink{}, nil), context.Canceled)
}

func TestSyntheticLinesRecognised(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	lines := SyntheticLines(start)

	clock := timeutil.NewMockClock(start)
	r, err := swing.NewRecognizer(swing.DefaultConfig(), clock)
	require.NoError(t, err)

	var strokes []string
	for _, line := range lines {
		s, err := ParseSample(line)
		require.NoError(t, err)
		clock.Advance(SyntheticInterval)
		ev, err := r.ProcessSample(s)
		require.NoError(t, err)
		if ev != nil {
			strokes = append(strokes, ev.Type.String())
		}
	}
	assert.Equal(t, []string{"forehand", "backhand", "unknown", "forehand", "backhand"}, strokes)
}
