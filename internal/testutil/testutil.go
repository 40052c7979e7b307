// Package testutil provides shared fixtures for tests: synthetic swing
// sample sequences and HTTP assertions.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/swing.report/internal/motion"
	"github.com/banshee-data/swing.report/internal/swing"
)

// SampleInterval is the spacing of the synthetic samples.
const SampleInterval = motion.SyntheticInterval

// Stroke returns the samples of one complete synthetic stroke, trigger
// included. direction > 0 is a forehand, < 0 a backhand, 0 unknown.
func Stroke(peakRate, direction float64) []swing.Sample {
	return motion.SyntheticStroke(peakRate, direction)
}

// Rest returns n motionless samples.
func Rest(n int) []swing.Sample {
	return make([]swing.Sample, n)
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// DecodeJSON decodes a recorded response body into v.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

// Serve runs req through h and returns the recorder.
func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
