package serialmux

import "testing"

func TestClassifyPayload(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{"12.345,0.1,0.2,-3.4,0.01,0.02,1.2,0.1,0,3.1", EventTypeSample},
		{"-0.5,0,0,0,0,0,0,0,0,0", EventTypeSample},
		{`{"t":1.5,"rot":[0,0,1],"acc":[0,0,0],"att":[0,0,0]}`, EventTypeSample},
		{`{"sensors":{"accelerometer":true,"gyroscope":true,"orientation":false}}`, EventTypeCapabilities},
		{"# firmware 1.4.2", EventTypeStatus},
		{"1,2,3", EventTypeUnknown},
		{`{"battery":0.8}`, EventTypeUnknown},
		{"", EventTypeUnknown},
		{"OK", EventTypeUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyPayload(tt.payload); got != tt.want {
			t.Errorf("ClassifyPayload(%q) = %q, want %q", tt.payload, got, tt.want)
		}
	}
}
