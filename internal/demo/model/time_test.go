package model_test

import (
	"testing"
	"time"

	"evdemo/internal/demo/model"
)

func TestToDateTime(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2023-01-23T18:00:00Z", want: time.Date(2023, 1, 23, 18, 0, 0, 0, time.UTC)},
		{in: "2023-01-23T20:00:00+02:00", want: time.Date(2023, 1, 23, 18, 0, 0, 0, time.UTC)},
		{in: "2023-01-23T18:00:00", want: time.Date(2023, 1, 23, 18, 0, 0, 0, time.UTC)},
		{in: "23.1.2023 18:00", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := model.ToDateTime(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ToDateTime(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ToDateTime(%q) returned error: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ToDateTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFromDateTime(t *testing.T) {
	ts := time.Date(2023, 1, 23, 20, 0, 0, 0, time.FixedZone("EET", 2*3600))
	if got := model.FromDateTime(ts); got != "2023-01-23T18:00:00Z" {
		t.Fatalf("FromDateTime = %q", got)
	}
}

func TestSimulationID(t *testing.T) {
	ts := time.Date(2023, 1, 23, 18, 0, 0, 42*int(time.Millisecond), time.UTC)
	if got := model.SimulationID(ts); got != "2023-01-23T18:00:00.042Z" {
		t.Fatalf("SimulationID = %q", got)
	}
}
