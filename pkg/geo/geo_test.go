package geo

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64 // km
		tolerance              float64
	}{
		{"same point", 12.9716, 77.5946, 12.9716, 77.5946, 0, 0.001},
		// Bangalore MG Road to Whitefield, roughly 14.5 km as the crow flies.
		{"across town", 12.9758, 77.6045, 12.9698, 77.7500, 15.8, 0.5},
		// One degree of latitude is ~111.19 km.
		{"one degree latitude", 0, 0, 1, 0, 111.19, 0.1},
		{"equator degree longitude", 0, 0, 0, 1, 111.19, 0.1},
	}
	for _, tt := range tests {
		got := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
		if math.Abs(got-tt.want) > tt.tolerance {
			t.Errorf("%s: DistanceKm = %.3f, want %.3f ± %.3f", tt.name, got, tt.want, tt.tolerance)
		}
	}
}

func TestDistanceKmSymmetry(t *testing.T) {
	ab := DistanceKm(12.9716, 77.5946, 13.0358, 77.5970)
	ba := DistanceKm(13.0358, 77.5970, 12.9716, 77.5946)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestEtaMinutes(t *testing.T) {
	tests := []struct {
		distanceKm float64
		speedKmh   float64
		want       int
	}{
		{5, 30, 10},   // 5/30*60 = 10
		{5, 20, 15},   // slower phase, longer ETA
		{2.5, 30, 5},  // exact division
		{2.6, 30, 6},  // rounds up
		{0.1, 30, 1},  // never below one minute
		{0, 30, 1},    // degenerate distance
		{5, 0, 1},     // degenerate speed
		{-1, 30, 1},   // negative input clamps
	}
	for _, tt := range tests {
		if got := EtaMinutes(tt.distanceKm, tt.speedKmh); got != tt.want {
			t.Errorf("EtaMinutes(%v, %v) = %d, want %d", tt.distanceKm, tt.speedKmh, got, tt.want)
		}
	}
}

func TestEtaMinutesDeterministic(t *testing.T) {
	first := EtaMinutes(7.3, 25)
	for i := 0; i < 100; i++ {
		if got := EtaMinutes(7.3, 25); got != first {
			t.Fatalf("EtaMinutes not deterministic: %d vs %d", got, first)
		}
	}
}

func TestFormatEtaMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "1 minute"},
		{1, "1 minute"},
		{8, "8 minutes"},
		{45, "45 minutes"},
	}
	for _, tt := range tests {
		if got := FormatEtaMinutes(tt.minutes); got != tt.want {
			t.Errorf("FormatEtaMinutes(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestRoundKm(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{5.04, 5.0},
		{5.05, 5.1},
		{8.999, 9.0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := RoundKm(tt.in); got != tt.want {
			t.Errorf("RoundKm(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
