// Package geo holds the distance and ETA arithmetic shared by the quote
// engine, the branch estimator and the tracking broadcasts. Everything here
// is pure: same inputs, same outputs.
package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371

// DistanceKm returns the great-circle distance between two points using the
// haversine formula. Inputs are plain degrees. Accurate to well within GPS
// error for distances under ~50 km.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// RoundKm rounds a distance to one decimal for display and for quote
// breakdowns.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}

// EtaMinutes converts a distance into whole minutes at the given average
// speed, rounding up, never below one minute. The speed is a policy input
// chosen by the caller per order phase (travelling to pickup vs navigating
// to the customer).
func EtaMinutes(distanceKm, averageSpeedKmh float64) int {
	if averageSpeedKmh <= 0 || distanceKm <= 0 {
		return 1
	}
	m := int(math.Ceil(distanceKm / averageSpeedKmh * 60))
	if m < 1 {
		m = 1
	}
	return m
}

// FormatEtaMinutes renders a human ETA string.
func FormatEtaMinutes(minutes int) string {
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// FallbackEta is the deliberately vague string shown when no precise
// estimate is available.
const FallbackEta = "~20-30 mins"
