package models

import "time"

// Branch is a dispatch/fulfillment location. Its fee parameters are
// immutable for the duration of a quote.
type Branch struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// MaxDistanceKm is the coverage limit: no quote is produced for a
	// delivery point farther than this.
	MaxDistanceKm float64 `json:"max_distance_km"`
	// BaseFare is the flat component of every delivery fee.
	BaseFare int64 `json:"base_fare"`
	// FreeRadiusKm is the distance included in the base fare; PerKmFee is
	// charged per started km beyond it.
	FreeRadiusKm float64 `json:"free_radius_km"`
	PerKmFee     int64   `json:"per_km_fee"`
	// SmallOrderFloor is the cart value under which SmallOrderFee applies.
	SmallOrderFloor int64 `json:"small_order_floor"`
	SmallOrderFee   int64 `json:"small_order_fee"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Point returns the branch coordinate.
func (b Branch) Point() GeoPoint {
	return GeoPoint{Latitude: b.Latitude, Longitude: b.Longitude}
}

// BranchEstimate is the answer to "which branch would serve this point, and
// how soon": the server half of the client ETA flow.
type BranchEstimate struct {
	BranchID   string  `json:"branch_id"`
	BranchName string  `json:"branch_name"`
	DistanceKm float64 `json:"distance_km"`
	EtaMinutes int     `json:"eta_minutes"`
}

// EstimateRequest asks for the nearest in-coverage branch for a coordinate.
type EstimateRequest struct {
	Latitude  float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}
