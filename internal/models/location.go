package models

import "time"

// GeoPoint is a plain WGS84 coordinate in degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point is inside the normal coordinate range.
func (p GeoPoint) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// LocationSample is a single position report from a delivery partner's
// device. Only the latest sample per order is retained; older samples are
// discarded (last-write-wins).
type LocationSample struct {
	OrderID    string    `json:"order_id"`
	PartnerID  string    `json:"partner_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Point returns the sample's coordinate.
func (s LocationSample) Point() GeoPoint {
	return GeoPoint{Latitude: s.Latitude, Longitude: s.Longitude}
}

// TrackingUpdate is the outbound event broadcast to every subscriber of an
// order's room after a location sample has been persisted.
type TrackingUpdate struct {
	OrderID    string      `json:"order_id"`
	Status     OrderStatus `json:"status"`
	Location   GeoPoint    `json:"location"`
	RecordedAt time.Time   `json:"recorded_at"`
}
