package models

// QuoteRequest is the input to the delivery fee engine. Exactly one of
// Coordinate or AddressID must be present.
type QuoteRequest struct {
	BranchID   string    `json:"branch_id" validate:"required"`
	CartValue  int64     `json:"cart_value" validate:"required,gt=0"`
	Coordinate *GeoPoint `json:"coordinate,omitempty"`
	AddressID  string    `json:"address_id,omitempty"`
}

// DeliveryQuote is a priced, non-persisted fee breakdown. It is recomputed
// whenever the (branch, cart value, destination) key changes and is never
// partially filled: callers get either the full breakdown or an error.
type DeliveryQuote struct {
	BaseFare            int64   `json:"base_fare"`
	DistanceSurcharge   int64   `json:"distance_surcharge"`
	SmallOrderSurcharge int64   `json:"small_order_surcharge"`
	FinalFee            int64   `json:"final_fee"`
	DistanceKm          float64 `json:"distance_km"`
}
