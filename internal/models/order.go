package models

import "time"

// OrderStatus is the canonical lifecycle state of an order, shared by the
// customer app, the delivery partner app and dispatch.
type OrderStatus string

const (
	// StatusAvailable is the initial state: created, unassigned, waiting
	// for a delivery partner to accept.
	StatusAvailable OrderStatus = "available"
	// StatusConfirmed means a partner has accepted and is bound to the order.
	StatusConfirmed OrderStatus = "confirmed"
	// StatusArriving means the bound partner has picked up and is en route.
	StatusArriving OrderStatus = "arriving"
	// StatusDelivered is the successful terminal state.
	StatusDelivered OrderStatus = "delivered"
	// StatusCancelled is the terminal abort state, reachable from any
	// non-terminal state.
	StatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// OrderItem is one line of an order: a product reference and a quantity.
type OrderItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
}

// Order is the single source of truth for one delivery. CourierLocation is
// only meaningful once DeliveryPartnerID is set.
type Order struct {
	ID                string      `json:"id"`
	CustomerID        string      `json:"customer_id"`
	BranchID          string      `json:"branch_id"`
	DeliveryPartnerID *string     `json:"delivery_partner_id,omitempty"`
	Status            OrderStatus `json:"status"`
	Items             []OrderItem `json:"items"`
	TotalPrice        int64       `json:"total_price"`
	DeliveryFee       int64       `json:"delivery_fee"`
	PickupLocation    GeoPoint    `json:"pickup_location"`
	DeliveryLocation  GeoPoint    `json:"delivery_location"`
	DeliveryAddress   string      `json:"delivery_address,omitempty"`
	CourierLocation   *GeoPoint   `json:"courier_location,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// CreateOrderRequest is the customer checkout payload. Exactly one of
// Coordinate or AddressID must be supplied.
type CreateOrderRequest struct {
	BranchID   string      `json:"branch_id" validate:"required"`
	Items      []OrderItem `json:"items" validate:"required,min=1,dive"`
	CartValue  int64       `json:"cart_value" validate:"required,gt=0"`
	Coordinate *GeoPoint   `json:"coordinate,omitempty"`
	AddressID  string      `json:"address_id,omitempty"`
}

// StatusUpdateRequest is a delivery partner's transition attempt. Every
// non-cancellation transition must carry the partner's current coordinate;
// the fields are pointers so an omitted value is never mistaken for (0,0).
type StatusUpdateRequest struct {
	Status    OrderStatus `json:"status" validate:"required,oneof=confirmed arriving delivered"`
	Latitude  *float64    `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64    `json:"longitude" validate:"required,gte=-180,lte=180"`
}

// Point returns the coordinate carried with the transition. An omitted
// coordinate maps to an out-of-range point so the Valid guards reject it.
func (r StatusUpdateRequest) Point() GeoPoint {
	if r.Latitude == nil || r.Longitude == nil {
		return GeoPoint{Latitude: -91, Longitude: -181}
	}
	return GeoPoint{Latitude: *r.Latitude, Longitude: *r.Longitude}
}
