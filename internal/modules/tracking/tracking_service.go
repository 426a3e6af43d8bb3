package tracking

import (
	"context"

	"grocery-dispatch/internal/models"
)

// OrderRecorderInterface is the slice of the orders module the channel
// needs: persist the latest partner position (last-write-wins) and get back
// the update to broadcast. The order row stays the single source of truth;
// the hub is only an overlay on top of it.
type OrderRecorderInterface interface {
	RecordLocation(ctx context.Context, sample models.LocationSample) (models.TrackingUpdate, error)
}

// ServiceInterface defines the live-location channel operations.
type ServiceInterface interface {
	Publish(ctx context.Context, sample models.LocationSample) (models.TrackingUpdate, error)
	Subscribe(orderID string) *Subscriber
	Unsubscribe(sub *Subscriber)
}

// Service persists inbound samples and re-broadcasts them to the order's
// room.
type Service struct {
	orders OrderRecorderInterface
	hub    *Hub
}

// NewService creates the channel service around a hub.
func NewService(orders OrderRecorderInterface, hub *Hub) *Service {
	return &Service{orders: orders, hub: hub}
}

// Publish handles one inbound position sample from a delivery partner:
// persist first, then fan out. A sample from anyone but the bound partner
// is rejected by the recorder and never broadcast.
func (s *Service) Publish(ctx context.Context, sample models.LocationSample) (models.TrackingUpdate, error) {
	update, err := s.orders.RecordLocation(ctx, sample)
	if err != nil {
		return models.TrackingUpdate{}, err
	}
	s.hub.Broadcast(update)
	return update, nil
}

// Subscribe joins the order's room.
func (s *Service) Subscribe(orderID string) *Subscriber {
	return s.hub.Subscribe(orderID)
}

// Unsubscribe leaves the room.
func (s *Service) Unsubscribe(sub *Subscriber) {
	s.hub.Unsubscribe(sub)
}
