package tracking

import (
	"sync"

	"grocery-dispatch/internal/models"

	"github.com/google/uuid"
)

// subscriberBuffer is how many pending updates a slow subscriber may lag
// behind before updates are dropped for it. The channel is best-effort: a
// subscriber that misses broadcasts recovers by refetching the order.
const subscriberBuffer = 16

// Hub fans location/status updates out to room subscribers. A room is keyed
// by order id and exists only while it has subscribers; membership is used
// purely for fan-out, never for state ownership, so a vanished subscriber
// needs no leave handshake.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[string]*Subscriber
}

// Subscriber is one client's membership in a room. Updates arrives in
// emission order; when the subscriber falls more than subscriberBuffer
// behind, intermediate updates are dropped.
type Subscriber struct {
	ID      string
	Updates <-chan models.TrackingUpdate

	orderID string
	ch      chan models.TrackingUpdate
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]*Subscriber)}
}

// Subscribe joins the room for the given order.
func (h *Hub) Subscribe(orderID string) *Subscriber {
	ch := make(chan models.TrackingUpdate, subscriberBuffer)
	sub := &Subscriber{
		ID:      uuid.NewString(),
		Updates: ch,
		orderID: orderID,
		ch:      ch,
	}

	h.mu.Lock()
	room, ok := h.rooms[orderID]
	if !ok {
		room = make(map[string]*Subscriber)
		h.rooms[orderID] = room
	}
	room[sub.ID] = sub
	h.mu.Unlock()

	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call
// once per subscriber.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	room, ok := h.rooms[sub.orderID]
	if ok {
		if _, member := room[sub.ID]; member {
			delete(room, sub.ID)
			close(sub.ch)
		}
		if len(room) == 0 {
			delete(h.rooms, sub.orderID)
		}
	}
	h.mu.Unlock()
}

// Broadcast delivers an update to every subscriber of the order's room.
// Sends happen under the hub lock so updates are observed in emission order
// per room; a full subscriber buffer drops the update for that subscriber
// rather than blocking the publisher.
func (h *Hub) Broadcast(update models.TrackingUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.rooms[update.OrderID] {
		select {
		case sub.ch <- update:
		default:
		}
	}
}

// RoomSize reports the current number of subscribers for an order.
func (h *Hub) RoomSize(orderID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[orderID])
}
