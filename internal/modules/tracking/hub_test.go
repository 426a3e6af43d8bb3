package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"grocery-dispatch/internal/models"
)

func update(orderID string, n int) models.TrackingUpdate {
	return models.TrackingUpdate{
		OrderID:    orderID,
		Status:     models.StatusArriving,
		Location:   models.GeoPoint{Latitude: 12.97 + float64(n)/1000, Longitude: 77.59},
		RecordedAt: time.Unix(int64(n), 0),
	}
}

func TestBroadcastOrderPerRoom(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("o1")
	defer hub.Unsubscribe(sub)

	for i := 0; i < 10; i++ {
		hub.Broadcast(update("o1", i))
	}

	for i := 0; i < 10; i++ {
		select {
		case got := <-sub.Updates:
			if got.RecordedAt.Unix() != int64(i) {
				t.Fatalf("update %d arrived out of order: %v", i, got.RecordedAt.Unix())
			}
		default:
			t.Fatalf("missing update %d", i)
		}
	}
}

func TestBroadcastFanOutAndRoomIsolation(t *testing.T) {
	hub := NewHub()
	a1 := hub.Subscribe("o1")
	a2 := hub.Subscribe("o1")
	b := hub.Subscribe("o2")
	defer hub.Unsubscribe(a1)
	defer hub.Unsubscribe(a2)
	defer hub.Unsubscribe(b)

	hub.Broadcast(update("o1", 1))

	for _, sub := range []*Subscriber{a1, a2} {
		select {
		case got := <-sub.Updates:
			if got.OrderID != "o1" {
				t.Errorf("wrong room: %s", got.OrderID)
			}
		default:
			t.Error("o1 subscriber missed the update")
		}
	}

	select {
	case got := <-b.Updates:
		t.Errorf("o2 subscriber received o1 update: %+v", got)
	default:
	}
}

func TestUnsubscribeStopsDeliveryAndEmptiesRoom(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("o1")

	hub.Unsubscribe(sub)
	if size := hub.RoomSize("o1"); size != 0 {
		t.Fatalf("room size after unsubscribe = %d", size)
	}

	// Channel is closed: receives complete immediately with zero values.
	if _, ok := <-sub.Updates; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}

	// Broadcasting into the now-empty room must not panic.
	hub.Broadcast(update("o1", 1))

	// Unsubscribing twice is safe.
	hub.Unsubscribe(sub)
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe("o1")
	defer hub.Unsubscribe(slow)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Far more updates than the subscriber buffer holds; the publisher
		// must never block.
		for i := 0; i < subscriberBuffer*10; i++ {
			hub.Broadcast(update("o1", i))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	// The subscriber still sees a prefix-consistent, in-order stream.
	last := int64(-1)
	for {
		select {
		case got := <-slow.Updates:
			if got.RecordedAt.Unix() <= last {
				t.Fatalf("out of order after drops: %d then %d", last, got.RecordedAt.Unix())
			}
			last = got.RecordedAt.Unix()
		default:
			return
		}
	}
}

func TestConcurrentSubscribeBroadcast(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			orderID := fmt.Sprintf("o%d", i%2)
			sub := hub.Subscribe(orderID)
			for j := 0; j < 50; j++ {
				hub.Broadcast(update(orderID, j))
			}
			hub.Unsubscribe(sub)
		}(i)
	}
	wg.Wait()

	if hub.RoomSize("o0") != 0 || hub.RoomSize("o1") != 0 {
		t.Fatal("rooms not empty after all unsubscribes")
	}
}

// recorderStub pretends to be the orders module: it applies last-write-wins
// and rejects samples from anyone but the bound partner.
type recorderStub struct {
	mu      sync.Mutex
	bound   string
	status  models.OrderStatus
	latest  models.GeoPoint
	applied int
}

func (r *recorderStub) RecordLocation(_ context.Context, s models.LocationSample) (models.TrackingUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.PartnerID != r.bound {
		return models.TrackingUpdate{}, models.ErrNotFound
	}
	r.latest = s.Point()
	r.applied++
	return models.TrackingUpdate{OrderID: s.OrderID, Status: r.status, Location: r.latest, RecordedAt: s.RecordedAt}, nil
}

func TestPublishPersistsThenBroadcasts(t *testing.T) {
	rec := &recorderStub{bound: "p1", status: models.StatusArriving}
	svc := NewService(rec, NewHub())

	sub := svc.Subscribe("o1")
	defer svc.Unsubscribe(sub)

	upd, err := svc.Publish(context.Background(), models.LocationSample{
		OrderID: "o1", PartnerID: "p1", Latitude: 12.98, Longitude: 77.6, RecordedAt: time.Unix(42, 0),
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if upd.Status != models.StatusArriving {
		t.Errorf("update status = %s", upd.Status)
	}

	select {
	case got := <-sub.Updates:
		if got.Location != (models.GeoPoint{Latitude: 12.98, Longitude: 77.6}) {
			t.Errorf("broadcast location = %+v", got.Location)
		}
	default:
		t.Fatal("no broadcast after publish")
	}
}

func TestPublishFromUnboundPartnerNotBroadcast(t *testing.T) {
	rec := &recorderStub{bound: "p1", status: models.StatusConfirmed}
	svc := NewService(rec, NewHub())

	sub := svc.Subscribe("o1")
	defer svc.Unsubscribe(sub)

	_, err := svc.Publish(context.Background(), models.LocationSample{OrderID: "o1", PartnerID: "intruder", Latitude: 1, Longitude: 1})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	select {
	case got := <-sub.Updates:
		t.Fatalf("rejected sample was broadcast: %+v", got)
	default:
	}
}

func TestPublishLastWriteWins(t *testing.T) {
	rec := &recorderStub{bound: "p1", status: models.StatusArriving}
	svc := NewService(rec, NewHub())

	for i := 0; i < 5; i++ {
		if _, err := svc.Publish(context.Background(), models.LocationSample{
			OrderID: "o1", PartnerID: "p1", Latitude: float64(i), Longitude: 77, RecordedAt: time.Unix(int64(i), 0),
		}); err != nil {
			t.Fatalf("Publish #%d: %v", i, err)
		}
	}

	if rec.latest.Latitude != 4 {
		t.Errorf("retained sample latitude = %v, want the last write (4)", rec.latest.Latitude)
	}
	if rec.applied != 5 {
		t.Errorf("applied = %d, want 5", rec.applied)
	}
}
