package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"grocery-dispatch/internal/models"
)

type fakeQuoteFetcher struct {
	mu    sync.Mutex
	quote *models.DeliveryQuote
	err   error
	calls int

	started chan struct{}
	release chan struct{}
}

func (f *fakeQuoteFetcher) FetchQuote(_ context.Context, _ models.QuoteRequest) (*models.DeliveryQuote, error) {
	f.mu.Lock()
	f.calls++
	started, release := f.started, f.release
	f.started, f.release = nil, nil
	quote, err := f.quote, f.err
	f.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	if quote == nil {
		return nil, err
	}
	out := *quote
	return &out, err
}

func (f *fakeQuoteFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testQuote(fee int64) *models.DeliveryQuote {
	return &models.DeliveryQuote{BaseFare: 20, FinalFee: fee, DistanceKm: 3.0}
}

func TestQuoteDisabledWithoutInputs(t *testing.T) {
	fetcher := &fakeQuoteFetcher{quote: testQuote(45)}
	c := NewQuoteCoordinator(fetcher, time.Second)
	coord := &models.GeoPoint{Latitude: 1, Longitude: 1}

	tests := []struct {
		name      string
		branchID  string
		coord     *models.GeoPoint
		addressID string
	}{
		{"no branch", "", coord, ""},
		{"no destination", "b1", nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := c.SetInputs(context.Background(), tc.branchID, 150, tc.coord, tc.addressID)
			if !state.Disabled {
				t.Fatalf("state not disabled: %+v", state)
			}
		})
	}
	if fetcher.callCount() != 0 {
		t.Errorf("disabled coordinator issued %d fetches", fetcher.callCount())
	}
}

func TestQuoteMemoizedByKey(t *testing.T) {
	fetcher := &fakeQuoteFetcher{quote: testQuote(45)}
	c := NewQuoteCoordinator(fetcher, time.Second)
	coord := &models.GeoPoint{Latitude: 12.98, Longitude: 77.60}

	first := c.SetInputs(context.Background(), "b1", 150, coord, "")
	if first.Quote == nil || first.Quote.FinalFee != 45 {
		t.Fatalf("unexpected first state: %+v", first)
	}

	// Same key again and again: no further network calls.
	for i := 0; i < 5; i++ {
		c.SetInputs(context.Background(), "b1", 150, coord, "")
	}
	if fetcher.callCount() != 1 {
		t.Fatalf("calls = %d, want 1", fetcher.callCount())
	}
}

func TestQuoteRefetchesOnKeyChange(t *testing.T) {
	fetcher := &fakeQuoteFetcher{quote: testQuote(45)}
	c := NewQuoteCoordinator(fetcher, time.Second)
	coord := &models.GeoPoint{Latitude: 12.98, Longitude: 77.60}

	c.SetInputs(context.Background(), "b1", 150, coord, "")
	c.SetInputs(context.Background(), "b1", 250, coord, "") // cart changed
	c.SetInputs(context.Background(), "b1", 250, nil, "addr-1")
	if fetcher.callCount() != 3 {
		t.Fatalf("calls = %d, want 3", fetcher.callCount())
	}
}

func TestQuoteErrorSurfacedVerbatim(t *testing.T) {
	wantErr := &models.DistanceExceededError{MaxDistanceKm: 8, DistanceKm: 9.0}
	fetcher := &fakeQuoteFetcher{err: wantErr}
	c := NewQuoteCoordinator(fetcher, time.Second)

	state := c.SetInputs(context.Background(), "b1", 150, &models.GeoPoint{Latitude: 1, Longitude: 1}, "")
	var got *models.DistanceExceededError
	if !errors.As(state.Err, &got) {
		t.Fatalf("state.Err = %v, want DistanceExceededError", state.Err)
	}
	if got.MaxDistanceKm != 8 || got.DistanceKm != 9.0 {
		t.Errorf("error context lost: %+v", got)
	}
}

func TestQuoteErrorMemoizedUntilKeyChange(t *testing.T) {
	fetcher := &fakeQuoteFetcher{err: &models.DistanceExceededError{MaxDistanceKm: 8, DistanceKm: 9.0}}
	c := NewQuoteCoordinator(fetcher, time.Second)
	coord := &models.GeoPoint{Latitude: 1, Longitude: 1}

	// A coverage failure is recoverable only by changing the inputs, so
	// repeating the same key must not hit the network again.
	for i := 0; i < 3; i++ {
		state := c.SetInputs(context.Background(), "b1", 150, coord, "")
		var de *models.DistanceExceededError
		if !errors.As(state.Err, &de) {
			t.Fatalf("state.Err = %v, want DistanceExceededError", state.Err)
		}
	}
	if fetcher.callCount() != 1 {
		t.Fatalf("same key issued %d fetches, want 1", fetcher.callCount())
	}

	// A changed key clears the memoized error and fetches fresh.
	fetcher.mu.Lock()
	fetcher.err = nil
	fetcher.quote = testQuote(45)
	fetcher.mu.Unlock()

	nearer := &models.GeoPoint{Latitude: 1.01, Longitude: 1}
	state := c.SetInputs(context.Background(), "b1", 150, nearer, "")
	if state.Err != nil || state.Quote == nil {
		t.Fatalf("key change did not refetch: %+v", state)
	}
	if fetcher.callCount() != 2 {
		t.Fatalf("calls = %d, want 2", fetcher.callCount())
	}
}

func TestQuoteLastKeyWins(t *testing.T) {
	fetcher := &fakeQuoteFetcher{
		quote:   testQuote(100),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewQuoteCoordinator(fetcher, time.Minute)
	coord := &models.GeoPoint{Latitude: 1, Longitude: 1}

	started := fetcher.started
	release := fetcher.release

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.SetInputs(context.Background(), "b1", 150, coord, "")
	}()

	// Once the first request is in flight, change the key. The second
	// request resolves immediately with a different fee.
	<-started
	fetcher.mu.Lock()
	fetcher.quote = testQuote(55)
	fetcher.mu.Unlock()

	state := c.SetInputs(context.Background(), "b1", 250, coord, "")
	if state.Quote == nil || state.Quote.FinalFee != 55 {
		t.Fatalf("newer key resolved wrong quote: %+v", state)
	}

	// The superseded request's result must be dropped when it lands.
	close(release)
	wg.Wait()

	if got := c.State(); got.Quote == nil || got.Quote.FinalFee != 55 {
		t.Fatalf("stale quote overwrote the newer one: %+v", got)
	}
}
