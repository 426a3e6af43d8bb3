package client

import (
	"context"
	"sync"
	"time"

	"grocery-dispatch/internal/models"
)

// QuoteFetcherInterface fetches a priced delivery quote from the API.
type QuoteFetcherInterface interface {
	FetchQuote(ctx context.Context, req models.QuoteRequest) (*models.DeliveryQuote, error)
}

// quoteKey is the composite identity a quote is memoized under. Two
// checkout renders with the same key never trigger a second request.
type quoteKey struct {
	branchID  string
	cartValue int64
	addressID string
	lat, lng  float64
	hasCoord  bool
}

// QuoteState is what the checkout screen renders.
type QuoteState struct {
	Disabled bool
	Loading  bool
	Quote    *models.DeliveryQuote
	// Err holds the fetch error verbatim, including any coverage context
	// such as *models.DistanceExceededError, for the caller to render.
	Err error
}

// QuoteCoordinator deduplicates quote requests as the user edits the
// cart and delivery address. Exactly one request is in flight per key;
// a changed key supersedes the previous request and its late result is
// dropped (last key wins).
type QuoteCoordinator struct {
	fetcher QuoteFetcherInterface
	timeout time.Duration

	mu         sync.Mutex
	generation uint64
	key        quoteKey
	hasKey     bool
	state      QuoteState
}

// NewQuoteCoordinator creates a coordinator. timeout bounds each fetch.
func NewQuoteCoordinator(fetcher QuoteFetcherInterface, timeout time.Duration) *QuoteCoordinator {
	return &QuoteCoordinator{
		fetcher: fetcher,
		timeout: timeout,
		state:   QuoteState{Disabled: true},
	}
}

// State returns the current snapshot.
func (c *QuoteCoordinator) State() QuoteState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetInputs reconciles the coordinator with the checkout's current
// branch, cart value, and destination. It fetches only when the
// composite key actually changed; otherwise the memoized state stands.
func (c *QuoteCoordinator) SetInputs(ctx context.Context, branchID string, cartValue int64, coordinate *models.GeoPoint, addressID string) QuoteState {
	if branchID == "" || (coordinate == nil && addressID == "") {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.hasKey = false
		c.state = QuoteState{Disabled: true}
		return c.state
	}

	key := quoteKey{branchID: branchID, cartValue: cartValue, addressID: addressID}
	if coordinate != nil {
		key.lat, key.lng, key.hasCoord = coordinate.Latitude, coordinate.Longitude, true
	}

	c.mu.Lock()
	// An unchanged key is always a no-op, error results included: coverage
	// failures are recoverable only by the user changing the inputs, so a
	// retry with the same key would just repeat the same answer.
	if c.hasKey && c.key == key {
		state := c.state
		c.mu.Unlock()
		return state
	}
	c.generation++
	gen := c.generation
	c.key = key
	c.hasKey = true
	c.state = QuoteState{Loading: true}
	c.mu.Unlock()

	req := models.QuoteRequest{
		BranchID:   branchID,
		CartValue:  cartValue,
		Coordinate: coordinate,
		AddressID:  addressID,
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	quote, err := c.fetcher.FetchQuote(fetchCtx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// A newer key superseded this request while it was in flight.
		return c.state
	}
	if err != nil {
		c.state = QuoteState{Err: err}
	} else {
		c.state = QuoteState{Quote: quote}
	}
	return c.state
}
