// Package client implements the customer-app coordination logic for
// delivery ETAs and checkout quotes: staleness-gated refresh, request
// deduplication, and typed fallback states over the dispatch API.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"grocery-dispatch/internal/models"
	"grocery-dispatch/pkg/geo"
)

// EtaPhase is the coordinator's user-visible state.
type EtaPhase string

const (
	EtaLoading          EtaPhase = "loading"
	EtaSuccess          EtaPhase = "success"
	EtaOutOfCoverage    EtaPhase = "out_of_coverage"
	EtaPermissionDenied EtaPhase = "permission_denied"
	EtaFallback         EtaPhase = "fallback"
)

// EtaState is a snapshot of what the storefront header renders.
type EtaState struct {
	Phase      EtaPhase
	BranchID   string
	BranchName string
	DistanceKm float64
	EtaText    string
}

// LocationSourceInterface resolves the device's current position.
type LocationSourceInterface interface {
	CurrentLocation(ctx context.Context) (models.GeoPoint, error)
}

// EstimateFetcherInterface resolves a point into the nearest serviceable
// branch with distance and ETA.
type EstimateFetcherInterface interface {
	NearestEstimate(ctx context.Context, point models.GeoPoint) (*models.BranchEstimate, error)
}

// EtaCoordinator resolves "how far is my grocery delivery" into a branch
// assignment and a human ETA string. Refreshes happen on demand and on
// app foreground, the latter gated by a staleness threshold so that
// rapid foreground events do not hammer the estimate endpoint.
type EtaCoordinator struct {
	location  LocationSourceInterface
	estimates EstimateFetcherInterface

	staleAfter time.Duration
	timeout    time.Duration
	now        func() time.Time

	mu          sync.Mutex
	generation  uint64
	state       EtaState
	lastSuccess time.Time
}

// NewEtaCoordinator creates a coordinator. staleAfter controls the
// foreground refresh gate, timeout bounds each resolution attempt.
func NewEtaCoordinator(location LocationSourceInterface, estimates EstimateFetcherInterface, staleAfter, timeout time.Duration) *EtaCoordinator {
	return &EtaCoordinator{
		location:   location,
		estimates:  estimates,
		staleAfter: staleAfter,
		timeout:    timeout,
		now:        time.Now,
		state:      EtaState{Phase: EtaLoading},
	}
}

// State returns the current snapshot.
func (c *EtaCoordinator) State() EtaState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Refresh resolves the device location and fetches a fresh estimate.
// A refresh started while another is in flight supersedes it: the older
// result is dropped when it lands, whichever order they complete in.
func (c *EtaCoordinator) Refresh(ctx context.Context) EtaState {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = EtaState{Phase: EtaLoading}
	c.mu.Unlock()

	result := c.resolve(ctx)
	return c.apply(gen, result)
}

// HandleForeground re-resolves only when the last successful estimate
// has gone stale. Foregrounding inside the staleness window is a no-op.
func (c *EtaCoordinator) HandleForeground(ctx context.Context) EtaState {
	c.mu.Lock()
	fresh := c.state.Phase == EtaSuccess && c.now().Sub(c.lastSuccess) < c.staleAfter
	if fresh {
		state := c.state
		c.mu.Unlock()
		return state
	}
	c.mu.Unlock()

	return c.Refresh(ctx)
}

func (c *EtaCoordinator) resolve(ctx context.Context) EtaState {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	point, err := c.location.CurrentLocation(ctx)
	if err != nil {
		return EtaState{Phase: EtaPermissionDenied}
	}

	estimate, err := c.estimates.NearestEstimate(ctx, point)
	if err != nil {
		if errors.Is(err, models.ErrOutOfCoverage) {
			return EtaState{Phase: EtaOutOfCoverage}
		}
		// Timeouts and transport failures degrade to a vague but
		// recoverable fallback rather than blocking the storefront.
		return EtaState{Phase: EtaFallback, EtaText: geo.FallbackEta}
	}

	return EtaState{
		Phase:      EtaSuccess,
		BranchID:   estimate.BranchID,
		BranchName: estimate.BranchName,
		DistanceKm: estimate.DistanceKm,
		EtaText:    geo.FormatEtaMinutes(estimate.EtaMinutes),
	}
}

// apply installs a result unless a newer refresh has started since this
// one was issued, in which case the stale result is discarded.
func (c *EtaCoordinator) apply(gen uint64, result EtaState) EtaState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return c.state
	}
	c.state = result
	if result.Phase == EtaSuccess {
		c.lastSuccess = c.now()
	}
	return c.state
}
