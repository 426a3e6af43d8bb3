package quotes

import (
	"context"
	"math"
	"time"

	"grocery-dispatch/internal/models"
	"grocery-dispatch/pkg/geo"
)

// AddressResolverInterface resolves a saved address id into a coordinate,
// scoped to its owner. Implemented by the users module.
type AddressResolverInterface interface {
	FindAddressForUser(ctx context.Context, addressID, userID string) (*models.Address, error)
}

// PricedDelivery is the full result of pricing a checkout: the breakdown
// plus the resolved branch and destination the order will be created with.
type PricedDelivery struct {
	Quote       models.DeliveryQuote
	Branch      models.Branch
	Destination models.GeoPoint
	AddressText string
}

// ServiceInterface defines the contract for the delivery quote engine.
type ServiceInterface interface {
	Quote(ctx context.Context, userID string, req models.QuoteRequest) (*models.DeliveryQuote, error)
	PriceOrder(ctx context.Context, userID string, req models.QuoteRequest) (*PricedDelivery, error)
	NearestEstimate(ctx context.Context, pt models.GeoPoint) (*models.BranchEstimate, error)
}

// Service computes delivery fee quotes and branch estimates. Identical
// inputs always produce identical quotes: there is no randomness and no
// time dependence in the breakdown itself.
type Service struct {
	branches  *branchCache
	addresses AddressResolverInterface
	// speedKmh is the average-speed heuristic for the "partner to customer"
	// phase, used by branch estimates.
	speedKmh float64
}

// NewService creates a new quote service. branchTTL bounds how long a
// branch record may be served from cache.
func NewService(repo BranchRepositoryInterface, addresses AddressResolverInterface, branchTTL time.Duration, speedKmh float64) *Service {
	return &Service{
		branches:  newBranchCache(repo, branchTTL),
		addresses: addresses,
		speedKmh:  speedKmh,
	}
}

// Quote returns the fee breakdown for a branch, cart value and destination.
func (s *Service) Quote(ctx context.Context, userID string, req models.QuoteRequest) (*models.DeliveryQuote, error) {
	priced, err := s.PriceOrder(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	q := priced.Quote
	return &q, nil
}

// PriceOrder resolves the destination, enforces the coverage limit and
// computes the breakdown.
func (s *Service) PriceOrder(ctx context.Context, userID string, req models.QuoteRequest) (*PricedDelivery, error) {
	// Step 1: exactly one of coordinate or saved address.
	if (req.Coordinate == nil) == (req.AddressID == "") {
		return nil, models.ErrInvalidLocation
	}

	// Step 2: resolve the branch through the cached lookup.
	branch, err := s.branches.FindByID(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}

	// Step 3: resolve the delivery point.
	var (
		dest        models.GeoPoint
		addressText string
	)
	if req.Coordinate != nil {
		dest = *req.Coordinate
	} else {
		addr, err := s.addresses.FindAddressForUser(ctx, req.AddressID, userID)
		if err != nil {
			return nil, err
		}
		dest = addr.Point()
		addressText = addr.StreetAddress
	}
	if !dest.Valid() {
		return nil, models.ErrInvalidLocation
	}

	quote, err := computeQuote(branch, req.CartValue, dest)
	if err != nil {
		return nil, err
	}

	return &PricedDelivery{
		Quote:       *quote,
		Branch:      *branch,
		Destination: dest,
		AddressText: addressText,
	}, nil
}

// computeQuote is the pure pricing core: flat base fare, per-started-km
// surcharge beyond the free radius, and a flat small-order surcharge below
// the cart floor.
func computeQuote(branch *models.Branch, cartValue int64, dest models.GeoPoint) (*models.DeliveryQuote, error) {
	distance := geo.DistanceKm(branch.Latitude, branch.Longitude, dest.Latitude, dest.Longitude)
	display := geo.RoundKm(distance)
	if distance > branch.MaxDistanceKm {
		return nil, &models.DistanceExceededError{
			MaxDistanceKm: branch.MaxDistanceKm,
			DistanceKm:    display,
		}
	}

	// The surcharge is computed on the displayed (one-decimal) distance so
	// the breakdown always agrees with the distance_km the customer sees.
	var distanceSurcharge int64
	if display > branch.FreeRadiusKm {
		distanceSurcharge = int64(math.Ceil(display-branch.FreeRadiusKm)) * branch.PerKmFee
	}

	var smallOrderSurcharge int64
	if cartValue < branch.SmallOrderFloor {
		smallOrderSurcharge = branch.SmallOrderFee
	}

	return &models.DeliveryQuote{
		BaseFare:            branch.BaseFare,
		DistanceSurcharge:   distanceSurcharge,
		SmallOrderSurcharge: smallOrderSurcharge,
		FinalFee:            branch.BaseFare + distanceSurcharge + smallOrderSurcharge,
		DistanceKm:          display,
	}, nil
}

// NearestEstimate resolves a coordinate to the nearest branch that covers
// it. When no branch is in coverage the caller gets ErrOutOfCoverage rather
// than a branch.
func (s *Service) NearestEstimate(ctx context.Context, pt models.GeoPoint) (*models.BranchEstimate, error) {
	if !pt.Valid() {
		return nil, models.ErrInvalidLocation
	}

	branches, err := s.branches.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var (
		best     *models.Branch
		bestDist float64
	)
	for i := range branches {
		b := branches[i]
		d := geo.DistanceKm(b.Latitude, b.Longitude, pt.Latitude, pt.Longitude)
		if d > b.MaxDistanceKm {
			continue
		}
		if best == nil || d < bestDist {
			best = &branches[i]
			bestDist = d
		}
	}
	if best == nil {
		return nil, models.ErrOutOfCoverage
	}

	display := geo.RoundKm(bestDist)
	return &models.BranchEstimate{
		BranchID:   best.ID,
		BranchName: best.Name,
		DistanceKm: display,
		EtaMinutes: geo.EtaMinutes(display, s.speedKmh),
	}, nil
}
