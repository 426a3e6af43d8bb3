package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"grocery-dispatch/internal/models"
	"grocery-dispatch/pkg/geo"
)

// fakeBranchRepo serves branches from memory and counts repository hits so
// the cache behaviour is observable.
type fakeBranchRepo struct {
	branches map[string]models.Branch
	findHits int
	listHits int
}

func (f *fakeBranchRepo) FindByID(_ context.Context, id string) (*models.Branch, error) {
	f.findHits++
	b, ok := f.branches[id]
	if !ok {
		return nil, models.ErrBranchNotFound
	}
	return &b, nil
}

func (f *fakeBranchRepo) ListAll(_ context.Context) ([]models.Branch, error) {
	f.listHits++
	var out []models.Branch
	for _, b := range f.branches {
		out = append(out, b)
	}
	return out, nil
}

type fakeAddressResolver struct {
	addresses map[string]models.Address
}

func (f *fakeAddressResolver) FindAddressForUser(_ context.Context, addressID, userID string) (*models.Address, error) {
	a, ok := f.addresses[addressID]
	if !ok || a.UserID != userID {
		return nil, models.ErrNotFound
	}
	return &a, nil
}

// testBranch is the branch from the worked pricing scenario: MG Road
// coordinates, 8 km coverage, Rs 20 base fare, Rs 5/km beyond a 2 km free
// radius, Rs 10 small-order fee under a Rs 199 floor.
func testBranch() models.Branch {
	return models.Branch{
		ID:              "b1",
		Name:            "MG Road",
		Latitude:        12.9716,
		Longitude:       77.5946,
		MaxDistanceKm:   8,
		BaseFare:        20,
		FreeRadiusKm:    2,
		PerKmFee:        5,
		SmallOrderFloor: 199,
		SmallOrderFee:   10,
	}
}

// pointAtKm returns a coordinate the given distance due north of the branch.
// One degree of latitude is ~111.19 km, so this is exact enough for the
// haversine on the other side.
func pointAtKm(b models.Branch, km float64) models.GeoPoint {
	return models.GeoPoint{Latitude: b.Latitude + km/111.19, Longitude: b.Longitude}
}

func newTestService(repo *fakeBranchRepo, addrs *fakeAddressResolver) *Service {
	if addrs == nil {
		addrs = &fakeAddressResolver{}
	}
	return NewService(repo, addrs, time.Minute, 20)
}

func TestQuoteBreakdownScenario(t *testing.T) {
	b := testBranch()
	repo := &fakeBranchRepo{branches: map[string]models.Branch{"b1": b}}
	svc := newTestService(repo, nil)

	dest := pointAtKm(b, 5)
	q, err := svc.Quote(context.Background(), "u1", models.QuoteRequest{
		BranchID:   "b1",
		CartValue:  150,
		Coordinate: &dest,
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if q.BaseFare != 20 {
		t.Errorf("base_fare = %d, want 20", q.BaseFare)
	}
	if q.DistanceSurcharge != 15 {
		t.Errorf("distance_surcharge = %d, want 15", q.DistanceSurcharge)
	}
	if q.SmallOrderSurcharge != 10 {
		t.Errorf("small_order_surcharge = %d, want 10", q.SmallOrderSurcharge)
	}
	if q.FinalFee != 45 {
		t.Errorf("final_fee = %d, want 45", q.FinalFee)
	}
	if q.DistanceKm != 5.0 {
		t.Errorf("distance_km = %v, want 5.0", q.DistanceKm)
	}
}

func TestQuoteNoSmallOrderSurchargeAboveFloor(t *testing.T) {
	b := testBranch()
	repo := &fakeBranchRepo{branches: map[string]models.Branch{"b1": b}}
	svc := newTestService(repo, nil)

	dest := pointAtKm(b, 5)
	q, err := svc.Quote(context.Background(), "u1", models.QuoteRequest{
		BranchID:   "b1",
		CartValue:  250,
		Coordinate: &dest,
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.SmallOrderSurcharge != 0 {
		t.Errorf("small_order_surcharge = %d, want 0", q.SmallOrderSurcharge)
	}
	if q.FinalFee != 35 {
		t.Errorf("final_fee = %d, want 35", q.FinalFee)
	}
}

func TestQuoteDistanceExceeded(t *testing.T) {
	b := testBranch()
	repo := &fakeBranchRepo{branches: map[string]models.Branch{"b1": b}}
	svc := newTestService(repo, nil)

	dest := pointAtKm(b, 9)
	_, err := svc.Quote(context.Background(), "u1", models.QuoteRequest{
		BranchID:   "b1",
		CartValue:  150,
		Coordinate: &dest,
	})

	var distErr *models.DistanceExceededError
	if !errors.As(err, &distErr) {
		t.Fatalf("expected DistanceExceededError, got %v", err)
	}
	if distErr.MaxDistanceKm != 8 {
		t.Errorf("maxDistance = %v, want 8", distErr.MaxDistanceKm)
	}
	if distErr.DistanceKm != 9.0 {
		t.Errorf("distance_km = %v, want 9.0", distErr.DistanceKm)
	}
}

func TestQuoteCoverageBoundary(t *testing.T) {
	b := testBranch()
	repo := &fakeBranchRepo{branches: map[string]models.Branch{"b1": b}}
	svc := newTestService(repo, nil)

	just := pointAtKm(b, 7.95)
	if _, err := svc.Quote(context.Background(), "u1", models.QuoteRequest{BranchID: "b1", CartValue: 300, Coordinate: &just}); err != nil {
		t.Fatalf("D-eps should quote: %v", err)
	}

	over := pointAtKm(b, 8.05)
	_, err := svc.Quote(context.Background(), "u1", models.QuoteRequest{BranchID: "b1", CartValue: 300, Coordinate: &over})
	var distErr *models.DistanceExceededError
	if !errors.As(err, &distErr) {
		t.Fatalf("D+eps should fail with DistanceExceededError, got %v", err)
	}
	if distErr.MaxDistanceKm != 8 {
		t.Errorf("maxDistance = %v, want 8", distErr.MaxDistanceKm)
	}
}

func TestQuoteIdempotent(t *testing.T) {
	b := testBranch()
	repo := &fakeBranchRepo{branches: map[string]models.Branch{"b1": b}}
	svc := newTestService(repo, nil)

	dest := pointAtKm(b, 3.7)
	req := models.QuoteRequest{BranchID: "b1", CartValue: 180, Coordinate: &dest}

	first, err := svc.Quote(context.Background(), "u1", req)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	for i := 0; i < 50; i++ {
		q, err := svc.Quote(context.Background(), "u1", req)
		if err != nil {
			t.Fatalf("Quote #%d: %v", i, err)
		}
		if *q != *first {
			t.Fatalf("quote not idempotent: %+v vs %+v", q, first)
		}
	}
}

func TestQuoteInputValidation(t *testing.T) {
	b := testBranch()
	repo := &fakeBranchRepo{branches: map[string]models.Branch{"b1": b}}
	svc := newTestService(repo, nil)
	dest := pointAtKm(b, 3)

	tests := []struct {
		name string
		req  models.QuoteRequest
		want error
	}{
		{"neither destination", models.QuoteRequest{BranchID: "b1", CartValue: 100}, models.ErrInvalidLocation},
		{"both destinations", models.QuoteRequest{BranchID: "b1", CartValue: 100, Coordinate: &dest, AddressID: "a1"}, models.ErrInvalidLocation},
		{"unknown branch", models.QuoteRequest{BranchID: "nope", CartValue: 100, Coordinate: &dest}, models.ErrBranchNotFound},
		{"malformed coordinate", models.QuoteRequest{BranchID: "b1", CartValue: 100, Coordinate: &models.GeoPoint{Latitude: 91, Longitude: 0}}, models.ErrInvalidLocation},
	}
	for _, tt := range tests {
		_, err := svc.Quote(context.Background(), "u1", tt.req)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestQuoteFromSavedAddress(t *testing.T) {
	b := testBranch()
	repo := &fakeBranchRepo{branches: map[string]models.Branch{"b1": b}}
	dest := pointAtKm(b, 4)
	addrs := &fakeAddressResolver{addresses: map[string]models.Address{
		"a1": {ID: "a1", UserID: "u1", StreetAddress: "12 Residency Rd", Latitude: dest.Latitude, Longitude: dest.Longitude},
	}}
	svc := newTestService(repo, addrs)

	priced, err := svc.PriceOrder(context.Background(), "u1", models.QuoteRequest{BranchID: "b1", CartValue: 300, AddressID: "a1"})
	if err != nil {
		t.Fatalf("PriceOrder: %v", err)
	}
	if priced.AddressText != "12 Residency Rd" {
		t.Errorf("address text = %q", priced.AddressText)
	}
	if priced.Quote.DistanceKm != 4.0 {
		t.Errorf("distance_km = %v, want 4.0", priced.Quote.DistanceKm)
	}

	// Another user must not resolve someone else's address.
	if _, err := svc.PriceOrder(context.Background(), "u2", models.QuoteRequest{BranchID: "b1", CartValue: 300, AddressID: "a1"}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign address: got %v, want ErrNotFound", err)
	}
}

func TestBranchCacheLimitsRepositoryHits(t *testing.T) {
	b := testBranch()
	repo := &fakeBranchRepo{branches: map[string]models.Branch{"b1": b}}
	svc := newTestService(repo, nil)
	dest := pointAtKm(b, 3)

	for i := 0; i < 10; i++ {
		if _, err := svc.Quote(context.Background(), "u1", models.QuoteRequest{BranchID: "b1", CartValue: 300, Coordinate: &dest}); err != nil {
			t.Fatalf("Quote: %v", err)
		}
	}
	if repo.findHits != 1 {
		t.Errorf("branch repo hit %d times within TTL, want 1", repo.findHits)
	}
}

func TestBranchCacheExpires(t *testing.T) {
	b := testBranch()
	repo := &fakeBranchRepo{branches: map[string]models.Branch{"b1": b}}
	svc := newTestService(repo, nil)

	clock := time.Now()
	svc.branches.now = func() time.Time { return clock }

	dest := pointAtKm(b, 3)
	req := models.QuoteRequest{BranchID: "b1", CartValue: 300, Coordinate: &dest}

	if _, err := svc.Quote(context.Background(), "u1", req); err != nil {
		t.Fatalf("Quote: %v", err)
	}
	clock = clock.Add(2 * time.Minute) // past the 1 minute TTL
	if _, err := svc.Quote(context.Background(), "u1", req); err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if repo.findHits != 2 {
		t.Errorf("branch repo hit %d times across TTL expiry, want 2", repo.findHits)
	}
}

func TestNearestEstimate(t *testing.T) {
	near := testBranch()
	far := testBranch()
	far.ID, far.Name = "b2", "Whitefield"
	far.Latitude = near.Latitude + 6/111.19 // ~6 km north

	repo := &fakeBranchRepo{branches: map[string]models.Branch{"b1": near, "b2": far}}
	svc := newTestService(repo, nil)

	// A point 1 km north of b1: both branches cover it, b1 is nearer.
	est, err := svc.NearestEstimate(context.Background(), pointAtKm(near, 1))
	if err != nil {
		t.Fatalf("NearestEstimate: %v", err)
	}
	if est.BranchID != "b1" {
		t.Errorf("nearest branch = %s, want b1", est.BranchID)
	}
	if est.DistanceKm != 1.0 {
		t.Errorf("distance_km = %v, want 1.0", est.DistanceKm)
	}
	if want := geo.EtaMinutes(1.0, 20); est.EtaMinutes != want {
		t.Errorf("eta_minutes = %d, want %d", est.EtaMinutes, want)
	}
}

func TestNearestEstimateOutOfCoverage(t *testing.T) {
	b := testBranch()
	repo := &fakeBranchRepo{branches: map[string]models.Branch{"b1": b}}
	svc := newTestService(repo, nil)

	_, err := svc.NearestEstimate(context.Background(), pointAtKm(b, 50))
	if !errors.Is(err, models.ErrOutOfCoverage) {
		t.Fatalf("got %v, want ErrOutOfCoverage", err)
	}
}
