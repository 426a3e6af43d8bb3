package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grocery-dispatch/internal/models"
	"grocery-dispatch/internal/modules/quotes"
)

// PricingInterface is the slice of the quote engine checkout needs: resolve
// the destination, enforce coverage and price the delivery fee.
type PricingInterface interface {
	PriceOrder(ctx context.Context, userID string, req models.QuoteRequest) (*quotes.PricedDelivery, error)
}

// NotifierInterface dispatches lifecycle notifications to the customer.
// Delivery guarantees are the notifier's problem, not ours.
type NotifierInterface interface {
	OrderConfirmed(ctx context.Context, order *models.Order)
	OrderDelivered(ctx context.Context, order *models.Order)
	OrderCancelled(ctx context.Context, order *models.Order)
}

// ServiceInterface defines the contract for the order service.
type ServiceInterface interface {
	Checkout(ctx context.Context, customerID string, req models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, orderID string, actor Actor) (*models.Order, error)
	ListMyOrders(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error)
	ListAvailable(ctx context.Context) ([]*models.Order, error)
	Confirm(ctx context.Context, orderID, partnerID string, loc models.GeoPoint) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID, partnerID string, req models.StatusUpdateRequest) (*models.Order, error)
	Cancel(ctx context.Context, orderID string, actor Actor) (*models.Order, error)
	RecordLocation(ctx context.Context, sample models.LocationSample) (models.TrackingUpdate, error)
}

// Service implements the order lifecycle logic.
type Service struct {
	repo     RepositoryInterface
	pricing  PricingInterface
	notifier NotifierInterface
	now      func() time.Time
}

// NewService creates a new order service. notifier may be nil.
func NewService(repo RepositoryInterface, pricing PricingInterface, notifier NotifierInterface) *Service {
	return &Service{
		repo:     repo,
		pricing:  pricing,
		notifier: notifier,
		now:      time.Now,
	}
}

// Checkout prices the delivery, verifies coverage and creates the order in
// its initial 'available' state.
func (s *Service) Checkout(ctx context.Context, customerID string, req models.CreateOrderRequest) (*models.Order, error) {
	if (req.Coordinate == nil) == (req.AddressID == "") {
		return nil, models.ErrInvalidLocation
	}
	if req.Coordinate != nil && !req.Coordinate.Valid() {
		return nil, models.ErrInvalidLocation
	}

	priced, err := s.pricing.PriceOrder(ctx, customerID, models.QuoteRequest{
		BranchID:   req.BranchID,
		CartValue:  req.CartValue,
		Coordinate: req.Coordinate,
		AddressID:  req.AddressID,
	})
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID:       customerID,
		BranchID:         req.BranchID,
		Items:            req.Items,
		TotalPrice:       req.CartValue + priced.Quote.FinalFee,
		DeliveryFee:      priced.Quote.FinalFee,
		PickupLocation:   priced.Branch.Point(),
		DeliveryLocation: priced.Destination,
		DeliveryAddress:  priced.AddressText,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("service.Checkout: %w", err)
	}
	return created, nil
}

// GetOrder retrieves an order, restricted to its customer, its bound
// partner, or any partner while the order is still unassigned.
func (s *Service) GetOrder(ctx context.Context, orderID string, actor Actor) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleCustomer:
		if order.CustomerID != actor.ID {
			return nil, models.ErrNotFound // do not leak others' orders
		}
	case models.RolePartner:
		bound := order.DeliveryPartnerID != nil && *order.DeliveryPartnerID == actor.ID
		if !bound && order.Status != models.StatusAvailable {
			return nil, models.ErrNotFound
		}
	case RoleSystem:
	default:
		return nil, models.ErrNotFound
	}
	return order, nil
}

// ListMyOrders retrieves a customer's order history.
func (s *Service) ListMyOrders(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByCustomer(ctx, customerID, page, limit)
}

// ListAvailable returns the open order feed for delivery partners.
func (s *Service) ListAvailable(ctx context.Context) ([]*models.Order, error) {
	return s.repo.ListAvailable(ctx)
}

// Confirm binds a delivery partner to an unassigned order. Of two
// simultaneous confirms exactly one succeeds; the loser gets
// ErrOrderAlreadyAssigned.
func (s *Service) Confirm(ctx context.Context, orderID, partnerID string, loc models.GeoPoint) (*models.Order, error) {
	if !loc.Valid() {
		return nil, models.ErrInvalidLocation
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(order, models.StatusConfirmed, Actor{ID: partnerID, Role: models.RolePartner}); err != nil {
		return nil, err
	}

	// The repository re-checks "still unassigned" atomically; the validation
	// above only produces the precise error for the common case.
	updated, err := s.repo.AssignPartner(ctx, orderID, partnerID, loc)
	if err != nil {
		return nil, err
	}

	s.notifyConfirmed(ctx, updated)
	return updated, nil
}

// UpdateStatus applies a partner transition (arriving, delivered), carrying
// the partner's current coordinate onto the order.
func (s *Service) UpdateStatus(ctx context.Context, orderID, partnerID string, req models.StatusUpdateRequest) (*models.Order, error) {
	if req.Status == models.StatusConfirmed {
		return s.Confirm(ctx, orderID, partnerID, req.Point())
	}
	if !req.Point().Valid() {
		return nil, models.ErrInvalidLocation
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(order, req.Status, Actor{ID: partnerID, Role: models.RolePartner}); err != nil {
		return nil, err
	}

	updated, err := s.repo.SwapStatus(ctx, orderID, partnerID, order.Status, req.Status, req.Point())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// The row changed between the read and the conditional update.
			return nil, &models.TransitionError{From: order.Status, To: req.Status, Reason: "order state changed"}
		}
		return nil, err
	}

	if updated.Status == models.StatusDelivered {
		s.notifyDelivered(ctx, updated)
	}
	return updated, nil
}

// Cancel aborts a non-terminal order on behalf of the customer or dispatch.
func (s *Service) Cancel(ctx context.Context, orderID string, actor Actor) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(order, models.StatusCancelled, actor); err != nil {
		return nil, err
	}

	updated, err := s.repo.CancelNonTerminal(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, &models.TransitionError{From: order.Status, To: models.StatusCancelled, Reason: "order state changed"}
		}
		return nil, err
	}

	s.notifyCancelled(ctx, updated)
	return updated, nil
}

// RecordLocation persists a partner's position sample onto the order
// (last-write-wins) and returns the update to broadcast, paired with the
// order's current status.
func (s *Service) RecordLocation(ctx context.Context, sample models.LocationSample) (models.TrackingUpdate, error) {
	pt := sample.Point()
	if !pt.Valid() {
		return models.TrackingUpdate{}, models.ErrInvalidLocation
	}
	at := sample.RecordedAt
	if at.IsZero() {
		at = s.now()
	}

	status, err := s.repo.UpdateCourierLocation(ctx, sample.OrderID, sample.PartnerID, pt, at)
	if err != nil {
		return models.TrackingUpdate{}, err
	}

	return models.TrackingUpdate{
		OrderID:    sample.OrderID,
		Status:     status,
		Location:   pt,
		RecordedAt: at,
	}, nil
}

func (s *Service) notifyConfirmed(ctx context.Context, o *models.Order) {
	if s.notifier != nil {
		s.notifier.OrderConfirmed(ctx, o)
	}
}

func (s *Service) notifyDelivered(ctx context.Context, o *models.Order) {
	if s.notifier != nil {
		s.notifier.OrderDelivered(ctx, o)
	}
}

func (s *Service) notifyCancelled(ctx context.Context, o *models.Order) {
	if s.notifier != nil {
		s.notifier.OrderCancelled(ctx, o)
	}
}
