package orders

import "grocery-dispatch/internal/models"

// Actor is the identity attempting a transition.
type Actor struct {
	ID   string
	Role string
}

// RoleSystem marks dispatch-initiated actions (e.g. automatic cancellation).
const RoleSystem = "system"

// allowedTransitions is the legal-transition table. Terminal states map to
// an empty set: order progress is monotonic, there is no regression.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusAvailable: {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusArriving, models.StatusCancelled},
	models.StatusArriving:  {models.StatusDelivered, models.StatusCancelled},
	models.StatusDelivered: {},
	models.StatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal move, ignoring who is
// asking.
func CanTransition(from, to models.OrderStatus) bool {
	allowed, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition checks both the transition edge and the actor's right
// to take it. It never mutates the order; callers apply the change through
// an atomic conditional update only after this passes.
func ValidateTransition(o *models.Order, to models.OrderStatus, actor Actor) error {
	if !CanTransition(o.Status, to) {
		return &models.TransitionError{From: o.Status, To: to}
	}

	switch to {
	case models.StatusConfirmed:
		if actor.Role != models.RolePartner {
			return &models.TransitionError{From: o.Status, To: to, Reason: "only a delivery partner can confirm"}
		}
		if o.DeliveryPartnerID != nil {
			return &models.TransitionError{From: o.Status, To: to, Reason: "order already assigned"}
		}

	case models.StatusArriving, models.StatusDelivered:
		if o.DeliveryPartnerID == nil || actor.ID != *o.DeliveryPartnerID {
			return &models.TransitionError{From: o.Status, To: to, Reason: "actor is not the assigned delivery partner"}
		}

	case models.StatusCancelled:
		switch actor.Role {
		case models.RoleCustomer:
			if actor.ID != o.CustomerID {
				return &models.TransitionError{From: o.Status, To: to, Reason: "order belongs to another customer"}
			}
		case RoleSystem:
			// Dispatch may cancel any non-terminal order.
		default:
			return &models.TransitionError{From: o.Status, To: to, Reason: "only the customer or dispatch can cancel"}
		}
	}

	return nil
}
