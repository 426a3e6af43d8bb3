package orders

import (
	"errors"
	"testing"

	"grocery-dispatch/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.StatusAvailable, models.StatusConfirmed, true},
		{models.StatusAvailable, models.StatusArriving, false},
		{models.StatusAvailable, models.StatusDelivered, false},
		{models.StatusAvailable, models.StatusCancelled, true},
		{models.StatusConfirmed, models.StatusArriving, true},
		{models.StatusConfirmed, models.StatusDelivered, false},
		{models.StatusConfirmed, models.StatusCancelled, true},
		{models.StatusArriving, models.StatusDelivered, true},
		{models.StatusArriving, models.StatusConfirmed, false},
		{models.StatusArriving, models.StatusCancelled, true},
		{models.StatusDelivered, models.StatusCancelled, false},
		{models.StatusDelivered, models.StatusAvailable, false},
		{models.StatusCancelled, models.StatusConfirmed, false},
		{"", models.StatusConfirmed, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestValidateTransitionConfirm(t *testing.T) {
	partner := Actor{ID: "p1", Role: models.RolePartner}

	o := &models.Order{ID: "o1", CustomerID: "c1", Status: models.StatusAvailable}
	if err := ValidateTransition(o, models.StatusConfirmed, partner); err != nil {
		t.Fatalf("unassigned available order should be confirmable: %v", err)
	}

	// A customer cannot confirm.
	customer := Actor{ID: "c1", Role: models.RoleCustomer}
	if err := ValidateTransition(o, models.StatusConfirmed, customer); err == nil {
		t.Fatal("customer confirm should be rejected")
	}

	// Re-confirming an order that already has a partner must fail, even for
	// the same status value.
	bound := "p1"
	assigned := &models.Order{ID: "o1", Status: models.StatusAvailable, DeliveryPartnerID: &bound}
	if err := ValidateTransition(assigned, models.StatusConfirmed, Actor{ID: "p2", Role: models.RolePartner}); err == nil {
		t.Fatal("double assignment should be rejected")
	}
}

func TestValidateTransitionActorMismatch(t *testing.T) {
	bound := "partnerA"
	o := &models.Order{ID: "o1", Status: models.StatusConfirmed, DeliveryPartnerID: &bound}

	// Partner B attempts confirmed -> arriving on partner A's order.
	err := ValidateTransition(o, models.StatusArriving, Actor{ID: "partnerB", Role: models.RolePartner})
	var terr *models.TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}

	if err := ValidateTransition(o, models.StatusArriving, Actor{ID: "partnerA", Role: models.RolePartner}); err != nil {
		t.Fatalf("bound partner should be allowed: %v", err)
	}
}

func TestValidateTransitionCancel(t *testing.T) {
	bound := "p1"
	tests := []struct {
		name   string
		status models.OrderStatus
		actor  Actor
		wantOK bool
	}{
		{"customer cancels own available order", models.StatusAvailable, Actor{ID: "c1", Role: models.RoleCustomer}, true},
		{"customer cancels en-route order", models.StatusArriving, Actor{ID: "c1", Role: models.RoleCustomer}, true},
		{"other customer cancels", models.StatusAvailable, Actor{ID: "c2", Role: models.RoleCustomer}, false},
		{"system cancels", models.StatusConfirmed, Actor{ID: "dispatch", Role: RoleSystem}, true},
		{"partner cancels", models.StatusConfirmed, Actor{ID: "p1", Role: models.RolePartner}, false},
		{"cancel delivered order", models.StatusDelivered, Actor{ID: "c1", Role: models.RoleCustomer}, false},
		{"cancel twice", models.StatusCancelled, Actor{ID: "c1", Role: models.RoleCustomer}, false},
	}
	for _, tt := range tests {
		o := &models.Order{ID: "o1", CustomerID: "c1", Status: tt.status, DeliveryPartnerID: &bound}
		err := ValidateTransition(o, models.StatusCancelled, tt.actor)
		if tt.wantOK && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.wantOK && err == nil {
			t.Errorf("%s: expected rejection", tt.name)
		}
	}
}

// No sequence of attempts may reach confirmed twice without passing through
// a terminal state first: once a partner is bound, every further confirm is
// rejected regardless of actor.
func TestNoDoubleConfirmAcrossSequences(t *testing.T) {
	o := &models.Order{ID: "o1", CustomerID: "c1", Status: models.StatusAvailable}

	if err := ValidateTransition(o, models.StatusConfirmed, Actor{ID: "p1", Role: models.RolePartner}); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	p1 := "p1"
	o.Status = models.StatusConfirmed
	o.DeliveryPartnerID = &p1

	for _, actor := range []Actor{
		{ID: "p1", Role: models.RolePartner},
		{ID: "p2", Role: models.RolePartner},
		{ID: "c1", Role: models.RoleCustomer},
	} {
		if err := ValidateTransition(o, models.StatusConfirmed, actor); err == nil {
			t.Fatalf("second confirm by %s should be rejected", actor.ID)
		}
	}
}
