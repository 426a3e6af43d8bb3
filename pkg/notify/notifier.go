package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"grocery-dispatch/internal/models"
)

// UserEmailsInterface resolves a recipient address for a user id.
type UserEmailsInterface interface {
	EmailByID(ctx context.Context, userID string) (string, error)
}

// OrderNotifier emails customers about order lifecycle events. Sends are
// best effort: a failed email never fails the order operation that
// triggered it.
type OrderNotifier struct {
	sender    EmailSenderInterface
	templates *TemplateManager
	emails    UserEmailsInterface
}

// NewOrderNotifier creates an order notifier.
func NewOrderNotifier(sender EmailSenderInterface, templates *TemplateManager, emails UserEmailsInterface) *OrderNotifier {
	return &OrderNotifier{
		sender:    sender,
		templates: templates,
		emails:    emails,
	}
}

func formatRupees(amount int64) string {
	return fmt.Sprintf("₹%d", amount)
}

// OrderConfirmed notifies the customer that a partner picked up the order.
func (n *OrderNotifier) OrderConfirmed(ctx context.Context, order *models.Order) {
	html, err := n.templates.GenerateOrderConfirmedHTML(TemplateData{
		OrderID: order.ID,
		Total:   formatRupees(order.TotalPrice),
		Address: order.DeliveryAddress,
	})
	if err != nil {
		log.Printf("Failed to generate order confirmed email HTML: %v", err)
		return
	}

	subject := "Your order is on its way"
	plain := fmt.Sprintf("A delivery partner has picked up your order %s. Follow it live from the app.", order.ID)
	n.send(order.CustomerID, subject, plain, html)
}

// OrderDelivered notifies the customer that the order arrived.
func (n *OrderNotifier) OrderDelivered(ctx context.Context, order *models.Order) {
	html, err := n.templates.GenerateOrderDeliveredHTML(TemplateData{
		OrderID: order.ID,
		Total:   formatRupees(order.TotalPrice),
		Address: order.DeliveryAddress,
	})
	if err != nil {
		log.Printf("Failed to generate order delivered email HTML: %v", err)
		return
	}

	subject := "Your order has been delivered"
	plain := fmt.Sprintf("Your order %s has been delivered. Thank you for shopping with us!", order.ID)
	n.send(order.CustomerID, subject, plain, html)
}

// OrderCancelled notifies the customer about a cancellation.
func (n *OrderNotifier) OrderCancelled(ctx context.Context, order *models.Order) {
	html, err := n.templates.GenerateOrderCancelledHTML(TemplateData{
		OrderID: order.ID,
		Total:   formatRupees(order.TotalPrice),
		Address: order.DeliveryAddress,
	})
	if err != nil {
		log.Printf("Failed to generate order cancelled email HTML: %v", err)
		return
	}

	subject := "Your order was cancelled"
	plain := fmt.Sprintf("Your order %s has been cancelled. If you were charged, the amount will be refunded.", order.ID)
	n.send(order.CustomerID, subject, plain, html)
}

// send resolves the recipient and dispatches the email off the request path.
func (n *OrderNotifier) send(userID, subject, plain, html string) {
	go func() {
		ctx := context.Background()
		to, err := n.emails.EmailByID(ctx, userID)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				log.Printf("Failed to resolve email for user %s: %v", userID, err)
			}
			return
		}
		if err := n.sender.SendEmail(ctx, to, subject, plain, html); err != nil {
			log.Printf("Failed to send order email to %s: %v", to, err)
		}
	}()
}
