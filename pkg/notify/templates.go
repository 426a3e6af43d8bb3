package notify

import (
	"bytes"
	"html/template"
)

// TemplateManager holds the parsed order lifecycle email templates.
type TemplateManager struct {
	ConfirmedTmpl *template.Template
	DeliveredTmpl *template.Template
	CancelledTmpl *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	confirmedTmpl, err := template.New("orderConfirmed").Parse(orderConfirmedTemplate)
	if err != nil {
		return nil, err
	}

	deliveredTmpl, err := template.New("orderDelivered").Parse(orderDeliveredTemplate)
	if err != nil {
		return nil, err
	}

	cancelledTmpl, err := template.New("orderCancelled").Parse(orderCancelledTemplate)
	if err != nil {
		return nil, err
	}

	return &TemplateManager{
		ConfirmedTmpl: confirmedTmpl,
		DeliveredTmpl: deliveredTmpl,
		CancelledTmpl: cancelledTmpl,
	}, nil
}

// TemplateData holds the dynamic data for an order email template.
type TemplateData struct {
	OrderID string
	Total   string
	Address string
}

// GenerateOrderConfirmedHTML executes the confirmation template.
func (tm *TemplateManager) GenerateOrderConfirmedHTML(data TemplateData) (string, error) {
	var body bytes.Buffer
	if err := tm.ConfirmedTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// GenerateOrderDeliveredHTML executes the delivered template.
func (tm *TemplateManager) GenerateOrderDeliveredHTML(data TemplateData) (string, error) {
	var body bytes.Buffer
	if err := tm.DeliveredTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// GenerateOrderCancelledHTML executes the cancellation template.
func (tm *TemplateManager) GenerateOrderCancelledHTML(data TemplateData) (string, error) {
	var body bytes.Buffer
	if err := tm.CancelledTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// --- HTML Template Definitions ---

const orderConfirmedTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Order Confirmed</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Your order is on its way!</h2>
	<p>A delivery partner has picked up order <strong>{{.OrderID}}</strong>.</p>
	<p>Order total: {{.Total}}</p>
	<p>Delivering to: {{.Address}}</p>
	<p>You can follow your delivery live from the app.</p>
</body>
</html>
`

const orderDeliveredTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Order Delivered</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Your order has arrived</h2>
	<p>Order <strong>{{.OrderID}}</strong> was delivered to {{.Address}}.</p>
	<p>Order total: {{.Total}}</p>
	<p>Thank you for shopping with us!</p>
</body>
</html>
`

const orderCancelledTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Order Cancelled</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Your order was cancelled</h2>
	<p>Order <strong>{{.OrderID}}</strong> has been cancelled.</p>
	<p>If you were charged, the amount of {{.Total}} will be refunded.</p>
	<p>If you did not request this cancellation, please contact support.</p>
</body>
</html>
`
