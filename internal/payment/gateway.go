// Package payment wraps the Razorpay gateway: order creation and the two
// signature schemes used to authenticate checkout callbacks and webhooks.
package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Order is the subset of a gateway order this service cares about.
type Order struct {
	ID               string
	AmountMinorUnits int64
	Currency         string
}

// Gateway creates payment-gateway orders. Implemented by RazorpayGateway in
// production and by a stub in tests.
type Gateway interface {
	// CreateOrder creates an order for the given amount in minor currency
	// units. notes travel with the order and come back on webhook events —
	// the internal payment id is carried there for the fallback lookup.
	CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string, notes map[string]string) (*Order, error)
}

// RazorpayGateway is the production Gateway backed by the Razorpay SDK.
type RazorpayGateway struct {
	client *razorpay.Client
}

// NewRazorpayGateway creates a gateway client from API credentials.
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

// CreateOrder creates a Razorpay order.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string, notes map[string]string) (*Order, error) {
	data := map[string]interface{}{
		"amount":   amountMinorUnits,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		noteData := make(map[string]interface{}, len(notes))
		for k, v := range notes {
			noteData[k] = v
		}
		data["notes"] = noteData
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return nil, fmt.Errorf("create order: gateway response missing order id")
	}

	return &Order{
		ID:               orderID,
		AmountMinorUnits: amountMinorUnits,
		Currency:         currency,
	}, nil
}
