package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/scholarena/arena-backend/internal/model"
	"github.com/scholarena/arena-backend/internal/payment"
)

// PaymentService reconciles payments from two independent, unordered
// channels: the browser checkout callback (Verify) and the gateway webhook
// (HandleWebhook). Each path is idempotent on its own; the PENDING→SUCCESS
// conditional update in PaymentStore is the only arbiter of who wins.
type PaymentService struct {
	payments      PaymentStore
	enrollments   EnrollmentStore
	keySecret     string
	webhookSecret string
	log           zerolog.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(payments PaymentStore, enrollments EnrollmentStore, keySecret, webhookSecret string, log zerolog.Logger) *PaymentService {
	return &PaymentService{
		payments:      payments,
		enrollments:   enrollments,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		log:           log.With().Str("component", "payment_service").Logger(),
	}
}

// VerifyResult reports the outcome of the client verify call.
type VerifyResult struct {
	Success             bool `json:"success"`
	EnrollmentConfirmed bool `json:"enrollment_confirmed"`
}

// Verify handles the checkout callback. The signature covers the derived
// string orderID|gatewayPaymentID under the API key secret. On a signature
// mismatch the payment is failed (conditionally — a payment the webhook
// already confirmed is left alone). On a match the payment is confirmed; if
// the webhook won the race first, the call still reports success so the
// client converges on the same outcome.
func (s *PaymentService) Verify(ctx context.Context, userID, paymentID uuid.UUID, orderID, gatewayPaymentID, signature string) (*VerifyResult, error) {
	pay, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if pay.UserID != userID {
		return nil, ErrNotOwner
	}
	if pay.GatewayOrderID != orderID {
		return nil, ErrPaymentNotFound
	}

	if !payment.VerifyCheckoutSignature(orderID, gatewayPaymentID, signature, s.keySecret) {
		if _, err := s.payments.MarkFailed(ctx, paymentID, "Invalid signature"); err != nil {
			return nil, fmt.Errorf("mark failed: %w", err)
		}
		s.log.Warn().Str("payment_id", paymentID.String()).Msg("Checkout signature mismatch")
		return nil, ErrInvalidSignature
	}

	won, err := s.payments.MarkSucceeded(ctx, paymentID, gatewayPaymentID)
	if err != nil {
		return nil, fmt.Errorf("mark succeeded: %w", err)
	}
	if !won {
		// Zero rows matched: someone already finalized this payment.
		fresh, err := s.payments.GetByID(ctx, paymentID)
		if err != nil {
			return nil, fmt.Errorf("reload payment: %w", err)
		}
		if fresh.Status == model.PaymentStatusSuccess {
			// The webhook won; report success as if this call had done it.
			return &VerifyResult{Success: true, EnrollmentConfirmed: true}, nil
		}
		return nil, ErrPaymentNotPending
	}

	if err := s.enrollments.Confirm(ctx, paymentID); err != nil {
		return nil, fmt.Errorf("confirm enrollment: %w", err)
	}

	s.log.Info().Str("payment_id", paymentID.String()).Msg("Payment verified via checkout callback")
	return &VerifyResult{Success: true, EnrollmentConfirmed: true}, nil
}

// WebhookEvent is the subset of a Razorpay webhook body this service reads.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity WebhookPaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// WebhookPaymentEntity is the gateway's payment entity inside an event.
// Notes echo what order creation attached — including the internal payment
// id used for the fallback lookup.
type WebhookPaymentEntity struct {
	ID               string            `json:"id"`
	OrderID          string            `json:"order_id"`
	Status           string            `json:"status"`
	ErrorDescription string            `json:"error_description"`
	Notes            map[string]string `json:"notes"`
}

// ParseWebhook verifies the raw-body signature (webhook secret, distinct
// from the checkout key material) and decodes the event.
func (s *PaymentService) ParseWebhook(body []byte, signature string) (*WebhookEvent, error) {
	if !payment.VerifyWebhookSignature(body, signature, s.webhookSecret) {
		return nil, ErrInvalidSignature
	}
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode webhook body: %w", err)
	}
	return &event, nil
}

// HandleWebhook applies a verified event. It never fails loudly on a missing
// or already-finalized payment — those cases are logged and acknowledged so
// the gateway stops retrying. Only infrastructure errors propagate.
func (s *PaymentService) HandleWebhook(ctx context.Context, event *WebhookEvent) error {
	entity := event.Payload.Payment.Entity

	switch event.Event {
	case "payment.captured", "order.paid":
		pay, err := s.lookupPayment(ctx, entity)
		if err != nil {
			return err
		}
		if pay == nil {
			s.log.Warn().Str("order_id", entity.OrderID).Str("event", event.Event).Msg("Webhook for unknown payment, acknowledging")
			return nil
		}

		won, err := s.payments.MarkSucceeded(ctx, pay.ID, entity.ID)
		if err != nil {
			return fmt.Errorf("mark succeeded: %w", err)
		}
		if !won {
			s.log.Info().Str("payment_id", pay.ID.String()).Msg("Payment already finalized, webhook acknowledged")
			return nil
		}
		if err := s.enrollments.Confirm(ctx, pay.ID); err != nil {
			return fmt.Errorf("confirm enrollment: %w", err)
		}
		s.log.Info().Str("payment_id", pay.ID.String()).Str("event", event.Event).Msg("Payment confirmed via webhook")
		return nil

	case "payment.failed":
		pay, err := s.lookupPayment(ctx, entity)
		if err != nil {
			return err
		}
		if pay == nil {
			s.log.Warn().Str("order_id", entity.OrderID).Msg("Failure webhook for unknown payment, acknowledging")
			return nil
		}
		reason := entity.ErrorDescription
		if reason == "" {
			reason = "Payment failed at gateway"
		}
		if won, err := s.payments.MarkFailed(ctx, pay.ID, reason); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		} else if !won {
			s.log.Info().Str("payment_id", pay.ID.String()).Msg("Failure webhook for finalized payment, acknowledged")
		}
		return nil

	default:
		s.log.Debug().Str("event", event.Event).Msg("Ignoring webhook event")
		return nil
	}
}

// lookupPayment finds the internal payment for a gateway entity: by order id
// first, then by the internal payment id echoed in the order notes. Returns
// nil (no error) when neither path matches.
func (s *PaymentService) lookupPayment(ctx context.Context, entity WebhookPaymentEntity) (*model.Payment, error) {
	if entity.OrderID != "" {
		pay, err := s.payments.GetByGatewayOrderID(ctx, entity.OrderID)
		if err == nil {
			return pay, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("lookup by order id: %w", err)
		}
	}

	if raw, ok := entity.Notes["payment_id"]; ok {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.log.Warn().Str("payment_id", raw).Msg("Webhook notes carry a malformed payment id")
			return nil, nil
		}
		pay, err := s.payments.GetByID(ctx, id)
		if err == nil {
			return pay, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("lookup by notes payment id: %w", err)
		}
	}

	return nil, nil
}
