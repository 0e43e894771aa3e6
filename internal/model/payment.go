package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus enumerates payment states. Transitions are monotonic:
// PENDING→SUCCESS or PENDING→FAILED, applied with a conditional update
// keyed on the current value being PENDING. Never reversed.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Payment represents one gateway payment for a competition enrollment.
type Payment struct {
	ID               uuid.UUID     `json:"id"`
	UserID           uuid.UUID     `json:"user_id"`
	CompetitionID    uuid.UUID     `json:"competition_id"`
	AmountMinorUnits int64         `json:"amount_minor_units"`
	Currency         string        `json:"currency"`
	GatewayOrderID   string        `json:"gateway_order_id"`
	GatewayPaymentID string        `json:"gateway_payment_id,omitempty"`
	Status           PaymentStatus `json:"status"`
	FailureReason    string        `json:"failure_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// VerifyPaymentRequest is the client-side checkout callback payload.
type VerifyPaymentRequest struct {
	PaymentID        string `json:"payment_id" binding:"required,uuid"`
	OrderID          string `json:"order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}
