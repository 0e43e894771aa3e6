package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholarena/arena-backend/internal/model"
)

// PaymentRepository handles payment data access. Status transitions are
// monotonic and applied only through the conditional updates below.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `id, user_id, competition_id, amount_minor_units, currency,
	gateway_order_id, COALESCE(gateway_payment_id, ''), status, COALESCE(failure_reason, ''),
	created_at, updated_at`

func (r *PaymentRepository) scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	p := &model.Payment{}
	err := row.Scan(&p.ID, &p.UserID, &p.CompetitionID, &p.AmountMinorUnits, &p.Currency,
		&p.GatewayOrderID, &p.GatewayPaymentID, &p.Status, &p.FailureReason,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new PENDING payment.
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO payments
		   (user_id, competition_id, amount_minor_units, currency, gateway_order_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		p.UserID, p.CompetitionID, p.AmountMinorUnits, p.Currency, p.GatewayOrderID,
		model.PaymentStatusPending,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// AttachOrder records the gateway order id created for a payment.
func (r *PaymentRepository) AttachOrder(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE payments SET gateway_order_id = $2, updated_at = NOW() WHERE id = $1`,
		id, gatewayOrderID)
	return err
}

// GetByID retrieves a payment by its UUID.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return r.scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

// GetByGatewayOrderID retrieves a payment by the gateway order id. Primary
// lookup path for webhook events.
func (r *PaymentRepository) GetByGatewayOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return r.scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE gateway_order_id = $1`, orderID))
}

// MarkSucceeded applies the PENDING→SUCCESS conditional transition, recording
// the gateway payment id. Returns false when the payment was not PENDING —
// the other reconciliation path already finalized it.
func (r *PaymentRepository) MarkSucceeded(ctx context.Context, id uuid.UUID, gatewayPaymentID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payments
		 SET status = $2, gateway_payment_id = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, model.PaymentStatusSuccess, gatewayPaymentID, model.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed applies the PENDING→FAILED conditional transition with a reason.
// Returns false when the payment was not PENDING.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payments
		 SET status = $2, failure_reason = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, model.PaymentStatusFailed, reason, model.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
