package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholarena/arena-backend/internal/model"
)

// EnrollmentRepository handles enrollment data access.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

const enrollmentColumns = `id, user_id, competition_id, payment_id, status, is_payment_confirmed,
	competition_snapshot, user_snapshot, created_at, updated_at`

func (r *EnrollmentRepository) scanEnrollment(row interface{ Scan(...any) error }) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	err := row.Scan(&e.ID, &e.UserID, &e.CompetitionID, &e.PaymentID, &e.Status, &e.IsPaymentConfirmed,
		&e.CompetitionSnapshot, &e.UserSnapshot, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Upsert creates a PENDING enrollment or repoints an existing unconfirmed one
// at a fresh payment. The WHERE guard refuses to touch a CONFIRMED row, so a
// re-enroll attempt can never downgrade a paid enrollment.
func (r *EnrollmentRepository) Upsert(ctx context.Context, e *model.Enrollment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO enrollments
		   (user_id, competition_id, payment_id, status, is_payment_confirmed,
		    competition_snapshot, user_snapshot)
		 VALUES ($1, $2, $3, $4, FALSE, $5, $6)
		 ON CONFLICT (user_id, competition_id) DO UPDATE
		 SET payment_id = EXCLUDED.payment_id,
		     competition_snapshot = EXCLUDED.competition_snapshot,
		     user_snapshot = EXCLUDED.user_snapshot,
		     updated_at = NOW()
		 WHERE enrollments.status <> 'CONFIRMED'
		 RETURNING id, created_at, updated_at`,
		e.UserID, e.CompetitionID, e.PaymentID, model.EnrollmentStatusPending,
		e.CompetitionSnapshot, e.UserSnapshot,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByUserAndCompetition retrieves a student's enrollment for a competition.
func (r *EnrollmentRepository) GetByUserAndCompetition(ctx context.Context, userID, competitionID uuid.UUID) (*model.Enrollment, error) {
	return r.scanEnrollment(r.pool.QueryRow(ctx,
		`SELECT `+enrollmentColumns+`
		 FROM enrollments
		 WHERE user_id = $1 AND competition_id = $2`, userID, competitionID))
}

// GetByPaymentID retrieves the enrollment attached to a payment.
func (r *EnrollmentRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*model.Enrollment, error) {
	return r.scanEnrollment(r.pool.QueryRow(ctx,
		`SELECT `+enrollmentColumns+`
		 FROM enrollments
		 WHERE payment_id = $1`, paymentID))
}

// Confirm marks the enrollment attached to a payment as CONFIRMED with the
// payment flag set. Called exactly once by whichever reconciliation path wins
// the PENDING→SUCCESS race.
func (r *EnrollmentRepository) Confirm(ctx context.Context, paymentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE enrollments
		 SET status = $2, is_payment_confirmed = TRUE, updated_at = NOW()
		 WHERE payment_id = $1`,
		paymentID, model.EnrollmentStatusConfirmed)
	return err
}
