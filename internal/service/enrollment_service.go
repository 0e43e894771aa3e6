package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/scholarena/arena-backend/internal/model"
	"github.com/scholarena/arena-backend/internal/payment"
)

// EnrollmentService handles paid-competition enrollment: fee computation,
// gateway order creation and the PENDING payment/enrollment pair that the
// reconciliation paths later confirm.
type EnrollmentService struct {
	profiles     ProfileStore
	competitions CompetitionStore
	enrollments  EnrollmentStore
	payments     PaymentStore
	gateway      payment.Gateway
	gatewayKeyID string
	log          zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(
	profiles ProfileStore,
	competitions CompetitionStore,
	enrollments EnrollmentStore,
	payments PaymentStore,
	gateway payment.Gateway,
	gatewayKeyID string,
	log zerolog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		profiles:     profiles,
		competitions: competitions,
		enrollments:  enrollments,
		payments:     payments,
		gateway:      gateway,
		gatewayKeyID: gatewayKeyID,
		log:          log.With().Str("component", "enrollment_service").Logger(),
	}
}

// EnrollResult carries what the client checkout needs to collect the fee.
type EnrollResult struct {
	EnrollmentID     uuid.UUID `json:"enrollment_id"`
	PaymentID        uuid.UUID `json:"payment_id"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayKeyID     string    `json:"gateway_key_id"`
	AmountMinorUnits int64     `json:"amount_minor_units"`
	Currency         string    `json:"currency"`
}

// Enroll validates eligibility, creates a gateway order and persists the
// PENDING payment/enrollment pair. The enrollment carries immutable snapshots
// of the competition terms and the student profile taken right now, so later
// edits to either cannot change what was agreed.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, competitionID uuid.UUID) (*EnrollResult, error) {
	now := time.Now()

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileIncomplete
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !profile.IsComplete {
		return nil, ErrProfileIncomplete
	}

	comp, err := s.competitions.GetByID(ctx, competitionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get competition: %w", err)
	}
	if profile.Grade < comp.MinGrade || profile.Grade > comp.MaxGrade {
		return nil, gradeRangeErr(profile.Grade, comp.MinGrade, comp.MaxGrade)
	}
	if now.Before(comp.RegistrationStart) || now.After(comp.RegistrationEnd) {
		return nil, ErrRegistrationOver
	}

	existing, err := s.enrollments.GetByUserAndCompetition(ctx, userID, competitionID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if existing != nil && existing.Status == model.EnrollmentStatusConfirmed {
		return nil, ErrAlreadyEnrolled
	}

	pay := &model.Payment{
		UserID:           userID,
		CompetitionID:    competitionID,
		AmountMinorUnits: comp.FeeMinorUnits,
		Currency:         "INR",
		Status:           model.PaymentStatusPending,
	}

	// The internal payment id travels in the order notes so webhook events
	// can be matched even when the order-id lookup fails. Create the payment
	// row first to have the id, then attach the order.
	receipt := fmt.Sprintf("enr_%s_%s", userID.String()[:8], competitionID.String()[:8])
	if err := s.payments.Create(ctx, pay); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	order, err := s.gateway.CreateOrder(ctx, comp.FeeMinorUnits, "INR", receipt, map[string]string{
		"payment_id":     pay.ID.String(),
		"competition_id": competitionID.String(),
	})
	if err != nil {
		// The orphaned PENDING row stays; it can never confirm because no
		// order references it.
		s.log.Error().Err(err).Str("payment_id", pay.ID.String()).Msg("Gateway order creation failed")
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}

	if err := s.payments.AttachOrder(ctx, pay.ID, order.ID); err != nil {
		return nil, fmt.Errorf("attach order: %w", err)
	}
	pay.GatewayOrderID = order.ID

	enr := &model.Enrollment{
		UserID:        userID,
		CompetitionID: competitionID,
		PaymentID:     pay.ID,
		Status:        model.EnrollmentStatusPending,
		CompetitionSnapshot: model.CompetitionSnapshot{
			Title:         comp.Title,
			FeeMinorUnits: comp.FeeMinorUnits,
			MinGrade:      comp.MinGrade,
			MaxGrade:      comp.MaxGrade,
		},
		UserSnapshot: model.UserSnapshot{
			FullName:   profile.FullName,
			Grade:      profile.Grade,
			SchoolName: profile.SchoolName,
		},
	}
	if err := s.enrollments.Upsert(ctx, enr); err != nil {
		return nil, fmt.Errorf("upsert enrollment: %w", err)
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("competition_id", competitionID.String()).
		Str("order_id", order.ID).
		Int64("amount", comp.FeeMinorUnits).
		Msg("Enrollment created, awaiting payment")

	return &EnrollResult{
		EnrollmentID:     enr.ID,
		PaymentID:        pay.ID,
		GatewayOrderID:   order.ID,
		GatewayKeyID:     s.gatewayKeyID,
		AmountMinorUnits: comp.FeeMinorUnits,
		Currency:         "INR",
	}, nil
}

// GetEnrollment returns the caller's enrollment for a competition, or nil.
func (s *EnrollmentService) GetEnrollment(ctx context.Context, userID, competitionID uuid.UUID) (*model.Enrollment, error) {
	enr, err := s.enrollments.GetByUserAndCompetition(ctx, userID, competitionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return enr, nil
}
