package model

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentStatus enumerates enrollment states.
type EnrollmentStatus string

const (
	EnrollmentStatusPending   EnrollmentStatus = "PENDING"
	EnrollmentStatusConfirmed EnrollmentStatus = "CONFIRMED"
)

// CompetitionSnapshot captures the competition terms the student agreed to at
// enrollment time. Later edits to the competition do not touch it.
type CompetitionSnapshot struct {
	Title         string `json:"title"`
	FeeMinorUnits int64  `json:"fee_minor_units"`
	MinGrade      int    `json:"min_grade"`
	MaxGrade      int    `json:"max_grade"`
}

// UserSnapshot captures the student's profile at enrollment time.
type UserSnapshot struct {
	FullName   string `json:"full_name"`
	Grade      int    `json:"grade"`
	SchoolName string `json:"school_name"`
}

// Enrollment ties a student to a competition through a payment.
// Invariant: IsPaymentConfirmed=true ⇔ Status=CONFIRMED ⇔ the associated
// payment is SUCCESS.
type Enrollment struct {
	ID                  uuid.UUID           `json:"id"`
	UserID              uuid.UUID           `json:"user_id"`
	CompetitionID       uuid.UUID           `json:"competition_id"`
	PaymentID           uuid.UUID           `json:"payment_id"`
	Status              EnrollmentStatus    `json:"status"`
	IsPaymentConfirmed  bool                `json:"is_payment_confirmed"`
	CompetitionSnapshot CompetitionSnapshot `json:"competition_snapshot"`
	UserSnapshot        UserSnapshot        `json:"user_snapshot"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// EnrollRequest is the payload for enrolling into a competition.
type EnrollRequest struct {
	CompetitionID string `json:"competition_id" binding:"required,uuid"`
}
