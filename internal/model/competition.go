package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamType distinguishes the two exam products.
type ExamType string

const (
	ExamTypeCompetition ExamType = "COMPETITION"
	ExamTypeMockTest    ExamType = "MOCK_TEST"
)

// Competition represents a paid, scheduled competition.
type Competition struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	MinGrade          int        `json:"min_grade"`
	MaxGrade          int        `json:"max_grade"`
	FeeMinorUnits     int64      `json:"fee_minor_units"`
	DurationMinutes   int        `json:"duration_minutes"`
	TotalMarks        int        `json:"total_marks"`
	RegistrationStart time.Time  `json:"registration_start"`
	RegistrationEnd   time.Time  `json:"registration_end"`
	ExamWindowStart   *time.Time `json:"exam_window_start,omitempty"`
	ExamWindowEnd     *time.Time `json:"exam_window_end,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// BankAssignment maps a grade range to a question bank for a competition or
// mock test. Resolution walks assignments in insertion order; the first range
// containing the student's grade wins.
type BankAssignment struct {
	ID             int       `json:"id"`
	ExamType       ExamType  `json:"exam_type"`
	ExamID         uuid.UUID `json:"exam_id"`
	QuestionBankID uuid.UUID `json:"question_bank_id"`
	MinGrade       int       `json:"min_grade"`
	MaxGrade       int       `json:"max_grade"`
}
