package model

import (
	"time"

	"github.com/google/uuid"
)

// MockTest represents a free practice test. Unlike competitions it has no
// enrollment, no fee and no exam window — only a grade range and a single
// allowed attempt per student.
type MockTest struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	MinGrade        int       `json:"min_grade"`
	MaxGrade        int       `json:"max_grade"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalMarks      int       `json:"total_marks"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MockTestAttempt records that a student has used their single attempt.
// Upserted on (user_id, mock_test_id) so the crash-recovery start path can
// re-insert without tripping a uniqueness error.
type MockTestAttempt struct {
	UserID       uuid.UUID `json:"user_id"`
	MockTestID   uuid.UUID `json:"mock_test_id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	AttemptedAt  time.Time `json:"attempted_at"`
}
