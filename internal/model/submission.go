package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus enumerates submission states. A submission is terminal
// once GRADED; terminal status is never reverted.
type SubmissionStatus string

const (
	SubmissionStatusInProgress SubmissionStatus = "IN_PROGRESS"
	SubmissionStatusGraded     SubmissionStatus = "GRADED"
)

// ExamSnapshot is an immutable denormalized copy of the exam taken when the
// submission is created. Scoring and result read-back use the snapshot, so
// later edits to the competition or mock test never change what the student
// was graded against.
type ExamSnapshot struct {
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalMarks      int       `json:"total_marks"`
	QuestionBankID  uuid.UUID `json:"question_bank_id"`
}

// Submission represents one graded (or in-progress) exam attempt.
// Score and submitted_at are written exactly once, at finalization.
type Submission struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"user_id"`
	ExamType         ExamType         `json:"exam_type"`
	ExamID           uuid.UUID        `json:"exam_id"`
	ExamSnapshot     ExamSnapshot     `json:"exam_snapshot"`
	TotalQuestions   int              `json:"total_questions"`
	StartedAt        time.Time        `json:"started_at"`
	SubmittedAt      *time.Time       `json:"submitted_at,omitempty"`
	Score            int              `json:"score"`
	CorrectAnswers   int              `json:"correct_answers"`
	IncorrectAnswers int              `json:"incorrect_answers"`
	Unanswered       int              `json:"unanswered"`
	TimeTakenSeconds int64            `json:"time_taken_seconds"`
	Status           SubmissionStatus `json:"status"`
}

// SubmissionAnswer is an append-only ledger row for one answered question.
// Rows are created only during finalization and never mutated. Unanswered
// questions leave no row.
type SubmissionAnswer struct {
	ID             int64     `json:"id"`
	SubmissionID   uuid.UUID `json:"submission_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption int       `json:"selected_option"`
	CorrectOption  int       `json:"correct_option"`
	IsCorrect      bool      `json:"is_correct"`
	MarksAwarded   int       `json:"marks_awarded"`
	AnsweredAt     time.Time `json:"answered_at"`
}
