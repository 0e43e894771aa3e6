package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
	SessionStatusExpired    SessionStatus = "EXPIRED"
)

// SessionAnswer is one saved answer inside a session's answers map.
// Last write per question wins; no history is retained.
type SessionAnswer struct {
	SelectedOption int       `json:"selected_option"`
	AnsweredAt     time.Time `json:"answered_at"`
}

// ExamSession represents one live exam attempt. The session token is an
// opaque capability: every operation resolves the session by token and then
// checks ownership against the caller's user id.
type ExamSession struct {
	ID           uuid.UUID                `json:"id"`
	SessionToken uuid.UUID                `json:"session_token"`
	UserID       uuid.UUID                `json:"user_id"`
	ExamType     ExamType                 `json:"exam_type"`
	ExamID       uuid.UUID                `json:"exam_id"`
	SubmissionID uuid.UUID                `json:"submission_id"`
	StartTime    time.Time                `json:"start_time"`
	EndTime      time.Time                `json:"end_time"`
	ExpiresAt    time.Time                `json:"expires_at"`
	Answers      map[string]SessionAnswer `json:"answers"`
	Status       SessionStatus            `json:"status"`
	IsLocked     bool                     `json:"is_locked"`
}

// TimeRemaining returns whole seconds left before end_time, floored at zero.
func (s *ExamSession) TimeRemaining(now time.Time) int64 {
	remaining := s.EndTime.Sub(now)
	if remaining < 0 {
		return 0
	}
	return int64(remaining.Seconds())
}

// StartExamRequest is the payload for starting an exam attempt.
type StartExamRequest struct {
	ExamType ExamType `json:"exam_type" binding:"required,oneof=COMPETITION MOCK_TEST"`
	ExamID   string   `json:"exam_id" binding:"required,uuid"`
}

// SaveAnswerRequest is the payload for saving one answer into the session.
type SaveAnswerRequest struct {
	QuestionID     string `json:"question_id" binding:"required,uuid"`
	SelectedOption *int   `json:"selected_option" binding:"required,min=0,max=9"`
}
