package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/scholarena/arena-backend/internal/model"
)

// Store interfaces consumed by the services. The repository package provides
// the pgx-backed implementations; tests substitute in-memory fakes. Missing
// rows surface as pgx.ErrNoRows from either.

// ProfileStore reads student profiles.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error)
}

// CompetitionStore reads competitions and resolves bank assignments.
type CompetitionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Competition, error)
	ListForGrade(ctx context.Context, grade int) ([]model.Competition, error)
	FindBankForGrade(ctx context.Context, examType model.ExamType, examID uuid.UUID, grade int) (uuid.UUID, error)
}

// MockTestStore reads mock tests and tracks single-attempt records.
type MockTestStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.MockTest, error)
	ListForGrade(ctx context.Context, grade int) ([]model.MockTest, error)
	GetAttempt(ctx context.Context, userID, mockTestID uuid.UUID) (*model.MockTestAttempt, error)
	UpsertAttempt(ctx context.Context, a *model.MockTestAttempt) error
}

// EnrollmentStore persists enrollments.
type EnrollmentStore interface {
	Upsert(ctx context.Context, e *model.Enrollment) error
	GetByUserAndCompetition(ctx context.Context, userID, competitionID uuid.UUID) (*model.Enrollment, error)
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*model.Enrollment, error)
	Confirm(ctx context.Context, paymentID uuid.UUID) error
}

// PaymentStore persists payments. MarkSucceeded/MarkFailed are the monotonic
// conditional transitions; they report whether this caller won the write.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	AttachOrder(ctx context.Context, id uuid.UUID, gatewayOrderID string) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	GetByGatewayOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	MarkSucceeded(ctx context.Context, id uuid.UUID, gatewayPaymentID string) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error)
}

// SessionStore persists exam sessions, including every conditional update the
// lifecycle relies on.
type SessionStore interface {
	Create(ctx context.Context, s *model.ExamSession) error
	GetByToken(ctx context.Context, token uuid.UUID) (*model.ExamSession, error)
	GetLatestBySubmission(ctx context.Context, submissionID uuid.UUID) (*model.ExamSession, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*model.ExamSession, error)
	SaveAnswer(ctx context.Context, token uuid.UUID, questionID uuid.UUID, answer model.SessionAnswer, now time.Time) (bool, error)
	TryLock(ctx context.Context, token uuid.UUID) (bool, error)
	Unlock(ctx context.Context, token uuid.UUID) error
	MarkSubmitted(ctx context.Context, token uuid.UUID) error
	MarkExpired(ctx context.Context, token uuid.UUID) error
}

// SubmissionStore persists submissions and the answer ledger.
type SubmissionStore interface {
	Create(ctx context.Context, s *model.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	GetInProgress(ctx context.Context, userID uuid.UUID, examType model.ExamType, examID uuid.UUID) (*model.Submission, error)
	GetLatestByExam(ctx context.Context, userID uuid.UUID, examType model.ExamType, examID uuid.UUID) (*model.Submission, error)
	Finalize(ctx context.Context, s *model.Submission, submittedAt time.Time) (bool, error)
	InsertAnswers(ctx context.Context, answers []model.SubmissionAnswer) error
	ListAnswers(ctx context.Context, submissionID uuid.UUID) ([]model.SubmissionAnswer, error)
}

// QuestionStore reads full questions (with answer keys) for scoring.
type QuestionStore interface {
	ListByBank(ctx context.Context, bankID uuid.UUID) ([]model.Question, error)
}

// BankPayloadSource serves answer-stripped question payloads for the init
// read path. The production implementation caches in Redis.
type BankPayloadSource interface {
	GetPayload(ctx context.Context, bankID uuid.UUID) (*model.BankPayload, error)
}
