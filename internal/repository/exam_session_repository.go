package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholarena/arena-backend/internal/model"
)

// ExamSessionRepository handles exam session data access. All concurrency
// control between request handlers happens through the conditional UPDATEs
// here — there is no lock manager outside the database.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const sessionColumns = `id, session_token, user_id, exam_type, exam_id, submission_id,
	start_time, end_time, expires_at, answers, status, is_locked`

func (r *ExamSessionRepository) scanSession(row interface{ Scan(...any) error }) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := row.Scan(&s.ID, &s.SessionToken, &s.UserID, &s.ExamType, &s.ExamID, &s.SubmissionID,
		&s.StartTime, &s.EndTime, &s.ExpiresAt, &s.Answers, &s.Status, &s.IsLocked)
	if err != nil {
		return nil, err
	}
	if s.Answers == nil {
		s.Answers = map[string]model.SessionAnswer{}
	}
	return s, nil
}

// Create inserts a new session with an empty answers map.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions
		   (session_token, user_id, exam_type, exam_id, submission_id,
		    start_time, end_time, expires_at, answers, status, is_locked)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '{}'::jsonb, $9, FALSE)
		 RETURNING id`,
		s.SessionToken, s.UserID, s.ExamType, s.ExamID, s.SubmissionID,
		s.StartTime, s.EndTime, s.ExpiresAt, model.SessionStatusInProgress,
	).Scan(&s.ID)
}

// GetByToken retrieves a session by its opaque token.
func (r *ExamSessionRepository) GetByToken(ctx context.Context, token uuid.UUID) (*model.ExamSession, error) {
	return r.scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE session_token = $1`, token))
}

// GetLatestBySubmission retrieves the most recent session bound to a
// submission. Sessions are superseded on crash recovery, so a submission may
// accumulate several; only the newest matters.
func (r *ExamSessionRepository) GetLatestBySubmission(ctx context.Context, submissionID uuid.UUID) (*model.ExamSession, error) {
	return r.scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE submission_id = $1
		 ORDER BY start_time DESC
		 LIMIT 1`, submissionID))
}

// GetActiveByUser retrieves the caller's newest IN_PROGRESS session, if any.
func (r *ExamSessionRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*model.ExamSession, error) {
	return r.scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE user_id = $1 AND status = $2
		 ORDER BY start_time DESC
		 LIMIT 1`, userID, model.SessionStatusInProgress))
}

// SaveAnswer upserts one answer into the session's answers map. The WHERE
// clause enforces the mutation invariant in the database: answers change only
// while the session is IN_PROGRESS and before end_time. Returns false when
// the condition did not match.
func (r *ExamSessionRepository) SaveAnswer(ctx context.Context, token uuid.UUID, questionID uuid.UUID, answer model.SessionAnswer, now time.Time) (bool, error) {
	raw, err := json.Marshal(answer)
	if err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET answers = jsonb_set(answers, ARRAY[$2::text], $3::jsonb, true)
		 WHERE session_token = $1 AND status = $4 AND end_time > $5`,
		token, questionID.String(), raw, model.SessionStatusInProgress, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// TryLock attempts the is_locked FALSE→TRUE conditional update used to make
// submit exclusive. Returns false if the session is already locked or not
// IN_PROGRESS.
func (r *ExamSessionRepository) TryLock(ctx context.Context, token uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET is_locked = TRUE
		 WHERE session_token = $1 AND is_locked = FALSE AND status = $2`,
		token, model.SessionStatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Unlock releases the submit lock. Used as best-effort compensation when
// scoring fails after the lock was acquired.
func (r *ExamSessionRepository) Unlock(ctx context.Context, token uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions SET is_locked = FALSE WHERE session_token = $1`, token)
	return err
}

// MarkSubmitted transitions the session to SUBMITTED and drops the lock.
func (r *ExamSessionRepository) MarkSubmitted(ctx context.Context, token uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $2, is_locked = FALSE
		 WHERE session_token = $1`,
		token, model.SessionStatusSubmitted)
	return err
}

// MarkExpired transitions an IN_PROGRESS session to EXPIRED. Conditional so
// a concurrent submit that already finished is never reverted.
func (r *ExamSessionRepository) MarkExpired(ctx context.Context, token uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $2
		 WHERE session_token = $1 AND status = $3`,
		token, model.SessionStatusExpired, model.SessionStatusInProgress)
	return err
}
