package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholarena/arena-backend/internal/model"
)

// SubmissionRepository handles submission and answer-ledger data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

const submissionColumns = `id, user_id, exam_type, exam_id, exam_snapshot, total_questions,
	started_at, submitted_at, score, correct_answers, incorrect_answers, unanswered,
	time_taken_seconds, status`

func (r *SubmissionRepository) scanSubmission(row interface{ Scan(...any) error }) (*model.Submission, error) {
	s := &model.Submission{}
	err := row.Scan(&s.ID, &s.UserID, &s.ExamType, &s.ExamID, &s.ExamSnapshot, &s.TotalQuestions,
		&s.StartedAt, &s.SubmittedAt, &s.Score, &s.CorrectAnswers, &s.IncorrectAnswers, &s.Unanswered,
		&s.TimeTakenSeconds, &s.Status)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new IN_PROGRESS submission with its exam snapshot.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO submissions
		   (user_id, exam_type, exam_id, exam_snapshot, total_questions, started_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		s.UserID, s.ExamType, s.ExamID, s.ExamSnapshot, s.TotalQuestions, s.StartedAt,
		model.SubmissionStatusInProgress,
	).Scan(&s.ID)
}

// GetByID retrieves a submission by its UUID.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	return r.scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
}

// GetInProgress retrieves the caller's non-terminal submission for an exam,
// if one exists. Feeds the crash-recovery path on start.
func (r *SubmissionRepository) GetInProgress(ctx context.Context, userID uuid.UUID, examType model.ExamType, examID uuid.UUID) (*model.Submission, error) {
	return r.scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+`
		 FROM submissions
		 WHERE user_id = $1 AND exam_type = $2 AND exam_id = $3 AND status = $4
		 ORDER BY started_at DESC
		 LIMIT 1`, userID, examType, examID, model.SubmissionStatusInProgress))
}

// GetLatestByExam retrieves the caller's newest submission for an exam
// regardless of status. Used for the already-submitted check and the lobby
// status overlay.
func (r *SubmissionRepository) GetLatestByExam(ctx context.Context, userID uuid.UUID, examType model.ExamType, examID uuid.UUID) (*model.Submission, error) {
	return r.scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+`
		 FROM submissions
		 WHERE user_id = $1 AND exam_type = $2 AND exam_id = $3
		 ORDER BY started_at DESC
		 LIMIT 1`, userID, examType, examID))
}

// Finalize writes the computed result exactly once: the conditional status
// guard means a second finalize attempt affects zero rows. Returns false
// when the submission was already terminal.
func (r *SubmissionRepository) Finalize(ctx context.Context, s *model.Submission, submittedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions
		 SET score = $2, correct_answers = $3, incorrect_answers = $4, unanswered = $5,
		     time_taken_seconds = $6, submitted_at = $7, status = $8
		 WHERE id = $1 AND status = $9`,
		s.ID, s.Score, s.CorrectAnswers, s.IncorrectAnswers, s.Unanswered,
		s.TimeTakenSeconds, submittedAt, model.SubmissionStatusGraded,
		model.SubmissionStatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// InsertAnswers appends the answer ledger rows for a finalized submission.
func (r *SubmissionRepository) InsertAnswers(ctx context.Context, answers []model.SubmissionAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, a := range answers {
		batch.Queue(
			`INSERT INTO submission_answers
			   (submission_id, question_id, selected_option, correct_option, is_correct, marks_awarded, answered_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.SubmissionID, a.QuestionID, a.SelectedOption, a.CorrectOption, a.IsCorrect, a.MarksAwarded, a.AnsweredAt)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range answers {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ListAnswers retrieves the ledger rows of a submission in question order.
func (r *SubmissionRepository) ListAnswers(ctx context.Context, submissionID uuid.UUID) ([]model.SubmissionAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, submission_id, question_id, selected_option, correct_option,
		        is_correct, marks_awarded, answered_at
		 FROM submission_answers
		 WHERE submission_id = $1
		 ORDER BY id`, submissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.SubmissionAnswer
	for rows.Next() {
		var a model.SubmissionAnswer
		if err := rows.Scan(&a.ID, &a.SubmissionID, &a.QuestionID, &a.SelectedOption,
			&a.CorrectOption, &a.IsCorrect, &a.MarksAwarded, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
