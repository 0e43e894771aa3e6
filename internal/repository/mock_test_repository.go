package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholarena/arena-backend/internal/model"
)

// MockTestRepository handles mock test data access, including attempt records.
type MockTestRepository struct {
	pool *pgxpool.Pool
}

// NewMockTestRepository creates a new MockTestRepository.
func NewMockTestRepository(pool *pgxpool.Pool) *MockTestRepository {
	return &MockTestRepository{pool: pool}
}

// GetByID retrieves a mock test by its UUID.
func (r *MockTestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MockTest, error) {
	m := &model.MockTest{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, min_grade, max_grade, duration_minutes,
		        total_marks, created_at, updated_at
		 FROM mock_tests
		 WHERE id = $1`, id,
	).Scan(&m.ID, &m.Title, &m.Description, &m.MinGrade, &m.MaxGrade,
		&m.DurationMinutes, &m.TotalMarks, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListForGrade retrieves mock tests whose grade range contains the grade.
func (r *MockTestRepository) ListForGrade(ctx context.Context, grade int) ([]model.MockTest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, min_grade, max_grade, duration_minutes,
		        total_marks, created_at, updated_at
		 FROM mock_tests
		 WHERE min_grade <= $1 AND max_grade >= $1
		 ORDER BY created_at DESC`, grade,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.MockTest
	for rows.Next() {
		var m model.MockTest
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.MinGrade, &m.MaxGrade,
			&m.DurationMinutes, &m.TotalMarks, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, m)
	}
	return tests, rows.Err()
}

// GetAttempt retrieves a student's attempt record for a mock test, if any.
func (r *MockTestRepository) GetAttempt(ctx context.Context, userID, mockTestID uuid.UUID) (*model.MockTestAttempt, error) {
	a := &model.MockTestAttempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, mock_test_id, submission_id, attempted_at
		 FROM mock_test_attempts
		 WHERE user_id = $1 AND mock_test_id = $2`, userID, mockTestID,
	).Scan(&a.UserID, &a.MockTestID, &a.SubmissionID, &a.AttemptedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpsertAttempt records (or refreshes) a student's single attempt. Keyed on
// (user_id, mock_test_id) so the crash-recovery start path and finalization
// can both write it without a uniqueness error.
func (r *MockTestRepository) UpsertAttempt(ctx context.Context, a *model.MockTestAttempt) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO mock_test_attempts (user_id, mock_test_id, submission_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, mock_test_id)
		 DO UPDATE SET submission_id = EXCLUDED.submission_id`,
		a.UserID, a.MockTestID, a.SubmissionID)
	return err
}
