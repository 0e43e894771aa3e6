package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholarena/arena-backend/internal/model"
)

// CompetitionRepository handles competition data access. Competitions are
// managed by the excluded admin subsystem; this service only reads them.
type CompetitionRepository struct {
	pool *pgxpool.Pool
}

// NewCompetitionRepository creates a new CompetitionRepository.
func NewCompetitionRepository(pool *pgxpool.Pool) *CompetitionRepository {
	return &CompetitionRepository{pool: pool}
}

// GetByID retrieves a competition by its UUID.
func (r *CompetitionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Competition, error) {
	c := &model.Competition{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, min_grade, max_grade, fee_minor_units,
		        duration_minutes, total_marks, registration_start, registration_end,
		        exam_window_start, exam_window_end, created_at, updated_at
		 FROM competitions
		 WHERE id = $1`, id,
	).Scan(&c.ID, &c.Title, &c.Description, &c.MinGrade, &c.MaxGrade, &c.FeeMinorUnits,
		&c.DurationMinutes, &c.TotalMarks, &c.RegistrationStart, &c.RegistrationEnd,
		&c.ExamWindowStart, &c.ExamWindowEnd, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListForGrade retrieves competitions whose grade range contains the grade,
// newest registration window first.
func (r *CompetitionRepository) ListForGrade(ctx context.Context, grade int) ([]model.Competition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, min_grade, max_grade, fee_minor_units,
		        duration_minutes, total_marks, registration_start, registration_end,
		        exam_window_start, exam_window_end, created_at, updated_at
		 FROM competitions
		 WHERE min_grade <= $1 AND max_grade >= $1
		 ORDER BY registration_start DESC`, grade,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comps []model.Competition
	for rows.Next() {
		var c model.Competition
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.MinGrade, &c.MaxGrade, &c.FeeMinorUnits,
			&c.DurationMinutes, &c.TotalMarks, &c.RegistrationStart, &c.RegistrationEnd,
			&c.ExamWindowStart, &c.ExamWindowEnd, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

// FindBankForGrade resolves the question bank for a grade by walking the
// exam's bank assignments in insertion order. First matching range wins.
func (r *CompetitionRepository) FindBankForGrade(ctx context.Context, examType model.ExamType, examID uuid.UUID, grade int) (uuid.UUID, error) {
	var bankID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT question_bank_id
		 FROM bank_assignments
		 WHERE exam_type = $1 AND exam_id = $2 AND min_grade <= $3 AND max_grade >= $3
		 ORDER BY id
		 LIMIT 1`, examType, examID, grade,
	).Scan(&bankID)
	if err != nil {
		return uuid.Nil, err
	}
	return bankID, nil
}
