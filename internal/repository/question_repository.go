package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholarena/arena-backend/internal/model"
)

// QuestionRepository handles read-only question bank access. Banks and
// questions are owned by the excluded admin subsystem.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByBank retrieves all questions of a bank, ordered by order_num.
// Includes the answer key — callers on student-facing paths must strip it.
func (r *QuestionRepository) ListByBank(ctx context.Context, bankID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_bank_id, question_text, options, correct_option, marks, order_num
		 FROM questions
		 WHERE question_bank_id = $1
		 ORDER BY order_num`, bankID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionBankID, &q.QuestionText, &q.Options, &q.CorrectOption, &q.Marks, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
