package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholarena/arena-backend/internal/model"
)

// ProfileRepository reads student profiles. The table is owned by the
// identity provider; this service never writes to it.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// GetByUserID retrieves a student's profile.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	p := &model.UserProfile{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, full_name, grade, school_name, phone, is_complete, created_at
		 FROM user_profiles
		 WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.FullName, &p.Grade, &p.SchoolName, &p.Phone, &p.IsComplete, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
