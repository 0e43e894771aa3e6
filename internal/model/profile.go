package model

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the student profile row owned by the external identity
// provider. This service only reads it for eligibility checks.
type UserProfile struct {
	UserID     uuid.UUID `json:"user_id"`
	FullName   string    `json:"full_name"`
	Grade      int       `json:"grade"`
	SchoolName string    `json:"school_name"`
	Phone      string    `json:"phone"`
	IsComplete bool      `json:"is_complete"`
	CreatedAt  time.Time `json:"created_at"`
}
