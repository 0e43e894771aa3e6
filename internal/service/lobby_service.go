package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/scholarena/arena-backend/internal/model"
)

// AttemptStatus is the per-exam overlay shown in the lobby.
type AttemptStatus string

const (
	AttemptStatusNotStarted AttemptStatus = "NOT_STARTED"
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
)

// LobbyCompetition is a competition as displayed in the student lobby.
type LobbyCompetition struct {
	model.Competition
	AttemptStatus    AttemptStatus           `json:"attempt_status"`
	EnrollmentStatus *model.EnrollmentStatus `json:"enrollment_status,omitempty"`
	Score            *int                    `json:"score,omitempty"`
}

// LobbyMockTest is a mock test as displayed in the student lobby.
type LobbyMockTest struct {
	model.MockTest
	AttemptStatus AttemptStatus `json:"attempt_status"`
	Score         *int          `json:"score,omitempty"`
}

// Lobby groups everything the caller's grade can see.
type Lobby struct {
	Competitions []LobbyCompetition `json:"competitions"`
	MockTests    []LobbyMockTest    `json:"mock_tests"`
}

// GetLobby returns the exams visible to the student's grade with their
// attempt and enrollment status overlaid.
func (s *ExamSessionService) GetLobby(ctx context.Context, userID uuid.UUID) (*Lobby, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileIncomplete
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	comps, err := s.competitions.ListForGrade(ctx, profile.Grade)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	tests, err := s.mockTests.ListForGrade(ctx, profile.Grade)
	if err != nil {
		return nil, fmt.Errorf("list mock tests: %w", err)
	}

	lobby := &Lobby{
		Competitions: make([]LobbyCompetition, 0, len(comps)),
		MockTests:    make([]LobbyMockTest, 0, len(tests)),
	}

	for i := range comps {
		entry := LobbyCompetition{Competition: comps[i], AttemptStatus: AttemptStatusNotStarted}

		if enr, err := s.enrollments.GetByUserAndCompetition(ctx, userID, comps[i].ID); err == nil {
			entry.EnrollmentStatus = &enr.Status
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get enrollment: %w", err)
		}

		status, score, err := s.attemptOverlay(ctx, userID, model.ExamTypeCompetition, comps[i].ID)
		if err != nil {
			return nil, err
		}
		entry.AttemptStatus = status
		entry.Score = score
		lobby.Competitions = append(lobby.Competitions, entry)
	}

	for i := range tests {
		entry := LobbyMockTest{MockTest: tests[i], AttemptStatus: AttemptStatusNotStarted}
		status, score, err := s.attemptOverlay(ctx, userID, model.ExamTypeMockTest, tests[i].ID)
		if err != nil {
			return nil, err
		}
		entry.AttemptStatus = status
		entry.Score = score
		lobby.MockTests = append(lobby.MockTests, entry)
	}

	return lobby, nil
}

func (s *ExamSessionService) attemptOverlay(ctx context.Context, userID uuid.UUID, examType model.ExamType, examID uuid.UUID) (AttemptStatus, *int, error) {
	sub, err := s.submissions.GetLatestByExam(ctx, userID, examType, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AttemptStatusNotStarted, nil, nil
		}
		return "", nil, fmt.Errorf("get latest submission: %w", err)
	}
	if sub.Status == model.SubmissionStatusGraded {
		score := sub.Score
		return AttemptStatusCompleted, &score, nil
	}
	return AttemptStatusInProgress, nil, nil
}
