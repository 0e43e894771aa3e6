package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/scholarena/arena-backend/internal/model"
)

// ExamSessionService drives the exam attempt state machine:
// start → (init/answer/heartbeat)* → submit. Every coordination point between
// concurrent requests is a conditional update inside SessionStore or
// SubmissionStore; the service itself holds no shared state.
type ExamSessionService struct {
	profiles     ProfileStore
	competitions CompetitionStore
	mockTests    MockTestStore
	enrollments  EnrollmentStore
	sessions     SessionStore
	submissions  SubmissionStore
	questions    QuestionStore
	payloads     BankPayloadSource
	expiryBuffer time.Duration
	log          zerolog.Logger
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	profiles ProfileStore,
	competitions CompetitionStore,
	mockTests MockTestStore,
	enrollments EnrollmentStore,
	sessions SessionStore,
	submissions SubmissionStore,
	questions QuestionStore,
	payloads BankPayloadSource,
	expiryBuffer time.Duration,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		profiles:     profiles,
		competitions: competitions,
		mockTests:    mockTests,
		enrollments:  enrollments,
		sessions:     sessions,
		submissions:  submissions,
		questions:    questions,
		payloads:     payloads,
		expiryBuffer: expiryBuffer,
		log:          log.With().Str("component", "exam_session_service").Logger(),
	}
}

// StartResult is returned to the client after a session is minted.
type StartResult struct {
	SessionToken    uuid.UUID `json:"session_token"`
	SubmissionID    uuid.UUID `json:"submission_id"`
	ExamTitle       string    `json:"exam_title"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalQuestions  int       `json:"total_questions"`
	StartTime       int64     `json:"start_time"` // epoch ms
	EndTime         int64     `json:"end_time"`   // epoch ms
}

// InitResult hydrates the exam screen after a page load or reconnect.
// Questions never carry correct answers on this path.
type InitResult struct {
	SessionToken  uuid.UUID                  `json:"session_token"`
	SubmissionID  uuid.UUID                  `json:"submission_id"`
	Questions     []model.QuestionForStudent `json:"questions"`
	SavedAnswers  map[string]int             `json:"saved_answers"`
	TimeRemaining int64                      `json:"time_remaining"` // seconds
}

// HeartbeatResult is the poll response. Heartbeat is a pure read: when the
// window has lapsed it tells the client to submit rather than submitting
// itself — there is no server-side timer.
type HeartbeatResult struct {
	IsActive         bool                `json:"is_active"`
	TimeRemaining    int64               `json:"time_remaining"`
	AnsweredCount    int                 `json:"answered_count"`
	Status           model.SessionStatus `json:"status"`
	ShouldAutoSubmit bool                `json:"should_auto_submit"`
}

// SubmitResult carries the graded outcome. Identical on every repeat submit.
type SubmitResult struct {
	SubmissionID     uuid.UUID `json:"submission_id"`
	Score            int       `json:"score"`
	TotalMarks       int       `json:"total_marks"`
	CorrectAnswers   int       `json:"correct_answers"`
	IncorrectAnswers int       `json:"incorrect_answers"`
	Unanswered       int       `json:"unanswered"`
	TimeTakenSeconds int64     `json:"time_taken_seconds"`
}

// examTerms collapses the competition/mock-test differences start cares about.
type examTerms struct {
	title           string
	durationMinutes int
	totalMarks      int
	minGrade        int
	maxGrade        int
}

// Start validates eligibility and mints a session.
//
// Recovery contract: an existing non-terminal submission with no live session
// gets a fresh session (new token, new window, empty answers map) bound to the
// same submission id. Answers saved into a superseded session's map are not
// carried over — only the answer operation makes an answer durable, and the
// new map starts empty.
func (s *ExamSessionService) Start(ctx context.Context, userID uuid.UUID, examType model.ExamType, examID uuid.UUID) (*StartResult, error) {
	now := time.Now()

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileIncomplete
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !profile.IsComplete {
		return nil, ErrProfileIncomplete
	}

	var terms examTerms
	switch examType {
	case model.ExamTypeCompetition:
		comp, err := s.competitions.GetByID(ctx, examID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrExamNotFound
			}
			return nil, fmt.Errorf("get competition: %w", err)
		}
		if profile.Grade < comp.MinGrade || profile.Grade > comp.MaxGrade {
			return nil, gradeRangeErr(profile.Grade, comp.MinGrade, comp.MaxGrade)
		}
		enr, err := s.enrollments.GetByUserAndCompetition(ctx, userID, examID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotEnrolled
			}
			return nil, fmt.Errorf("get enrollment: %w", err)
		}
		if enr.Status != model.EnrollmentStatusConfirmed || !enr.IsPaymentConfirmed {
			return nil, ErrNotEnrolled
		}
		if comp.ExamWindowStart == nil || comp.ExamWindowEnd == nil ||
			now.Before(*comp.ExamWindowStart) || now.After(*comp.ExamWindowEnd) {
			return nil, ErrWindowClosed
		}
		terms = examTerms{comp.Title, comp.DurationMinutes, comp.TotalMarks, comp.MinGrade, comp.MaxGrade}

	case model.ExamTypeMockTest:
		mt, err := s.mockTests.GetByID(ctx, examID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrExamNotFound
			}
			return nil, fmt.Errorf("get mock test: %w", err)
		}
		if profile.Grade < mt.MinGrade || profile.Grade > mt.MaxGrade {
			return nil, gradeRangeErr(profile.Grade, mt.MinGrade, mt.MaxGrade)
		}
		terms = examTerms{mt.Title, mt.DurationMinutes, mt.TotalMarks, mt.MinGrade, mt.MaxGrade}

	default:
		return nil, fmt.Errorf("unknown exam type %q", examType)
	}

	// Crash recovery: a non-terminal submission resumes with a new session.
	existing, err := s.submissions.GetInProgress(ctx, userID, examType, examID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing submission: %w", err)
	}
	if existing != nil {
		return s.resumeSubmission(ctx, existing, terms, now)
	}

	// Prior terminal attempt blocks a new start.
	latest, err := s.submissions.GetLatestByExam(ctx, userID, examType, examID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check prior attempt: %w", err)
	}
	if latest != nil && latest.Status == model.SubmissionStatusGraded {
		if examType == model.ExamTypeMockTest {
			return nil, ErrAlreadyAttempted
		}
		return nil, ErrAlreadySubmitted
	}
	if examType == model.ExamTypeMockTest {
		if _, err := s.mockTests.GetAttempt(ctx, userID, examID); err == nil {
			return nil, ErrAlreadyAttempted
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("check attempt: %w", err)
		}
	}

	bankID, err := s.competitions.FindBankForGrade(ctx, examType, examID, profile.Grade)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoQuestionBank
		}
		return nil, fmt.Errorf("resolve question bank: %w", err)
	}

	questions, err := s.questions.ListByBank(ctx, bankID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestionBank
	}

	sub := &model.Submission{
		UserID:   userID,
		ExamType: examType,
		ExamID:   examID,
		ExamSnapshot: model.ExamSnapshot{
			Title:           terms.title,
			DurationMinutes: terms.durationMinutes,
			TotalMarks:      terms.totalMarks,
			QuestionBankID:  bankID,
		},
		TotalQuestions: len(questions),
		StartedAt:      now,
		Status:         model.SubmissionStatusInProgress,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	sess, err := s.mintSession(ctx, sub, now)
	if err != nil {
		return nil, err
	}

	if examType == model.ExamTypeMockTest {
		attempt := &model.MockTestAttempt{UserID: userID, MockTestID: examID, SubmissionID: sub.ID}
		if err := s.mockTests.UpsertAttempt(ctx, attempt); err != nil {
			return nil, fmt.Errorf("record attempt: %w", err)
		}
	}

	return &StartResult{
		SessionToken:    sess.SessionToken,
		SubmissionID:    sub.ID,
		ExamTitle:       terms.title,
		DurationMinutes: terms.durationMinutes,
		TotalQuestions:  sub.TotalQuestions,
		StartTime:       sess.StartTime.UnixMilli(),
		EndTime:         sess.EndTime.UnixMilli(),
	}, nil
}

// resumeSubmission handles start when a non-terminal submission already
// exists. The previous session, if still within its grace buffer, is
// superseded so at most one IN_PROGRESS session exists per submission.
func (s *ExamSessionService) resumeSubmission(ctx context.Context, sub *model.Submission, terms examTerms, now time.Time) (*StartResult, error) {
	prev, err := s.sessions.GetLatestBySubmission(ctx, sub.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get prior session: %w", err)
	}
	if prev != nil {
		switch prev.Status {
		case model.SessionStatusSubmitted:
			// Submission should be terminal too; treat as already done.
			if sub.ExamType == model.ExamTypeMockTest {
				return nil, ErrAlreadyAttempted
			}
			return nil, ErrAlreadySubmitted
		case model.SessionStatusExpired:
			return nil, ErrSessionExpired
		case model.SessionStatusInProgress:
			if now.After(prev.ExpiresAt) {
				if err := s.sessions.MarkExpired(ctx, prev.SessionToken); err != nil {
					return nil, fmt.Errorf("expire prior session: %w", err)
				}
				return nil, ErrSessionExpired
			}
			// Supersede the live session before minting a replacement.
			if err := s.sessions.MarkExpired(ctx, prev.SessionToken); err != nil {
				return nil, fmt.Errorf("supersede prior session: %w", err)
			}
		}
	}

	sess, err := s.mintSession(ctx, sub, now)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("submission_id", sub.ID.String()).
		Str("session_token", sess.SessionToken.String()).
		Msg("Recovered submission with a fresh session")

	return &StartResult{
		SessionToken:    sess.SessionToken,
		SubmissionID:    sub.ID,
		ExamTitle:       sub.ExamSnapshot.Title,
		DurationMinutes: sub.ExamSnapshot.DurationMinutes,
		TotalQuestions:  sub.TotalQuestions,
		StartTime:       sess.StartTime.UnixMilli(),
		EndTime:         sess.EndTime.UnixMilli(),
	}, nil
}

func (s *ExamSessionService) mintSession(ctx context.Context, sub *model.Submission, now time.Time) (*model.ExamSession, error) {
	endTime := now.Add(time.Duration(sub.ExamSnapshot.DurationMinutes) * time.Minute)
	sess := &model.ExamSession{
		SessionToken: uuid.New(),
		UserID:       sub.UserID,
		ExamType:     sub.ExamType,
		ExamID:       sub.ExamID,
		SubmissionID: sub.ID,
		StartTime:    now,
		EndTime:      endTime,
		ExpiresAt:    endTime.Add(s.expiryBuffer),
		Answers:      map[string]model.SessionAnswer{},
		Status:       model.SessionStatusInProgress,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// getOwnedSession resolves a token and enforces ownership.
func (s *ExamSessionService) getOwnedSession(ctx context.Context, token, userID uuid.UUID) (*model.ExamSession, error) {
	sess, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.UserID != userID {
		return nil, ErrNotOwner
	}
	return sess, nil
}

// Init hydrates the exam screen: questions without answer keys plus the
// answers already saved into this session.
func (s *ExamSessionService) Init(ctx context.Context, userID, token uuid.UUID) (*InitResult, error) {
	now := time.Now()

	sess, err := s.getOwnedSession(ctx, token, userID)
	if err != nil {
		return nil, err
	}
	if sess.Status != model.SessionStatusInProgress {
		return nil, ErrSessionNotActive
	}
	if now.After(sess.EndTime) {
		if err := s.sessions.MarkExpired(ctx, token); err != nil {
			return nil, fmt.Errorf("expire session: %w", err)
		}
		return nil, ErrSessionNotActive
	}

	sub, err := s.submissions.GetByID(ctx, sess.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}

	payload, err := s.payloads.GetPayload(ctx, sub.ExamSnapshot.QuestionBankID)
	if err != nil {
		return nil, fmt.Errorf("get bank payload: %w", err)
	}

	saved := make(map[string]int, len(sess.Answers))
	for qid, a := range sess.Answers {
		saved[qid] = a.SelectedOption
	}

	return &InitResult{
		SessionToken:  sess.SessionToken,
		SubmissionID:  sess.SubmissionID,
		Questions:     payload.Questions,
		SavedAnswers:  saved,
		TimeRemaining: sess.TimeRemaining(now),
	}, nil
}

// SaveAnswer upserts one answer. Correctness is never checked here — grading
// happens only at submit.
func (s *ExamSessionService) SaveAnswer(ctx context.Context, userID, token, questionID uuid.UUID, selectedOption int) (time.Time, error) {
	now := time.Now()

	sess, err := s.getOwnedSession(ctx, token, userID)
	if err != nil {
		return time.Time{}, err
	}

	answer := model.SessionAnswer{SelectedOption: selectedOption, AnsweredAt: now}
	ok, err := s.sessions.SaveAnswer(ctx, token, questionID, answer, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("save answer: %w", err)
	}
	if !ok {
		// The conditional write refused: either the window lapsed between
		// the read above and the write, or the session went terminal.
		if sess.Status == model.SessionStatusInProgress && now.After(sess.EndTime) {
			if err := s.sessions.MarkExpired(ctx, token); err != nil {
				return time.Time{}, fmt.Errorf("expire session: %w", err)
			}
		}
		return time.Time{}, ErrSessionNotActive
	}
	return now, nil
}

// Heartbeat is a pure read. An unknown token yields an inactive result, not
// an error, so a client that lost its session can settle cleanly. A lapsed
// window sets ShouldAutoSubmit: the client is the actor that calls submit;
// nothing here mutates state, and a session that is never polled again simply
// stays IN_PROGRESS until another read path expires it.
func (s *ExamSessionService) Heartbeat(ctx context.Context, userID, token uuid.UUID) (*HeartbeatResult, error) {
	now := time.Now()

	sess, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &HeartbeatResult{IsActive: false, Status: model.SessionStatusExpired}, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.UserID != userID {
		return nil, ErrNotOwner
	}

	remaining := sess.TimeRemaining(now)
	active := sess.Status == model.SessionStatusInProgress && remaining > 0

	return &HeartbeatResult{
		IsActive:         active,
		TimeRemaining:    remaining,
		AnsweredCount:    len(sess.Answers),
		Status:           sess.Status,
		ShouldAutoSubmit: sess.Status == model.SessionStatusInProgress && remaining == 0,
	}, nil
}

// Submit grades the session exactly once.
//
// Idempotency: a SUBMITTED session returns the stored result unchanged.
// Exclusivity: the is_locked FALSE→TRUE conditional update admits one grader;
// a concurrent loser gets ErrSubmitInProgress (or the stored result if it
// arrives after the winner finished). Any failure after the lock is acquired
// unlocks best-effort before returning.
func (s *ExamSessionService) Submit(ctx context.Context, userID, token uuid.UUID) (*SubmitResult, error) {
	now := time.Now()

	sess, err := s.getOwnedSession(ctx, token, userID)
	if err != nil {
		return nil, err
	}

	if sess.Status == model.SessionStatusSubmitted {
		return s.storedResult(ctx, sess.SubmissionID)
	}
	if sess.Status == model.SessionStatusExpired {
		return nil, ErrSessionNotActive
	}

	locked, err := s.sessions.TryLock(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("acquire submit lock: %w", err)
	}
	if !locked {
		// Either a concurrent submit holds the lock, or it already finished.
		fresh, err := s.sessions.GetByToken(ctx, token)
		if err == nil && fresh.Status == model.SessionStatusSubmitted {
			return s.storedResult(ctx, fresh.SubmissionID)
		}
		return nil, ErrSubmitInProgress
	}

	result, err := s.finalize(ctx, sess, now)
	if err != nil {
		// Best-effort compensation. A crash between lock and unlock still
		// leaves the session locked; only a lease with a timeout would close
		// that gap.
		if uerr := s.sessions.Unlock(ctx, token); uerr != nil {
			s.log.Error().Err(uerr).Str("session_token", token.String()).Msg("Failed to unlock session after scoring error")
		}
		return nil, err
	}
	return result, nil
}

// finalize runs the scoring pass and the terminal writes. Caller holds the
// session lock.
func (s *ExamSessionService) finalize(ctx context.Context, sess *model.ExamSession, now time.Time) (*SubmitResult, error) {
	sub, err := s.submissions.GetByID(ctx, sess.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if sub.Status == model.SubmissionStatusGraded {
		// Session lagged behind a finalized submission; heal and return.
		if err := s.sessions.MarkSubmitted(ctx, sess.SessionToken); err != nil {
			return nil, fmt.Errorf("mark session submitted: %w", err)
		}
		return resultFromSubmission(sub), nil
	}

	questions, err := s.questions.ListByBank(ctx, sub.ExamSnapshot.QuestionBankID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	var (
		score     int
		correct   int
		incorrect int
		ledger    []model.SubmissionAnswer
	)
	for i := range questions {
		q := &questions[i]
		saved, answered := sess.Answers[q.ID.String()]
		if !answered {
			continue // Unanswered questions leave no ledger row.
		}
		isCorrect := saved.SelectedOption == q.CorrectOption
		if isCorrect {
			score += q.Marks
			correct++
		} else {
			incorrect++
		}
		ledger = append(ledger, model.SubmissionAnswer{
			SubmissionID:   sub.ID,
			QuestionID:     q.ID,
			SelectedOption: saved.SelectedOption,
			CorrectOption:  q.CorrectOption,
			IsCorrect:      isCorrect,
			MarksAwarded:   marksIf(isCorrect, q.Marks),
			AnsweredAt:     saved.AnsweredAt,
		})
	}

	sub.Score = score
	sub.CorrectAnswers = correct
	sub.IncorrectAnswers = incorrect
	sub.Unanswered = sub.TotalQuestions - correct - incorrect
	sub.TimeTakenSeconds = int64(now.Sub(sub.StartedAt).Seconds())

	if err := s.submissions.InsertAnswers(ctx, ledger); err != nil {
		return nil, fmt.Errorf("insert answer ledger: %w", err)
	}

	finalized, err := s.submissions.Finalize(ctx, sub, now)
	if err != nil {
		return nil, fmt.Errorf("finalize submission: %w", err)
	}
	if !finalized {
		// Lost a race we should not be able to lose while holding the lock;
		// fall back to the stored result.
		stored, err := s.submissions.GetByID(ctx, sub.ID)
		if err != nil {
			return nil, fmt.Errorf("reload submission: %w", err)
		}
		if err := s.sessions.MarkSubmitted(ctx, sess.SessionToken); err != nil {
			return nil, fmt.Errorf("mark session submitted: %w", err)
		}
		return resultFromSubmission(stored), nil
	}
	sub.Status = model.SubmissionStatusGraded

	if err := s.sessions.MarkSubmitted(ctx, sess.SessionToken); err != nil {
		return nil, fmt.Errorf("mark session submitted: %w", err)
	}

	if sub.ExamType == model.ExamTypeMockTest {
		attempt := &model.MockTestAttempt{UserID: sub.UserID, MockTestID: sub.ExamID, SubmissionID: sub.ID}
		if err := s.mockTests.UpsertAttempt(ctx, attempt); err != nil {
			return nil, fmt.Errorf("record attempt: %w", err)
		}
	}

	s.log.Info().
		Str("submission_id", sub.ID.String()).
		Int("score", score).
		Int("correct", correct).
		Int("incorrect", incorrect).
		Msg("Submission graded")

	return resultFromSubmission(sub), nil
}

func (s *ExamSessionService) storedResult(ctx context.Context, submissionID uuid.UUID) (*SubmitResult, error) {
	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return resultFromSubmission(sub), nil
}

func resultFromSubmission(sub *model.Submission) *SubmitResult {
	return &SubmitResult{
		SubmissionID:     sub.ID,
		Score:            sub.Score,
		TotalMarks:       sub.ExamSnapshot.TotalMarks,
		CorrectAnswers:   sub.CorrectAnswers,
		IncorrectAnswers: sub.IncorrectAnswers,
		Unanswered:       sub.Unanswered,
		TimeTakenSeconds: sub.TimeTakenSeconds,
	}
}

func marksIf(correct bool, marks int) int {
	if correct {
		return marks
	}
	return 0
}

// ActiveSession returns the caller's newest IN_PROGRESS session, or nil.
func (s *ExamSessionService) ActiveSession(ctx context.Context, userID uuid.UUID) (*model.ExamSession, error) {
	sess, err := s.sessions.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return sess, nil
}

// SubmissionDetail is a finalized submission with its answer ledger.
type SubmissionDetail struct {
	Submission model.Submission         `json:"submission"`
	Answers    []model.SubmissionAnswer `json:"answers"`
}

// GetSubmission returns a submission with its ledger. Owner-only.
func (s *ExamSessionService) GetSubmission(ctx context.Context, userID, submissionID uuid.UUID) (*SubmissionDetail, error) {
	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if sub.UserID != userID {
		return nil, ErrNotOwner
	}
	answers, err := s.submissions.ListAnswers(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return &SubmissionDetail{Submission: *sub, Answers: answers}, nil
}
