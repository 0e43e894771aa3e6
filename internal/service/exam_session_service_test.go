package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/scholarena/arena-backend/internal/model"
)

type sessionEnv struct {
	profiles     *fakeProfileStore
	competitions *fakeCompetitionStore
	mockTests    *fakeMockTestStore
	enrollments  *fakeEnrollmentStore
	sessions     *fakeSessionStore
	submissions  *fakeSubmissionStore
	questions    *fakeQuestionStore
	svc          *ExamSessionService

	userID uuid.UUID
	bankID uuid.UUID
	// q1..q3 carry marks 2, 3, 5 with correct options 1, 0, 2.
	q1, q2, q3 uuid.UUID
}

func newSessionEnv(t *testing.T) *sessionEnv {
	t.Helper()

	env := &sessionEnv{
		profiles:     newFakeProfileStore(),
		competitions: newFakeCompetitionStore(),
		mockTests:    newFakeMockTestStore(),
		enrollments:  newFakeEnrollmentStore(),
		sessions:     newFakeSessionStore(),
		submissions:  newFakeSubmissionStore(),
		questions:    newFakeQuestionStore(),
		userID:       uuid.New(),
		bankID:       uuid.New(),
		q1:           uuid.New(),
		q2:           uuid.New(),
		q3:           uuid.New(),
	}
	env.svc = NewExamSessionService(
		env.profiles, env.competitions, env.mockTests, env.enrollments,
		env.sessions, env.submissions, env.questions,
		&fakePayloadSource{questions: env.questions},
		15*time.Minute, zerolog.Nop(),
	)

	env.profiles.put(model.UserProfile{
		UserID:     env.userID,
		FullName:   "Asha Verma",
		Grade:      7,
		SchoolName: "Green Valley School",
		IsComplete: true,
	})
	opts := json.RawMessage(`["A","B","C","D"]`)
	env.questions.put(env.bankID, []model.Question{
		{ID: env.q1, QuestionBankID: env.bankID, QuestionText: "Q1", Options: opts, CorrectOption: 1, Marks: 2, OrderNum: 1},
		{ID: env.q2, QuestionBankID: env.bankID, QuestionText: "Q2", Options: opts, CorrectOption: 0, Marks: 3, OrderNum: 2},
		{ID: env.q3, QuestionBankID: env.bankID, QuestionText: "Q3", Options: opts, CorrectOption: 2, Marks: 5, OrderNum: 3},
	})
	return env
}

func (env *sessionEnv) seedMockTest() uuid.UUID {
	id := uuid.New()
	env.mockTests.put(model.MockTest{
		ID:              id,
		Title:           "Practice Maths",
		MinGrade:        5,
		MaxGrade:        8,
		DurationMinutes: 60,
		TotalMarks:      10,
	})
	env.competitions.assign(model.BankAssignment{
		ExamType: model.ExamTypeMockTest, ExamID: id,
		QuestionBankID: env.bankID, MinGrade: 5, MaxGrade: 8,
	})
	return id
}

func (env *sessionEnv) seedCompetition() uuid.UUID {
	id := uuid.New()
	now := time.Now()
	windowStart := now.Add(-time.Hour)
	windowEnd := now.Add(time.Hour)
	env.competitions.put(model.Competition{
		ID:                id,
		Title:             "National Science Olympiad",
		MinGrade:          5,
		MaxGrade:          8,
		FeeMinorUnits:     50000,
		DurationMinutes:   60,
		TotalMarks:        10,
		RegistrationStart: now.Add(-48 * time.Hour),
		RegistrationEnd:   now.Add(-time.Hour),
		ExamWindowStart:   &windowStart,
		ExamWindowEnd:     &windowEnd,
	})
	env.competitions.assign(model.BankAssignment{
		ExamType: model.ExamTypeCompetition, ExamID: id,
		QuestionBankID: env.bankID, MinGrade: 5, MaxGrade: 8,
	})
	return id
}

func (env *sessionEnv) confirmEnrollment(competitionID uuid.UUID) {
	env.enrollments.put(model.Enrollment{
		UserID:             env.userID,
		CompetitionID:      competitionID,
		PaymentID:          uuid.New(),
		Status:             model.EnrollmentStatusConfirmed,
		IsPaymentConfirmed: true,
	})
}

func (env *sessionEnv) startMock(t *testing.T) *StartResult {
	t.Helper()
	res, err := env.svc.Start(context.Background(), env.userID, model.ExamTypeMockTest, env.seedMockTest())
	if err != nil {
		t.Fatalf("start mock test: %v", err)
	}
	return res
}

func TestStartMintsSessionWindow(t *testing.T) {
	env := newSessionEnv(t)
	res := env.startMock(t)

	if res.SessionToken == uuid.Nil || res.SubmissionID == uuid.Nil {
		t.Fatal("expected a session token and submission id")
	}
	if res.TotalQuestions != 3 {
		t.Fatalf("total questions = %d, want 3", res.TotalQuestions)
	}
	if got := res.EndTime - res.StartTime; got != 60*60*1000 {
		t.Fatalf("window = %d ms, want 3600000", got)
	}

	hb, err := env.svc.Heartbeat(context.Background(), env.userID, res.SessionToken)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if !hb.IsActive || hb.ShouldAutoSubmit {
		t.Fatalf("fresh session heartbeat = %+v, want active without auto-submit", hb)
	}
}

func TestStartRequiresCompleteProfile(t *testing.T) {
	env := newSessionEnv(t)
	examID := env.seedMockTest()

	stranger := uuid.New()
	if _, err := env.svc.Start(context.Background(), stranger, model.ExamTypeMockTest, examID); !errors.Is(err, ErrProfileIncomplete) {
		t.Fatalf("missing profile: err = %v, want ErrProfileIncomplete", err)
	}

	env.profiles.put(model.UserProfile{UserID: stranger, Grade: 7, IsComplete: false})
	if _, err := env.svc.Start(context.Background(), stranger, model.ExamTypeMockTest, examID); !errors.Is(err, ErrProfileIncomplete) {
		t.Fatalf("incomplete profile: err = %v, want ErrProfileIncomplete", err)
	}
}

func TestStartGradeOutsideRange(t *testing.T) {
	env := newSessionEnv(t)
	examID := env.seedMockTest()

	env.profiles.put(model.UserProfile{UserID: env.userID, FullName: "Asha Verma", Grade: 10, IsComplete: true})
	_, err := env.svc.Start(context.Background(), env.userID, model.ExamTypeMockTest, examID)
	if !errors.Is(err, ErrGradeNotAllowed) {
		t.Fatalf("err = %v, want ErrGradeNotAllowed", err)
	}
	if !strings.Contains(err.Error(), "5-8") {
		t.Fatalf("err = %q, want the allowed range named", err)
	}
}

func TestStartCompetitionEnrollmentGate(t *testing.T) {
	env := newSessionEnv(t)
	compID := env.seedCompetition()
	ctx := context.Background()

	if _, err := env.svc.Start(ctx, env.userID, model.ExamTypeCompetition, compID); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("no enrollment: err = %v, want ErrNotEnrolled", err)
	}

	env.enrollments.put(model.Enrollment{
		UserID: env.userID, CompetitionID: compID, PaymentID: uuid.New(),
		Status: model.EnrollmentStatusPending,
	})
	if _, err := env.svc.Start(ctx, env.userID, model.ExamTypeCompetition, compID); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("pending enrollment: err = %v, want ErrNotEnrolled", err)
	}
}

func TestStartCompetitionOutsideExamWindow(t *testing.T) {
	env := newSessionEnv(t)
	compID := env.seedCompetition()
	env.confirmEnrollment(compID)

	comp, _ := env.competitions.GetByID(context.Background(), compID)
	past := time.Now().Add(-2 * time.Hour)
	closed := time.Now().Add(-time.Hour)
	comp.ExamWindowStart = &past
	comp.ExamWindowEnd = &closed
	env.competitions.put(*comp)

	if _, err := env.svc.Start(context.Background(), env.userID, model.ExamTypeCompetition, compID); !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("err = %v, want ErrWindowClosed", err)
	}
}

func TestStartCompetitionWithConfirmedEnrollment(t *testing.T) {
	env := newSessionEnv(t)
	compID := env.seedCompetition()
	env.confirmEnrollment(compID)

	res, err := env.svc.Start(context.Background(), env.userID, model.ExamTypeCompetition, compID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.ExamTitle != "National Science Olympiad" {
		t.Fatalf("title = %q", res.ExamTitle)
	}
}

func TestStartWithoutBankAssignment(t *testing.T) {
	env := newSessionEnv(t)
	id := uuid.New()
	env.mockTests.put(model.MockTest{ID: id, Title: "Unassigned", MinGrade: 5, MaxGrade: 8, DurationMinutes: 30, TotalMarks: 5})

	if _, err := env.svc.Start(context.Background(), env.userID, model.ExamTypeMockTest, id); !errors.Is(err, ErrNoQuestionBank) {
		t.Fatalf("err = %v, want ErrNoQuestionBank", err)
	}
}

func TestSaveAnswerAndInit(t *testing.T) {
	env := newSessionEnv(t)
	res := env.startMock(t)
	ctx := context.Background()

	if _, err := env.svc.SaveAnswer(ctx, env.userID, res.SessionToken, env.q1, 1); err != nil {
		t.Fatalf("save answer: %v", err)
	}
	// Last write per question wins.
	if _, err := env.svc.SaveAnswer(ctx, env.userID, res.SessionToken, env.q2, 2); err != nil {
		t.Fatalf("save answer: %v", err)
	}
	if _, err := env.svc.SaveAnswer(ctx, env.userID, res.SessionToken, env.q2, 0); err != nil {
		t.Fatalf("save answer: %v", err)
	}

	init, err := env.svc.Init(ctx, env.userID, res.SessionToken)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if len(init.Questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(init.Questions))
	}
	if len(init.SavedAnswers) != 2 {
		t.Fatalf("saved answers = %v, want 2 entries", init.SavedAnswers)
	}
	if init.SavedAnswers[env.q2.String()] != 0 {
		t.Fatalf("q2 = %d, want the last write (0)", init.SavedAnswers[env.q2.String()])
	}
	if init.TimeRemaining <= 0 || init.TimeRemaining > 3600 {
		t.Fatalf("time remaining = %d", init.TimeRemaining)
	}
}

func TestSaveAnswerAfterWindowExpires(t *testing.T) {
	env := newSessionEnv(t)
	res := env.startMock(t)

	sess := env.sessions.get(res.SessionToken)
	sess.EndTime = time.Now().Add(-time.Second)
	env.sessions.put(sess)

	_, err := env.svc.SaveAnswer(context.Background(), env.userID, res.SessionToken, env.q1, 1)
	if !errors.Is(err, ErrSessionNotActive) {
		t.Fatalf("err = %v, want ErrSessionNotActive", err)
	}
	if got := env.sessions.get(res.SessionToken).Status; got != model.SessionStatusExpired {
		t.Fatalf("session status = %s, want EXPIRED", got)
	}
}

func TestHeartbeatLapsedWindowRequestsSubmit(t *testing.T) {
	env := newSessionEnv(t)
	res := env.startMock(t)

	sess := env.sessions.get(res.SessionToken)
	sess.EndTime = time.Now().Add(-time.Second)
	env.sessions.put(sess)

	hb, err := env.svc.Heartbeat(context.Background(), env.userID, res.SessionToken)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if hb.IsActive {
		t.Fatal("lapsed session reported active")
	}
	if hb.TimeRemaining != 0 {
		t.Fatalf("time remaining = %d, want 0", hb.TimeRemaining)
	}
	if !hb.ShouldAutoSubmit {
		t.Fatal("expected should_auto_submit")
	}
	// Heartbeat is a pure read; it must not have expired the row itself.
	if got := env.sessions.get(res.SessionToken).Status; got != model.SessionStatusInProgress {
		t.Fatalf("session status = %s, heartbeat must not mutate", got)
	}
}

func TestHeartbeatUnknownToken(t *testing.T) {
	env := newSessionEnv(t)
	hb, err := env.svc.Heartbeat(context.Background(), env.userID, uuid.New())
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if hb.IsActive {
		t.Fatal("unknown token reported active")
	}
}

func TestSubmitScoresOnce(t *testing.T) {
	env := newSessionEnv(t)
	res := env.startMock(t)
	ctx := context.Background()

	// q1 correct (option 1, 2 marks), q2 wrong, q3 unanswered.
	if _, err := env.svc.SaveAnswer(ctx, env.userID, res.SessionToken, env.q1, 1); err != nil {
		t.Fatalf("save answer: %v", err)
	}
	if _, err := env.svc.SaveAnswer(ctx, env.userID, res.SessionToken, env.q2, 3); err != nil {
		t.Fatalf("save answer: %v", err)
	}

	result, err := env.svc.Submit(ctx, env.userID, res.SessionToken)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 2 {
		t.Fatalf("score = %d, want 2", result.Score)
	}
	if result.CorrectAnswers != 1 || result.IncorrectAnswers != 1 || result.Unanswered != 1 {
		t.Fatalf("breakdown = %d/%d/%d, want 1/1/1", result.CorrectAnswers, result.IncorrectAnswers, result.Unanswered)
	}
	if result.TotalMarks != 10 {
		t.Fatalf("total marks = %d, want 10", result.TotalMarks)
	}
	if got := env.submissions.ledgerLen(); got != 2 {
		t.Fatalf("ledger rows = %d, want 2 (unanswered leaves no row)", got)
	}
	if got := env.sessions.get(res.SessionToken).Status; got != model.SessionStatusSubmitted {
		t.Fatalf("session status = %s, want SUBMITTED", got)
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	env := newSessionEnv(t)
	res := env.startMock(t)
	ctx := context.Background()

	if _, err := env.svc.SaveAnswer(ctx, env.userID, res.SessionToken, env.q1, 1); err != nil {
		t.Fatalf("save answer: %v", err)
	}
	first, err := env.svc.Submit(ctx, env.userID, res.SessionToken)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := env.svc.Submit(ctx, env.userID, res.SessionToken)
	if err != nil {
		t.Fatalf("repeat submit: %v", err)
	}
	if *first != *second {
		t.Fatalf("repeat submit diverged: %+v vs %+v", first, second)
	}
	if got := env.submissions.ledgerLen(); got != 1 {
		t.Fatalf("ledger rows = %d, want 1 (no duplicate grading)", got)
	}
}

func TestSubmitConcurrentCallsGradeOnce(t *testing.T) {
	env := newSessionEnv(t)
	res := env.startMock(t)
	ctx := context.Background()

	if _, err := env.svc.SaveAnswer(ctx, env.userID, res.SessionToken, env.q1, 1); err != nil {
		t.Fatalf("save answer: %v", err)
	}
	if _, err := env.svc.SaveAnswer(ctx, env.userID, res.SessionToken, env.q3, 2); err != nil {
		t.Fatalf("save answer: %v", err)
	}

	const callers = 8
	var (
		gate    = make(chan struct{})
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*SubmitResult
		busy    int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			r, err := env.svc.Submit(ctx, env.userID, res.SessionToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				results = append(results, r)
			case errors.Is(err, ErrSubmitInProgress):
				busy++
			default:
				t.Errorf("unexpected submit error: %v", err)
			}
		}()
	}
	close(gate)
	wg.Wait()

	if len(results)+busy != callers {
		t.Fatalf("results %d + busy %d != %d callers", len(results), busy, callers)
	}
	if len(results) == 0 {
		t.Fatal("no caller obtained a result")
	}
	for _, r := range results {
		if r.Score != 7 || r.CorrectAnswers != 2 {
			t.Fatalf("diverging result %+v, want score 7 correct 2", r)
		}
	}
	if got := env.submissions.ledgerLen(); got != 2 {
		t.Fatalf("ledger rows = %d, want 2 (graded exactly once)", got)
	}
	if got := env.submissions.get(res.SubmissionID).Status; got != model.SubmissionStatusGraded {
		t.Fatalf("submission status = %s, want GRADED", got)
	}
}

func TestStartSupersedesLiveSession(t *testing.T) {
	env := newSessionEnv(t)
	examID := env.seedMockTest()
	ctx := context.Background()

	first, err := env.svc.Start(ctx, env.userID, model.ExamTypeMockTest, examID)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := env.svc.SaveAnswer(ctx, env.userID, first.SessionToken, env.q1, 1); err != nil {
		t.Fatalf("save answer: %v", err)
	}

	second, err := env.svc.Start(ctx, env.userID, model.ExamTypeMockTest, examID)
	if err != nil {
		t.Fatalf("recovery start: %v", err)
	}
	if second.SessionToken == first.SessionToken {
		t.Fatal("recovery reused the old token")
	}
	if second.SubmissionID != first.SubmissionID {
		t.Fatal("recovery minted a new submission")
	}
	if got := env.sessions.get(first.SessionToken).Status; got != model.SessionStatusExpired {
		t.Fatalf("old session status = %s, want EXPIRED", got)
	}

	// The fresh session starts with an empty answers map; answers saved into
	// the superseded session are not carried over.
	init, err := env.svc.Init(ctx, env.userID, second.SessionToken)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if len(init.SavedAnswers) != 0 {
		t.Fatalf("saved answers = %v, want none", init.SavedAnswers)
	}
}

func TestStartAfterExpiryBufferIsGone(t *testing.T) {
	env := newSessionEnv(t)
	examID := env.seedMockTest()
	ctx := context.Background()

	first, err := env.svc.Start(ctx, env.userID, model.ExamTypeMockTest, examID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	sess := env.sessions.get(first.SessionToken)
	sess.EndTime = time.Now().Add(-30 * time.Minute)
	sess.ExpiresAt = time.Now().Add(-15 * time.Minute)
	env.sessions.put(sess)

	if _, err := env.svc.Start(ctx, env.userID, model.ExamTypeMockTest, examID); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if got := env.sessions.get(first.SessionToken).Status; got != model.SessionStatusExpired {
		t.Fatalf("session status = %s, want EXPIRED", got)
	}
}

func TestSubmitExpiredSession(t *testing.T) {
	env := newSessionEnv(t)
	res := env.startMock(t)

	sess := env.sessions.get(res.SessionToken)
	sess.Status = model.SessionStatusExpired
	env.sessions.put(sess)

	if _, err := env.svc.Submit(context.Background(), env.userID, res.SessionToken); !errors.Is(err, ErrSessionNotActive) {
		t.Fatalf("err = %v, want ErrSessionNotActive", err)
	}
}

func TestMockTestSingleAttempt(t *testing.T) {
	env := newSessionEnv(t)
	examID := env.seedMockTest()
	ctx := context.Background()

	res, err := env.svc.Start(ctx, env.userID, model.ExamTypeMockTest, examID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.svc.Submit(ctx, env.userID, res.SessionToken); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.svc.Start(ctx, env.userID, model.ExamTypeMockTest, examID); !errors.Is(err, ErrAlreadyAttempted) {
		t.Fatalf("err = %v, want ErrAlreadyAttempted", err)
	}
}

func TestSessionOwnership(t *testing.T) {
	env := newSessionEnv(t)
	res := env.startMock(t)
	ctx := context.Background()

	intruder := uuid.New()
	env.profiles.put(model.UserProfile{UserID: intruder, Grade: 7, IsComplete: true})

	if _, err := env.svc.Init(ctx, intruder, res.SessionToken); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("init: err = %v, want ErrNotOwner", err)
	}
	if _, err := env.svc.Submit(ctx, intruder, res.SessionToken); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("submit: err = %v, want ErrNotOwner", err)
	}
	if _, err := env.svc.GetSubmission(ctx, intruder, res.SubmissionID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("get submission: err = %v, want ErrNotOwner", err)
	}
}

func TestGetSubmissionWithLedger(t *testing.T) {
	env := newSessionEnv(t)
	res := env.startMock(t)
	ctx := context.Background()

	if _, err := env.svc.SaveAnswer(ctx, env.userID, res.SessionToken, env.q1, 1); err != nil {
		t.Fatalf("save answer: %v", err)
	}
	if _, err := env.svc.Submit(ctx, env.userID, res.SessionToken); err != nil {
		t.Fatalf("submit: %v", err)
	}

	detail, err := env.svc.GetSubmission(ctx, env.userID, res.SubmissionID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if detail.Submission.Status != model.SubmissionStatusGraded {
		t.Fatalf("status = %s, want GRADED", detail.Submission.Status)
	}
	if len(detail.Answers) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(detail.Answers))
	}
	if !detail.Answers[0].IsCorrect || detail.Answers[0].MarksAwarded != 2 {
		t.Fatalf("ledger row = %+v, want correct with 2 marks", detail.Answers[0])
	}

	if _, err := env.svc.GetSubmission(ctx, env.userID, uuid.New()); !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrSubmissionNotFound", err)
	}
}
