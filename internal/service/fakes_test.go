package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/scholarena/arena-backend/internal/model"
)

// In-memory store fakes. They mirror the conditional-update semantics of the
// pgx repositories (including the PENDING/IN_PROGRESS guards) and are safe
// for concurrent use so the race tests exercise the real coordination logic.

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]model.UserProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: map[uuid.UUID]model.UserProfile{}}
}

func (f *fakeProfileStore) put(p model.UserProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.UserID] = p
}

func (f *fakeProfileStore) GetByUserID(_ context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

type fakeCompetitionStore struct {
	mu           sync.Mutex
	competitions map[uuid.UUID]model.Competition
	assignments  []model.BankAssignment
}

func newFakeCompetitionStore() *fakeCompetitionStore {
	return &fakeCompetitionStore{competitions: map[uuid.UUID]model.Competition{}}
}

func (f *fakeCompetitionStore) put(c model.Competition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.competitions[c.ID] = c
}

func (f *fakeCompetitionStore) assign(a model.BankAssignment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignments = append(f.assignments, a)
}

func (f *fakeCompetitionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.competitions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (f *fakeCompetitionStore) ListForGrade(_ context.Context, grade int) ([]model.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Competition
	for _, c := range f.competitions {
		if grade >= c.MinGrade && grade <= c.MaxGrade {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCompetitionStore) FindBankForGrade(_ context.Context, examType model.ExamType, examID uuid.UUID, grade int) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.ExamType == examType && a.ExamID == examID && grade >= a.MinGrade && grade <= a.MaxGrade {
			return a.QuestionBankID, nil
		}
	}
	return uuid.Nil, pgx.ErrNoRows
}

type attemptKey struct {
	userID     uuid.UUID
	mockTestID uuid.UUID
}

type fakeMockTestStore struct {
	mu       sync.Mutex
	tests    map[uuid.UUID]model.MockTest
	attempts map[attemptKey]model.MockTestAttempt
}

func newFakeMockTestStore() *fakeMockTestStore {
	return &fakeMockTestStore{
		tests:    map[uuid.UUID]model.MockTest{},
		attempts: map[attemptKey]model.MockTestAttempt{},
	}
}

func (f *fakeMockTestStore) put(mt model.MockTest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tests[mt.ID] = mt
}

func (f *fakeMockTestStore) GetByID(_ context.Context, id uuid.UUID) (*model.MockTest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mt, ok := f.tests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &mt, nil
}

func (f *fakeMockTestStore) ListForGrade(_ context.Context, grade int) ([]model.MockTest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MockTest
	for _, mt := range f.tests {
		if grade >= mt.MinGrade && grade <= mt.MaxGrade {
			out = append(out, mt)
		}
	}
	return out, nil
}

func (f *fakeMockTestStore) GetAttempt(_ context.Context, userID, mockTestID uuid.UUID) (*model.MockTestAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[attemptKey{userID, mockTestID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (f *fakeMockTestStore) UpsertAttempt(_ context.Context, a *model.MockTestAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[attemptKey{a.UserID, a.MockTestID}] = *a
	return nil
}

type fakeEnrollmentStore struct {
	mu          sync.Mutex
	enrollments map[uuid.UUID]model.Enrollment
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{enrollments: map[uuid.UUID]model.Enrollment{}}
}

func (f *fakeEnrollmentStore) put(e model.Enrollment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	f.enrollments[e.ID] = e
}

func (f *fakeEnrollmentStore) Upsert(_ context.Context, e *model.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.enrollments {
		if existing.UserID == e.UserID && existing.CompetitionID == e.CompetitionID {
			if existing.Status == model.EnrollmentStatusConfirmed {
				*e = existing
				return nil
			}
			e.ID = id
			f.enrollments[id] = *e
			return nil
		}
	}
	e.ID = uuid.New()
	f.enrollments[e.ID] = *e
	return nil
}

func (f *fakeEnrollmentStore) GetByUserAndCompetition(_ context.Context, userID, competitionID uuid.UUID) (*model.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.enrollments {
		if e.UserID == userID && e.CompetitionID == competitionID {
			out := e
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeEnrollmentStore) GetByPaymentID(_ context.Context, paymentID uuid.UUID) (*model.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.enrollments {
		if e.PaymentID == paymentID {
			out := e
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeEnrollmentStore) Confirm(_ context.Context, paymentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, e := range f.enrollments {
		if e.PaymentID == paymentID {
			e.Status = model.EnrollmentStatusConfirmed
			e.IsPaymentConfirmed = true
			f.enrollments[id] = e
		}
	}
	return nil
}

type fakePaymentStore struct {
	mu       sync.Mutex
	payments map[uuid.UUID]model.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: map[uuid.UUID]model.Payment{}}
}

func (f *fakePaymentStore) put(p model.Payment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[p.ID] = p
}

func (f *fakePaymentStore) get(id uuid.UUID) model.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payments[id]
}

func (f *fakePaymentStore) Create(_ context.Context, p *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.payments[p.ID] = *p
	return nil
}

func (f *fakePaymentStore) AttachOrder(_ context.Context, id uuid.UUID, gatewayOrderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.GatewayOrderID = gatewayOrderID
	f.payments[id] = p
	return nil
}

func (f *fakePaymentStore) GetByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (f *fakePaymentStore) GetByGatewayOrderID(_ context.Context, orderID string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.GatewayOrderID == orderID {
			out := p
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakePaymentStore) MarkSucceeded(_ context.Context, id uuid.UUID, gatewayPaymentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusSuccess
	p.GatewayPaymentID = gatewayPaymentID
	f.payments[id] = p
	return true, nil
}

func (f *fakePaymentStore) MarkFailed(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusFailed
	p.FailureReason = reason
	f.payments[id] = p
	return true, nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]model.ExamSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[uuid.UUID]model.ExamSession{}}
}

func (f *fakeSessionStore) put(s model.ExamSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.SessionToken] = copySession(s)
}

func (f *fakeSessionStore) get(token uuid.UUID) model.ExamSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copySession(f.sessions[token])
}

func copySession(s model.ExamSession) model.ExamSession {
	answers := make(map[string]model.SessionAnswer, len(s.Answers))
	for k, v := range s.Answers {
		answers[k] = v
	}
	s.Answers = answers
	return s
}

func (f *fakeSessionStore) Create(_ context.Context, s *model.ExamSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = uuid.New()
	f.sessions[s.SessionToken] = copySession(*s)
	return nil
}

func (f *fakeSessionStore) GetByToken(_ context.Context, token uuid.UUID) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := copySession(s)
	return &out, nil
}

func (f *fakeSessionStore) GetLatestBySubmission(_ context.Context, submissionID uuid.UUID) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.ExamSession
	for _, s := range f.sessions {
		if s.SubmissionID != submissionID {
			continue
		}
		if latest == nil || s.StartTime.After(latest.StartTime) {
			out := copySession(s)
			latest = &out
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	return latest, nil
}

func (f *fakeSessionStore) GetActiveByUser(_ context.Context, userID uuid.UUID) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.ExamSession
	for _, s := range f.sessions {
		if s.UserID != userID || s.Status != model.SessionStatusInProgress {
			continue
		}
		if latest == nil || s.StartTime.After(latest.StartTime) {
			out := copySession(s)
			latest = &out
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	return latest, nil
}

func (f *fakeSessionStore) SaveAnswer(_ context.Context, token uuid.UUID, questionID uuid.UUID, answer model.SessionAnswer, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok || s.Status != model.SessionStatusInProgress || !s.EndTime.After(now) {
		return false, nil
	}
	s.Answers[questionID.String()] = answer
	f.sessions[token] = s
	return true, nil
}

func (f *fakeSessionStore) TryLock(_ context.Context, token uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok || s.IsLocked || s.Status != model.SessionStatusInProgress {
		return false, nil
	}
	s.IsLocked = true
	f.sessions[token] = s
	return true, nil
}

func (f *fakeSessionStore) Unlock(_ context.Context, token uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return pgx.ErrNoRows
	}
	s.IsLocked = false
	f.sessions[token] = s
	return nil
}

func (f *fakeSessionStore) MarkSubmitted(_ context.Context, token uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return pgx.ErrNoRows
	}
	s.Status = model.SessionStatusSubmitted
	s.IsLocked = false
	f.sessions[token] = s
	return nil
}

func (f *fakeSessionStore) MarkExpired(_ context.Context, token uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return pgx.ErrNoRows
	}
	if s.Status == model.SessionStatusInProgress {
		s.Status = model.SessionStatusExpired
		f.sessions[token] = s
	}
	return nil
}

type fakeSubmissionStore struct {
	mu          sync.Mutex
	submissions map[uuid.UUID]model.Submission
	answers     []model.SubmissionAnswer
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{submissions: map[uuid.UUID]model.Submission{}}
}

func (f *fakeSubmissionStore) put(s model.Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions[s.ID] = s
}

func (f *fakeSubmissionStore) get(id uuid.UUID) model.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submissions[id]
}

func (f *fakeSubmissionStore) ledgerLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answers)
}

func (f *fakeSubmissionStore) Create(_ context.Context, s *model.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = uuid.New()
	f.submissions[s.ID] = *s
	return nil
}

func (f *fakeSubmissionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (f *fakeSubmissionStore) GetInProgress(_ context.Context, userID uuid.UUID, examType model.ExamType, examID uuid.UUID) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.submissions {
		if s.UserID == userID && s.ExamType == examType && s.ExamID == examID && s.Status == model.SubmissionStatusInProgress {
			out := s
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSubmissionStore) GetLatestByExam(_ context.Context, userID uuid.UUID, examType model.ExamType, examID uuid.UUID) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.Submission
	for _, s := range f.submissions {
		if s.UserID != userID || s.ExamType != examType || s.ExamID != examID {
			continue
		}
		if latest == nil || s.StartedAt.After(latest.StartedAt) {
			out := s
			latest = &out
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	return latest, nil
}

func (f *fakeSubmissionStore) Finalize(_ context.Context, s *model.Submission, submittedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.submissions[s.ID]
	if !ok || stored.Status != model.SubmissionStatusInProgress {
		return false, nil
	}
	stored.Score = s.Score
	stored.CorrectAnswers = s.CorrectAnswers
	stored.IncorrectAnswers = s.IncorrectAnswers
	stored.Unanswered = s.Unanswered
	stored.TimeTakenSeconds = s.TimeTakenSeconds
	stored.SubmittedAt = &submittedAt
	stored.Status = model.SubmissionStatusGraded
	f.submissions[s.ID] = stored
	return true, nil
}

func (f *fakeSubmissionStore) InsertAnswers(_ context.Context, answers []model.SubmissionAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answers...)
	return nil
}

func (f *fakeSubmissionStore) ListAnswers(_ context.Context, submissionID uuid.UUID) ([]model.SubmissionAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.SubmissionAnswer
	for _, a := range f.answers {
		if a.SubmissionID == submissionID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeQuestionStore struct {
	mu    sync.Mutex
	banks map[uuid.UUID][]model.Question
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{banks: map[uuid.UUID][]model.Question{}}
}

func (f *fakeQuestionStore) put(bankID uuid.UUID, questions []model.Question) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banks[bankID] = questions
}

func (f *fakeQuestionStore) ListByBank(_ context.Context, bankID uuid.UUID) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banks[bankID], nil
}

type fakePayloadSource struct {
	questions *fakeQuestionStore
}

func (f *fakePayloadSource) GetPayload(ctx context.Context, bankID uuid.UUID) (*model.BankPayload, error) {
	questions, err := f.questions.ListByBank(ctx, bankID)
	if err != nil {
		return nil, err
	}
	payload := &model.BankPayload{QuestionBankID: bankID}
	for i := range questions {
		payload.Questions = append(payload.Questions, questions[i].ForStudent())
	}
	return payload, nil
}
