package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scholarena/arena-backend/internal/middleware"
	"github.com/scholarena/arena-backend/internal/model"
	"github.com/scholarena/arena-backend/internal/response"
	"github.com/scholarena/arena-backend/internal/service"
	"github.com/scholarena/arena-backend/internal/validator"
)

// ExamSessionHandler handles the student exam lifecycle endpoints.
type ExamSessionHandler struct {
	sessionService *service.ExamSessionService
}

// NewExamSessionHandler creates a new ExamSessionHandler.
func NewExamSessionHandler(sessionService *service.ExamSessionService) *ExamSessionHandler {
	return &ExamSessionHandler{sessionService: sessionService}
}

// StartExam godoc
// POST /api/v1/exams/start
// Mints an exam session after eligibility checks, or recovers an existing
// in-progress submission with a fresh session.
func (h *ExamSessionHandler) StartExam(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	examID, err := uuid.Parse(req.ExamID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.Start(c.Request.Context(), userID, req.ExamType, examID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": result})
}

// InitSession godoc
// GET /api/v1/sessions/:session_token/init
// Hydrates the exam screen: answer-stripped questions plus saved answers.
func (h *ExamSessionHandler) InitSession(c *gin.Context) {
	userID := middleware.GetUserID(c)

	token, err := uuid.Parse(c.Param("session_token"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.Init(c.Request.Context(), userID, token)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// SaveAnswer godoc
// PUT /api/v1/sessions/:session_token/answer
// Upserts one answer into the session. Last write per question wins.
func (h *ExamSessionHandler) SaveAnswer(c *gin.Context) {
	userID := middleware.GetUserID(c)

	token, err := uuid.Parse(c.Param("session_token"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	savedAt, err := h.sessionService.SaveAnswer(c.Request.Context(), userID, token, questionID, *req.SelectedOption)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved_at": savedAt.UnixMilli()})
}

// Heartbeat godoc
// GET /api/v1/sessions/:session_token/heartbeat
// Reports time remaining and whether the client should submit now. Pure read.
func (h *ExamSessionHandler) Heartbeat(c *gin.Context) {
	userID := middleware.GetUserID(c)

	token, err := uuid.Parse(c.Param("session_token"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.Heartbeat(c.Request.Context(), userID, token)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// SubmitExam godoc
// POST /api/v1/sessions/:session_token/submit
// Grades the session at most once; repeat calls return the stored result.
func (h *ExamSessionHandler) SubmitExam(c *gin.Context) {
	userID := middleware.GetUserID(c)

	token, err := uuid.Parse(c.Param("session_token"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), userID, token)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ActiveSession godoc
// GET /api/v1/sessions/active
// Returns the caller's live session so a reloaded client can reattach.
func (h *ExamSessionHandler) ActiveSession(c *gin.Context) {
	userID := middleware.GetUserID(c)

	sess, err := h.sessionService.ActiveSession(c.Request.Context(), userID)
	if err != nil {
		failFromService(c, err)
		return
	}
	if sess == nil {
		response.Success(c, http.StatusOK, gin.H{"session": nil})
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": gin.H{
		"session_token": sess.SessionToken,
		"submission_id": sess.SubmissionID,
		"exam_type":     sess.ExamType,
		"exam_id":       sess.ExamID,
		"start_time":    sess.StartTime.UnixMilli(),
		"end_time":      sess.EndTime.UnixMilli(),
	}})
}

// GetLobby godoc
// GET /api/v1/lobby
// Lists the competitions and mock tests visible to the caller's grade, with
// enrollment and attempt status overlaid.
func (h *ExamSessionHandler) GetLobby(c *gin.Context) {
	userID := middleware.GetUserID(c)

	lobby, err := h.sessionService.GetLobby(c.Request.Context(), userID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, lobby)
}

// GetSubmission godoc
// GET /api/v1/submissions/:submission_id
// Returns a graded submission with its answer ledger. Owner-only.
func (h *ExamSessionHandler) GetSubmission(c *gin.Context) {
	userID := middleware.GetUserID(c)

	submissionID, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.sessionService.GetSubmission(c.Request.Context(), userID, submissionID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}
