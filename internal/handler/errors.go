package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/scholarena/arena-backend/internal/response"
	"github.com/scholarena/arena-backend/internal/service"
)

// failFromService maps a service-layer error onto the HTTP contract:
// 401 missing identity, 403 not entitled, 404 missing resource, 409 operation
// collision, 410 session/window passed, 400 bad input, 500 everything else.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProfileIncomplete):
		response.Fail(c, http.StatusForbidden, response.ErrProfileIncomplete)
	case errors.Is(err, service.ErrGradeNotAllowed):
		// The wrapped message names the allowed range for the client.
		response.FailWithMessage(c, http.StatusForbidden, response.ErrGradeNotAllowed, err.Error())
	case errors.Is(err, service.ErrNotEnrolled):
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
	case errors.Is(err, service.ErrWindowClosed):
		response.Fail(c, http.StatusForbidden, response.ErrWindowClosed)
	case errors.Is(err, service.ErrRegistrationOver):
		response.Fail(c, http.StatusForbidden, response.ErrWindowClosed)
	case errors.Is(err, service.ErrNotOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
	case errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrPaymentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNoQuestionBank):
		response.Fail(c, http.StatusNotFound, response.ErrNoQuestionBank)
	case errors.Is(err, service.ErrAlreadyAttempted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyAttempted)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyEnrolled)
	case errors.Is(err, service.ErrSubmitInProgress):
		response.Fail(c, http.StatusConflict, response.ErrSubmitInProgress)
	case errors.Is(err, service.ErrPaymentNotPending):
		response.Fail(c, http.StatusConflict, response.ErrPaymentNotPending)
	case errors.Is(err, service.ErrSessionExpired):
		response.Fail(c, http.StatusGone, response.ErrSessionExpired)
	case errors.Is(err, service.ErrSessionNotActive):
		response.Fail(c, http.StatusGone, response.ErrSessionNotActive)
	case errors.Is(err, service.ErrInvalidSignature):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSignature)
	case errors.Is(err, service.ErrGatewayFailed):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrGatewayUnavailable)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled service error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
