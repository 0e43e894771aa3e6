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

// EnrollmentHandler handles competition enrollment and payment verification.
type EnrollmentHandler struct {
	enrollmentService *service.EnrollmentService
	paymentService    *service.PaymentService
}

// NewEnrollmentHandler creates a new EnrollmentHandler.
func NewEnrollmentHandler(enrollmentService *service.EnrollmentService, paymentService *service.PaymentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
		paymentService:    paymentService,
	}
}

// Enroll godoc
// POST /api/v1/enrollments
// Creates a PENDING enrollment plus gateway order; the client completes the
// checkout with the returned order id and key.
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req model.EnrollRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	competitionID, err := uuid.Parse(req.CompetitionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.enrollmentService.Enroll(c.Request.Context(), userID, competitionID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"checkout": result})
}

// VerifyPayment godoc
// POST /api/v1/payments/verify
// Client-side checkout callback. Idempotent against the webhook path: if the
// webhook already confirmed the payment, this still reports success.
func (h *EnrollmentHandler) VerifyPayment(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req model.VerifyPaymentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.paymentService.Verify(c.Request.Context(), userID, paymentID,
		req.OrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetEnrollment godoc
// GET /api/v1/competitions/:competition_id/enrollment
// Returns the caller's enrollment state for a competition, or null.
func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	userID := middleware.GetUserID(c)

	competitionID, err := uuid.Parse(c.Param("competition_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	enr, err := h.enrollmentService.GetEnrollment(c.Request.Context(), userID, competitionID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"enrollment": enr})
}
