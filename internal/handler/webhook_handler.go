package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/scholarena/arena-backend/internal/response"
	"github.com/scholarena/arena-backend/internal/service"
)

// WebhookHandler receives payment gateway webhook deliveries.
type WebhookHandler struct {
	paymentService *service.PaymentService
	log            zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(paymentService *service.PaymentService, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		paymentService: paymentService,
		log:            log.With().Str("component", "webhook_handler").Logger(),
	}
}

// HandleRazorpay godoc
// POST /api/v1/webhooks/razorpay
// The signature covers the raw body, so it is read before any JSON decoding.
// Business no-ops (unknown payment, already-finalized) are acknowledged with
// 200 so the gateway stops retrying; only infrastructure failures return 500.
func (h *WebhookHandler) HandleRazorpay(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	signature := c.GetHeader("x-razorpay-signature")
	if signature == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSignature)
		return
	}

	event, err := h.paymentService.ParseWebhook(body, signature)
	if err != nil {
		h.log.Warn().Err(err).Msg("Rejected webhook delivery")
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSignature)
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), event); err != nil {
		h.log.Error().Err(err).Str("event", event.Event).Msg("Webhook processing failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}
