package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/scholarena/arena-backend/internal/config"
	"github.com/scholarena/arena-backend/internal/handler"
	"github.com/scholarena/arena-backend/internal/middleware"
	"github.com/scholarena/arena-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	ExamSession *handler.ExamSessionHandler
	Enrollment  *handler.EnrollmentHandler
	Webhook     *handler.WebhookHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Compress the payload-heavy responses (lobby, session init).
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Webhooks (no auth — authenticated by the HMAC signature) ───
	webhooks := router.Group("/api/v1/webhooks")
	{
		webhooks.POST("/razorpay", handlers.Webhook.HandleRazorpay)
	}

	// ─── 2. Student API (identity-provider JWT) ────────────────────────
	// Start is rate limited per IP: it mints sessions and reads the whole
	// question bank, the most expensive call in the API.
	startLimiter := middleware.NewRateLimiter(30, time.Minute)

	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuth(cfg.JWTSecret))
	{
		api.GET("/lobby", handlers.ExamSession.GetLobby)

		api.POST("/exams/start", startLimiter.Middleware(), handlers.ExamSession.StartExam)

		api.GET("/sessions/active", handlers.ExamSession.ActiveSession)
		api.GET("/sessions/:session_token/init", handlers.ExamSession.InitSession)
		api.PUT("/sessions/:session_token/answer", handlers.ExamSession.SaveAnswer)
		api.GET("/sessions/:session_token/heartbeat", handlers.ExamSession.Heartbeat)
		api.POST("/sessions/:session_token/submit", handlers.ExamSession.SubmitExam)

		api.GET("/submissions/:submission_id", handlers.ExamSession.GetSubmission)

		api.POST("/enrollments", handlers.Enrollment.Enroll)
		api.POST("/payments/verify", handlers.Enrollment.VerifyPayment)
		api.GET("/competitions/:competition_id/enrollment", handlers.Enrollment.GetEnrollment)
	}

	return router
}
