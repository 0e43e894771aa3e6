package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/scholarena/arena-backend/internal/config"
	"github.com/scholarena/arena-backend/internal/database"
	"github.com/scholarena/arena-backend/internal/handler"
	"github.com/scholarena/arena-backend/internal/logger"
	"github.com/scholarena/arena-backend/internal/payment"
	"github.com/scholarena/arena-backend/internal/repository"
	"github.com/scholarena/arena-backend/internal/router"
	"github.com/scholarena/arena-backend/internal/service"
	"github.com/scholarena/arena-backend/internal/validator"
	"github.com/scholarena/arena-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Scholarena Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	profileRepo := repository.NewProfileRepository(pool)
	competitionRepo := repository.NewCompetitionRepository(pool)
	mockTestRepo := repository.NewMockTestRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	gateway := payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)

	questionService := service.NewQuestionService(questionRepo, rdb, log)
	sessionService := service.NewExamSessionService(
		profileRepo, competitionRepo, mockTestRepo, enrollmentRepo,
		sessionRepo, submissionRepo, questionRepo, questionService,
		cfg.SessionExpiryBuffer, log,
	)
	enrollmentService := service.NewEnrollmentService(
		profileRepo, competitionRepo, enrollmentRepo, paymentRepo,
		gateway, cfg.RazorpayKeyID, log,
	)
	paymentService := service.NewPaymentService(
		paymentRepo, enrollmentRepo,
		cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret, log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		ExamSession: handler.NewExamSessionHandler(sessionService),
		Enrollment:  handler.NewEnrollmentHandler(enrollmentService, paymentService),
		Webhook:     handler.NewWebhookHandler(paymentService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	expirySweeper := worker.NewExpirySweeper(pool, log)
	go expirySweeper.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
