// Command seed loads a development dataset: student profiles across grades
// 5-10, one open competition, one mock test, a shared question bank and the
// grade-to-bank assignments. Safe to re-run — rows are keyed on fixed UUIDs
// and upserted.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scholarena/arena-backend/internal/config"
	"github.com/scholarena/arena-backend/internal/database"
	"github.com/scholarena/arena-backend/internal/logger"
	"github.com/scholarena/arena-backend/internal/repository"
	"github.com/scholarena/arena-backend/internal/service"
)

var (
	competitionID = uuid.MustParse("a1f5c2e0-0000-4000-8000-000000000001")
	mockTestID    = uuid.MustParse("a1f5c2e0-0000-4000-8000-000000000002")
	bankID        = uuid.MustParse("a1f5c2e0-0000-4000-8000-000000000010")
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Seeding development data ===")

	names := []string{
		"Asha Verma", "Rohan Gupta", "Priya Sharma", "Arjun Patel", "Meera Iyer",
		"Kabir Singh", "Ananya Rao", "Dev Malhotra", "Isha Nair", "Vikram Joshi",
		"Sneha Kulkarni", "Aditya Menon",
	}
	for i, name := range names {
		userID := uuid.MustParse(fmt.Sprintf("b2e6d3f1-0000-4000-8000-%012d", i+1))
		grade := 5 + i%6
		_, err := pool.Exec(ctx,
			`INSERT INTO user_profiles (user_id, full_name, grade, school_name, phone, is_complete)
			 VALUES ($1, $2, $3, $4, $5, TRUE)
			 ON CONFLICT (user_id) DO UPDATE SET full_name = EXCLUDED.full_name, grade = EXCLUDED.grade`,
			userID, name, grade, "Green Valley School", fmt.Sprintf("+91900000%04d", i+1))
		if err != nil {
			log.Fatal().Err(err).Str("name", name).Msg("Failed to seed profile")
		}
	}
	fmt.Printf("Seeded %d student profiles (grades 5-10)\n", len(names))

	now := time.Now()
	_, err = pool.Exec(ctx,
		`INSERT INTO competitions
		   (id, title, description, min_grade, max_grade, fee_minor_units,
		    duration_minutes, total_marks, registration_start, registration_end,
		    exam_window_start, exam_window_end)
		 VALUES ($1, $2, $3, 5, 8, 50000, 60, 10, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET registration_end = EXCLUDED.registration_end,
		   exam_window_start = EXCLUDED.exam_window_start,
		   exam_window_end = EXCLUDED.exam_window_end, updated_at = NOW()`,
		competitionID, "National Science Olympiad",
		"Annual inter-school science competition.",
		now.Add(-24*time.Hour), now.Add(7*24*time.Hour),
		now.Add(-time.Hour), now.Add(14*24*time.Hour))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed competition")
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO mock_tests (id, title, description, min_grade, max_grade, duration_minutes, total_marks)
		 VALUES ($1, $2, $3, 5, 10, 30, 10)
		 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, updated_at = NOW()`,
		mockTestID, "Science Practice Test", "Free practice test, one attempt.")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed mock test")
	}
	fmt.Println("Seeded 1 competition + 1 mock test")

	type q struct {
		text    string
		options []string
		correct int
		marks   int
	}
	questions := []q{
		{"Which planet is known as the Red Planet?", []string{"Venus", "Mars", "Jupiter", "Saturn"}, 1, 2},
		{"Water boils at what temperature at sea level?", []string{"100°C", "90°C", "80°C", "120°C"}, 0, 2},
		{"Which gas do plants absorb from the air?", []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, 2, 3},
		{"What force pulls objects toward the Earth?", []string{"Magnetism", "Gravity", "Friction", "Inertia"}, 1, 3},
	}
	for i, item := range questions {
		qid := uuid.MustParse(fmt.Sprintf("c3f7e4a2-0000-4000-8000-%012d", i+1))
		opts, _ := json.Marshal(item.options)
		_, err := pool.Exec(ctx,
			`INSERT INTO questions (id, question_bank_id, question_text, options, correct_option, marks, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO UPDATE SET question_text = EXCLUDED.question_text,
			   options = EXCLUDED.options, correct_option = EXCLUDED.correct_option`,
			qid, bankID, item.text, opts, item.correct, item.marks, i+1)
		if err != nil {
			log.Fatal().Err(err).Int("order", i+1).Msg("Failed to seed question")
		}
	}
	fmt.Printf("Seeded %d questions into bank %s\n", len(questions), bankID)

	for _, assignment := range []struct {
		examType string
		examID   uuid.UUID
	}{
		{"COMPETITION", competitionID},
		{"MOCK_TEST", mockTestID},
	} {
		_, err := pool.Exec(ctx,
			`INSERT INTO bank_assignments (exam_type, exam_id, question_bank_id, min_grade, max_grade)
			 SELECT $1, $2, $3, 5, 10
			 WHERE NOT EXISTS (
			   SELECT 1 FROM bank_assignments WHERE exam_type = $1 AND exam_id = $2
			 )`,
			assignment.examType, assignment.examID, bankID)
		if err != nil {
			log.Fatal().Err(err).Str("exam_type", assignment.examType).Msg("Failed to seed bank assignment")
		}
	}
	fmt.Println("Seeded bank assignments")

	// Reseeding may have changed questions; drop the cached payload so the
	// next session init rebuilds it.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	questionService := service.NewQuestionService(repository.NewQuestionRepository(pool), rdb, log)
	if err := questionService.InvalidateBank(ctx, bankID); err != nil {
		log.Fatal().Err(err).Msg("Failed to invalidate bank cache")
	}
	fmt.Println("Invalidated cached bank payload")

	fmt.Println("=== Done ===")
}
