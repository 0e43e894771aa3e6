package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/scholarena/arena-backend/internal/config"
	"github.com/scholarena/arena-backend/internal/model"
)

// QuestionService serves answer-stripped question payloads with a Redis
// cache in front of PostgreSQL. Redis is purely a read cache — a miss or a
// Redis outage falls back to the database and self-heals the cache.
type QuestionService struct {
	questionRepo QuestionStore
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo QuestionStore, rdb *redis.Client, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// GetPayload returns the answer-stripped payload for a bank. The payload is
// cached under a per-bank key; correct options are stripped before the bytes
// ever reach Redis, so the cache can never leak an answer key.
func (s *QuestionService) GetPayload(ctx context.Context, bankID uuid.UUID) (*model.BankPayload, error) {
	key := config.CacheKey.BankPayloadKey(bankID.String())

	if raw, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var payload model.BankPayload
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			return &payload, nil
		}
		// Corrupt cache entry: drop it and rebuild from the database.
		s.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		s.log.Warn().Err(err).Str("bank_id", bankID.String()).Msg("Redis read failed, falling back to DB")
	}

	questions, err := s.questionRepo.ListByBank(ctx, bankID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	payload := &model.BankPayload{
		QuestionBankID: bankID,
		Questions:      make([]model.QuestionForStudent, 0, len(questions)),
	}
	for i := range questions {
		payload.Questions = append(payload.Questions, questions[i].ForStudent())
	}

	// Self-heal: repopulate the cache so the next init is fast.
	if raw, err := json.Marshal(payload); err == nil {
		if err := s.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
			s.log.Warn().Err(err).Str("bank_id", bankID.String()).Msg("Failed to cache bank payload")
		}
	}

	return payload, nil
}

// InvalidateBank drops a bank's cached payload after question edits.
func (s *QuestionService) InvalidateBank(ctx context.Context, bankID uuid.UUID) error {
	return s.rdb.Del(ctx, config.CacheKey.BankPayloadKey(bankID.String())).Err()
}
