package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Question represents a single bank question with its answer key.
type Question struct {
	ID             uuid.UUID       `json:"id"`
	QuestionBankID uuid.UUID       `json:"question_bank_id"`
	QuestionText   string          `json:"question_text"`
	Options        json.RawMessage `json:"options"`
	CorrectOption  int             `json:"correct_option"`
	Marks          int             `json:"marks"`
	OrderNum       int             `json:"order_num"`
}

// QuestionForStudent is a question with the answer key stripped. This is the
// only question shape that may ever leave the service on a student-facing path.
type QuestionForStudent struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	Options      json.RawMessage `json:"options"`
	Marks        int             `json:"marks"`
	OrderNum     int             `json:"order_num"`
}

// ForStudent strips the answer key from a question.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Options:      q.Options,
		Marks:        q.Marks,
		OrderNum:     q.OrderNum,
	}
}

// BankPayload is the Redis-cached, answer-stripped payload for a question bank.
type BankPayload struct {
	QuestionBankID uuid.UUID            `json:"question_bank_id"`
	Questions      []QuestionForStudent `json:"questions"`
}
