package dataset

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrAnswerNotFound   = errors.New("answer not found")
	ErrNotEnoughAnswers = errors.New("submission does not cover every question")
	ErrNotCollecting    = errors.New("questionnaire is not collecting answers")
	ErrUnknownQuestion  = errors.New("answer references an unknown question")
)

// Answer is one cell of one submission. QuestionKey is a logical
// reference, not a foreign key: the question may be re-typed or deleted
// after the answer was collected.
type Answer struct {
	ID              int64     `json:"id"`
	QuestionnaireID int64     `json:"questionnaire"`
	QuestionKey     string    `json:"question_key"`
	Value           *string   `json:"value"`
	Code            int       `json:"code"`
	AnswerBy        *int64    `json:"answer_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewAnswer is one cell of a submission about to be stored. The batch
// code is assigned at insert time.
type NewAnswer struct {
	QuestionKey string
	Value       *string
}

// ValueUpdate edits a stored answer's value in place.
type ValueUpdate struct {
	ID    int64   `json:"id"`
	Value *string `json:"value"`
}
