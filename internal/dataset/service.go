package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"formlens/internal/db"
	"formlens/internal/question"
	"formlens/internal/questionnaire"
)

type Service struct {
	db             *sql.DB
	questions      *question.Service
	questionnaires *questionnaire.Service
}

func NewService(database *sql.DB, questions *question.Service, questionnaires *questionnaire.Service) *Service {
	return &Service{
		db:             database,
		questions:      questions,
		questionnaires: questionnaires,
	}
}

// DatasetView is the aggregated read model of one questionnaire: its
// description, live schema, collected batches, and per-question
// histograms.
type DatasetView struct {
	About      *questionnaire.Questionnaire `json:"about"`
	Questions  []question.Question          `json:"questions"`
	Batches    []Batch                      `json:"datasets"`
	Statistics []QuestionStats              `json:"statistics"`
}

// SubmitBatch stores one respondent's complete answer set. The
// submission must cover every question exactly once; values are checked
// against each question's constraints before anything is written.
func (s *Service) SubmitBatch(ctx context.Context, questionnaireID int64, entries []NewAnswer, answerBy *int64) ([]Answer, error) {
	qnr, err := s.questionnaires.Get(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	if !qnr.IsCollecting {
		return nil, ErrNotCollecting
	}

	questions, err := s.questions.ListByQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	if len(entries) != len(questions) {
		return nil, ErrNotEnoughAnswers
	}

	byKey := make(map[string]question.Question, len(questions))
	for _, q := range questions {
		byKey[q.Key] = q
	}
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		q, known := byKey[entry.QuestionKey]
		if !known {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, entry.QuestionKey)
		}
		if _, dup := seen[entry.QuestionKey]; dup {
			return nil, fmt.Errorf("%w: duplicate answer for question %s", ErrInvalidInput, entry.QuestionKey)
		}
		seen[entry.QuestionKey] = struct{}{}
		if !ValidValue(q, entry.Value) {
			return nil, fmt.Errorf("%w: invalid value for question %q", ErrInvalidInput, q.Label)
		}
	}

	codes, err := s.InsertBatches(ctx, questionnaireID, [][]NewAnswer{entries}, answerBy)
	if err != nil {
		return nil, err
	}

	stored, err := s.answersByCode(ctx, questionnaireID, codes[0])
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// InsertBatches persists validated submissions, one batch code per
// inner slice. Codes continue from the questionnaire's running maximum
// and are allocated under the per-questionnaire lock so concurrent
// imports cannot race on the same code.
func (s *Service) InsertBatches(ctx context.Context, questionnaireID int64, batches [][]NewAnswer, answerBy *int64) ([]int, error) {
	if len(batches) == 0 {
		return []int{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := db.LockQuestionnaire(ctx, tx, questionnaireID); err != nil {
		return nil, err
	}

	var maxCode int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(code), 0) FROM answer WHERE questionnaire_id = $1
	`, questionnaireID).Scan(&maxCode); err != nil {
		return nil, fmt.Errorf("max code: %w", err)
	}

	codes := make([]int, 0, len(batches))
	for i, batch := range batches {
		code := maxCode + i + 1
		codes = append(codes, code)
		for _, entry := range batch {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO answer (questionnaire_id, question_key, value, code, answer_by, created_at)
				VALUES ($1, $2, $3, $4, $5, now())
			`, questionnaireID, entry.QuestionKey, nullableValue(entry.Value), code, nullableID(answerBy)); err != nil {
				return nil, fmt.Errorf("insert answer: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return codes, nil
}

// UpdateValues edits stored answer values by id.
func (s *Service) UpdateValues(ctx context.Context, updates []ValueUpdate) ([]Answer, error) {
	updated := make([]Answer, 0, len(updates))
	for _, u := range updates {
		var a Answer
		var value sql.NullString
		var answerBy sql.NullInt64
		err := s.db.QueryRowContext(ctx, `
			UPDATE answer
			SET value = $1
			WHERE id = $2
			RETURNING id, questionnaire_id, question_key, value, code, answer_by, created_at
		`, nullableValue(u.Value), u.ID).Scan(
			&a.ID, &a.QuestionnaireID, &a.QuestionKey, &value, &a.Code, &answerBy, &a.CreatedAt,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrAnswerNotFound, u.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("update answer: %w", err)
		}
		if value.Valid {
			a.Value = &value.String
		}
		if answerBy.Valid {
			id := answerBy.Int64
			a.AnswerBy = &id
		}
		updated = append(updated, a)
	}
	return updated, nil
}

// DeleteBatch removes one submission: every answer sharing the code.
func (s *Service) DeleteBatch(ctx context.Context, questionnaireID int64, code int) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM answer WHERE questionnaire_id = $1 AND code = $2
	`, questionnaireID, code); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}

// ListAnswers returns every stored answer for a questionnaire in batch
// order.
func (s *Service) ListAnswers(ctx context.Context, questionnaireID int64) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, questionnaire_id, question_key, value, code, answer_by, created_at
		FROM answer
		WHERE questionnaire_id = $1
		ORDER BY code, id
	`, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	return scanAnswers(rows)
}

// GetDataset assembles the aggregated read model for a questionnaire and
// records the view (total counter plus the per-day statistics row).
func (s *Service) GetDataset(ctx context.Context, slug string) (*DatasetView, error) {
	qnr, err := s.questionnaires.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := s.questionnaires.RecordView(ctx, qnr.ID); err != nil {
		return nil, err
	}
	qnr.Views++

	questions, err := s.questions.ListByQuestionnaire(ctx, qnr.ID)
	if err != nil {
		return nil, err
	}
	answers, err := s.ListAnswers(ctx, qnr.ID)
	if err != nil {
		return nil, err
	}

	batches := GroupAnswers(answers, questions)
	return &DatasetView{
		About:      qnr,
		Questions:  questions,
		Batches:    batches,
		Statistics: AggregateStatistics(questions, batches),
	}, nil
}

func (s *Service) answersByCode(ctx context.Context, questionnaireID int64, code int) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, questionnaire_id, question_key, value, code, answer_by, created_at
		FROM answer
		WHERE questionnaire_id = $1 AND code = $2
		ORDER BY id
	`, questionnaireID, code)
	if err != nil {
		return nil, fmt.Errorf("query batch: %w", err)
	}
	defer rows.Close()

	return scanAnswers(rows)
}

func scanAnswers(rows *sql.Rows) ([]Answer, error) {
	items := make([]Answer, 0)
	for rows.Next() {
		var a Answer
		var value sql.NullString
		var answerBy sql.NullInt64
		if err := rows.Scan(
			&a.ID, &a.QuestionnaireID, &a.QuestionKey, &value, &a.Code, &answerBy, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if value.Valid {
			a.Value = &value.String
		}
		if answerBy.Valid {
			id := answerBy.Int64
			a.AnswerBy = &id
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return items, nil
}

func nullableValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableID(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
