package question

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"formlens/internal/db"
)

type Service struct {
	db *sql.DB
}

func NewService(database *sql.DB) *Service {
	return &Service{db: database}
}

type CreateQuestionInput struct {
	QuestionnaireID int64
	Type            string
	Label           string
	Sequence        int
	Detail          Detail
	CreatedBy       *int64
}

type UpdateQuestionInput struct {
	ID        int64
	Type      string
	Label     string
	Sequence  int
	Detail    Detail
	UpdatedBy *int64
}

func (s *Service) Create(ctx context.Context, in CreateQuestionInput) (*Question, error) {
	if err := validateCreateInput(&in); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := db.LockQuestionnaire(ctx, tx, in.QuestionnaireID); err != nil {
		return nil, err
	}

	created, err := s.createInTx(ctx, tx, in)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// CreateMany inserts a set of questions as a single atomic unit. Used by
// the sheet importer, where a partially created schema would leave later
// answer validation against a half-built questionnaire.
func (s *Service) CreateMany(ctx context.Context, questionnaireID int64, inputs []CreateQuestionInput) ([]Question, error) {
	if len(inputs) == 0 {
		return []Question{}, nil
	}
	for i := range inputs {
		inputs[i].QuestionnaireID = questionnaireID
		if err := validateCreateInput(&inputs[i]); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := db.LockQuestionnaire(ctx, tx, questionnaireID); err != nil {
		return nil, err
	}

	created := make([]Question, 0, len(inputs))
	for _, in := range inputs {
		q, err := s.createInTx(ctx, tx, in)
		if err != nil {
			return nil, err
		}
		created = append(created, *q)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

func (s *Service) createInTx(ctx context.Context, tx *sql.Tx, in CreateQuestionInput) (*Question, error) {
	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM questionnaire WHERE id = $1)
	`, in.QuestionnaireID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check questionnaire: %w", err)
	}
	if !exists {
		return nil, ErrQuestionnaireNotFound
	}

	var count int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM question WHERE questionnaire_id = $1
	`, in.QuestionnaireID).Scan(&count); err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	seq := clampSequence(in.Sequence, count)

	if _, err := tx.ExecContext(ctx, `
		UPDATE question
		SET sequence = sequence + 1, updated_at = now()
		WHERE questionnaire_id = $1 AND sequence >= $2
	`, in.QuestionnaireID, seq); err != nil {
		return nil, fmt.Errorf("shift sequences: %w", err)
	}

	key := uuid.NewString()
	var q Question
	var createdBy, updatedBy sql.NullInt64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO question (questionnaire_id, type, label, key, sequence, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, questionnaire_id, type, label, key, sequence, created_by, updated_by, created_at, updated_at
	`, in.QuestionnaireID, in.Type, in.Label, key, seq, nullableID(in.CreatedBy)).Scan(
		&q.ID, &q.QuestionnaireID, &q.Type, &q.Label, &q.Key, &q.Sequence,
		&createdBy, &updatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	q.CreatedBy = nullableIDValue(createdBy)
	q.UpdatedBy = nullableIDValue(updatedBy)

	codec := detailCodecs[in.Type]
	if err := codec.insert(ctx, tx, q.Key, in.Detail); err != nil {
		return nil, err
	}
	q.Detail = in.Detail
	return &q, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx, `
		SELECT id, questionnaire_id, type, label, key, sequence, created_by, updated_by, created_at, updated_at
		FROM question
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}
	if err := s.attachDetail(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ListByQuestionnaire returns the questionnaire's questions in sequence
// order with their detail records attached.
func (s *Service) ListByQuestionnaire(ctx context.Context, questionnaireID int64) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, questionnaire_id, type, label, key, sequence, created_by, updated_by, created_at, updated_at
		FROM question
		WHERE questionnaire_id = $1
		ORDER BY sequence
	`, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	items := make([]Question, 0)
	for rows.Next() {
		var q Question
		var createdBy, updatedBy sql.NullInt64
		if err := rows.Scan(
			&q.ID, &q.QuestionnaireID, &q.Type, &q.Label, &q.Key, &q.Sequence,
			&createdBy, &updatedBy, &q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.CreatedBy = nullableIDValue(createdBy)
		q.UpdatedBy = nullableIDValue(updatedBy)
		items = append(items, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	for i := range items {
		if err := s.attachDetail(ctx, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *Service) Update(ctx context.Context, in UpdateQuestionInput) (*Question, error) {
	in.Type = strings.TrimSpace(in.Type)
	in.Label = strings.TrimSpace(in.Label)
	if in.ID <= 0 || in.Label == "" {
		return nil, ErrInvalidInput
	}
	if _, known := detailCodecs[in.Type]; !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, in.Type)
	}
	if in.Detail == nil || in.Detail.Tag() != in.Type {
		return nil, fmt.Errorf("%w: detail does not match type %s", ErrInvalidInput, in.Type)
	}
	if err := in.Detail.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanQuestion(tx.QueryRowContext(ctx, `
		SELECT id, questionnaire_id, type, label, key, sequence, created_by, updated_by, created_at, updated_at
		FROM question
		WHERE id = $1
	`, in.ID))
	if err != nil {
		return nil, err
	}

	if err := db.LockQuestionnaire(ctx, tx, current.QuestionnaireID); err != nil {
		return nil, err
	}

	var count int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM question WHERE questionnaire_id = $1
	`, current.QuestionnaireID).Scan(&count); err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	newSeq := in.Sequence
	if newSeq < 1 {
		newSeq = 1
	}
	if newSeq > count {
		newSeq = count
	}

	if newSeq != current.Sequence {
		lo, hi, delta := moveShift(current.Sequence, newSeq)
		if _, err := tx.ExecContext(ctx, `
			UPDATE question
			SET sequence = sequence + $1, updated_at = now()
			WHERE questionnaire_id = $2 AND sequence >= $3 AND sequence <= $4 AND id <> $5
		`, delta, current.QuestionnaireID, lo, hi, current.ID); err != nil {
			return nil, fmt.Errorf("shift sequences: %w", err)
		}
	}

	// The detail record is replaced wholesale. On a re-type the old
	// variant's row is removed; the key survives either way, so existing
	// answers keep their logical reference.
	if err := detailCodecs[current.Type].remove(ctx, tx, current.Key); err != nil {
		return nil, err
	}
	if err := detailCodecs[in.Type].insert(ctx, tx, current.Key, in.Detail); err != nil {
		return nil, err
	}

	updated, err := scanQuestion(tx.QueryRowContext(ctx, `
		UPDATE question
		SET type = $1, label = $2, sequence = $3, updated_by = $4, updated_at = now()
		WHERE id = $5
		RETURNING id, questionnaire_id, type, label, key, sequence, created_by, updated_by, created_at, updated_at
	`, in.Type, in.Label, newSeq, nullableID(in.UpdatedBy), in.ID))
	if err != nil {
		return nil, err
	}
	updated.Detail = in.Detail

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanQuestion(tx.QueryRowContext(ctx, `
		SELECT id, questionnaire_id, type, label, key, sequence, created_by, updated_by, created_at, updated_at
		FROM question
		WHERE id = $1
	`, id))
	if err != nil {
		return err
	}

	if err := db.LockQuestionnaire(ctx, tx, current.QuestionnaireID); err != nil {
		return err
	}

	if err := detailCodecs[current.Type].remove(ctx, tx, current.Key); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM question WHERE id = $1`, current.ID); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE question
		SET sequence = sequence - 1, updated_at = now()
		WHERE questionnaire_id = $1 AND sequence > $2
	`, current.QuestionnaireID, current.Sequence); err != nil {
		return fmt.Errorf("compact sequences: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Service) attachDetail(ctx context.Context, q *Question) error {
	codec, ok := detailCodecs[q.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, q.Type)
	}
	detail, err := codec.load(ctx, s.db, q.Key)
	if errors.Is(err, ErrDetailNotFound) {
		// A detail row can be missing for data imported before the
		// question was re-typed. Surface the question without it.
		q.Detail = nil
		return nil
	}
	if err != nil {
		return err
	}
	q.Detail = detail
	return nil
}

func validateCreateInput(in *CreateQuestionInput) error {
	in.Type = strings.TrimSpace(in.Type)
	in.Label = strings.TrimSpace(in.Label)
	if in.QuestionnaireID <= 0 || in.Label == "" {
		return ErrInvalidInput
	}
	if _, known := detailCodecs[in.Type]; !known {
		return fmt.Errorf("%w: %q", ErrUnknownType, in.Type)
	}
	if in.Detail == nil || in.Detail.Tag() != in.Type {
		return fmt.Errorf("%w: detail does not match type %s", ErrInvalidInput, in.Type)
	}
	return in.Detail.Validate()
}

func scanQuestion(row *sql.Row) (*Question, error) {
	var q Question
	var createdBy, updatedBy sql.NullInt64
	err := row.Scan(
		&q.ID, &q.QuestionnaireID, &q.Type, &q.Label, &q.Key, &q.Sequence,
		&createdBy, &updatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan question: %w", err)
	}
	q.CreatedBy = nullableIDValue(createdBy)
	q.UpdatedBy = nullableIDValue(updatedBy)
	return &q, nil
}

func nullableID(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableIDValue(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
