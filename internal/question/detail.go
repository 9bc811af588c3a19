package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// detailCodec binds a question type tag to its storage behavior. The
// mapping is fixed at definition time; there is no runtime registration.
type detailCodec struct {
	parse  func(raw json.RawMessage) (Detail, error)
	load   func(ctx context.Context, q queryer, key string) (Detail, error)
	insert func(ctx context.Context, tx *sql.Tx, key string, d Detail) error
	remove func(ctx context.Context, tx *sql.Tx, key string) error
}

// queryer covers both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var detailCodecs = map[string]detailCodec{
	TypeInput: {
		parse:  parseInputDetail,
		load:   loadInputDetail,
		insert: insertInputDetail,
		remove: removeInputDetail,
	},
	TypeSelect: {
		parse:  parseSelectDetail,
		load:   loadSelectDetail,
		insert: insertSelectDetail,
		remove: removeSelectDetail,
	},
}

func parseInputDetail(raw json.RawMessage) (Detail, error) {
	var d InputDetail
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("%w: malformed input detail: %v", ErrInvalidInput, err)
		}
	}
	return d, nil
}

func parseSelectDetail(raw json.RawMessage) (Detail, error) {
	var d SelectDetail
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing select detail", ErrInvalidInput)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: malformed select detail: %v", ErrInvalidInput, err)
	}
	return d, nil
}

func loadInputDetail(ctx context.Context, q queryer, key string) (Detail, error) {
	var d InputDetail
	var placeholder sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT placeholder, other_field, required
		FROM input_type
		WHERE question_key = $1
		ORDER BY created_at
		LIMIT 1
	`, key).Scan(&placeholder, &d.OtherField, &d.Required)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDetailNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load input detail: %w", err)
	}
	if placeholder.Valid {
		d.Placeholder = placeholder.String
	}
	return d, nil
}

func loadSelectDetail(ctx context.Context, q queryer, key string) (Detail, error) {
	var d SelectDetail
	var detailID int64
	err := q.QueryRowContext(ctx, `
		SELECT id, multiselect, html_select, other_field, required
		FROM select_type
		WHERE question_key = $1
		ORDER BY created_at
		LIMIT 1
	`, key).Scan(&detailID, &d.Multiselect, &d.HTMLSelect, &d.OtherField, &d.Required)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDetailNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load select detail: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT value
		FROM option_value
		WHERE select_type_id = $1
		ORDER BY id
	`, detailID)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	defer rows.Close()

	d.Options = make([]Option, 0)
	for rows.Next() {
		var opt Option
		if err := rows.Scan(&opt.Value); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		d.Options = append(d.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate options: %w", err)
	}
	return d, nil
}

func insertInputDetail(ctx context.Context, tx *sql.Tx, key string, detail Detail) error {
	d, ok := detail.(InputDetail)
	if !ok {
		return fmt.Errorf("%w: detail does not match %s", ErrInvalidInput, TypeInput)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO input_type (question_key, placeholder, other_field, required)
		VALUES ($1, $2, $3, $4)
	`, key, d.Placeholder, d.OtherField, d.Required); err != nil {
		return fmt.Errorf("insert input detail: %w", err)
	}
	return nil
}

func insertSelectDetail(ctx context.Context, tx *sql.Tx, key string, detail Detail) error {
	d, ok := detail.(SelectDetail)
	if !ok {
		return fmt.Errorf("%w: detail does not match %s", ErrInvalidInput, TypeSelect)
	}

	var detailID int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO select_type (question_key, multiselect, html_select, other_field, required)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, key, d.Multiselect, d.HTMLSelect, d.OtherField, d.Required).Scan(&detailID)
	if err != nil {
		return fmt.Errorf("insert select detail: %w", err)
	}

	for _, opt := range d.Options {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO option_value (select_type_id, value)
			VALUES ($1, $2)
		`, detailID, opt.Value); err != nil {
			return fmt.Errorf("insert option: %w", err)
		}
	}
	return nil
}

func removeInputDetail(ctx context.Context, tx *sql.Tx, key string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM input_type WHERE question_key = $1`, key); err != nil {
		return fmt.Errorf("delete input detail: %w", err)
	}
	return nil
}

func removeSelectDetail(ctx context.Context, tx *sql.Tx, key string) error {
	// option_value rows go with the select_type row via FK cascade.
	if _, err := tx.ExecContext(ctx, `DELETE FROM select_type WHERE question_key = $1`, key); err != nil {
		return fmt.Errorf("delete select detail: %w", err)
	}
	return nil
}
