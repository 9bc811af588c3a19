package questionnaire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("questionnaire not found")
	ErrTitleTaken    = errors.New("questionnaire title already taken")
	ErrNotCollecting = errors.New("questionnaire is not collecting answers")
)

const defaultTag = "DEFAULT"

type Service struct {
	db *sql.DB
}

func NewService(database *sql.DB) *Service {
	return &Service{db: database}
}

type Questionnaire struct {
	ID           int64     `json:"id"`
	AuthorID     *int64    `json:"author,omitempty"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Thumb        *string   `json:"thumb,omitempty"`
	Tags         string    `json:"tags"`
	Summary      *string   `json:"summary,omitempty"`
	Description  *string   `json:"description,omitempty"`
	IsCollecting bool      `json:"is_collecting"`
	IsPublic     bool      `json:"is_public"`
	Views        int       `json:"views"`
	Downloads    int       `json:"downloads"`
	CreatedAt    time.Time `json:"created_at"`
}

type DailyViews struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

type CreateInput struct {
	AuthorID     *int64
	Title        string
	Thumb        string
	Tags         string
	Summary      string
	Description  string
	IsCollecting *bool
	IsPublic     *bool
}

type UpdateInput struct {
	ID           int64
	Title        string
	Thumb        string
	Tags         string
	Summary      string
	Description  string
	IsCollecting *bool
	IsPublic     *bool
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Questionnaire, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	slug := Slugify(in.Title)
	if slug == "" {
		return nil, fmt.Errorf("%w: title yields an empty slug", ErrInvalidInput)
	}
	tags := normalizeTags(in.Tags)

	var taken bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM questionnaire WHERE title = $1 OR slug = $2)
	`, in.Title, slug).Scan(&taken); err != nil {
		return nil, fmt.Errorf("check title: %w", err)
	}
	if taken {
		return nil, ErrTitleTaken
	}

	if err := s.upsertTags(ctx, tags); err != nil {
		return nil, err
	}

	isCollecting := true
	if in.IsCollecting != nil {
		isCollecting = *in.IsCollecting
	}
	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO questionnaire (author_id, title, slug, thumb, tags, summary, description, is_collecting, is_public, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, now())
		RETURNING id, author_id, title, slug, thumb, tags, summary, description, is_collecting, is_public, views, downloads, created_at
	`, nullableID(in.AuthorID), in.Title, slug, in.Thumb, tags, in.Summary, in.Description, isCollecting, isPublic)
	return scanQuestionnaire(row)
}

func (s *Service) List(ctx context.Context, tag, search string) ([]Questionnaire, error) {
	query := `
		SELECT id, author_id, title, slug, thumb, tags, summary, description, is_collecting, is_public, views, downloads, created_at
		FROM questionnaire
		WHERE is_public = TRUE
	`
	args := make([]any, 0, 2)
	if tag = strings.TrimSpace(tag); tag != "" {
		args = append(args, "%"+tag+"%")
		query += fmt.Sprintf(` AND tags ILIKE $%d`, len(args))
	}
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(` AND title ILIKE $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questionnaires: %w", err)
	}
	defer rows.Close()

	items := make([]Questionnaire, 0)
	for rows.Next() {
		q, err := scanQuestionnaireRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questionnaires: %w", err)
	}
	return items, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Questionnaire, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, author_id, title, slug, thumb, tags, summary, description, is_collecting, is_public, views, downloads, created_at
		FROM questionnaire
		WHERE slug = $1
	`, slug)
	return scanQuestionnaire(row)
}

func (s *Service) Get(ctx context.Context, id int64) (*Questionnaire, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, author_id, title, slug, thumb, tags, summary, description, is_collecting, is_public, views, downloads, created_at
		FROM questionnaire
		WHERE id = $1
	`, id)
	return scanQuestionnaire(row)
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (*Questionnaire, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.ID <= 0 || in.Title == "" {
		return nil, ErrInvalidInput
	}
	slug := Slugify(in.Title)
	if slug == "" {
		return nil, fmt.Errorf("%w: title yields an empty slug", ErrInvalidInput)
	}
	tags := normalizeTags(in.Tags)

	var taken bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM questionnaire WHERE (title = $1 OR slug = $2) AND id <> $3)
	`, in.Title, slug, in.ID).Scan(&taken); err != nil {
		return nil, fmt.Errorf("check title: %w", err)
	}
	if taken {
		return nil, ErrTitleTaken
	}

	if err := s.upsertTags(ctx, tags); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	isCollecting := current.IsCollecting
	if in.IsCollecting != nil {
		isCollecting = *in.IsCollecting
	}
	isPublic := current.IsPublic
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE questionnaire
		SET title = $1, slug = $2, thumb = NULLIF($3, ''), tags = $4,
		    summary = NULLIF($5, ''), description = NULLIF($6, ''),
		    is_collecting = $7, is_public = $8
		WHERE id = $9
		RETURNING id, author_id, title, slug, thumb, tags, summary, description, is_collecting, is_public, views, downloads, created_at
	`, in.Title, slug, in.Thumb, tags, in.Summary, in.Description, isCollecting, isPublic, in.ID)
	return scanQuestionnaire(row)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questionnaire WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete questionnaire: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete questionnaire: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordView bumps the total view counter and the per-day statistics row.
// Both are best-effort counters; concurrent increments may race and the
// occasional lost update is acceptable.
func (s *Service) RecordView(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE questionnaire SET views = views + 1 WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO statistics (questionnaire_id, stat_date, views)
		VALUES ($1, CURRENT_DATE, 1)
		ON CONFLICT (questionnaire_id, stat_date)
		DO UPDATE SET views = statistics.views + 1
	`, id); err != nil {
		return fmt.Errorf("upsert daily views: %w", err)
	}
	return nil
}

func (s *Service) RecordDownload(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE questionnaire SET downloads = downloads + 1 WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("increment downloads: %w", err)
	}
	return nil
}

// ViewHistory returns the per-day view counts, oldest first.
func (s *Service) ViewHistory(ctx context.Context, id int64) ([]DailyViews, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stat_date::text, views
		FROM statistics
		WHERE questionnaire_id = $1
		ORDER BY stat_date
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query view history: %w", err)
	}
	defer rows.Close()

	items := make([]DailyViews, 0)
	for rows.Next() {
		var d DailyViews
		if err := rows.Scan(&d.Date, &d.Views); err != nil {
			return nil, fmt.Errorf("scan view history: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate view history: %w", err)
	}
	return items, nil
}

func (s *Service) upsertTags(ctx context.Context, tags string) error {
	for _, name := range SplitTags(tags) {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING
		`, name); err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}
	}
	return nil
}

// SplitTags parses the pipe-separated tag field into trimmed names.
func SplitTags(tags string) []string {
	parts := strings.Split(tags, "|")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

func normalizeTags(tags string) string {
	names := SplitTags(tags)
	if len(names) == 0 {
		return defaultTag
	}
	return strings.Join(names, "|")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestionnaire(row *sql.Row) (*Questionnaire, error) {
	q, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return q, err
}

func scanQuestionnaireRows(rows *sql.Rows) (*Questionnaire, error) {
	return scanInto(rows)
}

func scanInto(sc rowScanner) (*Questionnaire, error) {
	var q Questionnaire
	var authorID sql.NullInt64
	var thumb, summary, description sql.NullString
	err := sc.Scan(
		&q.ID, &authorID, &q.Title, &q.Slug, &thumb, &q.Tags, &summary, &description,
		&q.IsCollecting, &q.IsPublic, &q.Views, &q.Downloads, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan questionnaire: %w", err)
	}
	if authorID.Valid {
		id := authorID.Int64
		q.AuthorID = &id
	}
	if thumb.Valid {
		q.Thumb = &thumb.String
	}
	if summary.Valid {
		q.Summary = &summary.String
	}
	if description.Valid {
		q.Description = &description.String
	}
	return &q, nil
}

func nullableID(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
