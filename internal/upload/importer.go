package upload

import (
	"formlens/internal/dataset"
	"formlens/internal/question"
)

// ImportReport summarizes one answer import. Skipped rows failed row
// validation and were left out entirely; they are not errors.
type ImportReport struct {
	RowsImported int `json:"rows_imported"`
	RowsSkipped  int `json:"rows_skipped"`
}

// planAnswerBatches validates a normalized grid against the
// questionnaire's schema and returns one answer batch per valid data
// row. The check is all-or-nothing at the column level: a column count
// or column type mismatch fails the whole plan before any row is
// considered. Pure.
func planAnswerBatches(grid Grid, questions []question.Question, th Thresholds) ([][]dataset.NewAnswer, int, error) {
	if grid.NumCols() != len(questions) {
		return nil, 0, dataset.ErrNotEnoughAnswers
	}

	header := grid.Header()
	for j, q := range questions {
		cls := ClassifyColumn(grid.DataColumn(j), th)
		if cls.Kind.Base() != q.Type {
			return nil, 0, &StructuralMismatchError{
				Column:   header[j],
				Expected: q.Type,
				Inferred: cls.Kind.Base(),
			}
		}
	}

	batches := make([][]dataset.NewAnswer, 0, grid.NumRows())
	skipped := 0
	for i := 1; i < grid.NumRows(); i++ {
		row := grid.Row(i)
		batch := make([]dataset.NewAnswer, 0, len(questions))
		valid := true
		for j, q := range questions {
			var value *string
			if row[j].Valid {
				v := row[j].Value
				value = &v
			}
			if !dataset.ValidValue(q, value) {
				valid = false
				break
			}
			batch = append(batch, dataset.NewAnswer{QuestionKey: q.Key, Value: value})
		}
		if !valid {
			skipped++
			continue
		}
		batches = append(batches, batch)
	}
	return batches, skipped, nil
}
