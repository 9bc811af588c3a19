package dataset

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX renders a questionnaire's collected batches as a workbook,
// one row per submission with question labels as headers, and records
// the download. Returns the suggested file name and the file content.
func (s *Service) ExportXLSX(ctx context.Context, slug string) (string, []byte, error) {
	qnr, err := s.questionnaires.GetBySlug(ctx, slug)
	if err != nil {
		return "", nil, err
	}

	questions, err := s.questions.ListByQuestionnaire(ctx, qnr.ID)
	if err != nil {
		return "", nil, err
	}
	answers, err := s.ListAnswers(ctx, qnr.ID)
	if err != nil {
		return "", nil, err
	}
	batches := GroupAnswers(answers, questions)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, q := range questions {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, q.Label)
	}

	columnByKey := make(map[string]int, len(questions))
	for i, q := range questions {
		columnByKey[q.Key] = i + 1
	}
	for i, batch := range batches {
		row := i + 2
		for _, a := range batch.Answers {
			col, live := columnByKey[a.QuestionKey]
			if !live || a.Value == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, *a.Value)
		}
	}
	if len(questions) > 0 {
		last, _ := excelize.ColumnNumberToName(len(questions))
		_ = f.SetColWidth(sheet, "A", last, 22)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", nil, fmt.Errorf("write workbook: %w", err)
	}

	if err := s.questionnaires.RecordDownload(ctx, qnr.ID); err != nil {
		return "", nil, err
	}
	return qnr.Slug + ".xlsx", buf.Bytes(), nil
}
