package upload

import (
	"context"

	"formlens/internal/dataset"
	"formlens/internal/question"
	"formlens/internal/questionnaire"
)

type Service struct {
	thresholds     Thresholds
	questions      *question.Service
	questionnaires *questionnaire.Service
	datasets       *dataset.Service
}

func NewService(questions *question.Service, questionnaires *questionnaire.Service, datasets *dataset.Service, th Thresholds) *Service {
	return &Service{
		thresholds:     th,
		questions:      questions,
		questionnaires: questionnaires,
		datasets:       datasets,
	}
}

// DatasetImport is the result of a combined import: the schema built
// from the sheet plus the answer rows loaded against it.
type DatasetImport struct {
	Questions []question.Question `json:"questions"`
	Report    ImportReport        `json:"report"`
}

// BuildSchemaFromSheet infers one question per sheet column and persists
// the schema as a single unit. An empty sheet yields an empty schema.
func (s *Service) BuildSchemaFromSheet(ctx context.Context, questionnaireID int64, grid Grid, createdBy *int64) ([]question.Question, error) {
	if _, err := s.questionnaires.Get(ctx, questionnaireID); err != nil {
		return nil, err
	}

	normalized := grid.Normalize()
	return s.buildSchema(ctx, questionnaireID, normalized, createdBy)
}

// ImportAnswersFromSheet loads a sheet's data rows as answer batches
// against the questionnaire's existing schema.
func (s *Service) ImportAnswersFromSheet(ctx context.Context, questionnaireID int64, grid Grid, answerBy *int64) (*ImportReport, error) {
	if _, err := s.questionnaires.Get(ctx, questionnaireID); err != nil {
		return nil, err
	}

	normalized := grid.Normalize()
	return s.importAnswers(ctx, questionnaireID, normalized, answerBy)
}

// ImportDatasetFromSheet builds the schema from the sheet and then loads
// the same sheet's rows as answers. Schema creation runs first so the
// rows are validated against a complete schema.
func (s *Service) ImportDatasetFromSheet(ctx context.Context, questionnaireID int64, grid Grid, userID *int64) (*DatasetImport, error) {
	if _, err := s.questionnaires.Get(ctx, questionnaireID); err != nil {
		return nil, err
	}

	normalized := grid.Normalize()
	created, err := s.buildSchema(ctx, questionnaireID, normalized, userID)
	if err != nil {
		return nil, err
	}
	report, err := s.importAnswers(ctx, questionnaireID, normalized, userID)
	if err != nil {
		return nil, err
	}
	return &DatasetImport{Questions: created, Report: *report}, nil
}

func (s *Service) buildSchema(ctx context.Context, questionnaireID int64, normalized Grid, createdBy *int64) ([]question.Question, error) {
	if normalized.NumRows() == 0 || normalized.NumCols() == 0 {
		return []question.Question{}, nil
	}

	inputs, err := buildQuestionInputs(normalized, s.thresholds)
	if err != nil {
		return nil, err
	}
	for i := range inputs {
		inputs[i].CreatedBy = createdBy
	}
	return s.questions.CreateMany(ctx, questionnaireID, inputs)
}

func (s *Service) importAnswers(ctx context.Context, questionnaireID int64, normalized Grid, answerBy *int64) (*ImportReport, error) {
	if normalized.NumRows() == 0 || normalized.NumCols() == 0 {
		return &ImportReport{}, nil
	}

	questions, err := s.questions.ListByQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}

	batches, skipped, err := planAnswerBatches(normalized, questions, s.thresholds)
	if err != nil {
		return nil, err
	}

	if _, err := s.datasets.InsertBatches(ctx, questionnaireID, batches, answerBy); err != nil {
		return nil, err
	}
	return &ImportReport{RowsImported: len(batches), RowsSkipped: skipped}, nil
}
