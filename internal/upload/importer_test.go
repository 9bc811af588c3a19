package upload

import (
	"errors"
	"testing"

	"formlens/internal/dataset"
	"formlens/internal/question"
)

func selectQuestion(key, label string, multi bool, required bool, options ...string) question.Question {
	opts := make([]question.Option, len(options))
	for i, v := range options {
		opts[i] = question.Option{Value: v}
	}
	return question.Question{
		Key:   key,
		Type:  question.TypeSelect,
		Label: label,
		Detail: question.SelectDetail{
			Multiselect: multi,
			Required:    required,
			Options:     opts,
		},
	}
}

func inputQuestion(key, label string, required bool) question.Question {
	return question.Question{
		Key:    key,
		Type:   question.TypeInput,
		Label:  label,
		Detail: question.InputDetail{Required: required},
	}
}

func TestPlanAnswerBatches(t *testing.T) {
	g := gridOf(
		[]string{"Grade", "Comments"},
		[]string{"1", "loved the venue"},
		[]string{"2", "parking was difficult"},
		[]string{"1", "would attend again"},
		[]string{"1", "great speakers overall"},
	)
	questions := []question.Question{
		selectQuestion("k-grade", "Grade", false, true, "1", "2"),
		inputQuestion("k-comments", "Comments", true),
	}

	batches, skipped, err := planAnswerBatches(g, questions, DefaultThresholds())
	if err != nil {
		t.Fatalf("planAnswerBatches: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if len(batches) != 4 {
		t.Fatalf("batches = %d, want 4", len(batches))
	}
	first := batches[0]
	if len(first) != 2 || first[0].QuestionKey != "k-grade" || first[1].QuestionKey != "k-comments" {
		t.Fatalf("first batch = %+v", first)
	}
	if first[0].Value == nil || *first[0].Value != "1" {
		t.Fatalf("first batch grade = %v", first[0].Value)
	}
}

func TestPlanAnswerBatchesColumnCountMismatch(t *testing.T) {
	g := gridOf(
		[]string{"Grade"},
		[]string{"1"},
	)
	questions := []question.Question{
		selectQuestion("k-grade", "Grade", false, true, "1", "2"),
		inputQuestion("k-comments", "Comments", false),
	}
	_, _, err := planAnswerBatches(g, questions, DefaultThresholds())
	if !errors.Is(err, dataset.ErrNotEnoughAnswers) {
		t.Fatalf("err = %v, want ErrNotEnoughAnswers", err)
	}
}

func TestPlanAnswerBatchesTypeMismatchAbortsWholeImport(t *testing.T) {
	// The sheet's only column repeats values, so it infers SelectType,
	// while the schema expects free input. No rows survive.
	g := gridOf(
		[]string{"Grade"},
		[]string{"1"},
		[]string{"1"},
		[]string{"1"},
		[]string{"2"},
	)
	questions := []question.Question{
		inputQuestion("k-grade", "Grade", true),
	}
	batches, _, err := planAnswerBatches(g, questions, DefaultThresholds())
	var mismatch *StructuralMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want StructuralMismatchError", err)
	}
	if mismatch.Column != "Grade" || mismatch.Inferred != question.TypeSelect || mismatch.Expected != question.TypeInput {
		t.Fatalf("mismatch = %+v", mismatch)
	}
	if batches != nil {
		t.Fatalf("batches should be nil on mismatch")
	}
}

func TestPlanAnswerBatchesSkipsInvalidRows(t *testing.T) {
	// Row 2 leaves the required comment empty and row 3 answers outside
	// the option set; both rows drop without affecting the rest.
	g := gridOf(
		[]string{"Grade", "Comments"},
		[]string{"1", "loved the venue"},
		[]string{"1", ""},
		[]string{"3", "parking was difficult"},
		[]string{"1", "would attend again"},
	)
	questions := []question.Question{
		selectQuestion("k-grade", "Grade", false, true, "1", "2"),
		inputQuestion("k-comments", "Comments", true),
	}
	batches, skipped, err := planAnswerBatches(g, questions, DefaultThresholds())
	if err != nil {
		t.Fatalf("planAnswerBatches: %v", err)
	}
	if skipped != 2 {
		t.Fatalf("skipped = %d, want 2", skipped)
	}
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
}
