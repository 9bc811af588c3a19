package dataset

import (
	"testing"

	"formlens/internal/question"
)

func testQuestions() []question.Question {
	return []question.Question{
		{
			Key:      "k-color",
			Type:     question.TypeSelect,
			Label:    "Favorite colors",
			Sequence: 1,
			Detail: question.SelectDetail{
				Multiselect: true,
				Options:     []question.Option{{Value: "red"}, {Value: "blue"}, {Value: "green"}},
			},
		},
		{
			Key:      "k-comment",
			Type:     question.TypeInput,
			Label:    "Comments",
			Sequence: 2,
			Detail:   question.InputDetail{},
		},
	}
}

func TestGroupAnswersOrdersByCodeAndSequence(t *testing.T) {
	questions := testQuestions()
	answers := []Answer{
		{ID: 4, QuestionKey: "k-comment", Value: strPtr("later"), Code: 2},
		{ID: 3, QuestionKey: "k-color", Value: strPtr("blue"), Code: 2},
		{ID: 2, QuestionKey: "k-comment", Value: strPtr("first"), Code: 1},
		{ID: 1, QuestionKey: "k-color", Value: strPtr("red"), Code: 1},
	}

	batches := GroupAnswers(answers, questions)
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	if batches[0].Code != 1 || batches[1].Code != 2 {
		t.Fatalf("codes = %d, %d", batches[0].Code, batches[1].Code)
	}
	if batches[0].Answers[0].QuestionKey != "k-color" || batches[0].Answers[1].QuestionKey != "k-comment" {
		t.Fatalf("batch 1 order = %+v", batches[0].Answers)
	}
}

func TestGroupAnswersDropsOrphanedAnswers(t *testing.T) {
	questions := testQuestions()
	answers := []Answer{
		{ID: 1, QuestionKey: "k-color", Value: strPtr("red"), Code: 1},
		{ID: 2, QuestionKey: "k-deleted", Value: strPtr("stale"), Code: 1},
	}

	batches := GroupAnswers(answers, questions)
	if len(batches) != 1 || len(batches[0].Answers) != 1 {
		t.Fatalf("batches = %+v", batches)
	}
	if batches[0].Answers[0].QuestionKey != "k-color" {
		t.Fatalf("surviving answer = %+v", batches[0].Answers[0])
	}
}

func TestAggregateStatistics(t *testing.T) {
	questions := testQuestions()
	batches := []Batch{
		{Code: 1, Answers: []Answer{
			{QuestionKey: "k-color", Value: strPtr("red, blue")},
			{QuestionKey: "k-comment", Value: strPtr("great")},
		}},
		{Code: 2, Answers: []Answer{
			{QuestionKey: "k-color", Value: strPtr("red")},
			{QuestionKey: "k-comment", Value: strPtr("great")},
		}},
		{Code: 3, Answers: []Answer{
			{QuestionKey: "k-color", Value: strPtr("red, yellow")},
			{QuestionKey: "k-comment", Value: nil},
		}},
	}

	stats := AggregateStatistics(questions, batches)
	if len(stats) != 2 {
		t.Fatalf("stats = %d, want 2", len(stats))
	}

	colors := stats[0]
	if !colors.Multiselect {
		t.Fatalf("colors should be multiselect")
	}
	if colors.Histogram["red"] != 3 || colors.Histogram["blue"] != 1 || colors.Histogram["green"] != 0 {
		t.Fatalf("colors histogram = %v", colors.Histogram)
	}
	if _, stray := colors.Histogram["yellow"]; stray {
		t.Fatalf("token outside the option set must not create a bucket")
	}

	comments := stats[1]
	if comments.Histogram["great"] != 2 {
		t.Fatalf("comments histogram = %v", comments.Histogram)
	}
}

func TestAggregateStatisticsEmptyAnswerSet(t *testing.T) {
	stats := AggregateStatistics(testQuestions(), nil)
	if len(stats) != 2 {
		t.Fatalf("stats = %d, want 2", len(stats))
	}
	colors := stats[0]
	if len(colors.Histogram) != 3 {
		t.Fatalf("select histogram should pre-seed every option: %v", colors.Histogram)
	}
	for opt, n := range colors.Histogram {
		if n != 0 {
			t.Fatalf("option %q = %d, want 0", opt, n)
		}
	}
	if len(stats[1].Histogram) != 0 {
		t.Fatalf("input histogram should start empty: %v", stats[1].Histogram)
	}
}
