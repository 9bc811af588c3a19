package upload

import (
	"errors"
	"testing"

	"formlens/internal/question"
)

func TestBuildQuestionInputs(t *testing.T) {
	g := gridOf(
		[]string{"Grade", "Comments", "Colors"},
		[]string{"1", "loved the venue", "red, blue"},
		[]string{"1", "parking was difficult", "green"},
		[]string{"2", "would attend again", "red"},
		[]string{"1", "great speakers overall", "blue, green"},
	)

	inputs, err := buildQuestionInputs(g, DefaultThresholds())
	if err != nil {
		t.Fatalf("buildQuestionInputs: %v", err)
	}
	if len(inputs) != 3 {
		t.Fatalf("inputs = %d, want 3", len(inputs))
	}

	for i, in := range inputs {
		if in.Sequence != i+1 {
			t.Fatalf("inputs[%d].Sequence = %d, want %d", i, in.Sequence, i+1)
		}
	}

	if inputs[0].Type != question.TypeSelect {
		t.Fatalf("Grade type = %s, want %s", inputs[0].Type, question.TypeSelect)
	}
	grade, ok := inputs[0].Detail.(question.SelectDetail)
	if !ok {
		t.Fatalf("Grade detail = %T", inputs[0].Detail)
	}
	if grade.Multiselect {
		t.Fatalf("Grade should be single-select")
	}
	if len(grade.Options) != 2 || grade.Options[0].Value != "1" || grade.Options[1].Value != "2" {
		t.Fatalf("Grade options = %v", grade.Options)
	}

	if inputs[1].Type != question.TypeInput {
		t.Fatalf("Comments type = %s, want %s", inputs[1].Type, question.TypeInput)
	}
	if _, ok := inputs[1].Detail.(question.InputDetail); !ok {
		t.Fatalf("Comments detail = %T", inputs[1].Detail)
	}

	if inputs[2].Type != question.TypeSelect {
		t.Fatalf("Colors type = %s, want %s", inputs[2].Type, question.TypeSelect)
	}
	colors, ok := inputs[2].Detail.(question.SelectDetail)
	if !ok {
		t.Fatalf("Colors detail = %T", inputs[2].Detail)
	}
	if !colors.Multiselect {
		t.Fatalf("Colors should be multi-select")
	}
}

func TestBuildQuestionInputsMissingHeader(t *testing.T) {
	g := gridOf(
		[]string{"Name", ""},
		[]string{"Ana", "x"},
		[]string{"Ben", "y"},
	)
	// Normalization would remove the empty column; an unlabeled column
	// with data underneath is the caller's problem to surface.
	_, err := buildQuestionInputs(g, DefaultThresholds())
	var colErr *ColumnError
	if !errors.As(err, &colErr) {
		t.Fatalf("err = %v, want ColumnError", err)
	}
	if colErr.Column != "B" {
		t.Fatalf("column = %q, want B", colErr.Column)
	}
}

func TestCollectOptionsMultiDedupe(t *testing.T) {
	cells := dataCells("red, blue", "green", "red", "blue, green")
	opts := collectOptions(cells, true)
	want := []string{"red", "blue", "green"}
	if len(opts) != len(want) {
		t.Fatalf("options = %v", opts)
	}
	for i, w := range want {
		if opts[i].Value != w {
			t.Fatalf("options[%d] = %q, want %q", i, opts[i].Value, w)
		}
	}
}

func TestCollectOptionsNumericSort(t *testing.T) {
	cells := dataCells("10", "2", "2", "1")
	opts := collectOptions(cells, false)
	want := []string{"1", "2", "10"}
	if len(opts) != len(want) {
		t.Fatalf("options = %v", opts)
	}
	for i, w := range want {
		if opts[i].Value != w {
			t.Fatalf("options[%d] = %q, want %q", i, opts[i].Value, w)
		}
	}
}

func TestColumnName(t *testing.T) {
	tests := []struct {
		j    int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
	}
	for _, tc := range tests {
		if got := columnName(tc.j); got != tc.want {
			t.Fatalf("columnName(%d) = %q, want %q", tc.j, got, tc.want)
		}
	}
}
