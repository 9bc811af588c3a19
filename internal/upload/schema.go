package upload

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"formlens/internal/question"
)

// buildQuestionInputs turns a normalized grid's columns into question
// create inputs, in column order starting at sequence 1. Pure; the
// caller persists the result as one unit.
func buildQuestionInputs(grid Grid, th Thresholds) ([]question.CreateQuestionInput, error) {
	header := grid.Header()
	inputs := make([]question.CreateQuestionInput, 0, grid.NumCols())

	for j := 0; j < grid.NumCols(); j++ {
		label := strings.TrimSpace(header[j])
		if label == "" {
			return nil, &ColumnError{Column: columnName(j), Err: fmt.Errorf("missing header label")}
		}

		cls := ClassifyColumn(grid.DataColumn(j), th)

		in := question.CreateQuestionInput{
			Type:     cls.Kind.Base(),
			Label:    label,
			Sequence: j + 1,
		}
		switch cls.Kind.Base() {
		case question.TypeInput:
			in.Detail = question.InputDetail{Required: cls.Required}
		case question.TypeSelect:
			options := collectOptions(grid.DataColumn(j), cls.Kind.Multi())
			if len(options) == 0 {
				return nil, &ColumnError{Column: label, Err: fmt.Errorf("no option values observed")}
			}
			in.Detail = question.SelectDetail{
				Multiselect: cls.Kind.Multi(),
				Required:    cls.Required,
				Options:     options,
			}
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// collectOptions gathers the distinct values observed in a column, split
// into individual tokens first for multi-select columns. Encounter order
// is kept unless every value is numeric-like, in which case the set is
// sorted numerically for a stable display order.
func collectOptions(cells []Cell, multi bool) []question.Option {
	values := make([]string, 0, len(cells))
	for _, c := range cells {
		if !c.Valid {
			continue
		}
		if multi {
			values = append(values, strings.Split(c.Value, multiValueDelimiter)...)
		} else {
			values = append(values, c.Value)
		}
	}

	seen := make(map[string]struct{}, len(values))
	distinct := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}

	if allIntegers(distinct) {
		sort.Slice(distinct, func(i, j int) bool {
			a, _ := strconv.Atoi(strings.TrimSpace(distinct[i]))
			b, _ := strconv.Atoi(strings.TrimSpace(distinct[j]))
			return a < b
		})
	}

	options := make([]question.Option, len(distinct))
	for i, v := range distinct {
		options[i] = question.Option{Value: v}
	}
	return options
}

// columnName renders a zero-based column index as its spreadsheet letter.
func columnName(j int) string {
	name := ""
	for j >= 0 {
		name = string(rune('A'+j%26)) + name
		j = j/26 - 1
	}
	return name
}
