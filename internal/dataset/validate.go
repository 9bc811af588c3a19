package dataset

import (
	"strings"

	"formlens/internal/question"
)

const multiValueDelimiter = ", "

// ValidValue reports whether a submitted value satisfies the question's
// constraints: required questions need a value, single-select values must
// come from the option set unless an "other" field is allowed, and
// multi-select values may only contain option tokens plus at most one
// free token when "other" is allowed.
func ValidValue(q question.Question, value *string) bool {
	empty := value == nil || strings.TrimSpace(*value) == ""

	switch detail := q.Detail.(type) {
	case question.InputDetail:
		return !empty || !detail.Required
	case question.SelectDetail:
		if empty {
			return !detail.Required
		}
		if detail.Multiselect {
			// Each option absorbs at most one token, so a duplicated
			// selection still counts as a leftover.
			tokens := strings.Split(*value, multiValueDelimiter)
			for _, opt := range detail.Options {
				for i, token := range tokens {
					if token == opt.Value {
						tokens = append(tokens[:i], tokens[i+1:]...)
						break
					}
				}
			}
			if detail.OtherField {
				return len(tokens) <= 1
			}
			return len(tokens) == 0
		}
		if detail.OtherField {
			return true
		}
		return optionMember(detail, *value)
	default:
		// Detail record missing (question re-typed mid-flight); only the
		// required constraint can be checked, so accept.
		return true
	}
}

func optionMember(d question.SelectDetail, value string) bool {
	for _, opt := range d.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}
