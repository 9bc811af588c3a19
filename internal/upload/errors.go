package upload

import "fmt"

// StructuralMismatchError aborts a whole import: a sheet column's
// inferred type contradicts the questionnaire's recorded schema. Nothing
// is written when it is returned.
type StructuralMismatchError struct {
	Column   string
	Expected string
	Inferred string
}

func (e *StructuralMismatchError) Error() string {
	return fmt.Sprintf("column %q does not match the schema: inferred %s, schema has %s", e.Column, e.Inferred, e.Expected)
}

// ColumnError reports a column the schema builder could not turn into a
// question, naming the column instead of silently dropping it.
type ColumnError struct {
	Column string
	Err    error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q: %v", e.Column, e.Err)
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}
