package db

import (
	"context"
	"database/sql"
	"fmt"
)

// LockQuestionnaire takes a transaction-scoped advisory lock keyed on the
// questionnaire id. Sequence shifts and answer batch code allocation both
// read-then-write derived values, so mutations against one questionnaire
// must not interleave.
func LockQuestionnaire(ctx context.Context, tx *sql.Tx, questionnaireID int64) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, questionnaireID); err != nil {
		return fmt.Errorf("lock questionnaire %d: %w", questionnaireID, err)
	}
	return nil
}
