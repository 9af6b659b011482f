package history

import (
	"fmt"
	"time"
)

// MarkInterrupted flags runs still marked running, left behind by a
// process that exited before finishing them. Returns the number of runs
// updated.
func (db *DB) MarkInterrupted(at time.Time) (int64, error) {
	result, err := db.Exec(`
		UPDATE runs SET status = ?, completed_at = ?
		WHERE status = ?
	`, string(RunInterrupted), formatTime(at), string(RunRunning))
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}
