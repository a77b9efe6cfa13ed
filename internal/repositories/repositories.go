package repositories

import (
	"database/sql"
	"fmt"
)

// Execer is the part of [sql.DB] and [sql.Tx] the repositories write through.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NextSequence bumps the single-row "<table>_sequence" counter and returns the new value.
//
// Callers pass the transaction that will also insert the row so a failed insert does not burn
// a sequence number.
func NextSequence(tx Execer, table string) (int, error) {
	counter := table + "_sequence"

	if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", counter)); err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", counter, err)
	}

	var sequence int
	if err := tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", counter)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", counter, err)
	}
	return sequence, nil
}

// inTx runs fn inside a transaction, committing only when fn succeeds.
func inTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
