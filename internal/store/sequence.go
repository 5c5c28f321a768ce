package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Saved sessions and LLM request events draw from one counter so their
// rows interleave in the order they were written.

const sequenceDDL = `CREATE TABLE IF NOT EXISTS global_sequence (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	next_val INTEGER NOT NULL DEFAULT 1
)`

func initSequence(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sequenceDDL); err != nil {
		return fmt.Errorf("create sequence table: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`); err != nil {
		return fmt.Errorf("seed sequence: %w", err)
	}
	return nil
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// nextSequence claims the next number. Called on a transaction, the claim
// is undone with it, so a failed save leaves no gap.
func nextSequence(ctx context.Context, q rowQuerier) (int64, error) {
	var n int64
	row := q.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return n, nil
}
