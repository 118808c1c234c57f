package postgres

import (
	"context"
	"fmt"
)

type CodeAllocator struct {
	db querier
}

// NextWorkerCode draws from worker_code_seq. Sequence values are never reused,
// even when the surrounding transaction rolls back.
func (c *CodeAllocator) NextWorkerCode(ctx context.Context) (string, error) {
	var n int64
	if err := c.db.QueryRow(ctx, `SELECT nextval('worker_code_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("codeAllocator.NextWorkerCode: %w", err)
	}
	return FormatWorkerCode(n), nil
}

// FormatWorkerCode renders a sequence value as a permanent worker code.
func FormatWorkerCode(n int64) string {
	return fmt.Sprintf("WRK-%06d", n)
}
