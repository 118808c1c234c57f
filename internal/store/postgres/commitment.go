package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/domain"
)

type CommitmentRepo struct {
	db querier
}

// ListActive returns the raw commitments; overlap is decided in Go so the
// same rule applies to every store.
func (r *CommitmentRepo) ListActive(ctx context.Context, workerID, excludeProjectID uuid.UUID) ([]domain.Commitment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT 'project', p.id, p.name, p.start_date, p.end_date
		 FROM assignments a
		 JOIN projects p ON p.id = a.project_id
		 WHERE a.worker_id = $1 AND a.removed_at IS NULL AND a.completed_at IS NULL
		   AND p.id <> $2
		   AND p.start_date IS NOT NULL AND p.end_date IS NOT NULL
		 UNION ALL
		 SELECT 'training', b.id, b.name, b.start_date, b.end_date
		 FROM training_enrollments e
		 JOIN training_batches b ON b.id = e.batch_id
		 WHERE e.worker_id = $1 AND e.status = $3
		   AND b.start_date IS NOT NULL AND b.end_date IS NOT NULL
		 ORDER BY 4, 1, 2`,
		workerID, excludeProjectID, domain.TrainingEnrolled,
	)
	if err != nil {
		return nil, fmt.Errorf("commitmentRepo.ListActive: %w", err)
	}
	defer rows.Close()

	var out []domain.Commitment
	for rows.Next() {
		var (
			c          domain.Commitment
			start, end time.Time
		)
		if err := rows.Scan(&c.Kind, &c.ID, &c.Name, &start, &end); err != nil {
			return nil, fmt.Errorf("commitmentRepo.ListActive: scan: %w", err)
		}
		c.Range = domain.NewDateRange(start, end)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("commitmentRepo.ListActive: rows: %w", err)
	}

	return out, nil
}
