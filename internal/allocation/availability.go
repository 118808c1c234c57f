package allocation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/domain"
)

// AvailabilityIndex answers whether a worker is free over a date range.
type AvailabilityIndex struct {
	runner domain.TxRunner
}

func NewAvailabilityIndex(runner domain.TxRunner) *AvailabilityIndex {
	return &AvailabilityIndex{runner: runner}
}

// IsAvailable reports whether the worker has no active project assignment or
// training enrollment overlapping [start, end]. The excluded project is
// ignored, which is how a worker is checked against the project they are
// being assigned to. Pass uuid.Nil to consider every project.
func (a *AvailabilityIndex) IsAvailable(ctx context.Context, workerID uuid.UUID, start, end time.Time, excludeProjectID uuid.UUID) (bool, []domain.Conflict, error) {
	window := domain.NewDateRange(start, end)
	if !window.Valid() {
		return false, nil, domain.Validationf("invalid date range %s", window)
	}

	var conflicts []domain.Conflict
	err := a.runner.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		conflicts, err = a.conflicts(ctx, tx, workerID, window, excludeProjectID)
		return err
	})
	if err != nil {
		return false, nil, wrapErr("allocation.AvailabilityIndex.IsAvailable", err)
	}
	return len(conflicts) == 0, conflicts, nil
}

func (a *AvailabilityIndex) conflicts(ctx context.Context, tx domain.Tx, workerID uuid.UUID, window domain.DateRange, excludeProjectID uuid.UUID) ([]domain.Conflict, error) {
	commitments, err := tx.Commitments().ListActive(ctx, workerID, excludeProjectID)
	if err != nil {
		return nil, err
	}
	return FindConflicts(commitments, window), nil
}

// FindConflicts returns every commitment overlapping window, in input order.
// Undated commitments never conflict.
func FindConflicts(commitments []domain.Commitment, window domain.DateRange) []domain.Conflict {
	var out []domain.Conflict
	for _, c := range commitments {
		if !c.Range.Valid() || !c.Range.Overlaps(window) {
			continue
		}
		out = append(out, domain.Conflict{Commitment: c, OverlapDays: c.Range.OverlapDays(window)})
	}
	return out
}
