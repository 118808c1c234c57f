package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/domain"
)

// Result is the outcome of validating a proposed assignment. Err carries the
// first failing rule; Conflicts lists every overlapping commitment when the
// failure is a scheduling conflict.
type Result struct {
	Valid     bool
	Err       error
	Conflicts []domain.Conflict
}

func invalid(err error) *Result {
	return &Result{Err: err}
}

// AssignmentValidator runs the pre-assignment rules in a fixed order and
// stops at the first one that fails: existence, terminal project, labor
// category, duplicate, calendar conflicts, worker stage.
type AssignmentValidator struct {
	runner       domain.TxRunner
	availability *AvailabilityIndex
}

func NewAssignmentValidator(runner domain.TxRunner, availability *AvailabilityIndex) *AssignmentValidator {
	return &AssignmentValidator{runner: runner, availability: availability}
}

// Validate checks whether workerID can be assigned to projectID right now.
// Rule failures come back in the Result; the error is reserved for store
// failures.
func (v *AssignmentValidator) Validate(ctx context.Context, workerID, projectID uuid.UUID) (*Result, error) {
	var res *Result
	err := v.runner.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		res, _, _, err = v.check(ctx, tx, workerID, projectID)
		return err
	})
	if err != nil {
		return nil, wrapErr("allocation.AssignmentValidator.Validate", err)
	}
	return res, nil
}

// check evaluates the rules inside tx and returns the loaded rows for reuse
// by the caller when the assignment is valid.
func (v *AssignmentValidator) check(ctx context.Context, tx domain.Tx, workerID, projectID uuid.UUID) (*Result, *domain.Worker, *domain.Project, error) {
	w, err := tx.Workers().GetByID(ctx, workerID)
	if errors.Is(err, domain.ErrNotFound) {
		return invalid(fmt.Errorf("worker %s: %w", workerID, domain.ErrNotFound)), nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, err
	}

	p, err := tx.Projects().GetByID(ctx, projectID)
	if errors.Is(err, domain.ErrNotFound) {
		return invalid(fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)), nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, err
	}

	if p.Stage.Terminal() {
		return invalid(domain.Validationf("project %s is %s", p.ID, p.Stage)), nil, nil, nil
	}
	if w.Type != p.LaborCategory {
		return invalid(domain.Validationf("worker type %s does not match project labor category %s", w.Type, p.LaborCategory)), nil, nil, nil
	}

	_, err = tx.Assignments().GetActive(ctx, projectID, workerID)
	switch {
	case err == nil:
		return invalid(fmt.Errorf("worker %s on project %s: %w", workerID, projectID, domain.ErrAlreadyExists)), nil, nil, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, nil, nil, err
	}

	if window, dated := p.PlannedRange(); dated {
		conflicts, err := v.availability.conflicts(ctx, tx, workerID, window, projectID)
		if err != nil {
			return nil, nil, nil, err
		}
		if len(conflicts) > 0 {
			return &Result{
				Err:       &domain.ConflictError{WorkerID: workerID, Conflicts: conflicts},
				Conflicts: conflicts,
			}, nil, nil, nil
		}
	}

	// Checked after the calendar so a worker busy elsewhere gets the full
	// conflict report rather than just their stage.
	if !w.Stage.Allocatable() {
		return invalid(domain.Validationf("worker %s is %s, not available for assignment", w.ID, w.Stage)), nil, nil, nil
	}

	return &Result{Valid: true}, w, p, nil
}
