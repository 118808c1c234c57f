package allocation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/domain"
)

// RequirementPlanner edits a project's per-skill headcount.
type RequirementPlanner struct {
	runner  domain.TxRunner
	history *StageHistoryLog
	now     func() time.Time
}

func NewRequirementPlanner(runner domain.TxRunner, history *StageHistoryLog, now func() time.Time) *RequirementPlanner {
	return &RequirementPlanner{runner: runner, history: history, now: now}
}

// SetRequest sets the required count for one skill on a project.
type SetRequest struct {
	ProjectID       uuid.UUID
	SkillCategoryID uuid.UUID
	SkillName       string
	RequiredCount   int
	Reason          string
	ActorID         uuid.UUID
}

// Set creates or updates a requirement. The count may never drop below the
// number of workers already actively holding that skill on the project.
func (r *RequirementPlanner) Set(ctx context.Context, req SetRequest) (*domain.ResourceRequirement, error) {
	if req.RequiredCount < 0 {
		return nil, domain.Validationf("required count must not be negative")
	}
	if req.SkillCategoryID == uuid.Nil {
		return nil, domain.Validationf("skill category is required")
	}

	var out domain.ResourceRequirement
	err := r.runner.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if err := tx.LockProject(ctx, req.ProjectID); err != nil {
			return err
		}
		p, err := tx.Projects().GetByID(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		if p.Stage.Terminal() {
			return domain.Validationf("project %s is %s", p.ID, p.Stage)
		}

		active, err := tx.Assignments().CountActiveBySkill(ctx, p.ID, req.SkillCategoryID)
		if err != nil {
			return err
		}
		if req.RequiredCount < active {
			return domain.Validationf("required count %d is below the %d workers already assigned", req.RequiredCount, active)
		}

		previous := 0
		name := req.SkillName
		if existing, ok := p.Requirement(req.SkillCategoryID); ok {
			previous = existing.RequiredCount
			if name == "" {
				name = existing.SkillName
			}
		}

		out = domain.ResourceRequirement{
			ProjectID:       p.ID,
			SkillCategoryID: req.SkillCategoryID,
			SkillName:       name,
			RequiredCount:   req.RequiredCount,
		}
		_, err = r.history.SetRequirement(ctx, tx, out, previous, req.ActorID, req.Reason, r.now())
		return err
	})
	if err != nil {
		return nil, wrapErr("allocation.RequirementPlanner.Set", err)
	}
	return &out, nil
}
