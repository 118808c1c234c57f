package allocation

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/crewhub/internal/domain"
)

// Candidate is one worker from the eligible pool. Conflicts is empty when the
// worker is free over the project's planned dates.
type Candidate struct {
	Worker    *domain.Worker
	Conflicts []domain.Conflict
}

// Available reports whether the candidate can be assigned without conflicts.
func (c Candidate) Available() bool {
	return len(c.Conflicts) == 0
}

// Preview is a dry run of AutoMatch.
type Preview struct {
	ProjectID       uuid.UUID
	SkillCategoryID uuid.UUID
	Required        int
	Active          int
	Remaining       int
	Candidates      []Candidate
}

// MatchResult reports what AutoMatch did.
type MatchResult struct {
	Matched     []*domain.Assignment
	StillNeeded int
	Errors      []BulkFailure
}

// AutoMatcher fills a project's outstanding skill requirement from the pool.
type AutoMatcher struct {
	runner       domain.TxRunner
	availability *AvailabilityIndex
	assignments  *AssignmentService
	maxPool      int
}

func NewAutoMatcher(runner domain.TxRunner, availability *AvailabilityIndex, assignments *AssignmentService, maxPool int) *AutoMatcher {
	if maxPool <= 0 {
		maxPool = DefaultMaxPool
	}
	return &AutoMatcher{runner: runner, availability: availability, assignments: assignments, maxPool: maxPool}
}

// Preview computes the outstanding count and the eligible pool without
// assigning anyone.
func (m *AutoMatcher) Preview(ctx context.Context, projectID, skillID uuid.UUID) (*Preview, error) {
	var out *Preview
	err := m.runner.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		p, err := tx.Projects().GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if p.Stage.Terminal() {
			return domain.Validationf("project %s is %s", p.ID, p.Stage)
		}
		req, ok := p.Requirement(skillID)
		if !ok {
			return domain.Validationf("project %s has no requirement for skill %s", p.ID, skillID)
		}

		active, err := tx.Assignments().CountActiveBySkill(ctx, p.ID, skillID)
		if err != nil {
			return err
		}
		out = &Preview{
			ProjectID:       p.ID,
			SkillCategoryID: skillID,
			Required:        req.RequiredCount,
			Active:          active,
			Remaining:       max(req.RequiredCount-active, 0),
		}
		if out.Remaining == 0 {
			return nil
		}

		pool, err := tx.Workers().ListEligible(ctx, domain.EligibilityQuery{
			Type:             p.LaborCategory,
			SkillCategoryID:  skillID,
			ExcludeProjectID: p.ID,
			Limit:            m.maxPool,
		})
		if err != nil {
			return err
		}

		window, dated := p.PlannedRange()
		for _, w := range pool {
			c := Candidate{Worker: w}
			if dated {
				c.Conflicts, err = m.availability.conflicts(ctx, tx, w.ID, window, p.ID)
				if err != nil {
					return err
				}
			}
			out.Candidates = append(out.Candidates, c)
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr("allocation.AutoMatcher.Preview", err)
	}
	return out, nil
}

// AutoMatch assigns available candidates one transaction at a time until the
// requirement is met or the pool runs out. Each assignment re-validates, so a
// candidate that became unavailable since the preview is reported in Errors.
func (m *AutoMatcher) AutoMatch(ctx context.Context, projectID, skillID, actorID uuid.UUID) (*MatchResult, error) {
	preview, err := m.Preview(ctx, projectID, skillID)
	if err != nil {
		return nil, err
	}

	res := &MatchResult{StillNeeded: preview.Remaining}
	for _, c := range preview.Candidates {
		if res.StillNeeded == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, wrapErr("allocation.AutoMatcher.AutoMatch", err)
		}
		if !c.Available() {
			continue
		}

		a, err := m.assignments.AssignForSkill(ctx, projectID, c.Worker.ID, skillID, actorID)
		if err != nil {
			res.Errors = append(res.Errors, BulkFailure{ID: c.Worker.ID, Err: err})
			continue
		}
		res.Matched = append(res.Matched, a)
		res.StillNeeded--
	}

	log.Info().
		Str("project_id", projectID.String()).
		Str("skill_category_id", skillID.String()).
		Int("matched", len(res.Matched)).
		Int("still_needed", res.StillNeeded).
		Int("errors", len(res.Errors)).
		Msg("allocation.AutoMatch: done")
	return res, nil
}
