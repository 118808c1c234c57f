package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/crewhub/internal/domain"
)

type ProjectRepo struct {
	db querier
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var p domain.Project

	err := r.db.QueryRow(ctx,
		`SELECT id, name, labor_category, stage, start_date, end_date,
		        actual_start_date, actual_end_date, hold_attribution,
		        stage_changed_at, stage_change_reason, created_at, updated_at
		 FROM projects WHERE id = $1`,
		id,
	).Scan(
		&p.ID, &p.Name, &p.LaborCategory, &p.Stage, &p.StartDate, &p.EndDate,
		&p.ActualStartDate, &p.ActualEndDate, &p.HoldAttribution,
		&p.StageChangedAt, &p.StageChangeReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("projectRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("projectRepo.GetByID: %w", err)
	}

	p.Requirements, err = r.listRequirements(ctx, id)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *ProjectRepo) listRequirements(ctx context.Context, projectID uuid.UUID) ([]domain.ResourceRequirement, error) {
	rows, err := r.db.Query(ctx,
		`SELECT rr.project_id, rr.skill_category_id, COALESCE(sc.name, ''), rr.required_count
		 FROM resource_requirements rr
		 LEFT JOIN skill_categories sc ON sc.id = rr.skill_category_id
		 WHERE rr.project_id = $1
		 ORDER BY sc.name, rr.skill_category_id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("projectRepo.listRequirements: %w", err)
	}
	defer rows.Close()

	var reqs []domain.ResourceRequirement
	for rows.Next() {
		var req domain.ResourceRequirement
		if err := rows.Scan(&req.ProjectID, &req.SkillCategoryID, &req.SkillName, &req.RequiredCount); err != nil {
			return nil, fmt.Errorf("projectRepo.listRequirements: scan: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("projectRepo.listRequirements: rows: %w", err)
	}

	return reqs, nil
}

func (r *ProjectRepo) SaveStage(ctx context.Context, p *domain.Project, rec *domain.StageTransitionRecord) error {
	if err := checkRecord("projectRepo.SaveStage", rec, p.ID, string(p.Stage)); err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE projects SET stage = $1, stage_changed_at = $2, stage_change_reason = $3,
		        hold_attribution = $4, actual_start_date = $5, actual_end_date = $6, updated_at = $7
		 WHERE id = $8`,
		p.Stage, p.StageChangedAt, p.StageChangeReason,
		p.HoldAttribution, p.ActualStartDate, p.ActualEndDate, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("projectRepo.SaveStage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("projectRepo.SaveStage: %w", domain.ErrNotFound)
	}

	return insertRecord(ctx, r.db, rec, "projectRepo.SaveStage")
}

// SetRequirement upserts the requirement row. The skill category must already
// exist; an unknown one surfaces as ErrNotFound.
func (r *ProjectRepo) SetRequirement(ctx context.Context, req domain.ResourceRequirement, rec *domain.StageTransitionRecord) error {
	if rec == nil || rec.EntityID != req.ProjectID {
		return fmt.Errorf("projectRepo.SetRequirement: %w: record does not describe the change", domain.ErrValidation)
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO resource_requirements (project_id, skill_category_id, required_count)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (project_id, skill_category_id) DO UPDATE SET required_count = EXCLUDED.required_count`,
		req.ProjectID, req.SkillCategoryID, req.RequiredCount,
	)
	if err != nil {
		return mapPgError("projectRepo.SetRequirement", err)
	}

	return insertRecord(ctx, r.db, rec, "projectRepo.SetRequirement")
}
