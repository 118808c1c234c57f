package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/crewhub/internal/domain"
)

type AssignmentRepo struct {
	db querier
}

const assignmentColumns = `id, project_id, worker_id, skill_category_id, stage, matched_at, shared_at,
	deployed_at, completed_at, removed_at, removed_reason, created_by, updated_at`

// activeClause matches the partial unique index assignments_one_active.
const activeClause = `removed_at IS NULL AND completed_at IS NULL`

// Create relies on the partial unique index to reject a second active row
// for the same (project, worker).
func (r *AssignmentRepo) Create(ctx context.Context, a *domain.Assignment) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO assignments (`+assignmentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.ProjectID, a.WorkerID, a.SkillCategoryID, a.Stage, a.MatchedAt, a.SharedAt,
		a.DeployedAt, a.CompletedAt, a.RemovedAt, a.RemovedReason, a.CreatedBy, a.UpdatedAt,
	)
	if err != nil {
		return mapPgError("assignmentRepo.Create", err)
	}

	return nil
}

func (r *AssignmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("assignmentRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("assignmentRepo.GetByID: %w", err)
	}

	return a, nil
}

func (r *AssignmentRepo) Update(ctx context.Context, a *domain.Assignment) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE assignments SET skill_category_id = $1, stage = $2, shared_at = $3, deployed_at = $4,
		        completed_at = $5, removed_at = $6, removed_reason = $7, updated_at = $8
		 WHERE id = $9`,
		a.SkillCategoryID, a.Stage, a.SharedAt, a.DeployedAt,
		a.CompletedAt, a.RemovedAt, a.RemovedReason, a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return mapPgError("assignmentRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assignmentRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *AssignmentRepo) GetActive(ctx context.Context, projectID, workerID uuid.UUID) (*domain.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE project_id = $1 AND worker_id = $2 AND `+activeClause,
		projectID, workerID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("assignmentRepo.GetActive: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("assignmentRepo.GetActive: %w", err)
	}

	return a, nil
}

func (r *AssignmentRepo) ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Assignment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE project_id = $1 AND `+activeClause+`
		 ORDER BY matched_at, id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("assignmentRepo.ListActiveByProject: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows, "assignmentRepo.ListActiveByProject")
}

func (r *AssignmentRepo) ListByWorker(ctx context.Context, workerID uuid.UUID) ([]*domain.Assignment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE worker_id = $1
		 ORDER BY matched_at, id
		 LIMIT 1000`,
		workerID,
	)
	if err != nil {
		return nil, fmt.Errorf("assignmentRepo.ListByWorker: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows, "assignmentRepo.ListByWorker")
}

func (r *AssignmentRepo) CountActiveBySkill(ctx context.Context, projectID, skillID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM assignments
		 WHERE project_id = $1 AND skill_category_id = $2 AND `+activeClause,
		projectID, skillID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("assignmentRepo.CountActiveBySkill: %w", err)
	}

	return n, nil
}

func (r *AssignmentRepo) CountCompleted(ctx context.Context, workerID, excludeProjectID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM assignments
		 WHERE worker_id = $1 AND project_id <> $2 AND stage = $3`,
		workerID, excludeProjectID, domain.AssignmentStageCompleted,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("assignmentRepo.CountCompleted: %w", err)
	}

	return n, nil
}

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var a domain.Assignment
	if err := row.Scan(
		&a.ID, &a.ProjectID, &a.WorkerID, &a.SkillCategoryID, &a.Stage, &a.MatchedAt, &a.SharedAt,
		&a.DeployedAt, &a.CompletedAt, &a.RemovedAt, &a.RemovedReason, &a.CreatedBy, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAssignments(rows pgx.Rows, caller string) ([]*domain.Assignment, error) {
	var out []*domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return out, nil
}
