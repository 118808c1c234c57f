package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/domain"
)

type AssignWorkerInput struct {
	ID   uuid.UUID `path:"id" doc:"Project ID"`
	Body struct {
		WorkerID        uuid.UUID  `json:"worker_id" doc:"Worker ID"`
		SkillCategoryID *uuid.UUID `json:"skill_category_id,omitempty" doc:"Requirement to count the worker against; inferred when omitted"`
	}
}

type AssignmentOutput struct {
	Body AssignmentBody
}

type BulkAssignInput struct {
	ID   uuid.UUID `path:"id" doc:"Project ID"`
	Body struct {
		WorkerIDs []uuid.UUID `json:"worker_ids" minItems:"1" maxItems:"200" doc:"Workers to assign"`
	}
}

type BulkAssignOutput struct {
	Body struct {
		Assigned []AssignmentBody  `json:"assigned"`
		Failures []BulkFailureBody `json:"failures"`
	}
}

type ValidateAssignmentInput struct {
	ID       uuid.UUID `path:"id" doc:"Project ID"`
	WorkerID uuid.UUID `query:"worker_id" required:"true" doc:"Worker ID"`
}

type ValidateAssignmentOutput struct {
	Body struct {
		Valid     bool           `json:"valid"`
		Status    int            `json:"status,omitempty" doc:"Status an assignment attempt would fail with"`
		Error     string         `json:"error,omitempty"`
		Conflicts []ConflictBody `json:"conflicts"`
	}
}

type RemoveAssignmentInput struct {
	ID   uuid.UUID `path:"id" doc:"Assignment ID"`
	Body struct {
		Reason string `json:"reason" minLength:"1" maxLength:"2000" doc:"Why the worker is leaving the project"`
	}
}

type RemoveAssignmentOutput struct{}

type BulkRemoveInput struct {
	Body struct {
		AssignmentIDs []uuid.UUID `json:"assignment_ids" minItems:"1" maxItems:"200" doc:"Assignments to remove"`
		Reason        string      `json:"reason" minLength:"1" maxLength:"2000" doc:"Why the workers are leaving"`
	}
}

type BulkRemoveOutput struct {
	Body struct {
		Removed  []uuid.UUID       `json:"removed"`
		Failures []BulkFailureBody `json:"failures"`
	}
}

type PromoteAssignmentInput struct {
	ID uuid.UUID `path:"id" doc:"Assignment ID"`
}

func RegisterAssignmentRoutes(api huma.API, assignments Assignments, validator Validator) {
	huma.Register(api, huma.Operation{
		OperationID:   "assign-worker",
		Method:        http.MethodPost,
		Path:          "/projects/{id}/assignments",
		Summary:       "Assign a worker to a project",
		Tags:          []string{"Assignments"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *AssignWorkerInput) (*AssignmentOutput, error) {
		actor, err := actorID(ctx)
		if err != nil {
			return nil, err
		}

		var a *domain.Assignment
		if input.Body.SkillCategoryID != nil {
			a, err = assignments.AssignForSkill(ctx, input.ID, input.Body.WorkerID, *input.Body.SkillCategoryID, actor)
		} else {
			a, err = assignments.Assign(ctx, input.ID, input.Body.WorkerID, actor)
		}
		if err != nil {
			return nil, toHumaError("assign worker", err)
		}

		return &AssignmentOutput{Body: toAssignmentBody(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "bulk-assign-workers",
		Method:      http.MethodPost,
		Path:        "/projects/{id}/assignments/bulk",
		Summary:     "Assign several workers to a project",
		Description: "Each worker is assigned in its own transaction. Failures are reported per worker and do not roll back the others.",
		Tags:        []string{"Assignments"},
	}, func(ctx context.Context, input *BulkAssignInput) (*BulkAssignOutput, error) {
		actor, err := actorID(ctx)
		if err != nil {
			return nil, err
		}

		res := assignments.BulkAssign(ctx, input.ID, input.Body.WorkerIDs, actor)

		out := &BulkAssignOutput{}
		out.Body.Assigned = toAssignmentBodies(res.Successes)
		out.Body.Failures = toBulkFailures(res.Failures)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "validate-assignment",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/assignments/validate",
		Summary:     "Check whether a worker could be assigned",
		Tags:        []string{"Assignments"},
	}, func(ctx context.Context, input *ValidateAssignmentInput) (*ValidateAssignmentOutput, error) {
		res, err := validator.Validate(ctx, input.WorkerID, input.ID)
		if err != nil {
			return nil, toHumaError("validate assignment", err)
		}

		out := &ValidateAssignmentOutput{}
		out.Body.Valid = res.Valid
		out.Body.Conflicts = toConflictBodies(res.Conflicts)
		if res.Err != nil {
			out.Body.Status = statusFor(res.Err)
			out.Body.Error = errorMessage(res.Err)
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "remove-assignment",
		Method:        http.MethodPost,
		Path:          "/assignments/{id}/remove",
		Summary:       "Remove a worker from a project",
		Tags:          []string{"Assignments"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *RemoveAssignmentInput) (*RemoveAssignmentOutput, error) {
		actor, err := actorID(ctx)
		if err != nil {
			return nil, err
		}

		if err := assignments.Remove(ctx, input.ID, input.Body.Reason, actor); err != nil {
			return nil, toHumaError("remove assignment", err)
		}
		return &RemoveAssignmentOutput{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "bulk-remove-assignments",
		Method:      http.MethodPost,
		Path:        "/assignments/bulk-remove",
		Summary:     "Remove several assignments",
		Tags:        []string{"Assignments"},
	}, func(ctx context.Context, input *BulkRemoveInput) (*BulkRemoveOutput, error) {
		actor, err := actorID(ctx)
		if err != nil {
			return nil, err
		}

		res := assignments.BulkRemove(ctx, input.Body.AssignmentIDs, input.Body.Reason, actor)

		out := &BulkRemoveOutput{}
		out.Body.Removed = res.Successes
		if out.Body.Removed == nil {
			out.Body.Removed = []uuid.UUID{}
		}
		out.Body.Failures = toBulkFailures(res.Failures)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "promote-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/promote",
		Summary:     "Advance an assignment to the stage its project allows",
		Tags:        []string{"Assignments"},
	}, func(ctx context.Context, input *PromoteAssignmentInput) (*AssignmentOutput, error) {
		actor, err := actorID(ctx)
		if err != nil {
			return nil, err
		}

		a, err := assignments.Promote(ctx, input.ID, actor)
		if err != nil {
			return nil, toHumaError("promote assignment", err)
		}
		return &AssignmentOutput{Body: toAssignmentBody(a)}, nil
	})
}
