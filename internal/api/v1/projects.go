package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/allocation"
	"github.com/gosuda/crewhub/internal/domain"
)

type EvidenceInput struct {
	Name string `json:"name" minLength:"1" maxLength:"255" doc:"Document name"`
	URL  string `json:"url" format:"uri" doc:"Where the document is stored"`
}

type TransitionProjectInput struct {
	ID   uuid.UUID `path:"id" doc:"Project ID"`
	Body struct {
		To          string          `json:"to" enum:"planning,approved,planning_resources,shared,ongoing,on_hold,completed,short_closed,terminated,cancelled" doc:"Target stage"`
		Attribution string          `json:"attribution,omitempty" enum:"employer,operator,force_majeure" doc:"Who caused the hold; required for on_hold"`
		Reason      string          `json:"reason,omitempty" maxLength:"2000" doc:"Why the project is moving"`
		Evidence    []EvidenceInput `json:"evidence,omitempty" maxItems:"20" doc:"Supporting documents"`
	}
}

type TransitionProjectOutput struct {
	Body ProjectBody
}

type SetRequirementInput struct {
	ID      uuid.UUID `path:"id" doc:"Project ID"`
	SkillID uuid.UUID `path:"skillID" doc:"Skill category ID"`
	Body    struct {
		SkillName     string `json:"skill_name,omitempty" maxLength:"255" doc:"Skill display name"`
		RequiredCount int    `json:"required_count" minimum:"0" doc:"Workers needed for this skill"`
		Reason        string `json:"reason,omitempty" maxLength:"2000" doc:"Why the headcount changed"`
	}
}

type SetRequirementOutput struct {
	Body RequirementBody
}

type ListProjectAssignmentsInput struct {
	ID uuid.UUID `path:"id" doc:"Project ID"`
}

type ListAssignmentsOutput struct {
	Body []AssignmentBody
}

func RegisterProjectRoutes(api huma.API, lifecycle Lifecycle, requirements Requirements, assignments Assignments) {
	huma.Register(api, huma.Operation{
		OperationID: "transition-project",
		Method:      http.MethodPost,
		Path:        "/projects/{id}/transitions",
		Summary:     "Move a project to another stage",
		Description: "Validates the edge against the project stage graph and moves assigned workers in the same transaction.",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *TransitionProjectInput) (*TransitionProjectOutput, error) {
		actor, err := actorID(ctx)
		if err != nil {
			return nil, err
		}

		req := allocation.TransitionRequest{
			ProjectID: input.ID,
			To:        domain.ProjectStage(input.Body.To),
			Reason:    input.Body.Reason,
			ActorID:   actor,
		}
		if input.Body.Attribution != "" {
			a := domain.HoldAttribution(input.Body.Attribution)
			req.Attribution = &a
		}
		for _, e := range input.Body.Evidence {
			req.Evidence = append(req.Evidence, domain.EvidenceDocument{Name: e.Name, URL: e.URL})
		}

		p, err := lifecycle.Transition(ctx, req)
		if err != nil {
			return nil, toHumaError("transition project", err)
		}

		return &TransitionProjectOutput{Body: toProjectBody(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-requirement",
		Method:      http.MethodPut,
		Path:        "/projects/{id}/requirements/{skillID}",
		Summary:     "Set the headcount for one skill",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *SetRequirementInput) (*SetRequirementOutput, error) {
		actor, err := actorID(ctx)
		if err != nil {
			return nil, err
		}

		req, err := requirements.Set(ctx, allocation.SetRequest{
			ProjectID:       input.ID,
			SkillCategoryID: input.SkillID,
			SkillName:       input.Body.SkillName,
			RequiredCount:   input.Body.RequiredCount,
			Reason:          input.Body.Reason,
			ActorID:         actor,
		})
		if err != nil {
			return nil, toHumaError("set requirement", err)
		}

		return &SetRequirementOutput{Body: toRequirementBody(*req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-project-assignments",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/assignments",
		Summary:     "List active assignments on a project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *ListProjectAssignmentsInput) (*ListAssignmentsOutput, error) {
		as, err := assignments.ListActive(ctx, input.ID)
		if err != nil {
			return nil, toHumaError("list project assignments", err)
		}
		return &ListAssignmentsOutput{Body: toAssignmentBodies(as)}, nil
	})
}
