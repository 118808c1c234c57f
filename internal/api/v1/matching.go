package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
)

type SkillInput struct {
	ID      uuid.UUID `path:"id" doc:"Project ID"`
	SkillID uuid.UUID `path:"skillID" doc:"Skill category ID"`
}

type PreviewOutput struct {
	Body struct {
		ProjectID       uuid.UUID       `json:"project_id"`
		SkillCategoryID uuid.UUID       `json:"skill_category_id"`
		Required        int             `json:"required"`
		Active          int             `json:"active"`
		Remaining       int             `json:"remaining"`
		Candidates      []CandidateBody `json:"candidates"`
	}
}

type AutoMatchOutput struct {
	Body struct {
		Matched     []AssignmentBody  `json:"matched"`
		StillNeeded int               `json:"still_needed"`
		Failures    []BulkFailureBody `json:"failures"`
	}
}

func RegisterMatchRoutes(api huma.API, matcher Matcher) {
	huma.Register(api, huma.Operation{
		OperationID: "preview-candidates",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/skills/{skillID}/candidates",
		Summary:     "List workers who could fill a skill requirement",
		Tags:        []string{"Matching"},
	}, func(ctx context.Context, input *SkillInput) (*PreviewOutput, error) {
		p, err := matcher.Preview(ctx, input.ID, input.SkillID)
		if err != nil {
			return nil, toHumaError("preview candidates", err)
		}

		out := &PreviewOutput{}
		out.Body.ProjectID = p.ProjectID
		out.Body.SkillCategoryID = p.SkillCategoryID
		out.Body.Required = p.Required
		out.Body.Active = p.Active
		out.Body.Remaining = p.Remaining
		out.Body.Candidates = toCandidateBodies(p.Candidates)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "automatch",
		Method:      http.MethodPost,
		Path:        "/projects/{id}/skills/{skillID}/automatch",
		Summary:     "Assign available candidates until the requirement is met",
		Tags:        []string{"Matching"},
	}, func(ctx context.Context, input *SkillInput) (*AutoMatchOutput, error) {
		actor, err := actorID(ctx)
		if err != nil {
			return nil, err
		}

		res, err := matcher.AutoMatch(ctx, input.ID, input.SkillID, actor)
		if err != nil {
			return nil, toHumaError("automatch", err)
		}

		out := &AutoMatchOutput{}
		out.Body.Matched = toAssignmentBodies(res.Matched)
		out.Body.StillNeeded = res.StillNeeded
		out.Body.Failures = toBulkFailures(res.Errors)
		return out, nil
	})
}
