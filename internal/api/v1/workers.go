package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
)

type WorkerAvailabilityInput struct {
	ID               uuid.UUID `path:"id" doc:"Worker ID"`
	Start            string    `query:"start" required:"true" format:"date" doc:"First day of the range"`
	End              string    `query:"end" required:"true" format:"date" doc:"Last day of the range, inclusive"`
	ExcludeProjectID string    `query:"exclude_project_id" format:"uuid" doc:"Ignore commitments on this project"`
}

type WorkerAvailabilityOutput struct {
	Body struct {
		Available bool           `json:"available"`
		Conflicts []ConflictBody `json:"conflicts"`
	}
}

type ListWorkerAssignmentsInput struct {
	ID uuid.UUID `path:"id" doc:"Worker ID"`
}

func RegisterWorkerRoutes(api huma.API, availability Availability, assignments Assignments) {
	huma.Register(api, huma.Operation{
		OperationID: "worker-availability",
		Method:      http.MethodGet,
		Path:        "/workers/{id}/availability",
		Summary:     "Check a worker's calendar for a date range",
		Tags:        []string{"Workers"},
	}, func(ctx context.Context, input *WorkerAvailabilityInput) (*WorkerAvailabilityOutput, error) {
		start, err := time.Parse(time.DateOnly, input.Start)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("start must be YYYY-MM-DD")
		}
		end, err := time.Parse(time.DateOnly, input.End)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("end must be YYYY-MM-DD")
		}

		var exclude uuid.UUID
		if input.ExcludeProjectID != "" {
			exclude, err = uuid.Parse(input.ExcludeProjectID)
			if err != nil {
				return nil, huma.Error422UnprocessableEntity("exclude_project_id must be a UUID")
			}
		}

		ok, conflicts, err := availability.IsAvailable(ctx, input.ID, start, end, exclude)
		if err != nil {
			return nil, toHumaError("worker availability", err)
		}

		out := &WorkerAvailabilityOutput{}
		out.Body.Available = ok
		out.Body.Conflicts = toConflictBodies(conflicts)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-worker-assignments",
		Method:      http.MethodGet,
		Path:        "/workers/{id}/assignments",
		Summary:     "List a worker's assignments",
		Tags:        []string{"Workers"},
	}, func(ctx context.Context, input *ListWorkerAssignmentsInput) (*ListAssignmentsOutput, error) {
		as, err := assignments.ListByWorker(ctx, input.ID)
		if err != nil {
			return nil, toHumaError("list worker assignments", err)
		}
		return &ListAssignmentsOutput{Body: toAssignmentBodies(as)}, nil
	})
}
