package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/domain"
)

type ListHistoryInput struct {
	Entity string    `path:"entity" enum:"worker,project,requirement" doc:"Kind of entity"`
	ID     uuid.UUID `path:"id" doc:"Entity ID"`
}

type ListHistoryOutput struct {
	Body []RecordBody
}

func RegisterHistoryRoutes(api huma.API, history History) {
	huma.Register(api, huma.Operation{
		OperationID: "list-history",
		Method:      http.MethodGet,
		Path:        "/history/{entity}/{id}",
		Summary:     "List stage changes for an entity, oldest first",
		Tags:        []string{"History"},
	}, func(ctx context.Context, input *ListHistoryInput) (*ListHistoryOutput, error) {
		records, err := history.List(ctx, domain.EntityType(input.Entity), input.ID)
		if err != nil {
			return nil, toHumaError("list history", err)
		}
		return &ListHistoryOutput{Body: toRecordBodies(records)}, nil
	})
}
