package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/crewhub/internal/api/v1"
	"github.com/gosuda/crewhub/internal/domain"
)

// ---------------------------------------------------------------------------
// GET /workers/{id}/availability
// ---------------------------------------------------------------------------

func TestWorkerAvailability(t *testing.T) {
	t.Parallel()

	t.Run("busy", func(t *testing.T) {
		t.Parallel()

		wid, exclude := uuid.New(), uuid.New()
		_, api := humatest.New(t)
		v1.RegisterWorkerRoutes(api, &mockAvailability{
			isAvailableFunc: func(_ context.Context, workerID uuid.UUID, start, end time.Time, ex uuid.UUID) (bool, []domain.Conflict, error) {
				assert.Equal(t, wid, workerID)
				assert.Equal(t, day("2025-03-10"), start)
				assert.Equal(t, day("2025-03-20"), end)
				assert.Equal(t, exclude, ex)
				return false, []domain.Conflict{projectConflict("Tower A")}, nil
			},
		}, &mockAssignments{})

		resp := api.GetCtx(context.Background(),
			"/workers/"+wid.String()+"/availability?start=2025-03-10&end=2025-03-20&exclude_project_id="+exclude.String())

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var body struct {
			Available bool              `json:"available"`
			Conflicts []v1.ConflictBody `json:"conflicts"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.False(t, body.Available)
		require.Len(t, body.Conflicts, 1)
		assert.Equal(t, "Tower A", body.Conflicts[0].Name)
		assert.Equal(t, "2025-03-01", body.Conflicts[0].Start)
		assert.Equal(t, 10, body.Conflicts[0].OverlapDays)
	})

	t.Run("bad_date", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterWorkerRoutes(api, &mockAvailability{}, &mockAssignments{})

		resp := api.GetCtx(context.Background(), "/workers/"+uuid.NewString()+"/availability?start=03/10/2025&end=2025-03-20")

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("inverted_range", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterWorkerRoutes(api, &mockAvailability{
			isAvailableFunc: func(context.Context, uuid.UUID, time.Time, time.Time, uuid.UUID) (bool, []domain.Conflict, error) {
				return false, nil, domain.Validationf("end before start")
			},
		}, &mockAssignments{})

		resp := api.GetCtx(context.Background(), "/workers/"+uuid.NewString()+"/availability?start=2025-03-20&end=2025-03-10")

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// GET /workers/{id}/assignments
// ---------------------------------------------------------------------------

func TestListWorkerAssignments(t *testing.T) {
	t.Parallel()

	wid := uuid.New()
	_, api := humatest.New(t)
	v1.RegisterWorkerRoutes(api, &mockAvailability{}, &mockAssignments{
		listByWorkerFunc: func(_ context.Context, workerID uuid.UUID) ([]*domain.Assignment, error) {
			return []*domain.Assignment{newAssignment(uuid.New(), workerID, domain.AssignmentStageCompleted)}, nil
		},
	})

	resp := api.GetCtx(context.Background(), "/workers/"+wid.String()+"/assignments")

	require.Equal(t, http.StatusOK, resp.Code)
	var body []v1.AssignmentBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, wid, body[0].WorkerID)
}
