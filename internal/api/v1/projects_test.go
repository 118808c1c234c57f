package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/crewhub/internal/allocation"
	v1 "github.com/gosuda/crewhub/internal/api/v1"
	"github.com/gosuda/crewhub/internal/domain"
)

// ---------------------------------------------------------------------------
// POST /projects/{id}/transitions
// ---------------------------------------------------------------------------

func TestTransitionProject(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		actor := uuid.New()
		pid := uuid.New()
		start := day("2025-04-01")
		var got allocation.TransitionRequest

		_, api := humatest.New(t)
		v1.RegisterProjectRoutes(api, &mockLifecycle{
			transitionFunc: func(_ context.Context, req allocation.TransitionRequest) (*domain.Project, error) {
				got = req
				return &domain.Project{ID: pid, Name: "Tower A", Stage: req.To, StartDate: &start}, nil
			},
		}, &mockRequirements{}, &mockAssignments{})

		resp := api.PostCtx(actorCtx(actor), "/projects/"+pid.String()+"/transitions", map[string]any{
			"to":     "shared",
			"reason": "plan signed off",
		})

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, pid, got.ProjectID)
		assert.Equal(t, domain.ProjectStageShared, got.To)
		assert.Equal(t, actor, got.ActorID)
		assert.Nil(t, got.Attribution)

		var body v1.ProjectBody
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "shared", body.Stage)
		require.NotNil(t, body.StartDate)
		assert.Equal(t, "2025-04-01", *body.StartDate)
		assert.Contains(t, body.AllowedNext, "ongoing")
	})

	t.Run("hold_with_attribution_and_evidence", func(t *testing.T) {
		t.Parallel()

		var got allocation.TransitionRequest
		_, api := humatest.New(t)
		v1.RegisterProjectRoutes(api, &mockLifecycle{
			transitionFunc: func(_ context.Context, req allocation.TransitionRequest) (*domain.Project, error) {
				got = req
				return &domain.Project{ID: req.ProjectID, Stage: req.To, HoldAttribution: req.Attribution}, nil
			},
		}, &mockRequirements{}, &mockAssignments{})

		resp := api.PostCtx(actorCtx(uuid.New()), "/projects/"+uuid.NewString()+"/transitions", map[string]any{
			"to":          "on_hold",
			"attribution": "employer",
			"evidence":    []map[string]any{{"name": "notice.pdf", "url": "https://files.example.com/notice.pdf"}},
		})

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		require.NotNil(t, got.Attribution)
		assert.Equal(t, domain.HoldByEmployer, *got.Attribution)
		require.Len(t, got.Evidence, 1)
		assert.Equal(t, "notice.pdf", got.Evidence[0].Name)
	})

	t.Run("unknown_stage_rejected", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterProjectRoutes(api, &mockLifecycle{}, &mockRequirements{}, &mockAssignments{})

		resp := api.PostCtx(actorCtx(uuid.New()), "/projects/"+uuid.NewString()+"/transitions", map[string]any{
			"to": "archived",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("missing_actor", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterProjectRoutes(api, &mockLifecycle{}, &mockRequirements{}, &mockAssignments{})

		resp := api.PostCtx(context.Background(), "/projects/"+uuid.NewString()+"/transitions", map[string]any{
			"to": "approved",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	errorCases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid_edge", fmt.Errorf("allocation: %w", domain.ErrInvalidTransition), http.StatusConflict},
		{"not_found", domain.ErrNotFound, http.StatusNotFound},
		{"validation", domain.Validationf("attribution is required"), http.StatusUnprocessableEntity},
		{"store_error", errors.New("db: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			v1.RegisterProjectRoutes(api, &mockLifecycle{
				transitionFunc: func(context.Context, allocation.TransitionRequest) (*domain.Project, error) {
					return nil, tc.err
				},
			}, &mockRequirements{}, &mockAssignments{})

			resp := api.PostCtx(actorCtx(uuid.New()), "/projects/"+uuid.NewString()+"/transitions", map[string]any{
				"to": "ongoing",
			})

			assert.Equal(t, tc.want, resp.Code)
			if tc.want == http.StatusInternalServerError {
				assert.NotContains(t, resp.Body.String(), "connection refused")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// PUT /projects/{id}/requirements/{skillID}
// ---------------------------------------------------------------------------

func TestSetRequirement(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		pid, sid, actor := uuid.New(), uuid.New(), uuid.New()
		var got allocation.SetRequest

		_, api := humatest.New(t)
		v1.RegisterProjectRoutes(api, &mockLifecycle{}, &mockRequirements{
			setFunc: func(_ context.Context, req allocation.SetRequest) (*domain.ResourceRequirement, error) {
				got = req
				return &domain.ResourceRequirement{SkillCategoryID: req.SkillCategoryID, SkillName: req.SkillName, RequiredCount: req.RequiredCount}, nil
			},
		}, &mockAssignments{})

		resp := api.PutCtx(actorCtx(actor), "/projects/"+pid.String()+"/requirements/"+sid.String(), map[string]any{
			"skill_name":     "Welder",
			"required_count": 4,
		})

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, pid, got.ProjectID)
		assert.Equal(t, sid, got.SkillCategoryID)
		assert.Equal(t, actor, got.ActorID)

		var body v1.RequirementBody
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, 4, body.RequiredCount)
		assert.Equal(t, "Welder", body.SkillName)
	})

	t.Run("negative_count_rejected_by_schema", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterProjectRoutes(api, &mockLifecycle{}, &mockRequirements{}, &mockAssignments{})

		resp := api.PutCtx(actorCtx(uuid.New()), "/projects/"+uuid.NewString()+"/requirements/"+uuid.NewString(), map[string]any{
			"required_count": -1,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("below_active_count", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterProjectRoutes(api, &mockLifecycle{}, &mockRequirements{
			setFunc: func(context.Context, allocation.SetRequest) (*domain.ResourceRequirement, error) {
				return nil, domain.Validationf("required count 1 is below the 3 workers already assigned")
			},
		}, &mockAssignments{})

		resp := api.PutCtx(actorCtx(uuid.New()), "/projects/"+uuid.NewString()+"/requirements/"+uuid.NewString(), map[string]any{
			"required_count": 1,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Contains(t, resp.Body.String(), "already assigned")
	})
}

// ---------------------------------------------------------------------------
// GET /projects/{id}/assignments
// ---------------------------------------------------------------------------

func TestListProjectAssignments(t *testing.T) {
	t.Parallel()

	pid := uuid.New()
	a1 := newAssignment(pid, uuid.New(), domain.AssignmentStageAssigned)
	a2 := newAssignment(pid, uuid.New(), domain.AssignmentStageMatched)

	_, api := humatest.New(t)
	v1.RegisterProjectRoutes(api, &mockLifecycle{}, &mockRequirements{}, &mockAssignments{
		listActiveFunc: func(_ context.Context, projectID uuid.UUID) ([]*domain.Assignment, error) {
			assert.Equal(t, pid, projectID)
			return []*domain.Assignment{a1, a2}, nil
		},
	})

	resp := api.GetCtx(context.Background(), "/projects/"+pid.String()+"/assignments")

	require.Equal(t, http.StatusOK, resp.Code)
	var body []v1.AssignmentBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, a1.ID, body[0].ID)
	assert.Equal(t, "matched", body[1].Stage)
}
