package redis_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gosuda/crewhub/internal/domain"
	redisstore "github.com/gosuda/crewhub/internal/store/redis"
)

func TestProjectChannel(t *testing.T) {
	t.Parallel()

	projectID := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()

		got := redisstore.ProjectChannel(projectID)
		assert.Equal(t, "project:11111111-2222-3333-4444-555555555555", got)
	})

	t.Run("nil UUID", func(t *testing.T) {
		t.Parallel()

		got := redisstore.ProjectChannel(uuid.Nil)
		assert.Equal(t, "project:00000000-0000-0000-0000-000000000000", got)
	})

	t.Run("different inputs produce different outputs", func(t *testing.T) {
		t.Parallel()

		other := uuid.MustParse("99999999-8888-7777-6666-555544443333")
		assert.NotEqual(t, redisstore.ProjectChannel(projectID), redisstore.ProjectChannel(other))
	})
}

func TestWorkerChannel(t *testing.T) {
	t.Parallel()

	workerID := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

	got := redisstore.WorkerChannel(workerID)
	assert.Equal(t, "worker:aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", got)
	assert.True(t, strings.HasPrefix(got, "worker:"), "expected prefix 'worker:', got %q", got)
}

func TestChannelFunctions_NoCollisionAcrossTypes(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

	project := redisstore.ProjectChannel(id)
	worker := redisstore.WorkerChannel(id)

	assert.NotEqual(t, project, worker, "project and worker channels must not collide")
	assert.NotEqual(t, project, redisstore.FeedChannel)
	assert.NotEqual(t, worker, redisstore.FeedChannel)
}

func TestEventChannels(t *testing.T) {
	t.Parallel()

	projectID := uuid.New()
	workerID := uuid.New()

	tests := []struct {
		name string
		ev   domain.Event
		want []string
	}{
		{
			name: "project event",
			ev:   domain.Event{Type: domain.EventProjectStageChanged, ProjectID: projectID},
			want: []string{redisstore.FeedChannel, redisstore.ProjectChannel(projectID)},
		},
		{
			name: "worker event",
			ev:   domain.Event{Type: domain.EventWorkerAssigned, ProjectID: projectID, WorkerID: &workerID},
			want: []string{redisstore.FeedChannel, redisstore.ProjectChannel(projectID), redisstore.WorkerChannel(workerID)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, redisstore.EventChannels(tt.ev))
		})
	}
}
