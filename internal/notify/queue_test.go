package notify_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/crewhub/internal/allocation"
	"github.com/gosuda/crewhub/internal/domain"
	"github.com/gosuda/crewhub/internal/messenger"
	"github.com/gosuda/crewhub/internal/notify"
	"github.com/gosuda/crewhub/internal/store/memory"
)

// stalledMessenger holds every send until release is closed.
type stalledMessenger struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu   sync.Mutex
	sent []messenger.Message
}

func newStalledMessenger() *stalledMessenger {
	return &stalledMessenger{started: make(chan struct{}), release: make(chan struct{})}
}

func (m *stalledMessenger) SendMessage(ctx context.Context, _ string, msg messenger.Message) (messenger.MessageID, error) {
	m.once.Do(func() { close(m.started) })
	select {
	case <-m.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return "ts", nil
}

func (m *stalledMessenger) Platform() string { return "slack" }

func (m *stalledMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestNotify_TransitionDoesNotWaitForChat(t *testing.T) {
	t.Parallel()

	slackMsg := newStalledMessenger()
	n := notify.New(nil, notify.NewRegistry(slackMsg), notify.Route{Platform: "slack", ChannelID: "C1"})

	store := memory.New()
	project := &domain.Project{
		ID:            uuid.New(),
		Name:          "Riverside depot",
		LaborCategory: domain.WorkerTypeBlueCollar,
		Stage:         domain.ProjectStagePlanning,
	}
	store.PutProject(project)
	engine := allocation.New(store, allocation.WithNotifier(n))

	done := make(chan error, 1)
	go func() {
		_, err := engine.Lifecycle.Transition(t.Context(), allocation.TransitionRequest{
			ProjectID: project.ID,
			To:        domain.ProjectStageApproved,
			Reason:    "budget signed",
			ActorID:   uuid.New(),
		})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Transition blocked on chat delivery")
	}

	select {
	case <-slackMsg.started:
	case <-time.After(time.Second):
		t.Fatal("event never reached the messenger")
	}
	assert.Zero(t, slackMsg.count())

	close(slackMsg.release)
	require.NoError(t, n.Close(t.Context()))
	assert.Equal(t, 1, slackMsg.count())
}

func TestNotify_QueueFullDropsEvent(t *testing.T) {
	t.Parallel()

	slackMsg := newStalledMessenger()
	n := notify.NewWithQueue(1, nil, notify.NewRegistry(slackMsg), notify.Route{Platform: "slack", ChannelID: "C1"})

	n.Notify(t.Context(), assignedEvent())
	<-slackMsg.started

	n.Notify(t.Context(), assignedEvent()) // queued
	n.Notify(t.Context(), assignedEvent()) // dropped

	close(slackMsg.release)
	require.NoError(t, n.Close(t.Context()))
	assert.Equal(t, 2, slackMsg.count())
}

func TestNotify_CloseDrainsQueue(t *testing.T) {
	t.Parallel()

	pub := &lockedPublisher{}
	n := notify.New(pub, notify.NewRegistry())
	for range 5 {
		n.Notify(t.Context(), assignedEvent())
	}
	require.NoError(t, n.Close(t.Context()))
	assert.Equal(t, 5, pub.count())

	n.Notify(t.Context(), assignedEvent())
	assert.Equal(t, 5, pub.count(), "events after Close are dropped")
}

func TestNotify_CloseHonorsDeadline(t *testing.T) {
	t.Parallel()

	slackMsg := newStalledMessenger()
	defer close(slackMsg.release)
	n := notify.New(nil, notify.NewRegistry(slackMsg), notify.Route{Platform: "slack", ChannelID: "C1"})
	n.Notify(t.Context(), assignedEvent())
	<-slackMsg.started

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	err := n.Close(ctx)

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type lockedPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *lockedPublisher) PublishEvent(_ context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *lockedPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
