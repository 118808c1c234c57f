package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/crewhub/internal/domain"
	"github.com/gosuda/crewhub/internal/messenger"
	"github.com/gosuda/crewhub/internal/notify"
)

// --- mocks ---

type mockMessenger struct {
	platform string
	sendErr  error

	mu   sync.Mutex
	sent []sentMessage
}

type sentMessage struct {
	channelID string
	msg       messenger.Message
}

func (m *mockMessenger) SendMessage(_ context.Context, channelID string, msg messenger.Message) (messenger.MessageID, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{channelID: channelID, msg: msg})
	return "ts", nil
}

func (m *mockMessenger) Platform() string { return m.platform }

type mockPublisher struct {
	err    error
	events []domain.Event
	ctxErr error
}

func (p *mockPublisher) PublishEvent(ctx context.Context, ev domain.Event) error {
	p.ctxErr = ctx.Err()
	p.events = append(p.events, ev)
	return p.err
}

func assignedEvent() domain.Event {
	workerID := uuid.New()
	return domain.Event{
		Type:       domain.EventWorkerAssigned,
		ProjectID:  uuid.New(),
		WorkerID:   &workerID,
		ActorID:    uuid.New(),
		OccurredAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

// --- Deliver tests ---

func TestDeliver(t *testing.T) {
	t.Parallel()

	t.Run("publishes and posts to matching routes", func(t *testing.T) {
		t.Parallel()

		slackMsg := &mockMessenger{platform: "slack"}
		pub := &mockPublisher{}
		n := notify.New(pub, notify.NewRegistry(slackMsg),
			notify.Route{Platform: "slack", ChannelID: "C-all"},
			notify.Route{Platform: "slack", ChannelID: "C-projects", Types: []domain.EventType{domain.EventProjectStageChanged}},
		)

		ev := assignedEvent()
		n.Deliver(t.Context(), ev)

		require.Len(t, pub.events, 1)
		assert.Equal(t, ev, pub.events[0])
		require.Len(t, slackMsg.sent, 1)
		assert.Equal(t, "C-all", slackMsg.sent[0].channelID)
		assert.Equal(t, "Worker assigned", slackMsg.sent[0].msg.Title)
	})

	t.Run("failures are swallowed", func(t *testing.T) {
		t.Parallel()

		slackMsg := &mockMessenger{platform: "slack", sendErr: errors.New("api down")}
		pub := &mockPublisher{err: errors.New("redis down")}
		n := notify.New(pub, notify.NewRegistry(slackMsg),
			notify.Route{Platform: "slack", ChannelID: "C1"},
			notify.Route{Platform: "discord", ChannelID: "D1"},
		)

		assert.NotPanics(t, func() { n.Deliver(t.Context(), assignedEvent()) })
		assert.Len(t, pub.events, 1)
	})

	t.Run("cancelled request context still delivers", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		pub := &mockPublisher{}
		n := notify.New(pub, notify.NewRegistry())
		n.Deliver(ctx, assignedEvent())

		require.Len(t, pub.events, 1)
		assert.NoError(t, pub.ctxErr)
	})

	t.Run("nil publisher only posts to chat", func(t *testing.T) {
		t.Parallel()

		slackMsg := &mockMessenger{platform: "slack"}
		n := notify.New(nil, notify.NewRegistry(slackMsg), notify.Route{Platform: "slack", ChannelID: "C1"})
		n.Deliver(t.Context(), assignedEvent())

		assert.Len(t, slackMsg.sent, 1)
	})
}

// --- NotifyVia tests ---

func TestNotifyVia(t *testing.T) {
	t.Parallel()

	t.Run("unknown platform returns ErrPlatformNotFound", func(t *testing.T) {
		t.Parallel()

		n := notify.New(nil, notify.NewRegistry())
		err := n.NotifyVia(t.Context(), "telegram", "T1", assignedEvent())

		require.ErrorIs(t, err, notify.ErrPlatformNotFound)
	})

	t.Run("send failure is wrapped", func(t *testing.T) {
		t.Parallel()

		slackMsg := &mockMessenger{platform: "slack", sendErr: errors.New("channel_not_found")}
		n := notify.New(nil, notify.NewRegistry(slackMsg))
		err := n.NotifyVia(t.Context(), "slack", "C1", assignedEvent())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "notify.Notifier.NotifyVia: send")
	})
}

// --- FormatEvent tests ---

func TestFormatEvent(t *testing.T) {
	t.Parallel()

	projectID := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("project stage change", func(t *testing.T) {
		t.Parallel()

		msg := notify.FormatEvent(domain.Event{
			Type: domain.EventProjectStageChanged, ProjectID: projectID,
			From: "ongoing", To: "on_hold", Reason: "permit lapsed", OccurredAt: at,
		})

		assert.Equal(t, "Project moved ongoing -> on_hold", msg.Title)
		assert.Equal(t, []messenger.Field{
			{Label: "Project", Value: projectID.String()},
			{Label: "Reason", Value: "permit lapsed"},
			{Label: "At", Value: "2026-03-02T09:00:00Z"},
		}, msg.Fields)
	})

	t.Run("removal carries worker and assignment", func(t *testing.T) {
		t.Parallel()

		workerID, assignmentID := uuid.New(), uuid.New()
		msg := notify.FormatEvent(domain.Event{
			Type: domain.EventWorkerRemoved, ProjectID: projectID,
			WorkerID: &workerID, AssignmentID: &assignmentID, OccurredAt: at,
		})

		assert.Equal(t, "Worker removed", msg.Title)
		require.Len(t, msg.Fields, 4)
		assert.Equal(t, workerID.String(), msg.Fields[1].Value)
		assert.Equal(t, assignmentID.String(), msg.Fields[2].Value)
	})
}
