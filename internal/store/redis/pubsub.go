package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gosuda/crewhub/internal/domain"
)

type PubSub struct {
	client *redis.Client
	prefix string
}

// New connects to redis. Every channel name is prefixed with prefix so several
// deployments can share one server.
func New(ctx context.Context, addr, password string, db int, prefix string) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &PubSub{client: client, prefix: prefix}, nil
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

func (ps *PubSub) Ping(ctx context.Context) error {
	return ps.client.Ping(ctx).Err()
}

func (ps *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ps.client.Publish(ctx, ps.prefix+channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Publish: %w", err)
	}
	return nil
}

// PublishEvent sends ev as JSON to every channel returned by EventChannels.
func (ps *PubSub) PublishEvent(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis.PubSub.PublishEvent: marshal: %w", err)
	}
	for _, ch := range EventChannels(ev) {
		if err := ps.Publish(ctx, ch, payload); err != nil {
			return fmt.Errorf("redis.PubSub.PublishEvent %s: %w", ch, err)
		}
	}
	return nil
}

func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, ps.prefix+channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}

// ProjectChannel carries every event about one project.
func ProjectChannel(projectID uuid.UUID) string {
	return "project:" + projectID.String()
}

// WorkerChannel carries every event that names one worker.
func WorkerChannel(workerID uuid.UUID) string {
	return "worker:" + workerID.String()
}

// FeedChannel carries all allocation events.
const FeedChannel = "allocation:feed"

// EventChannels lists the channels an event is published to.
func EventChannels(ev domain.Event) []string {
	channels := []string{FeedChannel, ProjectChannel(ev.ProjectID)}
	if ev.WorkerID != nil {
		channels = append(channels, WorkerChannel(*ev.WorkerID))
	}
	return channels
}
