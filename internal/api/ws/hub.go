package ws

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	redisstore "github.com/gosuda/crewhub/internal/store/redis"
)

// Subscriber delivers raw payloads published on a channel until cleanup is
// called or ctx ends. *redisstore.PubSub satisfies this interface.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Hub streams allocation events to WebSocket clients.
type Hub struct {
	pubsub Subscriber
}

// NewHub creates a new WebSocket hub.
func NewHub(pubsub Subscriber) *Hub {
	return &Hub{pubsub: pubsub}
}

// ServeFeed streams every allocation event.
func (h *Hub) ServeFeed(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, redisstore.FeedChannel)
}

// ServeProject streams events for one project: stage changes plus the
// assignments and removals on it.
func (h *Hub) ServeProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	h.stream(w, r, redisstore.ProjectChannel(projectID))
}

// ServeWorker streams events that name one worker.
func (h *Hub) ServeWorker(w http.ResponseWriter, r *http.Request) {
	workerID, err := uuid.Parse(chi.URLParam(r, "workerID"))
	if err != nil {
		http.Error(w, "invalid worker id", http.StatusBadRequest)
		return
	}
	h.stream(w, r, redisstore.WorkerChannel(workerID))
}

func (h *Hub) stream(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Clients only listen; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
