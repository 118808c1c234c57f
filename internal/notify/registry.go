package notify

import (
	"github.com/gosuda/crewhub/internal/messenger"
)

// Registry is a simple map-based MessengerRegistry.
type Registry struct {
	messengers map[string]messenger.Messenger
}

func NewRegistry(ms ...messenger.Messenger) *Registry {
	r := &Registry{
		messengers: make(map[string]messenger.Messenger),
	}
	for _, m := range ms {
		r.Register(m.Platform(), m)
	}
	return r
}

// Register adds a messenger for the given platform name.
func (r *Registry) Register(platform string, m messenger.Messenger) {
	r.messengers[platform] = m
}

// Get returns the messenger for the given platform, or false if not registered.
func (r *Registry) Get(platform string) (messenger.Messenger, bool) {
	m, ok := r.messengers[platform]
	return m, ok
}
