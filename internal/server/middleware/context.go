package middleware

import (
	"context"

	"github.com/gosuda/crewhub/internal/domain"
)

type contextKey string

const ContextKeyActor contextKey = "actor"

// WithActor stores the authenticated actor in ctx.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	v, ok := ctx.Value(ContextKeyActor).(domain.Actor)
	return v, ok
}

func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	a, ok := ActorFromContext(ctx)
	if !ok {
		return "", false
	}
	return a.Role, true
}
