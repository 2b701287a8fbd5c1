package app

import (
	"context"
	"strings"
)

// defaultActorID attributes changes made without an authenticated caller.
const defaultActorID = "taskopia-user"

// actorContextKey keys the acting user id in a context.
type actorContextKey struct{}

// WithActor attaches the acting user id used to attribute board changes.
func WithActor(ctx context.Context, userID string) context.Context {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorContextKey{}, userID)
}

// ActorFromContext returns the acting user id when present.
func ActorFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(actorContextKey{}).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

func actorID(ctx context.Context) string {
	if userID, ok := ActorFromContext(ctx); ok {
		return userID
	}
	return defaultActorID
}
