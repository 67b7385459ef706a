package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/arjundesai/medikart-backend/pkg/enums"
)

type contextKey string

const (
	ctxActorID   contextKey = "actor_id"
	ctxActorRole contextKey = "actor_role"
)

// ActorIDFromContext returns the authenticated actor's identifier.
func ActorIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	if v, ok := ctx.Value(ctxActorID).(uuid.UUID); ok {
		return v, true
	}
	return uuid.Nil, false
}

// ActorRoleFromContext returns which side of the negotiation the caller is on.
func ActorRoleFromContext(ctx context.Context) (enums.ActorRole, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(ctxActorRole).(enums.ActorRole); ok {
		return v, true
	}
	return "", false
}

// WithActor injects the actor identity into the context for downstream handlers.
func WithActor(ctx context.Context, role enums.ActorRole, actorID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActorRole, role)
	return context.WithValue(ctx, ctxActorID, actorID)
}
