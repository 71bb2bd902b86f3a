package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/Digigit24/kumsserpbackend-sub001/internal/approval"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
	ctxSiteID contextKey = "site_id"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func SiteIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSiteID).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the caller identity into the context.
func WithActor(ctx context.Context, actor approval.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, actor.UserID.String())
	ctx = context.WithValue(ctx, ctxRole, string(actor.Role))
	if actor.SiteID != nil {
		ctx = context.WithValue(ctx, ctxSiteID, actor.SiteID.String())
	}
	return ctx
}

// ActorFromContext rebuilds the approval actor seeded by Auth.
func ActorFromContext(ctx context.Context) (approval.Actor, bool) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil || userID == uuid.Nil {
		return approval.Actor{}, false
	}
	role, err := enums.ParseActorRole(RoleFromContext(ctx))
	if err != nil {
		return approval.Actor{}, false
	}
	actor := approval.Actor{UserID: userID, Role: role}
	if raw := SiteIDFromContext(ctx); raw != "" {
		siteID, err := uuid.Parse(raw)
		if err != nil {
			return approval.Actor{}, false
		}
		actor.SiteID = &siteID
	}
	return actor, true
}
