package approval

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	pkgerrors "github.com/Digigit24/kumsserpbackend-sub001/pkg/errors"
)

// Actor is the caller identity the adapter hands to the core.
type Actor struct {
	UserID uuid.UUID
	Role   enums.ActorRole
	SiteID *uuid.UUID
}

// Entity is the subject of a guarded action.
type Entity struct {
	Kind    string
	ID      uuid.UUID
	SiteID  *uuid.UUID
	StoreID *uuid.UUID
}

// Verdict is a gate's answer. Reason is surfaced to the caller on denial.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Gate decides whether an actor may perform an action on an entity.
type Gate interface {
	Authorize(ctx context.Context, actor Actor, action enums.ApprovalAction, entity Entity) (Verdict, error)
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context, actor Actor, action enums.ApprovalAction, entity Entity) (Verdict, error)

func (f GateFunc) Authorize(ctx context.Context, actor Actor, action enums.ApprovalAction, entity Entity) (Verdict, error) {
	return f(ctx, actor, action, entity)
}

// Allow and Deny build verdicts.
func Allow() Verdict { return Verdict{Allowed: true} }

func Deny(reason string) Verdict { return Verdict{Reason: reason} }

// Check consults the gate and converts a refusal into a forbidden error.
func Check(ctx context.Context, gate Gate, actor Actor, action enums.ApprovalAction, entity Entity) error {
	if gate == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "approval gate not configured")
	}
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	verdict, err := gate.Authorize(ctx, actor, action, entity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("authorize %s", action))
	}
	if !verdict.Allowed {
		return pkgerrors.Denied(pkgerrors.DeniedDetails{Action: string(action), Reason: verdict.Reason})
	}
	return nil
}

// AllowAll permits every action. Intended for tests and trusted batch tooling.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, Actor, enums.ApprovalAction, Entity) (Verdict, error) {
	return Allow(), nil
}

// DenyAll refuses every action with a fixed reason.
type DenyAll struct {
	Reason string
}

func (d DenyAll) Authorize(context.Context, Actor, enums.ApprovalAction, Entity) (Verdict, error) {
	reason := d.Reason
	if reason == "" {
		reason = "all actions are disabled"
	}
	return Deny(reason), nil
}
