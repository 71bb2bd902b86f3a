package approval

import (
	"context"
	"fmt"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
)

// Policy maps each action to the roles allowed to perform it.
type Policy map[enums.ApprovalAction][]enums.ActorRole

// DefaultPolicy is the role table the API runs with.
func DefaultPolicy() Policy {
	requester := enums.ActorRoleRequester
	college := enums.ActorRoleCollegeAdmin
	super := enums.ActorRoleSuperAdmin
	keeper := enums.ActorRoleStoreKeeper
	system := enums.ActorRoleSystem

	return Policy{
		enums.ActionCreateIndent:      {requester, college},
		enums.ActionSubmit:            {requester, college},
		enums.ActionCollegeApprove:    {college},
		enums.ActionCollegeReject:     {college},
		enums.ActionSuperAdminApprove: {super},
		enums.ActionSuperAdminReject:  {super},
		enums.ActionCancel:            {requester, college, super},
		enums.ActionDeactivate:        {college, super},
		enums.ActionIssueMaterials:    {keeper, super},
		enums.ActionMarkDispatched:    {keeper, super},
		enums.ActionMarkInTransit:     {keeper, super, system},
		enums.ActionCancelIssue:       {keeper, super},
		enums.ActionConfirmReceipt:    {requester, college},
		enums.ActionAdjustStock:       {keeper, super},
		enums.ActionSetThresholds:     {keeper, super},
		enums.ActionRecordFulfillment: {keeper, super, system},
	}
}

// siteScoped roles may only act on entities belonging to their own site.
var siteScoped = map[enums.ActorRole]bool{
	enums.ActorRoleRequester:    true,
	enums.ActorRoleCollegeAdmin: true,
}

// RoleGate authorizes by role membership plus site scoping for college roles.
type RoleGate struct {
	policy Policy
}

// NewRoleGate builds a gate over policy; a nil policy uses DefaultPolicy.
func NewRoleGate(policy Policy) *RoleGate {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &RoleGate{policy: policy}
}

func (g *RoleGate) Authorize(_ context.Context, actor Actor, action enums.ApprovalAction, entity Entity) (Verdict, error) {
	roles, ok := g.policy[action]
	if !ok {
		return Deny(fmt.Sprintf("no policy for action %s", action)), nil
	}
	if !actor.Role.IsValid() {
		return Deny("unknown role"), nil
	}
	if !containsRole(roles, actor.Role) {
		return Deny(fmt.Sprintf("role %s may not %s", actor.Role, action)), nil
	}
	if siteScoped[actor.Role] && entity.SiteID != nil {
		if actor.SiteID == nil || *actor.SiteID != *entity.SiteID {
			return Deny(fmt.Sprintf("%s belongs to another site", entityLabel(entity))), nil
		}
	}
	return Allow(), nil
}

func containsRole(roles []enums.ActorRole, role enums.ActorRole) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}

func entityLabel(entity Entity) string {
	if entity.Kind == "" {
		return "entity"
	}
	return entity.Kind
}
