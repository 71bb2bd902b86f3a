package approval

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	pkgerrors "github.com/Digigit24/kumsserpbackend-sub001/pkg/errors"
)

func TestCheckAllowAll(t *testing.T) {
	actor := Actor{UserID: uuid.New(), Role: enums.ActorRoleRequester}
	require.NoError(t, Check(context.Background(), AllowAll{}, actor, enums.ActionSubmit, Entity{Kind: "indent"}))
}

func TestCheckDenyAllCarriesReason(t *testing.T) {
	actor := Actor{UserID: uuid.New(), Role: enums.ActorRoleSuperAdmin}
	err := Check(context.Background(), DenyAll{Reason: "maintenance window"}, actor, enums.ActionSuperAdminApprove, Entity{Kind: "indent"})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
	details, ok := typed.Details().(pkgerrors.DeniedDetails)
	require.True(t, ok)
	require.Equal(t, "maintenance window", details.Reason)
	require.Equal(t, string(enums.ActionSuperAdminApprove), details.Action)
}

func TestCheckWrapsGateFailure(t *testing.T) {
	gate := GateFunc(func(context.Context, Actor, enums.ApprovalAction, Entity) (Verdict, error) {
		return Verdict{}, errors.New("policy service down")
	})
	err := Check(context.Background(), gate, Actor{UserID: uuid.New()}, enums.ActionSubmit, Entity{})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}

func TestCheckRequiresIdentityAndGate(t *testing.T) {
	err := Check(context.Background(), AllowAll{}, Actor{}, enums.ActionSubmit, Entity{})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	err = Check(context.Background(), nil, Actor{UserID: uuid.New()}, enums.ActionSubmit, Entity{})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal))
}

func TestRoleGatePolicy(t *testing.T) {
	gate := NewRoleGate(nil)
	site := uuid.New()
	otherSite := uuid.New()
	ctx := context.Background()

	cases := []struct {
		name    string
		actor   Actor
		action  enums.ApprovalAction
		entity  Entity
		allowed bool
	}{
		{
			name:    "requester submits own site indent",
			actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleRequester, SiteID: &site},
			action:  enums.ActionSubmit,
			entity:  Entity{Kind: "indent", SiteID: &site},
			allowed: true,
		},
		{
			name:    "requester cannot submit another site's indent",
			actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleRequester, SiteID: &site},
			action:  enums.ActionSubmit,
			entity:  Entity{Kind: "indent", SiteID: &otherSite},
			allowed: false,
		},
		{
			name:    "college admin without site is refused scoped entity",
			actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleCollegeAdmin},
			action:  enums.ActionCollegeApprove,
			entity:  Entity{Kind: "indent", SiteID: &site},
			allowed: false,
		},
		{
			name:    "requester cannot approve",
			actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleRequester, SiteID: &site},
			action:  enums.ActionCollegeApprove,
			entity:  Entity{Kind: "indent", SiteID: &site},
			allowed: false,
		},
		{
			name:    "super admin approves any site",
			actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleSuperAdmin},
			action:  enums.ActionSuperAdminApprove,
			entity:  Entity{Kind: "indent", SiteID: &otherSite},
			allowed: true,
		},
		{
			name:    "store keeper issues materials",
			actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleStoreKeeper},
			action:  enums.ActionIssueMaterials,
			entity:  Entity{Kind: "indent", SiteID: &site},
			allowed: true,
		},
		{
			name:    "unknown role",
			actor:   Actor{UserID: uuid.New(), Role: enums.ActorRole("janitor")},
			action:  enums.ActionSubmit,
			entity:  Entity{Kind: "indent"},
			allowed: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict, err := gate.Authorize(ctx, tc.actor, tc.action, tc.entity)
			require.NoError(t, err)
			require.Equal(t, tc.allowed, verdict.Allowed)
			if !tc.allowed {
				require.NotEmpty(t, verdict.Reason)
			}
		})
	}
}

func TestRoleGateUnknownAction(t *testing.T) {
	gate := NewRoleGate(Policy{enums.ActionSubmit: {enums.ActorRoleRequester}})
	verdict, err := gate.Authorize(context.Background(), Actor{UserID: uuid.New(), Role: enums.ActorRoleSuperAdmin}, enums.ActionCancel, Entity{})
	require.NoError(t, err)
	require.False(t, verdict.Allowed)
}

func TestDefaultPolicyCoversEveryAction(t *testing.T) {
	policy := DefaultPolicy()
	for _, action := range []enums.ApprovalAction{
		enums.ActionCreateIndent, enums.ActionSubmit, enums.ActionCollegeApprove, enums.ActionCollegeReject,
		enums.ActionSuperAdminApprove, enums.ActionSuperAdminReject, enums.ActionCancel, enums.ActionDeactivate,
		enums.ActionIssueMaterials, enums.ActionMarkDispatched, enums.ActionMarkInTransit, enums.ActionCancelIssue,
		enums.ActionConfirmReceipt, enums.ActionAdjustStock, enums.ActionSetThresholds, enums.ActionRecordFulfillment,
	} {
		require.NotEmpty(t, policy[action], "missing policy for %s", action)
	}
}
