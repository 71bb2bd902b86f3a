package indents

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Digigit24/kumsserpbackend-sub001/internal/approval"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/dbtest"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	pkgerrors "github.com/Digigit24/kumsserpbackend-sub001/pkg/errors"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox"
)

type fixture struct {
	svc       Service
	db        *gorm.DB
	client    *db.Client
	logg      *logger.Logger
	college   uuid.UUID
	store     uuid.UUID
	requester approval.Actor
	admin     approval.Actor
	super     approval.Actor
}

func newFixture(t *testing.T, gate approval.Gate) *fixture {
	t.Helper()
	client := dbtest.Client(t)
	logg := logger.New(logger.Options{ServiceName: "indents-test", Output: io.Discard})
	svc, err := NewService(NewRepository(client.DB()), client, gate, outbox.NewService(outbox.NewRepository(client.DB()), logg), logg)
	require.NoError(t, err)

	college := uuid.New()
	return &fixture{
		svc:       svc,
		db:        client.DB(),
		client:    client,
		logg:      logg,
		college:   college,
		store:     uuid.New(),
		requester: approval.Actor{UserID: uuid.New(), Role: enums.ActorRoleRequester, SiteID: &college},
		admin:     approval.Actor{UserID: uuid.New(), Role: enums.ActorRoleCollegeAdmin, SiteID: &college},
		super:     approval.Actor{UserID: uuid.New(), Role: enums.ActorRoleSuperAdmin},
	}
}

func (f *fixture) create(t *testing.T, quantities ...int64) *models.Indent {
	t.Helper()
	if len(quantities) == 0 {
		quantities = []int64{10}
	}
	input := CreateInput{
		Actor:         f.requester,
		CollegeID:     f.college,
		StoreID:       f.store,
		Justification: "lab consumables",
	}
	for _, q := range quantities {
		input.Items = append(input.Items, ItemInput{ItemID: uuid.New(), RequestedQty: decimal.NewFromInt(q), Unit: "pcs"})
	}
	indent, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)
	return indent
}

func (f *fixture) approved(t *testing.T, quantities ...int64) *models.Indent {
	t.Helper()
	ctx := context.Background()
	indent := f.create(t, quantities...)
	_, err := f.svc.Submit(ctx, TransitionInput{IndentID: indent.ID, Actor: f.requester})
	require.NoError(t, err)
	_, err = f.svc.CollegeAdminDecide(ctx, DecisionInput{IndentID: indent.ID, Actor: f.admin, Decision: enums.DecisionApprove})
	require.NoError(t, err)
	indent, err = f.svc.SuperAdminDecide(ctx, DecisionInput{IndentID: indent.ID, Actor: f.super, Decision: enums.DecisionApprove})
	require.NoError(t, err)
	return indent
}

func (f *fixture) outboxCount(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), typed.Message())
	return typed
}

func TestNextCoversTheStateMachine(t *testing.T) {
	cases := []struct {
		from   enums.IndentStatus
		action enums.ApprovalAction
		to     enums.IndentStatus
		ok     bool
	}{
		{enums.IndentStatusDraft, enums.ActionSubmit, enums.IndentStatusPendingCollegeApproval, true},
		{enums.IndentStatusPendingCollegeApproval, enums.ActionCollegeApprove, enums.IndentStatusPendingSuperAdmin, true},
		{enums.IndentStatusPendingCollegeApproval, enums.ActionCollegeReject, enums.IndentStatusRejectedByCollege, true},
		{enums.IndentStatusPendingSuperAdmin, enums.ActionSuperAdminApprove, enums.IndentStatusSuperAdminApproved, true},
		{enums.IndentStatusPendingSuperAdmin, enums.ActionSuperAdminReject, enums.IndentStatusRejectedBySuperAdmin, true},
		{enums.IndentStatusDraft, enums.ActionCancel, enums.IndentStatusCancelled, true},
		{enums.IndentStatusPendingSuperAdmin, enums.ActionCancel, enums.IndentStatusCancelled, true},
		{enums.IndentStatusDraft, enums.ActionCollegeApprove, "", false},
		{enums.IndentStatusPendingCollegeApproval, enums.ActionSuperAdminApprove, "", false},
		{enums.IndentStatusSuperAdminApproved, enums.ActionCancel, "", false},
		{enums.IndentStatusFulfilled, enums.ActionSubmit, "", false},
		{enums.IndentStatusCancelled, enums.ActionSubmit, "", false},
	}
	for _, tc := range cases {
		to, ok := Next(tc.from, tc.action)
		require.Equal(t, tc.ok, ok, "%s + %s", tc.from, tc.action)
		require.Equal(t, tc.to, to, "%s + %s", tc.from, tc.action)
	}
}

func TestFulfillmentTargetOnlyMovesForward(t *testing.T) {
	to, ok := fulfillmentTarget(enums.IndentStatusSuperAdminApproved, false)
	require.True(t, ok)
	require.Equal(t, enums.IndentStatusPartiallyFulfilled, to)

	to, ok = fulfillmentTarget(enums.IndentStatusPartiallyFulfilled, true)
	require.True(t, ok)
	require.Equal(t, enums.IndentStatusFulfilled, to)

	_, ok = fulfillmentTarget(enums.IndentStatusFulfilled, false)
	require.False(t, ok)
	_, ok = fulfillmentTarget(enums.IndentStatusPendingSuperAdmin, true)
	require.False(t, ok)
}

func TestCreateValidatesLines(t *testing.T) {
	f := newFixture(t, approval.NewRoleGate(nil))
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{Actor: f.requester, CollegeID: f.college, StoreID: f.store})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Create(ctx, CreateInput{
		Actor:     f.requester,
		CollegeID: f.college,
		StoreID:   f.store,
		Items: []ItemInput{
			{ItemID: uuid.New(), RequestedQty: decimal.NewFromInt(1), Unit: "pcs"},
			{ItemID: uuid.New(), RequestedQty: decimal.Zero, Unit: "pcs"},
		},
	})
	typed := requireCode(t, err, pkgerrors.CodeValidation)
	require.Equal(t, pkgerrors.LineDetails{Line: 2, Field: "requested_qty"}, typed.Details())

	indent := f.create(t, 3, 4)
	require.Equal(t, enums.IndentStatusDraft, indent.Status)
	require.Equal(t, enums.IndentPriorityNormal, indent.Priority)
	require.Equal(t, 1, indent.Version)
	require.True(t, indent.IsActive)
	require.Len(t, indent.Items, 2)
	require.Equal(t, 2, indent.Items[1].LineNo)
	require.EqualValues(t, 1, f.outboxCount(t, enums.EventIndentCreated))
}

func TestApprovalFlowReachesSuperAdminApproved(t *testing.T) {
	f := newFixture(t, approval.NewRoleGate(nil))
	indent := f.approved(t, 10, 5)

	require.Equal(t, enums.IndentStatusSuperAdminApproved, indent.Status)
	require.Equal(t, 4, indent.Version)
	require.NotNil(t, indent.SubmittedAt)
	require.NotNil(t, indent.ApprovedAt)
	for _, item := range indent.Items {
		require.NotNil(t, item.ApprovedQty)
		require.True(t, item.ApprovedQty.Equal(item.RequestedQty))
	}

	history, err := f.svc.History(context.Background(), indent.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	actions := make([]enums.ApprovalAction, 0, len(history))
	for _, d := range history {
		actions = append(actions, d.Action)
	}
	require.Equal(t, []enums.ApprovalAction{
		enums.ActionCreateIndent,
		enums.ActionSubmit,
		enums.ActionCollegeApprove,
		enums.ActionSuperAdminApprove,
	}, actions)
	require.Equal(t, string(enums.IndentStatusPendingSuperAdmin), history[3].FromStatus)
	require.Equal(t, string(enums.IndentStatusSuperAdminApproved), history[3].ToStatus)
	require.EqualValues(t, 2, f.outboxCount(t, enums.EventIndentDecided))
}

func TestApprovedQuantityOverrides(t *testing.T) {
	f := newFixture(t, approval.NewRoleGate(nil))
	ctx := context.Background()
	indent := f.create(t, 10, 6)
	_, err := f.svc.Submit(ctx, TransitionInput{IndentID: indent.ID, Actor: f.requester})
	require.NoError(t, err)

	first, second := indent.Items[0], indent.Items[1]
	_, err = f.svc.CollegeAdminDecide(ctx, DecisionInput{
		IndentID:           indent.ID,
		Actor:              f.admin,
		Decision:           enums.DecisionApprove,
		ApprovedQuantities: map[uuid.UUID]decimal.Decimal{first.ID: decimal.NewFromInt(11)},
	})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.CollegeAdminDecide(ctx, DecisionInput{
		IndentID:           indent.ID,
		Actor:              f.admin,
		Decision:           enums.DecisionApprove,
		ApprovedQuantities: map[uuid.UUID]decimal.Decimal{uuid.New(): decimal.NewFromInt(1)},
	})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.CollegeAdminDecide(ctx, DecisionInput{
		IndentID:           indent.ID,
		Actor:              f.admin,
		Decision:           enums.DecisionApprove,
		ApprovedQuantities: map[uuid.UUID]decimal.Decimal{first.ID: decimal.NewFromInt(7)},
	})
	require.NoError(t, err)

	approved, err := f.svc.SuperAdminDecide(ctx, DecisionInput{
		IndentID:           indent.ID,
		Actor:              f.super,
		Decision:           enums.DecisionApprove,
		ApprovedQuantities: map[uuid.UUID]decimal.Decimal{second.ID: decimal.NewFromInt(0)},
	})
	require.NoError(t, err)
	require.True(t, approved.Items[0].EffectiveApprovedQty().Equal(decimal.NewFromInt(7)))
	require.True(t, approved.Items[1].EffectiveApprovedQty().IsZero())
}

func TestQuantitiesBeyondStoredScaleAreRejected(t *testing.T) {
	f := newFixture(t, approval.NewRoleGate(nil))
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{
		Actor:     f.requester,
		CollegeID: f.college,
		StoreID:   f.store,
		Items: []ItemInput{
			{ItemID: uuid.New(), RequestedQty: decimal.NewFromInt(2), Unit: "pcs"},
			{ItemID: uuid.New(), RequestedQty: decimal.RequireFromString("0.0004"), Unit: "kg"},
		},
	})
	typed := requireCode(t, err, pkgerrors.CodeValidation)
	require.Equal(t, pkgerrors.LineDetails{Line: 2, Field: "requested_qty"}, typed.Details())

	indent := f.create(t, 4)
	_, err = f.svc.Submit(ctx, TransitionInput{IndentID: indent.ID, Actor: f.requester})
	require.NoError(t, err)
	_, err = f.svc.CollegeAdminDecide(ctx, DecisionInput{
		IndentID:           indent.ID,
		Actor:              f.admin,
		Decision:           enums.DecisionApprove,
		ApprovedQuantities: map[uuid.UUID]decimal.Decimal{indent.Items[0].ID: decimal.RequireFromString("1.2345")},
	})
	typed = requireCode(t, err, pkgerrors.CodeValidation)
	require.Equal(t, pkgerrors.LineDetails{Line: 1, Field: "approved_qty"}, typed.Details())

	current, err := f.svc.Get(ctx, indent.ID)
	require.NoError(t, err)
	require.Equal(t, enums.IndentStatusPendingCollegeApproval, current.Status)
	require.Nil(t, current.Items[0].ApprovedQty)
}

func TestApprovalWithEveryLineZeroIsRejected(t *testing.T) {
	f := newFixture(t, approval.NewRoleGate(nil))
	ctx := context.Background()
	indent := f.create(t, 5, 3)
	_, err := f.svc.Submit(ctx, TransitionInput{IndentID: indent.ID, Actor: f.requester})
	require.NoError(t, err)

	first, second := indent.Items[0], indent.Items[1]
	_, err = f.svc.CollegeAdminDecide(ctx, DecisionInput{
		IndentID: indent.ID,
		Actor:    f.admin,
		Decision: enums.DecisionApprove,
		ApprovedQuantities: map[uuid.UUID]decimal.Decimal{
			first.ID:  decimal.Zero,
			second.ID: decimal.Zero,
		},
	})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.CollegeAdminDecide(ctx, DecisionInput{
		IndentID:           indent.ID,
		Actor:              f.admin,
		Decision:           enums.DecisionApprove,
		ApprovedQuantities: map[uuid.UUID]decimal.Decimal{first.ID: decimal.Zero},
	})
	require.NoError(t, err)

	// Zeroing the one line still carrying a quantity empties the indent.
	_, err = f.svc.SuperAdminDecide(ctx, DecisionInput{
		IndentID:           indent.ID,
		Actor:              f.super,
		Decision:           enums.DecisionApprove,
		ApprovedQuantities: map[uuid.UUID]decimal.Decimal{second.ID: decimal.Zero},
	})
	requireCode(t, err, pkgerrors.CodeValidation)

	current, err := f.svc.Get(ctx, indent.ID)
	require.NoError(t, err)
	require.Equal(t, enums.IndentStatusPendingSuperAdmin, current.Status)
	require.Equal(t, 3, current.Version)
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t, approval.NewRoleGate(nil))
	ctx := context.Background()
	indent := f.create(t)
	_, err := f.svc.Submit(ctx, TransitionInput{IndentID: indent.ID, Actor: f.requester})
	require.NoError(t, err)

	_, err = f.svc.CollegeAdminDecide(ctx, DecisionInput{IndentID: indent.ID, Actor: f.admin, Decision: enums.DecisionReject, Reason: "   "})
	requireCode(t, err, pkgerrors.CodeValidation)

	current, err := f.svc.Get(ctx, indent.ID)
	require.NoError(t, err)
	require.Equal(t, enums.IndentStatusPendingCollegeApproval, current.Status)
	require.Equal(t, 2, current.Version)

	rejected, err := f.svc.CollegeAdminDecide(ctx, DecisionInput{IndentID: indent.ID, Actor: f.admin, Decision: enums.DecisionReject, Reason: "budget exhausted"})
	require.NoError(t, err)
	require.Equal(t, enums.IndentStatusRejectedByCollege, rejected.Status)

	history, err := f.svc.History(ctx, indent.ID)
	require.NoError(t, err)
	last := history[len(history)-1]
	require.Equal(t, enums.DecisionReject, last.Decision)
	require.NotNil(t, last.Reason)
	require.Equal(t, "budget exhausted", *last.Reason)
}

func TestInvalidTransitionLeavesIndentUntouched(t *testing.T) {
	f := newFixture(t, approval.AllowAll{})
	ctx := context.Background()
	indent := f.create(t)

	_, err := f.svc.SuperAdminDecide(ctx, DecisionInput{IndentID: indent.ID, Actor: f.super, Decision: enums.DecisionApprove})
	typed := requireCode(t, err, pkgerrors.CodeInvalidTransition)
	require.Equal(t, pkgerrors.TransitionDetails{
		Entity: "indent",
		From:   string(enums.IndentStatusDraft),
		To:     string(enums.IndentStatusSuperAdminApproved),
		Action: string(enums.ActionSuperAdminApprove),
	}, typed.Details())

	history, err := f.svc.History(ctx, indent.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestConcurrentApprovalsOneWins(t *testing.T) {
	f := newFixture(t, approval.NewRoleGate(nil))
	ctx := context.Background()
	indent := f.create(t)
	submitted, err := f.svc.Submit(ctx, TransitionInput{IndentID: indent.ID, Actor: f.requester})
	require.NoError(t, err)

	version := submitted.Version
	var wg sync.WaitGroup
	errs := make([]error, 2)
	decisions := []enums.Decision{enums.DecisionApprove, enums.DecisionReject}
	for i := range decisions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CollegeAdminDecide(ctx, DecisionInput{
				IndentID:        indent.ID,
				Actor:           f.admin,
				ExpectedVersion: &version,
				Decision:        decisions[i],
				Reason:          "racing",
			})
		}(i)
	}
	wg.Wait()

	var ok, stale int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case pkgerrors.Is(err, pkgerrors.CodeStaleState):
			stale++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, stale)

	history, err := f.svc.History(ctx, indent.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
}

// snapshotBarrier holds the first n unlocked reads until all n have been made,
// so every caller starts from the same indent version.
type snapshotBarrier struct {
	Repository
	mu      sync.Mutex
	waiting int
	release chan struct{}
}

func (b *snapshotBarrier) FindByID(ctx context.Context, id uuid.UUID) (*models.Indent, error) {
	indent, err := b.Repository.FindByID(ctx, id)
	b.mu.Lock()
	if b.waiting == 0 {
		b.mu.Unlock()
		return indent, err
	}
	b.waiting--
	if b.waiting == 0 {
		close(b.release)
	}
	b.mu.Unlock()
	<-b.release
	return indent, err
}

func TestConcurrentApprovalsWithoutVersionOneWins(t *testing.T) {
	f := newFixture(t, approval.NewRoleGate(nil))
	ctx := context.Background()
	indent := f.create(t)
	_, err := f.svc.Submit(ctx, TransitionInput{IndentID: indent.ID, Actor: f.requester})
	require.NoError(t, err)

	barrier := &snapshotBarrier{Repository: NewRepository(f.db), waiting: 2, release: make(chan struct{})}
	racing, err := NewService(barrier, f.client, approval.NewRoleGate(nil), outbox.NewService(outbox.NewRepository(f.db), f.logg), f.logg)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = racing.CollegeAdminDecide(ctx, DecisionInput{IndentID: indent.ID, Actor: f.admin, Decision: enums.DecisionApprove})
		}(i)
	}
	wg.Wait()

	var ok, stale int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case pkgerrors.Is(err, pkgerrors.CodeStaleState):
			stale++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, stale)

	current, err := f.svc.Get(ctx, indent.ID)
	require.NoError(t, err)
	require.Equal(t, enums.IndentStatusPendingSuperAdmin, current.Status)
	require.Equal(t, 3, current.Version)
}

func TestRepeatedApprovalWithoutVersionIsInvalidTransition(t *testing.T) {
	f := newFixture(t, approval.NewRoleGate(nil))
	ctx := context.Background()
	indent := f.create(t)
	_, err := f.svc.Submit(ctx, TransitionInput{IndentID: indent.ID, Actor: f.requester})
	require.NoError(t, err)
	_, err = f.svc.CollegeAdminDecide(ctx, DecisionInput{IndentID: indent.ID, Actor: f.admin, Decision: enums.DecisionApprove})
	require.NoError(t, err)

	_, err = f.svc.CollegeAdminDecide(ctx, DecisionInput{IndentID: indent.ID, Actor: f.admin, Decision: enums.DecisionApprove})
	requireCode(t, err, pkgerrors.CodeInvalidTransition)
}

func TestStaleExpectedVersion(t *testing.T) {
	f := newFixture(t, approval.AllowAll{})
	indent := f.create(t)
	stale := 7

	_, err := f.svc.Submit(context.Background(), TransitionInput{IndentID: indent.ID, Actor: f.requester, ExpectedVersion: &stale})
	typed := requireCode(t, err, pkgerrors.CodeStaleState)
	require.Equal(t, pkgerrors.StaleDetails{Entity: "indent", ID: indent.ID.String(), ExpectedVersion: 7, CurrentVersion: 1}, typed.Details())
}

func TestGateDenialIsReported(t *testing.T) {
	f := newFixture(t, approval.NewRoleGate(nil))
	ctx := context.Background()
	indent := f.create(t)
	_, err := f.svc.Submit(ctx, TransitionInput{IndentID: indent.ID, Actor: f.requester})
	require.NoError(t, err)

	_, err = f.svc.CollegeAdminDecide(ctx, DecisionInput{IndentID: indent.ID, Actor: f.requester, Decision: enums.DecisionApprove})
	requireCode(t, err, pkgerrors.CodeForbidden)

	otherCollege := uuid.New()
	foreign := approval.Actor{UserID: uuid.New(), Role: enums.ActorRoleCollegeAdmin, SiteID: &otherCollege}
	_, err = f.svc.CollegeAdminDecide(ctx, DecisionInput{IndentID: indent.ID, Actor: foreign, Decision: enums.DecisionApprove})
	requireCode(t, err, pkgerrors.CodeForbidden)

	current, err := f.svc.Get(ctx, indent.ID)
	require.NoError(t, err)
	require.Equal(t, enums.IndentStatusPendingCollegeApproval, current.Status)
}

func TestCancelAndDeactivate(t *testing.T) {
	f := newFixture(t, approval.NewRoleGate(nil))
	ctx := context.Background()
	indent := f.create(t)

	_, err := f.svc.Deactivate(ctx, TransitionInput{IndentID: indent.ID, Actor: f.admin})
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	cancelled, err := f.svc.Cancel(ctx, TransitionInput{IndentID: indent.ID, Actor: f.requester, Reason: "duplicate"})
	require.NoError(t, err)
	require.Equal(t, enums.IndentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = f.svc.Cancel(ctx, TransitionInput{IndentID: indent.ID, Actor: f.requester})
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	inactive, err := f.svc.Deactivate(ctx, TransitionInput{IndentID: indent.ID, Actor: f.admin})
	require.NoError(t, err)
	require.False(t, inactive.IsActive)
	require.Equal(t, enums.IndentStatusCancelled, inactive.Status)
	require.EqualValues(t, 1, f.outboxCount(t, enums.EventIndentDeactivated))

	_, err = f.svc.Deactivate(ctx, TransitionInput{IndentID: indent.ID, Actor: f.admin})
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	page, err := f.svc.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	page, err = f.svc.List(ctx, ListParams{Filters: ListFilters{IncludeInactive: true}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}

func TestMarkFulfillmentProgress(t *testing.T) {
	f := newFixture(t, approval.NewRoleGate(nil))
	ctx := context.Background()
	draft := f.create(t)
	indent := f.approved(t)
	keeper := approval.Actor{UserID: uuid.New(), Role: enums.ActorRoleStoreKeeper}
	issueID := uuid.New()

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.MarkFulfillmentProgress(ctx, tx, FulfillmentInput{IndentID: draft.ID, Actor: keeper})
		return err
	})
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	var partial *models.Indent
	err = f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		partial, err = f.svc.MarkFulfillmentProgress(ctx, tx, FulfillmentInput{IndentID: indent.ID, Actor: keeper, MaterialIssueID: &issueID})
		return err
	})
	require.NoError(t, err)
	require.Equal(t, enums.IndentStatusPartiallyFulfilled, partial.Status)

	var done *models.Indent
	err = f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		done, err = f.svc.MarkFulfillmentProgress(ctx, tx, FulfillmentInput{IndentID: indent.ID, Actor: keeper, Complete: true})
		return err
	})
	require.NoError(t, err)
	require.Equal(t, enums.IndentStatusFulfilled, done.Status)
	require.NotNil(t, done.FulfilledAt)

	history, err := f.svc.History(ctx, indent.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ActionRecordFulfillment, history[4].Action)
	require.NotNil(t, history[4].MaterialIssueID)
	require.Equal(t, issueID, *history[4].MaterialIssueID)
	require.EqualValues(t, 2, f.outboxCount(t, enums.EventIndentFulfillmentProgressed))
}

func TestListPaginates(t *testing.T) {
	f := newFixture(t, approval.AllowAll{})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.create(t)
	}

	first, err := f.svc.List(ctx, ListParams{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotEmpty(t, first.Cursor)

	second, err := f.svc.List(ctx, ListParams{Limit: 3, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.Empty(t, second.Cursor)

	seen := map[uuid.UUID]bool{}
	for _, indent := range append(first.Items, second.Items...) {
		require.False(t, seen[indent.ID])
		seen[indent.ID] = true
	}

	status := enums.IndentStatusPendingSuperAdmin
	filtered, err := f.svc.List(ctx, ListParams{Filters: ListFilters{Status: &status}})
	require.NoError(t, err)
	require.Empty(t, filtered.Items)

	_, err = f.svc.List(ctx, ListParams{Cursor: "%%%"})
	requireCode(t, err, pkgerrors.CodeValidation)
}
