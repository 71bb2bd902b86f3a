package indents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Digigit24/kumsserpbackend-sub001/internal/approval"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	pkgerrors "github.com/Digigit24/kumsserpbackend-sub001/pkg/errors"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox/payloads"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/pagination"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/types"
)

const entityIndent = "indent"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the indent lifecycle controller.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Indent, error)
	Submit(ctx context.Context, input TransitionInput) (*models.Indent, error)
	CollegeAdminDecide(ctx context.Context, input DecisionInput) (*models.Indent, error)
	SuperAdminDecide(ctx context.Context, input DecisionInput) (*models.Indent, error)
	Cancel(ctx context.Context, input TransitionInput) (*models.Indent, error)
	Deactivate(ctx context.Context, input TransitionInput) (*models.Indent, error)
	// MarkFulfillmentProgress runs inside the dispatcher's transaction.
	MarkFulfillmentProgress(ctx context.Context, tx *gorm.DB, input FulfillmentInput) (*models.Indent, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Indent, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	History(ctx context.Context, id uuid.UUID) ([]models.ApprovalDecision, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	gate   approval.Gate
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService wires the controller.
func NewService(repo Repository, tx txRunner, gate approval.Gate, outbox outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("indents repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gate == nil {
		return nil, fmt.Errorf("approval gate required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, gate: gate, outbox: outbox, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Indent, error) {
	if err := validateCreate(&input); err != nil {
		return nil, err
	}
	collegeID, storeID := input.CollegeID, input.StoreID
	if err := approval.Check(ctx, s.gate, input.Actor, enums.ActionCreateIndent, approval.Entity{
		Kind:    entityIndent,
		SiteID:  &collegeID,
		StoreID: &storeID,
	}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	indent := &models.Indent{
		ID:            uuid.New(),
		CollegeID:     input.CollegeID,
		StoreID:       input.StoreID,
		Status:        enums.IndentStatusDraft,
		Priority:      input.Priority,
		Justification: strings.TrimSpace(input.Justification),
		RequiredBy:    input.RequiredBy,
		RequesterID:   input.Actor.UserID,
		IsActive:      true,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i, item := range input.Items {
		indent.Items = append(indent.Items, models.IndentItem{
			ID:           uuid.New(),
			IndentID:     indent.ID,
			LineNo:       i + 1,
			ItemID:       item.ItemID,
			RequestedQty: item.RequestedQty,
			Unit:         strings.TrimSpace(item.Unit),
			Remarks:      item.Remarks,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, indent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create indent")
		}
		if err := s.appendDecision(ctx, repo, indent.ID, nil, enums.ActionCreateIndent, enums.DecisionRecord, input.Actor, nil, "", enums.IndentStatusDraft); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventIndentCreated,
			AggregateType: enums.AggregateIndent,
			AggregateID:   indent.ID,
			Actor:         actorRef(input.Actor),
			Data: payloads.IndentCreatedEvent{
				IndentID:    indent.ID,
				CollegeID:   indent.CollegeID,
				StoreID:     indent.StoreID,
				RequesterID: indent.RequesterID,
				ItemCount:   len(indent.Items),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(ctx, indent, enums.ActionCreateIndent, "", enums.IndentStatusDraft)
	return indent, nil
}

func (s *service) Submit(ctx context.Context, input TransitionInput) (*models.Indent, error) {
	return s.transition(ctx, transitionRequest{
		indentID: input.IndentID,
		actor:    input.Actor,
		version:  input.ExpectedVersion,
		action:   enums.ActionSubmit,
		decision: enums.DecisionRecord,
		event:    enums.EventIndentSubmitted,
		guard: func(indent *models.Indent) error {
			if !hasPositiveItem(indent) {
				return pkgerrors.Validation("indent needs at least one item with a positive quantity", nil)
			}
			return nil
		},
		updates: func(now time.Time) map[string]any {
			return map[string]any{"submitted_at": now}
		},
	})
}

func (s *service) CollegeAdminDecide(ctx context.Context, input DecisionInput) (*models.Indent, error) {
	action, err := decisionAction(input.Decision, enums.ActionCollegeApprove, enums.ActionCollegeReject)
	if err != nil {
		return nil, err
	}
	return s.decide(ctx, input, action, false)
}

func (s *service) SuperAdminDecide(ctx context.Context, input DecisionInput) (*models.Indent, error) {
	action, err := decisionAction(input.Decision, enums.ActionSuperAdminApprove, enums.ActionSuperAdminReject)
	if err != nil {
		return nil, err
	}
	return s.decide(ctx, input, action, true)
}

func (s *service) decide(ctx context.Context, input DecisionInput, action enums.ApprovalAction, final bool) (*models.Indent, error) {
	reason := strings.TrimSpace(input.Reason)
	if input.Decision == enums.DecisionReject {
		if reason == "" {
			return nil, pkgerrors.Validation("a reason is required to reject an indent", nil)
		}
		if len(input.ApprovedQuantities) > 0 {
			return nil, pkgerrors.Validation("approved quantities apply only to approvals", nil)
		}
	}

	req := transitionRequest{
		indentID: input.IndentID,
		actor:    input.Actor,
		version:  input.ExpectedVersion,
		action:   action,
		decision: input.Decision,
		reason:   reason,
		event:    enums.EventIndentDecided,
	}
	if input.Decision == enums.DecisionApprove {
		req.guard = func(indent *models.Indent) error {
			return validateApprovedQuantities(indent, input.ApprovedQuantities)
		}
		req.apply = func(ctx context.Context, repo Repository, indent *models.Indent) error {
			return applyApprovedQuantities(ctx, repo, indent, input.ApprovedQuantities, final)
		}
		if final {
			req.updates = func(now time.Time) map[string]any {
				return map[string]any{"approved_at": now}
			}
		}
	}
	return s.transition(ctx, req)
}

func (s *service) Cancel(ctx context.Context, input TransitionInput) (*models.Indent, error) {
	return s.transition(ctx, transitionRequest{
		indentID: input.IndentID,
		actor:    input.Actor,
		version:  input.ExpectedVersion,
		action:   enums.ActionCancel,
		decision: enums.DecisionRecord,
		reason:   strings.TrimSpace(input.Reason),
		event:    enums.EventIndentCancelled,
		updates: func(now time.Time) map[string]any {
			return map[string]any{"cancelled_at": now}
		},
	})
}

func (s *service) Deactivate(ctx context.Context, input TransitionInput) (*models.Indent, error) {
	return s.transition(ctx, transitionRequest{
		indentID: input.IndentID,
		actor:    input.Actor,
		version:  input.ExpectedVersion,
		action:   enums.ActionDeactivate,
		decision: enums.DecisionRecord,
		reason:   strings.TrimSpace(input.Reason),
		event:    enums.EventIndentDeactivated,
		target: func(indent *models.Indent) (enums.IndentStatus, bool) {
			if !indent.Status.IsTerminal() || !indent.IsActive {
				return "", false
			}
			return indent.Status, true
		},
		updates: func(time.Time) map[string]any {
			return map[string]any{"is_active": false}
		},
	})
}

func (s *service) MarkFulfillmentProgress(ctx context.Context, tx *gorm.DB, input FulfillmentInput) (*models.Indent, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment progress requires the caller's transaction")
	}
	var result *models.Indent
	err := s.transitionTx(ctx, tx, transitionRequest{
		indentID: input.IndentID,
		actor:    input.Actor,
		action:   enums.ActionRecordFulfillment,
		decision: enums.DecisionRecord,
		event:    enums.EventIndentFulfillmentProgressed,
		issueID:  input.MaterialIssueID,
		ungated:  true,
		target: func(indent *models.Indent) (enums.IndentStatus, bool) {
			return fulfillmentTarget(indent.Status, input.Complete)
		},
		updates: func(now time.Time) map[string]any {
			if input.Complete {
				return map[string]any{"fulfilled_at": now}
			}
			return nil
		},
	}, &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Indent, error) {
	indent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load indent")
	}
	if indent == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "indent not found")
	}
	return indent, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if params.Filters.Status != nil && !params.Filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown indent status filter")
	}

	rows, err := s.repo.List(ctx, params.Filters, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list indents")
	}
	items, next := pagination.Page(rows, params.Limit, func(i models.Indent) pagination.Cursor {
		return pagination.Cursor{CreatedAt: i.CreatedAt, ID: i.ID}
	})
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) History(ctx context.Context, id uuid.UUID) ([]models.ApprovalDecision, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	decisions, err := s.repo.ListDecisions(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list indent decisions")
	}
	return decisions, nil
}

type transitionRequest struct {
	indentID uuid.UUID
	actor    approval.Actor
	version  *int
	action   enums.ApprovalAction
	decision enums.Decision
	reason   string
	event    enums.OutboxEventType
	issueID  *uuid.UUID
	ungated  bool

	// target overrides the transition table lookup.
	target  func(indent *models.Indent) (enums.IndentStatus, bool)
	guard   func(indent *models.Indent) error
	apply   func(ctx context.Context, repo Repository, indent *models.Indent) error
	updates func(now time.Time) map[string]any
}

func (s *service) transition(ctx context.Context, req transitionRequest) (*models.Indent, error) {
	if req.indentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "indent id required")
	}
	if req.version == nil {
		// Pin the version seen before queueing on the row lock, so a caller that
		// loses a race to another transition gets StaleState rather than a
		// transition error against the winner's status.
		snapshot, err := s.repo.FindByID(ctx, req.indentID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load indent")
		}
		if snapshot != nil {
			req.version = &snapshot.Version
		}
	}
	var result *models.Indent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.transitionTx(ctx, tx, req, &result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) transitionTx(ctx context.Context, tx *gorm.DB, req transitionRequest, out **models.Indent) error {
	repo := s.repo.WithTx(tx)
	indent, err := repo.FindByIDForUpdate(ctx, req.indentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load indent")
	}
	if indent == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "indent not found")
	}
	if req.version != nil && *req.version != indent.Version {
		return pkgerrors.StaleState(pkgerrors.StaleDetails{
			Entity:          entityIndent,
			ID:              indent.ID.String(),
			ExpectedVersion: *req.version,
			CurrentVersion:  indent.Version,
		})
	}
	if !req.ungated {
		collegeID, storeID := indent.CollegeID, indent.StoreID
		if err := approval.Check(ctx, s.gate, req.actor, req.action, approval.Entity{
			Kind:    entityIndent,
			ID:      indent.ID,
			SiteID:  &collegeID,
			StoreID: &storeID,
		}); err != nil {
			return err
		}
	}

	from := indent.Status
	var (
		to enums.IndentStatus
		ok bool
	)
	if req.target != nil {
		to, ok = req.target(indent)
	} else {
		to, ok = Next(from, req.action)
	}
	if !ok {
		return pkgerrors.InvalidTransition(pkgerrors.TransitionDetails{
			Entity: entityIndent,
			From:   string(from),
			To:     string(intendedTarget[req.action]),
			Action: string(req.action),
		})
	}
	if req.guard != nil {
		if err := req.guard(indent); err != nil {
			return err
		}
	}
	if req.apply != nil {
		if err := req.apply(ctx, repo, indent); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	updates := map[string]any{"status": to}
	if req.updates != nil {
		for k, v := range req.updates(now) {
			updates[k] = v
		}
	}
	expected := indent.Version
	updated, err := repo.UpdateGuarded(ctx, indent.ID, expected, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update indent")
	}
	if !updated {
		return pkgerrors.StaleState(pkgerrors.StaleDetails{
			Entity:          entityIndent,
			ID:              indent.ID.String(),
			ExpectedVersion: expected,
		})
	}

	if err := s.appendDecision(ctx, repo, indent.ID, req.issueID, req.action, req.decision, req.actor, &req.reason, from, to); err != nil {
		return err
	}
	var reason *string
	if req.reason != "" {
		reason = &req.reason
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     req.event,
		AggregateType: enums.AggregateIndent,
		AggregateID:   indent.ID,
		Actor:         actorRef(req.actor),
		Data: payloads.IndentStatusEvent{
			IndentID:  indent.ID,
			CollegeID: indent.CollegeID,
			StoreID:   indent.StoreID,
			Action:    req.action,
			From:      from,
			To:        to,
			Reason:    reason,
		},
	}); err != nil {
		return err
	}

	reloaded, err := repo.FindByID(ctx, indent.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload indent")
	}
	*out = reloaded
	s.logTransition(ctx, reloaded, req.action, from, to)
	return nil
}

func (s *service) appendDecision(ctx context.Context, repo Repository, indentID uuid.UUID, issueID *uuid.UUID, action enums.ApprovalAction, decision enums.Decision, actor approval.Actor, reason *string, from, to enums.IndentStatus) error {
	if reason != nil && *reason == "" {
		reason = nil
	}
	row := &models.ApprovalDecision{
		ID:              uuid.New(),
		IndentID:        indentID,
		MaterialIssueID: issueID,
		Action:          action,
		Decision:        decision,
		ActorID:         actor.UserID,
		ActorRole:       string(actor.Role),
		Reason:          reason,
		FromStatus:      string(from),
		ToStatus:        string(to),
		CreatedAt:       time.Now().UTC(),
	}
	if err := repo.AppendDecision(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append approval decision")
	}
	return nil
}

func (s *service) logTransition(ctx context.Context, indent *models.Indent, action enums.ApprovalAction, from, to enums.IndentStatus) {
	logCtx := s.logg.WithIndentID(ctx, indent.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"action":  string(action),
		"from":    string(from),
		"to":      string(to),
		"version": indent.Version,
	})
	s.logg.Info(logCtx, "indent transition applied")
}

func validateCreate(input *CreateInput) error {
	if input.Actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.CollegeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "college id required")
	}
	if input.StoreID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if input.Priority == "" {
		input.Priority = enums.IndentPriorityNormal
	}
	if !input.Priority.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown priority %q", input.Priority))
	}
	if len(input.Items) == 0 {
		return pkgerrors.Validation("indent needs at least one item", nil)
	}
	for i, item := range input.Items {
		if item.ItemID == uuid.Nil {
			return pkgerrors.Validation(fmt.Sprintf("line %d: item id required", i+1), &pkgerrors.LineDetails{Line: i + 1, Field: "item_id"})
		}
		if !item.RequestedQty.IsPositive() {
			return pkgerrors.Validation(fmt.Sprintf("line %d: requested quantity must be positive", i+1), &pkgerrors.LineDetails{Line: i + 1, Field: "requested_qty"})
		}
		if !types.QuantityFits(item.RequestedQty) {
			return pkgerrors.Validation(fmt.Sprintf("line %d: requested quantity allows at most %d decimal places", i+1, types.QuantityScale), &pkgerrors.LineDetails{Line: i + 1, Field: "requested_qty"})
		}
		if strings.TrimSpace(item.Unit) == "" {
			return pkgerrors.Validation(fmt.Sprintf("line %d: unit required", i+1), &pkgerrors.LineDetails{Line: i + 1, Field: "unit"})
		}
	}
	return nil
}

func decisionAction(decision enums.Decision, approve, reject enums.ApprovalAction) (enums.ApprovalAction, error) {
	switch decision {
	case enums.DecisionApprove:
		return approve, nil
	case enums.DecisionReject:
		return reject, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("decision must be approve or reject, got %q", decision))
	}
}

func hasPositiveItem(indent *models.Indent) bool {
	for _, item := range indent.Items {
		if item.RequestedQty.IsPositive() {
			return true
		}
	}
	return false
}

func validateApprovedQuantities(indent *models.Indent, quantities map[uuid.UUID]decimal.Decimal) error {
	lines := make(map[uuid.UUID]models.IndentItem, len(indent.Items))
	for _, item := range indent.Items {
		lines[item.ID] = item
	}
	for itemID, qty := range quantities {
		item, ok := lines[itemID]
		if !ok {
			return pkgerrors.Validation(fmt.Sprintf("indent item %s does not belong to this indent", itemID), nil)
		}
		if qty.IsNegative() || qty.GreaterThan(item.RequestedQty) {
			return pkgerrors.Validation(
				fmt.Sprintf("line %d: approved quantity must be between 0 and %s", item.LineNo, item.RequestedQty),
				&pkgerrors.LineDetails{Line: item.LineNo, Field: "approved_qty"})
		}
		if !types.QuantityFits(qty) {
			return pkgerrors.Validation(
				fmt.Sprintf("line %d: approved quantity allows at most %d decimal places", item.LineNo, types.QuantityScale),
				&pkgerrors.LineDetails{Line: item.LineNo, Field: "approved_qty"})
		}
	}
	for _, item := range indent.Items {
		qty, ok := quantities[item.ID]
		if !ok {
			qty = item.EffectiveApprovedQty()
		}
		if qty.IsPositive() {
			return nil
		}
	}
	return pkgerrors.Validation("approval must leave at least one line with a positive quantity; reject the indent instead", nil)
}

func applyApprovedQuantities(ctx context.Context, repo Repository, indent *models.Indent, quantities map[uuid.UUID]decimal.Decimal, fillDefaults bool) error {
	for i := range indent.Items {
		item := &indent.Items[i]
		qty, override := quantities[item.ID]
		switch {
		case override:
		case fillDefaults && item.ApprovedQty == nil:
			qty = item.RequestedQty
		default:
			continue
		}
		if err := repo.SetApprovedQty(ctx, item.ID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set approved quantity")
		}
		item.ApprovedQty = &qty
	}
	return nil
}

func actorRef(actor approval.Actor) *outbox.ActorRef {
	return outbox.ActorFor(actor.UserID, actor.SiteID, string(actor.Role))
}
