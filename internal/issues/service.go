package issues

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Digigit24/kumsserpbackend-sub001/internal/approval"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/indents"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/inventory"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	pkgerrors "github.com/Digigit24/kumsserpbackend-sub001/pkg/errors"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox/payloads"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/types"
)

const (
	entityIssue   = "material_issue"
	referenceType = "material_issue"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type indentReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Indent, error)
	MarkFulfillmentProgress(ctx context.Context, tx *gorm.DB, input indents.FulfillmentInput) (*models.Indent, error)
}

type ledger interface {
	LockKeys(ctx context.Context, keys ...inventory.Key) (func(), error)
	ReserveTx(ctx context.Context, tx *gorm.DB, input inventory.ReserveInput) (*models.InventoryReservation, error)
	CommitTx(ctx context.Context, tx *gorm.DB, input inventory.SettleInput) (*models.CentralInventoryRecord, error)
}

// Service is the material issue dispatcher.
type Service interface {
	CreateIssue(ctx context.Context, input CreateIssueInput) (*models.MaterialIssue, error)
	MarkDispatched(ctx context.Context, input DispatchInput) (*models.MaterialIssue, error)
	MarkInTransit(ctx context.Context, input TransitionInput) (*models.MaterialIssue, error)
	CancelIssue(ctx context.Context, input TransitionInput) (*models.MaterialIssue, error)
	Get(ctx context.Context, id uuid.UUID) (*models.MaterialIssue, error)
	ListByIndent(ctx context.Context, indentID uuid.UUID) ([]models.MaterialIssue, error)
}

// CreateIssueInput commits stock against an approved indent.
type CreateIssueInput struct {
	IndentID        uuid.UUID
	Actor           approval.Actor
	ExpectedVersion *int
	Lines           []LineInput
}

// LineInput is one requested issue line.
type LineInput struct {
	IndentItemID uuid.UUID
	Quantity     decimal.Decimal
	Remarks      *string
}

// DispatchInput moves a prepared issue out of the store.
type DispatchInput struct {
	IssueID         uuid.UUID
	Actor           approval.Actor
	ExpectedVersion *int
	VehicleRef      *string
}

// TransitionInput drives in-transit and cancel.
type TransitionInput struct {
	IssueID         uuid.UUID
	Actor           approval.Actor
	ExpectedVersion *int
	Reason          string
}

// ServiceParams wires the dispatcher.
type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Indents indentReader
	Ledger  ledger
	Gate    approval.Gate
	Outbox  outboxPublisher
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	tx      txRunner
	indents indentReader
	ledger  ledger
	gate    approval.Gate
	outbox  outboxPublisher
	logg    *logger.Logger
}

// NewService builds the dispatcher.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("issues repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Indents == nil {
		return nil, fmt.Errorf("indent service required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("approval gate required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		indents: params.Indents,
		ledger:  params.Ledger,
		gate:    params.Gate,
		outbox:  params.Outbox,
		logg:    params.Logger,
	}, nil
}

func (s *service) CreateIssue(ctx context.Context, input CreateIssueInput) (*models.MaterialIssue, error) {
	if input.IndentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "indent id required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.Validation("issue needs at least one line", nil)
	}
	seen := make(map[uuid.UUID]int, len(input.Lines))
	for i, line := range input.Lines {
		if line.IndentItemID == uuid.Nil {
			return nil, pkgerrors.Validation(fmt.Sprintf("line %d: indent item id required", i+1), &pkgerrors.LineDetails{Line: i + 1, Field: "indent_item_id"})
		}
		if prev, dup := seen[line.IndentItemID]; dup {
			return nil, pkgerrors.Validation(fmt.Sprintf("line %d: indent item already issued on line %d", i+1, prev+1), &pkgerrors.LineDetails{Line: i + 1, Field: "indent_item_id"})
		}
		seen[line.IndentItemID] = i
		if !line.Quantity.IsPositive() {
			return nil, pkgerrors.Validation(fmt.Sprintf("line %d: quantity must be positive", i+1), &pkgerrors.LineDetails{Line: i + 1, Field: "quantity"})
		}
		if !types.QuantityFits(line.Quantity) {
			return nil, pkgerrors.Validation(fmt.Sprintf("line %d: quantity allows at most %d decimal places", i+1, types.QuantityScale), &pkgerrors.LineDetails{Line: i + 1, Field: "quantity"})
		}
	}

	// The ledger keys come from the indent, which is read again under lock below.
	snapshot, err := s.indents.Get(ctx, input.IndentID)
	if err != nil {
		return nil, err
	}
	collegeID, storeID := snapshot.CollegeID, snapshot.StoreID
	if err := approval.Check(ctx, s.gate, input.Actor, enums.ActionIssueMaterials, approval.Entity{
		Kind:    "indent",
		ID:      snapshot.ID,
		SiteID:  &collegeID,
		StoreID: &storeID,
	}); err != nil {
		return nil, err
	}
	items := itemsByID(snapshot)
	keys := make([]inventory.Key, 0, len(input.Lines))
	for i, line := range input.Lines {
		item, ok := items[line.IndentItemID]
		if !ok {
			return nil, pkgerrors.Validation(fmt.Sprintf("line %d: item does not belong to indent", i+1), &pkgerrors.LineDetails{Line: i + 1, Field: "indent_item_id"})
		}
		keys = append(keys, inventory.Key{StoreID: snapshot.StoreID, ItemID: item.ItemID})
	}

	release, err := s.ledger.LockKeys(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		issue  *models.MaterialIssue
		indent *models.Indent
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindIndentForUpdate(ctx, input.IndentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load indent")
		}
		if current == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "indent not found")
		}
		if input.ExpectedVersion != nil && *input.ExpectedVersion != current.Version {
			return pkgerrors.StaleState(pkgerrors.StaleDetails{
				Entity:          "indent",
				ID:              current.ID.String(),
				ExpectedVersion: *input.ExpectedVersion,
				CurrentVersion:  current.Version,
			})
		}
		if !indents.Issuable(current.Status) {
			return pkgerrors.InvalidTransition(pkgerrors.TransitionDetails{
				Entity: "indent",
				From:   string(current.Status),
				To:     string(enums.IndentStatusPartiallyFulfilled),
				Action: string(enums.ActionIssueMaterials),
			})
		}

		issued, err := repo.IssuedTotals(ctx, current.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum issued quantities")
		}
		lines := itemsByID(current)
		for i, line := range input.Lines {
			item := lines[line.IndentItemID]
			remaining := item.EffectiveApprovedQty().Sub(issued[item.ID])
			if line.Quantity.GreaterThan(remaining) {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("line %d: quantity %s exceeds remaining approved quantity %s", i+1, line.Quantity, remaining)).
					WithDetails(map[string]any{
						"line":      i + 1,
						"field":     "quantity",
						"requested": line.Quantity.String(),
						"remaining": remaining.String(),
					})
			}
		}

		now := time.Now().UTC()
		issue = &models.MaterialIssue{
			ID:        uuid.New(),
			IndentID:  current.ID,
			StoreID:   current.StoreID,
			CollegeID: current.CollegeID,
			Status:    enums.MaterialIssueStatusPrepared,
			IssuedBy:  input.Actor.UserID,
			IssueDate: now,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		ref := &inventory.Reference{Type: referenceType, ID: issue.ID}
		actorID := input.Actor.UserID
		for i, line := range input.Lines {
			item := lines[line.IndentItemID]
			index := i
			reservation, err := s.ledger.ReserveTx(ctx, tx, inventory.ReserveInput{
				StoreID:   current.StoreID,
				ItemID:    item.ItemID,
				Quantity:  line.Quantity,
				Reference: ref,
				ActorID:   &actorID,
				Line:      &index,
			})
			if err != nil {
				return err
			}
			if _, err := s.ledger.CommitTx(ctx, tx, inventory.SettleInput{
				ReservationID: reservation.ID,
				Quantity:      line.Quantity,
				Reference:     ref,
				ActorID:       &actorID,
			}); err != nil {
				return err
			}
			issue.Items = append(issue.Items, models.MaterialIssueItem{
				ID:              uuid.New(),
				MaterialIssueID: issue.ID,
				LineNo:          i + 1,
				IndentItemID:    item.ID,
				ItemID:          item.ItemID,
				QuantityIssued:  line.Quantity,
				ReservationID:   reservation.ID,
				Remarks:         line.Remarks,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
			issued[item.ID] = issued[item.ID].Add(line.Quantity)
		}
		if err := repo.Create(ctx, issue); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create material issue")
		}

		indent, err = s.indents.MarkFulfillmentProgress(ctx, tx, indents.FulfillmentInput{
			IndentID:        current.ID,
			Actor:           input.Actor,
			Complete:        fullyIssued(current, issued),
			MaterialIssueID: &issue.ID,
		})
		if err != nil {
			return err
		}
		if err := AppendDecision(ctx, repo, issue, enums.ActionIssueMaterials, input.Actor, nil, "", enums.MaterialIssueStatusPrepared); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventMaterialIssued,
			AggregateType: enums.AggregateMaterialIssue,
			AggregateID:   issue.ID,
			Actor:         actorRef(input.Actor),
			Data: payloads.MaterialIssuedEvent{
				IssueID:      issue.ID,
				IndentID:     issue.IndentID,
				StoreID:      issue.StoreID,
				CollegeID:    issue.CollegeID,
				Lines:        issuedLines(issue),
				IndentStatus: indent.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithIndentID(ctx, issue.IndentID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"issue_id":      issue.ID.String(),
		"lines":         len(issue.Items),
		"indent_status": string(indent.Status),
	})
	s.logg.Info(logCtx, "material issue prepared")
	return issue, nil
}

func (s *service) MarkDispatched(ctx context.Context, input DispatchInput) (*models.MaterialIssue, error) {
	return s.transition(ctx, issueTransition{
		issueID: input.IssueID,
		actor:   input.Actor,
		version: input.ExpectedVersion,
		action:  enums.ActionMarkDispatched,
		event:   enums.EventMaterialIssueDispatched,
		updates: func(now time.Time) map[string]any {
			values := map[string]any{
				"dispatch_date": now,
				"dispatched_by": input.Actor.UserID,
			}
			if input.VehicleRef != nil {
				if ref := strings.TrimSpace(*input.VehicleRef); ref != "" {
					values["vehicle_ref"] = ref
				}
			}
			return values
		},
	})
}

func (s *service) MarkInTransit(ctx context.Context, input TransitionInput) (*models.MaterialIssue, error) {
	return s.transition(ctx, issueTransition{
		issueID: input.IssueID,
		actor:   input.Actor,
		version: input.ExpectedVersion,
		action:  enums.ActionMarkInTransit,
		event:   enums.EventMaterialIssueInTransit,
		updates: func(now time.Time) map[string]any {
			return map[string]any{"in_transit_at": now}
		},
	})
}

// CancelIssue cancels a prepared issue. Committed stock stays committed; it
// returns to the ledger only through an explicit adjustment.
func (s *service) CancelIssue(ctx context.Context, input TransitionInput) (*models.MaterialIssue, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.Validation("a reason is required to cancel an issue", nil)
	}
	return s.transition(ctx, issueTransition{
		issueID: input.IssueID,
		actor:   input.Actor,
		version: input.ExpectedVersion,
		action:  enums.ActionCancelIssue,
		event:   enums.EventMaterialIssueCancelled,
		reason:  reason,
		updates: func(time.Time) map[string]any {
			return map[string]any{"cancel_reason": reason}
		},
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.MaterialIssue, error) {
	issue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material issue")
	}
	if issue == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material issue not found")
	}
	return issue, nil
}

func (s *service) ListByIndent(ctx context.Context, indentID uuid.UUID) ([]models.MaterialIssue, error) {
	if _, err := s.indents.Get(ctx, indentID); err != nil {
		return nil, err
	}
	issues, err := s.repo.ListByIndent(ctx, indentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list material issues")
	}
	return issues, nil
}

type issueTransition struct {
	issueID uuid.UUID
	actor   approval.Actor
	version *int
	action  enums.ApprovalAction
	event   enums.OutboxEventType
	reason  string
	updates func(now time.Time) map[string]any
}

func (s *service) transition(ctx context.Context, req issueTransition) (*models.MaterialIssue, error) {
	if req.issueID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "issue id required")
	}
	version, err := PinVersion(ctx, s.repo, req.issueID, req.version)
	if err != nil {
		return nil, err
	}
	req.version = version
	var (
		result   *models.MaterialIssue
		from, to enums.MaterialIssueStatus
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		issue, err := LoadForTransition(ctx, repo, s.gate, req.issueID, req.actor, req.action, req.version)
		if err != nil {
			return err
		}
		from = issue.Status
		to, _ = Next(from, req.action)

		now := time.Now().UTC()
		updates := map[string]any{"status": to}
		if req.updates != nil {
			for k, v := range req.updates(now) {
				updates[k] = v
			}
		}
		if err := ApplyGuarded(ctx, repo, issue, updates); err != nil {
			return err
		}
		if err := AppendDecision(ctx, repo, issue, req.action, req.actor, &req.reason, from, to); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, StatusEvent(issue, req.event, req.actor, from, to, now)); err != nil {
			return err
		}
		result, err = repo.FindByID(ctx, issue.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload material issue")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithIndentID(ctx, result.IndentID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"issue_id": result.ID.String(),
		"action":   string(req.action),
		"from":     string(from),
		"to":       string(to),
	})
	s.logg.Info(logCtx, "material issue transition applied")
	return result, nil
}

// PinVersion returns expected when the caller sent one, otherwise the version
// currently stored. Passing the result to LoadForTransition makes a caller that
// waited on the row lock behind a competing transition fail with StaleState.
func PinVersion(ctx context.Context, repo Repository, issueID uuid.UUID, expected *int) (*int, error) {
	if expected != nil {
		return expected, nil
	}
	issue, err := repo.FindByID(ctx, issueID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material issue")
	}
	if issue == nil {
		return nil, nil
	}
	return &issue.Version, nil
}

// LoadForTransition locks an issue inside tx and checks the expected version,
// the approval gate and the transition table for action.
func LoadForTransition(ctx context.Context, repo Repository, gate approval.Gate, issueID uuid.UUID, actor approval.Actor, action enums.ApprovalAction, expectedVersion *int) (*models.MaterialIssue, error) {
	issue, err := repo.FindByIDForUpdate(ctx, issueID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material issue")
	}
	if issue == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material issue not found")
	}
	if expectedVersion != nil && *expectedVersion != issue.Version {
		return nil, pkgerrors.StaleState(pkgerrors.StaleDetails{
			Entity:          entityIssue,
			ID:              issue.ID.String(),
			ExpectedVersion: *expectedVersion,
			CurrentVersion:  issue.Version,
		})
	}
	collegeID, storeID := issue.CollegeID, issue.StoreID
	if err := approval.Check(ctx, gate, actor, action, approval.Entity{
		Kind:    entityIssue,
		ID:      issue.ID,
		SiteID:  &collegeID,
		StoreID: &storeID,
	}); err != nil {
		return nil, err
	}
	if _, ok := Next(issue.Status, action); !ok {
		return nil, pkgerrors.InvalidTransition(pkgerrors.TransitionDetails{
			Entity: entityIssue,
			From:   string(issue.Status),
			To:     string(IntendedTarget(action)),
			Action: string(action),
		})
	}
	return issue, nil
}

// ApplyGuarded writes updates only while the issue still has the version it
// was loaded with.
func ApplyGuarded(ctx context.Context, repo Repository, issue *models.MaterialIssue, updates map[string]any) error {
	updated, err := repo.UpdateGuarded(ctx, issue.ID, issue.Version, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update material issue")
	}
	if !updated {
		return pkgerrors.StaleState(pkgerrors.StaleDetails{
			Entity:          entityIssue,
			ID:              issue.ID.String(),
			ExpectedVersion: issue.Version,
		})
	}
	return nil
}

// StatusEvent builds the outbox event for an issue status change.
func StatusEvent(issue *models.MaterialIssue, eventType enums.OutboxEventType, actor approval.Actor, from, to enums.MaterialIssueStatus, at time.Time) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateMaterialIssue,
		AggregateID:   issue.ID,
		Actor:         actorRef(actor),
		Data: payloads.MaterialIssueStatusEvent{
			IssueID:   issue.ID,
			IndentID:  issue.IndentID,
			CollegeID: issue.CollegeID,
			From:      from,
			To:        to,
			At:        at,
		},
	}
}

// AppendDecision records an issue transition on its indent's decision trail.
func AppendDecision(ctx context.Context, repo Repository, issue *models.MaterialIssue, action enums.ApprovalAction, actor approval.Actor, reason *string, from, to enums.MaterialIssueStatus) error {
	if reason != nil && *reason == "" {
		reason = nil
	}
	issueID := issue.ID
	err := repo.AppendDecision(ctx, &models.ApprovalDecision{
		ID:              uuid.New(),
		IndentID:        issue.IndentID,
		MaterialIssueID: &issueID,
		Action:          action,
		Decision:        enums.DecisionRecord,
		ActorID:         actor.UserID,
		ActorRole:       string(actor.Role),
		Reason:          reason,
		FromStatus:      string(from),
		ToStatus:        string(to),
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append approval decision")
	}
	return nil
}

func itemsByID(indent *models.Indent) map[uuid.UUID]models.IndentItem {
	items := make(map[uuid.UUID]models.IndentItem, len(indent.Items))
	for _, item := range indent.Items {
		items[item.ID] = item
	}
	return items
}

func fullyIssued(indent *models.Indent, issued map[uuid.UUID]decimal.Decimal) bool {
	for _, item := range indent.Items {
		if issued[item.ID].LessThan(item.EffectiveApprovedQty()) {
			return false
		}
	}
	return true
}

func issuedLines(issue *models.MaterialIssue) []payloads.IssuedLine {
	lines := make([]payloads.IssuedLine, 0, len(issue.Items))
	for _, item := range issue.Items {
		lines = append(lines, payloads.IssuedLine{
			IndentItemID: item.IndentItemID,
			ItemID:       item.ItemID,
			Quantity:     item.QuantityIssued,
		})
	}
	return lines
}

func actorRef(actor approval.Actor) *outbox.ActorRef {
	return outbox.ActorFor(actor.UserID, actor.SiteID, string(actor.Role))
}
