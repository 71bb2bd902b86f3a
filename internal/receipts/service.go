// Package receipts closes a material issue when the consuming site confirms
// what arrived.
package receipts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Digigit24/kumsserpbackend-sub001/internal/approval"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/issues"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	pkgerrors "github.com/Digigit24/kumsserpbackend-sub001/pkg/errors"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox/payloads"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service confirms receipt of dispatched material.
type Service interface {
	ConfirmReceipt(ctx context.Context, input ConfirmInput) (*models.MaterialIssue, error)
}

// ConfirmInput carries the consumer's count of what arrived.
type ConfirmInput struct {
	IssueID         uuid.UUID
	Actor           approval.Actor
	ExpectedVersion *int
	Lines           []ReceivedLine
	Remarks         string
}

// ReceivedLine confirms one issue line.
type ReceivedLine struct {
	IssueItemID uuid.UUID
	Quantity    decimal.Decimal
}

type service struct {
	repo   issues.Repository
	tx     txRunner
	gate   approval.Gate
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the receipt handler on top of the issue repository.
func NewService(repo issues.Repository, tx txRunner, gate approval.Gate, outbox outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("issues repository required")
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

// ConfirmReceipt records received quantities and closes the issue. Shortfalls
// are noted and announced but never change the ledger.
func (s *service) ConfirmReceipt(ctx context.Context, input ConfirmInput) (*models.MaterialIssue, error) {
	if input.IssueID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "issue id required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.Validation("receipt needs at least one line", nil)
	}
	for i, line := range input.Lines {
		if line.IssueItemID == uuid.Nil {
			return nil, pkgerrors.Validation(fmt.Sprintf("line %d: issue item id required", i+1), &pkgerrors.LineDetails{Line: i + 1, Field: "issue_item_id"})
		}
		if line.Quantity.IsNegative() {
			return nil, pkgerrors.Validation(fmt.Sprintf("line %d: received quantity cannot be negative", i+1), &pkgerrors.LineDetails{Line: i + 1, Field: "quantity"})
		}
		if !types.QuantityFits(line.Quantity) {
			return nil, pkgerrors.Validation(fmt.Sprintf("line %d: received quantity allows at most %d decimal places", i+1, types.QuantityScale), &pkgerrors.LineDetails{Line: i + 1, Field: "quantity"})
		}
	}

	version, err := issues.PinVersion(ctx, s.repo, input.IssueID, input.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	var (
		result      *models.MaterialIssue
		from        enums.MaterialIssueStatus
		shortfalls  []payloads.DiscrepancyLine
		discrepancy string
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		issue, err := issues.LoadForTransition(ctx, repo, s.gate, input.IssueID, input.Actor, enums.ActionConfirmReceipt, version)
		if err != nil {
			return err
		}
		from = issue.Status

		received, err := matchLines(issue, input.Lines)
		if err != nil {
			return err
		}
		for _, item := range issue.Items {
			qty := received[item.ID]
			if err := repo.SetReceivedQty(ctx, item.ID, qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record received quantity")
			}
			if qty.LessThan(item.QuantityIssued) {
				shortfalls = append(shortfalls, payloads.DiscrepancyLine{
					IssueItemID: item.ID,
					ItemID:      item.ItemID,
					Issued:      item.QuantityIssued,
					Received:    qty,
					Shortfall:   item.QuantityIssued.Sub(qty),
				})
			}
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":       enums.MaterialIssueStatusReceived,
			"receipt_date": now,
			"received_by":  input.Actor.UserID,
		}
		discrepancy = discrepancyNote(shortfalls, strings.TrimSpace(input.Remarks))
		if discrepancy != "" {
			updates["discrepancy_note"] = discrepancy
		}
		if err := issues.ApplyGuarded(ctx, repo, issue, updates); err != nil {
			return err
		}

		var reason *string
		if discrepancy != "" {
			reason = &discrepancy
		}
		if err := issues.AppendDecision(ctx, repo, issue, enums.ActionConfirmReceipt, input.Actor, reason, from, enums.MaterialIssueStatusReceived); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, issues.StatusEvent(issue, enums.EventMaterialIssueReceived, input.Actor, from, enums.MaterialIssueStatusReceived, now)); err != nil {
			return err
		}
		if len(shortfalls) > 0 {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventReceiptDiscrepancyReported,
				AggregateType: enums.AggregateMaterialIssue,
				AggregateID:   issue.ID,
				Actor:         outbox.ActorFor(input.Actor.UserID, input.Actor.SiteID, string(input.Actor.Role)),
				Data: payloads.ReceiptDiscrepancyEvent{
					IssueID:  issue.ID,
					IndentID: issue.IndentID,
					StoreID:  issue.StoreID,
					Lines:    shortfalls,
					Note:     discrepancy,
				},
			}); err != nil {
				return err
			}
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
		"issue_id":    result.ID.String(),
		"from":        string(from),
		"shortfalls":  len(shortfalls),
		"received_by": input.Actor.UserID.String(),
	})
	if len(shortfalls) > 0 {
		s.logg.Warn(logCtx, "material received with discrepancies")
	} else {
		s.logg.Info(logCtx, "material received")
	}
	return result, nil
}

// matchLines requires every issued line to be confirmed exactly once.
func matchLines(issue *models.MaterialIssue, lines []ReceivedLine) (map[uuid.UUID]decimal.Decimal, error) {
	issued := make(map[uuid.UUID]models.MaterialIssueItem, len(issue.Items))
	for _, item := range issue.Items {
		issued[item.ID] = item
	}
	received := make(map[uuid.UUID]decimal.Decimal, len(lines))
	for i, line := range lines {
		item, ok := issued[line.IssueItemID]
		if !ok {
			return nil, pkgerrors.Validation(fmt.Sprintf("line %d: item is not part of this issue", i+1), &pkgerrors.LineDetails{Line: i + 1, Field: "issue_item_id"})
		}
		if _, dup := received[line.IssueItemID]; dup {
			return nil, pkgerrors.Validation(fmt.Sprintf("line %d: issue item confirmed twice", i+1), &pkgerrors.LineDetails{Line: i + 1, Field: "issue_item_id"})
		}
		if line.Quantity.GreaterThan(item.QuantityIssued) {
			return nil, pkgerrors.Validation(
				fmt.Sprintf("line %d: received %s exceeds issued %s", i+1, line.Quantity, item.QuantityIssued),
				&pkgerrors.LineDetails{Line: i + 1, Field: "quantity"})
		}
		received[line.IssueItemID] = line.Quantity
	}
	if len(received) != len(issue.Items) {
		for _, item := range issue.Items {
			if _, ok := received[item.ID]; !ok {
				return nil, pkgerrors.Validation(fmt.Sprintf("issue line %d was not confirmed", item.LineNo), nil)
			}
		}
	}
	return received, nil
}

func discrepancyNote(lines []payloads.DiscrepancyLine, remarks string) string {
	if len(lines) == 0 {
		return remarks
	}
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("item %s short by %s (issued %s, received %s)", line.ItemID, line.Shortfall, line.Issued, line.Received))
	}
	note := strings.Join(parts, "; ")
	if remarks != "" {
		note = note + ". " + remarks
	}
	return note
}
