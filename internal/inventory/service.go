package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Digigit24/kumsserpbackend-sub001/internal/approval"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	pkgerrors "github.com/Digigit24/kumsserpbackend-sub001/pkg/errors"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/metrics"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox/payloads"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/pagination"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/types"
)

const defaultLockWait = 10 * time.Second

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the central inventory ledger.
type Service interface {
	Reserve(ctx context.Context, input ReserveInput) (*models.InventoryReservation, error)
	Commit(ctx context.Context, input SettleInput) (*models.CentralInventoryRecord, error)
	Release(ctx context.Context, input SettleInput) (*models.CentralInventoryRecord, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.CentralInventoryRecord, error)
	SetThresholds(ctx context.Context, input ThresholdInput) (*models.CentralInventoryRecord, error)
	Get(ctx context.Context, storeID, itemID uuid.UUID) (*models.CentralInventoryRecord, error)
	List(ctx context.Context, storeID uuid.UUID) ([]models.CentralInventoryRecord, error)
	LowStock(ctx context.Context, storeID *uuid.UUID) ([]models.CentralInventoryRecord, error)
	Transactions(ctx context.Context, storeID, itemID uuid.UUID, params pagination.Params) (*TransactionList, error)

	// LockKeys and the Tx variants let a caller run several ledger mutations
	// inside its own transaction. The keys must be locked before the
	// transaction opens and released after it ends.
	LockKeys(ctx context.Context, keys ...Key) (func(), error)
	ReserveTx(ctx context.Context, tx *gorm.DB, input ReserveInput) (*models.InventoryReservation, error)
	CommitTx(ctx context.Context, tx *gorm.DB, input SettleInput) (*models.CentralInventoryRecord, error)
	ReleaseTx(ctx context.Context, tx *gorm.DB, input SettleInput) (*models.CentralInventoryRecord, error)
}

// Reference ties a ledger mutation to the document that caused it.
type Reference struct {
	Type string
	ID   uuid.UUID
}

// ReserveInput holds stock for a later commit or release.
type ReserveInput struct {
	StoreID   uuid.UUID
	ItemID    uuid.UUID
	Quantity  decimal.Decimal
	Reference *Reference
	ActorID   *uuid.UUID
	// Line is the 0-based request line, echoed in stock errors.
	Line *int
}

// SettleInput commits or releases part of a reservation.
type SettleInput struct {
	ReservationID uuid.UUID
	Quantity      decimal.Decimal
	Reference     *Reference
	ActorID       *uuid.UUID
}

// AdjustInput is an administrative correction of on-hand stock.
type AdjustInput struct {
	Actor   approval.Actor
	StoreID uuid.UUID
	ItemID  uuid.UUID
	Delta   decimal.Decimal
	Reason  string
	Unit    string
}

// ThresholdInput sets the replenishment levels of a record.
type ThresholdInput struct {
	Actor         approval.Actor
	StoreID       uuid.UUID
	ItemID        uuid.UUID
	MinStockLevel decimal.Decimal
	ReorderPoint  decimal.Decimal
}

// TransactionList is one page of the audit trail.
type TransactionList struct {
	Items  []models.InventoryTransaction `json:"items"`
	Cursor string                        `json:"cursor"`
}

// ServiceParams wires the ledger.
type ServiceParams struct {
	Repo            Repository
	Tx              txRunner
	Locker          *KeyLocker
	Gate            approval.Gate
	Outbox          outboxPublisher
	Metrics         *metrics.LedgerMetrics
	Logger          *logger.Logger
	LockWaitTimeout time.Duration
}

type service struct {
	repo     Repository
	tx       txRunner
	locker   *KeyLocker
	gate     approval.Gate
	outbox   outboxPublisher
	metrics  *metrics.LedgerMetrics
	logg     *logger.Logger
	lockWait time.Duration
}

// NewService builds the ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
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
	locker := params.Locker
	if locker == nil {
		locker = NewKeyLocker()
	}
	lockWait := params.LockWaitTimeout
	if lockWait <= 0 {
		lockWait = defaultLockWait
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		locker:   locker,
		gate:     params.Gate,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     params.Logger,
		lockWait: lockWait,
	}, nil
}

func (s *service) LockKeys(ctx context.Context, keys ...Key) (func(), error) {
	return s.lockKeys(ctx, "batch", keys...)
}

func (s *service) lockKeys(ctx context.Context, op string, keys ...Key) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()
	start := time.Now()
	release, err := s.locker.LockKeys(waitCtx, keys...)
	s.metrics.ObserveLockWait(op, time.Since(start))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "timed out waiting for inventory lock")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "acquire inventory lock")
	}
	return release, nil
}

func (s *service) Reserve(ctx context.Context, input ReserveInput) (*models.InventoryReservation, error) {
	release, err := s.lockKeys(ctx, "reserve", Key{StoreID: input.StoreID, ItemID: input.ItemID})
	if err != nil {
		return nil, err
	}
	defer release()

	var reservation *models.InventoryReservation
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var terr error
		reservation, terr = s.ReserveTx(ctx, tx, input)
		return terr
	})
	s.observe("reserve", err)
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

func (s *service) ReserveTx(ctx context.Context, tx *gorm.DB, input ReserveInput) (*models.InventoryReservation, error) {
	if input.StoreID == uuid.Nil || input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id and item id required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.Validation("reserve quantity must be positive", lineDetails(input.Line, "quantity"))
	}
	if !types.QuantityFits(input.Quantity) {
		return nil, pkgerrors.Validation(fmt.Sprintf("reserve quantity allows at most %d decimal places", types.QuantityScale), lineDetails(input.Line, "quantity"))
	}

	repo := s.repo.WithTx(tx)
	record, err := repo.FindRecordForUpdate(ctx, input.StoreID, input.ItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}
	available := decimal.Zero
	if record != nil {
		available = record.Available()
	}
	if record == nil || available.LessThan(input.Quantity) {
		return nil, pkgerrors.InsufficientStock(pkgerrors.StockDetails{
			StoreID:   input.StoreID.String(),
			ItemID:    input.ItemID.String(),
			Requested: input.Quantity.String(),
			Available: available.String(),
			Line:      oneBased(input.Line),
		})
	}

	record.QuantityReserved = record.QuantityReserved.Add(input.Quantity)
	if err := s.saveRecord(ctx, repo, record); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reservation := &models.InventoryReservation{
		ID:        uuid.New(),
		StoreID:   input.StoreID,
		ItemID:    input.ItemID,
		Quantity:  input.Quantity,
		Status:    enums.ReservationStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Reference != nil {
		reservation.ReferenceType = &input.Reference.Type
		reservation.ReferenceID = &input.Reference.ID
	}
	if err := repo.CreateReservation(ctx, reservation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
	}
	if err := s.appendTransaction(ctx, repo, record, enums.InventoryTxnReserve, input.Quantity, nil, input.Reference, input.ActorID); err != nil {
		return nil, err
	}
	return reservation, nil
}

func (s *service) Commit(ctx context.Context, input SettleInput) (*models.CentralInventoryRecord, error) {
	return s.settle(ctx, "commit", input, s.CommitTx)
}

func (s *service) Release(ctx context.Context, input SettleInput) (*models.CentralInventoryRecord, error) {
	return s.settle(ctx, "release", input, s.ReleaseTx)
}

type settleFunc func(ctx context.Context, tx *gorm.DB, input SettleInput) (*models.CentralInventoryRecord, error)

func (s *service) settle(ctx context.Context, op string, input SettleInput, fn settleFunc) (*models.CentralInventoryRecord, error) {
	if input.ReservationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation id required")
	}
	// the reservation names the key; its balances are re-read under the lock.
	reservation, err := s.repo.FindReservation(ctx, input.ReservationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
	}
	if reservation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
	}

	release, err := s.lockKeys(ctx, op, Key{StoreID: reservation.StoreID, ItemID: reservation.ItemID})
	if err != nil {
		return nil, err
	}
	defer release()

	var record *models.CentralInventoryRecord
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var terr error
		record, terr = fn(ctx, tx, input)
		return terr
	})
	s.observe(op, err)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) CommitTx(ctx context.Context, tx *gorm.DB, input SettleInput) (*models.CentralInventoryRecord, error) {
	return s.settleTx(ctx, tx, input, enums.InventoryTxnCommit)
}

func (s *service) ReleaseTx(ctx context.Context, tx *gorm.DB, input SettleInput) (*models.CentralInventoryRecord, error) {
	return s.settleTx(ctx, tx, input, enums.InventoryTxnRelease)
}

func (s *service) settleTx(ctx context.Context, tx *gorm.DB, input SettleInput, kind enums.InventoryTransactionType) (*models.CentralInventoryRecord, error) {
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s quantity must be positive", kind))
	}
	if !types.QuantityFits(input.Quantity) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s quantity allows at most %d decimal places", kind, types.QuantityScale))
	}
	repo := s.repo.WithTx(tx)
	reservation, err := repo.FindReservation(ctx, input.ReservationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
	}
	if reservation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
	}
	outstanding := reservation.Outstanding()
	if reservation.Status != enums.ReservationStatusActive || outstanding.LessThan(input.Quantity) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("reservation %s has %s outstanding, cannot %s %s", reservation.ID, outstanding, kind, input.Quantity)).
			WithDetails(map[string]string{
				"reservation_id": reservation.ID.String(),
				"outstanding":    outstanding.String(),
				"requested":      input.Quantity.String(),
			})
	}

	record, err := repo.FindRecordForUpdate(ctx, reservation.StoreID, reservation.ItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reservation points at a missing inventory record")
	}

	delta := input.Quantity
	record.QuantityReserved = record.QuantityReserved.Sub(input.Quantity)
	if kind == enums.InventoryTxnCommit {
		record.QuantityOnHand = record.QuantityOnHand.Sub(input.Quantity)
		reservation.CommittedQty = reservation.CommittedQty.Add(input.Quantity)
		delta = input.Quantity.Neg()
	} else {
		reservation.ReleasedQty = reservation.ReleasedQty.Add(input.Quantity)
	}
	if reservation.Outstanding().IsZero() {
		if reservation.CommittedQty.IsPositive() {
			reservation.Status = enums.ReservationStatusCommitted
		} else {
			reservation.Status = enums.ReservationStatusReleased
		}
	}
	if err := s.saveRecord(ctx, repo, record); err != nil {
		return nil, err
	}
	if err := repo.UpdateReservation(ctx, reservation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reservation")
	}
	ref := input.Reference
	if ref == nil && reservation.ReferenceID != nil && reservation.ReferenceType != nil {
		ref = &Reference{Type: *reservation.ReferenceType, ID: *reservation.ReferenceID}
	}
	if err := s.appendTransaction(ctx, repo, record, kind, delta, nil, ref, input.ActorID); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.CentralInventoryRecord, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.Validation("adjustment reason is required", nil)
	}
	if input.StoreID == uuid.Nil || input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id and item id required")
	}
	if input.Delta.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta must be non-zero")
	}
	if !types.QuantityFits(input.Delta) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("adjustment delta allows at most %d decimal places", types.QuantityScale))
	}
	storeID := input.StoreID
	if err := approval.Check(ctx, s.gate, input.Actor, enums.ActionAdjustStock, approval.Entity{
		Kind:    "inventory_record",
		StoreID: &storeID,
	}); err != nil {
		return nil, err
	}

	release, err := s.lockKeys(ctx, "adjust", Key{StoreID: input.StoreID, ItemID: input.ItemID})
	if err != nil {
		return nil, err
	}
	defer release()

	var record *models.CentralInventoryRecord
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, terr := repo.FindRecordForUpdate(ctx, input.StoreID, input.ItemID)
		if terr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, terr, "load inventory record")
		}
		if current == nil {
			if !input.Delta.IsPositive() {
				return pkgerrors.InsufficientStock(pkgerrors.StockDetails{
					StoreID:   input.StoreID.String(),
					ItemID:    input.ItemID.String(),
					Requested: input.Delta.Neg().String(),
					Available: decimal.Zero.String(),
				})
			}
			now := time.Now().UTC()
			current = &models.CentralInventoryRecord{
				ID:               uuid.New(),
				StoreID:          input.StoreID,
				ItemID:           input.ItemID,
				QuantityOnHand:   input.Delta,
				QuantityReserved: decimal.Zero,
				MinStockLevel:    decimal.Zero,
				ReorderPoint:     decimal.Zero,
				Unit:             input.Unit,
				Version:          1,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if terr := repo.CreateRecord(ctx, current); terr != nil {
				if db.IsUniqueViolation(terr, "ux_central_inventory_store_item") {
					// another replica opened the record first; the caller re-reads and retries
					return pkgerrors.Wrap(pkgerrors.CodeConflict, terr, "inventory record created concurrently")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, terr, "create inventory record")
			}
		} else {
			onHand := current.QuantityOnHand.Add(input.Delta)
			if onHand.LessThan(current.QuantityReserved) {
				return pkgerrors.InsufficientStock(pkgerrors.StockDetails{
					StoreID:   input.StoreID.String(),
					ItemID:    input.ItemID.String(),
					Requested: input.Delta.Neg().String(),
					Available: current.Available().String(),
				})
			}
			current.QuantityOnHand = onHand
			if current.Unit == "" && input.Unit != "" {
				current.Unit = input.Unit
			}
			if terr := s.saveRecord(ctx, repo, current); terr != nil {
				return terr
			}
		}

		actorID := input.Actor.UserID
		if terr := s.appendTransaction(ctx, repo, current, enums.InventoryTxnAdjust, input.Delta, &reason, nil, &actorID); terr != nil {
			return terr
		}
		record = current
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryAdjusted,
			AggregateType: enums.AggregateInventoryRecord,
			AggregateID:   current.ID,
			Actor:         outbox.ActorFor(input.Actor.UserID, input.Actor.SiteID, string(input.Actor.Role)),
			Data: payloads.InventoryAdjustedEvent{
				StoreID:       current.StoreID,
				ItemID:        current.ItemID,
				Delta:         input.Delta,
				OnHandAfter:   current.QuantityOnHand,
				ReservedAfter: current.QuantityReserved,
				Reason:        reason,
			},
		})
	})
	s.observe("adjust", err)
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"store_id": input.StoreID.String(),
		"item_id":  input.ItemID.String(),
		"delta":    input.Delta.String(),
		"on_hand":  record.QuantityOnHand.String(),
	})
	s.logg.Info(logCtx, "inventory adjusted")
	return record, nil
}

func (s *service) SetThresholds(ctx context.Context, input ThresholdInput) (*models.CentralInventoryRecord, error) {
	if input.MinStockLevel.IsNegative() || input.ReorderPoint.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "thresholds must be non-negative")
	}
	if !types.QuantityFits(input.MinStockLevel) || !types.QuantityFits(input.ReorderPoint) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("thresholds allow at most %d decimal places", types.QuantityScale))
	}
	storeID := input.StoreID
	if err := approval.Check(ctx, s.gate, input.Actor, enums.ActionSetThresholds, approval.Entity{
		Kind:    "inventory_record",
		StoreID: &storeID,
	}); err != nil {
		return nil, err
	}

	release, err := s.lockKeys(ctx, "thresholds", Key{StoreID: input.StoreID, ItemID: input.ItemID})
	if err != nil {
		return nil, err
	}
	defer release()

	var record *models.CentralInventoryRecord
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, terr := repo.FindRecordForUpdate(ctx, input.StoreID, input.ItemID)
		if terr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, terr, "load inventory record")
		}
		if current == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
		}
		current.MinStockLevel = input.MinStockLevel
		current.ReorderPoint = input.ReorderPoint
		if terr := s.saveRecord(ctx, repo, current); terr != nil {
			return terr
		}
		record = current
		return nil
	})
	s.observe("thresholds", err)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) Get(ctx context.Context, storeID, itemID uuid.UUID) (*models.CentralInventoryRecord, error) {
	record, err := s.repo.FindRecord(ctx, storeID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
	}
	return record, nil
}

func (s *service) List(ctx context.Context, storeID uuid.UUID) ([]models.CentralInventoryRecord, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	records, err := s.repo.ListRecords(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	return records, nil
}

func (s *service) LowStock(ctx context.Context, storeID *uuid.UUID) ([]models.CentralInventoryRecord, error) {
	records, err := s.repo.ListLowStock(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return records, nil
}

func (s *service) Transactions(ctx context.Context, storeID, itemID uuid.UUID, params pagination.Params) (*TransactionList, error) {
	cursor, err := params.Decode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListTransactions(ctx, storeID, itemID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory transactions")
	}
	items, next := pagination.Page(rows, params.Limit, func(t models.InventoryTransaction) pagination.Cursor {
		return pagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
	})
	return &TransactionList{Items: items, Cursor: next}, nil
}

func (s *service) saveRecord(ctx context.Context, repo Repository, record *models.CentralInventoryRecord) error {
	if err := checkInvariant(record); err != nil {
		return err
	}
	expected := record.Version
	ok, err := repo.UpdateRecord(ctx, record, expected)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory record")
	}
	if !ok {
		return pkgerrors.StaleState(pkgerrors.StaleDetails{
			Entity:          "inventory_record",
			ID:              record.ID.String(),
			ExpectedVersion: expected,
		})
	}
	return nil
}

func (s *service) appendTransaction(ctx context.Context, repo Repository, record *models.CentralInventoryRecord, kind enums.InventoryTransactionType, qty decimal.Decimal, reason *string, ref *Reference, actorID *uuid.UUID) error {
	txn := &models.InventoryTransaction{
		ID:            uuid.New(),
		StoreID:       record.StoreID,
		ItemID:        record.ItemID,
		Type:          kind,
		Quantity:      qty,
		OnHandAfter:   record.QuantityOnHand,
		ReservedAfter: record.QuantityReserved,
		Reason:        reason,
		ActorID:       actorID,
		CreatedAt:     time.Now().UTC(),
	}
	if ref != nil {
		refType, refID := ref.Type, ref.ID
		txn.ReferenceType = &refType
		txn.ReferenceID = &refID
	}
	if err := repo.AppendTransaction(ctx, txn); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append inventory transaction")
	}
	return nil
}

func (s *service) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if typed := pkgerrors.As(err); typed != nil {
			result = strings.ToLower(string(typed.Code()))
		}
	}
	s.metrics.Observe(op, result)
}

func checkInvariant(record *models.CentralInventoryRecord) error {
	if record.QuantityReserved.IsNegative() || record.QuantityReserved.GreaterThan(record.QuantityOnHand) {
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf(
			"ledger invariant violated for item %s: on_hand %s reserved %s",
			record.ItemID, record.QuantityOnHand, record.QuantityReserved))
	}
	return nil
}

func oneBased(line *int) *int {
	if line == nil {
		return nil
	}
	return pkgerrors.Line(*line)
}

func lineDetails(line *int, field string) *pkgerrors.LineDetails {
	if line == nil {
		return nil
	}
	return &pkgerrors.LineDetails{Line: *line + 1, Field: field}
}
