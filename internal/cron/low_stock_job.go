package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox/idempotency"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/outbox/payloads"
)

// LowStockJobParams configures the low-stock alert job.
type LowStockJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	Ledger lowStockSource
	Outbox outboxEmitter
	Alerts alertGuard
}

type lowStockSource interface {
	LowStock(ctx context.Context, storeID *uuid.UUID) ([]models.CentralInventoryRecord, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type alertGuard interface {
	CheckAndMark(ctx context.Context, eventType, subject string) (bool, error)
	Clear(ctx context.Context, eventType, subject string) error
}

// NewLowStockJob builds the job that queues inventory_low_stock events for
// records at or below their reorder point. Alerts repeat only after the
// guard's window expires.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alert guard required")
	}
	return &lowStockJob{
		logg:   params.Logger,
		db:     params.DB,
		ledger: params.Ledger,
		outbox: params.Outbox,
		alerts: params.Alerts,
	}, nil
}

type lowStockJob struct {
	logg   *logger.Logger
	db     txRunner
	ledger lowStockSource
	outbox outboxEmitter
	alerts alertGuard
}

func (j *lowStockJob) Name() string { return "low-stock-alerts" }

func (j *lowStockJob) Run(ctx context.Context) error {
	records, err := j.ledger.LowStock(ctx, nil)
	if err != nil {
		return fmt.Errorf("query low stock: %w", err)
	}

	byStore := map[uuid.UUID][]models.CentralInventoryRecord{}
	var stores []uuid.UUID
	for _, record := range records {
		if _, ok := byStore[record.StoreID]; !ok {
			stores = append(stores, record.StoreID)
		}
		byStore[record.StoreID] = append(byStore[record.StoreID], record)
	}

	var errs error
	queued := 0
	for _, storeID := range stores {
		n, err := j.alertStore(ctx, storeID, byStore[storeID])
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("store %s: %w", storeID, err))
			continue
		}
		queued += n
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"low_stock_records": len(records),
		"stores":            len(stores),
		"alerts_queued":     queued,
	})
	j.logg.Info(logCtx, "low stock scan complete")
	return errs
}

func (j *lowStockJob) alertStore(ctx context.Context, storeID uuid.UUID, records []models.CentralInventoryRecord) (int, error) {
	eventType := string(enums.EventInventoryLowStock)
	var (
		pending []models.CentralInventoryRecord
		marked  []string
	)
	for _, record := range records {
		subject := idempotency.Subject(record.StoreID, record.ItemID)
		already, err := j.alerts.CheckAndMark(ctx, eventType, subject)
		if err != nil {
			j.clear(ctx, eventType, marked)
			return 0, fmt.Errorf("check alert mark: %w", err)
		}
		if already {
			continue
		}
		marked = append(marked, subject)
		pending = append(pending, record)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, record := range pending {
			available := record.Available()
			if err := j.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventInventoryLowStock,
				AggregateType: enums.AggregateInventoryRecord,
				AggregateID:   record.ID,
				Data: payloads.InventoryLowStockEvent{
					StoreID:       record.StoreID,
					ItemID:        record.ItemID,
					Available:     available,
					ReorderPoint:  record.ReorderPoint,
					MinStockLevel: record.MinStockLevel,
					BelowMinimum:  available.LessThan(record.MinStockLevel),
				},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		j.clear(ctx, eventType, marked)
		return 0, fmt.Errorf("queue low stock alerts: %w", err)
	}
	return len(pending), nil
}

func (j *lowStockJob) clear(ctx context.Context, eventType string, subjects []string) {
	for _, subject := range subjects {
		if err := j.alerts.Clear(ctx, eventType, subject); err != nil {
			j.logg.Warn(j.logg.WithField(ctx, "subject", subject), "failed to clear low stock alert mark")
		}
	}
}
