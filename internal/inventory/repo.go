package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/Digigit24/kumsserpbackend-sub001/pkg/db"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/pagination"
)

// Repository persists ledger records, reservations and the audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRecord(ctx context.Context, storeID, itemID uuid.UUID) (*models.CentralInventoryRecord, error)
	FindRecordForUpdate(ctx context.Context, storeID, itemID uuid.UUID) (*models.CentralInventoryRecord, error)
	CreateRecord(ctx context.Context, record *models.CentralInventoryRecord) error
	UpdateRecord(ctx context.Context, record *models.CentralInventoryRecord, expectedVersion int) (bool, error)
	ListRecords(ctx context.Context, storeID uuid.UUID) ([]models.CentralInventoryRecord, error)
	ListLowStock(ctx context.Context, storeID *uuid.UUID) ([]models.CentralInventoryRecord, error)
	FindReservation(ctx context.Context, id uuid.UUID) (*models.InventoryReservation, error)
	CreateReservation(ctx context.Context, reservation *models.InventoryReservation) error
	UpdateReservation(ctx context.Context, reservation *models.InventoryReservation) error
	AppendTransaction(ctx context.Context, txn *models.InventoryTransaction) error
	ListTransactions(ctx context.Context, storeID, itemID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.InventoryTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindRecord(ctx context.Context, storeID, itemID uuid.UUID) (*models.CentralInventoryRecord, error) {
	return r.findRecord(r.db.WithContext(ctx), storeID, itemID)
}

func (r *repository) FindRecordForUpdate(ctx context.Context, storeID, itemID uuid.UUID) (*models.CentralInventoryRecord, error) {
	return r.findRecord(dbpkg.ForUpdate(r.db.WithContext(ctx)), storeID, itemID)
}

func (r *repository) findRecord(query *gorm.DB, storeID, itemID uuid.UUID) (*models.CentralInventoryRecord, error) {
	var record models.CentralInventoryRecord
	err := query.Where("store_id = ? AND item_id = ?", storeID, itemID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) CreateRecord(ctx context.Context, record *models.CentralInventoryRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Version == 0 {
		record.Version = 1
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// UpdateRecord writes the mutable columns only while the stored version still
// equals expectedVersion, then bumps the version.
func (r *repository) UpdateRecord(ctx context.Context, record *models.CentralInventoryRecord, expectedVersion int) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.CentralInventoryRecord{}).
		Where("id = ? AND version = ?", record.ID, expectedVersion).
		Updates(map[string]any{
			"quantity_on_hand":  record.QuantityOnHand,
			"quantity_reserved": record.QuantityReserved,
			"min_stock_level":   record.MinStockLevel,
			"reorder_point":     record.ReorderPoint,
			"unit":              record.Unit,
			"version":           expectedVersion + 1,
			"updated_at":        now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	record.Version = expectedVersion + 1
	record.UpdatedAt = now
	return true, nil
}

func (r *repository) ListRecords(ctx context.Context, storeID uuid.UUID) ([]models.CentralInventoryRecord, error) {
	var records []models.CentralInventoryRecord
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("item_id ASC").
		Find(&records).Error
	return records, err
}

func (r *repository) ListLowStock(ctx context.Context, storeID *uuid.UUID) ([]models.CentralInventoryRecord, error) {
	query := r.db.WithContext(ctx).
		Where("quantity_on_hand - quantity_reserved <= reorder_point").
		Where("reorder_point > 0")
	if storeID != nil {
		query = query.Where("store_id = ?", *storeID)
	}
	var records []models.CentralInventoryRecord
	err := query.Order("store_id ASC, item_id ASC").Find(&records).Error
	return records, err
}

func (r *repository) FindReservation(ctx context.Context, id uuid.UUID) (*models.InventoryReservation, error) {
	var reservation models.InventoryReservation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

func (r *repository) CreateReservation(ctx context.Context, reservation *models.InventoryReservation) error {
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *repository) UpdateReservation(ctx context.Context, reservation *models.InventoryReservation) error {
	reservation.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.InventoryReservation{}).
		Where("id = ?", reservation.ID).
		Updates(map[string]any{
			"committed_qty": reservation.CommittedQty,
			"released_qty":  reservation.ReleasedQty,
			"status":        reservation.Status,
			"updated_at":    reservation.UpdatedAt,
		}).Error
}

func (r *repository) AppendTransaction(ctx context.Context, txn *models.InventoryTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, storeID, itemID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.InventoryTransaction, error) {
	var txns []models.InventoryTransaction
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND item_id = ?", storeID, itemID).
		Scopes(pagination.Keyset(cursor, limit)).
		Find(&txns).Error
	return txns, err
}
