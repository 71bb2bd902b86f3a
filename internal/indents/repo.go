package indents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/Digigit24/kumsserpbackend-sub001/pkg/db"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/pagination"
)

// Repository persists indents, their items and the decision trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, indent *models.Indent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Indent, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Indent, error)
	UpdateGuarded(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
	SetApprovedQty(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) error
	AppendDecision(ctx context.Context, decision *models.ApprovalDecision) error
	ListDecisions(ctx context.Context, indentID uuid.UUID) ([]models.ApprovalDecision, error)
	List(ctx context.Context, filters ListFilters, limit int, cursor *pagination.Cursor) ([]models.Indent, error)
}

// ListFilters narrows indent listings.
type ListFilters struct {
	Status          *enums.IndentStatus
	CollegeID       *uuid.UUID
	StoreID         *uuid.UUID
	IncludeInactive bool
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an indent repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, indent *models.Indent) error {
	return r.db.WithContext(ctx).Create(indent).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Indent, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Indent, error) {
	return r.find(dbpkg.ForUpdate(r.db.WithContext(ctx)), id)
}

func (r *repository) find(query *gorm.DB, id uuid.UUID) (*models.Indent, error) {
	var indent models.Indent
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Where("id = ?", id).
		First(&indent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &indent, nil
}

// UpdateGuarded applies updates and bumps the version only while the stored
// version equals expectedVersion.
func (r *repository) UpdateGuarded(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	values := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = expectedVersion + 1
	values["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Indent{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SetApprovedQty(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.IndentItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"approved_qty": qty,
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (r *repository) AppendDecision(ctx context.Context, decision *models.ApprovalDecision) error {
	if decision.ID == uuid.Nil {
		decision.ID = uuid.New()
	}
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(decision).Error
}

func (r *repository) ListDecisions(ctx context.Context, indentID uuid.UUID) ([]models.ApprovalDecision, error) {
	var decisions []models.ApprovalDecision
	err := r.db.WithContext(ctx).
		Where("indent_id = ?", indentID).
		Order("created_at ASC, id ASC").
		Find(&decisions).Error
	return decisions, err
}

func (r *repository) List(ctx context.Context, filters ListFilters, limit int, cursor *pagination.Cursor) ([]models.Indent, error) {
	query := r.db.WithContext(ctx).Model(&models.Indent{})
	if !filters.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CollegeID != nil {
		query = query.Where("college_id = ?", *filters.CollegeID)
	}
	if filters.StoreID != nil {
		query = query.Where("store_id = ?", *filters.StoreID)
	}
	var indents []models.Indent
	err := query.
		Scopes(pagination.Keyset(cursor, limit)).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Find(&indents).Error
	return indents, err
}
