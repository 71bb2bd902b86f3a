package issues

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/Digigit24/kumsserpbackend-sub001/pkg/db"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
)

// Repository persists material issues and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, issue *models.MaterialIssue) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.MaterialIssue, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.MaterialIssue, error)
	ListByIndent(ctx context.Context, indentID uuid.UUID) ([]models.MaterialIssue, error)
	UpdateGuarded(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
	SetReceivedQty(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) error
	// IssuedTotals sums quantity_issued per indent item across every issue of
	// the indent, cancelled ones included.
	IssuedTotals(ctx context.Context, indentID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	FindIndentForUpdate(ctx context.Context, indentID uuid.UUID) (*models.Indent, error)
	AppendDecision(ctx context.Context, decision *models.ApprovalDecision) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a material issue repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, issue *models.MaterialIssue) error {
	return r.db.WithContext(ctx).Create(issue).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MaterialIssue, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.MaterialIssue, error) {
	return r.find(dbpkg.ForUpdate(r.db.WithContext(ctx)), id)
}

func (r *repository) find(query *gorm.DB, id uuid.UUID) (*models.MaterialIssue, error) {
	var issue models.MaterialIssue
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Where("id = ?", id).
		First(&issue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &issue, nil
}

func (r *repository) ListByIndent(ctx context.Context, indentID uuid.UUID) ([]models.MaterialIssue, error) {
	var issues []models.MaterialIssue
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Where("indent_id = ?", indentID).
		Order("created_at ASC, id ASC").
		Find(&issues).Error
	return issues, err
}

func (r *repository) UpdateGuarded(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	values := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = expectedVersion + 1
	values["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.MaterialIssue{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SetReceivedQty(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.MaterialIssueItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"quantity_received": qty,
			"updated_at":        time.Now().UTC(),
		}).Error
}

func (r *repository) IssuedTotals(ctx context.Context, indentID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	type row struct {
		IndentItemID   uuid.UUID
		QuantityIssued decimal.Decimal
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Table("material_issue_items AS mii").
		Select("mii.indent_item_id, mii.quantity_issued").
		Joins("JOIN material_issues AS mi ON mi.id = mii.material_issue_id").
		Where("mi.indent_id = ?", indentID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	totals := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.IndentItemID] = totals[row.IndentItemID].Add(row.QuantityIssued)
	}
	return totals, nil
}

func (r *repository) FindIndentForUpdate(ctx context.Context, indentID uuid.UUID) (*models.Indent, error) {
	var indent models.Indent
	err := dbpkg.ForUpdate(r.db.WithContext(ctx)).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Where("id = ?", indentID).
		First(&indent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &indent, nil
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
