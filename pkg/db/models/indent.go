package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
)

// Indent is a material requisition raised by a college against a central store.
type Indent struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CollegeID     uuid.UUID            `gorm:"column:college_id;type:uuid;not null"`
	StoreID       uuid.UUID            `gorm:"column:store_id;type:uuid;not null"`
	Status        enums.IndentStatus   `gorm:"column:status;type:indent_status;not null"`
	Priority      enums.IndentPriority `gorm:"column:priority;type:indent_priority;not null"`
	Justification string               `gorm:"column:justification;not null"`
	RequiredBy    *time.Time           `gorm:"column:required_by;type:date"`
	RequesterID   uuid.UUID            `gorm:"column:requester_id;type:uuid;not null"`
	IsActive      bool                 `gorm:"column:is_active;not null;default:true"`
	Version       int                  `gorm:"column:version;not null;default:1"`
	SubmittedAt   *time.Time           `gorm:"column:submitted_at"`
	ApprovedAt    *time.Time           `gorm:"column:approved_at"`
	FulfilledAt   *time.Time           `gorm:"column:fulfilled_at"`
	CancelledAt   *time.Time           `gorm:"column:cancelled_at"`
	Items         []IndentItem         `gorm:"foreignKey:IndentID;constraint:OnDelete:RESTRICT"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// IndentItem is one requested line of an indent.
type IndentItem struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	IndentID     uuid.UUID        `gorm:"column:indent_id;type:uuid;not null"`
	LineNo       int              `gorm:"column:line_no;not null"`
	ItemID       uuid.UUID        `gorm:"column:item_id;type:uuid;not null"`
	RequestedQty decimal.Decimal  `gorm:"column:requested_qty;type:numeric(18,3);not null"`
	Unit         string           `gorm:"column:unit;not null"`
	ApprovedQty  *decimal.Decimal `gorm:"column:approved_qty;type:numeric(18,3)"`
	Remarks      *string          `gorm:"column:remarks"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectiveApprovedQty is the approved quantity, or the requested quantity
// while no approval step has set one.
func (i IndentItem) EffectiveApprovedQty() decimal.Decimal {
	if i.ApprovedQty != nil {
		return *i.ApprovedQty
	}
	return i.RequestedQty
}
