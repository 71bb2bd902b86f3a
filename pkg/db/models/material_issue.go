package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
)

// MaterialIssue records stock committed from the central store against one indent.
type MaterialIssue struct {
	ID              uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	IndentID        uuid.UUID                 `gorm:"column:indent_id;type:uuid;not null"`
	StoreID         uuid.UUID                 `gorm:"column:store_id;type:uuid;not null"`
	CollegeID       uuid.UUID                 `gorm:"column:college_id;type:uuid;not null"`
	Status          enums.MaterialIssueStatus `gorm:"column:status;type:material_issue_status;not null"`
	IssuedBy        uuid.UUID                 `gorm:"column:issued_by;type:uuid;not null"`
	IssueDate       time.Time                 `gorm:"column:issue_date;not null"`
	DispatchDate    *time.Time                `gorm:"column:dispatch_date"`
	DispatchedBy    *uuid.UUID                `gorm:"column:dispatched_by;type:uuid"`
	VehicleRef      *string                   `gorm:"column:vehicle_ref"`
	InTransitAt     *time.Time                `gorm:"column:in_transit_at"`
	ReceiptDate     *time.Time                `gorm:"column:receipt_date"`
	ReceivedBy      *uuid.UUID                `gorm:"column:received_by;type:uuid"`
	DiscrepancyNote *string                   `gorm:"column:discrepancy_note"`
	CancelReason    *string                   `gorm:"column:cancel_reason"`
	Version         int                       `gorm:"column:version;not null;default:1"`
	Items           []MaterialIssueItem       `gorm:"foreignKey:MaterialIssueID;constraint:OnDelete:RESTRICT"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// MaterialIssueItem is one committed line of a material issue.
type MaterialIssueItem struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MaterialIssueID  uuid.UUID        `gorm:"column:material_issue_id;type:uuid;not null"`
	LineNo           int              `gorm:"column:line_no;not null"`
	IndentItemID     uuid.UUID        `gorm:"column:indent_item_id;type:uuid;not null"`
	ItemID           uuid.UUID        `gorm:"column:item_id;type:uuid;not null"`
	QuantityIssued   decimal.Decimal  `gorm:"column:quantity_issued;type:numeric(18,3);not null"`
	QuantityReceived *decimal.Decimal `gorm:"column:quantity_received;type:numeric(18,3)"`
	ReservationID    uuid.UUID        `gorm:"column:reservation_id;type:uuid;not null"`
	Remarks          *string          `gorm:"column:remarks"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
