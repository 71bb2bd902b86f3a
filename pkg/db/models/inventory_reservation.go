package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
)

// InventoryReservation is a provisional hold on ledger stock. Commit and
// release draw down its outstanding quantity.
type InventoryReservation struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID       uuid.UUID               `gorm:"column:store_id;type:uuid;not null"`
	ItemID        uuid.UUID               `gorm:"column:item_id;type:uuid;not null"`
	Quantity      decimal.Decimal         `gorm:"column:quantity;type:numeric(18,3);not null"`
	CommittedQty  decimal.Decimal         `gorm:"column:committed_qty;type:numeric(18,3);not null;default:0"`
	ReleasedQty   decimal.Decimal         `gorm:"column:released_qty;type:numeric(18,3);not null;default:0"`
	Status        enums.ReservationStatus `gorm:"column:status;type:reservation_status;not null"`
	ReferenceType *string                 `gorm:"column:reference_type"`
	ReferenceID   *uuid.UUID              `gorm:"column:reference_id;type:uuid"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// Outstanding is the reserved quantity not yet committed or released.
func (r InventoryReservation) Outstanding() decimal.Decimal {
	return r.Quantity.Sub(r.CommittedQty).Sub(r.ReleasedQty)
}
