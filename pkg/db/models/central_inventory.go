package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CentralInventoryRecord is the ledger row for one (store, item) pair.
type CentralInventoryRecord struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID          uuid.UUID       `gorm:"column:store_id;type:uuid;not null;uniqueIndex:ux_central_inventory_store_item"`
	ItemID           uuid.UUID       `gorm:"column:item_id;type:uuid;not null;uniqueIndex:ux_central_inventory_store_item"`
	QuantityOnHand   decimal.Decimal `gorm:"column:quantity_on_hand;type:numeric(18,3);not null;default:0"`
	QuantityReserved decimal.Decimal `gorm:"column:quantity_reserved;type:numeric(18,3);not null;default:0"`
	MinStockLevel    decimal.Decimal `gorm:"column:min_stock_level;type:numeric(18,3);not null;default:0"`
	ReorderPoint     decimal.Decimal `gorm:"column:reorder_point;type:numeric(18,3);not null;default:0"`
	Unit             string          `gorm:"column:unit;not null;default:''"`
	Version          int             `gorm:"column:version;not null;default:1"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (CentralInventoryRecord) TableName() string {
	return "central_inventory"
}

// Available is on-hand stock not held by a reservation.
func (r CentralInventoryRecord) Available() decimal.Decimal {
	return r.QuantityOnHand.Sub(r.QuantityReserved)
}
