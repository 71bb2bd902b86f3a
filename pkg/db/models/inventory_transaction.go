package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
)

// InventoryTransaction is the append-only audit trail of ledger mutations.
type InventoryTransaction struct {
	ID            uuid.UUID                      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID       uuid.UUID                      `gorm:"column:store_id;type:uuid;not null"`
	ItemID        uuid.UUID                      `gorm:"column:item_id;type:uuid;not null"`
	Type          enums.InventoryTransactionType `gorm:"column:type;type:inventory_transaction_type;not null"`
	Quantity      decimal.Decimal                `gorm:"column:quantity;type:numeric(18,3);not null"`
	OnHandAfter   decimal.Decimal                `gorm:"column:on_hand_after;type:numeric(18,3);not null"`
	ReservedAfter decimal.Decimal                `gorm:"column:reserved_after;type:numeric(18,3);not null"`
	Reason        *string                        `gorm:"column:reason"`
	ReferenceType *string                        `gorm:"column:reference_type"`
	ReferenceID   *uuid.UUID                     `gorm:"column:reference_id;type:uuid"`
	ActorID       *uuid.UUID                     `gorm:"column:actor_id;type:uuid"`
	CreatedAt     time.Time                      `gorm:"column:created_at;autoCreateTime"`
}
