package enums

import (
	"database/sql/driver"
	"fmt"
)

// InventoryTransactionType classifies ledger audit rows.
type InventoryTransactionType string

const (
	InventoryTxnReserve InventoryTransactionType = "reserve"
	InventoryTxnCommit  InventoryTransactionType = "commit"
	InventoryTxnRelease InventoryTransactionType = "release"
	InventoryTxnAdjust  InventoryTransactionType = "adjust"
)

var validInventoryTransactionTypes = []InventoryTransactionType{
	InventoryTxnReserve,
	InventoryTxnCommit,
	InventoryTxnRelease,
	InventoryTxnAdjust,
}

func (t InventoryTransactionType) String() string {
	return string(t)
}

func (t InventoryTransactionType) IsValid() bool {
	for _, candidate := range validInventoryTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func (t InventoryTransactionType) Value() (driver.Value, error) {
	return valueEnum(t, t.IsValid())
}

func (t *InventoryTransactionType) Scan(value any) error {
	return scanEnum(t, value, ParseInventoryTransactionType)
}

// ParseInventoryTransactionType converts raw input into an InventoryTransactionType.
func ParseInventoryTransactionType(value string) (InventoryTransactionType, error) {
	for _, candidate := range validInventoryTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory transaction type %q", value)
}
