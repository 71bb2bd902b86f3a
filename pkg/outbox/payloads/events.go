package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
)

// IndentCreatedEvent announces a new draft indent.
type IndentCreatedEvent struct {
	IndentID    uuid.UUID `json:"indent_id"`
	CollegeID   uuid.UUID `json:"college_id"`
	StoreID     uuid.UUID `json:"store_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	ItemCount   int       `json:"item_count"`
}

// IndentStatusEvent carries any indent status transition (submit, decisions,
// cancel, fulfillment progress).
type IndentStatusEvent struct {
	IndentID  uuid.UUID            `json:"indent_id"`
	CollegeID uuid.UUID            `json:"college_id"`
	StoreID   uuid.UUID            `json:"store_id"`
	Action    enums.ApprovalAction `json:"action"`
	From      enums.IndentStatus   `json:"from"`
	To        enums.IndentStatus   `json:"to"`
	Reason    *string              `json:"reason,omitempty"`
}

// MaterialIssuedEvent is emitted when stock is committed against an indent.
type MaterialIssuedEvent struct {
	IssueID      uuid.UUID          `json:"issue_id"`
	IndentID     uuid.UUID          `json:"indent_id"`
	StoreID      uuid.UUID          `json:"store_id"`
	CollegeID    uuid.UUID          `json:"college_id"`
	Lines        []IssuedLine       `json:"lines"`
	IndentStatus enums.IndentStatus `json:"indent_status"`
}

// IssuedLine is one committed line of a material issue.
type IssuedLine struct {
	IndentItemID uuid.UUID       `json:"indent_item_id"`
	ItemID       uuid.UUID       `json:"item_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// MaterialIssueStatusEvent carries dispatch, transit, cancel and receipt transitions.
type MaterialIssueStatusEvent struct {
	IssueID   uuid.UUID                 `json:"issue_id"`
	IndentID  uuid.UUID                 `json:"indent_id"`
	CollegeID uuid.UUID                 `json:"college_id"`
	From      enums.MaterialIssueStatus `json:"from"`
	To        enums.MaterialIssueStatus `json:"to"`
	At        time.Time                 `json:"at"`
}

// ReceiptDiscrepancyEvent reports lines received short of what was issued.
type ReceiptDiscrepancyEvent struct {
	IssueID  uuid.UUID         `json:"issue_id"`
	IndentID uuid.UUID         `json:"indent_id"`
	StoreID  uuid.UUID         `json:"store_id"`
	Lines    []DiscrepancyLine `json:"lines"`
	Note     string            `json:"note"`
}

// DiscrepancyLine is the shortfall on one issue line.
type DiscrepancyLine struct {
	IssueItemID uuid.UUID       `json:"issue_item_id"`
	ItemID      uuid.UUID       `json:"item_id"`
	Issued      decimal.Decimal `json:"issued"`
	Received    decimal.Decimal `json:"received"`
	Shortfall   decimal.Decimal `json:"shortfall"`
}

// InventoryAdjustedEvent is emitted for administrative ledger corrections.
type InventoryAdjustedEvent struct {
	StoreID       uuid.UUID       `json:"store_id"`
	ItemID        uuid.UUID       `json:"item_id"`
	Delta         decimal.Decimal `json:"delta"`
	OnHandAfter   decimal.Decimal `json:"on_hand_after"`
	ReservedAfter decimal.Decimal `json:"reserved_after"`
	Reason        string          `json:"reason"`
}

// InventoryLowStockEvent flags a record at or below its reorder point.
type InventoryLowStockEvent struct {
	StoreID       uuid.UUID       `json:"store_id"`
	ItemID        uuid.UUID       `json:"item_id"`
	Available     decimal.Decimal `json:"available"`
	ReorderPoint  decimal.Decimal `json:"reorder_point"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	BelowMinimum  bool            `json:"below_minimum"`
}
