package enums

import (
	"database/sql/driver"
	"fmt"
)

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateIndent          OutboxAggregateType = "indent"
	AggregateMaterialIssue   OutboxAggregateType = "material_issue"
	AggregateInventoryRecord OutboxAggregateType = "inventory_record"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateIndent,
	AggregateMaterialIssue,
	AggregateInventoryRecord,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

func (a OutboxAggregateType) Value() (driver.Value, error) {
	return valueEnum(a, a.IsValid())
}

func (a *OutboxAggregateType) Scan(value any) error {
	return scanEnum(a, value, ParseOutboxAggregateType)
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventIndentCreated               OutboxEventType = "indent_created"
	EventIndentSubmitted             OutboxEventType = "indent_submitted"
	EventIndentDecided               OutboxEventType = "indent_decided"
	EventIndentCancelled             OutboxEventType = "indent_cancelled"
	EventIndentFulfillmentProgressed OutboxEventType = "indent_fulfillment_progressed"
	EventIndentDeactivated           OutboxEventType = "indent_deactivated"
	EventMaterialIssued              OutboxEventType = "material_issued"
	EventMaterialIssueDispatched     OutboxEventType = "material_issue_dispatched"
	EventMaterialIssueInTransit      OutboxEventType = "material_issue_in_transit"
	EventMaterialIssueCancelled      OutboxEventType = "material_issue_cancelled"
	EventMaterialIssueReceived       OutboxEventType = "material_issue_received"
	EventReceiptDiscrepancyReported  OutboxEventType = "receipt_discrepancy_reported"
	EventInventoryAdjusted           OutboxEventType = "inventory_adjusted"
	EventInventoryLowStock           OutboxEventType = "inventory_low_stock"
)

var validOutboxEventTypes = []OutboxEventType{
	EventIndentCreated,
	EventIndentSubmitted,
	EventIndentDecided,
	EventIndentCancelled,
	EventIndentFulfillmentProgressed,
	EventIndentDeactivated,
	EventMaterialIssued,
	EventMaterialIssueDispatched,
	EventMaterialIssueInTransit,
	EventMaterialIssueCancelled,
	EventMaterialIssueReceived,
	EventReceiptDiscrepancyReported,
	EventInventoryAdjusted,
	EventInventoryLowStock,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

func (e OutboxEventType) Value() (driver.Value, error) {
	return valueEnum(e, e.IsValid())
}

func (e *OutboxEventType) Scan(value any) error {
	return scanEnum(e, value, ParseOutboxEventType)
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
