package enums

import (
	"database/sql/driver"
	"fmt"
)

// MaterialIssueStatus tracks a dispatch record from the central store.
type MaterialIssueStatus string

const (
	MaterialIssueStatusPrepared   MaterialIssueStatus = "prepared"
	MaterialIssueStatusDispatched MaterialIssueStatus = "dispatched"
	MaterialIssueStatusInTransit  MaterialIssueStatus = "in_transit"
	MaterialIssueStatusReceived   MaterialIssueStatus = "received"
	MaterialIssueStatusCancelled  MaterialIssueStatus = "cancelled"
)

var validMaterialIssueStatuses = []MaterialIssueStatus{
	MaterialIssueStatusPrepared,
	MaterialIssueStatusDispatched,
	MaterialIssueStatusInTransit,
	MaterialIssueStatusReceived,
	MaterialIssueStatusCancelled,
}

// String implements fmt.Stringer.
func (s MaterialIssueStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MaterialIssueStatus.
func (s MaterialIssueStatus) IsValid() bool {
	for _, candidate := range validMaterialIssueStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer.
func (s MaterialIssueStatus) Value() (driver.Value, error) {
	return valueEnum(s, s.IsValid())
}

// Scan implements sql.Scanner.
func (s *MaterialIssueStatus) Scan(value any) error {
	return scanEnum(s, value, ParseMaterialIssueStatus)
}

// ParseMaterialIssueStatus converts raw input into a MaterialIssueStatus.
func ParseMaterialIssueStatus(value string) (MaterialIssueStatus, error) {
	for _, candidate := range validMaterialIssueStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid material issue status %q", value)
}
