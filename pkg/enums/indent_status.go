package enums

import (
	"database/sql/driver"
	"fmt"
)

// IndentStatus tracks the lifecycle of a material indent.
type IndentStatus string

const (
	IndentStatusDraft                  IndentStatus = "draft"
	IndentStatusPendingCollegeApproval IndentStatus = "pending_college_approval"
	IndentStatusPendingSuperAdmin      IndentStatus = "pending_super_admin"
	IndentStatusSuperAdminApproved     IndentStatus = "super_admin_approved"
	IndentStatusRejectedByCollege      IndentStatus = "rejected_by_college"
	IndentStatusRejectedBySuperAdmin   IndentStatus = "rejected_by_super_admin"
	IndentStatusPartiallyFulfilled     IndentStatus = "partially_fulfilled"
	IndentStatusFulfilled              IndentStatus = "fulfilled"
	IndentStatusCancelled              IndentStatus = "cancelled"
)

var validIndentStatuses = []IndentStatus{
	IndentStatusDraft,
	IndentStatusPendingCollegeApproval,
	IndentStatusPendingSuperAdmin,
	IndentStatusSuperAdminApproved,
	IndentStatusRejectedByCollege,
	IndentStatusRejectedBySuperAdmin,
	IndentStatusPartiallyFulfilled,
	IndentStatusFulfilled,
	IndentStatusCancelled,
}

// String implements fmt.Stringer.
func (s IndentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known IndentStatus.
func (s IndentStatus) IsValid() bool {
	for _, candidate := range validIndentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave this status.
func (s IndentStatus) IsTerminal() bool {
	switch s {
	case IndentStatusRejectedByCollege,
		IndentStatusRejectedBySuperAdmin,
		IndentStatusFulfilled,
		IndentStatusCancelled:
		return true
	default:
		return false
	}
}

// Value implements driver.Valuer.
func (s IndentStatus) Value() (driver.Value, error) {
	return valueEnum(s, s.IsValid())
}

// Scan implements sql.Scanner.
func (s *IndentStatus) Scan(value any) error {
	return scanEnum(s, value, ParseIndentStatus)
}

// ParseIndentStatus converts raw input into an IndentStatus.
func ParseIndentStatus(value string) (IndentStatus, error) {
	for _, candidate := range validIndentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid indent status %q", value)
}
