package enums

import (
	"database/sql/driver"
	"fmt"
)

// ApprovalAction names a guarded operation presented to the approval gate and
// recorded on every approval decision.
type ApprovalAction string

const (
	ActionCreateIndent      ApprovalAction = "create_indent"
	ActionSubmit            ApprovalAction = "submit"
	ActionCollegeApprove    ApprovalAction = "college_approve"
	ActionCollegeReject     ApprovalAction = "college_reject"
	ActionSuperAdminApprove ApprovalAction = "super_admin_approve"
	ActionSuperAdminReject  ApprovalAction = "super_admin_reject"
	ActionCancel            ApprovalAction = "cancel"
	ActionDeactivate        ApprovalAction = "deactivate"
	ActionIssueMaterials    ApprovalAction = "issue_materials"
	ActionMarkDispatched    ApprovalAction = "mark_dispatched"
	ActionMarkInTransit     ApprovalAction = "mark_in_transit"
	ActionCancelIssue       ApprovalAction = "cancel_issue"
	ActionConfirmReceipt    ApprovalAction = "confirm_receipt"
	ActionAdjustStock       ApprovalAction = "adjust_stock"
	ActionSetThresholds     ApprovalAction = "set_thresholds"
	ActionRecordFulfillment ApprovalAction = "record_fulfillment"
)

var validApprovalActions = []ApprovalAction{
	ActionCreateIndent,
	ActionSubmit,
	ActionCollegeApprove,
	ActionCollegeReject,
	ActionSuperAdminApprove,
	ActionSuperAdminReject,
	ActionCancel,
	ActionDeactivate,
	ActionIssueMaterials,
	ActionMarkDispatched,
	ActionMarkInTransit,
	ActionCancelIssue,
	ActionConfirmReceipt,
	ActionAdjustStock,
	ActionSetThresholds,
	ActionRecordFulfillment,
}

func (a ApprovalAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ApprovalAction.
func (a ApprovalAction) IsValid() bool {
	for _, candidate := range validApprovalActions {
		if candidate == a {
			return true
		}
	}
	return false
}

func (a ApprovalAction) Value() (driver.Value, error) {
	return valueEnum(a, a.IsValid())
}

func (a *ApprovalAction) Scan(value any) error {
	return scanEnum(a, value, ParseApprovalAction)
}

// ParseApprovalAction converts raw input into an ApprovalAction.
func ParseApprovalAction(value string) (ApprovalAction, error) {
	for _, candidate := range validApprovalActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approval action %q", value)
}
