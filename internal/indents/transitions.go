package indents

import "github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"

type transitionKey struct {
	from   enums.IndentStatus
	action enums.ApprovalAction
}

// transitions is the complete indent state machine. A pair missing from the
// table is an invalid transition.
var transitions = map[transitionKey]enums.IndentStatus{
	{enums.IndentStatusDraft, enums.ActionSubmit}:                          enums.IndentStatusPendingCollegeApproval,
	{enums.IndentStatusPendingCollegeApproval, enums.ActionCollegeApprove}: enums.IndentStatusPendingSuperAdmin,
	{enums.IndentStatusPendingCollegeApproval, enums.ActionCollegeReject}:  enums.IndentStatusRejectedByCollege,
	{enums.IndentStatusPendingSuperAdmin, enums.ActionSuperAdminApprove}:   enums.IndentStatusSuperAdminApproved,
	{enums.IndentStatusPendingSuperAdmin, enums.ActionSuperAdminReject}:    enums.IndentStatusRejectedBySuperAdmin,
	{enums.IndentStatusDraft, enums.ActionCancel}:                          enums.IndentStatusCancelled,
	{enums.IndentStatusPendingCollegeApproval, enums.ActionCancel}:         enums.IndentStatusCancelled,
	{enums.IndentStatusPendingSuperAdmin, enums.ActionCancel}:              enums.IndentStatusCancelled,
}

// intendedTarget names the status an action aims for, for error details.
var intendedTarget = map[enums.ApprovalAction]enums.IndentStatus{
	enums.ActionSubmit:            enums.IndentStatusPendingCollegeApproval,
	enums.ActionCollegeApprove:    enums.IndentStatusPendingSuperAdmin,
	enums.ActionCollegeReject:     enums.IndentStatusRejectedByCollege,
	enums.ActionSuperAdminApprove: enums.IndentStatusSuperAdminApproved,
	enums.ActionSuperAdminReject:  enums.IndentStatusRejectedBySuperAdmin,
	enums.ActionCancel:            enums.IndentStatusCancelled,
	enums.ActionRecordFulfillment: enums.IndentStatusPartiallyFulfilled,
}

// Next returns the status reached by applying action in from.
func Next(from enums.IndentStatus, action enums.ApprovalAction) (enums.IndentStatus, bool) {
	to, ok := transitions[transitionKey{from: from, action: action}]
	return to, ok
}

// fulfillmentTarget moves an approved indent forward; it never moves backward.
func fulfillmentTarget(from enums.IndentStatus, complete bool) (enums.IndentStatus, bool) {
	switch from {
	case enums.IndentStatusSuperAdminApproved, enums.IndentStatusPartiallyFulfilled:
	default:
		return "", false
	}
	if complete {
		return enums.IndentStatusFulfilled, true
	}
	return enums.IndentStatusPartiallyFulfilled, true
}

// Issuable reports whether material may be issued against an indent in status.
func Issuable(status enums.IndentStatus) bool {
	return status == enums.IndentStatusSuperAdminApproved || status == enums.IndentStatusPartiallyFulfilled
}
