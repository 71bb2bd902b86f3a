package issues

import "github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"

type transitionKey struct {
	from   enums.MaterialIssueStatus
	action enums.ApprovalAction
}

var transitions = map[transitionKey]enums.MaterialIssueStatus{
	{enums.MaterialIssueStatusPrepared, enums.ActionMarkDispatched}:   enums.MaterialIssueStatusDispatched,
	{enums.MaterialIssueStatusDispatched, enums.ActionMarkInTransit}:  enums.MaterialIssueStatusInTransit,
	{enums.MaterialIssueStatusPrepared, enums.ActionCancelIssue}:      enums.MaterialIssueStatusCancelled,
	{enums.MaterialIssueStatusDispatched, enums.ActionConfirmReceipt}: enums.MaterialIssueStatusReceived,
	{enums.MaterialIssueStatusInTransit, enums.ActionConfirmReceipt}:  enums.MaterialIssueStatusReceived,
}

var intendedTarget = map[enums.ApprovalAction]enums.MaterialIssueStatus{
	enums.ActionMarkDispatched: enums.MaterialIssueStatusDispatched,
	enums.ActionMarkInTransit:  enums.MaterialIssueStatusInTransit,
	enums.ActionCancelIssue:    enums.MaterialIssueStatusCancelled,
	enums.ActionConfirmReceipt: enums.MaterialIssueStatusReceived,
}

// Next returns the issue status reached by applying action in from.
func Next(from enums.MaterialIssueStatus, action enums.ApprovalAction) (enums.MaterialIssueStatus, bool) {
	to, ok := transitions[transitionKey{from: from, action: action}]
	return to, ok
}

// IntendedTarget names the status action aims for.
func IntendedTarget(action enums.ApprovalAction) enums.MaterialIssueStatus {
	return intendedTarget[action]
}
