package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Digigit24/kumsserpbackend-sub001/api/responses"
	"github.com/Digigit24/kumsserpbackend-sub001/api/validators"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/issues"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/receipts"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
)

// IssueMaterials commits stock against an approved indent.
func IssueMaterials(svc issues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		indentID, err := validators.ParseUUIDParam(r, "indentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req issueRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := issues.CreateIssueInput{
			IndentID:        indentID,
			Actor:           actor,
			ExpectedVersion: req.ExpectedVersion,
		}
		for _, line := range req.Lines {
			input.Lines = append(input.Lines, issues.LineInput{
				IndentItemID: uuid.MustParse(line.IndentItemID),
				Quantity:     line.Quantity,
				Remarks:      optionalRemarks(line.Remarks),
			})
		}

		issue, err := svc.CreateIssue(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newIssueView(issue))
	}
}

// IndentIssues lists the material issues raised against an indent.
func IndentIssues(svc issues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requestActor(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		indentID, err := validators.ParseUUIDParam(r, "indentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListByIndent(r.Context(), indentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]issueView, 0, len(list))
		for i := range list {
			views = append(views, newIssueView(&list[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

func IssueDetail(svc issues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requestActor(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		issueID, err := validators.ParseUUIDParam(r, "issueId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		issue, err := svc.Get(r.Context(), issueID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newIssueView(issue))
	}
}

func IssueDispatch(svc issues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		issueID, err := validators.ParseUUIDParam(r, "issueId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req dispatchRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		issue, err := svc.MarkDispatched(r.Context(), issues.DispatchInput{
			IssueID:         issueID,
			Actor:           actor,
			ExpectedVersion: req.ExpectedVersion,
			VehicleRef:      req.VehicleRef,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newIssueView(issue))
	}
}

func IssueInTransit(svc issues.Service, logg *logger.Logger) http.HandlerFunc {
	return issueTransition(svc.MarkInTransit, logg)
}

func IssueCancel(svc issues.Service, logg *logger.Logger) http.HandlerFunc {
	return issueTransition(svc.CancelIssue, logg)
}

func issueTransition(op func(ctx context.Context, input issues.TransitionInput) (*models.MaterialIssue, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		issueID, err := validators.ParseUUIDParam(r, "issueId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req transitionRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		issue, err := op(r.Context(), issues.TransitionInput{
			IssueID:         issueID,
			Actor:           actor,
			ExpectedVersion: req.ExpectedVersion,
			Reason:          validators.SanitizeString(req.Reason, maxReasonLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newIssueView(issue))
	}
}

// IssueReceipt confirms delivery of a dispatched issue.
func IssueReceipt(svc receipts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		issueID, err := validators.ParseUUIDParam(r, "issueId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req receiptRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := receipts.ConfirmInput{
			IssueID:         issueID,
			Actor:           actor,
			ExpectedVersion: req.ExpectedVersion,
			Remarks:         validators.SanitizeString(req.Remarks, maxRemarksLength),
		}
		for _, line := range req.Lines {
			input.Lines = append(input.Lines, receipts.ReceivedLine{
				IssueItemID: uuid.MustParse(line.IssueItemID),
				Quantity:    line.Quantity,
			})
		}

		issue, err := svc.ConfirmReceipt(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newIssueView(issue))
	}
}
