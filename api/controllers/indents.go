package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Digigit24/kumsserpbackend-sub001/api/responses"
	"github.com/Digigit24/kumsserpbackend-sub001/api/validators"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/indents"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
	pkgerrors "github.com/Digigit24/kumsserpbackend-sub001/pkg/errors"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/logger"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/pagination"
)

// IndentCreate raises a draft indent for the caller.
func IndentCreate(svc indents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createIndentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := indents.CreateInput{
			Actor:         actor,
			CollegeID:     uuid.MustParse(req.CollegeID),
			StoreID:       uuid.MustParse(req.StoreID),
			Justification: validators.SanitizeString(req.Justification, maxReasonLength),
			RequiredBy:    req.RequiredBy,
		}
		if req.Priority != "" {
			input.Priority = enums.IndentPriority(req.Priority)
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, indents.ItemInput{
				ItemID:       uuid.MustParse(item.ItemID),
				RequestedQty: item.RequestedQty,
				Unit:         strings.TrimSpace(item.Unit),
				Remarks:      optionalRemarks(item.Remarks),
			})
		}

		indent, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newIndentView(indent))
	}
}

// IndentList pages through indents, newest first.
func IndentList(svc indents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requestActor(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := indentFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), indents.ListParams{
			Filters: filters,
			Limit:   limit,
			Cursor:  strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := indentListView{Items: make([]indentView, 0, len(list.Items)), Cursor: list.Cursor}
		for i := range list.Items {
			view.Items = append(view.Items, newIndentView(&list.Items[i]))
		}
		responses.WriteSuccess(w, view)
	}
}

func indentFilters(r *http.Request) (indents.ListFilters, error) {
	var filters indents.ListFilters
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseIndentStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").WithDetails(map[string]any{"field": "status"})
		}
		filters.Status = &status
	}
	collegeID, err := validators.ParseQueryUUID(r, "college_id")
	if err != nil {
		return filters, err
	}
	filters.CollegeID = collegeID
	storeID, err := validators.ParseQueryUUID(r, "store_id")
	if err != nil {
		return filters, err
	}
	filters.StoreID = storeID
	includeInactive, err := validators.ParseQueryBool(r, "include_inactive")
	if err != nil {
		return filters, err
	}
	filters.IncludeInactive = includeInactive
	return filters, nil
}

// IndentDetail returns one indent with its items.
func IndentDetail(svc indents.Service, logg *logger.Logger) http.HandlerFunc {
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
		indent, err := svc.Get(r.Context(), indentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newIndentView(indent))
	}
}

// IndentHistory returns the decision trail of an indent.
func IndentHistory(svc indents.Service, logg *logger.Logger) http.HandlerFunc {
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
		history, err := svc.History(r.Context(), indentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDecisionViews(history))
	}
}

type indentTransitionOp func(ctx context.Context, input indents.TransitionInput) (*models.Indent, error)

// IndentTransition adapts submit, cancel and deactivate, which share a body.
func IndentTransition(op indentTransitionOp, logg *logger.Logger) http.HandlerFunc {
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
		var req transitionRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		indent, err := op(r.Context(), indents.TransitionInput{
			IndentID:        indentID,
			Actor:           actor,
			ExpectedVersion: req.ExpectedVersion,
			Reason:          validators.SanitizeString(req.Reason, maxReasonLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newIndentView(indent))
	}
}

type indentDecisionOp func(ctx context.Context, input indents.DecisionInput) (*models.Indent, error)

// IndentDecision records an approve or reject at one approval step.
func IndentDecision(op indentDecisionOp, logg *logger.Logger) http.HandlerFunc {
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
		var req decisionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantities, err := parseApprovedQuantities(req.ApprovedQuantities)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		indent, err := op(r.Context(), indents.DecisionInput{
			IndentID:           indentID,
			Actor:              actor,
			ExpectedVersion:    req.ExpectedVersion,
			Decision:           enums.Decision(req.Decision),
			Reason:             validators.SanitizeString(req.Reason, maxReasonLength),
			ApprovedQuantities: quantities,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newIndentView(indent))
	}
}
