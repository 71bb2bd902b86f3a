package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Digigit24/kumsserpbackend-sub001/api/middleware"
	"github.com/Digigit24/kumsserpbackend-sub001/api/validators"
	"github.com/Digigit24/kumsserpbackend-sub001/internal/approval"
	pkgerrors "github.com/Digigit24/kumsserpbackend-sub001/pkg/errors"
)

const (
	maxReasonLength  = 1000
	maxRemarksLength = 500
)

type createIndentRequest struct {
	CollegeID     string              `json:"college_id" validate:"required,uuid"`
	StoreID       string              `json:"store_id" validate:"required,uuid"`
	Priority      string              `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Justification string              `json:"justification"`
	RequiredBy    *time.Time          `json:"required_by"`
	Items         []indentItemRequest `json:"items" validate:"required,min=1,dive"`
}

type indentItemRequest struct {
	ItemID       string          `json:"item_id" validate:"required,uuid"`
	RequestedQty decimal.Decimal `json:"requested_qty" validate:"qty"`
	Unit         string          `json:"unit" validate:"required"`
	Remarks      *string         `json:"remarks"`
}

type transitionRequest struct {
	ExpectedVersion *int   `json:"expected_version" validate:"omitempty,min=1"`
	Reason          string `json:"reason"`
}

type decisionRequest struct {
	Decision           string                     `json:"decision" validate:"required,oneof=approve reject"`
	ExpectedVersion    *int                       `json:"expected_version" validate:"omitempty,min=1"`
	Reason             string                     `json:"reason"`
	ApprovedQuantities map[string]decimal.Decimal `json:"approved_quantities" validate:"dive,qty_nonneg"`
}

type issueRequest struct {
	ExpectedVersion *int               `json:"expected_version" validate:"omitempty,min=1"`
	Lines           []issueLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type issueLineRequest struct {
	IndentItemID string          `json:"indent_item_id" validate:"required,uuid"`
	Quantity     decimal.Decimal `json:"quantity" validate:"qty"`
	Remarks      *string         `json:"remarks"`
}

type dispatchRequest struct {
	ExpectedVersion *int    `json:"expected_version" validate:"omitempty,min=1"`
	VehicleRef      *string `json:"vehicle_ref"`
}

type receiptRequest struct {
	ExpectedVersion *int                 `json:"expected_version" validate:"omitempty,min=1"`
	Lines           []receiptLineRequest `json:"lines" validate:"required,min=1,dive"`
	Remarks         string               `json:"remarks"`
}

type receiptLineRequest struct {
	IssueItemID string          `json:"issue_item_id" validate:"required,uuid"`
	Quantity    decimal.Decimal `json:"quantity" validate:"qty_nonneg"`
}

type adjustRequest struct {
	Delta  decimal.Decimal `json:"delta" validate:"qty_delta"`
	Reason string          `json:"reason" validate:"required"`
	Unit   string          `json:"unit"`
}

type thresholdRequest struct {
	MinStockLevel decimal.Decimal `json:"min_stock_level" validate:"qty_nonneg"`
	ReorderPoint  decimal.Decimal `json:"reorder_point" validate:"qty_nonneg"`
}

func requestActor(r *http.Request) (approval.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return approval.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	return actor, nil
}

// decodeOptionalBody accepts an empty body for transitions that carry no
// required fields.
func decodeOptionalBody(r *http.Request, dest any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return validators.DecodeJSONBody(r, dest)
}

func optionalRemarks(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := validators.SanitizeString(*value, maxRemarksLength)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseApprovedQuantities(raw map[string]decimal.Decimal) (map[uuid.UUID]decimal.Decimal, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(raw))
	for key, qty := range raw {
		id, err := uuid.Parse(strings.TrimSpace(key))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "approved_quantities keys must be indent item ids").
				WithDetails(map[string]any{"field": "approved_quantities", "key": key})
		}
		out[id] = qty
	}
	return out, nil
}
