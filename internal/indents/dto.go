package indents

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Digigit24/kumsserpbackend-sub001/internal/approval"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
)

// CreateInput describes a new draft indent.
type CreateInput struct {
	Actor         approval.Actor
	CollegeID     uuid.UUID
	StoreID       uuid.UUID
	Priority      enums.IndentPriority
	Justification string
	RequiredBy    *time.Time
	Items         []ItemInput
}

// ItemInput is one requested line.
type ItemInput struct {
	ItemID       uuid.UUID
	RequestedQty decimal.Decimal
	Unit         string
	Remarks      *string
}

// TransitionInput drives submit, cancel and deactivate. ExpectedVersion, when
// set, must match the stored version or the call fails as stale.
type TransitionInput struct {
	IndentID        uuid.UUID
	Actor           approval.Actor
	ExpectedVersion *int
	Reason          string
}

// DecisionInput drives the college and super admin approval steps.
// ApprovedQuantities overrides approved_qty per indent item id on approve.
type DecisionInput struct {
	IndentID           uuid.UUID
	Actor              approval.Actor
	ExpectedVersion    *int
	Decision           enums.Decision
	Reason             string
	ApprovedQuantities map[uuid.UUID]decimal.Decimal
}

// FulfillmentInput records issue progress from the dispatcher.
type FulfillmentInput struct {
	IndentID        uuid.UUID
	Actor           approval.Actor
	Complete        bool
	MaterialIssueID *uuid.UUID
}

// ListParams configures an indent listing.
type ListParams struct {
	Filters ListFilters
	Limit   int
	Cursor  string
}

// ListResult is one page of indents.
type ListResult struct {
	Items  []models.Indent `json:"items"`
	Cursor string          `json:"cursor"`
}
