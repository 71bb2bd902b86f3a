package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/db/models"
	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
)

type indentItemView struct {
	ID           uuid.UUID        `json:"id"`
	LineNo       int              `json:"line_no"`
	ItemID       uuid.UUID        `json:"item_id"`
	RequestedQty decimal.Decimal  `json:"requested_qty"`
	ApprovedQty  *decimal.Decimal `json:"approved_qty,omitempty"`
	Unit         string           `json:"unit"`
	Remarks      *string          `json:"remarks,omitempty"`
}

type indentView struct {
	ID            uuid.UUID            `json:"id"`
	CollegeID     uuid.UUID            `json:"college_id"`
	StoreID       uuid.UUID            `json:"store_id"`
	Status        enums.IndentStatus   `json:"status"`
	Priority      enums.IndentPriority `json:"priority"`
	Justification string               `json:"justification"`
	RequiredBy    *time.Time           `json:"required_by,omitempty"`
	RequesterID   uuid.UUID            `json:"requester_id"`
	IsActive      bool                 `json:"is_active"`
	Version       int                  `json:"version"`
	SubmittedAt   *time.Time           `json:"submitted_at,omitempty"`
	ApprovedAt    *time.Time           `json:"approved_at,omitempty"`
	FulfilledAt   *time.Time           `json:"fulfilled_at,omitempty"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
	Items         []indentItemView     `json:"items"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type indentListView struct {
	Items  []indentView `json:"items"`
	Cursor string       `json:"cursor"`
}

type decisionView struct {
	ID              uuid.UUID            `json:"id"`
	MaterialIssueID *uuid.UUID           `json:"material_issue_id,omitempty"`
	Action          enums.ApprovalAction `json:"action"`
	Decision        enums.Decision       `json:"decision"`
	ActorID         uuid.UUID            `json:"actor_id"`
	ActorRole       string               `json:"actor_role"`
	Reason          *string              `json:"reason,omitempty"`
	FromStatus      string               `json:"from_status"`
	ToStatus        string               `json:"to_status"`
	CreatedAt       time.Time            `json:"created_at"`
}

type issueItemView struct {
	ID               uuid.UUID        `json:"id"`
	LineNo           int              `json:"line_no"`
	IndentItemID     uuid.UUID        `json:"indent_item_id"`
	ItemID           uuid.UUID        `json:"item_id"`
	QuantityIssued   decimal.Decimal  `json:"quantity_issued"`
	QuantityReceived *decimal.Decimal `json:"quantity_received,omitempty"`
	ReservationID    uuid.UUID        `json:"reservation_id"`
	Remarks          *string          `json:"remarks,omitempty"`
}

type issueView struct {
	ID              uuid.UUID                 `json:"id"`
	IndentID        uuid.UUID                 `json:"indent_id"`
	StoreID         uuid.UUID                 `json:"store_id"`
	CollegeID       uuid.UUID                 `json:"college_id"`
	Status          enums.MaterialIssueStatus `json:"status"`
	IssuedBy        uuid.UUID                 `json:"issued_by"`
	IssueDate       time.Time                 `json:"issue_date"`
	DispatchDate    *time.Time                `json:"dispatch_date,omitempty"`
	DispatchedBy    *uuid.UUID                `json:"dispatched_by,omitempty"`
	VehicleRef      *string                   `json:"vehicle_ref,omitempty"`
	InTransitAt     *time.Time                `json:"in_transit_at,omitempty"`
	ReceiptDate     *time.Time                `json:"receipt_date,omitempty"`
	ReceivedBy      *uuid.UUID                `json:"received_by,omitempty"`
	DiscrepancyNote *string                   `json:"discrepancy_note,omitempty"`
	CancelReason    *string                   `json:"cancel_reason,omitempty"`
	Version         int                       `json:"version"`
	Items           []issueItemView           `json:"items"`
}

type recordView struct {
	StoreID          uuid.UUID       `json:"store_id"`
	ItemID           uuid.UUID       `json:"item_id"`
	QuantityOnHand   decimal.Decimal `json:"quantity_on_hand"`
	QuantityReserved decimal.Decimal `json:"quantity_reserved"`
	Available        decimal.Decimal `json:"available"`
	MinStockLevel    decimal.Decimal `json:"min_stock_level"`
	ReorderPoint     decimal.Decimal `json:"reorder_point"`
	Unit             string          `json:"unit"`
	Version          int             `json:"version"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type transactionView struct {
	ID            uuid.UUID                      `json:"id"`
	Type          enums.InventoryTransactionType `json:"type"`
	Quantity      decimal.Decimal                `json:"quantity"`
	OnHandAfter   decimal.Decimal                `json:"on_hand_after"`
	ReservedAfter decimal.Decimal                `json:"reserved_after"`
	Reason        *string                        `json:"reason,omitempty"`
	ReferenceType *string                        `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID                     `json:"reference_id,omitempty"`
	ActorID       *uuid.UUID                     `json:"actor_id,omitempty"`
	CreatedAt     time.Time                      `json:"created_at"`
}

type transactionListView struct {
	Items  []transactionView `json:"items"`
	Cursor string            `json:"cursor"`
}

func newIndentView(indent *models.Indent) indentView {
	items := make([]indentItemView, 0, len(indent.Items))
	for _, item := range indent.Items {
		items = append(items, indentItemView{
			ID:           item.ID,
			LineNo:       item.LineNo,
			ItemID:       item.ItemID,
			RequestedQty: item.RequestedQty,
			ApprovedQty:  item.ApprovedQty,
			Unit:         item.Unit,
			Remarks:      item.Remarks,
		})
	}
	return indentView{
		ID:            indent.ID,
		CollegeID:     indent.CollegeID,
		StoreID:       indent.StoreID,
		Status:        indent.Status,
		Priority:      indent.Priority,
		Justification: indent.Justification,
		RequiredBy:    indent.RequiredBy,
		RequesterID:   indent.RequesterID,
		IsActive:      indent.IsActive,
		Version:       indent.Version,
		SubmittedAt:   indent.SubmittedAt,
		ApprovedAt:    indent.ApprovedAt,
		FulfilledAt:   indent.FulfilledAt,
		CancelledAt:   indent.CancelledAt,
		Items:         items,
		CreatedAt:     indent.CreatedAt,
		UpdatedAt:     indent.UpdatedAt,
	}
}

func newDecisionViews(decisions []models.ApprovalDecision) []decisionView {
	views := make([]decisionView, 0, len(decisions))
	for _, d := range decisions {
		views = append(views, decisionView{
			ID:              d.ID,
			MaterialIssueID: d.MaterialIssueID,
			Action:          d.Action,
			Decision:        d.Decision,
			ActorID:         d.ActorID,
			ActorRole:       d.ActorRole,
			Reason:          d.Reason,
			FromStatus:      d.FromStatus,
			ToStatus:        d.ToStatus,
			CreatedAt:       d.CreatedAt,
		})
	}
	return views
}

func newIssueView(issue *models.MaterialIssue) issueView {
	items := make([]issueItemView, 0, len(issue.Items))
	for _, item := range issue.Items {
		items = append(items, issueItemView{
			ID:               item.ID,
			LineNo:           item.LineNo,
			IndentItemID:     item.IndentItemID,
			ItemID:           item.ItemID,
			QuantityIssued:   item.QuantityIssued,
			QuantityReceived: item.QuantityReceived,
			ReservationID:    item.ReservationID,
			Remarks:          item.Remarks,
		})
	}
	return issueView{
		ID:              issue.ID,
		IndentID:        issue.IndentID,
		StoreID:         issue.StoreID,
		CollegeID:       issue.CollegeID,
		Status:          issue.Status,
		IssuedBy:        issue.IssuedBy,
		IssueDate:       issue.IssueDate,
		DispatchDate:    issue.DispatchDate,
		DispatchedBy:    issue.DispatchedBy,
		VehicleRef:      issue.VehicleRef,
		InTransitAt:     issue.InTransitAt,
		ReceiptDate:     issue.ReceiptDate,
		ReceivedBy:      issue.ReceivedBy,
		DiscrepancyNote: issue.DiscrepancyNote,
		CancelReason:    issue.CancelReason,
		Version:         issue.Version,
		Items:           items,
	}
}

func newRecordView(record *models.CentralInventoryRecord) recordView {
	return recordView{
		StoreID:          record.StoreID,
		ItemID:           record.ItemID,
		QuantityOnHand:   record.QuantityOnHand,
		QuantityReserved: record.QuantityReserved,
		Available:        record.Available(),
		MinStockLevel:    record.MinStockLevel,
		ReorderPoint:     record.ReorderPoint,
		Unit:             record.Unit,
		Version:          record.Version,
		UpdatedAt:        record.UpdatedAt,
	}
}

func newRecordViews(records []models.CentralInventoryRecord) []recordView {
	views := make([]recordView, 0, len(records))
	for i := range records {
		views = append(views, newRecordView(&records[i]))
	}
	return views
}

func newTransactionViews(txns []models.InventoryTransaction) []transactionView {
	views := make([]transactionView, 0, len(txns))
	for _, t := range txns {
		views = append(views, transactionView{
			ID:            t.ID,
			Type:          t.Type,
			Quantity:      t.Quantity,
			OnHandAfter:   t.OnHandAfter,
			ReservedAfter: t.ReservedAfter,
			Reason:        t.Reason,
			ReferenceType: t.ReferenceType,
			ReferenceID:   t.ReferenceID,
			ActorID:       t.ActorID,
			CreatedAt:     t.CreatedAt,
		})
	}
	return views
}
