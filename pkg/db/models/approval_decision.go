package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/enums"
)

// ApprovalDecision is the append-only audit row written by every indent or
// material issue transition.
type ApprovalDecision struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	IndentID        uuid.UUID            `gorm:"column:indent_id;type:uuid;not null"`
	MaterialIssueID *uuid.UUID           `gorm:"column:material_issue_id;type:uuid"`
	Action          enums.ApprovalAction `gorm:"column:action;type:approval_action;not null"`
	Decision        enums.Decision       `gorm:"column:decision;type:decision;not null"`
	ActorID         uuid.UUID            `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole       string               `gorm:"column:actor_role;not null"`
	Reason          *string              `gorm:"column:reason"`
	FromStatus      string               `gorm:"column:from_status;not null"`
	ToStatus        string               `gorm:"column:to_status;not null"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
}
