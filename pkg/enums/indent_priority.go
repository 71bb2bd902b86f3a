package enums

import (
	"database/sql/driver"
	"fmt"
)

type IndentPriority string

const (
	IndentPriorityLow    IndentPriority = "low"
	IndentPriorityNormal IndentPriority = "normal"
	IndentPriorityHigh   IndentPriority = "high"
	IndentPriorityUrgent IndentPriority = "urgent"
)

var validIndentPriorities = []IndentPriority{
	IndentPriorityLow,
	IndentPriorityNormal,
	IndentPriorityHigh,
	IndentPriorityUrgent,
}

func (p IndentPriority) String() string {
	return string(p)
}

func (p IndentPriority) IsValid() bool {
	for _, candidate := range validIndentPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

func (p IndentPriority) Value() (driver.Value, error) {
	return valueEnum(p, p.IsValid())
}

func (p *IndentPriority) Scan(value any) error {
	return scanEnum(p, value, ParseIndentPriority)
}

// ParseIndentPriority converts raw input into an IndentPriority.
func ParseIndentPriority(value string) (IndentPriority, error) {
	for _, candidate := range validIndentPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid indent priority %q", value)
}
