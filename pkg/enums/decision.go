package enums

import (
	"database/sql/driver"
	"fmt"
)

// Decision is the outcome recorded on an approval decision row. Actions that
// are not an approve/reject choice (submit, cancel, dispatch...) are recorded.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionRecord  Decision = "record"
)

var validDecisions = []Decision{
	DecisionApprove,
	DecisionReject,
	DecisionRecord,
}

func (d Decision) String() string {
	return string(d)
}

// IsValid reports whether the value is a known Decision.
func (d Decision) IsValid() bool {
	for _, candidate := range validDecisions {
		if candidate == d {
			return true
		}
	}
	return false
}

func (d Decision) Value() (driver.Value, error) {
	return valueEnum(d, d.IsValid())
}

func (d *Decision) Scan(value any) error {
	return scanEnum(d, value, ParseDecision)
}

// ParseDecision converts raw input into a Decision.
func ParseDecision(value string) (Decision, error) {
	for _, candidate := range validDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid decision %q", value)
}
