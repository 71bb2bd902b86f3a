package enums

import (
	"database/sql/driver"
	"fmt"
)

type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

func (r OutboxDLQErrorReason) Value() (driver.Value, error) {
	return valueEnum(r, r.IsValid())
}

func (r *OutboxDLQErrorReason) Scan(value any) error {
	return scanEnum(r, value, func(raw string) (OutboxDLQErrorReason, error) {
		candidate := OutboxDLQErrorReason(raw)
		if !candidate.IsValid() {
			return "", fmt.Errorf("invalid outbox dlq error reason %q", raw)
		}
		return candidate, nil
	})
}
