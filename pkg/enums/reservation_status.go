package enums

import (
	"database/sql/driver"
	"fmt"
)

// ReservationStatus tracks an inventory reservation handle.
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCommitted ReservationStatus = "committed"
	ReservationStatusReleased  ReservationStatus = "released"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusActive,
	ReservationStatusCommitted,
	ReservationStatusReleased,
}

func (s ReservationStatus) String() string {
	return string(s)
}

func (s ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s ReservationStatus) Value() (driver.Value, error) {
	return valueEnum(s, s.IsValid())
}

func (s *ReservationStatus) Scan(value any) error {
	return scanEnum(s, value, ParseReservationStatus)
}

// ParseReservationStatus converts raw input into a ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
