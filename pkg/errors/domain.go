package errors

import "fmt"

// TransitionDetails describes a refused state transition.
type TransitionDetails struct {
	Entity string `json:"entity"`
	From   string `json:"from"`
	To     string `json:"to,omitempty"`
	Action string `json:"action"`
}

// StockDetails describes a reservation or adjustment the ledger refused.
type StockDetails struct {
	StoreID   string `json:"store_id"`
	ItemID    string `json:"item_id"`
	Requested string `json:"requested"`
	Available string `json:"available"`
	Line      *int   `json:"line,omitempty"`
}

// StaleDetails describes a lost optimistic-concurrency race.
type StaleDetails struct {
	Entity          string `json:"entity"`
	ID              string `json:"id"`
	ExpectedVersion int    `json:"expected_version"`
	CurrentVersion  int    `json:"current_version,omitempty"`
}

// DeniedDetails carries the approval gate's refusal.
type DeniedDetails struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// LineDetails points a validation failure at one request line.
type LineDetails struct {
	Line  int    `json:"line"`
	Field string `json:"field,omitempty"`
}

func InvalidTransition(details TransitionDetails) *Error {
	msg := fmt.Sprintf("%s cannot %s from %s", details.Entity, details.Action, details.From)
	return New(CodeInvalidTransition, msg).WithDetails(details)
}

func InsufficientStock(details StockDetails) *Error {
	msg := fmt.Sprintf("insufficient stock for item %s: requested %s, available %s", details.ItemID, details.Requested, details.Available)
	if details.Line != nil {
		msg = fmt.Sprintf("line %d: %s", *details.Line, msg)
	}
	return New(CodeInsufficientStock, msg).WithDetails(details)
}

func StaleState(details StaleDetails) *Error {
	msg := fmt.Sprintf("%s %s was modified concurrently", details.Entity, details.ID)
	return New(CodeStaleState, msg).WithDetails(details)
}

func Denied(details DeniedDetails) *Error {
	msg := fmt.Sprintf("%s denied", details.Action)
	if details.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, details.Reason)
	}
	return New(CodeForbidden, msg).WithDetails(details)
}

// Validation builds a validation error, optionally pointing at a request line.
func Validation(message string, line *LineDetails) *Error {
	err := New(CodeValidation, message)
	if line != nil {
		err.WithDetails(*line)
	}
	return err
}

// Line returns a pointer to the 1-based line number for details payloads.
func Line(index int) *int {
	n := index + 1
	return &n
}
