package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Lookup failures.
var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrBankNotFound     = errors.New("blood bank not found")
	ErrRequestNotFound  = errors.New("request not found")
	ErrDonationNotFound = errors.New("appointment not found")
)

var (
	// ErrAlreadyProcessed means the record exists but is no longer pending
	// or scheduled.
	ErrAlreadyProcessed = errors.New("already processed")

	// ErrNotEligible means the donor is inside the donation interval.
	ErrNotEligible = errors.New("not currently eligible to donate")

	// ErrInsufficientInventory is matched by *InsufficientInventoryError.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrValidation is matched by *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden means the acting session lacks the role for the operation.
	ErrForbidden = errors.New("forbidden")
)

// IsNotFound reports whether err is any of the lookup failures.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrBankNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrDonationNotFound)
}

// InsufficientInventoryError reports a bank that cannot cover a request.
type InsufficientInventoryError struct {
	BankName  string
	BloodType string
	Available int
	Requested int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory at %s: %d unit(s) of %s available, %d requested",
		e.BankName, e.Available, e.BloodType, e.Requested)
}

func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}

// ValidationError lists the rejected input fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, k := range sortedKeys(e.Fields) {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// add records a field failure; the first message per field wins.
func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// orNil returns e only when it carries failures.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
