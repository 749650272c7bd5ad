package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidTime      = errors.New("invalid time")
	ErrInvalidPartySize = errors.New("invalid party size")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrNoAvailability   = errors.New("no table available")
	ErrTableUnavailable = errors.New("table unavailable")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrSlotBusy         = errors.New("slot busy")
)

var kindNames = []struct {
	kind error
	name string
}{
	{ErrInvalidDate, "InvalidDate"},
	{ErrInvalidTime, "InvalidTime"},
	{ErrInvalidPartySize, "InvalidPartySize"},
	{ErrInvalidStatus, "InvalidStatus"},
	{ErrInvalidRequest, "InvalidRequest"},
	{ErrNoAvailability, "NoAvailability"},
	{ErrTableUnavailable, "TableUnavailable"},
	{ErrNotFound, "NotFound"},
	{ErrConflict, "Conflict"},
	{ErrSlotBusy, "SlotBusy"},
}

// Error is a rejected operation. Kind is one of the Err* sentinels, Field
// names the offending input and Reason says which constraint was violated.
type Error struct {
	Kind   error
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Reason
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, field, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// KindOf returns the name of the error kind, or "Internal" for anything that
// is not a domain error.
func KindOf(err error) string {
	for _, k := range kindNames {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return "Internal"
}

// Detail describes a domain error for API callers.
func Detail(err error) map[string]string {
	detail := map[string]string{"kind": KindOf(err)}
	var e *Error
	if errors.As(err, &e) {
		if e.Field != "" {
			detail["field"] = e.Field
		}
		if e.Reason != "" {
			detail["reason"] = e.Reason
		}
	}
	return detail
}
