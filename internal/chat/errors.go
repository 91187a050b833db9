package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/thereayou/hr-portal/internal/database"
)

type Kind string

const (
	KindInvalidConfig   Kind = "InvalidConfig"
	KindNameConflict    Kind = "NameConflict"
	KindRoomFull        Kind = "RoomFull"
	KindAlreadyMember   Kind = "AlreadyMember"
	KindNotMember       Kind = "NotMember"
	KindNotAuthorized   Kind = "NotAuthorized"
	KindInvalidMessage  Kind = "InvalidMessage"
	KindSharingDisabled Kind = "SharingDisabled"
	KindUnavailable     Kind = "Unavailable"
	KindNotFound        Kind = "NotFound"
	KindRoomInactive    Kind = "RoomInactive"
)

// Error is returned by every engine operation. Field names the offending
// input or entity when there is one.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrRoomFull) works
// regardless of field or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Retryable reports whether the caller may safely repeat the operation.
func (e *Error) Retryable() bool {
	return e.Kind == KindUnavailable
}

var (
	ErrInvalidConfig   = &Error{Kind: KindInvalidConfig}
	ErrNameConflict    = &Error{Kind: KindNameConflict}
	ErrRoomFull        = &Error{Kind: KindRoomFull}
	ErrAlreadyMember   = &Error{Kind: KindAlreadyMember}
	ErrNotMember       = &Error{Kind: KindNotMember}
	ErrNotAuthorized   = &Error{Kind: KindNotAuthorized}
	ErrInvalidMessage  = &Error{Kind: KindInvalidMessage}
	ErrSharingDisabled = &Error{Kind: KindSharingDisabled}
	ErrUnavailable     = &Error{Kind: KindUnavailable}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrRoomInactive    = &Error{Kind: KindRoomInactive}
)

func newError(kind Kind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// storeError translates storage failures. Engine errors raised inside update
// callbacks pass through untouched.
func storeError(err error, entity string) error {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e
	case errors.Is(err, database.ErrNotFound):
		return &Error{Kind: KindNotFound, Field: entity, Message: entity + " not found"}
	case errors.Is(err, database.ErrNameTaken):
		return &Error{Kind: KindNameConflict, Field: "name", Message: "an active room already uses this name"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindUnavailable, Message: "operation cancelled", Cause: err}
	default:
		return &Error{Kind: KindUnavailable, Message: "store unavailable", Cause: err}
	}
}
