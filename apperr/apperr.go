package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type Kind string

const (
	KindConfigCycle     Kind = "CONFIG_CYCLE"
	KindConfigInvalid   Kind = "CONFIG_INVALID"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	KindForbidden       Kind = "FORBIDDEN"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Cycle(format string, args ...interface{}) *Error {
	return New(KindConfigCycle, format, args...)
}

func Invalid(format string, args ...interface{}) *Error {
	return New(KindConfigInvalid, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

// KindOf reports the taxonomy kind of err. Missing gorm records count as
// NOT_FOUND; anything unrecognised returns "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	return ""
}

// IsConfiguration is true for errors caused by invalid authored content.
func IsConfiguration(err error) bool {
	k := KindOf(err)
	return k == KindConfigCycle || k == KindConfigInvalid
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindConfigCycle, KindConfigInvalid:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
