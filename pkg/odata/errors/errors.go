package errors

import "fmt"

var ErrSchemaMismatch = fmt.Errorf("schema mismatch")
var ErrFormat = fmt.Errorf("format error")
var ErrMissingNavigationTarget = fmt.Errorf("missing navigation target")
var ErrBatchNotActive = fmt.Errorf("batch not active")
var ErrBadResponse = fmt.Errorf("bad response")
var ErrNotFound = fmt.Errorf("not found")
var ErrInternal = fmt.Errorf("internal error")

type myError struct {
	msg    string
	target error
}

func (m myError) Error() string        { return m.msg }
func (m myError) Is(target error) bool { return target == m.target }

// NewSchemaMismatchError is returned when a supplied field or link name has
// no corresponding declared property after insensitive matching.
func NewSchemaMismatchError(typeName, fieldName string) error {
	return &myError{
		msg:    fmt.Sprintf("no property matching \"%s\" is declared on type %s", fieldName, typeName),
		target: ErrSchemaMismatch,
	}
}

// NewFormatError is returned when a value cannot be coerced to its declared
// wire kind after exhausting all candidate native representations.
func NewFormatError(value any, wireKind string) error {
	return &myError{
		msg:    fmt.Sprintf("value of type %T could not be converted to %s", value, wireKind),
		target: ErrFormat,
	}
}

// NewMissingNavigationTargetError is returned when no entity set can be
// resolved for a link's target type.
func NewMissingNavigationTargetError(typeName string) error {
	return &myError{
		msg:    fmt.Sprintf("no entity set found for type %s", typeName),
		target: ErrMissingNavigationTarget,
	}
}

func NewNotFoundError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrNotFound,
	}
}

func NewBadResponseError(code int, body []byte) error {
	return &myError{
		msg:    fmt.Sprintf("unexpected response code %d: %s", code, string(body)),
		target: ErrBadResponse,
	}
}
