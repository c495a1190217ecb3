package dvo

import (
	"fmt"
)

// PathSyntaxError indicates a malformed field path expression (unterminated
// subscript, bad index, trailing garbage). The whole compilation fails; no
// partial FieldPath is returned.
type PathSyntaxError struct {
	Expr string
	Msg  string
}

func pathErrf(expr string, format string, args ...any) error {
	return &PathSyntaxError{expr, fmt.Sprintf(format, args...)}
}

func (e *PathSyntaxError) Error() string {
	return fmt.Sprintf("invalid field path %q: %s", e.Expr, e.Msg)
}

// FieldNotFoundError indicates that a path component names a field the
// struct type does not declare.
type FieldNotFoundError struct {
	Type  string
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field %q not found in type %s", e.Field, e.Type)
}

// TypeError indicates an attempt to store or apply a value whose runtime
// type is incompatible with the declared type at that location.
type TypeError struct {
	Expected string
	Actual   string
	Msg      string
}

func typeErrf(expected, actual DataType, format string, args ...any) error {
	return &TypeError{expected.Name(), actual.Name(), fmt.Sprintf(format, args...)}
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: cannot use a %s value where %s is expected", e.Msg, e.Actual, e.Expected)
}

// ConversionError is returned by the As* accessors when the value cannot
// represent the requested shape. Callers are expected to handle it locally.
type ConversionError struct {
	Type string
	Want string
}

func convErr(v FieldValue, want string) *ConversionError {
	return &ConversionError{v.DataType().Name(), want}
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s value to %s", e.Type, e.Want)
}

// DeserializeError indicates corrupt or unrecognized wire data. Decoding of
// the offending record fails; the caller decides whether to skip it or
// abort the batch.
type DeserializeError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func deserErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DeserializeError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DeserializeError) Unwrap() error {
	return e.Err
}

func (e *DeserializeError) Error() string {
	const prefixLen = 64
	n := len(e.Data)
	if n > prefixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...", e.Msg, e.Err, n, e.Data[:prefixLen])
		}
		return fmt.Sprintf("%s: (%d) %x...", e.Msg, n, e.Data[:prefixLen])
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
	}
	return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
}

// IterationError indicates a path/value mismatch inside the nested
// iteration engine (e.g. a non-struct-field step applied to a struct).
// Always a configuration error, never a data condition.
type IterationError struct {
	Value string
	Msg   string
}

func iterErrf(v FieldValue, format string, args ...any) error {
	return &IterationError{v.DataType().Name(), fmt.Sprintf(format, args...)}
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("illegal field path for %s value: %s", e.Value, e.Msg)
}
