package coerce

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to test for them.
var (
	// ErrUnknownTimestampFormat matches *UnknownTimestampFormatError.
	ErrUnknownTimestampFormat = errors.New("unknown timestamp format")

	// ErrArgCountMismatch is returned when the argument and argument type
	// sequences differ in length.
	ErrArgCountMismatch = errors.New("argument count does not match argument type count")

	// ErrInvalidNumber is wrapped by *ArgumentError for unparsable numbers.
	ErrInvalidNumber = errors.New("invalid number")

	// ErrInvalidDateTime is wrapped by *ArgumentError for unparsable dates.
	ErrInvalidDateTime = errors.New("invalid datetime")

	// ErrInvalidBytes is wrapped by *ArgumentError for malformed base64.
	ErrInvalidBytes = errors.New("invalid base64 bytes")
)

// UnknownTimestampFormatError is returned when a date/time argument must be
// formatted and the configured format is not recognized.
type UnknownTimestampFormatError struct {
	Format string
}

func (e *UnknownTimestampFormatError) Error() string {
	return fmt.Sprintf("unknown timestamp format: %s", e.Format)
}

// Is reports whether target is ErrUnknownTimestampFormat.
func (e *UnknownTimestampFormatError) Is(target error) bool {
	return target == ErrUnknownTimestampFormat
}

// ArgumentError reports an argument that could not be coerced to its
// declared scalar type.
type ArgumentError struct {
	Index int
	Type  ScalarType
	Value string
	Err   error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %d (%s): cannot coerce %q: %v", e.Index, e.Type, e.Value, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}
