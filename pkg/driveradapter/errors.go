package driveradapter

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIsolationLevel matches *InvalidIsolationLevelError.
	ErrInvalidIsolationLevel = errors.New("invalid isolation level")

	// ErrTransactionClosed is returned when a transaction is used after
	// Commit or Rollback.
	ErrTransactionClosed = errors.New("transaction already closed")

	// ErrMalformedResult is returned when the database reports rows that do
	// not line up with its column metadata.
	ErrMalformedResult = errors.New("malformed result: row width does not match column count")
)

// InvalidIsolationLevelError is returned by StartTransaction when the
// requested isolation level is not supported by the provider. It is
// reported before any lock is taken or statement issued.
type InvalidIsolationLevelError struct {
	Level IsolationLevel
}

func (e *InvalidIsolationLevelError) Error() string {
	return fmt.Sprintf("invalid isolation level: %s", e.Level)
}

// Is reports whether target is ErrInvalidIsolationLevel.
func (e *InvalidIsolationLevelError) Is(target error) bool {
	return target == ErrInvalidIsolationLevel
}
