package validate

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotAnImage        = errors.New("not an ISO image")
	ErrImageNotFound     = errors.New("image does not exist")
	ErrDeviceNotFound    = errors.New("partition does not exist")
	ErrUnsafeMount       = errors.New("partition is mounted as a system path")
	ErrInsufficientSpace = errors.New("not enough space")

	// ErrDeclined means the user chose not to continue. It is not a failure.
	ErrDeclined = errors.New("declined by user")
)

// Error is a validation failure. Message is what the user sees; Err is one of
// the sentinels above.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(sentinel error, format string, args ...interface{}) *Error {
	return &Error{Err: sentinel, Message: fmt.Sprintf(format, args...)}
}
