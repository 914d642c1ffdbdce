package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuery       = errors.New("invalid query")
	ErrIndexUnavailable   = errors.New("index unavailable")
	ErrMalformedRecord    = errors.New("malformed corpus record")
	ErrDuplicateDocument  = errors.New("document already indexed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrCorpusUnavailable  = errors.New("corpus unavailable")
	ErrUnsupportedBackend = errors.New("unsupported storage backend")
	ErrInternal           = errors.New("internal error")
)

// Exit codes returned by the command-line tools.
const (
	ExitOK          = 0
	ExitInternal    = 1
	ExitUsage       = 2
	ExitUnavailable = 3
	ExitDataErr     = 4
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Is and As re-export the standard library helpers so callers importing this
// package under the errors name keep access to them.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedBackend):
		return ExitUsage
	case errors.Is(err, ErrIndexUnavailable), errors.Is(err, ErrCorpusUnavailable):
		return ExitUnavailable
	case errors.Is(err, ErrMalformedRecord), errors.Is(err, ErrDuplicateDocument):
		return ExitDataErr
	default:
		return ExitInternal
	}
}
