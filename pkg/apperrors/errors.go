// Package apperrors defines the error kinds shared by services and the HTTP layer.
package apperrors

import "errors"

// Error kinds. Every error a service returns unwraps to one of these.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrForbidden       = errors.New("permission denied")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrDuplicate       = errors.New("resource already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIllegalState    = errors.New("illegal state")
	ErrInternal        = errors.New("internal error")
)

// CustomError carries a user-facing message alongside its kind.
type CustomError struct {
	Err     error
	Message string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// internalError keeps the integration cause out of the public message.
type internalError struct {
	msg   string
	cause error
}

func (e *internalError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *internalError) Unwrap() []error { return []error{ErrInternal, e.cause} }

func NotFound(message string) error        { return &CustomError{Err: ErrNotFound, Message: message} }
func Forbidden(message string) error       { return &CustomError{Err: ErrForbidden, Message: message} }
func Unauthorized(message string) error    { return &CustomError{Err: ErrUnauthorized, Message: message} }
func Duplicate(message string) error       { return &CustomError{Err: ErrDuplicate, Message: message} }
func InvalidArgument(message string) error { return &CustomError{Err: ErrInvalidArgument, Message: message} }
func IllegalState(message string) error    { return &CustomError{Err: ErrIllegalState, Message: message} }

// Wrap marks an integration failure (storage, email, OAuth, database) as internal.
// errors.Is matches both ErrInternal and cause.
func Wrap(cause error, message string) error {
	return &internalError{msg: message, cause: cause}
}

// Is returns whether err matches target or any of errList.
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Message returns the user-facing text of a classified error.
func Message(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	return err.Error()
}
