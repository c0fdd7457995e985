package services

import "errors"

// ErrUserNotFound is returned when an operation references a user that does not exist.
var ErrUserNotFound = errors.New("User not found")

// ValidationError reports malformed or missing input. It is also used for
// write failures on user creation, which clients see as bad requests.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// StoreError wraps an unexpected storage failure. Its message is the
// underlying error text.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
