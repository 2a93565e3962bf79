package queue

import "fmt"

// ValidationError reports a malformed enqueue request or an operation that
// is invalid for the job's current state.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a store read or write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// NotFoundError reports an operation on an unknown job id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("job %s not found", e.ID) }

// HandlerError wraps whatever the dispatched handler returned or panicked
// with. Its message is what ends up in the job's error_message column.
type HandlerError struct {
	Type JobType
	Err  error
}

func (e *HandlerError) Error() string { return fmt.Sprintf("handler %s: %v", e.Type, e.Err) }
func (e *HandlerError) Unwrap() error { return e.Err }
