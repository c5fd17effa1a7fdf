package scope

import (
	"errors"
	"fmt"
)

// ErrOperationFailed is the only error callers of a scoped run need to
// recognise. Its message is safe to return to clients.
var ErrOperationFailed = errors.New("operation failed")

// ErrInvalidIdentity is the cause recorded when a run is asked to bind a
// non-positive user id.
var ErrInvalidIdentity = errors.New("invalid identity")

// Failure is returned by Runner.Run for every unsuccessful run.
// Error() never exposes the cause; use Detail for logs.
type Failure struct {
	Op    Operation
	Phase Phase
	Err   error
}

func newFailure(op Operation, phase Phase, err error) *Failure {
	return &Failure{Op: op, Phase: phase, Err: err}
}

func (f *Failure) Error() string {
	return ErrOperationFailed.Error()
}

// Is matches ErrOperationFailed
func (f *Failure) Is(target error) bool {
	return target == ErrOperationFailed
}

// Unwrap exposes the cause so store sentinels such as ErrNoteNotFound
// can still be matched with errors.Is.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Detail describes the failure for logs and audit records
func (f *Failure) Detail() string {
	return fmt.Sprintf("%s failed during %s: %v", f.Op, f.Phase, f.Err)
}

// AsFailure extracts a *Failure from err
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	ok := errors.As(err, &f)
	return f, ok
}
