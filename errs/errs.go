// Package errs defines the error taxonomy surfaced by convcore's core
// packages: ShapeError, ResolutionError, AllocationError, ScratchTypeError,
// and KernelError. All errors are constructed with github.com/pkg/errors so
// that a failure deep inside a tiled loop carries a stack trace back to the
// eval/run boundary.
package errs

import "github.com/pkg/errors"

// ShapeError reports an input shape incompatible with a PoolSpec, e.g. a
// channel count not divisible by the group count, or a rank mismatch.
type ShapeError struct {
	msg   string
	cause error
}

func NewShapeError(msg string) *ShapeError {
	return &ShapeError{msg: msg, cause: errors.New(msg)}
}

func (e *ShapeError) Error() string { return "shape: " + e.msg }
func (e *ShapeError) Unwrap() error { return e.cause }

// ResolutionError reports symbolic dimensions that remain non-concrete at
// geometry resolution time.
type ResolutionError struct {
	msg   string
	cause error
}

func NewResolutionError(msg string) *ResolutionError {
	return &ResolutionError{msg: msg, cause: errors.New(msg)}
}

func (e *ResolutionError) Error() string { return "resolution: " + e.msg }
func (e *ResolutionError) Unwrap() error { return e.cause }

// AllocationError reports inability to allocate an aligned output or
// scratch buffer.
type AllocationError struct {
	msg   string
	cause error
}

func NewAllocationError(msg string) *AllocationError {
	return &AllocationError{msg: msg, cause: errors.New(msg)}
}

func (e *AllocationError) Error() string { return "allocation: " + e.msg }
func (e *AllocationError) Unwrap() error { return e.cause }

// ScratchTypeError reports that the scratch space handed to a MatMatMul
// call is of a type incompatible with the microkernel's accumulator type.
type ScratchTypeError struct {
	msg   string
	cause error
}

func NewScratchTypeError(msg string) *ScratchTypeError {
	return &ScratchTypeError{msg: msg, cause: errors.New(msg)}
}

func (e *ScratchTypeError) Error() string { return "scratch type: " + e.msg }
func (e *ScratchTypeError) Unwrap() error { return e.cause }

// KernelError reports that a microkernel invocation returned a non-zero
// status. The core never inspects or retries on this error; it is always
// surfaced to the caller.
type KernelError struct {
	Status int
	cause  error
}

func NewKernelError(status int) *KernelError {
	return &KernelError{Status: status, cause: errors.Errorf("kernel returned status %d", status)}
}

func (e *KernelError) Error() string { return e.cause.Error() }
func (e *KernelError) Unwrap() error { return e.cause }

// Wrap attaches additional context to err without discarding its type for
// errors.As, by wrapping with pkg/errors and preserving the original as the
// unwrap target via %w-equivalent semantics (pkg/errors.Wrap keeps Cause()).
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}
