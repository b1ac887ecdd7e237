// Package baderr defines the error kinds used across the partitioning
// pipeline: Input, Configuration, Invariant and Numerical, matching the
// taxonomy of the original bader-rs driver's error handling.
package baderr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies where in the pipeline an error originated.
type Kind int

const (
	// Input marks an unreadable or malformed density file, or
	// inconsistent grid sizes between files.
	Input Kind = iota
	// Configuration marks a non-positive thread count, negative
	// tolerance, or other invalid CLI/driver argument.
	Configuration
	// Invariant marks a lookup that assumed a voxel had already been
	// classified as a maximum but was not — a corrupted Voxel Map.
	Invariant
	// Numerical marks an in-place degeneracy (e.g. t_sum underflow)
	// that the algorithm resolved without surfacing an error; kept
	// here for completeness of the taxonomy.
	Numerical
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case Configuration:
		return "configuration"
	case Invariant:
		return "invariant"
	case Numerical:
		return "numerical"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged error with wrapped context.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap allows errors.Is/errors.As to see through to the cause.
func (e *Error) Unwrap() error { return e.err }

// New builds a Kind-tagged error with no wrapped cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, msg: msg}
}

// Newf builds a Kind-tagged error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind and message to an existing error, preserving it
// as the cause via github.com/pkg/errors so %+v still prints a stack.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, msg: msg, err: errors.Wrap(err, msg)}
}

// Is reports whether err is a baderr.Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
