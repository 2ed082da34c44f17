package emit

import (
	"errors"
	"fmt"

	"val/internal/ast"
)

var (
	// ErrImmutableLocation: the expression has no storage, or its storage is
	// not mutable.
	ErrImmutableLocation = errors.New("immutable location")
	// ErrImmutableSelf: an implicit member access through a receiver that is
	// not inout.
	ErrImmutableSelf = errors.New("immutable self")
)

// Error is a recoverable emission error. It unwraps to ErrImmutableLocation
// or ErrImmutableSelf.
type Error struct {
	Err  error
	Func string
	Expr ast.ExprID
	// Name is the declaration the access refers to, if any.
	Name string
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("emit: %s: cannot mutate %q: %v", e.Func, e.Name, e.Err)
	}
	return fmt.Sprintf("emit: %s: %v", e.Func, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// InternalError signals that an earlier phase handed over a tree emission
// cannot accept: an unresolved reference, a missing binding, a form that can
// never denote storage. It is raised with panic and never returned.
type InternalError struct {
	Func string
	Expr ast.ExprID
	Msg  string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("emit: internal error in %s (expr %d): %s", e.Func, e.Expr, e.Msg)
}

// UnsupportedError signals a well-typed form this lowering does not handle.
// Like InternalError it is raised with panic.
type UnsupportedError struct {
	Func string
	Expr ast.ExprID
	What string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("emit: %s (expr %d): %s is not supported", e.Func, e.Expr, e.What)
}

// IsFatal reports whether a recovered panic value is one of the emission
// faults.
func IsFatal(v any) bool {
	switch v.(type) {
	case *InternalError, *UnsupportedError:
		return true
	default:
		return false
	}
}
