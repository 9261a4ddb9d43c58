package types

import "fmt"

// ScopeErrorKind classifies the ways a one-level view can disagree
// with the scope arithmetic FromContent enforces.
type ScopeErrorKind int

const (
	// ErrIndexOutOfRange reports a variable index at or beyond the
	// ambient free-variable count.
	ErrIndexOutOfRange ScopeErrorKind = iota
	// ErrTypeArityMismatch reports a declared type whose free count
	// disagrees with the scope it is checked against.
	ErrTypeArityMismatch
	// ErrBinderArityMismatch reports a binder whose stated arity does
	// not match the difference between inner and outer free counts.
	ErrBinderArityMismatch
	// ErrEmptyBinderList reports a binding form given zero names.
	ErrEmptyBinderList
	// ErrScopeMismatch reports sibling children that disagree on
	// their free counts.
	ErrScopeMismatch
)

// String returns the kind's diagnostic spelling.
func (k ScopeErrorKind) String() string {
	switch k {
	case ErrIndexOutOfRange:
		return "index out of range"
	case ErrTypeArityMismatch:
		return "type arity mismatch"
	case ErrBinderArityMismatch:
		return "binder arity mismatch"
	case ErrEmptyBinderList:
		return "empty binder list"
	case ErrScopeMismatch:
		return "scope mismatch"
	default:
		return fmt.Sprintf("unknown scope error kind (%d)", int(k))
	}
}

// ScopeError is the failure FromContent reports when a view's counts
// are inconsistent. Form names the syntactic shape under construction,
// Field the count that disagreed, Got/Want the two sides of the failed
// check. These are contract violations of the producer feeding this
// package, not user input errors.
type ScopeError struct {
	Kind  ScopeErrorKind
	Form  string
	Field string
	Got   int
	Want  int
}

// Error implements the error interface.
func (e *ScopeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("types: %s: %s", e.Form, e.Kind)
	}

	return fmt.Sprintf("types: %s: %s: %s %d, want %d", e.Form, e.Kind, e.Field, e.Got, e.Want)
}
