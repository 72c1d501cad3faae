package nserror

import "fmt"

// PhaseLoadSpec tags errors raised while following references
const PhaseLoadSpec = "LoadSpec"

// ResolveError represents a $ref that could not be followed. It renders as
// "[<phase>][<ns1> > <ns2>] <message>".
type ResolveError struct {
	// Phase is the processing phase, always PhaseLoadSpec today
	Phase string
	// Namespace is the location of the node holding the $ref
	Namespace Namespace
	// Ref is the reference text, empty when the ref was not a string
	Ref string
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns the formatted message
func (e *ResolveError) Error() string {
	return fmt.Sprintf("[%s][%s] %s", e.Phase, e.Namespace.String(), e.Message)
}

// Unwrap returns the underlying cause for error chaining
func (e *ResolveError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type
func (e *ResolveError) Is(target error) bool {
	return target == ErrReference
}

// RefNotAString reports a $ref whose value is not a string
func RefNotAString(n Namespaced) *ResolveError {
	return &ResolveError{
		Phase:     PhaseLoadSpec,
		Namespace: namespaceOf(n),
		Message:   "$ref must always be a string",
	}
}

// InvalidRef wraps a resolution failure for ref
func InvalidRef(n Namespaced, ref string, cause error) *ResolveError {
	return &ResolveError{
		Phase:     PhaseLoadSpec,
		Namespace: namespaceOf(n),
		Ref:       ref,
		Message:   fmt.Sprintf("Invalid $ref. %s (%s)", ref, cause.Error()),
		Cause:     cause,
	}
}

// LoadError represents a document that could not be read or parsed
type LoadError struct {
	// ID is the document id derived from the file name
	ID string
	// Path is the file that failed
	Path string
	// Cause is the underlying error
	Cause error
}

// Error returns a human-readable error message
func (e *LoadError) Error() string {
	return fmt.Sprintf("Could not load spec file %s (%s)", e.Path, e.Cause.Error())
}

// Unwrap returns the underlying cause for error chaining
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// NotFoundError represents a lookup of an unknown document id
type NotFoundError struct {
	ID string
}

// Error returns a human-readable error message
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Cannot find api spec with id %q", e.ID)
}

// Is reports whether target matches this error type
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func namespaceOf(n Namespaced) Namespace {
	if n == nil {
		return nil
	}
	return n.Namespace()
}
