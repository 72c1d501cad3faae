// Package nserror provides the error types produced while loading,
// resolving and validating specification documents. Every validation
// failure carries the namespace of the node that rejected its data.
//
// # Error Categories
//
//   - Error: a node's raw data violates its shape contract
//   - ResolveError: a $ref cannot be followed
//   - LoadError: a document cannot be read or parsed
//   - NotFoundError: a document id is unknown
//
// Use errors.Is with the sentinels below to classify a failure, or
// errors.As to reach the namespace.
package nserror

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is()
var (
	// ErrValidation indicates a node rejected its raw data
	ErrValidation = errors.New("validation error")

	// ErrReference indicates a $ref could not be resolved
	ErrReference = errors.New("reference error")

	// ErrLoad indicates a document could not be read or parsed
	ErrLoad = errors.New("load error")

	// ErrNotFound indicates an unknown document id
	ErrNotFound = errors.New("not found")
)

// Code names the recurring validation failures
type Code string

const (
	CodeGeneric                  Code = "generic"
	CodeNotAStringOrEmpty        Code = "not_a_string_or_empty"
	CodeNotAnObject              Code = "not_an_object"
	CodeNotNullOrString          Code = "not_null_or_string"
	CodeMissingMandatoryProperty Code = "missing_mandatory_property"
	CodeNotARecord               Code = "not_a_record"
	CodeNotAnArray               Code = "not_an_array"
	CodeArrayItemWrongType       Code = "array_item_wrong_type"
	CodeTypeMismatch             Code = "type_mismatch"
	CodeInvalidEnumValue         Code = "invalid_enum_value"
	CodeUnexpectedProperty       Code = "unexpected_property"
	CodeMissingPlaceholder       Code = "missing_placeholder"
)

// Error is a validation failure attributed to a location in a document
type Error struct {
	// Namespace is the location of the node that failed
	Namespace Namespace
	// Code classifies the failure
	Code Code
	// Message describes the failure
	Message string
	// Allowed lists the accepted values for CodeInvalidEnumValue
	Allowed []string
}

// Error returns the message. Rendering the namespace is left to callers.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target matches this error type
func (e *Error) Is(target error) bool {
	return target == ErrValidation
}

// New creates an error with a free-form message
func New(n Namespaced, message string) *Error {
	return newError(n, CodeGeneric, message)
}

func newError(n Namespaced, code Code, message string) *Error {
	var ns Namespace
	if n != nil {
		ns = n.Namespace()
	}
	return &Error{Namespace: ns, Code: code, Message: message}
}

// NotNullOrString reports a present value that is not a string
func NotNullOrString(n Namespaced, property string) *Error {
	return newError(n, CodeNotNullOrString, fmt.Sprintf("[%s] must be null or a string", property))
}

// NotAStringOrEmpty reports a missing, empty or non-string value
func NotAStringOrEmpty(n Namespaced, property string) *Error {
	return newError(n, CodeNotAStringOrEmpty, fmt.Sprintf("[%s] must be a string and not empty", property))
}

// NotAnArray reports a value that should be a sequence
func NotAnArray(n Namespaced, property string) *Error {
	return newError(n, CodeNotAnArray, fmt.Sprintf("[%s] must be an array", property))
}

// NotAnObject reports node data that is not a map
func NotAnObject(n Namespaced) *Error {
	return newError(n, CodeNotAnObject, "this is not based on an object")
}

// NotARecord reports a value that should be a map of string to valueType
func NotARecord(n Namespaced, property, valueType string) *Error {
	return newError(n, CodeNotARecord, fmt.Sprintf("[%s] must be a map string -> %s", property, valueType))
}

// TypeMismatch reports a value of the wrong type
func TypeMismatch(n Namespaced, property, actualType, expectedType string) *Error {
	return newError(n, CodeTypeMismatch, fmt.Sprintf("[%s] is not a %s but a %s", property, expectedType, actualType))
}

// ArrayItemWrongType reports a sequence with an item of the wrong type
func ArrayItemWrongType(n Namespaced, property, actualType, expectedType string) *Error {
	return newError(n, CodeArrayItemWrongType,
		fmt.Sprintf("[%s] at least one item of the array is a %q instead of a %q", property, actualType, expectedType))
}

// MissingPlaceholder reports an entity whose id lacks a {placeholder}
func MissingPlaceholder(n Namespaced, entityType, entityID, placeholder string) *Error {
	return newError(n, CodeMissingPlaceholder,
		fmt.Sprintf("the %s [%s] does not contain the placeholder {%s}", entityType, entityID, placeholder))
}

// MissingMandatoryProperty reports an absent or empty required property
func MissingMandatoryProperty(n Namespaced, property string) *Error {
	return newError(n, CodeMissingMandatoryProperty, fmt.Sprintf("[%s] mandatory property missing or empty", property))
}

// UnexpectedProperty reports a key the node does not recognise
func UnexpectedProperty(n Namespaced, property string) *Error {
	return newError(n, CodeUnexpectedProperty, fmt.Sprintf("[%s] unexpected property", property))
}

// InvalidEnumValue reports a value outside a closed set. enumName may be
// empty.
func InvalidEnumValue(n Namespaced, property, value string, allowed []string, enumName string) *Error {
	quoted := make([]string, len(allowed))
	for i, a := range allowed {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	suffix := ""
	if enumName != "" {
		suffix = fmt.Sprintf(" for [%s]", enumName)
	}
	err := newError(n, CodeInvalidEnumValue,
		fmt.Sprintf("[%s] %q is not a valid value%s. (Valid values: [%s])", property, value, suffix, strings.Join(quoted, ", ")))
	err.Allowed = append([]string(nil), allowed...)
	return err
}
