package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies the failures reported by the configuration updater.
type ErrorKind string

const (
	KindPatchSyntax            ErrorKind = "PatchSyntaxError"
	KindPathNotFound           ErrorKind = "PathNotFoundError"
	KindFormatConversion       ErrorKind = "FormatConversionError"
	KindSchemaValidation       ErrorKind = "SchemaValidationError"
	KindUnresolvableDependency ErrorKind = "UnresolvableDependencyError"
	KindCheckpointNotFound     ErrorKind = "CheckpointNotFoundError"
	KindCheckpointIO           ErrorKind = "CheckpointIOError"
	KindStoreCommit            ErrorKind = "StoreCommitError"
)

// Error is the error type returned by every updater component.
type Error struct {
	Kind    ErrorKind
	Message string

	// Details lists individual violations (schema validation) or the
	// offending cycle (dependency resolution).
	Details []string

	// Namespace and Committed are set on StoreCommitError.
	Namespace string
	Committed int

	Err error
}

// Error returns the error message.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Details, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinel values like
// ErrCheckpointNotFound work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrPatchSyntax            = &Error{Kind: KindPatchSyntax}
	ErrPathNotFound           = &Error{Kind: KindPathNotFound}
	ErrFormatConversion       = &Error{Kind: KindFormatConversion}
	ErrSchemaValidation       = &Error{Kind: KindSchemaValidation}
	ErrUnresolvableDependency = &Error{Kind: KindUnresolvableDependency}
	ErrCheckpointNotFound     = &Error{Kind: KindCheckpointNotFound}
	ErrCheckpointIO           = &Error{Kind: KindCheckpointIO}
	ErrStoreCommit            = &Error{Kind: KindStoreCommit}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind checks if err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewPatchSyntaxError creates an error for a malformed patch operation.
func NewPatchSyntaxError(format string, args ...interface{}) *Error {
	return newError(KindPatchSyntax, format, args...)
}

// NewPathNotFoundError creates an error for a patch path that does not resolve.
func NewPathNotFoundError(format string, args ...interface{}) *Error {
	return newError(KindPathNotFound, format, args...)
}

// NewFormatConversionError creates an error for a value that cannot be
// represented in the requested shape.
func NewFormatConversionError(format string, args ...interface{}) *Error {
	return newError(KindFormatConversion, format, args...)
}

// WrapFormatConversionError prefixes a conversion error with additional
// context, keeping its kind.
func WrapFormatConversionError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	var e *Error
	if errors.As(err, &e) && e.Kind == KindFormatConversion {
		return &Error{Kind: KindFormatConversion, Message: fmt.Sprintf("%s: %s", message, e.Message), Err: e.Err}
	}
	return &Error{Kind: KindFormatConversion, Message: message, Err: err}
}

// NewSchemaValidationError collects schema violations into one error.
func NewSchemaValidationError(violations []string) *Error {
	return &Error{
		Kind:    KindSchemaValidation,
		Message: "schema validation failed",
		Details: violations,
	}
}

// NewUnresolvableDependencyError reports a change-set whose dependencies form a cycle.
func NewUnresolvableDependencyError(cycle []string) *Error {
	return &Error{
		Kind:    KindUnresolvableDependency,
		Message: "changes cannot be ordered, split the request",
		Details: cycle,
	}
}

// NewCheckpointNotFoundError reports an unknown checkpoint name.
func NewCheckpointNotFoundError(name string) *Error {
	return newError(KindCheckpointNotFound, "checkpoint %s does not exist", name)
}

// NewCheckpointIOError wraps a checkpoint storage failure.
func NewCheckpointIOError(err error, format string, args ...interface{}) *Error {
	e := newError(KindCheckpointIO, format, args...)
	e.Err = err
	return e
}

// NewStoreCommitError reports a change rejected by the live store after
// committed changes were already applied. Those are not reverted.
func NewStoreCommitError(namespace string, committed int, change Change, err error) *Error {
	return &Error{
		Kind:      KindStoreCommit,
		Message:   fmt.Sprintf("failed to commit %s in namespace %s after %d committed changes", change, displayNamespace(namespace), committed),
		Namespace: namespace,
		Committed: committed,
		Err:       err,
	}
}
