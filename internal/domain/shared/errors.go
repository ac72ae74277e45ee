// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds. Every domain error wraps exactly one of these so callers
// can classify failures with errors.Is() without knowing the concrete error.
var (
	// ErrValidation covers out-of-range or malformed input. Rejected before
	// any state change and never retried automatically.
	ErrValidation = errors.New("validation error")

	// ErrConflict covers attempts to create state that already exists
	// (active session, duplicate exam key). State is left unchanged.
	ErrConflict = errors.New("conflict")

	// ErrCapability covers failures of the external permission/grant
	// collaborator. The attempted state change is rolled back in full.
	ErrCapability = errors.New("capability error")

	// ErrNotFound covers unknown sessions, exams and subjects.
	ErrNotFound = errors.New("not found")

	// ErrPersistence covers durable-store read/write failures. The in-memory
	// copy stays authoritative for the running process.
	ErrPersistence = errors.New("persistence error")
)

// DomainError carries the context of a failed domain operation.
type DomainError struct {
	Domain  string // e.g. "focus", "grading", "exam"
	Op      string // operation that failed, e.g. "Start", "Convert"
	Kind    error  // base error kind for errors.Is() checking
	Message string // human-readable message
	Err     error  // underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both kind and cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Focus-session domain errors.
var (
	ErrAlreadyActive    = NewDomainError("focus", "Start", ErrConflict, "owner already has an active session")
	ErrDurationExceeded = NewDomainError("focus", "Start", ErrValidation, "duration must be between 1 and 480 minutes")
	ErrInvalidMode      = NewDomainError("focus", "Start", ErrValidation, "unknown focus mode")
	ErrCapabilityDenied = NewDomainError("focus", "Start", ErrCapability, "capability grant refused by platform")
	ErrNoActiveSession  = NewDomainError("focus", "Lookup", ErrNotFound, "no active session for owner")
	ErrSessionEnded     = NewDomainError("focus", "Status", ErrNotFound, "session has ended, pending cleanup")
	ErrRequestPending   = NewDomainError("focus", "Request", ErrConflict, "a termination request is already pending for this owner")
	ErrRequestResolved  = NewDomainError("focus", "Resolve", ErrConflict, "termination request already resolved")
	ErrUnauthorized     = NewDomainError("focus", "Resolve", ErrCapability, "caller lacks admin capability")
)

// Grading domain errors.
var (
	ErrInvalidRawMark    = NewDomainError("grading", "Convert", ErrValidation, "raw mark must be between 0 and 100")
	ErrInvalidPercentage = NewDomainError("grading", "Resolve", ErrValidation, "percentage must be between 0 and 100")
	ErrInvalidLevel      = NewDomainError("grading", "Resolve", ErrValidation, "level must be between 1 and 7")
	ErrEmptyTable        = NewDomainError("grading", "Convert", ErrValidation, "conversion table has no data points")
	ErrUnknownSubject    = NewDomainError("grading", "Lookup", ErrNotFound, "unknown subject")
)

// Exam registry errors.
var (
	ErrDuplicateExam   = NewDomainError("exam", "Set", ErrConflict, "an exam with this name already exists")
	ErrUnknownExam     = NewDomainError("exam", "Lookup", ErrNotFound, "exam not found")
	ErrExamInPast      = NewDomainError("exam", "Set", ErrValidation, "exam date must be in the future")
	ErrBadExamDateTime = NewDomainError("exam", "Set", ErrValidation, "invalid date/time format, use YYYY-MM-DD and HH:MM")
)

// Resource registry errors.
var (
	ErrInvalidResourceURL = NewDomainError("resource", "Add", ErrValidation, "resource URL must be http(s)")
	ErrNoResources        = NewDomainError("resource", "List", ErrNotFound, "no resources recorded for subject")
)
