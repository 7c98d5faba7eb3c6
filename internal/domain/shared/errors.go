// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrValueOutOfRange = errors.New("value out of range")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "course", "platform"
	Op      string // Operation that failed, e.g., "Enroll", "AddGrade"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
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

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Domain == t.Domain && e.Op == t.Op && e.Message == t.Message
	}
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

// Registry errors
var (
	ErrStudentNotFound     = NewDomainError("platform", "Find", ErrNotFound, "student not found")
	ErrInstructorNotFound  = NewDomainError("platform", "Find", ErrNotFound, "instructor not found")
	ErrCourseNotFound      = NewDomainError("platform", "Find", ErrNotFound, "course not found")
	ErrDuplicateStudent    = NewDomainError("platform", "Register", ErrAlreadyExists, "student id already registered")
	ErrDuplicateInstructor = NewDomainError("platform", "Register", ErrAlreadyExists, "instructor id already registered")
	ErrDuplicateCourse     = NewDomainError("platform", "Register", ErrAlreadyExists, "course id already registered")
)

// Enrollment and grading errors
var (
	ErrAlreadyEnrolled        = NewDomainError("student", "Enroll", ErrAlreadyExists, "student already enrolled in course")
	ErrStudentAlreadyInCourse = NewDomainError("course", "AddStudent", ErrAlreadyExists, "student already in course")
	ErrStudentNotInCourse     = NewDomainError("course", "AddGrade", ErrNotFound, "student not found in course")
	ErrGradeOutOfRange        = NewDomainError("course", "AddGrade", ErrValueOutOfRange, "grade must be between 0 and 100")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrValueOutOfRange)
}
