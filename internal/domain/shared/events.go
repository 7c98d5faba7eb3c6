// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Every enrollment and grading attempt produces exactly
// one of them, successful or not.
const (
	// Enrollment events
	EventStudentEnrolled    EventType = "enrollment.enrolled"
	EventEnrollmentRejected EventType = "enrollment.rejected"

	// Grading events
	EventGradeRecorded EventType = "grading.recorded"
	EventGradeRejected EventType = "grading.rejected"
)

// IsRejection reports whether the event type describes a refused operation.
func (t EventType) IsRejection() bool {
	return t == EventEnrollmentRejected || t == EventGradeRejected
}

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the course the event belongs to.
	AggregateID() string

	// Message returns the human-readable report line for the event.
	Message() string
}

// EventHandler handles a published event.
type EventHandler func(event Event) error

// EventPublisher accepts domain events. Implementations must not block the caller
// indefinitely; the domain ignores publish errors.
type EventPublisher interface {
	Publish(event Event) error
}

// NopPublisher discards all events.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event for the given course.
func NewBaseEvent(eventType EventType, courseID int) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: strconv.Itoa(courseID),
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Enrollment Events
// ═══════════════════════════════════════════════════════════════════════════

// StudentEnrolledEvent is emitted when a student joins a course.
type StudentEnrolledEvent struct {
	BaseEvent
	StudentID   int    `json:"student_id"`
	StudentName string `json:"student_name"`
	CourseID    int    `json:"course_id"`
	CourseTitle string `json:"course_title"`
}

// NewStudentEnrolledEvent creates a StudentEnrolledEvent.
func NewStudentEnrolledEvent(studentID int, studentName string, courseID int, courseTitle string) *StudentEnrolledEvent {
	return &StudentEnrolledEvent{
		BaseEvent:   NewBaseEvent(EventStudentEnrolled, courseID),
		StudentID:   studentID,
		StudentName: studentName,
		CourseID:    courseID,
		CourseTitle: courseTitle,
	}
}

// Message implements Event interface.
func (e *StudentEnrolledEvent) Message() string {
	return fmt.Sprintf("Студент %s записан на курс %s", e.StudentName, e.CourseTitle)
}

// EnrollmentRejectedEvent is emitted when an enrollment attempt is refused.
type EnrollmentRejectedEvent struct {
	BaseEvent
	StudentID   int    `json:"student_id"`
	StudentName string `json:"student_name"`
	CourseID    int    `json:"course_id"`
	CourseTitle string `json:"course_title"`
	Reason      error  `json:"-"`
}

// NewEnrollmentRejectedEvent creates an EnrollmentRejectedEvent.
func NewEnrollmentRejectedEvent(studentID int, studentName string, courseID int, courseTitle string, reason error) *EnrollmentRejectedEvent {
	return &EnrollmentRejectedEvent{
		BaseEvent:   NewBaseEvent(EventEnrollmentRejected, courseID),
		StudentID:   studentID,
		StudentName: studentName,
		CourseID:    courseID,
		CourseTitle: courseTitle,
		Reason:      reason,
	}
}

// Message implements Event interface.
func (e *EnrollmentRejectedEvent) Message() string {
	switch {
	case errors.Is(e.Reason, ErrAlreadyEnrolled):
		return fmt.Sprintf("Ошибка: Студент уже записан на курс %s", e.CourseTitle)
	case errors.Is(e.Reason, ErrStudentAlreadyInCourse):
		return fmt.Sprintf("Ошибка: Студент %s уже в курсе", e.StudentName)
	case errors.Is(e.Reason, ErrStudentNotFound):
		return fmt.Sprintf("Ошибка: Студент %d не найден", e.StudentID)
	case errors.Is(e.Reason, ErrCourseNotFound):
		return fmt.Sprintf("Ошибка: Курс %d не найден", e.CourseID)
	default:
		return fmt.Sprintf("Ошибка: %v", e.Reason)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Grading Events
// ═══════════════════════════════════════════════════════════════════════════

// GradeRecordedEvent is emitted when a grade is stored.
type GradeRecordedEvent struct {
	BaseEvent
	StudentID   int    `json:"student_id"`
	StudentName string `json:"student_name"`
	CourseID    int    `json:"course_id"`
	Grade       int    `json:"grade"`
	Previous    *int   `json:"previous,omitempty"`
}

// NewGradeRecordedEvent creates a GradeRecordedEvent. previous is nil for a first grade.
func NewGradeRecordedEvent(studentID int, studentName string, courseID, grade int, previous *int) *GradeRecordedEvent {
	return &GradeRecordedEvent{
		BaseEvent:   NewBaseEvent(EventGradeRecorded, courseID),
		StudentID:   studentID,
		StudentName: studentName,
		CourseID:    courseID,
		Grade:       grade,
		Previous:    previous,
	}
}

// Message implements Event interface.
func (e *GradeRecordedEvent) Message() string {
	return fmt.Sprintf("Оценка %d добавлена для %s", e.Grade, e.StudentName)
}

// GradeRejectedEvent is emitted when a grade is refused.
type GradeRejectedEvent struct {
	BaseEvent
	StudentID int   `json:"student_id"`
	CourseID  int   `json:"course_id"`
	Grade     int   `json:"grade"`
	Reason    error `json:"-"`
}

// NewGradeRejectedEvent creates a GradeRejectedEvent.
func NewGradeRejectedEvent(studentID, courseID, grade int, reason error) *GradeRejectedEvent {
	return &GradeRejectedEvent{
		BaseEvent: NewBaseEvent(EventGradeRejected, courseID),
		StudentID: studentID,
		CourseID:  courseID,
		Grade:     grade,
		Reason:    reason,
	}
}

// Message implements Event interface.
func (e *GradeRejectedEvent) Message() string {
	switch {
	case errors.Is(e.Reason, ErrStudentNotInCourse):
		return "Ошибка: Студент не найден в курсе"
	case errors.Is(e.Reason, ErrGradeOutOfRange):
		return fmt.Sprintf("Ошибка: Оценка должна быть от %d до %d", MinGrade, MaxGrade)
	case errors.Is(e.Reason, ErrCourseNotFound):
		return fmt.Sprintf("Ошибка: Курс %d не найден", e.CourseID)
	default:
		return fmt.Sprintf("Ошибка: %v", e.Reason)
	}
}
