package snapshot

import (
	"fmt"

	"github.com/onlinelearn/learning-platform/internal/domain/course"
	"github.com/onlinelearn/learning-platform/internal/domain/instructor"
	"github.com/onlinelearn/learning-platform/internal/domain/platform"
	"github.com/onlinelearn/learning-platform/internal/domain/student"
	"github.com/onlinelearn/learning-platform/pkg/logger"
)

// Link is a student→course reference from a document.
type Link struct {
	StudentID int
	CourseID  int
}

// RestoreResult is a reconstructed platform plus the references that the
// lenient import policy dropped.
type RestoreResult struct {
	Platform *platform.Platform

	// DroppedCourses lists course ids whose instructor_id did not resolve.
	DroppedCourses []int

	// SkippedEnrollments lists student course ids that did not resolve.
	SkippedEnrollments []Link
}

// Lossless reports whether every reference in the document resolved.
func (r *RestoreResult) Lossless() bool {
	return len(r.DroppedCourses) == 0 && len(r.SkippedEnrollments) == 0
}

// Restore rebuilds a fresh Platform from the document in strictly ordered passes:
//
//  1. instructors
//  2. students
//  3. courses, each attached to its instructor; a course whose instructor id is
//     unknown is dropped without failing the restore
//  4. enrollments from each student's course list, linked without the
//     duplicate checks of Platform.Enroll; unknown course ids are skipped
//  5. grades, replacing each restored course's grade mapping
//
// The course-side student lists are not read; enrollment is rebuilt from the
// student side only.
//
// Duplicate ids within a role fail the restore with the matching
// shared.ErrDuplicate* error. A last-record-wins overwrite would drop the
// earlier record without trace; FromPlatform never produces such a document.
//
// Dropped references are returned in the result and logged as warnings;
// log may be nil.
func (d *Document) Restore(log *logger.Logger, opts ...platform.Option) (*RestoreResult, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("snapshot"))

	p := platform.New(opts...)
	res := &RestoreResult{Platform: p}

	for _, rec := range d.Instructors {
		if err := p.AddInstructor(instructor.New(rec.Name, rec.Email, rec.ID)); err != nil {
			return nil, fmt.Errorf("restore instructor %d: %w", rec.ID, err)
		}
	}

	for _, rec := range d.Students {
		if err := p.AddStudent(student.New(rec.Name, rec.Email, rec.ID)); err != nil {
			return nil, fmt.Errorf("restore student %d: %w", rec.ID, err)
		}
	}

	for _, rec := range d.Courses {
		owner, ok := p.Instructor(rec.InstructorID)
		if !ok {
			// Lenient policy: a dangling owner drops the course.
			res.DroppedCourses = append(res.DroppedCourses, rec.ID)
			log.Warn("course dropped: instructor not found",
				logger.CourseID(rec.ID), logger.InstructorID(rec.InstructorID))
			continue
		}
		if err := p.AddCourse(course.New(rec.Title, rec.Description, rec.ID, owner.ID)); err != nil {
			return nil, fmt.Errorf("restore course %d: %w", rec.ID, err)
		}
		owner.AdoptCourse(rec.ID)
	}

	for _, rec := range d.Students {
		for _, courseID := range rec.Courses {
			if !p.LinkEnrollment(rec.ID, courseID) {
				res.SkippedEnrollments = append(res.SkippedEnrollments, Link{StudentID: rec.ID, CourseID: courseID})
				log.Warn("enrollment skipped: course not found",
					logger.StudentID(rec.ID), logger.CourseID(courseID))
			}
		}
	}

	for _, rec := range d.Courses {
		if c, ok := p.Course(rec.ID); ok {
			c.ReplaceGrades(rec.Grades)
		}
	}

	return res, nil
}
