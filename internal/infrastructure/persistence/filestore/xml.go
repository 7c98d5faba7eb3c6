package filestore

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/onlinelearn/learning-platform/internal/domain/platform"
)

// XML layout, root element learning_platform. Section wrappers are always
// written, even when empty. There is no XML reader.
type xmlPlatform struct {
	XMLName     xml.Name       `xml:"learning_platform"`
	Students    xmlStudents    `xml:"students"`
	Instructors xmlInstructors `xml:"instructors"`
	Courses     xmlCourses     `xml:"courses"`
}

type xmlStudents struct {
	Items []xmlStudent `xml:"student"`
}

type xmlStudent struct {
	ID      int           `xml:"id"`
	Name    string        `xml:"name"`
	Email   string        `xml:"email"`
	Courses xmlCourseRefs `xml:"courses"`
}

type xmlCourseRefs struct {
	IDs []int `xml:"course_id"`
}

type xmlInstructors struct {
	Items []xmlInstructor `xml:"instructor"`
}

type xmlInstructor struct {
	ID    int    `xml:"id"`
	Name  string `xml:"name"`
	Email string `xml:"email"`
}

type xmlCourses struct {
	Items []xmlCourse `xml:"course"`
}

type xmlCourse struct {
	ID           int            `xml:"id"`
	Title        string         `xml:"title"`
	Description  string         `xml:"description"`
	InstructorID int            `xml:"instructor_id"`
	Students     xmlStudentRefs `xml:"students"`
	Grades       xmlGrades      `xml:"grades"`
}

type xmlStudentRefs struct {
	IDs []int `xml:"student_id"`
}

type xmlGrades struct {
	Items []xmlGrade `xml:"grade"`
}

type xmlGrade struct {
	StudentID int `xml:"student_id"`
	Value     int `xml:"value"`
}

func toXML(p *platform.Platform) xmlPlatform {
	var doc xmlPlatform

	for _, s := range p.Students() {
		doc.Students.Items = append(doc.Students.Items, xmlStudent{
			ID:      s.ID,
			Name:    s.Name,
			Email:   s.Email,
			Courses: xmlCourseRefs{IDs: s.CourseIDs()},
		})
	}

	for _, i := range p.Instructors() {
		doc.Instructors.Items = append(doc.Instructors.Items, xmlInstructor{
			ID:    i.ID,
			Name:  i.Name,
			Email: i.Email,
		})
	}

	for _, c := range p.Courses() {
		grades := c.Grades()
		var items []xmlGrade
		for _, studentID := range c.GradedStudentIDs() {
			items = append(items, xmlGrade{StudentID: studentID, Value: grades[studentID]})
		}
		doc.Courses.Items = append(doc.Courses.Items, xmlCourse{
			ID:           c.ID,
			Title:        c.Title,
			Description:  c.Description,
			InstructorID: c.InstructorID(),
			Students:     xmlStudentRefs{IDs: c.StudentIDs()},
			Grades:       xmlGrades{Items: items},
		})
	}

	return doc
}

// WriteXML writes the platform as UTF-8 XML with a declaration.
func WriteXML(w io.Writer, p *platform.Platform) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("xml: write header: %w", err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(toXML(p)); err != nil {
		return fmt.Errorf("xml: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("xml: flush: %w", err)
	}

	_, err := io.WriteString(w, "\n")
	return err
}
