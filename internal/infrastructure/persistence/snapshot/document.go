// Package snapshot defines the portable document form of a Platform and the
// multi-pass reconstruction of a Platform from it. The JSON file store, the
// Redis cache and the PostgreSQL store all go through this package so that the
// export schema and the lenient import policy live in one place.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/onlinelearn/learning-platform/internal/domain/platform"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrMissingField is returned when a required field is absent from a document.
	ErrMissingField = errors.New("snapshot: missing required field")

	// ErrInvalidGradeKey is returned when a grade key is not an integer student id.
	ErrInvalidGradeKey = errors.New("snapshot: grade key is not an integer")

	// ErrTrailingData is returned when input continues after the document.
	ErrTrailingData = errors.New("snapshot: trailing data after document")
)

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT
// ══════════════════════════════════════════════════════════════════════════════

// Document is the exported form of a Platform.
// Arrays follow registry (registration) order.
type Document struct {
	Students    []StudentRecord    `json:"students"`
	Instructors []InstructorRecord `json:"instructors"`
	Courses     []CourseRecord     `json:"courses"`
}

// StudentRecord is one student with enrolled course ids in enrollment order.
type StudentRecord struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Courses []int  `json:"courses"`
}

// InstructorRecord is one instructor with owned course ids in creation order.
type InstructorRecord struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Courses []int  `json:"courses"`
}

// CourseRecord is one course. Grades is keyed by student id; JSON object keys
// are strings on the wire and parsed back to integers on decode.
type CourseRecord struct {
	ID           int         `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	InstructorID int         `json:"instructor_id"`
	Students     []int       `json:"students"`
	Grades       map[int]int `json:"grades"`
}

// FromPlatform builds a Document from the current platform state.
func FromPlatform(p *platform.Platform) *Document {
	doc := &Document{
		Students:    make([]StudentRecord, 0, p.Stats().Students),
		Instructors: make([]InstructorRecord, 0, p.Stats().Instructors),
		Courses:     make([]CourseRecord, 0, p.Stats().Courses),
	}

	for _, s := range p.Students() {
		doc.Students = append(doc.Students, StudentRecord{
			ID:      s.ID,
			Name:    s.Name,
			Email:   s.Email,
			Courses: nonNil(s.CourseIDs()),
		})
	}

	for _, i := range p.Instructors() {
		doc.Instructors = append(doc.Instructors, InstructorRecord{
			ID:      i.ID,
			Name:    i.Name,
			Email:   i.Email,
			Courses: nonNil(i.CourseIDs()),
		})
	}

	for _, c := range p.Courses() {
		doc.Courses = append(doc.Courses, CourseRecord{
			ID:           c.ID,
			Title:        c.Title,
			Description:  c.Description,
			InstructorID: c.InstructorID(),
			Students:     nonNil(c.StudentIDs()),
			Grades:       c.Grades(),
		})
	}

	return doc
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

// ══════════════════════════════════════════════════════════════════════════════
// ENCODING
// ══════════════════════════════════════════════════════════════════════════════

// Encode writes the document as indented UTF-8 JSON. Non-ASCII text and
// HTML-sensitive characters are written as-is.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return nil
}

// Marshal returns the encoded document.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wire types keep required fields as pointers so that absence can be detected.
type wireDocument struct {
	Students    []wirePerson `json:"students"`
	Instructors []wirePerson `json:"instructors"`
	Courses     []wireCourse `json:"courses"`
}

type wirePerson struct {
	ID      *int    `json:"id"`
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Courses []int   `json:"courses"`
}

type wireCourse struct {
	ID           *int           `json:"id"`
	Title        *string        `json:"title"`
	Description  *string        `json:"description"`
	InstructorID *int           `json:"instructor_id"`
	Students     []int          `json:"students"`
	Grades       map[string]int `json:"grades"`
}

// Decode reads a JSON document. Missing top-level sections and missing
// course/grade lists are treated as empty; missing identity fields are errors.
// The input must hold exactly one JSON value; trailing data is an error.
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)

	var wire wireDocument
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = ErrTrailingData
		}
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return wire.document()
}

// Unmarshal decodes a document from bytes.
func Unmarshal(data []byte) (*Document, error) {
	var wire wireDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return wire.document()
}

func (w wireDocument) document() (*Document, error) {
	doc := &Document{
		Students:    make([]StudentRecord, 0, len(w.Students)),
		Instructors: make([]InstructorRecord, 0, len(w.Instructors)),
		Courses:     make([]CourseRecord, 0, len(w.Courses)),
	}

	for n, s := range w.Students {
		if err := s.check("students", n); err != nil {
			return nil, err
		}
		doc.Students = append(doc.Students, StudentRecord{
			ID: *s.ID, Name: *s.Name, Email: *s.Email, Courses: nonNil(s.Courses),
		})
	}

	for n, i := range w.Instructors {
		if err := i.check("instructors", n); err != nil {
			return nil, err
		}
		doc.Instructors = append(doc.Instructors, InstructorRecord{
			ID: *i.ID, Name: *i.Name, Email: *i.Email, Courses: nonNil(i.Courses),
		})
	}

	for n, c := range w.Courses {
		rec, err := c.record(n)
		if err != nil {
			return nil, err
		}
		doc.Courses = append(doc.Courses, rec)
	}

	return doc, nil
}

func (p wirePerson) check(section string, n int) error {
	switch {
	case p.ID == nil:
		return missing(section, n, "id")
	case p.Name == nil:
		return missing(section, n, "name")
	case p.Email == nil:
		return missing(section, n, "email")
	}
	return nil
}

func (c wireCourse) record(n int) (CourseRecord, error) {
	switch {
	case c.ID == nil:
		return CourseRecord{}, missing("courses", n, "id")
	case c.Title == nil:
		return CourseRecord{}, missing("courses", n, "title")
	case c.Description == nil:
		return CourseRecord{}, missing("courses", n, "description")
	case c.InstructorID == nil:
		return CourseRecord{}, missing("courses", n, "instructor_id")
	}

	grades := make(map[int]int, len(c.Grades))
	for key, value := range c.Grades {
		studentID, err := strconv.Atoi(key)
		if err != nil {
			return CourseRecord{}, fmt.Errorf("%w: courses[%d].grades[%q]", ErrInvalidGradeKey, n, key)
		}
		grades[studentID] = value
	}

	return CourseRecord{
		ID:           *c.ID,
		Title:        *c.Title,
		Description:  *c.Description,
		InstructorID: *c.InstructorID,
		Students:     nonNil(c.Students),
		Grades:       grades,
	}, nil
}

func missing(section string, n int, field string) error {
	return fmt.Errorf("%w: %s[%d].%s", ErrMissingField, section, n, field)
}
