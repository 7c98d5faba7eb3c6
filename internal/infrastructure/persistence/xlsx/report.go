// Package xlsx exports a grade report workbook for a Platform.
// The workbook is write-only, like the XML export.
package xlsx

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/onlinelearn/learning-platform/internal/domain/platform"
)

// Sheet names.
const (
	SheetCourses = "Courses"
	SheetGrades  = "Grades"
)

var (
	coursesHeader = []interface{}{"Course ID", "Title", "Instructor", "Students", "Average grade"}
	gradesHeader  = []interface{}{"Course ID", "Course", "Student ID", "Student", "Grade"}
)

// Build creates the workbook. The caller must Close it.
//
// Courses sheet: one row per course in registration order.
// Grades sheet: one row per grade, courses in registration order and
// students by ascending id.
func Build(p *platform.Platform) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetCourses); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetGrades); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx: add sheet: %w", err)
	}

	if err := writeCourses(f, p); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeGrades(f, p); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// Write streams the workbook to w.
func Write(w io.Writer, p *platform.Platform) error {
	f, err := Build(p)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

// WriteFile saves the workbook to path.
func WriteFile(path string, p *platform.Platform) error {
	f, err := Build(p)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %s: %w", path, err)
	}
	return nil
}

func writeCourses(f *excelize.File, p *platform.Platform) error {
	if err := setRow(f, SheetCourses, 1, coursesHeader); err != nil {
		return err
	}

	for n, c := range p.Courses() {
		instructorName := ""
		if owner, ok := p.Instructor(c.InstructorID()); ok {
			instructorName = owner.Name
		}

		var avg interface{} = ""
		if v, ok := c.AverageGrade(); ok {
			avg = math.Round(v*10) / 10
		}

		row := []interface{}{c.ID, c.Title, instructorName, c.StudentCount(), avg}
		if err := setRow(f, SheetCourses, n+2, row); err != nil {
			return err
		}
	}

	return styleHeader(f, SheetCourses, len(coursesHeader))
}

func writeGrades(f *excelize.File, p *platform.Platform) error {
	if err := setRow(f, SheetGrades, 1, gradesHeader); err != nil {
		return err
	}

	row := 2
	for _, c := range p.Courses() {
		grades := c.Grades()
		for _, studentID := range c.GradedStudentIDs() {
			studentName := ""
			if s, ok := p.Student(studentID); ok {
				studentName = s.Name
			}

			values := []interface{}{c.ID, c.Title, studentID, studentName, grades[studentID]}
			if err := setRow(f, SheetGrades, row, values); err != nil {
				return err
			}
			row++
		}
	}

	return styleHeader(f, SheetGrades, len(gradesHeader))
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: %s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: style: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return fmt.Errorf("xlsx: cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return fmt.Errorf("xlsx: column name: %w", err)
	}
	return f.SetColWidth(sheet, "A", lastCol, 18)
}
