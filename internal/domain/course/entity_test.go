package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlinelearn/learning-platform/internal/domain/shared"
)

func TestCourse_Membership(t *testing.T) {
	c := New("Go", "Основы Go", 7, 1)
	assert.Equal(t, 1, c.InstructorID())

	require.NoError(t, c.AddStudent(10))
	assert.ErrorIs(t, c.AddStudent(10), shared.ErrStudentAlreadyInCourse)
	assert.True(t, c.HasStudent(10))
	assert.False(t, c.HasStudent(11))
	assert.Equal(t, 1, c.StudentCount())
}

func TestCourse_SetGrade(t *testing.T) {
	c := New("Go", "", 7, 1)

	assert.ErrorIs(t, c.SetGrade(10, 50), shared.ErrStudentNotInCourse)

	require.NoError(t, c.AddStudent(10))
	assert.ErrorIs(t, c.SetGrade(10, 101), shared.ErrGradeOutOfRange)
	_, ok := c.Grade(10)
	assert.False(t, ok)

	require.NoError(t, c.SetGrade(10, 0))
	require.NoError(t, c.SetGrade(10, 100))
	g, ok := c.Grade(10)
	require.True(t, ok)
	assert.Equal(t, 100, g)
}

func TestCourse_GradesAreCopied(t *testing.T) {
	c := New("Go", "", 7, 1)
	c.ReplaceGrades(map[int]int{3: 70, 1: 90})

	grades := c.Grades()
	grades[1] = 0
	g, _ := c.Grade(1)
	assert.Equal(t, 90, g)
	assert.Equal(t, []int{1, 3}, c.GradedStudentIDs())
}

func TestCourse_AverageGrade(t *testing.T) {
	c := New("Go", "", 7, 1)
	_, ok := c.AverageGrade()
	assert.False(t, ok)

	c.ReplaceGrades(map[int]int{1001: 85, 1002: 92})
	avg, ok := c.AverageGrade()
	require.True(t, ok)
	assert.InDelta(t, 88.5, avg, 1e-9)
}
