package instructor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateCourse_SetsOwnership(t *testing.T) {
	anna := New("Анна Иванова", "anna@university.ru", 1)

	c := anna.CreateCourse("Python для начинающих", "Основы Python", 101)
	assert.Equal(t, 101, c.ID)
	assert.Equal(t, "Python для начинающих", c.Title)
	assert.Equal(t, "Основы Python", c.Description)
	assert.Equal(t, 1, c.InstructorID())

	anna.CreateCourse("Python II", "", 103)
	assert.Equal(t, []int{101, 103}, anna.CourseIDs())
	assert.True(t, anna.OwnsCourse(103))
	assert.False(t, anna.OwnsCourse(102))
	assert.Equal(t, "Анна Иванова (anna@university.ru)", anna.String())
}

func TestReleaseCourse(t *testing.T) {
	anna := New("Анна Иванова", "anna@university.ru", 1)
	anna.CreateCourse("A", "", 101)
	anna.CreateCourse("B", "", 102)
	anna.CreateCourse("A again", "", 101)

	anna.ReleaseCourse(101, true)
	assert.Equal(t, []int{101, 102}, anna.CourseIDs())

	anna.ReleaseCourse(101, false)
	assert.Equal(t, []int{102}, anna.CourseIDs())
	assert.False(t, anna.OwnsCourse(101))
}
