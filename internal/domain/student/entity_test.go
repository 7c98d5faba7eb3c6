package student

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStudent_Courses(t *testing.T) {
	s := New("Иван Петров", "ivan@student.ru", 1001)
	assert.Equal(t, 1001, s.ID)
	assert.Equal(t, "Иван Петров (ivan@student.ru)", s.String())

	s.AttachCourse(102)
	s.AttachCourse(101)
	assert.True(t, s.HasCourse(101))
	assert.False(t, s.HasCourse(103))

	ids := s.CourseIDs()
	ids[0] = 0
	assert.Equal(t, []int{102, 101}, s.CourseIDs())
	assert.Equal(t, 2, s.CourseCount())
}
