package student

import (
	"slices"

	"github.com/onlinelearn/learning-platform/internal/domain/shared"
)

// Student - студент платформы.
type Student struct {
	shared.Person

	// courseIDs - курсы в порядке записи, без повторов при записи через Platform.
	courseIDs []int
}

// New создаёт студента без записей на курсы.
func New(name, email string, id int) *Student {
	return &Student{Person: shared.NewPerson(name, email, id)}
}

// CourseIDs возвращает копию списка курсов в порядке записи.
func (s *Student) CourseIDs() []int {
	return slices.Clone(s.courseIDs)
}

// CourseCount возвращает количество записей.
func (s *Student) CourseCount() int {
	return len(s.courseIDs)
}

// HasCourse проверяет, записан ли студент на курс.
func (s *Student) HasCourse(courseID int) bool {
	return slices.Contains(s.courseIDs, courseID)
}

// AttachCourse добавляет курс в конец последовательности без проверок.
// Дубликаты отсекает вызывающая сторона (Platform.Enroll); загрузчик
// снимков доверяет данным и вызывает метод напрямую.
func (s *Student) AttachCourse(courseID int) {
	s.courseIDs = append(s.courseIDs, courseID)
}
