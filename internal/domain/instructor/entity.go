// Package instructor содержит доменную модель преподавателя.
// Курсы создаются только через преподавателя, который становится их владельцем.
package instructor

import (
	"slices"

	"github.com/onlinelearn/learning-platform/internal/domain/course"
	"github.com/onlinelearn/learning-platform/internal/domain/shared"
)

// Instructor - преподаватель платформы.
type Instructor struct {
	shared.Person

	// courseIDs - созданные курсы в порядке создания.
	courseIDs []int
}

// New создаёт преподавателя без курсов.
func New(name, email string, id int) *Instructor {
	return &Instructor{Person: shared.NewPerson(name, email, id)}
}

// CreateCourse создаёт курс, владельцем которого становится преподаватель,
// и добавляет его в список курсов преподавателя.
// Регистрировать курс в Platform нужно отдельно.
func (i *Instructor) CreateCourse(title, description string, courseID int) *course.Course {
	c := course.New(title, description, courseID, i.ID)
	i.courseIDs = append(i.courseIDs, courseID)
	return c
}

// AdoptCourse добавляет ID уже существующего курса в список владельца.
// Используется при восстановлении из снимка.
func (i *Instructor) AdoptCourse(courseID int) {
	i.courseIDs = append(i.courseIDs, courseID)
}

// ReleaseCourse убирает лишние записи о курсе из списка владельца.
// Если owned, первая запись сохраняется и удаляются только повторы;
// иначе курс удаляется из списка полностью.
func (i *Instructor) ReleaseCourse(courseID int, owned bool) {
	kept := i.courseIDs[:0]
	seen := false
	for _, id := range i.courseIDs {
		if id == courseID {
			if !owned || seen {
				continue
			}
			seen = true
		}
		kept = append(kept, id)
	}
	i.courseIDs = kept
}

// CourseIDs возвращает копию списка курсов в порядке создания.
func (i *Instructor) CourseIDs() []int {
	return slices.Clone(i.courseIDs)
}

// OwnsCourse проверяет, принадлежит ли курс преподавателю.
func (i *Instructor) OwnsCourse(courseID int) bool {
	return slices.Contains(i.courseIDs, courseID)
}
