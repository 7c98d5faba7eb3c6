// Package platform содержит агрегат Platform - реестр студентов,
// преподавателей и курсов, а также правила записи на курсы и выставления оценок.
//
// Все связи между сущностями - целочисленные ID, которые разрешаются через
// реестры агрегата. Ошибки валидации (повторная запись, оценка вне диапазона)
// считаются штатной ситуацией: операции возвращают false и публикуют
// событие с текстом для пользователя, но никогда не паникуют.
//
// Агрегат не потокобезопасен: предполагается последовательный доступ.
package platform

import (
	"github.com/onlinelearn/learning-platform/internal/domain/course"
	"github.com/onlinelearn/learning-platform/internal/domain/instructor"
	"github.com/onlinelearn/learning-platform/internal/domain/shared"
	"github.com/onlinelearn/learning-platform/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATE
// ══════════════════════════════════════════════════════════════════════════════

// Platform - корневой агрегат онлайн-платформы.
type Platform struct {
	students    *registry[*student.Student]
	instructors *registry[*instructor.Instructor]
	courses     *registry[*course.Course]

	publisher shared.EventPublisher
}

// Option настраивает Platform.
type Option func(*Platform)

// WithPublisher задаёт получателя доменных событий (отчётов об операциях).
func WithPublisher(pub shared.EventPublisher) Option {
	return func(p *Platform) {
		if pub != nil {
			p.publisher = pub
		}
	}
}

// New создаёт пустую платформу.
func New(opts ...Option) *Platform {
	p := &Platform{
		students:    newRegistry[*student.Student](),
		instructors: newRegistry[*instructor.Instructor](),
		courses:     newRegistry[*course.Course](),
		publisher:   shared.NopPublisher{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// AddStudent регистрирует студента. ID должен быть уникален среди студентов.
func (p *Platform) AddStudent(s *student.Student) error {
	if !p.students.add(s.ID, s) {
		return shared.ErrDuplicateStudent
	}
	return nil
}

// AddInstructor регистрирует преподавателя. ID должен быть уникален среди преподавателей.
func (p *Platform) AddInstructor(i *instructor.Instructor) error {
	if !p.instructors.add(i.ID, i) {
		return shared.ErrDuplicateInstructor
	}
	return nil
}

// AddCourse регистрирует курс. Преподаватель курса должен быть уже зарегистрирован.
//
// При отказе из-за дубликата ID запись, добавленная владельцу в
// Instructor.CreateCourse, откатывается: список курсов преподавателя
// остаётся согласован с instructor_id зарегистрированных курсов.
func (p *Platform) AddCourse(c *course.Course) error {
	owner, ok := p.instructors.get(c.InstructorID())
	if !ok {
		return shared.ErrInstructorNotFound
	}
	if existing, dup := p.courses.get(c.ID); dup {
		owner.ReleaseCourse(c.ID, existing.InstructorID() == owner.ID)
		return shared.ErrDuplicateCourse
	}
	p.courses.add(c.ID, c)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOOKUP
// ══════════════════════════════════════════════════════════════════════════════

// Student возвращает студента по ID.
func (p *Platform) Student(id int) (*student.Student, bool) {
	return p.students.get(id)
}

// Instructor возвращает преподавателя по ID.
func (p *Platform) Instructor(id int) (*instructor.Instructor, bool) {
	return p.instructors.get(id)
}

// Course возвращает курс по ID.
func (p *Platform) Course(id int) (*course.Course, bool) {
	return p.courses.get(id)
}

// Students возвращает студентов в порядке регистрации.
func (p *Platform) Students() []*student.Student {
	return p.students.values()
}

// Instructors возвращает преподавателей в порядке регистрации.
func (p *Platform) Instructors() []*instructor.Instructor {
	return p.instructors.values()
}

// Courses возвращает курсы в порядке регистрации.
func (p *Platform) Courses() []*course.Course {
	return p.courses.values()
}

// StudentIDs возвращает ID студентов в порядке регистрации.
func (p *Platform) StudentIDs() []int { return p.students.ids() }

// InstructorIDs возвращает ID преподавателей в порядке регистрации.
func (p *Platform) InstructorIDs() []int { return p.instructors.ids() }

// CourseIDs возвращает ID курсов в порядке регистрации.
func (p *Platform) CourseIDs() []int { return p.courses.ids() }

// Stats - размеры реестров.
type Stats struct {
	Students    int
	Instructors int
	Courses     int
}

// Stats возвращает количество сущностей каждого вида.
func (p *Platform) Stats() Stats {
	return Stats{
		Students:    p.students.len(),
		Instructors: p.instructors.len(),
		Courses:     p.courses.len(),
	}
}
