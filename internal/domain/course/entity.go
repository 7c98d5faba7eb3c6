// Package course содержит доменную модель курса: состав слушателей и оценки.
package course

import (
	"maps"
	"slices"

	"github.com/onlinelearn/learning-platform/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Course - курс платформы.
type Course struct {
	ID          int
	Title       string
	Description string

	// instructorID задаётся при создании и больше не меняется.
	instructorID int

	// studentIDs - множество слушателей; порядок сохраняется для сериализации.
	studentIDs []int

	// grades - оценка по ID студента.
	grades map[int]int
}

// New создаёт курс. Обычный путь создания - instructor.CreateCourse;
// напрямую конструктор вызывает только загрузчик снимков.
func New(title, description string, id, instructorID int) *Course {
	return &Course{
		ID:           id,
		Title:        title,
		Description:  description,
		instructorID: instructorID,
		grades:       make(map[int]int),
	}
}

// InstructorID возвращает ID преподавателя-владельца.
func (c *Course) InstructorID() int {
	return c.instructorID
}

// ══════════════════════════════════════════════════════════════════════════════
// MEMBERSHIP
// ══════════════════════════════════════════════════════════════════════════════

// StudentIDs возвращает копию списка слушателей в порядке записи.
func (c *Course) StudentIDs() []int {
	return slices.Clone(c.studentIDs)
}

// StudentCount возвращает количество слушателей.
func (c *Course) StudentCount() int {
	return len(c.studentIDs)
}

// HasStudent проверяет, записан ли студент на курс.
func (c *Course) HasStudent(studentID int) bool {
	return slices.Contains(c.studentIDs, studentID)
}

// AddStudent добавляет студента в состав курса.
// Возвращает ErrStudentAlreadyInCourse, если студент уже записан.
func (c *Course) AddStudent(studentID int) error {
	if c.HasStudent(studentID) {
		return shared.ErrStudentAlreadyInCourse
	}
	c.studentIDs = append(c.studentIDs, studentID)
	return nil
}

// AttachStudent добавляет студента без проверки на дубликат (загрузка снимка).
func (c *Course) AttachStudent(studentID int) {
	c.studentIDs = append(c.studentIDs, studentID)
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADES
// ══════════════════════════════════════════════════════════════════════════════

// SetGrade сохраняет оценку слушателя, перезаписывая предыдущую.
// Возвращает ErrStudentNotInCourse или ErrGradeOutOfRange; состояние
// при ошибке не меняется.
func (c *Course) SetGrade(studentID, grade int) error {
	if !c.HasStudent(studentID) {
		return shared.ErrStudentNotInCourse
	}
	if !shared.ValidGrade(grade) {
		return shared.ErrGradeOutOfRange
	}
	c.grades[studentID] = grade
	return nil
}

// Grade возвращает оценку студента.
func (c *Course) Grade(studentID int) (int, bool) {
	g, ok := c.grades[studentID]
	return g, ok
}

// Grades возвращает копию всех оценок.
func (c *Course) Grades() map[int]int {
	return maps.Clone(c.grades)
}

// GradedStudentIDs возвращает ID студентов с оценками по возрастанию.
func (c *Course) GradedStudentIDs() []int {
	return slices.Sorted(maps.Keys(c.grades))
}

// ReplaceGrades заменяет все оценки целиком без проверок (загрузка снимка).
func (c *Course) ReplaceGrades(grades map[int]int) {
	c.grades = make(map[int]int, len(grades))
	maps.Copy(c.grades, grades)
}

// AverageGrade возвращает среднюю оценку; false, если оценок нет.
func (c *Course) AverageGrade() (float64, bool) {
	if len(c.grades) == 0 {
		return 0, false
	}
	sum := 0
	for _, g := range c.grades {
		sum += g
	}
	return float64(sum) / float64(len(c.grades)), true
}
