package platform

import (
	"github.com/onlinelearn/learning-platform/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT
// ══════════════════════════════════════════════════════════════════════════════

// Enroll записывает студента на курс и сообщает об успехе.
// Причина отказа уходит получателю событий.
func (p *Platform) Enroll(studentID, courseID int) bool {
	return p.EnrollE(studentID, courseID) == nil
}

// EnrollE записывает студента на курс и возвращает причину отказа.
//
// Проверки по порядку: студент и курс зарегистрированы; курса ещё нет
// в списке студента (ErrAlreadyEnrolled); студента ещё нет в составе
// курса (ErrStudentAlreadyInCourse - защита от рассинхронизации сторон).
// При успехе обе стороны обновляются вместе.
func (p *Platform) EnrollE(studentID, courseID int) error {
	s, sok := p.students.get(studentID)
	c, cok := p.courses.get(courseID)

	var studentName, courseTitle string
	if sok {
		studentName = s.Name
	}
	if cok {
		courseTitle = c.Title
	}

	reject := func(reason error) error {
		p.publish(shared.NewEnrollmentRejectedEvent(studentID, studentName, courseID, courseTitle, reason))
		return reason
	}

	switch {
	case !sok:
		return reject(shared.ErrStudentNotFound)
	case !cok:
		return reject(shared.ErrCourseNotFound)
	case s.HasCourse(courseID):
		return reject(shared.ErrAlreadyEnrolled)
	}

	if err := c.AddStudent(studentID); err != nil {
		return reject(err)
	}
	s.AttachCourse(courseID)

	p.publish(shared.NewStudentEnrolledEvent(studentID, studentName, courseID, courseTitle))
	return nil
}

// LinkEnrollment связывает студента и курс без проверок на дубликаты.
// Используется только при восстановлении доверенного снимка;
// неизвестные ID молча пропускаются.
func (p *Platform) LinkEnrollment(studentID, courseID int) bool {
	s, sok := p.students.get(studentID)
	c, cok := p.courses.get(courseID)
	if !sok || !cok {
		return false
	}
	s.AttachCourse(courseID)
	c.AttachStudent(studentID)
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADING
// ══════════════════════════════════════════════════════════════════════════════

// AddGrade выставляет оценку студенту за курс и сообщает об успехе.
func (p *Platform) AddGrade(courseID, studentID, grade int) bool {
	return p.AddGradeE(courseID, studentID, grade) == nil
}

// AddGradeE выставляет оценку и возвращает причину отказа:
// ErrCourseNotFound, ErrStudentNotInCourse или ErrGradeOutOfRange.
// Повторная оценка перезаписывает предыдущую.
func (p *Platform) AddGradeE(courseID, studentID, grade int) error {
	c, ok := p.courses.get(courseID)
	if !ok {
		p.publish(shared.NewGradeRejectedEvent(studentID, courseID, grade, shared.ErrCourseNotFound))
		return shared.ErrCourseNotFound
	}

	var previous *int
	if g, had := c.Grade(studentID); had {
		previous = &g
	}

	if err := c.SetGrade(studentID, grade); err != nil {
		p.publish(shared.NewGradeRejectedEvent(studentID, courseID, grade, err))
		return err
	}

	// Состав курса проверен в SetGrade; имя берём из реестра, если студент там есть.
	var name string
	if s, ok := p.students.get(studentID); ok {
		name = s.Name
	}
	p.publish(shared.NewGradeRecordedEvent(studentID, name, courseID, grade, previous))
	return nil
}

func (p *Platform) publish(e shared.Event) {
	// Ошибки получателя не влияют на результат операции.
	_ = p.publisher.Publish(e)
}
