// Package student содержит доменную модель студента онлайн-платформы.
//
// Студент - это роль Person (имя, email, ID) плюс упорядоченная
// последовательность ID курсов, на которые он записан. Порядок совпадает
// с порядком записи.
//
// Сам студент не проверяет правила записи: это делает агрегат Platform,
// который одновременно обновляет студента и курс:
//
//	p := platform.New()
//	_ = p.AddStudent(student.New("Иван Петров", "ivan@student.ru", 1001))
//	ok := p.Enroll(1001, 101)
//
// Ссылки на курсы хранятся как целочисленные ID и разрешаются через
// реестры Platform, поэтому циклических указателей между студентом
// и курсом нет.
package student
