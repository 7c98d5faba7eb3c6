package shared

import "fmt"

// ═══════════════════════════════════════════════════════════════════════════
// Person
// ═══════════════════════════════════════════════════════════════════════════

// Person holds the identity fields shared by every role on the platform.
// Student and Instructor embed it; the ID is unique only within a role.
type Person struct {
	ID    int
	Name  string
	Email string
}

// NewPerson creates a Person.
func NewPerson(name, email string, id int) Person {
	return Person{ID: id, Name: name, Email: email}
}

// String returns "Name (email)".
func (p Person) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Email)
}

// ═══════════════════════════════════════════════════════════════════════════
// Grade
// ═══════════════════════════════════════════════════════════════════════════

// Grade bounds, inclusive.
const (
	MinGrade = 0
	MaxGrade = 100
)

// ValidGrade reports whether g lies in [MinGrade, MaxGrade].
func ValidGrade(g int) bool {
	return g >= MinGrade && g <= MaxGrade
}
