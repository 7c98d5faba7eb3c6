package filestore

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/onlinelearn/learning-platform/internal/domain/instructor"
	"github.com/onlinelearn/learning-platform/internal/domain/platform"
	"github.com/onlinelearn/learning-platform/internal/domain/shared"
	"github.com/onlinelearn/learning-platform/internal/domain/student"
	xlsxreport "github.com/onlinelearn/learning-platform/internal/infrastructure/persistence/xlsx"
	"github.com/onlinelearn/learning-platform/pkg/logger"
)

func newDemoPlatform(t *testing.T) *platform.Platform {
	t.Helper()

	p := platform.New()
	anna := instructor.New("Анна Иванова", "anna@university.ru", 1)
	petr := instructor.New("Петр Сидоров", "petr@university.ru", 2)
	require.NoError(t, p.AddInstructor(anna))
	require.NoError(t, p.AddInstructor(petr))
	require.NoError(t, p.AddCourse(anna.CreateCourse("Python для начинающих", "Основы Python", 101)))
	require.NoError(t, p.AddCourse(petr.CreateCourse("Веб-разработка", "HTML, CSS, JavaScript", 102)))
	require.NoError(t, p.AddStudent(student.New("Иван Петров", "ivan@student.ru", 1001)))
	require.NoError(t, p.AddStudent(student.New("Мария Козлова", "maria@student.ru", 1002)))

	require.True(t, p.Enroll(1001, 101))
	require.True(t, p.Enroll(1001, 102))
	require.True(t, p.Enroll(1002, 101))
	require.False(t, p.Enroll(1001, 101))

	require.True(t, p.AddGrade(101, 1001, 85))
	require.True(t, p.AddGrade(101, 1002, 92))
	require.True(t, p.AddGrade(102, 1001, 78))
	require.False(t, p.AddGrade(101, 1001, 150))
	return p
}

func newTestManager(buf *bytes.Buffer, opts ...platform.Option) *FileManager {
	return NewFileManager(logger.New(logger.Options{Output: buf, Level: logger.LevelDebug}), opts...)
}

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "platform.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ══════════════════════════════════════════════════════════════════════════════
// JSON
// ══════════════════════════════════════════════════════════════════════════════

func TestFileManager_JSONRoundTrip(t *testing.T) {
	var logs bytes.Buffer
	m := newTestManager(&logs)
	path := filepath.Join(t.TempDir(), "platform_data.json")

	require.True(t, m.SaveJSON(newDemoPlatform(t), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Мария Козлова")
	assert.Contains(t, string(raw), `"1002": 92`)
	assert.NotContains(t, string(raw), `\u`)

	loaded := m.LoadJSON(path)
	require.NotNil(t, loaded)
	assert.Equal(t, platform.Stats{Students: 2, Instructors: 2, Courses: 2}, loaded.Stats())

	c, ok := loaded.Course(101)
	require.True(t, ok)
	assert.Equal(t, 1, c.InstructorID())
	assert.Equal(t, []int{1001, 1002}, c.StudentIDs())
	assert.Equal(t, map[int]int{1001: 85, 1002: 92}, c.Grades())

	owner, ok := loaded.Instructor(c.InstructorID())
	require.True(t, ok)
	assert.Equal(t, "Анна Иванова", owner.Name)

	s, ok := loaded.Student(1001)
	require.True(t, ok)
	assert.Equal(t, []int{101, 102}, s.CourseIDs())

	assert.Contains(t, logs.String(), "data saved")
	assert.Contains(t, logs.String(), "data loaded")
	assert.Contains(t, logs.String(), `"lossless":true`)
	assert.NotContains(t, logs.String(), "dropped references")
}

func TestFileManager_SaveOverwrites(t *testing.T) {
	m := NewFileManager(nil)
	path := filepath.Join(t.TempDir(), "platform.json")

	require.True(t, m.SaveJSON(newDemoPlatform(t), path))
	require.True(t, m.SaveJSON(platform.New(), path))

	loaded := m.LoadJSON(path)
	require.NotNil(t, loaded)
	assert.Equal(t, platform.Stats{}, loaded.Stats())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileManager_SaveKeepsFileMode(t *testing.T) {
	m := NewFileManager(nil)
	dir := t.TempDir()

	fresh := filepath.Join(dir, "fresh.json")
	require.True(t, m.SaveJSON(newDemoPlatform(t), fresh))
	info, err := os.Stat(fresh)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	private := filepath.Join(dir, "private.json")
	require.NoError(t, os.WriteFile(private, []byte("{}"), 0o600))
	require.NoError(t, os.Chmod(private, 0o600))

	require.True(t, m.SaveJSON(newDemoPlatform(t), private))
	info, err = os.Stat(private)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileManager_LoadAppliesPlatformOptions(t *testing.T) {
	var events []shared.Event
	pub := publisherFunc(func(e shared.Event) error {
		events = append(events, e)
		return nil
	})

	m := NewFileManager(nil, platform.WithPublisher(pub))
	path := filepath.Join(t.TempDir(), "platform.json")
	require.True(t, m.SaveJSON(newDemoPlatform(t), path))

	loaded := m.LoadJSON(path)
	require.NotNil(t, loaded)
	assert.Empty(t, events, "restoring a snapshot must not publish events")

	assert.False(t, loaded.Enroll(1002, 101))
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventEnrollmentRejected, events[0].EventType())
}

func TestFileManager_LoadDropsDanglingCourse(t *testing.T) {
	var logs bytes.Buffer
	m := newTestManager(&logs)
	path := writeTestFile(t, `{
  "students": [{"id": 1001, "name": "Иван", "email": "i@s.ru", "courses": [101, 202]}],
  "instructors": [{"id": 1, "name": "Анна", "email": "a@u.ru", "courses": [101]}],
  "courses": [
    {"id": 101, "title": "Python", "description": "", "instructor_id": 1, "students": [1001], "grades": {}},
    {"id": 202, "title": "Orphan", "description": "", "instructor_id": 99, "students": [1001], "grades": {"1001": 70}}
  ]
}`)

	loaded := m.LoadJSON(path)
	require.NotNil(t, loaded)
	assert.Equal(t, []int{101}, loaded.CourseIDs())

	s, _ := loaded.Student(1001)
	assert.Equal(t, []int{101}, s.CourseIDs())
	assert.Contains(t, logs.String(), "dropped references")
}

func TestFileManager_LoadFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed JSON", `{"students": [`},
		{"missing student name", `{"students": [{"id": 1, "email": "x"}]}`},
		{"missing course instructor_id", `{"courses": [{"id": 1, "title": "t", "description": "d"}]}`},
		{"non-integer grade key", `{"instructors": [{"id": 1, "name": "a", "email": "a"}], "courses": [{"id": 1, "title": "t", "description": "d", "instructor_id": 1, "grades": {"x": 1}}]}`},
		{"duplicate instructor", `{"instructors": [{"id": 1, "name": "a", "email": "a"}, {"id": 1, "name": "b", "email": "b"}]}`},
		{"wrong type", `{"students": {"id": 1}}`},
		{"trailing garbage", `{"students": [], "instructors": [], "courses": []} }}garbage{{`},
		{"second document", `{"students": []} {"students": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			m := newTestManager(&logs)

			assert.Nil(t, m.LoadJSON(writeTestFile(t, tt.content)))
			assert.Contains(t, logs.String(), "failed to load JSON")
		})
	}

	t.Run("missing file", func(t *testing.T) {
		m := NewFileManager(nil)
		assert.Nil(t, m.LoadJSON(filepath.Join(t.TempDir(), "absent.json")))
	})
}

func TestFileManager_SaveFailures(t *testing.T) {
	m := NewFileManager(nil)
	dir := t.TempDir()

	t.Run("missing directory", func(t *testing.T) {
		assert.False(t, m.SaveJSON(newDemoPlatform(t), filepath.Join(dir, "missing", "p.json")))
		assert.False(t, m.SaveXML(newDemoPlatform(t), filepath.Join(dir, "missing", "p.xml")))
	})

	t.Run("panic is contained", func(t *testing.T) {
		path := filepath.Join(dir, "nil.json")
		assert.NotPanics(t, func() {
			assert.False(t, m.SaveJSON(nil, path))
		})
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// XML
// ══════════════════════════════════════════════════════════════════════════════

func TestFileManager_SaveXML(t *testing.T) {
	m := NewFileManager(nil)
	path := filepath.Join(t.TempDir(), "platform_data.xml")

	require.True(t, m.SaveXML(newDemoPlatform(t), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, "<learning_platform>")
	assert.Contains(t, out, "<name>Иван Петров</name>")
	assert.Contains(t, out, "\n  <students>\n    <student>")

	var doc xmlPlatform
	require.NoError(t, xml.Unmarshal(raw, &doc))

	require.Len(t, doc.Students.Items, 2)
	assert.Equal(t, []int{101, 102}, doc.Students.Items[0].Courses.IDs)

	require.Len(t, doc.Instructors.Items, 2)
	assert.Equal(t, "petr@university.ru", doc.Instructors.Items[1].Email)

	require.Len(t, doc.Courses.Items, 2)
	first := doc.Courses.Items[0]
	assert.Equal(t, 101, first.ID)
	assert.Equal(t, 1, first.InstructorID)
	assert.Equal(t, []int{1001, 1002}, first.Students.IDs)
	assert.Equal(t, []xmlGrade{{StudentID: 1001, Value: 85}, {StudentID: 1002, Value: 92}}, first.Grades.Items)
}

func TestWriteXML_EmptyPlatform(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, platform.New()))

	out := buf.String()
	assert.Contains(t, out, "<students></students>")
	assert.Contains(t, out, "<instructors></instructors>")
	assert.Contains(t, out, "<courses></courses>")
}

func TestWriteXML_EscapesText(t *testing.T) {
	p := platform.New()
	i := instructor.New("A & B", "ab@u.ru", 1)
	require.NoError(t, p.AddInstructor(i))
	require.NoError(t, p.AddCourse(i.CreateCourse("<Go>", "x < y", 7)))

	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, p))

	var doc xmlPlatform
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "A & B", doc.Instructors.Items[0].Name)
	assert.Equal(t, "<Go>", doc.Courses.Items[0].Title)
}

// ══════════════════════════════════════════════════════════════════════════════
// XLSX
// ══════════════════════════════════════════════════════════════════════════════

func TestFileManager_SaveXLSX(t *testing.T) {
	m := NewFileManager(nil)
	path := filepath.Join(t.TempDir(), "grades.xlsx")

	require.True(t, m.SaveXLSX(newDemoPlatform(t), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxreport.SheetGrades)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

type publisherFunc func(shared.Event) error

func (f publisherFunc) Publish(e shared.Event) error { return f(e) }

func TestReadJSON_ReportsSkippedReferences(t *testing.T) {
	var events []shared.Event
	pub := publisherFunc(func(e shared.Event) error {
		events = append(events, e)
		return nil
	})

	res, err := ReadJSON(strings.NewReader(`{
  "students": [{"id": 1001, "name": "Иван", "email": "i@s.ru", "courses": [101, 303]}],
  "instructors": [{"id": 1, "name": "Анна", "email": "a@u.ru", "courses": [101]}],
  "courses": [{"id": 101, "title": "Python", "description": "", "instructor_id": 1, "students": [1001], "grades": {"1001": 90}}]
}`), nil, platform.WithPublisher(pub))
	require.NoError(t, err)

	assert.False(t, res.Lossless())
	assert.Empty(t, res.DroppedCourses)
	require.Len(t, res.SkippedEnrollments, 1)
	assert.Equal(t, 303, res.SkippedEnrollments[0].CourseID)

	c, ok := res.Platform.Course(101)
	require.True(t, ok)
	assert.Equal(t, map[int]int{1001: 90}, c.Grades())

	assert.False(t, res.Platform.Enroll(1001, 101))
	assert.Len(t, events, 1)
}
