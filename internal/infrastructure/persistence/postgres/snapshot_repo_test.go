package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlinelearn/learning-platform/internal/domain/instructor"
	"github.com/onlinelearn/learning-platform/internal/domain/platform"
	"github.com/onlinelearn/learning-platform/internal/domain/student"
	"github.com/onlinelearn/learning-platform/internal/infrastructure/persistence/snapshot"
)

func TestConfig_DSN(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t,
		"host=localhost port=5432 dbname=learnplatform user=postgres sslmode=disable connect_timeout=10",
		cfg.DSN())

	cfg.Password = `it's se\cret`
	assert.Equal(t,
		`host=localhost port=5432 dbname=learnplatform user=postgres sslmode=disable connect_timeout=10 password='it\'s se\\cret'`,
		cfg.DSN())
}

func TestNewConnection_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.ConnectTimeout = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewConnection(ctx, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres:")
	assert.Nil(t, conn)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestGetMigrations(t *testing.T) {
	migrations := GetMigrations()
	require.NotEmpty(t, migrations)

	for n, m := range migrations {
		assert.Equal(t, n+1, m.Version, "versions must be sequential")
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
	assert.Contains(t, migrations[0].UpSQL, "platform_snapshots")
	assert.Contains(t, migrations[0].UpSQL, "snapshot_grades")
}

// newTestStore connects to TEST_DATABASE_URL and applies migrations.
func newTestStore(t *testing.T) (*SnapshotStore, context.Context) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	conn, err := NewConnectionFromURL(ctx, url)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	require.NoError(t, NewMigrator(conn).Migrate(ctx))
	return NewSnapshotStore(conn, nil), ctx
}

func demoPlatform(t *testing.T) *platform.Platform {
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
	require.True(t, p.AddGrade(101, 1001, 85))
	require.True(t, p.AddGrade(101, 1002, 92))
	require.True(t, p.AddGrade(102, 1001, 78))
	return p
}

func TestSnapshotStore_SaveAndLoad(t *testing.T) {
	store, ctx := newTestStore(t)
	original := demoPlatform(t)

	id, err := store.Save(ctx, original)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Delete(context.Background(), id) })

	doc, err := store.LoadDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, snapshot.FromPlatform(original), doc)

	res, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.Lossless())
	assert.Equal(t, platform.Stats{Students: 2, Instructors: 2, Courses: 2}, res.Platform.Stats())

	c, ok := res.Platform.Course(101)
	require.True(t, ok)
	assert.Equal(t, map[int]int{1001: 85, 1002: 92}, c.Grades())
}

func TestSnapshotStore_LoadLatest(t *testing.T) {
	store, ctx := newTestStore(t)

	first, err := store.Save(ctx, platform.New())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Delete(context.Background(), first) })

	second, err := store.Save(ctx, demoPlatform(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Delete(context.Background(), second) })

	res, err := store.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Platform.Stats().Students)

	infos, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, second, infos[0].ID)
}

func TestSnapshotStore_NotFound(t *testing.T) {
	store, ctx := newTestStore(t)

	_, err := store.Load(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	_, err = store.Load(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	assert.ErrorIs(t, store.Delete(ctx, uuid.NewString()), ErrSnapshotNotFound)
}

func TestSnapshotStore_SaveDocumentRejectsDuplicateIDs(t *testing.T) {
	store, ctx := newTestStore(t)

	doc := snapshot.FromPlatform(demoPlatform(t))
	doc.Students = append(doc.Students, doc.Students[0])

	_, err := store.SaveDocument(ctx, doc)
	assert.ErrorIs(t, err, ErrDuplicateRecord)

	infos, err := store.List(ctx, 100)
	require.NoError(t, err)
	for _, info := range infos {
		assert.NotEqual(t, 3, info.Students, "failed save must roll back")
	}
}

func TestMigrator_StatusAndRollback(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := NewConnectionFromURL(ctx, url)
	require.NoError(t, err)
	defer conn.Close()

	m := NewMigrator(conn)
	require.NoError(t, m.Migrate(ctx))

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, len(GetMigrations()))
	for _, mig := range status {
		assert.True(t, mig.IsApplied, "migration %d", mig.Version)
	}

	require.NoError(t, m.Rollback(ctx))
	status, err = m.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status[len(status)-1].IsApplied)

	require.NoError(t, m.Migrate(ctx))
	status, err = m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status[len(status)-1].IsApplied)
}
