package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/onlinelearn/learning-platform/internal/domain/platform"
	"github.com/onlinelearn/learning-platform/internal/infrastructure/persistence/snapshot"
	"github.com/onlinelearn/learning-platform/pkg/logger"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot matches the request.
	ErrSnapshotNotFound = errors.New("postgres: snapshot not found")

	// ErrDuplicateRecord is returned when a document repeats an id within a
	// role, which the snapshot tables reject by primary key.
	ErrDuplicateRecord = errors.New("postgres: duplicate record in snapshot")
)

// SnapshotInfo describes a stored snapshot.
type SnapshotInfo struct {
	ID          string
	CreatedAt   time.Time
	Students    int
	Instructors int
	Courses     int
}

// SnapshotStore saves and loads complete platform snapshots.
type SnapshotStore struct {
	conn *Connection
	log  *logger.Logger
}

// NewSnapshotStore creates a SnapshotStore. log may be nil.
func NewSnapshotStore(conn *Connection, log *logger.Logger) *SnapshotStore {
	if log == nil {
		log = logger.Nop()
	}
	return &SnapshotStore{
		conn: conn,
		log:  log.With(logger.Component("postgres")),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// SAVE
// ─────────────────────────────────────────────────────────────────────────────

// Save writes the platform as a new snapshot in one transaction and returns its id.
func (s *SnapshotStore) Save(ctx context.Context, p *platform.Platform) (string, error) {
	return s.SaveDocument(ctx, snapshot.FromPlatform(p))
}

// SaveDocument writes a document as a new snapshot and returns its id.
func (s *SnapshotStore) SaveDocument(ctx context.Context, doc *snapshot.Document) (string, error) {
	id := uuid.New()

	err := s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO platform_snapshots (id, students, instructors, courses)
			VALUES ($1, $2, $3, $4)
		`, id, len(doc.Students), len(doc.Instructors), len(doc.Courses))
		if err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}

		batch := &pgx.Batch{}
		queueRows(batch, id, doc)
		if batch.Len() == 0 {
			return nil
		}

		br := tx.SendBatch(ctx, batch)
		for n := 0; n < batch.Len(); n++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				if IsUniqueViolation(err) {
					return fmt.Errorf("%w: %v", ErrDuplicateRecord, err)
				}
				return fmt.Errorf("failed to insert snapshot row: %w", err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return "", err
	}

	s.log.Info("snapshot saved",
		logger.String("snapshot_id", id.String()),
		logger.Int("students", len(doc.Students)),
		logger.Int("instructors", len(doc.Instructors)),
		logger.Int("courses", len(doc.Courses)))
	return id.String(), nil
}

func queueRows(batch *pgx.Batch, id uuid.UUID, doc *snapshot.Document) {
	for pos, i := range doc.Instructors {
		batch.Queue(`INSERT INTO snapshot_instructors (snapshot_id, position, id, name, email) VALUES ($1, $2, $3, $4, $5)`,
			id, pos, i.ID, i.Name, i.Email)
	}

	for pos, st := range doc.Students {
		batch.Queue(`INSERT INTO snapshot_students (snapshot_id, position, id, name, email) VALUES ($1, $2, $3, $4, $5)`,
			id, pos, st.ID, st.Name, st.Email)
		for n, courseID := range st.Courses {
			batch.Queue(`INSERT INTO snapshot_enrollments (snapshot_id, student_id, position, course_id) VALUES ($1, $2, $3, $4)`,
				id, st.ID, n, courseID)
		}
	}

	for pos, c := range doc.Courses {
		batch.Queue(`INSERT INTO snapshot_courses (snapshot_id, position, id, title, description, instructor_id) VALUES ($1, $2, $3, $4, $5, $6)`,
			id, pos, c.ID, c.Title, c.Description, c.InstructorID)
		for n, studentID := range c.Students {
			batch.Queue(`INSERT INTO snapshot_rosters (snapshot_id, course_id, position, student_id) VALUES ($1, $2, $3, $4)`,
				id, c.ID, n, studentID)
		}
		for studentID, grade := range c.Grades {
			batch.Queue(`INSERT INTO snapshot_grades (snapshot_id, course_id, student_id, grade) VALUES ($1, $2, $3, $4)`,
				id, c.ID, studentID, grade)
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// LOAD
// ─────────────────────────────────────────────────────────────────────────────

// LoadLatest restores the most recently saved snapshot.
func (s *SnapshotStore) LoadLatest(ctx context.Context, opts ...platform.Option) (*snapshot.RestoreResult, error) {
	var id uuid.UUID
	err := s.conn.QueryRow(ctx, `
		SELECT id FROM platform_snapshots
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&id)
	if IsNoRows(err) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest snapshot: %w", err)
	}

	return s.load(ctx, id, opts)
}

// Load restores the snapshot with the given id.
func (s *SnapshotStore) Load(ctx context.Context, id string, opts ...platform.Option) (*snapshot.RestoreResult, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrSnapshotNotFound, id)
	}
	return s.load(ctx, parsed, opts)
}

func (s *SnapshotStore) load(ctx context.Context, id uuid.UUID, opts []platform.Option) (*snapshot.RestoreResult, error) {
	doc, err := s.LoadDocument(ctx, id.String())
	if err != nil {
		return nil, err
	}

	res, err := doc.Restore(s.log.With(logger.String("snapshot_id", id.String())), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore snapshot %s: %w", id, err)
	}
	return res, nil
}

// LoadDocument reads a snapshot as a document without restoring it.
func (s *SnapshotStore) LoadDocument(ctx context.Context, id string) (*snapshot.Document, error) {
	snapshotID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrSnapshotNotFound, id)
	}

	doc := &snapshot.Document{
		Students:    []snapshot.StudentRecord{},
		Instructors: []snapshot.InstructorRecord{},
		Courses:     []snapshot.CourseRecord{},
	}

	err = s.conn.WithTx(ctx, ReadOnlyTxOptions(), func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM platform_snapshots WHERE id = $1)`, snapshotID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check snapshot: %w", err)
		}
		if !exists {
			return ErrSnapshotNotFound
		}

		if err := readPeople(ctx, tx, snapshotID, doc); err != nil {
			return err
		}
		return readCourses(ctx, tx, snapshotID, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func readPeople(ctx context.Context, tx pgx.Tx, id uuid.UUID, doc *snapshot.Document) error {
	rows, err := tx.Query(ctx, `
		SELECT id, name, email FROM snapshot_instructors
		WHERE snapshot_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return fmt.Errorf("failed to query instructors: %w", err)
	}
	doc.Instructors, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (snapshot.InstructorRecord, error) {
		r := snapshot.InstructorRecord{Courses: []int{}}
		err := row.Scan(&r.ID, &r.Name, &r.Email)
		return r, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan instructors: %w", err)
	}

	rows, err = tx.Query(ctx, `
		SELECT id, name, email FROM snapshot_students
		WHERE snapshot_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return fmt.Errorf("failed to query students: %w", err)
	}
	doc.Students, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (snapshot.StudentRecord, error) {
		r := snapshot.StudentRecord{Courses: []int{}}
		err := row.Scan(&r.ID, &r.Name, &r.Email)
		return r, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan students: %w", err)
	}

	enrollments, err := readPairs(ctx, tx, `
		SELECT student_id, course_id FROM snapshot_enrollments
		WHERE snapshot_id = $1 ORDER BY student_id, position
	`, id)
	if err != nil {
		return fmt.Errorf("failed to read enrollments: %w", err)
	}
	for n := range doc.Students {
		doc.Students[n].Courses = append(doc.Students[n].Courses, enrollments[doc.Students[n].ID]...)
	}

	return nil
}

func readCourses(ctx context.Context, tx pgx.Tx, id uuid.UUID, doc *snapshot.Document) error {
	rows, err := tx.Query(ctx, `
		SELECT id, title, description, instructor_id FROM snapshot_courses
		WHERE snapshot_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return fmt.Errorf("failed to query courses: %w", err)
	}
	doc.Courses, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (snapshot.CourseRecord, error) {
		r := snapshot.CourseRecord{Students: []int{}, Grades: map[int]int{}}
		err := row.Scan(&r.ID, &r.Title, &r.Description, &r.InstructorID)
		return r, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan courses: %w", err)
	}

	rosters, err := readPairs(ctx, tx, `
		SELECT course_id, student_id FROM snapshot_rosters
		WHERE snapshot_id = $1 ORDER BY course_id, position
	`, id)
	if err != nil {
		return fmt.Errorf("failed to read rosters: %w", err)
	}

	rows, err = tx.Query(ctx, `
		SELECT course_id, student_id, grade FROM snapshot_grades
		WHERE snapshot_id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to query grades: %w", err)
	}
	grades := make(map[int]map[int]int)
	var courseID, studentID, grade int
	_, err = pgx.ForEachRow(rows, []any{&courseID, &studentID, &grade}, func() error {
		if grades[courseID] == nil {
			grades[courseID] = make(map[int]int)
		}
		grades[courseID][studentID] = grade
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan grades: %w", err)
	}

	owned := make(map[int][]int)
	for n := range doc.Courses {
		c := &doc.Courses[n]
		c.Students = append(c.Students, rosters[c.ID]...)
		for sid, g := range grades[c.ID] {
			c.Grades[sid] = g
		}
		owned[c.InstructorID] = append(owned[c.InstructorID], c.ID)
	}
	for n := range doc.Instructors {
		doc.Instructors[n].Courses = append(doc.Instructors[n].Courses, owned[doc.Instructors[n].ID]...)
	}

	return nil
}

// readPairs groups (key, value) rows into ordered lists per key.
func readPairs(ctx context.Context, tx pgx.Tx, query string, id uuid.UUID) (map[int][]int, error) {
	rows, err := tx.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}

	pairs := make(map[int][]int)
	var key, value int
	_, err = pgx.ForEachRow(rows, []any{&key, &value}, func() error {
		pairs[key] = append(pairs[key], value)
		return nil
	})
	return pairs, err
}

// ─────────────────────────────────────────────────────────────────────────────
// LISTING
// ─────────────────────────────────────────────────────────────────────────────

// List returns stored snapshots, newest first.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]SnapshotInfo, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, created_at, students, instructors, courses
		FROM platform_snapshots
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SnapshotInfo, error) {
		var info SnapshotInfo
		var id uuid.UUID
		err := row.Scan(&id, &info.CreatedAt, &info.Students, &info.Instructors, &info.Courses)
		info.ID = id.String()
		return info, err
	})
}

// Delete removes a snapshot and all its rows.
func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrSnapshotNotFound, id)
	}

	tag, err := s.conn.Exec(ctx, `DELETE FROM platform_snapshots WHERE id = $1`, parsed)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}
