package filestore

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/onlinelearn/learning-platform/internal/domain/platform"
	"github.com/onlinelearn/learning-platform/internal/infrastructure/persistence/xlsx"
	"github.com/onlinelearn/learning-platform/pkg/logger"
)

// FileManager saves and loads platforms as files. Every failure, including a
// panic inside a codec, is logged and turned into false (save) or nil (load).
type FileManager struct {
	log          *logger.Logger
	platformOpts []platform.Option
}

// NewFileManager creates a FileManager. opts are applied to every platform
// produced by LoadJSON, e.g. platform.WithPublisher.
func NewFileManager(log *logger.Logger, opts ...platform.Option) *FileManager {
	if log == nil {
		log = logger.Nop()
	}
	return &FileManager{
		log:          log.With(logger.Component("filestore")),
		platformOpts: opts,
	}
}

// SaveJSON writes the platform to path as JSON.
func (m *FileManager) SaveJSON(p *platform.Platform, path string) bool {
	return m.save("save_json", path, func(w io.Writer) error {
		return WriteJSON(w, p)
	})
}

// SaveXML writes the platform to path as XML.
func (m *FileManager) SaveXML(p *platform.Platform, path string) bool {
	return m.save("save_xml", path, func(w io.Writer) error {
		return WriteXML(w, p)
	})
}

// SaveXLSX writes the grade report workbook to path.
func (m *FileManager) SaveXLSX(p *platform.Platform, path string) bool {
	return m.save("save_xlsx", path, func(w io.Writer) error {
		return xlsx.Write(w, p)
	})
}

// LoadJSON reads a platform from a JSON file. Returns nil on any failure;
// a partially restored platform is never returned.
func (m *FileManager) LoadJSON(path string) *platform.Platform {
	log := m.opLogger("load_json", path)
	start := time.Now()

	var (
		p        *platform.Platform
		lossless bool
	)
	err := guard(func() error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := ReadJSON(f, log, m.platformOpts...)
		if err != nil {
			return err
		}
		if !res.Lossless() {
			log.Warn("snapshot loaded with dropped references",
				logger.Ints("dropped_courses", res.DroppedCourses),
				logger.Int("skipped_enrollments", len(res.SkippedEnrollments)))
		}
		p, lossless = res.Platform, res.Lossless()
		return nil
	})
	if err != nil {
		log.Error("failed to load JSON", logger.Err(err))
		return nil
	}

	stats := p.Stats()
	log.Info("data loaded",
		logger.Int("students", stats.Students),
		logger.Int("instructors", stats.Instructors),
		logger.Int("courses", stats.Courses),
		logger.Bool("lossless", lossless),
		logger.Latency(time.Since(start)))
	return p
}

func (m *FileManager) save(op, path string, write func(io.Writer) error) bool {
	log := m.opLogger(op, path)
	start := time.Now()

	if err := guard(func() error { return writeFile(path, write) }); err != nil {
		log.Error("failed to save", logger.Err(err))
		return false
	}

	log.Info("data saved", logger.Latency(time.Since(start)))
	return true
}

func (m *FileManager) opLogger(op, path string) *logger.Logger {
	return m.log.With(
		logger.Operation(op),
		logger.OperationID(uuid.NewString()),
		logger.Path(path),
	)
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
