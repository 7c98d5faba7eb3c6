// Package main - точка входа демонстрации платформы онлайн-обучения.
//
// Сценарий:
// - регистрация преподавателей, курсов и студентов
// - запись на курсы, включая повторную (отклоняется)
// - выставление оценок, включая недопустимую (отклоняется)
// - экспорт в JSON, XML и XLSX, повторная загрузка из JSON
// - при наличии настроек: снимок в PostgreSQL и кеш в Redis
//
// Отчёты об операциях печатаются в stdout, служебные логи - в stderr.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/onlinelearn/learning-platform/config"
	"github.com/onlinelearn/learning-platform/internal/domain/instructor"
	"github.com/onlinelearn/learning-platform/internal/domain/platform"
	"github.com/onlinelearn/learning-platform/internal/domain/student"
	"github.com/onlinelearn/learning-platform/internal/infrastructure/messaging"
	"github.com/onlinelearn/learning-platform/internal/infrastructure/persistence/filestore"
	"github.com/onlinelearn/learning-platform/internal/infrastructure/persistence/postgres"
	"github.com/onlinelearn/learning-platform/internal/infrastructure/persistence/redis"
	"github.com/onlinelearn/learning-platform/pkg/logger"
	"github.com/onlinelearn/learning-platform/pkg/retry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    os.Stderr,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.IsDevelopment(),
	}).With(logger.String("app", cfg.App.Name))
	log.Info("starting", logger.String("env", string(cfg.App.Environment)))

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	bus := messaging.NewEventBus(log)
	defer bus.Close()

	if err := bus.SubscribeAll(messaging.NewConsoleReporter(out)); err != nil {
		return fmt.Errorf("failed to subscribe console reporter: %w", err)
	}
	if err := bus.SubscribeAll(messaging.NewLogReporter(log)); err != nil {
		return fmt.Errorf("failed to subscribe log reporter: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ДЕМОНСТРАЦИОННЫЙ СЦЕНАРИЙ
	// ─────────────────────────────────────────────────────────────────────────
	fmt.Fprintln(out, "ПЛАТФОРМА ОНЛАЙН-ОБУЧЕНИЯ")
	fmt.Fprintln(out, strings.Repeat("=", 40))

	p := platform.New(platform.WithPublisher(bus))
	if err := seed(p, out); err != nil {
		return fmt.Errorf("failed to seed platform: %w", err)
	}
	printSummary(out, p)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. СОХРАНЕНИЕ В ФАЙЛЫ
	// ─────────────────────────────────────────────────────────────────────────
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	files := filestore.NewFileManager(log, platform.WithPublisher(bus))

	fmt.Fprintln(out, "\nСОХРАНЕНИЕ ДАННЫХ:")
	report(out, "JSON", cfg.Storage.JSONPath(), files.SaveJSON(p, cfg.Storage.JSONPath()))
	report(out, "XML", cfg.Storage.XMLPath(), files.SaveXML(p, cfg.Storage.XMLPath()))
	report(out, "XLSX", cfg.Storage.XLSXPath(), files.SaveXLSX(p, cfg.Storage.XLSXPath()))

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ЗАГРУЗКА ИЗ JSON
	// ─────────────────────────────────────────────────────────────────────────
	fmt.Fprintln(out, "\nЗАГРУЗКА ДАННЫХ:")
	if loaded := files.LoadJSON(cfg.Storage.JSONPath()); loaded != nil {
		stats := loaded.Stats()
		fmt.Fprintf(out, "Загружено: %d студентов, %d курсов\n", stats.Students, stats.Courses)
	} else {
		fmt.Fprintln(out, "Ошибка загрузки JSON")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. POSTGRESQL (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.Enabled() {
		if err := saveToDatabase(ctx, cfg.Database, p, log, out); err != nil {
			log.Warn("database snapshot skipped", logger.Err(err))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Redis.Enabled {
		if err := saveToCache(ctx, cfg.Redis, p, log, out); err != nil {
			log.Warn("redis snapshot skipped", logger.Err(err))
		}
	}

	log.Info("done")
	return nil
}

// seed runs the demonstration scenario. Rejections are expected and reported
// through the event bus.
func seed(p *platform.Platform, out io.Writer) error {
	anna := instructor.New("Анна Иванова", "anna@university.ru", 1)
	petr := instructor.New("Петр Сидоров", "petr@university.ru", 2)
	for _, i := range []*instructor.Instructor{anna, petr} {
		if err := p.AddInstructor(i); err != nil {
			return err
		}
	}

	if err := p.AddCourse(anna.CreateCourse("Python для начинающих", "Основы Python", 101)); err != nil {
		return err
	}
	if err := p.AddCourse(petr.CreateCourse("Веб-разработка", "HTML, CSS, JavaScript", 102)); err != nil {
		return err
	}

	for _, s := range []*student.Student{
		student.New("Иван Петров", "ivan@student.ru", 1001),
		student.New("Мария Козлова", "maria@student.ru", 1002),
	} {
		if err := p.AddStudent(s); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "\nЗАПИСЬ НА КУРСЫ:")
	p.Enroll(1001, 101)
	p.Enroll(1001, 102)
	p.Enroll(1002, 101)
	p.Enroll(1001, 101)

	fmt.Fprintln(out, "\nВЫСТАВЛЕНИЕ ОЦЕНОК:")
	p.AddGrade(101, 1001, 85)
	p.AddGrade(101, 1002, 92)
	p.AddGrade(102, 1001, 78)
	p.AddGrade(101, 1001, 150)

	return nil
}

func printSummary(out io.Writer, p *platform.Platform) {
	stats := p.Stats()
	fmt.Fprintln(out, "\nИНФОРМАЦИЯ О ПЛАТФОРМЕ:")
	fmt.Fprintf(out, "Студентов: %d\n", stats.Students)
	fmt.Fprintf(out, "Преподавателей: %d\n", stats.Instructors)
	fmt.Fprintf(out, "Курсов: %d\n", stats.Courses)

	for _, c := range p.Courses() {
		fmt.Fprintf(out, "\nКурс: %s\n", c.Title)
		fmt.Fprintf(out, "Студентов: %d\n", c.StudentCount())
		if avg, ok := c.AverageGrade(); ok {
			fmt.Fprintf(out, "Средняя оценка: %.1f\n", avg)
		}
	}
}

func report(out io.Writer, format, path string, ok bool) {
	if ok {
		fmt.Fprintf(out, "Данные сохранены в %s (%s)\n", path, format)
		return
	}
	fmt.Fprintf(out, "Ошибка сохранения %s: %s\n", format, path)
}

func saveToDatabase(ctx context.Context, cfg config.DatabaseConfig, p *platform.Platform, log *logger.Logger, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	conn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		return openDatabase(ctx, cfg)
	}, connectOptions(log, "postgres")...)
	if err != nil {
		return err
	}
	defer conn.Close()

	migrator := postgres.NewMigrator(conn)
	status, err := migrator.Status(ctx)
	if err != nil {
		return err
	}
	pending := 0
	for _, m := range status {
		if !m.IsApplied {
			pending++
		}
	}
	log.Info("database migrations", logger.Int("known", len(status)), logger.Int("pending", pending))

	if err := migrator.Migrate(ctx); err != nil {
		return err
	}

	store := postgres.NewSnapshotStore(conn, log)
	id, err := store.Save(ctx, p)
	if err != nil {
		return err
	}

	res, err := store.Load(ctx, id)
	if err != nil {
		return err
	}

	stats := res.Platform.Stats()
	fmt.Fprintf(out, "Снимок %s в PostgreSQL: %d студентов, %d курсов\n", id, stats.Students, stats.Courses)
	return nil
}

// openDatabase prefers DATABASE_URL and falls back to the DB_* settings.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*postgres.Connection, error) {
	if cfg.URL != "" {
		return postgres.NewConnectionFromURL(ctx, cfg.URL)
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.Host = cfg.Host
	pgCfg.Port = cfg.Port
	pgCfg.Database = cfg.Name
	pgCfg.User = cfg.User
	pgCfg.Password = cfg.Password
	pgCfg.SSLMode = cfg.SSLMode
	pgCfg.MaxConns = int32(cfg.MaxConns)
	if pgCfg.MinConns > pgCfg.MaxConns {
		pgCfg.MinConns = pgCfg.MaxConns
	}
	return postgres.NewConnection(ctx, pgCfg)
}

func saveToCache(ctx context.Context, cfg config.RedisConfig, p *platform.Platform, log *logger.Logger, out io.Writer) error {
	redisCfg := redis.DefaultConfig()
	redisCfg.Host = cfg.Host
	redisCfg.Port = cfg.Port
	redisCfg.Password = cfg.Password
	redisCfg.DB = cfg.DB

	cache, err := retry.DoWithData(ctx, func(ctx context.Context) (*redis.Cache, error) {
		return redis.NewCache(ctx, redisCfg)
	}, connectOptions(log, "redis")...)
	if err != nil {
		return err
	}
	defer cache.Close()

	snapshots := redis.NewSnapshotCache(cache, log)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := snapshots.Put(ctx, "latest", p, cfg.SnapshotTTL); err != nil {
		return err
	}

	cached, err := snapshots.Get(ctx, "latest")
	if err != nil {
		return err
	}

	stats := cached.Stats()
	fmt.Fprintf(out, "Снимок в Redis (TTL %s): %d студентов, %d курсов\n", cfg.SnapshotTTL, stats.Students, stats.Courses)
	return nil
}

func connectOptions(log *logger.Logger, backend string) []retry.Option {
	return append(retry.ConnectOptions(), retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		log.Warn("connect failed, retrying",
			logger.Component(backend),
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Err(err),
		)
	}))
}
