package redis

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlinelearn/learning-platform/internal/domain/instructor"
	"github.com/onlinelearn/learning-platform/internal/domain/platform"
	"github.com/onlinelearn/learning-platform/internal/domain/student"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "platform:snapshot:demo", SnapshotKey("demo"))
	assert.Equal(t, "platform:snapshot:demo:meta", SnapshotMetaKey("demo"))
	assert.Equal(t, "localhost:6379", DefaultConfig().Addr())
}

func TestNewCache_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.MaxRetries = -1
	cfg.DialTimeout = time.Second

	cache, err := NewCache(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrCacheConnection)
	assert.Nil(t, cache)
}

// newTestCache connects to TEST_REDIS_ADDR (host:port).
func newTestCache(t *testing.T) (*Cache, context.Context) {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Port = port

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	cache, err := NewCache(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	require.NoError(t, cache.Ping(ctx))
	return cache, ctx
}

func TestCache_SetGet(t *testing.T) {
	cache, ctx := newTestCache(t)
	key := "test:" + uuid.NewString()
	t.Cleanup(func() { _ = cache.Delete(context.Background(), key) })

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, cache.Set(ctx, key, payload{Name: "Анна", Count: 2}, time.Minute))

	var got payload
	require.NoError(t, cache.Get(ctx, key, &got))
	assert.Equal(t, payload{Name: "Анна", Count: 2}, got)

	ok, err := cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := cache.TTL(ctx, key)
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	assert.ErrorIs(t, cache.Get(ctx, key+":missing", &got), ErrCacheMiss)
	assert.ErrorIs(t, cache.Set(ctx, "", got, 0), ErrCacheKeyEmpty)
	assert.ErrorIs(t, cache.Set(ctx, key, nil, 0), ErrCacheNilValue)
	assert.ErrorIs(t, cache.Set(ctx, key, got, -time.Second), ErrCacheInvalidTTL)
}

func TestSnapshotCache_PutGet(t *testing.T) {
	cache, ctx := newTestCache(t)
	snapshots := NewSnapshotCache(cache, nil)
	name := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = snapshots.Delete(context.Background(), name) })

	p := platform.New()
	anna := instructor.New("Анна Иванова", "anna@university.ru", 1)
	require.NoError(t, p.AddInstructor(anna))
	require.NoError(t, p.AddCourse(anna.CreateCourse("Python для начинающих", "Основы Python", 101)))
	require.NoError(t, p.AddStudent(student.New("Иван Петров", "ivan@student.ru", 1001)))
	require.True(t, p.Enroll(1001, 101))
	require.True(t, p.AddGrade(101, 1001, 85))

	require.NoError(t, snapshots.Put(ctx, name, p, time.Minute))

	loaded, err := snapshots.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, p.Stats(), loaded.Stats())

	c, ok := loaded.Course(101)
	require.True(t, ok)
	assert.Equal(t, map[int]int{1001: 85}, c.Grades())

	meta, err := snapshots.Meta(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, name, meta.Name)
	assert.Equal(t, 1, meta.Courses)

	names, err := snapshots.Names(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, name)

	require.NoError(t, snapshots.Delete(ctx, name))
	_, err = snapshots.Get(ctx, name)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSnapshotCache_Validation(t *testing.T) {
	cache, ctx := newTestCache(t)
	snapshots := NewSnapshotCache(cache, nil)

	assert.ErrorIs(t, snapshots.Put(ctx, "", platform.New(), 0), ErrCacheKeyEmpty)
	assert.ErrorIs(t, snapshots.Put(ctx, "x", platform.New(), -time.Second), ErrCacheInvalidTTL)
}
