package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onlinelearn/learning-platform/internal/domain/platform"
	"github.com/onlinelearn/learning-platform/internal/infrastructure/persistence/snapshot"
	"github.com/onlinelearn/learning-platform/pkg/logger"
)

// SnapshotMeta describes a cached snapshot.
type SnapshotMeta struct {
	Name        string    `json:"name"`
	SavedAt     time.Time `json:"saved_at"`
	Students    int       `json:"students"`
	Instructors int       `json:"instructors"`
	Courses     int       `json:"courses"`
}

// SnapshotCache keeps named platform snapshots in Redis. The value is the same
// JSON document as the file export.
type SnapshotCache struct {
	cache *Cache
	log   *logger.Logger
}

// NewSnapshotCache creates a SnapshotCache. log may be nil.
func NewSnapshotCache(cache *Cache, log *logger.Logger) *SnapshotCache {
	if log == nil {
		log = logger.Nop()
	}
	return &SnapshotCache{
		cache: cache,
		log:   log.With(logger.Component("redis")),
	}
}

// Put stores the platform under name. A zero ttl uses TTLSnapshot.
func (s *SnapshotCache) Put(ctx context.Context, name string, p *platform.Platform, ttl time.Duration) error {
	if name == "" {
		return ErrCacheKeyEmpty
	}
	switch {
	case ttl < 0:
		return ErrCacheInvalidTTL
	case ttl == 0:
		ttl = TTLSnapshot
	}

	doc := snapshot.FromPlatform(p)
	data, err := snapshot.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	meta := SnapshotMeta{
		Name:        name,
		SavedAt:     time.Now().UTC(),
		Students:    len(doc.Students),
		Instructors: len(doc.Instructors),
		Courses:     len(doc.Courses),
	}

	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	// Both keys are written in one MULTI/EXEC with the same TTL.
	_, err = s.cache.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SnapshotKey(name), data, ttl)
		pipe.Set(ctx, SnapshotMetaKey(name), metaData, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache snapshot %q: %w", name, err)
	}

	s.log.Info("snapshot cached",
		logger.String("name", name),
		logger.Duration("ttl", ttl),
		logger.Int("bytes", len(data)))
	return nil
}

// Get restores the named snapshot into a fresh platform.
// Returns ErrCacheMiss when the snapshot is absent or expired.
func (s *SnapshotCache) Get(ctx context.Context, name string, opts ...platform.Option) (*platform.Platform, error) {
	data, err := s.cache.GetBytes(ctx, SnapshotKey(name))
	if err != nil {
		return nil, err
	}

	doc, err := snapshot.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	res, err := doc.Restore(s.log.With(logger.String("name", name)), opts...)
	if err != nil {
		return nil, fmt.Errorf("restore cached snapshot %q: %w", name, err)
	}
	return res.Platform, nil
}

// Meta returns metadata of the named snapshot.
func (s *SnapshotCache) Meta(ctx context.Context, name string) (*SnapshotMeta, error) {
	var meta SnapshotMeta
	if err := s.cache.Get(ctx, SnapshotMetaKey(name), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Names returns the names of all cached snapshots in ascending order.
func (s *SnapshotCache) Names(ctx context.Context) ([]string, error) {
	keys, err := s.cache.Keys(ctx, PrefixSnapshot+"*")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(key, ":meta") {
			continue
		}
		names = append(names, strings.TrimPrefix(key, PrefixSnapshot))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named snapshot.
func (s *SnapshotCache) Delete(ctx context.Context, name string) error {
	return s.cache.Delete(ctx, SnapshotKey(name), SnapshotMetaKey(name))
}
