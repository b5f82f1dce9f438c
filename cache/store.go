package cache

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"seo-agent/logging"
)

// ErrMiss is returned by Get when no fresh entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Store keeps JSON values on disk, one file per key, for a fixed TTL.
// A disabled Store misses on every Get and drops every Set.
type Store struct {
	dir     string
	ttl     time.Duration
	enabled bool
	logger  logging.Logger
	now     func() time.Time
}

// Entry is the on-disk envelope of a cached value.
type Entry struct {
	Key      string          `json:"key"`
	Value    json.RawMessage `json:"value"`
	CachedAt time.Time       `json:"cached_at"`
	Size     int             `json:"size"`
}

func NewStore(dir string, ttl time.Duration, enabled bool, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if enabled {
		if dir == "" {
			return nil, errors.New("cache dir is required when caching is enabled")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return &Store{
		dir:     dir,
		ttl:     ttl,
		enabled: enabled && ttl > 0,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (s *Store) Enabled() bool {
	return s != nil && s.enabled
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%x.json", md5.Sum([]byte(key))))
}

// Get decodes the fresh value stored under key into v.
func (s *Store) Get(key string, v any) (time.Time, error) {
	if !s.Enabled() {
		return time.Time{}, ErrMiss
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, ErrMiss
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return time.Time{}, fmt.Errorf("decode cache entry: %w", err)
	}
	if entry.Key != key || s.now().Sub(entry.CachedAt) >= s.ttl {
		return time.Time{}, ErrMiss
	}
	if err := json.Unmarshal(entry.Value, v); err != nil {
		return time.Time{}, fmt.Errorf("decode cached value: %w", err)
	}
	return entry.CachedAt, nil
}

func (s *Store) Set(key string, v any) error {
	if !s.Enabled() {
		return nil
	}

	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cached value: %w", err)
	}
	data, err := json.MarshalIndent(Entry{
		Key:      key,
		Value:    value,
		CachedAt: s.now(),
		Size:     len(value),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	// Write then rename so concurrent readers never see a partial file.
	tmp, err := os.CreateTemp(s.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Stats summarizes the entries currently on disk.
type Stats struct {
	Enabled      bool          `json:"enabled"`
	Dir          string        `json:"dir,omitempty"`
	TTL          time.Duration `json:"ttl,omitempty"`
	TotalFiles   int           `json:"total_files"`
	TotalSize    int64         `json:"total_size"`
	ExpiredFiles int           `json:"expired_files"`
}

func (s *Store) Stats() Stats {
	if !s.Enabled() {
		return Stats{}
	}
	stats := Stats{Enabled: true, Dir: s.dir, TTL: s.ttl}
	s.walk(func(path string, info fs.FileInfo) {
		stats.TotalFiles++
		stats.TotalSize += info.Size()
		if s.now().Sub(info.ModTime()) >= s.ttl {
			stats.ExpiredFiles++
		}
	})
	return stats
}

// CleanExpired removes entries older than the TTL and returns how many went.
func (s *Store) CleanExpired() int {
	if !s.Enabled() {
		return 0
	}
	cleaned := 0
	s.walk(func(path string, info fs.FileInfo) {
		if s.now().Sub(info.ModTime()) >= s.ttl {
			if err := os.Remove(path); err == nil {
				cleaned++
			}
		}
	})
	if cleaned > 0 {
		s.logger.WithFields(logging.Fields{
			"dir":     s.dir,
			"cleaned": cleaned,
		}).Info("Cleaned expired cache entries")
	}
	return cleaned
}

func (s *Store) walk(fn func(path string, info fs.FileInfo)) {
	_ = filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		if info, err := d.Info(); err == nil {
			fn(path, info)
		}
		return nil
	})
}
