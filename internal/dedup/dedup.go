package dedup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"ot-job-monitor/internal/scraper"
)

const DefaultPath = "data/seen_jobs.json"

// Store is the set of posting ids already processed by earlier runs.
// It only ever grows.
type Store struct {
	mu       sync.Mutex
	filePath string
	seen     map[string]struct{}
	logger   *zap.Logger
}

// Load reads the seen ids at path. A missing or unreadable file gives an
// empty store; that is logged, never fatal.
func Load(path string, logger *zap.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		filePath: path,
		seen:     make(map[string]struct{}),
		logger:   logger,
	}
	s.load()
	return s
}

// Contains checks if id has already been processed
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *Store) Path() string {
	return s.filePath
}

// Save marks postings as seen and rewrites the file with the whole set.
// A failed write is logged; the in-memory set keeps the new ids either way.
// It returns how many ids were new.
func (s *Store) Save(postings []scraper.Posting) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, p := range postings {
		if p.ID == "" {
			continue
		}
		if _, ok := s.seen[p.ID]; !ok {
			s.seen[p.ID] = struct{}{}
			added++
		}
	}

	if err := s.write(); err != nil {
		s.logger.Error("⚠️ Failed to save seen jobs", zap.String("path", s.filePath), zap.Error(err))
		return added
	}
	s.logger.Info("💾 Saved seen jobs", zap.Int("total", len(s.seen)), zap.Int("added", added))
	return added
}

func (s *Store) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("⚠️ Failed to read seen jobs", zap.String("path", s.filePath), zap.Error(err))
		}
		return
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		s.logger.Warn("⚠️ Failed to parse seen jobs, starting empty", zap.String("path", s.filePath), zap.Error(err))
		return
	}

	for _, id := range ids {
		s.seen[id] = struct{}{}
	}
	s.logger.Info("📋 Loaded previously seen jobs", zap.Int("count", len(s.seen)))
}

// write replaces the file through a temp file in the same directory so a
// crash mid-write never leaves a truncated list behind.
func (s *Store) write() error {
	ids := make([]string, 0, len(s.seen))
	for id := range s.seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".seen-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
