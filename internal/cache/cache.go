// Package cache persists per-site page status records between runs and
// decides when a cached status is stale enough to warrant a live re-check.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seokit/gsc-indexer/internal/gsc"
)

// DefaultFreshnessWindow is how long an indexable status stays trustworthy
// before it must be re-fetched.
const DefaultFreshnessWindow = 14 * 24 * time.Hour

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Record is the last known status of one page URL.
type Record struct {
	Status        gsc.StatusKind `json:"status"`
	LastCheckedAt time.Time      `json:"lastCheckedAt"`
}

// ShouldRecheck reports whether a cached record must be re-fetched: only
// indexable statuses expire, and only once they are older than the
// freshness window. A confirmed non-indexable status (already indexed,
// redirect, duplicate) is treated as permanently valid.
func ShouldRecheck(status gsc.StatusKind, lastCheckedAt, now time.Time, window time.Duration) bool {
	if !status.IsIndexable() {
		return false
	}
	return now.Sub(lastCheckedAt) > window
}

// Store is the URL-to-record mapping for one site, loaded from and
// persisted to a single JSON document.
type Store struct {
	path   string
	window time.Duration
	clock  Clock
	logger *zap.Logger

	mu      sync.Mutex
	records map[string]Record
}

// NewStore creates a Store for the given site under dir. The document path
// is derived from the canonical site form so each property gets its own
// cache file.
func NewStore(dir, siteForm string, window time.Duration, clock Clock, logger *zap.Logger) *Store {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	return &Store{
		path:    filepath.Join(dir, gsc.CacheKey(siteForm)+".json"),
		window:  window,
		clock:   clock,
		logger:  logger,
		records: make(map[string]Record),
	}
}

// Path returns the location of the persisted cache document.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted document into memory. A missing file is a cold
// cache, not an error.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("no cache document yet", zap.String("path", s.path))
			return nil
		}
		return fmt.Errorf("read cache document: %w", err)
	}
	records := make(map[string]Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode cache document %q: %w", s.path, err)
	}
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	s.logger.Debug("cache loaded", zap.String("path", s.path), zap.Int("records", len(records)))
	return nil
}

// Fresh returns the cached record for url if it exists and is still
// authoritative. ok=false means the caller must fetch the status live.
func (s *Store) Fresh(url string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, exists := s.records[url]
	if !exists {
		return Record{}, false
	}
	if ShouldRecheck(rec.Status, rec.LastCheckedAt, s.clock.Now(), s.window) {
		return Record{}, false
	}
	return rec, true
}

// Put overwrites the record for url with the given status and the current
// time.
func (s *Store) Put(url string, status gsc.StatusKind) Record {
	rec := Record{Status: status, LastCheckedAt: s.clock.Now()}
	s.mu.Lock()
	s.records[url] = rec
	s.mu.Unlock()
	return rec
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Persist serializes the whole store and writes it in one atomic
// replacement, so a crash mid-write never leaves a truncated document.
func (s *Store) Persist() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.records, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode cache document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cache document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cache document: %w", err)
	}
	s.logger.Debug("cache persisted", zap.String("path", s.path))
	return nil
}
