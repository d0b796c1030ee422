package cache

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seokit/gsc-indexer/internal/gsc"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func TestShouldRecheck(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	window := 14 * 24 * time.Hour

	tests := []struct {
		name    string
		status  gsc.StatusKind
		checked time.Time
		want    bool
	}{
		{
			name:    "fresh indexable record trusted",
			status:  gsc.StatusCrawledCurrentlyNotIndexed,
			checked: now.Add(-24 * time.Hour),
			want:    false,
		},
		{
			name:    "stale indexable record rechecked",
			status:  gsc.StatusCrawledCurrentlyNotIndexed,
			checked: now.Add(-15 * 24 * time.Hour),
			want:    true,
		},
		{
			name:    "indexed record permanently valid regardless of age",
			status:  gsc.StatusSubmittedAndIndexed,
			checked: now.Add(-365 * 24 * time.Hour),
			want:    false,
		},
		{
			name:    "redirect record permanently valid",
			status:  gsc.StatusPageWithRedirect,
			checked: now.Add(-365 * 24 * time.Hour),
			want:    false,
		},
		{
			name:    "stale error record rechecked",
			status:  gsc.StatusError,
			checked: now.Add(-15 * 24 * time.Hour),
			want:    true,
		},
		{
			name:    "record exactly at the window boundary trusted",
			status:  gsc.StatusError,
			checked: now.Add(-window),
			want:    false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ShouldRecheck(tc.status, tc.checked, now, window))
		})
	}
}

func TestStore_FreshAndPut(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	store := NewStore(t.TempDir(), "sc-domain:example.com", 0, clock, zap.NewNop())

	_, ok := store.Fresh("https://example.com/a")
	require.False(t, ok, "cold cache must report a miss")

	store.Put("https://example.com/a", gsc.StatusCrawledCurrentlyNotIndexed)
	rec, ok := store.Fresh("https://example.com/a")
	require.True(t, ok)
	require.Equal(t, gsc.StatusCrawledCurrentlyNotIndexed, rec.Status)
	require.Equal(t, clock.now, rec.LastCheckedAt)

	// Once the record ages past the freshness window it must be refetched.
	clock.now = clock.now.Add(DefaultFreshnessWindow + time.Hour)
	_, ok = store.Fresh("https://example.com/a")
	require.False(t, ok)

	// A non-indexable status never expires.
	store.Put("https://example.com/b", gsc.StatusSubmittedAndIndexed)
	clock.now = clock.now.Add(1000 * 24 * time.Hour)
	rec, ok = store.Fresh("https://example.com/b")
	require.True(t, ok)
	require.Equal(t, gsc.StatusSubmittedAndIndexed, rec.Status)
}

func TestStore_PersistAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clock := &fakeClock{now: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}

	store := NewStore(dir, "sc-domain:example.com", 0, clock, zap.NewNop())
	store.Put("https://example.com/a", gsc.StatusSubmittedAndIndexed)
	store.Put("https://example.com/b", gsc.StatusError)
	require.NoError(t, store.Persist())

	reloaded := NewStore(dir, "sc-domain:example.com", 0, clock, zap.NewNop())
	require.NoError(t, reloaded.Load())
	require.Equal(t, 2, reloaded.Len())

	rec, ok := reloaded.Fresh("https://example.com/a")
	require.True(t, ok)
	require.Equal(t, gsc.StatusSubmittedAndIndexed, rec.Status)
	require.Equal(t, clock.now, rec.LastCheckedAt.UTC())
}

func TestStore_LoadMissingFileIsColdCache(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), "sc-domain:example.com", 0, &fakeClock{}, zap.NewNop())
	require.NoError(t, store.Load())
	require.Equal(t, 0, store.Len())
}

func TestStore_PersistWritesSingleKeyedDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clock := &fakeClock{now: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	store := NewStore(dir, "https://example.com/", 0, clock, zap.NewNop())
	store.Put("https://example.com/a", gsc.StatusError)
	require.NoError(t, store.Persist())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var doc map[string]Record
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc, 1)
	require.Contains(t, doc, "https://example.com/a")
}

func TestStore_SitesGetSeparateDocuments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clock := &fakeClock{}
	a := NewStore(dir, "sc-domain:example.com", 0, clock, zap.NewNop())
	b := NewStore(dir, "sc-domain:other.org", 0, clock, zap.NewNop())
	require.NotEqual(t, a.Path(), b.Path())

	// The domain-property and URL-prefix forms of one host are distinct
	// SiteTargets and must not share a document: statuses cached under one
	// property must never be served for the other.
	domain := NewStore(dir, "sc-domain:example.com", 0, clock, zap.NewNop())
	prefix := NewStore(dir, "https://example.com/", 0, clock, zap.NewNop())
	require.NotEqual(t, domain.Path(), prefix.Path())

	domain.Put("https://example.com/a", gsc.StatusSubmittedAndIndexed)
	require.NoError(t, domain.Persist())
	require.NoError(t, prefix.Load())
	require.Equal(t, 0, prefix.Len())
}
