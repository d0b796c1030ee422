package orchestrator

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/seokit/gsc-indexer/internal/gsc"
)

func TestResult_RenderSummary(t *testing.T) {
	t.Parallel()

	partition := NewPartition()
	partition.Add(gsc.StatusSubmittedAndIndexed, "https://example.com/")
	partition.Add(gsc.StatusSubmittedAndIndexed, "https://example.com/about")
	partition.Add(gsc.StatusCrawledCurrentlyNotIndexed, "https://example.com/blog")
	partition.Add(gsc.StatusPageWithRedirect, "https://example.com/old")
	partition.Add(gsc.StatusURLIsUnknownToGoogle, "https://example.com/new")
	partition.Add(gsc.StatusError, "https://example.com/broken")

	result := &Result{
		Pages:            6,
		Partition:        partition,
		Submitted:        []string{"https://example.com/new"},
		AlreadySubmitted: []string{"https://example.com/blog"},
		Failed:           []string{"https://example.com/broken"},
	}

	var buf bytes.Buffer
	result.Render(&buf)

	g := goldie.New(t)
	g.Assert(t, "summary", buf.Bytes())
}

func TestResult_RenderNothingPending(t *testing.T) {
	t.Parallel()

	partition := NewPartition()
	partition.Add(gsc.StatusSubmittedAndIndexed, "https://example.com/")

	result := &Result{Pages: 1, Partition: partition}

	var buf bytes.Buffer
	result.Render(&buf)

	out := buf.String()
	require.Contains(t, out, "Processed 1 pages")
	require.Contains(t, out, "All pages are indexed or not eligible for indexing.")
	require.NotContains(t, out, "pending indexing")
}

func TestPartition_IndexableGroupsByStatusOrder(t *testing.T) {
	t.Parallel()

	partition := NewPartition()
	partition.Add(gsc.StatusError, "https://example.com/z")
	partition.Add(gsc.StatusCrawledCurrentlyNotIndexed, "https://example.com/a")
	partition.Add(gsc.StatusSubmittedAndIndexed, "https://example.com/skip")

	require.Equal(t, []string{"https://example.com/a", "https://example.com/z"}, partition.Indexable())
}
