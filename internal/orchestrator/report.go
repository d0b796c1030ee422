package orchestrator

import (
	"fmt"
	"io"
	"sync"

	"github.com/seokit/gsc-indexer/internal/gsc"
)

// Partition groups processed page URLs by their final status. Every
// StatusKind has a bucket from the start, so rendering and partition
// lookups never miss a status. Add is safe for concurrent batch workers.
type Partition struct {
	mu       sync.Mutex
	byStatus map[gsc.StatusKind][]string
}

// NewPartition creates a Partition with a bucket per status.
func NewPartition() *Partition {
	byStatus := make(map[gsc.StatusKind][]string, len(gsc.AllStatuses))
	for _, status := range gsc.AllStatuses {
		byStatus[status] = nil
	}
	return &Partition{byStatus: byStatus}
}

// Add records one page under its final status.
func (p *Partition) Add(status gsc.StatusKind, page string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byStatus[status] = append(p.byStatus[status], page)
}

// Count returns the number of pages that ended in the given status.
func (p *Partition) Count(status gsc.StatusKind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byStatus[status])
}

// URLs returns the pages that ended in the given status.
func (p *Partition) URLs(status gsc.StatusKind) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.byStatus[status]...)
}

// Indexable returns every page whose final status makes it a candidate for
// an indexing request, grouped by status in enumeration order.
func (p *Partition) Indexable() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var pages []string
	for _, status := range gsc.AllStatuses {
		if !status.IsIndexable() {
			continue
		}
		pages = append(pages, p.byStatus[status]...)
	}
	return pages
}

// Result is the outcome of one orchestrator run.
type Result struct {
	Pages            int
	Partition        *Partition
	Submitted        []string
	AlreadySubmitted []string
	Failed           []string
}

// Render writes the per-status summary and the list of pages still pending
// indexing.
func (r *Result) Render(w io.Writer) {
	fmt.Fprintf(w, "Processed %d pages\n\n", r.Pages)
	fmt.Fprintln(w, "Status summary:")
	for _, status := range gsc.AllStatuses {
		count := r.Partition.Count(status)
		if count == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-45s %d\n", status, count)
	}

	pending := r.Partition.Indexable()
	if len(pending) == 0 {
		fmt.Fprintln(w, "\nAll pages are indexed or not eligible for indexing.")
		return
	}
	fmt.Fprintf(w, "\nPages pending indexing (%d):\n", len(pending))
	for _, page := range pending {
		fmt.Fprintf(w, "  %s\n", page)
	}
	fmt.Fprintf(w, "\nIndexing requests: %d submitted, %d already submitted, %d failed\n",
		len(r.Submitted), len(r.AlreadySubmitted), len(r.Failed))
}
