// Package metrics records retailer search outcomes out-of-band from the search
// response, so failing retailers stay visible without failing the request.
package metrics

import (
	"context"
	"sort"
	"sync"

	"github.com/shopmate/backend/internal/domain"
)

type storeCounters struct {
	searches  int64
	failures  int64
	products  int64
	latencyMS int64
	lastError string
}

// MemoryRecorder keeps per-store counters in memory.
type MemoryRecorder struct {
	mu       sync.Mutex
	counters map[domain.StoreID]*storeCounters
}

// NewMemoryRecorder creates an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{counters: make(map[domain.StoreID]*storeCounters)}
}

// RecordRetailerSearch implements domain.SearchMetrics.
func (r *MemoryRecorder) RecordRetailerSearch(ctx context.Context, o domain.RetailerSearchOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.counters[o.StoreID]
	if !ok {
		c = &storeCounters{}
		r.counters[o.StoreID] = c
	}
	c.searches++
	c.products += int64(o.Products)
	c.latencyMS += o.Latency.Milliseconds()
	if o.Err != nil {
		c.failures++
		c.lastError = o.Err.Error()
	}
	return nil
}

// Summary implements domain.SearchMetrics. Stores are sorted by id.
func (r *MemoryRecorder) Summary(ctx context.Context) ([]domain.RetailerStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.RetailerStats, 0, len(r.counters))
	for id, c := range r.counters {
		stats := domain.RetailerStats{
			StoreID:   id,
			Searches:  c.searches,
			Failures:  c.failures,
			Products:  c.products,
			LastError: c.lastError,
		}
		if c.searches > 0 {
			stats.AvgLatencyMS = c.latencyMS / c.searches
		}
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoreID < out[j].StoreID })
	return out, nil
}
