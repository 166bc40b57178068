package domain

import (
	"context"
	"time"
)

// RetailerAdapter queries one retailer and normalizes its payloads into
// canonical priced products. Unpriced records are never returned.
type RetailerAdapter interface {
	StoreID() StoreID
	Search(ctx context.Context, query string) ([]AugmentedResult, error)
}

// SessionRepository keeps one PriceIndex per shopping session.
type SessionRepository interface {
	Create(ctx context.Context) (string, *PriceIndex, error)
	Get(ctx context.Context, id string) (*PriceIndex, error)
	Delete(ctx context.Context, id string) error
}

// RetailerSearchOutcome describes one adapter invocation.
type RetailerSearchOutcome struct {
	StoreID  StoreID
	Query    string
	Products int
	Err      error
	Latency  time.Duration
}

// RetailerStats aggregates outcomes for one store.
type RetailerStats struct {
	StoreID      StoreID `json:"storeId"`
	Searches     int64   `json:"searches"`
	Failures     int64   `json:"failures"`
	Products     int64   `json:"products"`
	AvgLatencyMS int64   `json:"avgLatencyMs"`
	LastError    string  `json:"lastError,omitempty"`
}

// SearchMetrics receives retailer outcomes out-of-band from the search result.
type SearchMetrics interface {
	RecordRetailerSearch(ctx context.Context, outcome RetailerSearchOutcome) error
	Summary(ctx context.Context) ([]RetailerStats, error)
}
