package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopmate/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultSearchTimeout bounds one aggregated search across all retailers.
const DefaultSearchTimeout = 15 * time.Second

// SearchConfig holds configuration for the search service
type SearchConfig struct {
	Timeout time.Duration
}

// ProductSearcher is the aggregated search used by item resolution.
type ProductSearcher interface {
	Search(ctx context.Context, query string, storeIDs []domain.StoreID, index *domain.PriceIndex) ([]domain.AugmentedResult, error)
}

// SearchService fans a query out to the retailer adapters of the requested
// stores and merges whatever they return.
type SearchService struct {
	catalog      *domain.Catalog
	adapters     map[domain.StoreID]domain.RetailerAdapter
	metrics      domain.SearchMetrics
	preprocessor *QueryPreprocessor
	timeout      time.Duration
	log          logrus.FieldLogger
}

// NewSearchService creates a new search service. Adapters for stores outside
// the catalog are rejected.
func NewSearchService(
	catalog *domain.Catalog,
	adapters []domain.RetailerAdapter,
	metrics domain.SearchMetrics,
	preprocessor *QueryPreprocessor,
	config SearchConfig,
	log logrus.FieldLogger,
) (*SearchService, error) {
	byStore := make(map[domain.StoreID]domain.RetailerAdapter, len(adapters))
	for _, a := range adapters {
		id := a.StoreID()
		if !catalog.Contains(id) {
			return nil, fmt.Errorf("%w: adapter for %q", domain.ErrUnknownStore, id)
		}
		if _, dup := byStore[id]; dup {
			return nil, fmt.Errorf("duplicate adapter for store %q", id)
		}
		byStore[id] = a
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if preprocessor == nil {
		preprocessor = NewQueryPreprocessor(log)
	}

	return &SearchService{
		catalog:      catalog,
		adapters:     byStore,
		metrics:      metrics,
		preprocessor: preprocessor,
		timeout:      timeout,
		log:          log,
	}, nil
}

// Enabled reports whether an adapter is configured for the store.
func (s *SearchService) Enabled(id domain.StoreID) bool {
	_, ok := s.adapters[id]
	return ok
}

// Search queries every requested store in parallel and waits for all of
// them. A failed, cancelled or unconfigured retailer contributes no results.
// Results are merged in storeIDs order, repeated store ids are searched once,
// and when index is non-nil results are inserted into it after every adapter
// has finished.
//
// Only invalid input is returned as an error; zero results is not an error.
func (s *SearchService) Search(
	ctx context.Context,
	query string,
	storeIDs []domain.StoreID,
	index *domain.PriceIndex,
) ([]domain.AugmentedResult, error) {
	normalized, err := s.preprocessor.Normalize(query)
	if err != nil {
		return nil, err
	}
	if len(storeIDs) == 0 {
		return nil, domain.NewValidationError("storeIds", "at least one store is required")
	}
	unique := make([]domain.StoreID, 0, len(storeIDs))
	seen := make(map[domain.StoreID]bool, len(storeIDs))
	for i, id := range storeIDs {
		if !s.catalog.Contains(id) {
			return nil, domain.NewValidationError(fmt.Sprintf("storeIds[%d]", i), "%v %q", domain.ErrUnknownStore, id)
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	storeIDs = unique

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// One slot per store; each worker writes only its own slot.
	slots := make([][]domain.AugmentedResult, len(storeIDs))

	var g errgroup.Group
	for i, id := range storeIDs {
		adapter, ok := s.adapters[id]
		if !ok {
			s.log.WithField("store", id).Warn("No adapter configured for store, skipping")
			continue
		}
		g.Go(func() error {
			slots[i] = s.searchOne(ctx, adapter, normalized)
			return nil
		})
	}
	// Workers never return an error; Wait is only the join barrier.
	g.Wait()

	results := make([]domain.AugmentedResult, 0)
	for i, id := range storeIDs {
		logoURL := ""
		if store, ok := s.catalog.Lookup(id); ok {
			logoURL = store.LogoURL
		}
		for _, r := range slots[i] {
			r.StoreID = id
			r.StoreLogoURL = logoURL
			results = append(results, r)
		}
	}

	if index != nil {
		for _, r := range results {
			if err := index.Insert(r.Quote()); err != nil {
				s.log.WithFields(logrus.Fields{
					"store":   r.StoreID,
					"product": r.Product.ID,
				}).WithError(err).Warn("Dropping quote rejected by price index")
			}
		}
	}

	s.log.WithFields(logrus.Fields{
		"query":    normalized,
		"stores":   len(storeIDs),
		"products": len(results),
	}).Info("Search completed")

	return results, nil
}

// searchOne runs a single adapter and converts any failure, including a
// panic, into an empty result that is logged and recorded.
func (s *SearchService) searchOne(ctx context.Context, adapter domain.RetailerAdapter, query string) (results []domain.AugmentedResult) {
	storeID := adapter.StoreID()
	start := time.Now()

	var err error
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: adapter panic: %v", domain.ErrRetailerFailure, rec)
			results = nil
		}

		latency := time.Since(start)
		entry := s.log.WithFields(logrus.Fields{
			"store":    storeID,
			"query":    query,
			"products": len(results),
			"latency":  latency,
		})
		if err != nil {
			entry.WithError(err).Warn("Retailer search failed")
		} else {
			entry.Debug("Retailer search succeeded")
		}

		s.record(domain.RetailerSearchOutcome{
			StoreID:  storeID,
			Query:    query,
			Products: len(results),
			Err:      err,
			Latency:  latency,
		})
	}()

	results, err = adapter.Search(ctx, query)
	if err != nil {
		results = nil
	}
	return results
}

func (s *SearchService) record(outcome domain.RetailerSearchOutcome) {
	if s.metrics == nil {
		return
	}
	// The search context may already be expired; metrics get their own.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.metrics.RecordRetailerSearch(ctx, outcome); err != nil {
		s.log.WithField("store", outcome.StoreID).WithError(err).Warn("Failed to record retailer search")
	}
}
