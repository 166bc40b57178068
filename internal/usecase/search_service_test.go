package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopmate/backend/internal/domain"
	"github.com/shopmate/backend/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retailerFixtures() map[domain.StoreID][]domain.AugmentedResult {
	return map[domain.StoreID][]domain.AugmentedResult{
		domain.StoreWoolworths: {
			product("9300633", "Woolworths Full Cream Milk 2L", "3.10", domain.StoreWoolworths),
			product("9300634", "Woolworths Lite Milk 2L", "3.10", domain.StoreWoolworths),
		},
		domain.StoreColes: {
			product("coles-123", "Coles Full Cream Milk 2L", "3.20", domain.StoreColes),
		},
		domain.StoreAldi: {
			product("aldi-777", "Farmdale Full Cream Milk 2L", "2.99", domain.StoreAldi),
		},
	}
}

func TestNewSearchService_RejectsUnknownAdapter(t *testing.T) {
	_, err := NewSearchService(domain.DefaultCatalog(), []domain.RetailerAdapter{&fakeAdapter{id: "store-iga"}}, nil, nil, SearchConfig{}, logging.Discard())
	assert.ErrorIs(t, err, domain.ErrUnknownStore)
}

func TestNewSearchService_RejectsDuplicateAdapter(t *testing.T) {
	_, err := NewSearchService(domain.DefaultCatalog(), []domain.RetailerAdapter{
		&fakeAdapter{id: domain.StoreColes},
		&fakeAdapter{id: domain.StoreColes},
	}, nil, nil, SearchConfig{}, logging.Discard())
	assert.Error(t, err)
}

func TestSearch_MergesInStoreOrderAndFillsLogo(t *testing.T) {
	fixtures := retailerFixtures()
	svc := newTestSearchService(t, time.Second, nil,
		&fakeAdapter{id: domain.StoreWoolworths, results: fixtures[domain.StoreWoolworths]},
		&fakeAdapter{id: domain.StoreColes, results: fixtures[domain.StoreColes]},
		&fakeAdapter{id: domain.StoreAldi, results: fixtures[domain.StoreAldi]},
	)

	results, err := svc.Search(context.Background(), "milk", []domain.StoreID{domain.StoreAldi, domain.StoreColes, domain.StoreWoolworths}, nil)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "aldi-777", results[0].Product.ID)
	assert.Equal(t, "coles-123", results[1].Product.ID)
	assert.Equal(t, "9300633", results[2].Product.ID)
	assert.Equal(t, "9300634", results[3].Product.ID)

	catalog := domain.DefaultCatalog()
	for _, r := range results {
		store, _ := catalog.Lookup(r.StoreID)
		assert.Equal(t, store.LogoURL, r.StoreLogoURL)
	}
}

func TestSearch_OnlyQueriesRequestedStores(t *testing.T) {
	woolworths := &fakeAdapter{id: domain.StoreWoolworths}
	coles := &fakeAdapter{id: domain.StoreColes}
	svc := newTestSearchService(t, time.Second, nil, woolworths, coles)

	_, err := svc.Search(context.Background(), "bread", []domain.StoreID{domain.StoreColes}, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(0), woolworths.calls.Load())
	assert.Equal(t, int32(1), coles.calls.Load())
}

func TestSearch_RepeatedStoreSearchedOnce(t *testing.T) {
	fixtures := retailerFixtures()
	woolworths := &fakeAdapter{id: domain.StoreWoolworths, results: fixtures[domain.StoreWoolworths]}
	coles := &fakeAdapter{id: domain.StoreColes, results: fixtures[domain.StoreColes]}
	svc := newTestSearchService(t, time.Second, nil, woolworths, coles)

	results, err := svc.Search(context.Background(), "milk",
		[]domain.StoreID{domain.StoreColes, domain.StoreWoolworths, domain.StoreColes}, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(1), coles.calls.Load())
	assert.Equal(t, int32(1), woolworths.calls.Load())
	require.Len(t, results, 3)
	assert.Equal(t, "coles-123", results[0].Product.ID)
	assert.Equal(t, "9300633", results[1].Product.ID)
	assert.Equal(t, "9300634", results[2].Product.ID)
}

func TestSearch_NormalizesQueryBeforeFanOut(t *testing.T) {
	coles := &fakeAdapter{id: domain.StoreColes}
	svc := newTestSearchService(t, time.Second, nil, coles)

	_, err := svc.Search(context.Background(), "  full   cream\tmilk#  ", []domain.StoreID{domain.StoreColes}, nil)
	require.NoError(t, err)
	assert.Equal(t, "full cream milk", coles.lastQuery.Load())
}

func TestSearch_ValidationErrors(t *testing.T) {
	svc := newTestSearchService(t, time.Second, nil, &fakeAdapter{id: domain.StoreColes})

	tests := []struct {
		name      string
		query     string
		stores    []domain.StoreID
		wantField string
	}{
		{"empty query", "   ", []domain.StoreID{domain.StoreColes}, "query"},
		{"no stores", "milk", nil, "storeIds"},
		{"unknown store", "milk", []domain.StoreID{domain.StoreColes, "store-iga"}, "storeIds[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), tt.query, tt.stores, nil)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}

// For every subset with exactly one failing retailer the result is the union
// of the successful retailers' outputs.
func TestSearch_FaultIsolation(t *testing.T) {
	fixtures := retailerFixtures()
	all := []domain.StoreID{domain.StoreWoolworths, domain.StoreColes, domain.StoreAldi}

	failures := map[string]func(id domain.StoreID) *fakeAdapter{
		"error": func(id domain.StoreID) *fakeAdapter {
			return &fakeAdapter{id: id, err: fmt.Errorf("%w: status 503", domain.ErrRetailerFailure)}
		},
		"panic": func(id domain.StoreID) *fakeAdapter {
			return &fakeAdapter{id: id, panics: true}
		},
		"timeout": func(id domain.StoreID) *fakeAdapter {
			return &fakeAdapter{id: id, block: true}
		},
	}

	for mode, failing := range failures {
		for mask := 1; mask < 1<<len(all); mask++ {
			var subset []domain.StoreID
			for i, id := range all {
				if mask&(1<<i) != 0 {
					subset = append(subset, id)
				}
			}

			for _, failed := range subset {
				name := fmt.Sprintf("%s/%v/%s", mode, subset, failed)
				t.Run(name, func(t *testing.T) {
					var adapters []domain.RetailerAdapter
					var want []string
					for _, id := range all {
						if id == failed {
							adapters = append(adapters, failing(id))
							continue
						}
						adapters = append(adapters, &fakeAdapter{id: id, results: fixtures[id]})
					}
					for _, id := range subset {
						if id == failed {
							continue
						}
						for _, r := range fixtures[id] {
							want = append(want, r.Product.ID)
						}
					}

					metrics := &recordingMetrics{}
					svc := newTestSearchService(t, 50*time.Millisecond, metrics, adapters...)

					results, err := svc.Search(context.Background(), "milk", subset, nil)
					require.NoError(t, err)

					got := make([]string, 0, len(results))
					for _, r := range results {
						got = append(got, r.Product.ID)
					}
					if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
						t.Errorf("results mismatch (-want +got):\n%s", diff)
					}

					outcome := metrics.byStore()[failed]
					assert.Error(t, outcome.Err, "failure must be recorded out of band")
					assert.Equal(t, 0, outcome.Products)
				})
			}
		}
	}
}

func TestSearch_AllFailReturnsEmptyNotError(t *testing.T) {
	svc := newTestSearchService(t, time.Second, nil,
		&fakeAdapter{id: domain.StoreWoolworths, err: errors.New("boom")},
		&fakeAdapter{id: domain.StoreColes, err: errors.New("boom")},
	)

	results, err := svc.Search(context.Background(), "milk", []domain.StoreID{domain.StoreWoolworths, domain.StoreColes}, nil)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_UnconfiguredStoreContributesNothing(t *testing.T) {
	fixtures := retailerFixtures()
	svc := newTestSearchService(t, time.Second, nil,
		&fakeAdapter{id: domain.StoreColes, results: fixtures[domain.StoreColes]},
	)

	results, err := svc.Search(context.Background(), "milk", []domain.StoreID{domain.StoreAldi, domain.StoreColes}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.StoreColes, results[0].StoreID)
	assert.False(t, svc.Enabled(domain.StoreAldi))
	assert.True(t, svc.Enabled(domain.StoreColes))
}

func TestSearch_TimeoutCancelsSlowRetailer(t *testing.T) {
	fixtures := retailerFixtures()
	slow := &fakeAdapter{id: domain.StoreWoolworths, block: true}
	svc := newTestSearchService(t, 50*time.Millisecond, nil,
		slow,
		&fakeAdapter{id: domain.StoreAldi, results: fixtures[domain.StoreAldi]},
	)

	start := time.Now()
	results, err := svc.Search(context.Background(), "milk", []domain.StoreID{domain.StoreWoolworths, domain.StoreAldi}, nil)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, results, 1)
	assert.Equal(t, "aldi-777", results[0].Product.ID)
	assert.Equal(t, int32(1), slow.calls.Load())
}

func TestSearch_CallerCancellation(t *testing.T) {
	svc := newTestSearchService(t, time.Minute, nil, &fakeAdapter{id: domain.StoreColes, block: true})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	results, err := svc.Search(ctx, "milk", []domain.StoreID{domain.StoreColes}, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_InsertsIntoPriceIndexAfterJoin(t *testing.T) {
	fixtures := retailerFixtures()
	svc := newTestSearchService(t, time.Second, nil,
		&fakeAdapter{id: domain.StoreWoolworths, results: fixtures[domain.StoreWoolworths], delay: 10 * time.Millisecond},
		&fakeAdapter{id: domain.StoreColes, results: fixtures[domain.StoreColes]},
	)
	index := domain.NewPriceIndex(domain.DefaultCatalog())

	results, err := svc.Search(context.Background(), "milk", []domain.StoreID{domain.StoreWoolworths, domain.StoreColes}, index)
	require.NoError(t, err)

	assert.Equal(t, len(results), index.Len())
	best, ok := index.BestPrice("coles-123", []domain.StoreID{domain.StoreColes})
	require.True(t, ok)
	assert.True(t, best.Equal(dec("3.20")))

	// A later search with a new price does not overwrite the session quote.
	cheaper := newTestSearchService(t, time.Second, nil,
		&fakeAdapter{id: domain.StoreColes, results: []domain.AugmentedResult{product("coles-123", "Coles Full Cream Milk 2L", "1.00", domain.StoreColes)}},
	)
	_, err = cheaper.Search(context.Background(), "milk", []domain.StoreID{domain.StoreColes}, index)
	require.NoError(t, err)

	best, _ = index.BestPrice("coles-123", []domain.StoreID{domain.StoreColes})
	assert.True(t, best.Equal(dec("3.20")))
}

func TestSearch_StoreIDComesFromAdapter(t *testing.T) {
	// An adapter that mislabels its results cannot write quotes for another store.
	svc := newTestSearchService(t, time.Second, nil,
		&fakeAdapter{id: domain.StoreColes, results: []domain.AugmentedResult{product("coles-1", "Bread", "2.00", domain.StoreAldi)}},
	)
	index := domain.NewPriceIndex(domain.DefaultCatalog())

	results, err := svc.Search(context.Background(), "bread", []domain.StoreID{domain.StoreColes}, index)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.StoreColes, results[0].StoreID)

	_, ok := index.BestPrice("coles-1", []domain.StoreID{domain.StoreAldi})
	assert.False(t, ok)
}

func TestSearch_RecordsMetrics(t *testing.T) {
	fixtures := retailerFixtures()
	metrics := &recordingMetrics{}
	svc := newTestSearchService(t, time.Second, metrics,
		&fakeAdapter{id: domain.StoreWoolworths, results: fixtures[domain.StoreWoolworths]},
		&fakeAdapter{id: domain.StoreColes, err: errors.New("status 401")},
	)

	_, err := svc.Search(context.Background(), "milk", []domain.StoreID{domain.StoreWoolworths, domain.StoreColes}, nil)
	require.NoError(t, err)

	outcomes := metrics.byStore()
	require.Len(t, outcomes, 2)
	assert.Equal(t, 2, outcomes[domain.StoreWoolworths].Products)
	assert.NoError(t, outcomes[domain.StoreWoolworths].Err)
	assert.Equal(t, "milk", outcomes[domain.StoreWoolworths].Query)
	assert.EqualError(t, outcomes[domain.StoreColes].Err, "status 401")
}
