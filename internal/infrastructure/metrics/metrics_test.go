package metrics

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopmate/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordSample(t *testing.T, rec domain.SearchMetrics) {
	t.Helper()
	ctx := context.Background()

	outcomes := []domain.RetailerSearchOutcome{
		{StoreID: domain.StoreColes, Query: "milk", Products: 12, Latency: 100 * time.Millisecond},
		{StoreID: domain.StoreColes, Query: "bread", Err: errors.New("status 503"), Latency: 300 * time.Millisecond},
		{StoreID: domain.StoreAldi, Query: "milk", Products: 40, Latency: 50 * time.Millisecond},
	}
	for _, o := range outcomes {
		require.NoError(t, rec.RecordRetailerSearch(ctx, o))
	}
}

func assertSample(t *testing.T, stats []domain.RetailerStats) {
	t.Helper()
	require.Len(t, stats, 2)

	aldi, coles := stats[0], stats[1]
	assert.Equal(t, domain.StoreAldi, aldi.StoreID)
	assert.Equal(t, int64(1), aldi.Searches)
	assert.Equal(t, int64(0), aldi.Failures)
	assert.Equal(t, int64(40), aldi.Products)
	assert.Equal(t, int64(50), aldi.AvgLatencyMS)
	assert.Empty(t, aldi.LastError)

	assert.Equal(t, domain.StoreColes, coles.StoreID)
	assert.Equal(t, int64(2), coles.Searches)
	assert.Equal(t, int64(1), coles.Failures)
	assert.Equal(t, int64(12), coles.Products)
	assert.Equal(t, int64(200), coles.AvgLatencyMS)
	assert.Equal(t, "status 503", coles.LastError)
}

func TestMemoryRecorder(t *testing.T) {
	rec := NewMemoryRecorder()
	recordSample(t, rec)

	stats, err := rec.Summary(context.Background())
	require.NoError(t, err)
	assertSample(t, stats)
}

func TestMemoryRecorder_Empty(t *testing.T) {
	stats, err := NewMemoryRecorder().Summary(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestSQLiteRecorder(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "nested", "metrics.db"))
	require.NoError(t, err)
	defer rec.Close()

	recordSample(t, rec)

	stats, err := rec.Summary(context.Background())
	require.NoError(t, err)
	assertSample(t, stats)
}

func TestSQLiteRecorder_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")

	rec, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	recordSample(t, rec)
	require.NoError(t, rec.Close())

	reopened, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer reopened.Close()

	stats, err := reopened.Summary(context.Background())
	require.NoError(t, err)
	assertSample(t, stats)
}
