package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopmate/backend/internal/domain"
	_ "modernc.org/sqlite" // Pure Go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS retailer_searches (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	store_id    TEXT    NOT NULL,
	query       TEXT    NOT NULL,
	products    INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	error       TEXT    NOT NULL DEFAULT '',
	latency_ms  INTEGER NOT NULL,
	recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_retailer_searches_store ON retailer_searches(store_id, id);
`

// SQLiteRecorder appends every outcome to a SQLite table. Only search
// outcomes are stored; prices never are.
type SQLiteRecorder struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRecorder opens (creating if needed) the database at path.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to metrics database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create metrics schema: %w", err)
	}

	return &SQLiteRecorder{db: db, now: time.Now}, nil
}

// RecordRetailerSearch implements domain.SearchMetrics.
func (r *SQLiteRecorder) RecordRetailerSearch(ctx context.Context, o domain.RetailerSearchOutcome) error {
	failed := 0
	errText := ""
	if o.Err != nil {
		failed = 1
		errText = o.Err.Error()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO retailer_searches (store_id, query, products, failed, error, latency_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(o.StoreID), o.Query, o.Products, failed, errText, o.Latency.Milliseconds(), r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert retailer search: %w", err)
	}
	return nil
}

// Summary implements domain.SearchMetrics.
func (r *SQLiteRecorder) Summary(ctx context.Context) ([]domain.RetailerStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.store_id,
		       COUNT(*),
		       COALESCE(SUM(s.failed), 0),
		       COALESCE(SUM(s.products), 0),
		       COALESCE(AVG(s.latency_ms), 0),
		       COALESCE((SELECT e.error FROM retailer_searches e
		                 WHERE e.store_id = s.store_id AND e.failed = 1
		                 ORDER BY e.id DESC LIMIT 1), '')
		FROM retailer_searches s
		GROUP BY s.store_id
		ORDER BY s.store_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query retailer stats: %w", err)
	}
	defer rows.Close()

	var out []domain.RetailerStats
	for rows.Next() {
		var (
			stats   domain.RetailerStats
			storeID string
			avg     float64
		)
		if err := rows.Scan(&storeID, &stats.Searches, &stats.Failures, &stats.Products, &avg, &stats.LastError); err != nil {
			return nil, fmt.Errorf("failed to scan retailer stats: %w", err)
		}
		stats.StoreID = domain.StoreID(storeID)
		stats.AvgLatencyMS = int64(avg)
		out = append(out, stats)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
