package domain

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// PriceQuote is the price of one product at one store.
type PriceQuote struct {
	ProductID      string          `json:"productId"`
	StoreID        StoreID         `json:"storeId"`
	Price          decimal.Decimal `json:"price"`
	UnitPriceLabel string          `json:"unitPriceLabel,omitempty"`
}

// SnapshotQuote is a quote as it appears inside a PriceSnapshot.
type SnapshotQuote struct {
	StoreID        StoreID         `json:"storeId"`
	Price          decimal.Decimal `json:"price"`
	UnitPriceLabel string          `json:"unitPriceLabel,omitempty"`
}

// PriceSnapshot is the wire form of a PriceIndex: productId -> quotes in
// insertion order.
type PriceSnapshot map[string][]SnapshotQuote

// PriceIndex maps product ids to at most one quote per store. The first quote
// seen for a (product, store) pair wins for the lifetime of the index; prices
// are only refreshed by starting a new session.
type PriceIndex struct {
	catalog *Catalog

	mu     sync.RWMutex
	quotes map[string][]PriceQuote
}

// NewPriceIndex creates an empty index that accepts quotes for catalog stores only.
func NewPriceIndex(catalog *Catalog) *PriceIndex {
	return &PriceIndex{
		catalog: catalog,
		quotes:  make(map[string][]PriceQuote),
	}
}

// Insert adds a quote unless one already exists for the same product and store.
func (ix *PriceIndex) Insert(q PriceQuote) error {
	if q.ProductID == "" {
		return NewValidationError("productId", "must not be empty")
	}
	if !ix.catalog.Contains(q.StoreID) {
		return fmt.Errorf("%w: %q", ErrUnknownStore, q.StoreID)
	}
	if q.Price.IsNegative() {
		return NewValidationError("price", "must not be negative, got %s", q.Price)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, existing := range ix.quotes[q.ProductID] {
		if existing.StoreID == q.StoreID {
			return nil
		}
	}
	ix.quotes[q.ProductID] = append(ix.quotes[q.ProductID], q)
	return nil
}

// Quotes returns a copy of every quote held for productID, in insertion order.
func (ix *PriceIndex) Quotes(productID string) []PriceQuote {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	src := ix.quotes[productID]
	out := make([]PriceQuote, len(src))
	copy(out, src)
	return out
}

// Offers returns the quotes for productID whose store is in allowed, ordered
// by the store's position in allowed.
func (ix *PriceIndex) Offers(productID string, allowed []StoreID) []PriceQuote {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []PriceQuote
	for _, storeID := range allowed {
		for _, q := range ix.quotes[productID] {
			if q.StoreID == storeID {
				out = append(out, q)
				break
			}
		}
	}
	return out
}

// BestPrice returns the lowest price for productID among allowed stores. ok is
// false when no allowed store has a quote.
func (ix *PriceIndex) BestPrice(productID string, allowed []StoreID) (price decimal.Decimal, ok bool) {
	for _, q := range ix.Offers(productID, allowed) {
		if !ok || q.Price.LessThan(price) {
			price = q.Price
			ok = true
		}
	}
	return price, ok
}

// Len returns the number of products with at least one quote.
func (ix *PriceIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.quotes)
}

// Snapshot copies the index into its wire form.
func (ix *PriceIndex) Snapshot() PriceSnapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	snap := make(PriceSnapshot, len(ix.quotes))
	for productID, quotes := range ix.quotes {
		entries := make([]SnapshotQuote, len(quotes))
		for i, q := range quotes {
			entries[i] = SnapshotQuote{StoreID: q.StoreID, Price: q.Price, UnitPriceLabel: q.UnitPriceLabel}
		}
		snap[productID] = entries
	}
	return snap
}

// PriceIndexFromSnapshot rebuilds an index from a caller-supplied snapshot.
// Quotes for stores outside the catalog or with negative prices are rejected
// with a ValidationError naming the entry.
func PriceIndexFromSnapshot(catalog *Catalog, snap PriceSnapshot) (*PriceIndex, error) {
	ix := NewPriceIndex(catalog)
	for productID, quotes := range snap {
		if productID == "" {
			return nil, NewValidationError("priceIndexSnapshot", "product id must not be empty")
		}
		for i, q := range quotes {
			field := fmt.Sprintf("priceIndexSnapshot[%s][%d]", productID, i)
			if !catalog.Contains(q.StoreID) {
				return nil, NewValidationError(field+".storeId", "%v %q", ErrUnknownStore, q.StoreID)
			}
			if q.Price.IsNegative() {
				return nil, NewValidationError(field+".price", "must not be negative")
			}
			if err := ix.Insert(PriceQuote{ProductID: productID, StoreID: q.StoreID, Price: q.Price, UnitPriceLabel: q.UnitPriceLabel}); err != nil {
				return nil, err
			}
		}
	}
	return ix, nil
}
