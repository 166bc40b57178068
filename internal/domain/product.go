package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CanonicalProduct is the retailer-independent product record every adapter
// normalizes vendor payloads into.
type CanonicalProduct struct {
	// ID is unique within a retailer. Retailers without a universal barcode get
	// a synthesized "<retailer>-<sku>" id, see IsTemporaryID.
	ID          string `json:"id"`
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	// SourcePayload keeps the raw retailer record for detail display.
	SourcePayload json.RawMessage `json:"sourcePayload,omitempty"`
}

// AugmentedResult is one priced product from one store.
type AugmentedResult struct {
	Product        CanonicalProduct `json:"product"`
	Price          decimal.Decimal  `json:"price"`
	UnitPriceLabel string           `json:"unitPriceLabel,omitempty"`
	StoreID        StoreID          `json:"storeId"`
	StoreLogoURL   string           `json:"storeLogoUrl"`
}

// Quote converts the result into the price index record for its store.
func (r AugmentedResult) Quote() PriceQuote {
	return PriceQuote{
		ProductID:      r.Product.ID,
		StoreID:        r.StoreID,
		Price:          r.Price,
		UnitPriceLabel: r.UnitPriceLabel,
	}
}

// TemporaryID synthesizes a retailer-scoped identifier for a product that has
// no universal barcode.
func TemporaryID(retailer, sku string) string {
	return retailer + "-" + sku
}

// IsTemporaryID reports whether id was synthesized by TemporaryID for one of
// the known retailer prefixes. Such ids are never interchangeable across
// retailers, even for the same physical good.
func IsTemporaryID(id string) bool {
	for _, prefix := range temporaryIDPrefixes {
		if strings.HasPrefix(id, prefix+"-") {
			return true
		}
	}
	return false
}

var temporaryIDPrefixes = []string{"woolworths", "coles", "aldi"}
