// Package retailer holds one adapter per supported grocery retailer. Each
// adapter builds the retailer's request, follows its pagination and maps the
// vendor payload onto domain.CanonicalProduct.
package retailer

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/shopmate/backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// DefaultPlaceholderURL renders a text-only product image.
const DefaultPlaceholderURL = "https://via.placeholder.com/200"

// PlaceholderImage returns a deterministic image URL parameterized by the product name.
func PlaceholderImage(base, name string) string {
	if base == "" {
		base = DefaultPlaceholderURL
	}
	return base + "?text=" + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// priceFrom reads a price field that may be a JSON number or a numeric string.
func priceFrom(r gjson.Result) (decimal.Decimal, bool) {
	var raw string
	switch r.Type {
	case gjson.Number:
		raw = r.Raw
	case gjson.String:
		raw = strings.TrimSpace(r.Str)
	default:
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// positivePrice returns the price only when it can take part in cost
// optimization; missing, zero and negative prices drop the record.
func positivePrice(r gjson.Result) (decimal.Decimal, bool) {
	d, ok := priceFrom(r)
	if !ok || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func rawPayload(r gjson.Result) json.RawMessage {
	if r.Raw == "" {
		return nil
	}
	return json.RawMessage(r.Raw)
}

func result(storeID domain.StoreID, product domain.CanonicalProduct, price decimal.Decimal, unitLabel string) domain.AugmentedResult {
	return domain.AugmentedResult{
		Product:        product,
		Price:          price,
		UnitPriceLabel: strings.TrimSpace(unitLabel),
		StoreID:        storeID,
	}
}
