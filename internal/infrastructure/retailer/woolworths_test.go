package retailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopmate/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const woolworthsFixture = `{
  "Products": [
    {"Products": [
      {"Barcode": "9300633000123", "Stockcode": 1001, "DisplayName": "Woolworths Full Cream Milk 2L", "Brand": "Woolworths", "Description": "Fresh milk", "LargeImageFile": "https://cdn.test/milk.jpg", "Price": 3.1, "CupString": "$1.55 / 1L"},
      {"Barcode": null, "Stockcode": 2002, "DisplayName": "Loose Bananas", "Price": 0.85}
    ]},
    {"Products": [
      {"Barcode": "930000000999", "DisplayName": "Out Of Stock Bread", "Price": null},
      {"Barcode": "930000000888", "DisplayName": "Free Bag", "Price": 0},
      {"Barcode": "930000000777", "Price": 2.5},
      {"Barcode": null, "Stockcode": null, "DisplayName": "Mystery", "Price": 1}
    ]}
  ],
  "SearchResultsCount": 6
}`

func TestWoolworths_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/apis/ui/Search/products", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "milk", payload["SearchTerm"])
		assert.Equal(t, float64(1), payload["PageNumber"])
		assert.Equal(t, float64(36), payload["PageSize"])
		assert.Equal(t, "TraderRelevance", payload["SortType"])

		w.Write([]byte(woolworthsFixture))
	}))
	defer server.Close()

	adapter := NewWoolworths(WoolworthsConfig{BaseURL: server.URL}, newTestTransport(0))
	assert.Equal(t, domain.StoreWoolworths, adapter.StoreID())

	results, err := adapter.Search(context.Background(), "milk")
	require.NoError(t, err)
	require.Len(t, results, 2, "unpriced and unnamed records are dropped")

	milk := results[0]
	assert.Equal(t, "9300633000123", milk.Product.ID)
	assert.Equal(t, "Woolworths Full Cream Milk 2L", milk.Product.Name)
	assert.Equal(t, "Fresh milk", milk.Product.Description)
	assert.Equal(t, "https://cdn.test/milk.jpg", milk.Product.ImageURL)
	assert.Equal(t, "3.1", milk.Price.String())
	assert.Equal(t, "$1.55 / 1L", milk.UnitPriceLabel)
	assert.Equal(t, domain.StoreWoolworths, milk.StoreID)
	assert.Contains(t, string(milk.Product.SourcePayload), `"Stockcode": 1001`)

	bananas := results[1]
	assert.Equal(t, "woolworths-2002", bananas.Product.ID)
	assert.True(t, domain.IsTemporaryID(bananas.Product.ID))
	assert.Equal(t, "Woolworths", bananas.Product.Brand)
	assert.Equal(t, "Loose Bananas", bananas.Product.Description)
	assert.Equal(t, PlaceholderImage("", "Loose Bananas"), bananas.Product.ImageURL)
}

func TestWoolworths_EmptyProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Products": null, "SearchResultsCount": 0}`))
	}))
	defer server.Close()

	results, err := NewWoolworths(WoolworthsConfig{BaseURL: server.URL}, newTestTransport(0)).Search(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestWoolworths_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>blocked</html>`))
	}))
	defer server.Close()

	_, err := NewWoolworths(WoolworthsConfig{BaseURL: server.URL}, newTestTransport(0)).Search(context.Background(), "milk")
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}
