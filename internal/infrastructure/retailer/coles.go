package retailer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopmate/backend/internal/domain"
	"github.com/tidwall/gjson"
)

// ColesConfig configures the Coles adapter.
type ColesConfig struct {
	BaseURL        string
	ImageBaseURL   string
	APIKey         string
	StoreNumber    string
	PlaceholderURL string
}

// Coles searches the Coles BFF product search. Coles ids are internal, so
// every product gets a temporary "coles-<id>" identifier.
type Coles struct {
	cfg       ColesConfig
	transport *Transport
}

// NewColes creates the Coles adapter.
func NewColes(cfg ColesConfig, transport *Transport) *Coles {
	if cfg.StoreNumber == "" {
		cfg.StoreNumber = "0584"
	}
	return &Coles{cfg: cfg, transport: transport}
}

// StoreID implements domain.RetailerAdapter.
func (c *Coles) StoreID() domain.StoreID {
	return domain.StoreColes
}

// Search implements domain.RetailerAdapter.
func (c *Coles) Search(ctx context.Context, query string) ([]domain.AugmentedResult, error) {
	body, err := c.transport.Do(ctx, c.buildRequest(query))
	if err != nil {
		return nil, err
	}
	return c.normalize(body)
}

func (c *Coles) buildRequest(query string) Request {
	params := url.Values{}
	params.Set("q", query)
	params.Set("storeId", c.cfg.StoreNumber)
	params.Set("page", "1")

	return Request{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s/api/bff/products/search?%s", strings.TrimRight(c.cfg.BaseURL, "/"), params.Encode()),
		Headers: map[string]string{
			"Ocp-Apim-Subscription-Key": c.cfg.APIKey,
			"Accept":                    "application/json",
		},
	}
}

func (c *Coles) normalize(body []byte) ([]domain.AugmentedResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: coles response is not JSON", domain.ErrMalformedPayload)
	}

	var out []domain.AugmentedResult
	gjson.GetBytes(body, "results").ForEach(func(_, item gjson.Result) bool {
		if item.Get("_type").String() != "PRODUCT" {
			return true
		}
		if r, ok := c.mapProduct(item); ok {
			out = append(out, r)
		}
		return true
	})
	return out, nil
}

func (c *Coles) mapProduct(item gjson.Result) (domain.AugmentedResult, bool) {
	sku := strings.TrimSpace(item.Get("id").String())
	name := strings.TrimSpace(item.Get("name").String())
	if sku == "" || name == "" {
		return domain.AugmentedResult{}, false
	}
	price, ok := positivePrice(item.Get("pricing.now"))
	if !ok {
		return domain.AugmentedResult{}, false
	}

	image := PlaceholderImage(c.cfg.PlaceholderURL, name)
	if path := strings.TrimSpace(item.Get("image").String()); path != "" {
		image = strings.TrimRight(c.cfg.ImageBaseURL, "/") + path
	}

	product := domain.CanonicalProduct{
		ID:            domain.TemporaryID("coles", sku),
		Name:          name,
		Brand:         firstNonEmpty(item.Get("brand").String(), "Coles"),
		Description:   firstNonEmpty(item.Get("description").String(), name),
		ImageURL:      image,
		SourcePayload: rawPayload(item),
	}
	return result(c.StoreID(), product, price, item.Get("pricing.comparable").String()), true
}
