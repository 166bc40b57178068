package retailer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopmate/backend/internal/domain"
	"github.com/tidwall/gjson"
)

// WoolworthsConfig configures the Woolworths adapter.
type WoolworthsConfig struct {
	BaseURL        string
	PageSize       int
	PlaceholderURL string
}

// Woolworths searches the Woolworths product search API. Products carry a
// real barcode; a synthesized stockcode id is used only when it is missing.
type Woolworths struct {
	cfg       WoolworthsConfig
	transport *Transport
}

// NewWoolworths creates the Woolworths adapter.
func NewWoolworths(cfg WoolworthsConfig, transport *Transport) *Woolworths {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 36
	}
	return &Woolworths{cfg: cfg, transport: transport}
}

// StoreID implements domain.RetailerAdapter.
func (w *Woolworths) StoreID() domain.StoreID {
	return domain.StoreWoolworths
}

// Search implements domain.RetailerAdapter.
func (w *Woolworths) Search(ctx context.Context, query string) ([]domain.AugmentedResult, error) {
	req, err := w.buildRequest(query)
	if err != nil {
		return nil, err
	}
	body, err := w.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return w.normalize(body)
}

type woolworthsSearch struct {
	SearchTerm string `json:"SearchTerm"`
	PageNumber int    `json:"PageNumber"`
	PageSize   int    `json:"PageSize"`
	SortType   string `json:"SortType"`
}

func (w *Woolworths) buildRequest(query string) (Request, error) {
	payload, err := json.Marshal(woolworthsSearch{
		SearchTerm: query,
		PageNumber: 1,
		PageSize:   w.cfg.PageSize,
		SortType:   "TraderRelevance",
	})
	if err != nil {
		return Request{}, fmt.Errorf("failed to encode woolworths search: %w", err)
	}
	return Request{
		Method: http.MethodPost,
		URL:    strings.TrimRight(w.cfg.BaseURL, "/") + "/apis/ui/Search/products",
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json, text/plain, */*",
		},
		Body: payload,
	}, nil
}

// normalize flattens Products[].Products[] into priced canonical records.
func (w *Woolworths) normalize(body []byte) ([]domain.AugmentedResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: woolworths response is not JSON", domain.ErrMalformedPayload)
	}

	var out []domain.AugmentedResult
	gjson.GetBytes(body, "Products").ForEach(func(_, group gjson.Result) bool {
		group.Get("Products").ForEach(func(_, p gjson.Result) bool {
			if r, ok := w.mapProduct(p); ok {
				out = append(out, r)
			}
			return true
		})
		return true
	})
	return out, nil
}

func (w *Woolworths) mapProduct(p gjson.Result) (domain.AugmentedResult, bool) {
	name := firstNonEmpty(p.Get("DisplayName").String(), p.Get("Name").String())
	if name == "" {
		return domain.AugmentedResult{}, false
	}
	price, ok := positivePrice(p.Get("Price"))
	if !ok {
		return domain.AugmentedResult{}, false
	}

	id := strings.TrimSpace(p.Get("Barcode").String())
	if id == "" {
		stockcode := strings.TrimSpace(p.Get("Stockcode").String())
		if stockcode == "" {
			return domain.AugmentedResult{}, false
		}
		id = domain.TemporaryID("woolworths", stockcode)
	}

	product := domain.CanonicalProduct{
		ID:            id,
		Name:          name,
		Brand:         firstNonEmpty(p.Get("Brand").String(), "Woolworths"),
		Description:   firstNonEmpty(p.Get("Description").String(), name),
		ImageURL:      firstNonEmpty(p.Get("LargeImageFile").String(), PlaceholderImage(w.cfg.PlaceholderURL, name)),
		SourcePayload: rawPayload(p),
	}
	return result(w.StoreID(), product, price, p.Get("CupString").String()), true
}
