package retailer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopmate/backend/internal/domain"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// AldiConfig configures the ALDI adapter.
type AldiConfig struct {
	BaseURL  string
	PageSize int
	// PageConcurrency bounds how many follow-up pages are in flight.
	PageConcurrency int
	PlaceholderURL  string
	// MaxPages caps the pages fetched per search, the first one included.
	// Products past the cap are not returned.
	MaxPages int
}

// Aldi searches the ALDI product search API. Results are paged by offset; when
// the reported total exceeds one page the remaining pages are fetched
// concurrently. Prices are reported in cents.
type Aldi struct {
	cfg       AldiConfig
	transport *Transport
}

// NewAldi creates the ALDI adapter.
func NewAldi(cfg AldiConfig, transport *Transport) *Aldi {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 30
	}
	if cfg.PageConcurrency <= 0 {
		cfg.PageConcurrency = 4
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	return &Aldi{cfg: cfg, transport: transport}
}

// StoreID implements domain.RetailerAdapter.
func (a *Aldi) StoreID() domain.StoreID {
	return domain.StoreAldi
}

// Search implements domain.RetailerAdapter. A failed follow-up page fails the
// whole search: the result holds every page up to the reported total or nothing.
func (a *Aldi) Search(ctx context.Context, query string) ([]domain.AugmentedResult, error) {
	first, err := a.fetchPage(ctx, query, 0)
	if err != nil {
		return nil, err
	}

	items := first.Get("data").Array()
	totalCount := first.Get("meta.pagination.totalCount").Int()
	if totalCount < 0 {
		return nil, fmt.Errorf("%w: aldi reported a negative total count %d", domain.ErrMalformedPayload, totalCount)
	}
	remaining := a.remainingPages(totalCount)
	if remaining > 0 {
		pages := make([][]gjson.Result, remaining)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.cfg.PageConcurrency)
		for i := 0; i < remaining; i++ {
			offset := (i + 1) * a.cfg.PageSize
			g.Go(func() error {
				page, err := a.fetchPage(gctx, query, offset)
				if err != nil {
					return fmt.Errorf("page at offset %d: %w", offset, err)
				}
				pages[i] = page.Get("data").Array()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, page := range pages {
			items = append(items, page...)
		}
	}

	var out []domain.AugmentedResult
	for _, item := range items {
		if r, ok := a.mapProduct(item); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// remainingPages is the number of pages still needed after the first one,
// capped at MaxPages-1.
func (a *Aldi) remainingPages(totalCount int64) int {
	size := int64(a.cfg.PageSize)
	if totalCount <= size {
		return 0
	}
	remaining := (totalCount - 1) / size
	if limit := int64(a.cfg.MaxPages - 1); remaining > limit {
		return int(limit)
	}
	return int(remaining)
}

func (a *Aldi) buildRequest(query string, offset int) Request {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(a.cfg.PageSize))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("sort", "relevance")

	return Request{
		Method:  http.MethodGet,
		URL:     fmt.Sprintf("%s/v3/product-search?%s", strings.TrimRight(a.cfg.BaseURL, "/"), params.Encode()),
		Headers: map[string]string{"Accept": "application/json"},
	}
}

func (a *Aldi) fetchPage(ctx context.Context, query string, offset int) (gjson.Result, error) {
	body, err := a.transport.Do(ctx, a.buildRequest(query, offset))
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: aldi response is not JSON", domain.ErrMalformedPayload)
	}
	return gjson.ParseBytes(body), nil
}

func (a *Aldi) mapProduct(item gjson.Result) (domain.AugmentedResult, bool) {
	sku := strings.TrimSpace(item.Get("sku").String())
	name := strings.TrimSpace(item.Get("name").String())
	if sku == "" || name == "" {
		return domain.AugmentedResult{}, false
	}
	cents, ok := positivePrice(item.Get("price.amount"))
	if !ok {
		return domain.AugmentedResult{}, false
	}

	image := PlaceholderImage(a.cfg.PlaceholderURL, name)
	if tmpl := item.Get("assets.0.url").String(); tmpl != "" {
		slug := firstNonEmpty(item.Get("urlSlugText").String(), "product")
		image = strings.NewReplacer("{width}", "300", "{slug}", slug).Replace(tmpl)
	}

	product := domain.CanonicalProduct{
		ID:            domain.TemporaryID("aldi", sku),
		Name:          name,
		Brand:         firstNonEmpty(item.Get("brandName").String(), "ALDI"),
		Description:   name,
		ImageURL:      image,
		SourcePayload: rawPayload(item),
	}
	return result(a.StoreID(), product, cents.Shift(-2), item.Get("price.comparisonDisplay").String()), true
}
