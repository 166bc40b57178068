package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopmate/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// resolveConcurrency bounds how many list items are searched at once.
const resolveConcurrency = 4

// GenericItem is a shopping-list entry known only by its free-text name.
type GenericItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resolution is the outcome of binding one generic item to a product.
// Selected is nil when no retailer returned a candidate.
type Resolution struct {
	ItemID       string                   `json:"itemId"`
	Name         string                   `json:"name"`
	Query        string                   `json:"query"`
	Selected     *domain.AugmentedResult  `json:"selected,omitempty"`
	Relevance    float64                  `json:"relevance,omitempty"`
	Alternatives []domain.AugmentedResult `json:"alternatives"`
}

// ItemResolver binds generic list items to concrete products by searching
// every selected store and picking the cheapest relevant candidate.
type ItemResolver struct {
	searcher     ProductSearcher
	matcher      *MatchingService
	preprocessor *QueryPreprocessor
	log          logrus.FieldLogger
}

// NewItemResolver creates a new item resolver
func NewItemResolver(searcher ProductSearcher, matcher *MatchingService, preprocessor *QueryPreprocessor, log logrus.FieldLogger) *ItemResolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if preprocessor == nil {
		preprocessor = NewQueryPreprocessor(log)
	}
	return &ItemResolver{
		searcher:     searcher,
		matcher:      matcher,
		preprocessor: preprocessor,
		log:          log,
	}
}

// Resolve searches for every item concurrently. Quotes for every candidate
// land in index through the searcher. Resolutions are returned in item order.
func (r *ItemResolver) Resolve(ctx context.Context, items []GenericItem, storeIDs []domain.StoreID, index *domain.PriceIndex) ([]Resolution, error) {
	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "at least one item is required")
	}
	for i, item := range items {
		if item.ID == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].id", i), "must not be empty")
		}
		if _, err := r.preprocessor.Normalize(item.Name); err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].name", i), "must contain searchable text")
		}
	}

	resolutions := make([]Resolution, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, item := range items {
		g.Go(func() error {
			res, err := r.resolveOne(gctx, item, storeIDs, index)
			if err != nil {
				return err
			}
			resolutions[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return resolutions, nil
}

func (r *ItemResolver) resolveOne(ctx context.Context, item GenericItem, storeIDs []domain.StoreID, index *domain.PriceIndex) (Resolution, error) {
	query := r.preprocessor.ListItemQuery(item.Name)
	res := Resolution{
		ItemID:       item.ID,
		Name:         item.Name,
		Query:        query,
		Alternatives: []domain.AugmentedResult{},
	}

	results, err := r.searcher.Search(ctx, query, storeIDs, index)
	if err != nil {
		return res, fmt.Errorf("failed to search for %q: %w", item.Name, err)
	}
	if len(results) == 0 {
		r.log.WithField("item", item.Name).Info("No candidates found for list item")
		return res, nil
	}

	scored, err := r.matcher.Rank(ctx, item.Name, results)
	if err != nil {
		return res, err
	}
	candidates := r.matcher.Relevant(scored)

	// Cheapest first, then most relevant; stable keeps retailer order on full ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := candidates[i].Result.Price, candidates[j].Result.Price
		if !pi.Equal(pj) {
			return pi.LessThan(pj)
		}
		return candidates[i].Relevance > candidates[j].Relevance
	})

	selected := candidates[0].Result
	res.Selected = &selected
	res.Relevance = candidates[0].Relevance
	for _, c := range candidates[1:] {
		res.Alternatives = append(res.Alternatives, c.Result)
	}

	r.log.WithFields(logrus.Fields{
		"item":      item.Name,
		"product":   selected.Product.ID,
		"store":     selected.StoreID,
		"relevance": res.Relevance,
	}).Debug("Resolved list item")

	return res, nil
}
