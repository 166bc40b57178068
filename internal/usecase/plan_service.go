package usecase

import (
	"context"
	"fmt"

	"github.com/shopmate/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// PlanResult pairs the generic-item resolutions with the optimized trip.
type PlanResult struct {
	Resolutions []Resolution     `json:"resolutions"`
	Plan        *domain.TripPlan `json:"plan"`
}

// PlanService turns a shopping list into a trip plan: checked items are
// skipped, generic items are resolved, then the optimizer runs.
type PlanService struct {
	resolver  *ItemResolver
	optimizer *TripOptimizer
	log       logrus.FieldLogger
}

// NewPlanService creates a new plan service
func NewPlanService(resolver *ItemResolver, optimizer *TripOptimizer, log logrus.FieldLogger) *PlanService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PlanService{resolver: resolver, optimizer: optimizer, log: log}
}

// Plan validates the list, resolves its generic items against storeIDs
// (writing quotes into index) and optimizes the remaining items.
func (s *PlanService) Plan(ctx context.Context, items []domain.ListItem, storeIDs []domain.StoreID, index *domain.PriceIndex) (*PlanResult, error) {
	if len(items) == 0 {
		return nil, &domain.UnresolvableError{Reason: "the shopping list has no items to plan"}
	}
	for i, item := range items {
		if err := item.Validate(fmt.Sprintf("items[%d]", i)); err != nil {
			return nil, err
		}
	}

	var (
		pending  []domain.ListItem
		generics []GenericItem
	)
	for _, item := range items {
		if item.IsChecked {
			continue
		}
		pending = append(pending, item)
		if item.IsGeneric {
			generics = append(generics, GenericItem{ID: item.ID, Name: item.Name})
		}
	}
	if len(pending) == 0 {
		return nil, &domain.UnresolvableError{Reason: "every item on the list is already checked off"}
	}

	resolutions := []Resolution{}
	byItem := map[string]Resolution{}
	if len(generics) > 0 {
		var err error
		resolutions, err = s.resolver.Resolve(ctx, generics, storeIDs, index)
		if err != nil {
			return nil, err
		}
		for _, r := range resolutions {
			byItem[r.ItemID] = r
		}
	}

	var (
		planItems  []domain.PlanItem
		unresolved []domain.ListItem
	)
	for _, item := range pending {
		if item.IsGeneric {
			res := byItem[item.ID]
			if res.Selected == nil {
				unresolved = append(unresolved, item)
				continue
			}
			item = item.Resolve(res.Selected.Product.ID, res.Selected.Product.Name)
		}
		planItems = append(planItems, item.PlanItem())
	}

	if len(planItems) == 0 {
		return nil, &domain.UnresolvableError{Reason: "no list item could be matched to a product at the selected stores"}
	}

	plan, err := s.optimizer.Optimize(planItems, index, storeIDs)
	if err != nil {
		return nil, err
	}

	if len(unresolved) > 0 {
		notes := make([]string, 0, len(unresolved)+len(plan.Notes))
		for _, item := range unresolved {
			plan.Unavailable = append(plan.Unavailable, item.ID)
			notes = append(notes, fmt.Sprintf("No product matching %q was found at the selected stores.", item.Name))
		}
		plan.Notes = append(notes, plan.Notes...)
	}

	s.log.WithFields(logrus.Fields{
		"items":      len(items),
		"planned":    len(planItems),
		"unresolved": len(unresolved),
		"visits":     len(plan.StoreVisits),
		"total":      plan.TotalCost.StringFixed(2),
	}).Info("Trip planned")

	return &PlanResult{Resolutions: resolutions, Plan: plan}, nil
}
