package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopmate/backend/internal/domain"
	"github.com/shopmate/backend/internal/logging"
)

func newTestPlanService(t *testing.T) *PlanService {
	t.Helper()
	return NewPlanService(newTestResolver(t, 40), newTestOptimizer(), logging.Discard())
}

func TestPlan_ResolvesGenericsAndOptimizes(t *testing.T) {
	svc := newTestPlanService(t)
	index := domain.NewPriceIndex(domain.DefaultCatalog())
	// Previously searched product bound directly on the list.
	if err := index.Insert(domain.PriceQuote{ProductID: "9300633", StoreID: domain.StoreWoolworths, Price: dec("3.10")}); err != nil {
		t.Fatal(err)
	}

	items := []domain.ListItem{
		{ID: "1", Name: "Full cream milk", ProductID: "9300633", Quantity: 2},
		{ID: "2", Name: "bread", IsGeneric: true, Quantity: 1},
		{ID: "3", Name: "dragonfruit", IsGeneric: true, Quantity: 1},
		{ID: "4", Name: "eggs", IsGeneric: true, Quantity: 1, IsChecked: true},
	}

	result, err := svc.Plan(context.Background(), items, bothStores, index)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if len(result.Resolutions) != 2 {
		t.Fatalf("Resolutions = %d, want 2 (checked items are skipped)", len(result.Resolutions))
	}

	plan := result.Plan
	if err := plan.CheckTotals(); err != nil {
		t.Fatal(err)
	}
	// milk 2 x 3.10 at Woolworths, bread 2.00 at Coles.
	if !plan.TotalCost.Equal(dec("8.20")) {
		t.Errorf("TotalCost = %s, want 8.20", plan.TotalCost)
	}
	if len(plan.StoreVisits) != 2 {
		t.Fatalf("StoreVisits = %+v, want two visits", plan.StoreVisits)
	}
	breadLine := plan.StoreVisits[1].Items[0]
	if breadLine.ItemID != "2" || breadLine.ProductID != "coles-2" || breadLine.Name != "Coles White Bread 650g" {
		t.Errorf("bread line = %+v, want item 2 resolved to coles-2", breadLine)
	}

	if len(plan.Unavailable) != 1 || plan.Unavailable[0] != "3" {
		t.Errorf("Unavailable = %v, want [3]", plan.Unavailable)
	}
	if len(plan.Notes) == 0 || !strings.Contains(plan.Notes[0], `"dragonfruit"`) {
		t.Errorf("first note should report the unresolved item, got %v", plan.Notes)
	}
}

func TestPlan_Unresolvable(t *testing.T) {
	svc := newTestPlanService(t)

	tests := []struct {
		name  string
		items []domain.ListItem
	}{
		{"empty list", nil},
		{"everything checked", []domain.ListItem{{ID: "1", ProductID: "p", Quantity: 1, IsChecked: true}}},
		{"nothing resolves", []domain.ListItem{{ID: "1", Name: "dragonfruit", IsGeneric: true, Quantity: 1}}},
		{"nothing priced", []domain.ListItem{{ID: "1", ProductID: "unknown", Quantity: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Plan(context.Background(), tt.items, bothStores, domain.NewPriceIndex(domain.DefaultCatalog()))
			if !errors.Is(err, domain.ErrUnresolvable) {
				t.Errorf("error = %v, want ErrUnresolvable", err)
			}
		})
	}
}

func TestPlan_RejectsInvalidItems(t *testing.T) {
	svc := newTestPlanService(t)

	items := []domain.ListItem{
		{ID: "1", ProductID: "p", Quantity: 1},
		{ID: "2", Name: "milk", IsGeneric: true, ProductID: "p", Quantity: 1},
	}
	_, err := svc.Plan(context.Background(), items, bothStores, nil)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "items[1].productId" {
		t.Errorf("error = %v, want validation error on items[1].productId", err)
	}
}
