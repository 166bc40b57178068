package usecase

import (
	"fmt"

	"github.com/shopmate/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultAdvisoryThreshold is the smallest saving considered worth an extra store visit.
var DefaultAdvisoryThreshold = decimal.RequireFromString("1.50")

// TripOptimizer assigns each list item to the store where it is cheapest and
// explains the result against the best single-store trip.
type TripOptimizer struct {
	catalog   *domain.Catalog
	threshold decimal.Decimal
}

// NewTripOptimizer creates an optimizer. A negative threshold is treated as zero.
func NewTripOptimizer(catalog *domain.Catalog, advisoryThreshold decimal.Decimal) *TripOptimizer {
	if advisoryThreshold.IsNegative() {
		advisoryThreshold = decimal.Zero
	}
	return &TripOptimizer{catalog: catalog, threshold: advisoryThreshold}
}

type assignment struct {
	item    domain.PlanItem
	storeID domain.StoreID
	price   decimal.Decimal
	offers  []domain.PriceQuote
}

// Optimize builds the minimum-cost plan for items across userStores using
// the quotes in index. It reads the index only.
//
// Items without any offer at the selected stores are left out and listed in
// Unavailable. An *domain.UnresolvableError is returned when items is empty
// or no item has an offer; malformed input yields a *domain.ValidationError.
func (o *TripOptimizer) Optimize(items []domain.PlanItem, index *domain.PriceIndex, userStores []domain.StoreID) (*domain.TripPlan, error) {
	if len(items) == 0 {
		return nil, &domain.UnresolvableError{Reason: "the shopping list has no items to plan"}
	}
	if len(userStores) == 0 {
		return nil, domain.NewValidationError("storeIds", "at least one store is required")
	}
	stores := make([]domain.StoreID, 0, len(userStores))
	seen := make(map[domain.StoreID]bool, len(userStores))
	for i, id := range userStores {
		if !o.catalog.Contains(id) {
			return nil, domain.NewValidationError(fmt.Sprintf("storeIds[%d]", i), "%v %q", domain.ErrUnknownStore, id)
		}
		if !seen[id] {
			seen[id] = true
			stores = append(stores, id)
		}
	}
	userStores = stores
	for i, item := range items {
		if err := item.Validate(fmt.Sprintf("items[%d]", i)); err != nil {
			return nil, err
		}
	}
	if index == nil {
		index = domain.NewPriceIndex(o.catalog)
	}

	plan := &domain.TripPlan{
		StoreVisits:  []domain.StoreVisit{},
		TotalCost:    decimal.Zero,
		TotalSavings: decimal.Zero,
		Notes:        []string{},
	}

	// Per-item minimization; Offers is in userStores order, so the strict
	// comparison lets the first listed store win ties.
	var assigned []assignment
	for _, item := range items {
		offers := index.Offers(item.ProductID, userStores)
		if len(offers) == 0 {
			plan.Unavailable = append(plan.Unavailable, item.Key())
			plan.Notes = append(plan.Notes, fmt.Sprintf("%s is not available at any of the selected stores.", item.Label()))
			continue
		}
		best := offers[0]
		for _, q := range offers[1:] {
			if q.Price.LessThan(best.Price) {
				best = q
			}
		}
		assigned = append(assigned, assignment{item: item, storeID: best.StoreID, price: best.Price, offers: offers})
	}

	if len(assigned) == 0 {
		return nil, &domain.UnresolvableError{
			Reason: fmt.Sprintf("none of the %d items has a price at the selected stores", len(items)),
		}
	}

	for _, storeID := range userStores {
		visit := domain.StoreVisit{
			StoreID:   storeID,
			StoreName: o.catalog.StoreName(storeID),
			Subtotal:  decimal.Zero,
		}
		for _, a := range assigned {
			if a.storeID != storeID {
				continue
			}
			line := domain.TripLine{
				ItemID:    a.item.Key(),
				ProductID: a.item.ProductID,
				Name:      a.item.Label(),
				Quantity:  a.item.Quantity,
				Price:     a.price,
				LineTotal: lineTotal(a.price, a.item.Quantity),
			}
			visit.Items = append(visit.Items, line)
			visit.Subtotal = visit.Subtotal.Add(line.LineTotal)
		}
		if len(visit.Items) > 0 {
			plan.StoreVisits = append(plan.StoreVisits, visit)
			plan.TotalCost = plan.TotalCost.Add(visit.Subtotal)
		}
	}

	plan.Baseline = singleStoreBest(assigned, userStores)
	if plan.Baseline == nil {
		plan.Notes = append(plan.Notes, "No single selected store stocks every item, so savings against a one-store trip cannot be compared.")
		return plan, nil
	}

	gain := plan.Baseline.Total.Sub(plan.TotalCost)
	if gain.IsPositive() {
		plan.TotalSavings = gain
	}

	extraStores := len(plan.StoreVisits) - 1
	baselineName := o.catalog.StoreName(plan.Baseline.StoreID)
	switch {
	case extraStores >= 1 && plan.TotalSavings.LessThan(o.threshold):
		plan.Notes = append(plan.Notes, fmt.Sprintf(
			"Visiting %d stores saves only %s compared with shopping everything at %s (%s); the extra trip may not be worth it.",
			len(plan.StoreVisits), domain.FormatMoney(plan.TotalSavings), baselineName, domain.FormatMoney(plan.Baseline.Total),
		))
	case extraStores >= 1:
		plan.Notes = append(plan.Notes, fmt.Sprintf(
			"Splitting the trip across %d stores saves %s compared with shopping everything at %s (%s).",
			len(plan.StoreVisits), domain.FormatMoney(plan.TotalSavings), baselineName, domain.FormatMoney(plan.Baseline.Total),
		))
	}

	return plan, nil
}

// singleStoreBest returns the cheapest store, in userStores order on ties,
// that has an offer for every assigned item. Nil when no store covers all.
func singleStoreBest(assigned []assignment, userStores []domain.StoreID) *domain.StoreTotal {
	var best *domain.StoreTotal
	for _, storeID := range userStores {
		total := decimal.Zero
		covers := true
		for _, a := range assigned {
			price, ok := offerAt(a.offers, storeID)
			if !ok {
				covers = false
				break
			}
			total = total.Add(lineTotal(price, a.item.Quantity))
		}
		if covers && (best == nil || total.LessThan(best.Total)) {
			best = &domain.StoreTotal{StoreID: storeID, Total: total}
		}
	}
	return best
}

func offerAt(offers []domain.PriceQuote, storeID domain.StoreID) (decimal.Decimal, bool) {
	for _, q := range offers {
		if q.StoreID == storeID {
			return q.Price, true
		}
	}
	return decimal.Zero, false
}

func lineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
