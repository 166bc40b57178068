package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PlanItem is one line the trip optimizer has to place in a store.
type PlanItem struct {
	ItemID    string `json:"itemId,omitempty"`
	ProductID string `json:"productId"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Validate checks a plan item; field prefixes the reported field name.
func (p PlanItem) Validate(field string) error {
	if p.ProductID == "" {
		return NewValidationError(field+".productId", "must not be empty")
	}
	if p.Quantity < 1 {
		return NewValidationError(field+".quantity", "must be at least 1, got %d", p.Quantity)
	}
	return nil
}

// Label is the name shown for the item in a plan.
func (p PlanItem) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ProductID
}

// Key identifies the item in a plan.
func (p PlanItem) Key() string {
	if p.ItemID != "" {
		return p.ItemID
	}
	return p.ProductID
}

// TripLine is one item bought at one store.
type TripLine struct {
	ItemID    string          `json:"itemId"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// StoreVisit groups the items bought at one store.
type StoreVisit struct {
	StoreID   StoreID         `json:"storeId"`
	StoreName string          `json:"storeName"`
	Items     []TripLine      `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// StoreTotal is what the whole list costs at a single store.
type StoreTotal struct {
	StoreID StoreID         `json:"storeId"`
	Total   decimal.Decimal `json:"total"`
}

// TripPlan is the optimizer's output.
type TripPlan struct {
	StoreVisits  []StoreVisit    `json:"storeVisits"`
	TotalCost    decimal.Decimal `json:"totalCost"`
	TotalSavings decimal.Decimal `json:"totalSavings"`
	Baseline     *StoreTotal     `json:"baseline,omitempty"`
	Unavailable  []string        `json:"unavailable,omitempty"`
	Notes        []string        `json:"notes"`
}

// CheckTotals verifies that every subtotal equals the sum of its line costs and
// that the total equals the sum of subtotals.
func (p *TripPlan) CheckTotals() error {
	total := decimal.Zero
	for _, visit := range p.StoreVisits {
		subtotal := decimal.Zero
		for _, line := range visit.Items {
			if !line.LineTotal.Equal(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))) {
				return fmt.Errorf("line %s at %s: total %s != %s x %d", line.ItemID, visit.StoreID, line.LineTotal, line.Price, line.Quantity)
			}
			subtotal = subtotal.Add(line.LineTotal)
		}
		if !subtotal.Equal(visit.Subtotal) {
			return fmt.Errorf("visit %s: subtotal %s != line sum %s", visit.StoreID, visit.Subtotal, subtotal)
		}
		total = total.Add(subtotal)
	}
	if !total.Equal(p.TotalCost) {
		return fmt.Errorf("total cost %s != subtotal sum %s", p.TotalCost, total)
	}
	return nil
}
